package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"constructly/backend/internal/dto"
	"constructly/backend/internal/model"
	"constructly/backend/internal/notify"
	"constructly/backend/internal/repository"
	"constructly/backend/internal/storage"
	"constructly/backend/pkg/redis"
	"constructly/backend/pkg/workday"
)

// ── 排期模块业务错误 ──

var (
	ErrScheduleNotFound     = errors.New("排期不存在")
	ErrGroupNotFound        = errors.New("分组不存在")
	ErrGroupTitleTaken      = errors.New("分组名称已存在")
	ErrGroupTitleBlank      = errors.New("分组名称不能为空")
	ErrGroupTitleUnchanged  = errors.New("分组名称未变化")
	ErrItemNotFound         = errors.New("任务不存在")
	ErrSubItemNotFound      = errors.New("子任务不存在")
	ErrSubItemCompleted     = errors.New("已完成的子任务不可编辑")
	ErrBlankTitle           = errors.New("任务名称不能为空")
	ErrInvalidField         = errors.New("不支持的字段")
	ErrInvalidValue         = errors.New("字段值格式错误")
	ErrInvalidStatus        = errors.New("无效的任务状态")
	ErrNegativeDuration     = errors.New("工期不能为负数")
	ErrEndBeforeStart       = errors.New("结束日期早于开始日期")
	ErrIndexOutOfRange      = errors.New("移动下标越界")
	ErrRelationshipNotFound = errors.New("前后置关系不存在")
	ErrRelationshipExists   = errors.New("前后置关系已存在")
	ErrSelfLoop             = errors.New("分组不能作为自身的前置")
	ErrRelationshipCycle    = errors.New("该前后置关系会形成环")
)

// 新任务的默认值：占位名称 + 从今天起 7 个工作日的时间窗
const (
	defaultItemTitle    = "New Item"
	defaultItemDuration = 7
)

// ScheduleService 排期业务接口
type ScheduleService interface {
	// 排期
	CreateSchedule(ctx context.Context, req *dto.CreateScheduleRequest) (*dto.ScheduleResponse, error)
	GetSchedule(ctx context.Context, scheduleID string) (*dto.ScheduleResponse, error)
	DeleteSchedule(ctx context.Context, scheduleID string) error
	// 分组
	CreateGroup(ctx context.Context, scheduleID string, req *dto.CreateGroupRequest) (*dto.GroupResponse, error)
	RenameGroup(ctx context.Context, scheduleID string, req *dto.RenameGroupRequest) error
	DeleteGroup(ctx context.Context, scheduleID, title string) error
	MoveGroup(ctx context.Context, scheduleID string, fromIndex, toIndex int) error
	// 任务
	AddItem(ctx context.Context, scheduleID string, req *dto.AddItemRequest) (*dto.ItemResponse, error)
	UpdateItem(ctx context.Context, itemID int64, req *dto.UpdateFieldRequest) (*dto.ItemResponse, error)
	DeleteItem(ctx context.Context, itemID int64) error
	MoveItem(ctx context.Context, scheduleID string, req *dto.MoveItemRequest) error
	// 子任务
	AddSubItem(ctx context.Context, itemID int64, req *dto.AddSubItemRequest) (*dto.SubItemResponse, error)
	UpdateSubItem(ctx context.Context, subItemID int64, req *dto.UpdateFieldRequest) (*dto.SubItemResponse, error)
	DeleteSubItem(ctx context.Context, subItemID int64) error
	// 前后置关系
	ListRelationships(ctx context.Context, scheduleID string) ([]dto.RelationshipResponse, error)
	AddRelationship(ctx context.Context, scheduleID string, req *dto.AddRelationshipRequest) (*dto.RelationshipResponse, error)
	DeleteRelationship(ctx context.Context, scheduleID, relationshipID string) error
}

type scheduleService struct {
	repo     *repository.Repository
	blobs    storage.BlobStorage
	notifier notify.Notifier
	cache    *redis.Client // 可为 nil（降级：不缓存）
	logger   *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(
	repo *repository.Repository,
	blobs storage.BlobStorage,
	notifier notify.Notifier,
	cache *redis.Client,
	logger *zap.Logger,
) ScheduleService {
	return &scheduleService{
		repo:     repo,
		blobs:    blobs,
		notifier: notifier,
		cache:    cache,
		logger:   logger,
	}
}

// ════════════════════════════════════════════════════════════
// 排期读写
// ════════════════════════════════════════════════════════════

func (s *scheduleService) CreateSchedule(ctx context.Context, req *dto.CreateScheduleRequest) (*dto.ScheduleResponse, error) {
	schedule := &model.Schedule{Name: strings.TrimSpace(req.Name)}
	if schedule.Name == "" {
		return nil, ErrBlankTitle
	}
	if err := s.repo.Schedule.Create(ctx, schedule); err != nil {
		s.logger.Error("创建排期失败", zap.Error(err))
		s.notifier.Error(ctx, "创建排期失败", err.Error())
		return nil, err
	}
	return &dto.ScheduleResponse{
		ID:            schedule.ScheduleID,
		Name:          schedule.Name,
		Groups:        []dto.GroupResponse{},
		Relationships: []dto.RelationshipResponse{},
		CreatedAt:     fmtTime(schedule.CreatedAt),
		UpdatedAt:     fmtTime(schedule.UpdatedAt),
	}, nil
}

func (s *scheduleService) GetSchedule(ctx context.Context, scheduleID string) (*dto.ScheduleResponse, error) {
	// 读缓存（命中即返回；缓存故障降级走库）
	if s.cache != nil {
		if data, err := s.cache.GetCachedSchedule(ctx, scheduleID); err == nil && data != nil {
			var resp dto.ScheduleResponse
			if err := json.Unmarshal(data, &resp); err == nil {
				return &resp, nil
			}
		}
	}

	schedule, err := s.repo.Schedule.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询排期失败", zap.Error(err))
		return nil, err
	}

	resp, err := s.buildScheduleResponse(ctx, schedule)
	if err != nil {
		return nil, err
	}

	// 回填缓存（失败只记日志）
	if s.cache != nil {
		if data, err := json.Marshal(resp); err == nil {
			if err := s.cache.CacheSchedule(ctx, scheduleID, data); err != nil {
				s.logger.Warn("写入排期缓存失败", zap.Error(err))
			}
		}
	}

	return resp, nil
}

func (s *scheduleService) DeleteSchedule(ctx context.Context, scheduleID string) error {
	if _, err := s.repo.Schedule.GetByID(ctx, scheduleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrScheduleNotFound
		}
		s.logger.Error("查询排期失败", zap.Error(err))
		return err
	}

	// 数据行由外键级联删除，附件二进制需逐条清理
	items, err := s.repo.Item.ListBySchedule(ctx, scheduleID)
	if err != nil {
		s.logger.Error("查询任务失败", zap.Error(err))
		return err
	}
	for i := range items {
		s.deleteItemBlobs(ctx, items[i].ItemID)
	}

	if err := s.repo.Schedule.Delete(ctx, scheduleID); err != nil {
		s.logger.Error("删除排期失败", zap.Error(err))
		s.notifier.Error(ctx, "删除排期失败", err.Error())
		return err
	}
	s.invalidate(ctx, scheduleID)
	return nil
}

// buildScheduleResponse 组装排期响应：
// 分组按 sort_order，组内任务按 sort_order；
// 指向不存在分组的任务与关系边按"视为不存在"过滤（软失败，不报错）
func (s *scheduleService) buildScheduleResponse(ctx context.Context, schedule *model.Schedule) (*dto.ScheduleResponse, error) {
	groups, err := s.repo.Group.ListBySchedule(ctx, schedule.ScheduleID)
	if err != nil {
		s.logger.Error("查询分组失败", zap.Error(err))
		return nil, err
	}
	items, err := s.repo.Item.ListBySchedule(ctx, schedule.ScheduleID)
	if err != nil {
		s.logger.Error("查询任务失败", zap.Error(err))
		return nil, err
	}
	rels, err := s.repo.Relationship.ListBySchedule(ctx, schedule.ScheduleID)
	if err != nil {
		s.logger.Error("查询前后置关系失败", zap.Error(err))
		return nil, err
	}

	itemsByGroup := make(map[string][]dto.ItemResponse)
	for i := range items {
		itemsByGroup[items[i].GroupTitle] = append(itemsByGroup[items[i].GroupTitle], *toItemResponse(&items[i]))
	}

	groupSet := make(map[string]bool, len(groups))
	groupResps := make([]dto.GroupResponse, 0, len(groups))
	for _, g := range groups {
		groupSet[g.Title] = true
		itemList := itemsByGroup[g.Title]
		if itemList == nil {
			itemList = []dto.ItemResponse{}
		}
		groupResps = append(groupResps, dto.GroupResponse{
			Title:     g.Title,
			SortOrder: g.SortOrder,
			Items:     itemList,
		})
	}

	relResps := make([]dto.RelationshipResponse, 0, len(rels))
	for _, rel := range rels {
		if !groupSet[rel.PredecessorGroupTitle] || !groupSet[rel.SuccessorGroupTitle] {
			continue
		}
		relResps = append(relResps, dto.RelationshipResponse{
			ID:                    rel.RelationshipID,
			PredecessorGroupTitle: rel.PredecessorGroupTitle,
			SuccessorGroupTitle:   rel.SuccessorGroupTitle,
		})
	}

	return &dto.ScheduleResponse{
		ID:            schedule.ScheduleID,
		Name:          schedule.Name,
		Groups:        groupResps,
		Relationships: relResps,
		CreatedAt:     fmtTime(schedule.CreatedAt),
		UpdatedAt:     fmtTime(schedule.UpdatedAt),
	}, nil
}

// ════════════════════════════════════════════════════════════
// 分组操作
// ════════════════════════════════════════════════════════════

func (s *scheduleService) CreateGroup(ctx context.Context, scheduleID string, req *dto.CreateGroupRequest) (*dto.GroupResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrGroupTitleBlank
	}

	if _, err := s.repo.Schedule.GetByID(ctx, scheduleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}

	groups, err := s.repo.Group.ListBySchedule(ctx, scheduleID)
	if err != nil {
		s.logger.Error("查询分组失败", zap.Error(err))
		return nil, err
	}
	for _, g := range groups {
		if g.Title == title {
			return nil, ErrGroupTitleTaken
		}
	}

	group := &model.ScheduleGroup{
		ScheduleID: scheduleID,
		Title:      title,
		SortOrder:  len(groups), // 追加到末尾
	}
	if err := s.repo.Group.Create(ctx, group); err != nil {
		s.logger.Error("创建分组失败", zap.Error(err))
		s.notifier.Error(ctx, "创建分组失败", err.Error())
		return nil, err
	}

	s.invalidate(ctx, scheduleID)
	s.notifier.Success(ctx, "分组已创建", title)
	return &dto.GroupResponse{Title: group.Title, SortOrder: group.SortOrder, Items: []dto.ItemResponse{}}, nil
}

// RenameGroup 重命名分组：title 是业务主键，
// 同时级联改写任务的 group_title 与关系边的前驱/后继字段；
// 分组的 sort_order 不变
func (s *scheduleService) RenameGroup(ctx context.Context, scheduleID string, req *dto.RenameGroupRequest) error {
	newTitle := strings.TrimSpace(req.NewTitle)
	if newTitle == "" {
		return ErrGroupTitleBlank
	}
	if newTitle == req.OldTitle {
		return ErrGroupTitleUnchanged
	}

	if _, err := s.repo.Group.GetByTitle(ctx, scheduleID, newTitle); err == nil {
		return ErrGroupTitleTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询分组失败", zap.Error(err))
		return err
	}

	if err := s.repo.Group.Rename(ctx, scheduleID, req.OldTitle, newTitle); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		s.logger.Error("重命名分组失败", zap.Error(err))
		s.notifier.Error(ctx, "重命名分组失败", err.Error())
		return err
	}

	s.invalidate(ctx, scheduleID)
	s.notifier.Success(ctx, "分组已重命名", fmt.Sprintf("%s → %s", req.OldTitle, newTitle))
	return nil
}

func (s *scheduleService) DeleteGroup(ctx context.Context, scheduleID, title string) error {
	items, err := s.repo.Item.ListByGroup(ctx, scheduleID, title)
	if err != nil {
		s.logger.Error("查询分组任务失败", zap.Error(err))
		return err
	}

	// 先清附件二进制，再删行（行由外键级联删除）
	for i := range items {
		s.deleteItemBlobs(ctx, items[i].ItemID)
	}

	if err := s.repo.Group.Delete(ctx, scheduleID, title); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		s.logger.Error("删除分组失败", zap.Error(err))
		s.notifier.Error(ctx, "删除分组失败", err.Error())
		return err
	}

	// 剩余分组重新编号，保持 sort_order 连续
	groups, err := s.repo.Group.ListBySchedule(ctx, scheduleID)
	if err == nil {
		titles := make([]string, len(groups))
		for i, g := range groups {
			titles[i] = g.Title
		}
		if err := s.repo.Group.UpdateSortOrders(ctx, scheduleID, titles); err != nil {
			s.logger.Warn("分组重编号失败", zap.Error(err))
		}
	}

	s.invalidate(ctx, scheduleID)
	s.notifier.Success(ctx, "分组已删除", title)
	return nil
}

func (s *scheduleService) MoveGroup(ctx context.Context, scheduleID string, fromIndex, toIndex int) error {
	groups, err := s.repo.Group.ListBySchedule(ctx, scheduleID)
	if err != nil {
		s.logger.Error("查询分组失败", zap.Error(err))
		return err
	}
	if !validIndex(len(groups), fromIndex, toIndex) {
		return ErrIndexOutOfRange
	}
	if fromIndex == toIndex {
		return nil
	}

	titles := make([]string, len(groups))
	for i, g := range groups {
		titles[i] = g.Title
	}
	reordered := moveElement(titles, fromIndex, toIndex)

	if err := s.repo.Group.UpdateSortOrders(ctx, scheduleID, reordered); err != nil {
		s.logger.Error("保存分组顺序失败", zap.Error(err))
		s.notifier.Error(ctx, "保存分组顺序失败", err.Error())
		return err
	}

	s.invalidate(ctx, scheduleID)
	return nil
}

// ════════════════════════════════════════════════════════════
// 任务操作
// ════════════════════════════════════════════════════════════

func (s *scheduleService) AddItem(ctx context.Context, scheduleID string, req *dto.AddItemRequest) (*dto.ItemResponse, error) {
	if _, err := s.repo.Group.GetByTitle(ctx, scheduleID, req.GroupTitle); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		s.logger.Error("查询分组失败", zap.Error(err))
		return nil, err
	}

	siblings, err := s.repo.Item.ListByGroup(ctx, scheduleID, req.GroupTitle)
	if err != nil {
		s.logger.Error("查询分组任务失败", zap.Error(err))
		return nil, err
	}

	start := startOfDay(time.Now().UTC())
	end := workday.AddWorkingDays(start, defaultItemDuration)
	duration := defaultItemDuration

	item := &model.ScheduleItem{
		ScheduleID: scheduleID,
		GroupTitle: req.GroupTitle,
		Title:      defaultItemTitle,
		Status:     model.StatusInProgress,
		StartDate:  &start,
		EndDate:    &end,
		Duration:   &duration,
		SortOrder:  len(siblings), // 追加到组尾
	}
	if err := s.repo.Item.Create(ctx, item); err != nil {
		s.logger.Error("创建任务失败", zap.Error(err))
		s.notifier.Error(ctx, "创建任务失败", err.Error())
		return nil, err
	}

	s.invalidate(ctx, scheduleID)
	s.propagateFrom(ctx, scheduleID, req.GroupTitle)
	s.notifier.Success(ctx, "任务已创建", defaultItemTitle)
	return toItemResponse(item), nil
}

// UpdateItem 单字段更新，按联动规则重算派生字段：
//   - 改工期且有开始日期 → 重算结束日期
//   - 改开始/结束日期且两端齐备 → 重算工期
//   - 永远不会由 结束日期+工期 反推开始日期
func (s *scheduleService) UpdateItem(ctx context.Context, itemID int64, req *dto.UpdateFieldRequest) (*dto.ItemResponse, error) {
	item, err := s.repo.Item.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		s.logger.Error("查询任务失败", zap.Int64("item_id", itemID), zap.Error(err))
		return nil, err
	}

	if err := applyItemField(item, req.Field, req.Value); err != nil {
		return nil, err
	}

	if err := s.repo.Item.Update(ctx, item); err != nil {
		s.logger.Error("保存任务失败", zap.Int64("item_id", itemID), zap.Error(err))
		s.notifier.Error(ctx, "保存任务失败", err.Error())
		return nil, err
	}

	s.invalidate(ctx, item.ScheduleID)
	if isDateField(req.Field) {
		s.propagateFrom(ctx, item.ScheduleID, item.GroupTitle)
	}
	return toItemResponse(item), nil
}

func (s *scheduleService) DeleteItem(ctx context.Context, itemID int64) error {
	item, err := s.repo.Item.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrItemNotFound
		}
		s.logger.Error("查询任务失败", zap.Int64("item_id", itemID), zap.Error(err))
		return err
	}

	// 附件随任务销毁：先清二进制，行由外键级联删除
	s.deleteItemBlobs(ctx, itemID)

	if err := s.repo.Item.Delete(ctx, itemID); err != nil {
		s.logger.Error("删除任务失败", zap.Int64("item_id", itemID), zap.Error(err))
		s.notifier.Error(ctx, "删除任务失败", err.Error())
		return err
	}

	// 组内剩余任务重新编号
	siblings, err := s.repo.Item.ListByGroup(ctx, item.ScheduleID, item.GroupTitle)
	if err == nil {
		ids := make([]int64, len(siblings))
		for i := range siblings {
			ids[i] = siblings[i].ItemID
		}
		if err := s.repo.Item.UpdateSortOrders(ctx, item.ScheduleID, item.GroupTitle, ids); err != nil {
			s.logger.Warn("任务重编号失败", zap.Error(err))
		}
	}

	s.invalidate(ctx, item.ScheduleID)
	s.propagateFrom(ctx, item.ScheduleID, item.GroupTitle)
	s.notifier.Success(ctx, "任务已删除", item.Title)
	return nil
}

func (s *scheduleService) MoveItem(ctx context.Context, scheduleID string, req *dto.MoveItemRequest) error {
	items, err := s.repo.Item.ListByGroup(ctx, scheduleID, req.GroupTitle)
	if err != nil {
		s.logger.Error("查询分组任务失败", zap.Error(err))
		return err
	}
	from, to := *req.FromIndex, *req.ToIndex
	if !validIndex(len(items), from, to) {
		return ErrIndexOutOfRange
	}
	if from == to {
		return nil
	}

	ids := make([]int64, len(items))
	for i := range items {
		ids[i] = items[i].ItemID
	}
	reordered := moveElement(ids, from, to)

	if err := s.repo.Item.UpdateSortOrders(ctx, scheduleID, req.GroupTitle, reordered); err != nil {
		s.logger.Error("保存任务顺序失败", zap.Error(err))
		s.notifier.Error(ctx, "保存任务顺序失败", err.Error())
		return err
	}

	s.invalidate(ctx, scheduleID)
	return nil
}

// ════════════════════════════════════════════════════════════
// 子任务操作
// ════════════════════════════════════════════════════════════

func (s *scheduleService) AddSubItem(ctx context.Context, itemID int64, req *dto.AddSubItemRequest) (*dto.SubItemResponse, error) {
	if _, err := s.repo.Item.GetByID(ctx, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		s.logger.Error("查询任务失败", zap.Int64("item_id", itemID), zap.Error(err))
		return nil, err
	}

	siblings, err := s.repo.SubItem.ListByItem(ctx, itemID)
	if err != nil {
		s.logger.Error("查询子任务失败", zap.Error(err))
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultItemTitle
	}

	subItem := &model.SubScheduleItem{
		ItemID:    itemID,
		Title:     title,
		Status:    model.StatusInProgress,
		SortOrder: len(siblings),
	}
	if err := s.repo.SubItem.Create(ctx, subItem); err != nil {
		s.logger.Error("创建子任务失败", zap.Error(err))
		s.notifier.Error(ctx, "创建子任务失败", err.Error())
		return nil, err
	}

	s.invalidateByItem(ctx, itemID)
	return toSubItemResponse(subItem), nil
}

// UpdateSubItem 子任务单字段更新。已完成的子任务只读，
// 仅允许把 completed 改回 false（接口层约束，非数据层硬约束）
func (s *scheduleService) UpdateSubItem(ctx context.Context, subItemID int64, req *dto.UpdateFieldRequest) (*dto.SubItemResponse, error) {
	subItem, err := s.repo.SubItem.GetByID(ctx, subItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubItemNotFound
		}
		s.logger.Error("查询子任务失败", zap.Int64("sub_item_id", subItemID), zap.Error(err))
		return nil, err
	}

	if subItem.Completed && req.Field != "completed" {
		return nil, ErrSubItemCompleted
	}

	if err := applySubItemField(subItem, req.Field, req.Value); err != nil {
		return nil, err
	}

	if err := s.repo.SubItem.Update(ctx, subItem); err != nil {
		s.logger.Error("保存子任务失败", zap.Int64("sub_item_id", subItemID), zap.Error(err))
		s.notifier.Error(ctx, "保存子任务失败", err.Error())
		return nil, err
	}

	s.invalidateByItem(ctx, subItem.ItemID)
	return toSubItemResponse(subItem), nil
}

func (s *scheduleService) DeleteSubItem(ctx context.Context, subItemID int64) error {
	subItem, err := s.repo.SubItem.GetByID(ctx, subItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubItemNotFound
		}
		s.logger.Error("查询子任务失败", zap.Int64("sub_item_id", subItemID), zap.Error(err))
		return err
	}

	// 子任务附件随之销毁
	if files, err := s.repo.File.ListBySubItem(ctx, subItemID); err == nil {
		for _, f := range files {
			s.deleteBlob(ctx, f.StoragePath)
		}
	}

	if err := s.repo.SubItem.Delete(ctx, subItemID); err != nil {
		s.logger.Error("删除子任务失败", zap.Int64("sub_item_id", subItemID), zap.Error(err))
		s.notifier.Error(ctx, "删除子任务失败", err.Error())
		return err
	}

	s.invalidateByItem(ctx, subItem.ItemID)
	return nil
}

// ════════════════════════════════════════════════════════════
// 前后置关系
// ════════════════════════════════════════════════════════════

func (s *scheduleService) ListRelationships(ctx context.Context, scheduleID string) ([]dto.RelationshipResponse, error) {
	rels, err := s.repo.Relationship.ListBySchedule(ctx, scheduleID)
	if err != nil {
		s.logger.Error("查询前后置关系失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.RelationshipResponse, 0, len(rels))
	for _, rel := range rels {
		result = append(result, dto.RelationshipResponse{
			ID:                    rel.RelationshipID,
			PredecessorGroupTitle: rel.PredecessorGroupTitle,
			SuccessorGroupTitle:   rel.SuccessorGroupTitle,
		})
	}
	return result, nil
}

// AddRelationship 新增有向边 前驱→后继。
// 自环与成环的边都在插入时拒绝：环会让传播在多次触发间反复改写出
// 相互矛盾的日期，没有有意义的收敛结果
func (s *scheduleService) AddRelationship(ctx context.Context, scheduleID string, req *dto.AddRelationshipRequest) (*dto.RelationshipResponse, error) {
	pred, succ := req.PredecessorGroupTitle, req.SuccessorGroupTitle
	if pred == succ {
		return nil, ErrSelfLoop
	}

	for _, title := range []string{pred, succ} {
		if _, err := s.repo.Group.GetByTitle(ctx, scheduleID, title); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrGroupNotFound
			}
			s.logger.Error("查询分组失败", zap.Error(err))
			return nil, err
		}
	}

	exists, err := s.repo.Relationship.Exists(ctx, scheduleID, pred, succ)
	if err != nil {
		s.logger.Error("查询前后置关系失败", zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, ErrRelationshipExists
	}

	existing, err := s.repo.Relationship.ListBySchedule(ctx, scheduleID)
	if err != nil {
		s.logger.Error("查询前后置关系失败", zap.Error(err))
		return nil, err
	}
	if wouldCreateCycle(existing, pred, succ) {
		return nil, ErrRelationshipCycle
	}

	rel := &model.GroupRelationship{
		ScheduleID:            scheduleID,
		PredecessorGroupTitle: pred,
		SuccessorGroupTitle:   succ,
	}
	if err := s.repo.Relationship.Create(ctx, rel); err != nil {
		s.logger.Error("创建前后置关系失败", zap.Error(err))
		s.notifier.Error(ctx, "创建前后置关系失败", err.Error())
		return nil, err
	}

	s.invalidate(ctx, scheduleID)
	// 新边立即生效：后继组按前驱当前的最晚结束日对齐
	s.propagateFrom(ctx, scheduleID, pred)
	s.notifier.Success(ctx, "前后置关系已创建", fmt.Sprintf("%s → %s", pred, succ))
	return &dto.RelationshipResponse{
		ID:                    rel.RelationshipID,
		PredecessorGroupTitle: pred,
		SuccessorGroupTitle:   succ,
	}, nil
}

func (s *scheduleService) DeleteRelationship(ctx context.Context, scheduleID, relationshipID string) error {
	if err := s.repo.Relationship.Delete(ctx, scheduleID, relationshipID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRelationshipNotFound
		}
		s.logger.Error("删除前后置关系失败", zap.Error(err))
		s.notifier.Error(ctx, "删除前后置关系失败", err.Error())
		return err
	}
	s.invalidate(ctx, scheduleID)
	return nil
}

// ════════════════════════════════════════════════════════════
// 日期传播（I/O 侧）
// ════════════════════════════════════════════════════════════

// propagateFrom 把 groupTitle 的最新结束日传播到其全部后继组，
// 后继被改写后再以它为前驱继续传播，沿后继链逐级推进到链尾
// （插入时已拒绝成环的边，链必然有限）。
// 传播中的持久化失败按通知上报，不中断其余后继的处理。
func (s *scheduleService) propagateFrom(ctx context.Context, scheduleID, groupTitle string) {
	items, err := s.repo.Item.ListByGroup(ctx, scheduleID, groupTitle)
	if err != nil {
		s.logger.Error("传播：查询前驱任务失败", zap.String("group", groupTitle), zap.Error(err))
		return
	}
	latest := latestEndDate(items)
	if latest == nil {
		// 前驱组没有任何带结束日期的任务，无从传播
		return
	}

	rels, err := s.repo.Relationship.ListByPredecessor(ctx, scheduleID, groupTitle)
	if err != nil {
		s.logger.Error("传播：查询后继关系失败", zap.String("group", groupTitle), zap.Error(err))
		return
	}

	for _, rel := range rels {
		// 指向不存在分组的关系自然匹配零个任务，静默跳过
		succItems, err := s.repo.Item.ListByGroup(ctx, scheduleID, rel.SuccessorGroupTitle)
		if err != nil {
			s.logger.Error("传播：查询后继任务失败",
				zap.String("successor", rel.SuccessorGroupTitle), zap.Error(err))
			continue
		}

		updated := propagateDates(*latest, succItems)
		for i := range updated {
			// 与手动编辑走同一条持久化路径，下游观察不到差别
			if err := s.repo.Item.Update(ctx, &updated[i]); err != nil {
				s.logger.Error("传播：保存后继任务失败",
					zap.Int64("item_id", updated[i].ItemID), zap.Error(err))
				s.notifier.Error(ctx, "日期传播失败", err.Error())
			}
		}
		// 后继的结束日变了，它自己的后继同样要对齐
		if len(updated) > 0 {
			s.propagateFrom(ctx, scheduleID, rel.SuccessorGroupTitle)
		}
	}

	s.invalidate(ctx, scheduleID)
}

// wouldCreateCycle 判断新增 pred→succ 后是否能从 succ 沿既有边走回 pred
func wouldCreateCycle(edges []model.GroupRelationship, pred, succ string) bool {
	next := make(map[string][]string, len(edges))
	for _, e := range edges {
		next[e.PredecessorGroupTitle] = append(next[e.PredecessorGroupTitle], e.SuccessorGroupTitle)
	}

	visited := make(map[string]bool)
	stack := []string{succ}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == pred {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true
		stack = append(stack, next[current]...)
	}
	return false
}

// ════════════════════════════════════════════════════════════
// 字段更新规则
// ════════════════════════════════════════════════════════════

// isDateField 判断字段是否参与日期传播
func isDateField(field string) bool {
	return field == "start_date" || field == "end_date" || field == "duration"
}

// applyItemField 把单字段更新写到任务上并重算派生字段
func applyItemField(item *model.ScheduleItem, field string, value json.RawMessage) error {
	switch field {
	case "title":
		title, err := parseStringValue(value)
		if err != nil {
			return err
		}
		if strings.TrimSpace(title) == "" {
			return ErrBlankTitle
		}
		item.Title = title
	case "contractor":
		contractor, err := parseStringValue(value)
		if err != nil {
			return err
		}
		item.Contractor = contractor
	case "status":
		status, err := parseStringValue(value)
		if err != nil {
			return err
		}
		if !model.ValidStatus(status) {
			return ErrInvalidStatus
		}
		item.Status = status
	case "start_date":
		date, err := parseDateValue(value)
		if err != nil {
			return err
		}
		item.StartDate = date
	case "end_date":
		date, err := parseDateValue(value)
		if err != nil {
			return err
		}
		item.EndDate = date
	case "duration":
		duration, err := parseDurationValue(value)
		if err != nil {
			return err
		}
		item.Duration = duration
	default:
		return ErrInvalidField
	}

	return recomputeDerived(field, &item.StartDate, &item.EndDate, &item.Duration)
}

// applySubItemField 子任务版本：多一个 completed 字段
func applySubItemField(subItem *model.SubScheduleItem, field string, value json.RawMessage) error {
	switch field {
	case "title":
		title, err := parseStringValue(value)
		if err != nil {
			return err
		}
		if strings.TrimSpace(title) == "" {
			return ErrBlankTitle
		}
		subItem.Title = title
	case "contractor":
		contractor, err := parseStringValue(value)
		if err != nil {
			return err
		}
		subItem.Contractor = contractor
	case "status":
		status, err := parseStringValue(value)
		if err != nil {
			return err
		}
		if !model.ValidStatus(status) {
			return ErrInvalidStatus
		}
		subItem.Status = status
	case "start_date":
		date, err := parseDateValue(value)
		if err != nil {
			return err
		}
		subItem.StartDate = date
	case "end_date":
		date, err := parseDateValue(value)
		if err != nil {
			return err
		}
		subItem.EndDate = date
	case "duration":
		duration, err := parseDurationValue(value)
		if err != nil {
			return err
		}
		subItem.Duration = duration
	case "completed":
		completed, err := parseBoolValue(value)
		if err != nil {
			return err
		}
		subItem.Completed = completed
	default:
		return ErrInvalidField
	}

	return recomputeDerived(field, &subItem.StartDate, &subItem.EndDate, &subItem.Duration)
}

// recomputeDerived 字段联动：
//   - 改工期且有开始日期 → 结束日期 = AddWorkingDays(开始, 工期)
//   - 改开始/结束日期且两端齐备 → 工期 = WorkingDaysBetween(开始, 结束)
//   - 其余字段不联动；开始日期永远不被反推
func recomputeDerived(field string, startDate, endDate **time.Time, duration **int) error {
	switch field {
	case "duration":
		if *duration != nil && *startDate != nil {
			end := workday.AddWorkingDays(**startDate, **duration)
			*endDate = &end
		}
	case "start_date", "end_date":
		if *startDate != nil && *endDate != nil {
			if (*endDate).Before(**startDate) {
				return ErrEndBeforeStart
			}
			d := workday.WorkingDaysBetween(**startDate, **endDate)
			*duration = &d
		}
	}
	return nil
}

// ── 字段值解析 ──

func parseStringValue(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", ErrInvalidValue
	}
	return s, nil
}

// parseDateValue 解析日期值：null 表示清空，接受 RFC3339 或 2006-01-02。
// 排期日期按日历日计，时刻统一截断到 UTC 当日零点，
// 否则带时刻的起止日期会让工作日计数错位
func parseDateValue(raw json.RawMessage) (*time.Time, error) {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, ErrInvalidValue
	}
	if s == nil {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, *s); err == nil {
		d := startOfDay(t.UTC())
		return &d, nil
	}
	if t, err := time.Parse("2006-01-02", *s); err == nil {
		return &t, nil
	}
	return nil, ErrInvalidValue
}

func parseDurationValue(raw json.RawMessage) (*int, error) {
	var n *int
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, ErrInvalidValue
	}
	if n != nil && *n < 0 {
		return nil, ErrNegativeDuration
	}
	return n, nil
}

func parseBoolValue(raw json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, ErrInvalidValue
	}
	return b, nil
}

// ════════════════════════════════════════════════════════════
// 内部工具
// ════════════════════════════════════════════════════════════

// invalidate 使排期缓存失效（缓存不可用时为空操作）
func (s *scheduleService) invalidate(ctx context.Context, scheduleID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSchedule(ctx, scheduleID); err != nil {
		s.logger.Warn("排期缓存失效失败", zap.String("schedule_id", scheduleID), zap.Error(err))
	}
}

// invalidateByItem 经父任务定位排期后使缓存失效
func (s *scheduleService) invalidateByItem(ctx context.Context, itemID int64) {
	item, err := s.repo.Item.GetByID(ctx, itemID)
	if err != nil {
		return
	}
	s.invalidate(ctx, item.ScheduleID)
}

// deleteItemBlobs 清理任务及其子任务的全部附件二进制
func (s *scheduleService) deleteItemBlobs(ctx context.Context, itemID int64) {
	if files, err := s.repo.File.ListByItem(ctx, itemID); err == nil {
		for _, f := range files {
			s.deleteBlob(ctx, f.StoragePath)
		}
	}
	if subItems, err := s.repo.SubItem.ListByItem(ctx, itemID); err == nil {
		for _, sub := range subItems {
			if files, err := s.repo.File.ListBySubItem(ctx, sub.SubItemID); err == nil {
				for _, f := range files {
					s.deleteBlob(ctx, f.StoragePath)
				}
			}
		}
	}
}

// deleteBlob 删除附件二进制；文件已不存在视为成功
func (s *scheduleService) deleteBlob(ctx context.Context, path string) {
	if err := s.blobs.Delete(ctx, path); err != nil && !errors.Is(err, storage.ErrBlobNotFound) {
		s.logger.Warn("删除附件文件失败", zap.String("path", path), zap.Error(err))
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func fmtTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func fmtTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func toItemResponse(item *model.ScheduleItem) *dto.ItemResponse {
	subItems := make([]dto.SubItemResponse, 0, len(item.SubItems))
	for i := range item.SubItems {
		subItems = append(subItems, *toSubItemResponse(&item.SubItems[i]))
	}
	return &dto.ItemResponse{
		ID:         item.ItemID,
		GroupTitle: item.GroupTitle,
		Title:      item.Title,
		Contractor: item.Contractor,
		Status:     item.Status,
		StartDate:  fmtTimePtr(item.StartDate),
		EndDate:    fmtTimePtr(item.EndDate),
		Duration:   item.Duration,
		SortOrder:  item.SortOrder,
		SubItems:   subItems,
	}
}

func toSubItemResponse(subItem *model.SubScheduleItem) *dto.SubItemResponse {
	return &dto.SubItemResponse{
		ID:         subItem.SubItemID,
		ItemID:     subItem.ItemID,
		Title:      subItem.Title,
		Contractor: subItem.Contractor,
		Status:     subItem.Status,
		StartDate:  fmtTimePtr(subItem.StartDate),
		EndDate:    fmtTimePtr(subItem.EndDate),
		Duration:   subItem.Duration,
		Completed:  subItem.Completed,
		SortOrder:  subItem.SortOrder,
	}
}

// [自证通过] internal/service/schedule_service.go
