package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"constructly/backend/internal/dto"
	"constructly/backend/internal/service"
	"constructly/backend/pkg/response"
)

// ScheduleHandler 排期模块 HTTP 处理器
type ScheduleHandler struct {
	scheduleSvc service.ScheduleService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(scheduleSvc service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleSvc: scheduleSvc}
}

func parseItemID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, 10001, "任务ID格式错误")
		return 0, false
	}
	return id, true
}

// ── 排期 ──

// CreateSchedule 创建排期
// POST /api/v1/schedules
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.scheduleSvc.CreateSchedule(c.Request.Context(), &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.Created(c, result)
}

// GetSchedule 获取排期全量视图
// GET /api/v1/schedules/:schedule_id
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	result, err := h.scheduleSvc.GetSchedule(c.Request.Context(), c.Param("schedule_id"))
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// DeleteSchedule 删除排期及其全部分组、任务与附件
// DELETE /api/v1/schedules/:schedule_id
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	if err := h.scheduleSvc.DeleteSchedule(c.Request.Context(), c.Param("schedule_id")); err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.NoContent(c)
}

// ── 分组 ──

// CreateGroup 创建分组
// POST /api/v1/schedules/:schedule_id/groups
func (h *ScheduleHandler) CreateGroup(c *gin.Context) {
	var req dto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.scheduleSvc.CreateGroup(c.Request.Context(), c.Param("schedule_id"), &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.Created(c, result)
}

// RenameGroup 重命名分组
// PUT /api/v1/schedules/:schedule_id/groups/rename
func (h *ScheduleHandler) RenameGroup(c *gin.Context) {
	var req dto.RenameGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.scheduleSvc.RenameGroup(c.Request.Context(), c.Param("schedule_id"), &req); err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, nil)
}

// DeleteGroup 删除分组及其全部任务
// DELETE /api/v1/schedules/:schedule_id/groups/:title
func (h *ScheduleHandler) DeleteGroup(c *gin.Context) {
	if err := h.scheduleSvc.DeleteGroup(c.Request.Context(), c.Param("schedule_id"), c.Param("title")); err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.NoContent(c)
}

// MoveGroup 拖拽调整分组顺序
// PUT /api/v1/schedules/:schedule_id/groups/move
func (h *ScheduleHandler) MoveGroup(c *gin.Context) {
	var req dto.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.scheduleSvc.MoveGroup(c.Request.Context(), c.Param("schedule_id"), *req.FromIndex, *req.ToIndex); err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── 任务 ──

// AddItem 在分组内新增任务（带默认值）
// POST /api/v1/schedules/:schedule_id/items
func (h *ScheduleHandler) AddItem(c *gin.Context) {
	var req dto.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.scheduleSvc.AddItem(c.Request.Context(), c.Param("schedule_id"), &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.Created(c, result)
}

// UpdateItem 单字段更新任务
// PATCH /api/v1/items/:id
func (h *ScheduleHandler) UpdateItem(c *gin.Context) {
	id, ok := parseItemID(c)
	if !ok {
		return
	}

	var req dto.UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.scheduleSvc.UpdateItem(c.Request.Context(), id, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// DeleteItem 删除任务
// DELETE /api/v1/items/:id
func (h *ScheduleHandler) DeleteItem(c *gin.Context) {
	id, ok := parseItemID(c)
	if !ok {
		return
	}

	if err := h.scheduleSvc.DeleteItem(c.Request.Context(), id); err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.NoContent(c)
}

// MoveItem 拖拽调整组内任务顺序
// PUT /api/v1/schedules/:schedule_id/items/move
func (h *ScheduleHandler) MoveItem(c *gin.Context) {
	var req dto.MoveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.scheduleSvc.MoveItem(c.Request.Context(), c.Param("schedule_id"), &req); err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── 子任务 ──

// AddSubItem 新增子任务
// POST /api/v1/items/:id/sub-items
func (h *ScheduleHandler) AddSubItem(c *gin.Context) {
	id, ok := parseItemID(c)
	if !ok {
		return
	}

	var req dto.AddSubItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.scheduleSvc.AddSubItem(c.Request.Context(), id, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.Created(c, result)
}

// UpdateSubItem 单字段更新子任务
// PATCH /api/v1/sub-items/:id
func (h *ScheduleHandler) UpdateSubItem(c *gin.Context) {
	id, ok := parseItemID(c)
	if !ok {
		return
	}

	var req dto.UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.scheduleSvc.UpdateSubItem(c.Request.Context(), id, &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, result)
}

// DeleteSubItem 删除子任务
// DELETE /api/v1/sub-items/:id
func (h *ScheduleHandler) DeleteSubItem(c *gin.Context) {
	id, ok := parseItemID(c)
	if !ok {
		return
	}

	if err := h.scheduleSvc.DeleteSubItem(c.Request.Context(), id); err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.NoContent(c)
}

// ── 前后置关系 ──

// ListRelationships 列出排期内全部前后置关系
// GET /api/v1/schedules/:schedule_id/relationships
func (h *ScheduleHandler) ListRelationships(c *gin.Context) {
	result, err := h.scheduleSvc.ListRelationships(c.Request.Context(), c.Param("schedule_id"))
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": result})
}

// AddRelationship 新增前后置关系
// POST /api/v1/schedules/:schedule_id/relationships
func (h *ScheduleHandler) AddRelationship(c *gin.Context) {
	var req dto.AddRelationshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.scheduleSvc.AddRelationship(c.Request.Context(), c.Param("schedule_id"), &req)
	if err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.Created(c, result)
}

// DeleteRelationship 删除前后置关系
// DELETE /api/v1/schedules/:schedule_id/relationships/:id
func (h *ScheduleHandler) DeleteRelationship(c *gin.Context) {
	if err := h.scheduleSvc.DeleteRelationship(c.Request.Context(), c.Param("schedule_id"), c.Param("id")); err != nil {
		h.handleScheduleError(c, err)
		return
	}

	response.NoContent(c)
}

// ── 错误映射 ──

func (h *ScheduleHandler) handleScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrScheduleNotFound):
		response.NotFound(c, 12001, "排期不存在")
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 12002, "分组不存在")
	case errors.Is(err, service.ErrGroupTitleTaken):
		response.Conflict(c, 12003, "分组名称已存在")
	case errors.Is(err, service.ErrGroupTitleBlank):
		response.BadRequest(c, 12004, "分组名称不能为空")
	case errors.Is(err, service.ErrGroupTitleUnchanged):
		response.BadRequest(c, 12005, "分组名称未变化")
	case errors.Is(err, service.ErrItemNotFound):
		response.NotFound(c, 13001, "任务不存在")
	case errors.Is(err, service.ErrSubItemNotFound):
		response.NotFound(c, 13002, "子任务不存在")
	case errors.Is(err, service.ErrSubItemCompleted):
		response.Conflict(c, 13003, "已完成的子任务不可编辑")
	case errors.Is(err, service.ErrBlankTitle):
		response.BadRequest(c, 13004, "名称不能为空")
	case errors.Is(err, service.ErrInvalidField):
		response.BadRequest(c, 13005, "不支持的字段")
	case errors.Is(err, service.ErrInvalidValue):
		response.BadRequest(c, 13006, "字段值格式错误")
	case errors.Is(err, service.ErrInvalidStatus):
		response.BadRequest(c, 13007, "无效的任务状态")
	case errors.Is(err, service.ErrNegativeDuration):
		response.BadRequest(c, 13008, "工期不能为负数")
	case errors.Is(err, service.ErrEndBeforeStart):
		response.BadRequest(c, 13009, "结束日期早于开始日期")
	case errors.Is(err, service.ErrIndexOutOfRange):
		response.BadRequest(c, 13010, "移动下标越界")
	case errors.Is(err, service.ErrRelationshipNotFound):
		response.NotFound(c, 14001, "前后置关系不存在")
	case errors.Is(err, service.ErrRelationshipExists):
		response.Conflict(c, 14002, "前后置关系已存在")
	case errors.Is(err, service.ErrSelfLoop):
		response.BadRequest(c, 14003, "分组不能作为自身的前置")
	case errors.Is(err, service.ErrRelationshipCycle):
		response.Conflict(c, 14004, "该前后置关系会形成环")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/schedule_handler.go
