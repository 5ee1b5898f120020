package dto

// ── 附件模块 DTO ──

// FileResponse 附件响应
type FileResponse struct {
	ID          string `json:"id"`
	ItemID      *int64 `json:"item_id,omitempty"`
	SubItemID   *int64 `json:"sub_item_id,omitempty"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	CreatedAt   string `json:"created_at"`
}

// FileURLResponse 附件下载链接响应
type FileURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expires_in"` // 秒
}
