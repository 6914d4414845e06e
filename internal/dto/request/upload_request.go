package request

// UploadRequest 附件上传，File 为 base64，可带 data URL 前缀
type UploadRequest struct {
	File string `json:"file" binding:"required"`
	Name string `json:"name" binding:"required,max=255"`
	Type string `json:"type"`
}
