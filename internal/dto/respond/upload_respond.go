package respond

import "chattix/internal/model"

// UploadRespond 附件上传结果
type UploadRespond struct {
	URL  string `json:"url"`
	Type string `json:"type"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

func (u UploadRespond) ToModel() model.Attachment {
	return model.Attachment{URL: u.URL, MimeType: u.Type, Name: u.Name, SizeBytes: u.Size}
}

// ErrorRespond 非 2xx 响应体
type ErrorRespond struct {
	Error string `json:"error"`
}
