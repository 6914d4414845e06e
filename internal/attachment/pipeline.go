// Package attachment 本地文件到已上传附件描述的管道，以及单槽位的附件暂存
package attachment

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"

	"chattix/internal/dto/request"
	"chattix/internal/model"
	"chattix/pkg/constants"
	"chattix/pkg/errorx"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// Uploader 附件上传端点，由 gateway.Client 实现
type Uploader interface {
	Upload(ctx context.Context, req *request.UploadRequest) (model.Attachment, error)
}

// File 待上传的内存文件，MimeType 为空时按内容探测
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// Pipeline 附件上传管道
type Pipeline struct {
	up      Uploader
	maxSize int64
}

// NewPipeline 创建管道，大小上限为 10 MiB
func NewPipeline(up Uploader) *Pipeline {
	return &Pipeline{up: up, maxSize: constants.FILE_MAX_SIZE}
}

// Upload 校验大小后以 base64 上传
// 超限返回 CodeFileTooLarge 且不发起网络请求；其余失败返回 CodeUploadFailed
func (p *Pipeline) Upload(ctx context.Context, f File) (*model.Attachment, error) {
	if err := p.checkSize(f.Name, int64(len(f.Data))); err != nil {
		return nil, err
	}
	name := f.Name
	if name == "" {
		name = "file"
	}
	mimeType := f.MimeType
	if mimeType == "" {
		mimeType = detect(f.Data)
	}

	req := &request.UploadRequest{
		File: base64.StdEncoding.EncodeToString(f.Data),
		Name: name,
		Type: mimeType,
	}
	a, err := p.up.Upload(ctx, req)
	if err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeUploadFailed, "upload %s", name)
	}
	// 服务端未回填时使用本地值
	if a.Name == "" {
		a.Name = name
	}
	if a.MimeType == "" {
		a.MimeType = mimeType
	}
	if a.SizeBytes == 0 {
		a.SizeBytes = int64(len(f.Data))
	}
	zap.L().Debug("attachment uploaded", zap.String("name", a.Name), zap.String("url", a.URL), zap.Int64("size", a.SizeBytes))
	return &a, nil
}

// UploadPath 先检查文件大小再读取内容
func (p *Pipeline) UploadPath(ctx context.Context, path string) (*model.Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeInvalidParam, "attachment %s", path)
	}
	if info.IsDir() {
		return nil, errorx.Newf(errorx.CodeInvalidParam, "attachment %s is a directory", path)
	}
	if err := p.checkSize(info.Name(), info.Size()); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errorx.Wrapf(err, errorx.CodeInvalidParam, "read attachment %s", path)
	}
	return p.Upload(ctx, File{Name: filepath.Base(path), MimeType: detect(data), Data: data})
}

func (p *Pipeline) checkSize(name string, size int64) error {
	if size > p.maxSize {
		return errorx.Newf(errorx.CodeFileTooLarge, "%s is %d bytes, limit is %d", name, size, p.maxSize)
	}
	return nil
}

// detect 探测 MIME 类型并去掉参数部分（如 charset）
func detect(data []byte) string {
	mt := mimetype.Detect(data).String()
	if base, _, ok := strings.Cut(mt, ";"); ok {
		mt = strings.TrimSpace(base)
	}
	if mt == "" {
		return constants.DEFAULT_MIME_TYPE
	}
	return mt
}
