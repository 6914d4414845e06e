package service

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chattix/internal/dto/request"
	"chattix/internal/dto/respond"
	"chattix/pkg/constants"
	"chattix/pkg/errorx"

	"github.com/google/uuid"
)

// ErrFileTooLarge 上传超过大小上限（CodeFileTooLarge）
var ErrFileTooLarge = errorx.Newf(errorx.CodeFileTooLarge, "File too large. Max %dMB", constants.FILE_MAX_SIZE>>20)

// BlobStore 把上传的附件写到本地目录，通过 /static/files 对外提供
type BlobStore struct {
	dir     string
	baseURL string
	maxSize int64
}

// NewBlobStore dir 为存储目录，publicBaseURL 为对外访问前缀（如 http://127.0.0.1:8000）
func NewBlobStore(dir, publicBaseURL string) *BlobStore {
	return &BlobStore{
		dir:     dir,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		maxSize: constants.FILE_MAX_SIZE,
	}
}

// Save 解码 base64（可带 data URL 前缀），写入 uuid 命名的文件
func (b *BlobStore) Save(req *request.UploadRequest) (respond.UploadRespond, error) {
	encoded := req.File
	if i := strings.IndexByte(encoded, ','); i >= 0 {
		encoded = encoded[i+1:]
	}
	if int64(base64.StdEncoding.DecodedLen(len(encoded))) > b.maxSize+2 {
		return respond.UploadRespond{}, ErrFileTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return respond.UploadRespond{}, errorx.Wrap(err, errorx.CodeInvalidParam, "file is not valid base64")
	}
	if int64(len(data)) > b.maxSize {
		return respond.UploadRespond{}, ErrFileTooLarge
	}

	ext := filepath.Ext(req.Name)
	if ext == "" || ext == "." {
		ext = ".bin"
	}
	stored := uuid.New().String() + ext
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return respond.UploadRespond{}, errorx.Wrap(err, errorx.CodeUploadFailed, "create upload dir")
	}
	if err := os.WriteFile(filepath.Join(b.dir, stored), data, 0o644); err != nil {
		return respond.UploadRespond{}, errorx.Wrapf(err, errorx.CodeUploadFailed, "write %s", stored)
	}

	mimeType := req.Type
	if mimeType == "" {
		mimeType = constants.DEFAULT_MIME_TYPE
	}
	return respond.UploadRespond{
		URL:  fmt.Sprintf("%s/static/files/%s", b.baseURL, stored),
		Type: mimeType,
		Name: req.Name,
		Size: int64(len(data)),
	}, nil
}
