package attachment

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"chattix/internal/dto/request"
	"chattix/internal/model"
	"chattix/pkg/errorx"
)

type stubUploader struct {
	calls int
	last  *request.UploadRequest
	err   error
}

func (s *stubUploader) Upload(_ context.Context, req *request.UploadRequest) (model.Attachment, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return model.Attachment{}, s.err
	}
	raw, _ := base64.StdEncoding.DecodeString(req.File)
	return model.Attachment{URL: "http://h/static/files/" + req.Name, MimeType: req.Type, Name: req.Name, SizeBytes: int64(len(raw))}, nil
}

func TestUploadRejectsOversizeWithoutNetwork(t *testing.T) {
	up := &stubUploader{}
	p := NewPipeline(up)

	_, err := p.Upload(context.Background(), File{Name: "big.bin", Data: make([]byte, 11<<20)})
	if !errors.Is(err, errorx.ErrFileTooLarge) {
		t.Fatalf("err = %v, want file too large", err)
	}
	if up.calls != 0 {
		t.Fatalf("%d upload calls, want 0", up.calls)
	}
}

func TestUploadPathChecksSizeBeforeReading(t *testing.T) {
	up := &stubUploader{}
	p := NewPipeline(up)

	path := filepath.Join(t.TempDir(), "big.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	// 稀疏文件：只设置大小
	if err := f.Truncate(11 << 20); err != nil {
		t.Fatal(err)
	}
	f.Close()

	if _, err := p.UploadPath(context.Background(), path); !errors.Is(err, errorx.ErrFileTooLarge) {
		t.Fatalf("err = %v, want file too large", err)
	}
	if up.calls != 0 {
		t.Fatalf("%d upload calls, want 0", up.calls)
	}
}

func TestUploadPathDetectsMimeType(t *testing.T) {
	up := &stubUploader{}
	p := NewPipeline(up)

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
	path := filepath.Join(t.TempDir(), "pic.png")
	if err := os.WriteFile(path, png, 0o600); err != nil {
		t.Fatal(err)
	}

	a, err := p.UploadPath(context.Background(), path)
	if err != nil {
		t.Fatalf("UploadPath: %v", err)
	}
	if up.last.Type != "image/png" || a.MimeType != "image/png" {
		t.Fatalf("mime = %q / %q", up.last.Type, a.MimeType)
	}
	if a.Name != "pic.png" || a.SizeBytes != int64(len(png)) {
		t.Fatalf("attachment = %+v", a)
	}
}

func TestUploadFailureIsUploadFailed(t *testing.T) {
	up := &stubUploader{err: errorx.New(errorx.CodeNetwork, "status 500")}
	p := NewPipeline(up)

	_, err := p.Upload(context.Background(), File{Name: "a.txt", MimeType: "text/plain", Data: []byte("abc")})
	if !errors.Is(err, errorx.ErrUploadFailed) {
		t.Fatalf("err = %v, want upload failed", err)
	}
}

func TestUploadDetectsTextAndStripsCharset(t *testing.T) {
	up := &stubUploader{}
	p := NewPipeline(up)

	if _, err := p.Upload(context.Background(), File{Name: "note.txt", Data: []byte("hello world")}); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if up.last.Type != "text/plain" {
		t.Fatalf("type = %q, want text/plain", up.last.Type)
	}
}

func TestStagerLastWriteWins(t *testing.T) {
	var s Stager
	if _, ok := s.Staged(); ok {
		t.Fatalf("new stager should be empty")
	}
	s.Stage(model.Attachment{Name: "a"})
	s.Stage(model.Attachment{Name: "b"})
	a, ok := s.Staged()
	if !ok || a.Name != "b" {
		t.Fatalf("Staged = %+v, %v", a, ok)
	}
	a.Name = "mutated"
	if again, _ := s.Staged(); again.Name != "b" {
		t.Fatalf("Staged should return a copy")
	}
	s.Clear()
	if _, ok := s.Staged(); ok {
		t.Fatalf("Clear did not remove the attachment")
	}
}
