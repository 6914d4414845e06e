// Package gateway 远端 JSON API 的类型化封装
// 所有接口都挂在同一个地址上：GET 用 path 参数区分，POST 用 body 中的 action 区分
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"chattix/internal/dto/request"
	"chattix/internal/dto/respond"
	"chattix/pkg/constants"
	"chattix/pkg/errorx"

	"go.uber.org/zap"
)

// Options 网关客户端配置
type Options struct {
	BaseURL    string        // 主接口地址
	UploadURL  string        // 附件上传地址
	Timeout    time.Duration // 单次请求超时，默认 15s
	HTTPClient *http.Client  // 为空时使用默认 client
	Logger     *zap.Logger   // 为空时使用 zap.L()
}

// Client 网关客户端，可并发使用
type Client struct {
	baseURL   string
	uploadURL string
	timeout   time.Duration
	http      *http.Client
	lg        *zap.Logger
}

// New 创建网关客户端
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = constants.REQUEST_TIMEOUT
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.L()
	}
	return &Client{
		baseURL:   opts.BaseURL,
		uploadURL: opts.UploadURL,
		timeout:   opts.Timeout,
		http:      opts.HTTPClient,
		lg:        opts.Logger.Named("gateway"),
	}
}

// get 发起 GET ?path=...
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return errorx.Wrapf(err, errorx.CodeInvalidParam, "gateway base url %q", c.baseURL)
	}
	q := u.Query()
	q.Set("path", path)
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errorx.Wrapf(err, errorx.CodeInvalidParam, "gateway %s", path)
	}
	return c.do(req, path, out)
}

// post 校验请求体后发起 POST
func (c *Client) post(ctx context.Context, target, op string, body, out any) error {
	if err := request.Validate(body); err != nil {
		return err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return errorx.Wrapf(err, errorx.CodeInvalidParam, "gateway %s: encode", op)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return errorx.Wrapf(err, errorx.CodeInvalidParam, "gateway %s", op)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, op, out)
}

// do 执行请求并把失败映射为 errorx 错误码
// 超时 -> CodeNetworkTimeout；404 -> CodeNotFound；其余传输失败或非 2xx -> CodeNetwork
func (c *Client) do(req *http.Request, op string, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.lg.Debug("request failed", zap.String("op", op), zap.Duration("cost", time.Since(start)), zap.Error(err))
		if isTimeout(err) {
			return errorx.Wrapf(err, errorx.CodeNetworkTimeout, "gateway %s: timeout", op)
		}
		return errorx.Wrapf(err, errorx.CodeNetwork, "gateway %s", op)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return errorx.Wrapf(err, errorx.CodeNetworkTimeout, "gateway %s: timeout", op)
		}
		return errorx.Wrapf(err, errorx.CodeNetwork, "gateway %s: read body", op)
	}
	c.lg.Debug("request done",
		zap.String("op", op), zap.Int("status", resp.StatusCode), zap.Duration("cost", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := http.StatusText(resp.StatusCode)
		var er respond.ErrorRespond
		if json.Unmarshal(body, &er) == nil && er.Error != "" {
			msg = er.Error
		}
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, msg)
		if resp.StatusCode == http.StatusNotFound {
			return errorx.Wrapf(cause, errorx.CodeNotFound, "gateway %s", op)
		}
		return errorx.Wrapf(cause, errorx.CodeNetwork, "gateway %s", op)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errorx.Wrapf(err, errorx.CodeNetwork, "gateway %s: decode", op)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
