package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// SecureOptions 参考网关的安全响应头配置
type SecureOptions struct {
	SSLRedirect bool   // 将 HTTP 请求重定向到 HTTPS
	SSLHost     string // 重定向目标 host:port，空表示沿用请求 host
	IsDev       bool   // 开发模式下跳过 HTTPS 相关检查
}

// SecureHandler 设置安全响应头，可选 HTTPS 重定向
func SecureHandler(opts SecureOptions) gin.HandlerFunc {
	// 1. 在返回函数之前初始化，避免每次请求都重复创建对象
	secureMiddleware := secure.New(secure.Options{
		SSLRedirect:        opts.SSLRedirect,
		SSLHost:            opts.SSLHost,
		FrameDeny:          true,
		ContentTypeNosniff: true,
		IsDevelopment:      opts.IsDev,
	})

	return func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)

		// 出错时不再继续
		if err != nil {
			// 2. 重定向时 secure 已写出 3xx 响应，同样以错误返回
			if status := c.Writer.Status(); status >= 300 && status < 400 {
				zap.L().Debug("redirecting to https", zap.String("path", c.Request.URL.Path))
			} else {
				// 绝对不要在中间件里用 Fatal，否则网关会挂掉
				// 使用 Error 记录日志，并终止当前请求
				zap.L().Error("secure middleware rejected request", zap.Error(err))
			}
			// 终止后续的处理链，不再执行后续的 handler
			c.Abort()
			return
		}

		// 3. 安全头已写入响应，继续处理下一个 handler
		c.Next()
	}
}
