// Package devgateway 本地参考网关
// 在单一 JSON 接口上实现客户端依赖的全部读写操作，用于开发和端到端测试
package devgateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	myredis "chattix/internal/dao/redis"
	"chattix/internal/dao/store"
	"chattix/internal/devgateway/service"
	"chattix/internal/infrastructure/logger"
	"chattix/internal/infrastructure/middleware"
	"chattix/pkg/util/snowflake"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps 网关依赖，Repos 必填
type Deps struct {
	Repos         *store.Repositories
	Cache         myredis.MessageCache
	IDs           *snowflake.Generator
	Responder     service.Responder
	Now           func() time.Time
	StaticDir     string // 上传文件目录，映射到 /static/files
	PublicBaseURL string // 上传文件 URL 前缀
	Secure        middleware.SecureOptions
	Locale        string // 校验错误语言，默认 "en"
}

// Server 参考网关
type Server struct {
	engine *gin.Engine
	svc    *service.Service
}

// New 创建 Gin 引擎并注册中间件、静态资源和路由
func New(deps Deps) (*Server, error) {
	if deps.Repos == nil {
		return nil, errors.New("devgateway: repositories are required")
	}
	if deps.Locale == "" {
		deps.Locale = "en"
	}
	if err := initTrans(deps.Locale); err != nil {
		return nil, err
	}

	svc := service.New(deps.Repos, service.Options{
		Cache:     deps.Cache,
		IDs:       deps.IDs,
		Responder: deps.Responder,
		Now:       deps.Now,
	})
	blobs := service.NewBlobStore(deps.StaticDir, deps.PublicBaseURL)

	// 空白引擎，中间件完全自行控制
	engine := gin.New()
	engine.Use(logger.GinLogger())
	engine.Use(logger.GinRecovery(true))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-User-Id"}
	engine.Use(cors.New(corsConfig))
	engine.Use(middleware.SecureHandler(deps.Secure))

	if deps.StaticDir != "" {
		engine.Static("/static/files", deps.StaticDir)
	}
	registerRoutes(engine, NewHandler(svc, blobs))

	return &Server{engine: engine, svc: svc}, nil
}

// Handler 供 httptest 或自定义 http.Server 使用
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run 监听 addr，ctx 取消后优雅关闭
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("dev gateway listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		zap.L().Info("dev gateway shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
