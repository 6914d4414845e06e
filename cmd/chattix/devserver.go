package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	myredis "chattix/internal/dao/redis"
	"chattix/internal/dao/store"
	"chattix/internal/devgateway"
	"chattix/internal/infrastructure/logger"
	"chattix/internal/infrastructure/middleware"
	"chattix/pkg/util/snowflake"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newDevServerCmd() *cobra.Command {
	var (
		addr   string
		locale string
	)

	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "启动本地参考网关",
		Long:  "在 GET/POST /api 和 POST /upload 上提供客户端依赖的全部操作，数据保存在 sqlite 或 MySQL 中。",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDevServer(cmd, addr, locale)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "监听地址（默认取 devServerConfig 的 host:port）")
	cmd.Flags().StringVar(&locale, "locale", "en", "校验错误语言：en 或 zh")
	return cmd
}

func runDevServer(cmd *cobra.Command, addr, locale string) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := logger.Init(&conf.LogConfig, conf.Mode); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = zap.L().Sync() }()
	if conf.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	repos, err := store.Open(conf.DBConfig)
	if err != nil {
		return err
	}
	defer repos.Close()
	zap.L().Info("数据库初始化成功", zap.String("driver", conf.DBConfig.Driver))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, closeCache := myredis.NewCache(ctx, conf.RedisConfig)
	defer func() { _ = closeCache() }()
	// 启动时清空旧的消息列表缓存，避免与重建的数据库不一致
	if err := cache.Flush(ctx); err != nil {
		zap.L().Warn("flush message cache failed", zap.Error(err))
	}

	ids, err := snowflake.NewGenerator(conf.MachineID)
	if err != nil {
		return err
	}

	srv, err := devgateway.New(devgateway.Deps{
		Repos:         repos,
		Cache:         cache,
		IDs:           ids,
		StaticDir:     conf.StaticFilePath,
		PublicBaseURL: conf.DevServerConfig.PublicBaseURL,
		Secure: middleware.SecureOptions{
			SSLRedirect: conf.SSLRedirect,
			IsDev:       conf.Mode == "dev",
		},
		Locale: locale,
	})
	if err != nil {
		return err
	}

	if addr == "" {
		addr = fmt.Sprintf("%s:%d", conf.DevServerConfig.Host, conf.DevServerConfig.Port)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "dev gateway on http://%s (api: /api, upload: /upload)\n", addr)
	if err := srv.Run(ctx, addr); err != nil {
		return err
	}
	zap.L().Info("服务器已关闭")
	return nil
}
