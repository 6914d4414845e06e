// Package logger 基于 zap 的全局日志初始化，以及参考网关使用的 gin 中间件
package logger

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"chattix/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Init 初始化全局 Logger
// 为什么：日志组件需要根据配置（文件路径、级别、运行模式）初始化后才能正确输出
// dev 模式同时输出到控制台和文件，其余模式只写 JSON 文件
func Init(cfg *config.LogConfig, mode string) (err error) {
	if cfg == nil {
		return fmt.Errorf("logger.Init received nil config")
	}

	// 设置默认值
	if cfg.FileName == "" {
		cfg.FileName = cfg.LogPath + "/chattix.log"
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 100
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = 5
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 30
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}

	// 获取日志写入器，支持日志切割
	writeSyncer := getLogWriter(cfg.FileName, cfg.MaxSize, cfg.MaxBackups, cfg.MaxAge)
	// 获取日志编码器，决定文件中日志的格式（JSON）
	encoder := getEncoder()

	var level zapcore.Level
	// 将配置中的字符串（如 "info", "debug"）转换成 zap 能识别的级别
	if err = level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return
	}

	var core zapcore.Core
	if mode == "dev" || mode == gin.DebugMode {
		// ---------------------------------
		// 开发模式 (dev)，日志输出到控制台和文件
		// ---------------------------------

		// 1. 控制台使用 Console 编码
		// 为什么：开发时看 JSON 比较累，Console 格式更直观
		consoleEncoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())

		// 2. 文件仍然是 JSON
		// 为什么：即使是开发模式，也可能需要回看历史日志
		fileCore := zapcore.NewCore(encoder, writeSyncer, level)

		// 3. 控制台写 stderr
		//    chat 命令的 stdout 留给对话内容，日志不能混进去
		consoleCore := zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), level)

		// 4. zapcore.NewTee 把同一条日志分发给所有 Core
		core = zapcore.NewTee(fileCore, consoleCore)
	} else {
		// ---------------------------------
		// 生产模式 (release)，日志只输出到文件
		// ---------------------------------
		// 为什么：结构化的 JSON 便于日志收集系统解析，chat 命令也靠这一模式保持终端干净
		core = zapcore.NewCore(encoder, writeSyncer, level)
	}
	// zap.AddCaller() 在日志中添加调用者的文件名和行号，方便定位代码
	lg := zap.New(core, zap.AddCaller())
	// 替换全局 Logger，其他包直接通过 zap.L() 使用
	zap.ReplaceGlobals(lg)
	return
}

// getLogWriter 获取日志写入器
// 为什么：使用 lumberjack 实现日志切割（Log Rotation），防止单个日志文件过大占满磁盘
func getLogWriter(filename string, maxSize int, maxBackups int, maxAge int) zapcore.WriteSyncer {
	lumberjackLogger := &lumberjack.Logger{
		Filename:   filename,   // 日志文件路径
		MaxSize:    maxSize,    // 单个日志文件最大大小（MB）
		MaxBackups: maxBackups, // 保留旧日志文件的最大个数
		MaxAge:     maxAge,     // 保留旧日志文件的最大天数
	}
	return zapcore.AddSync(lumberjackLogger)
}

// getEncoder 获取日志编码器，JSON 格式适合机器解析
func getEncoder() zapcore.Encoder {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = "time"                          // 时间字段的 key
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder   // 时间格式，如 2024-05-01T12:00:00.000Z
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder // 级别大写，如 INFO, ERROR
	return zapcore.NewJSONEncoder(encoderConfig)
}

// GinLogger 将 gin 的访问日志输出到 zap
// 为什么：Gin 默认的 Logger 输出格式固定，无法直接对接 zap
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 【请求前】记录进入时间，用于计算耗时
		start := time.Now()

		// 2. c.Next() 放行，执行后续中间件和 handler，处理完后回到这里
		c.Next()

		// 3. 【请求后】此时响应已经写好，可以拿到状态码
		cost := time.Since(start)

		zap.L().Info("http request",
			// 在 c.Next() 之后，所以能拿到 handler 设置的状态码
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			// 网关所有读接口都挂在同一个路径上，query 里的 path 参数才是真正的路由
			zap.String("query", c.Request.URL.RawQuery),
			// 写接口的 action 由 handler 通过 c.Set("action") 挂到上下文
			zap.String("action", c.GetString("action")),
			zap.String("ClientIP", c.ClientIP()),
			zap.Duration("cost", cost),
			// ErrorTypePrivate 是内部错误，不返回给客户端，但需要记日志
			zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()),
		)
	}
}

// GinRecovery 捕获 panic 并恢复，stack 为 true 时记录堆栈
// 为什么：防止单个请求的 panic 拖垮整个网关，同时把现场记到日志里
func GinRecovery(stack bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				// 1. 检查是否是 broken pipe（客户端断开连接）
				// 为什么：客户端已经断开，没必要再写 500 响应，只需记录日志
				var brokenPipe bool
				if err, ok := rec.(error); ok {
					brokenPipe = isBrokenPipeError(err)
				}

				// 2. 获取请求信息，方便复现和排查
				// 上传接口的 body 可能有 10MB，所以不 dump body
				httpRequest, _ := httputil.DumpRequest(c.Request, false)

				// 3. 统一日志字段：panic 原因 + 请求现场
				fields := []zap.Field{
					zap.Any("error", rec),
					zap.String("request", string(httpRequest)),
				}

				if brokenPipe {
					zap.L().Error("broken pipe", append(fields, zap.String("path", c.Request.URL.Path))...)
					c.Error(rec.(error))
					c.Abort()
					return
				}

				// 4. 需要时附上堆栈
				if stack {
					fields = append(fields, zap.String("stack", string(debug.Stack())))
				}
				zap.L().Error("[Recovery from panic]", fields...)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}

// isBrokenPipeError 检查错误链中是否包含 broken pipe
func isBrokenPipeError(err error) bool {
	if err == nil {
		return false
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		var syscallErr *os.SyscallError
		if errors.As(opErr.Err, &syscallErr) {
			msg := strings.ToLower(syscallErr.Error())
			return strings.Contains(msg, "broken pipe") ||
				strings.Contains(msg, "connection reset by peer")
		}
	}

	// 兜底检查
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection reset by peer")
}
