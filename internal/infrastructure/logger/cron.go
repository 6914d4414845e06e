package logger

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CronLogger 把 cron 的 key/value 日志转发给 zap
type CronLogger struct {
	lg *zap.SugaredLogger
}

var _ cron.Logger = (*CronLogger)(nil)

// NewCronLogger lg 为 nil 时使用全局 Logger
func NewCronLogger(lg *zap.Logger) *CronLogger {
	if lg == nil {
		lg = zap.L()
	}
	return &CronLogger{lg: lg.Named("cron").Sugar()}
}

// Info cron 的调度日志很密集，降为 Debug
func (l *CronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.lg.Debugw(msg, keysAndValues...)
}

func (l *CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.lg.Errorw(msg, append(keysAndValues, "error", err)...)
}
