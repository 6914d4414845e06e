// Package presence 在线状态心跳
// 会话期间按固定间隔上报在线并刷新联系人在线状态，停止时补一次离线上报
package presence

import (
	"context"
	"sync"
	"time"

	"chattix/internal/infrastructure/logger"
	"chattix/pkg/constants"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Gateway 心跳使用的网关能力
type Gateway interface {
	UpdateOnlineStatus(ctx context.Context, userID int64, online bool) error
}

// ContactsRefresher 重新拉取联系人列表，失败只记日志
type ContactsRefresher interface {
	RefreshContacts(ctx context.Context, userID int64)
}

// Options 心跳配置
type Options struct {
	Interval       time.Duration // 上报和刷新间隔，默认 30s，最小 1s
	RequestTimeout time.Duration // 每次 tick 的请求超时
	OfflineTimeout time.Duration // 停止时离线上报的超时
	Logger         *zap.Logger
}

// Heartbeat 与会话生命周期绑定的周期任务
type Heartbeat struct {
	gw       Gateway
	contacts ContactsRefresher
	opts     Options
	lg       *zap.Logger

	mu      sync.Mutex
	running bool
	userID  int64
	sched   *cron.Cron
	cancel  context.CancelFunc
	// 启动时立即执行的那一轮，每次 Start 新建一个
	// 这样 Stop 在锁外等待时，并发的 Start 不会把新会话的 tick 加进旧的等待
	wg *sync.WaitGroup
}

// New 创建心跳，contacts 可以为 nil
func New(gw Gateway, contacts ContactsRefresher, opts Options) *Heartbeat {
	if opts.Interval <= 0 {
		opts.Interval = constants.HEARTBEAT_INTERVAL
	}
	if opts.Interval < time.Second {
		opts.Interval = time.Second
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = constants.REQUEST_TIMEOUT
	}
	if opts.OfflineTimeout <= 0 {
		opts.OfflineTimeout = constants.OFFLINE_REPORT_TIMEOUT
	}
	if opts.Logger == nil {
		opts.Logger = zap.L()
	}
	return &Heartbeat{gw: gw, contacts: contacts, opts: opts, lg: opts.Logger.Named("presence")}
}

// Start 立即上报一次并开始周期任务，已运行时忽略
func (h *Heartbeat) Start(userID int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	cl := logger.NewCronLogger(h.opts.Logger)
	sched := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	sched.Schedule(cron.Every(h.opts.Interval), cron.FuncJob(func() { h.reportOnline(ctx, userID) }))
	if h.contacts != nil {
		sched.Schedule(cron.Every(h.opts.Interval), cron.FuncJob(func() { h.refreshContacts(ctx, userID) }))
	}
	sched.Start()

	wg := new(sync.WaitGroup)
	h.running = true
	h.userID = userID
	h.sched = sched
	h.cancel = cancel
	h.wg = wg

	wg.Add(1)
	go func() {
		defer wg.Done()
		h.reportOnline(ctx, userID)
	}()
	if h.contacts != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.refreshContacts(ctx, userID)
		}()
	}
	h.lg.Info("heartbeat started", zap.Int64("user_id", userID), zap.Duration("interval", h.opts.Interval))
}

// Stop 取消周期任务，等待进行中的 tick 结束后上报离线
// 离线上报使用独立的超时上下文，进程退出时也会尝试
func (h *Heartbeat) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	userID := h.userID
	sched := h.sched
	wg := h.wg
	h.cancel()
	h.sched, h.cancel, h.wg = nil, nil, nil
	h.mu.Unlock()

	<-sched.Stop().Done()
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), h.opts.OfflineTimeout)
	defer cancel()
	if err := h.gw.UpdateOnlineStatus(ctx, userID, false); err != nil {
		h.lg.Warn("final offline report failed", zap.Int64("user_id", userID), zap.Error(err))
	} else {
		h.lg.Info("heartbeat stopped", zap.Int64("user_id", userID))
	}
}

// Running 是否在运行
func (h *Heartbeat) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

// reportOnline 失败只记日志，下一次 tick 独立重试
func (h *Heartbeat) reportOnline(parent context.Context, userID int64) {
	ctx, cancel := context.WithTimeout(parent, h.opts.RequestTimeout)
	defer cancel()
	if err := h.gw.UpdateOnlineStatus(ctx, userID, true); err != nil {
		h.lg.Warn("online report failed", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (h *Heartbeat) refreshContacts(parent context.Context, userID int64) {
	ctx, cancel := context.WithTimeout(parent, h.opts.RequestTimeout)
	defer cancel()
	h.contacts.RefreshContacts(ctx, userID)
}
