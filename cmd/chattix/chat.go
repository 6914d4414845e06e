package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"chattix/internal/attachment"
	"chattix/internal/channel"
	"chattix/internal/config"
	"chattix/internal/directory"
	"chattix/internal/gateway"
	"chattix/internal/infrastructure/logger"
	"chattix/internal/infrastructure/worker"
	"chattix/internal/model"
	"chattix/internal/notify"
	"chattix/internal/presence"
	"chattix/internal/session"
	"chattix/pkg/constants"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const chatHelp = `commands:
  /login <phone> [name]     注册或登录
  /logout                   退出登录
  /contacts                 联系人及在线状态
  /add <phone>              按手机号添加联系人
  /chats                    会话列表
  /open <chat_id>           打开会话
  /with <user_id>           与联系人私聊
  /ai                       与助手对话
  /group <name> <id,id,..>  创建群组
  /attach <path>            暂存附件，随下一条消息发送
  /detach                   移除暂存的附件
  /history                  重新打印当前会话
  /quit                     退出
其他输入作为消息发送到当前会话`

func newChatCmd() *cobra.Command {
	var (
		phone string
		name  string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "启动命令行聊天客户端",
		Long:  "逐行读取命令和消息；Ctrl-C 退出前会上报离线状态。",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, phone, name)
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "启动后直接以该手机号登录")
	cmd.Flags().StringVar(&name, "name", "", "登录时使用的名称")
	return cmd
}

// client 命令行客户端持有的运行时对象
type client struct {
	ctl  *session.Controller
	bus  *notify.Bus
	pool *worker.Pool
}

// newClient 按配置组装会话控制器
func newClient(conf *config.Config) *client {
	gw := gateway.New(gateway.Options{
		BaseURL:   conf.GatewayConfig.BaseURL,
		UploadURL: conf.GatewayConfig.UploadURL,
		Timeout:   conf.GatewayConfig.RequestTimeout(),
	})
	bus := notify.NewBus(constants.CHANNEL_SIZE)
	pool := worker.NewPool("refresh", constants.WORKER_COUNT, constants.CHANNEL_SIZE)
	dir := directory.New(gw, bus, pool)

	ctl := session.New(session.Deps{
		Gateway:   gw,
		Directory: dir,
		Channel:   channel.New(gw, dir, bus, channel.Options{ServerSideReply: conf.ServerSideReply}),
		Heartbeat: presence.New(gw, dir, presence.Options{Interval: conf.PresenceConfig.Interval()}),
		Pipeline:  attachment.NewPipeline(gw),
		Pool:      pool,
		Sink:      bus,
	})
	return &client{ctl: ctl, bus: bus, pool: pool}
}

// Close 登出（含离线上报）后释放后台资源
func (c *client) Close() {
	c.ctl.Logout()
	c.pool.Close()
	c.bus.Close()
}

func runChat(cmd *cobra.Command, phone, name string) error {
	conf, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// 终端留给对话内容，日志只写文件
	if err := logger.Init(&conf.LogConfig, "release"); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = zap.L().Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cl := newClient(conf)
	out := &lockedWriter{w: cmd.OutOrStdout()}
	r := &repl{ctl: cl.ctl, out: out}
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		r.printEvents(cl.bus.Events())
	}()
	defer func() {
		cl.Close()
		<-printed
	}()

	fmt.Fprintf(out, "chattix %s, gateway %s\n", Version, conf.GatewayConfig.BaseURL)
	fmt.Fprintln(out, "type /help for commands")
	if phone != "" {
		r.handle(ctx, "/login "+phone+" "+name)
	}

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go scanLines(cmd.InOrStdin(), lines, done)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "bye")
			return nil
		case line, ok := <-lines:
			if !ok || r.handle(ctx, line) {
				return nil
			}
		}
	}
}

func scanLines(in io.Reader, lines chan<- string, done <-chan struct{}) {
	defer close(lines)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		select {
		case lines <- sc.Text():
		case <-done:
			return
		}
	}
}

// lockedWriter 事件打印和命令输出共用同一终端
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// repl 把一行输入翻译为控制器调用
// 控制器的失败已经作为提示发布到总线，这里只报告用法错误
type repl struct {
	ctl *session.Controller
	out io.Writer
}

// handle 处理一行输入，返回 true 表示退出
func (r *repl) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		_, _ = r.ctl.Send(ctx, line)
		return false
	}

	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]
	switch name {
	case "/help":
		fmt.Fprintln(r.out, chatHelp)
	case "/quit", "/exit":
		return true
	case "/login":
		if len(args) == 0 {
			r.usage("/login <phone> [name]")
			return false
		}
		if user, err := r.ctl.Login(ctx, args[0], strings.Join(args[1:], " "), ""); err == nil {
			fmt.Fprintf(r.out, "logged in as %s (#%d)\n", user.Name, user.ID)
		}
	case "/logout":
		r.ctl.Logout()
		fmt.Fprintln(r.out, "logged out")
	case "/contacts":
		r.printContacts()
	case "/add":
		if len(args) != 1 {
			r.usage("/add <phone>")
			return false
		}
		if user, err := r.ctl.AddContact(ctx, args[0]); err == nil {
			fmt.Fprintf(r.out, "added %s (#%d)\n", user.Name, user.ID)
		}
	case "/chats":
		r.printChats()
	case "/open":
		id, ok := r.parseID(args, "/open <chat_id>")
		if !ok {
			return false
		}
		_ = r.ctl.OpenChat(ctx, id)
	case "/with":
		id, ok := r.parseID(args, "/with <user_id>")
		if !ok {
			return false
		}
		if chat, err := r.ctl.StartChatWith(ctx, id); err == nil {
			fmt.Fprintf(r.out, "chat #%d with %s\n", chat.ID, chat.Name)
		}
	case "/ai":
		if chat, err := r.ctl.StartAIChat(ctx); err == nil {
			fmt.Fprintf(r.out, "chat #%d with %s\n", chat.ID, chat.Name)
		}
	case "/group":
		if len(args) != 2 {
			r.usage("/group <name> <id,id,...>")
			return false
		}
		members, err := parseIDList(args[1])
		if err != nil {
			r.usage("/group <name> <id,id,...>")
			return false
		}
		if id, err := r.ctl.CreateGroup(ctx, args[0], members); err == nil {
			fmt.Fprintf(r.out, "group chat #%d created\n", id)
		}
	case "/attach":
		if len(args) == 0 {
			r.usage("/attach <path>")
			return false
		}
		if att, err := r.ctl.Attach(ctx, strings.Join(args, " ")); err == nil {
			fmt.Fprintf(r.out, "staged %s (%s, %d bytes)\n", att.Name, att.MimeType, att.SizeBytes)
		}
	case "/detach":
		r.ctl.Detach()
	case "/history":
		r.printHistory()
	default:
		fmt.Fprintf(r.out, "unknown command %s, try /help\n", name)
	}
	return false
}

func (r *repl) usage(text string) {
	fmt.Fprintf(r.out, "usage: %s\n", text)
}

func (r *repl) parseID(args []string, usage string) (int64, bool) {
	if len(args) != 1 {
		r.usage(usage)
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		r.usage(usage)
		return 0, false
	}
	return id, true
}

func parseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *repl) printContacts() {
	contacts := r.ctl.Contacts()
	if len(contacts) == 0 {
		fmt.Fprintln(r.out, "no contacts")
		return
	}
	for _, c := range contacts {
		status := "offline"
		if c.Contact.IsOnline {
			status = "online"
		}
		fmt.Fprintf(r.out, "#%d %s %s [%s]\n", c.Contact.ID, c.Contact.Name, c.Contact.Phone, status)
	}
}

func (r *repl) printChats() {
	chats := r.ctl.Chats()
	if len(chats) == 0 {
		fmt.Fprintln(r.out, "no chats")
		return
	}
	for _, c := range chats {
		fmt.Fprintf(r.out, "#%d %s %s (%s)", c.ID, c.Avatar, c.Name, c.Kind)
		if c.LastMessagePreview != "" {
			fmt.Fprintf(r.out, ": %s", c.LastMessagePreview)
		}
		fmt.Fprintln(r.out)
	}
}

func (r *repl) printHistory() {
	msgs := r.ctl.ActiveMessages()
	if len(msgs) == 0 {
		fmt.Fprintln(r.out, "(no messages)")
		return
	}
	for _, m := range msgs {
		r.printMessage(m)
	}
}

func (r *repl) printMessage(m model.Message) {
	sender := m.SenderName
	switch {
	case m.SenderID == nil && m.IsAI:
		sender = constants.AI_CHAT_LABEL
	case sender == "":
		sender = "system"
	}
	fmt.Fprintf(r.out, "[%s] %s: %s", m.CreatedAt.Local().Format("15:04"), sender, m.Content)
	if m.Attachment != nil {
		fmt.Fprintf(r.out, " [%s %s]", m.Attachment.Name, m.Attachment.URL)
	}
	fmt.Fprintln(r.out)
}

// printEvents 打印活动会话的新消息、加载完成的历史和提示，直到总线关闭
func (r *repl) printEvents(events <-chan notify.Event) {
	for ev := range events {
		switch ev.Kind {
		case notify.KindMessage:
			if ev.Active && ev.Message != nil {
				r.printMessage(*ev.Message)
			}
		case notify.KindHistory:
			if ev.Active {
				fmt.Fprintf(r.out, "-- chat #%d --\n", ev.ChatID)
				r.printHistory()
			}
		case notify.KindNotice:
			if ev.Notice != nil {
				fmt.Fprintf(r.out, "! %s: %s\n", ev.Notice.Op, ev.Notice.Text)
			}
		}
	}
}
