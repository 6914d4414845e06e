package devgateway_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chattix/internal/attachment"
	"chattix/internal/channel"
	"chattix/internal/config"
	"chattix/internal/dao/store"
	"chattix/internal/devgateway"
	"chattix/internal/directory"
	"chattix/internal/dto/request"
	"chattix/internal/dto/respond"
	"chattix/internal/gateway"
	"chattix/internal/infrastructure/worker"
	"chattix/internal/model"
	"chattix/internal/notify"
	"chattix/internal/presence"
	"chattix/internal/session"
	"chattix/pkg/errorx"
	"chattix/pkg/util/snowflake"

	"github.com/gin-gonic/gin"
)

type env struct {
	baseURL string
	repos   *store.Repositories
	client  *gateway.Client
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repos, err := store.Open(config.DBConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	gen, err := snowflake.NewGenerator(1)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	ts := httptest.NewUnstartedServer(nil)
	baseURL := "http://" + ts.Listener.Addr().String()
	srv, err := devgateway.New(devgateway.Deps{
		Repos:         repos,
		IDs:           gen,
		StaticDir:     t.TempDir(),
		PublicBaseURL: baseURL,
	})
	if err != nil {
		t.Fatalf("devgateway.New: %v", err)
	}
	ts.Config.Handler = srv.Handler()
	ts.Start()
	t.Cleanup(func() {
		ts.Close()
		_ = repos.Close()
	})

	client := gateway.New(gateway.Options{
		BaseURL:   baseURL + "/api",
		UploadURL: baseURL + "/upload",
		Timeout:   5 * time.Second,
	})
	return &env{baseURL: baseURL, repos: repos, client: client}
}

func TestClientRoundTrip(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	ann, err := e.client.Register(ctx, "+100", "Ann", "A")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	ben, err := e.client.Register(ctx, "+200", "Ben", "B")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	found, err := e.client.SearchUser(ctx, "+200")
	if err != nil || found.ID != ben.ID {
		t.Fatalf("SearchUser = %+v, %v", found, err)
	}
	if _, err := e.client.SearchUser(ctx, "+404"); !errors.Is(err, errorx.ErrNotFound) {
		t.Fatalf("SearchUser missing = %v, want NotFound", err)
	}

	if err := e.client.AddContact(ctx, ann.ID, ben.ID); err != nil {
		t.Fatalf("AddContact: %v", err)
	}
	if err := e.client.UpdateOnlineStatus(ctx, ben.ID, true); err != nil {
		t.Fatalf("UpdateOnlineStatus: %v", err)
	}
	contacts, err := e.client.Contacts(ctx, ann.ID)
	if err != nil || len(contacts) != 1 || contacts[0].OwnerID != ann.ID || !contacts[0].Contact.IsOnline {
		t.Fatalf("Contacts = %+v, %v", contacts, err)
	}

	chatID, err := e.client.CreateChat(ctx, "", []int64{ann.ID, ben.ID}, false)
	if err != nil {
		t.Fatalf("CreateChat: %v", err)
	}
	again, err := e.client.CreateChat(ctx, "", []int64{ben.ID, ann.ID}, false)
	if err != nil || again != chatID {
		t.Fatalf("CreateChat again = %d, %v; want %d", again, err, chatID)
	}

	res, err := e.client.SendMessage(ctx, &request.SendMessageRequest{ChatID: chatID, SenderID: &ann.ID, Content: "hi"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if res.Message.SenderName != "Ann" || res.AIReply != nil {
		t.Fatalf("SendMessage = %+v", res)
	}

	history, err := e.client.Messages(ctx, chatID)
	if err != nil || len(history) != 1 || history[0].ID != res.Message.ID {
		t.Fatalf("Messages = %+v, %v", history, err)
	}

	chats, err := e.client.Chats(ctx, ben.ID)
	if err != nil || len(chats) != 1 {
		t.Fatalf("Chats = %+v, %v", chats, err)
	}
	if chats[0].Name != "Ann" || chats[0].Kind != model.ChatPrivate || chats[0].LastMessagePreview != "hi" {
		t.Fatalf("chat for ben = %+v", chats[0])
	}

	groupID, err := e.client.CreateGroup(ctx, &request.CreateGroupRequest{
		Name:      "Team",
		CreatedBy: ann.ID,
		MemberIDs: []int64{ben.ID},
	})
	if err != nil || groupID == 0 {
		t.Fatalf("CreateGroup = %d, %v", groupID, err)
	}

	text, err := e.client.AIResponse(ctx, "ping")
	if err != nil || text != "You said: ping" {
		t.Fatalf("AIResponse = %q, %v", text, err)
	}
}

func TestUploadServesStoredFile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	payload := []byte("\x89PNG\r\n\x1a\nfake")
	att, err := e.client.Upload(ctx, &request.UploadRequest{
		File: base64.StdEncoding.EncodeToString(payload),
		Name: "pic.png",
		Type: "image/png",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if att.SizeBytes != int64(len(payload)) || att.MimeType != "image/png" || att.Name != "pic.png" {
		t.Fatalf("attachment = %+v", att)
	}
	if !strings.HasPrefix(att.URL, e.baseURL+"/static/files/") {
		t.Fatalf("url = %q", att.URL)
	}

	resp, err := http.Get(att.URL)
	if err != nil {
		t.Fatalf("GET %s: %v", att.URL, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != string(payload) {
		t.Fatalf("static file = %d %q", resp.StatusCode, body)
	}
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var out respond.ErrorRespond
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return out.Error
}

func TestErrorResponses(t *testing.T) {
	e := newEnv(t)

	post := func(body string) *http.Response {
		t.Helper()
		resp, err := http.Post(e.baseURL+"/api", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST: %v", err)
		}
		return resp
	}

	resp := post(`{"action":"launch_rockets"}`)
	if resp.StatusCode != http.StatusBadRequest || decodeError(t, resp) == "" {
		t.Fatalf("unknown action status = %d", resp.StatusCode)
	}

	resp = post(`{"action":"send_message","sender_id":1,"content":"x"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing chat_id status = %d", resp.StatusCode)
	}
	if msg := decodeError(t, resp); !strings.Contains(msg, "chat_id") {
		t.Fatalf("validation message = %q, want field name", msg)
	}

	resp = post(`not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad json status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	get, err := http.Get(e.baseURL + "/api?path=messages&chat_id=999")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if get.StatusCode != http.StatusNotFound || decodeError(t, get) == "" {
		t.Fatalf("unknown chat status = %d", get.StatusCode)
	}

	get, err = http.Get(e.baseURL + "/api?path=nowhere")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if get.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown path status = %d", get.StatusCode)
	}
	get.Body.Close()
}

// newController 用真实网关客户端组装会话控制器
func newController(t *testing.T, e *env, opts channel.Options) (*session.Controller, *notify.Bus) {
	t.Helper()
	bus := notify.NewBus(256)
	pool := worker.NewPool("refresh", 1, 16)
	dir := directory.New(e.client, bus, pool)
	ctl := session.New(session.Deps{
		Gateway:   e.client,
		Directory: dir,
		Channel:   channel.New(e.client, dir, bus, opts),
		Heartbeat: presence.New(e.client, dir, presence.Options{Interval: time.Hour}),
		Pipeline:  attachment.NewPipeline(e.client),
		Pool:      pool,
		Sink:      bus,
	})
	t.Cleanup(func() {
		ctl.Logout()
		pool.Close()
	})
	return ctl, bus
}

func assertUserThenAssistant(t *testing.T, msgs []model.Message, userID int64, prompt string) {
	t.Helper()
	if len(msgs) != 2 {
		t.Fatalf("messages = %+v, want 2", msgs)
	}
	if msgs[0].SenderID == nil || *msgs[0].SenderID != userID || msgs[0].Content != prompt {
		t.Fatalf("first message = %+v", msgs[0])
	}
	if msgs[1].SenderID != nil || !msgs[1].IsAI || msgs[1].Content != "You said: "+prompt {
		t.Fatalf("second message = %+v", msgs[1])
	}
	if !model.IsSorted(msgs) {
		t.Fatalf("messages not ordered: %+v", msgs)
	}
}

func TestSessionAIChatEndToEnd(t *testing.T) {
	for _, tc := range []struct {
		name string
		opts channel.Options
	}{
		{name: "client side reply", opts: channel.Options{}},
		{name: "server side reply", opts: channel.Options{ServerSideReply: true}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t)
			ctl, _ := newController(t, e, tc.opts)
			ctx := context.Background()

			user, err := ctl.Login(ctx, "+100", "Ann", "")
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			chat, err := ctl.StartAIChat(ctx)
			if err != nil {
				t.Fatalf("StartAIChat: %v", err)
			}
			if chat.Kind != model.ChatAI {
				t.Fatalf("chat = %+v", chat)
			}
			if _, err := ctl.Send(ctx, "Hello"); err != nil {
				t.Fatalf("Send: %v", err)
			}
			assertUserThenAssistant(t, ctl.ActiveMessages(), user.ID, "Hello")

			// 服务端历史与本地序列一致
			history, err := e.client.Messages(ctx, chat.ID)
			if err != nil {
				t.Fatalf("Messages: %v", err)
			}
			assertUserThenAssistant(t, history, user.ID, "Hello")

			ctl.Logout()
			stored, err := e.repos.User.FindByID(user.ID)
			if err != nil {
				t.Fatalf("FindByID: %v", err)
			}
			if stored.IsOnline || stored.LastSeen == nil {
				t.Fatalf("after logout user = %+v, want offline with last_seen", stored)
			}
		})
	}
}

func TestSessionContactAttachmentFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	if _, err := e.client.Register(ctx, "+200", "Ben", "B"); err != nil {
		t.Fatalf("Register Ben: %v", err)
	}
	ctl, _ := newController(t, e, channel.Options{})

	if _, err := ctl.Login(ctx, "+100", "Ann", ""); err != nil {
		t.Fatalf("Login: %v", err)
	}
	ben, err := ctl.AddContact(ctx, " +200 ")
	if err != nil {
		t.Fatalf("AddContact: %v", err)
	}
	if contacts := ctl.Contacts(); len(contacts) != 1 || contacts[0].Contact.ID != ben.ID {
		t.Fatalf("contacts = %+v", contacts)
	}
	if _, err := ctl.AddContact(ctx, "+404"); !errors.Is(err, errorx.ErrNotFound) {
		t.Fatalf("AddContact missing = %v", err)
	}

	chat, err := ctl.StartChatWith(ctx, ben.ID)
	if err != nil {
		t.Fatalf("StartChatWith: %v", err)
	}
	if chat.Kind != model.ChatPrivate {
		t.Fatalf("chat = %+v", chat)
	}

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("meeting at noon"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	att, err := ctl.Attach(ctx, path)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if att.Name != "notes.txt" || att.SizeBytes != int64(len("meeting at noon")) {
		t.Fatalf("attachment = %+v", att)
	}
	msg, err := ctl.Send(ctx, "")
	if err != nil || msg == nil {
		t.Fatalf("Send attachment = %+v, %v", msg, err)
	}
	if msg.Attachment == nil || msg.Attachment.URL != att.URL {
		t.Fatalf("sent message = %+v", msg)
	}
	if _, ok := ctl.Staged(); ok {
		t.Fatalf("stager not cleared after send")
	}

	msgs := ctl.ActiveMessages()
	if len(msgs) != 1 || msgs[0].Attachment == nil {
		t.Fatalf("active messages = %+v", msgs)
	}
}
