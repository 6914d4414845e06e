package devgateway

import (
	"errors"
	"net/http"

	"chattix/internal/devgateway/service"
	"chattix/internal/dto/request"
	"chattix/internal/dto/respond"
	"chattix/pkg/constants"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// maxUploadBody base64 膨胀约 4/3，额外留出 JSON 字段的余量
const maxUploadBody = constants.FILE_MAX_SIZE/3*4 + 64<<10

// Handler 网关的 HTTP 处理器
// 所有读操作挂在 GET /api?path=...，所有写操作挂在 POST /api 并按 action 分发
type Handler struct {
	svc   *service.Service
	blobs *service.BlobStore
}

// NewHandler 创建 Handler
func NewHandler(svc *service.Service, blobs *service.BlobStore) *Handler {
	return &Handler{svc: svc, blobs: blobs}
}

// Get GET /api?path=chats|contacts|messages|search_user
func (h *Handler) Get(c *gin.Context) {
	var q request.PathQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		handleParamError(c, err)
		return
	}
	c.Set("action", q.Path)
	switch q.Path {
	case request.PathChats:
		h.chats(c)
	case request.PathContacts:
		h.contacts(c)
	case request.PathMessages:
		h.messages(c)
	case request.PathSearchUser:
		h.searchUser(c)
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, respond.ErrorRespond{Error: "Invalid request"})
	}
}

// Post POST /api，请求体 {"action": "...", ...}
func (h *Handler) Post(c *gin.Context) {
	var env request.ActionEnvelope
	if err := c.ShouldBindBodyWith(&env, binding.JSON); err != nil {
		handleParamError(c, err)
		return
	}
	c.Set("action", env.Action)
	switch env.Action {
	case request.ActionRegister:
		h.register(c)
	case request.ActionSendMessage:
		h.sendMessage(c)
	case request.ActionAIResponse:
		h.aiResponse(c)
	case request.ActionCreateChat:
		h.createChat(c)
	case request.ActionCreateGroup:
		h.createGroup(c)
	case request.ActionAddContact:
		h.addContact(c)
	case request.ActionUpdateOnlineStatus, request.ActionUpdateStatus:
		h.updateStatus(c)
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, respond.ErrorRespond{Error: "Invalid request"})
	}
}

// Upload POST /upload，请求体 {"file": base64, "name": "...", "type": "..."}
func (h *Handler) Upload(c *gin.Context) {
	c.Set("action", "upload")
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBody)
	var req request.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			handleError(c, service.ErrFileTooLarge)
			return
		}
		handleParamError(c, err)
		return
	}
	out, err := h.blobs.Save(&req)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, out)
}

// bindBody 从缓存的请求体再次绑定具体请求
func bindBody(c *gin.Context, obj any) bool {
	if err := c.ShouldBindBodyWith(obj, binding.JSON); err != nil {
		handleParamError(c, err)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		handleParamError(c, err)
		return false
	}
	return true
}

// ==================== GET ====================

func (h *Handler) chats(c *gin.Context) {
	var q request.UserQuery
	if !bindQuery(c, &q) {
		return
	}
	data, err := h.svc.Chats(c.Request.Context(), q.UserID)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, respond.ChatsRespond{Chats: data})
}

func (h *Handler) contacts(c *gin.Context) {
	var q request.UserQuery
	if !bindQuery(c, &q) {
		return
	}
	data, err := h.svc.Contacts(c.Request.Context(), q.UserID)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, respond.ContactsRespond{Contacts: data})
}

func (h *Handler) messages(c *gin.Context) {
	var q request.ChatQuery
	if !bindQuery(c, &q) {
		return
	}
	data, err := h.svc.Messages(c.Request.Context(), q.ChatID)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, respond.MessagesRespond{Messages: data})
}

func (h *Handler) searchUser(c *gin.Context) {
	var q request.PhoneQuery
	if !bindQuery(c, &q) {
		return
	}
	user, err := h.svc.SearchUser(c.Request.Context(), q.Phone)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, respond.SearchUserRespond{User: &user})
}

// ==================== POST ====================

func (h *Handler) register(c *gin.Context) {
	var req request.RegisterRequest
	if !bindBody(c, &req) {
		return
	}
	user, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, respond.RegisterRespond{User: user})
}

func (h *Handler) sendMessage(c *gin.Context) {
	var req request.SendMessageRequest
	if !bindBody(c, &req) {
		return
	}
	out, err := h.svc.SendMessage(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, out)
}

func (h *Handler) aiResponse(c *gin.Context) {
	var req request.AIResponseRequest
	if !bindBody(c, &req) {
		return
	}
	text, err := h.svc.AIResponse(c.Request.Context(), req.Message)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, respond.AIResponseRespond{Response: text})
}

func (h *Handler) createChat(c *gin.Context) {
	var req request.CreateChatRequest
	if !bindBody(c, &req) {
		return
	}
	chatID, err := h.svc.CreateChat(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	var out respond.CreateChatRespond
	out.Chat.ID = chatID
	handleSuccess(c, out)
}

func (h *Handler) createGroup(c *gin.Context) {
	var req request.CreateGroupRequest
	if !bindBody(c, &req) {
		return
	}
	chatID, groupID, err := h.svc.CreateGroup(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, respond.CreateGroupRespond{ChatID: chatID, GroupID: groupID})
}

func (h *Handler) addContact(c *gin.Context) {
	var req request.AddContactRequest
	if !bindBody(c, &req) {
		return
	}
	if err := h.svc.AddContact(c.Request.Context(), &req); err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, gin.H{"success": true})
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req request.UpdateStatusRequest
	if !bindBody(c, &req) {
		return
	}
	if err := h.svc.UpdateStatus(c.Request.Context(), &req); err != nil {
		handleError(c, err)
		return
	}
	handleSuccess(c, gin.H{"success": true})
}
