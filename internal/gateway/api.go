package gateway

import (
	"context"
	"net/url"
	"strconv"

	"chattix/internal/dto/request"
	"chattix/internal/dto/respond"
	"chattix/internal/model"
	"chattix/pkg/errorx"
)

// SendResult send_message 的结果，AIReply 仅在 should_reply 时可能存在
type SendResult struct {
	Message model.Message
	AIReply *model.Message
}

// Chats 当前用户的会话列表，顺序由网关决定
func (c *Client) Chats(ctx context.Context, userID int64) ([]model.Chat, error) {
	var out respond.ChatsRespond
	err := c.get(ctx, request.PathChats, url.Values{"user_id": {strconv.FormatInt(userID, 10)}}, &out)
	if err != nil {
		return nil, err
	}
	return out.ToModel(), nil
}

// Contacts 当前用户的联系人（含在线状态）
func (c *Client) Contacts(ctx context.Context, userID int64) ([]model.Contact, error) {
	var out respond.ContactsRespond
	err := c.get(ctx, request.PathContacts, url.Values{"user_id": {strconv.FormatInt(userID, 10)}}, &out)
	if err != nil {
		return nil, err
	}
	return out.ToModel(userID), nil
}

// Messages 会话的完整历史
func (c *Client) Messages(ctx context.Context, chatID int64) ([]model.Message, error) {
	var out respond.MessagesRespond
	err := c.get(ctx, request.PathMessages, url.Values{"chat_id": {strconv.FormatInt(chatID, 10)}}, &out)
	if err != nil {
		return nil, err
	}
	return out.ToModel(), nil
}

// SearchUser 按手机号精确查找，未找到返回 CodeNotFound
func (c *Client) SearchUser(ctx context.Context, phone string) (model.User, error) {
	if phone == "" {
		return model.User{}, errorx.New(errorx.CodeInvalidParam, "phone is required")
	}
	var out respond.SearchUserRespond
	if err := c.get(ctx, request.PathSearchUser, url.Values{"phone": {phone}}, &out); err != nil {
		return model.User{}, err
	}
	if out.User == nil {
		return model.User{}, errorx.Newf(errorx.CodeNotFound, "user %s not found", phone)
	}
	return out.User.ToModel(), nil
}

// Register 按手机号注册或更新
func (c *Client) Register(ctx context.Context, phone, name, avatar string) (model.User, error) {
	req := &request.RegisterRequest{Action: request.ActionRegister, Phone: phone, Name: name, Avatar: avatar}
	var out respond.RegisterRespond
	if err := c.post(ctx, c.baseURL, req.Action, req, &out); err != nil {
		return model.User{}, err
	}
	return out.User.ToModel(), nil
}

// SendMessage 发送一条消息，返回服务端确认后的消息
func (c *Client) SendMessage(ctx context.Context, req *request.SendMessageRequest) (*SendResult, error) {
	req.Action = request.ActionSendMessage
	var out respond.SendMessageRespond
	if err := c.post(ctx, c.baseURL, req.Action, req, &out); err != nil {
		return nil, err
	}
	res := &SendResult{Message: out.Message.ToModel()}
	if out.AIReply != nil {
		reply := out.AIReply.ToModel()
		res.AIReply = &reply
	}
	return res, nil
}

// AIResponse 请求 AI 对 message 的回复文本，可能为空
func (c *Client) AIResponse(ctx context.Context, message string) (string, error) {
	req := &request.AIResponseRequest{Action: request.ActionAIResponse, Message: message}
	var out respond.AIResponseRespond
	if err := c.post(ctx, c.baseURL, req.Action, req, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// CreateChat 创建私聊（members 为两人）或 AI 会话（isAI，members 为当前用户）
// 私聊去重由网关负责
func (c *Client) CreateChat(ctx context.Context, name string, members []int64, isAI bool) (int64, error) {
	req := &request.CreateChatRequest{
		Action:  request.ActionCreateChat,
		Name:    name,
		IsGroup: false,
		Members: members,
		IsAI:    isAI,
	}
	var out respond.CreateChatRespond
	if err := c.post(ctx, c.baseURL, req.Action, req, &out); err != nil {
		return 0, err
	}
	return out.Chat.ID, nil
}

// CreateGroup 创建群组，返回新会话 ID
func (c *Client) CreateGroup(ctx context.Context, req *request.CreateGroupRequest) (int64, error) {
	req.Action = request.ActionCreateGroup
	var out respond.CreateGroupRespond
	if err := c.post(ctx, c.baseURL, req.Action, req, &out); err != nil {
		return 0, err
	}
	return out.ChatID, nil
}

// AddContact 添加联系人
func (c *Client) AddContact(ctx context.Context, userID, contactUserID int64) error {
	req := &request.AddContactRequest{Action: request.ActionAddContact, UserID: userID, ContactUserID: contactUserID}
	return c.post(ctx, c.baseURL, req.Action, req, nil)
}

// UpdateOnlineStatus 上报在线状态
func (c *Client) UpdateOnlineStatus(ctx context.Context, userID int64, online bool) error {
	req := &request.UpdateStatusRequest{Action: request.ActionUpdateOnlineStatus, UserID: userID, IsOnline: online}
	return c.post(ctx, c.baseURL, req.Action, req, nil)
}

// Upload 上传 base64 编码的附件
func (c *Client) Upload(ctx context.Context, req *request.UploadRequest) (model.Attachment, error) {
	var out respond.UploadRespond
	if err := c.post(ctx, c.uploadURL, "upload", req, &out); err != nil {
		return model.Attachment{}, err
	}
	return out.ToModel(), nil
}
