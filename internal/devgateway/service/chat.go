package service

import (
	"context"
	"sort"
	"strings"

	"chattix/internal/dao/store"
	"chattix/internal/dto/request"
	"chattix/internal/dto/respond"
	"chattix/pkg/constants"
	"chattix/pkg/errorx"
)

// Chats 用户参与的会话，名称和头像按查看者计算
// 排序：最后一条消息时间倒序，没有消息的排在最后
func (s *Service) Chats(ctx context.Context, userID int64) ([]respond.ChatRespond, error) {
	repos := s.repos.WithContext(ctx)
	if _, err := repos.User.FindByID(userID); err != nil {
		return nil, err
	}
	chats, err := repos.Chat.ListForUser(userID)
	if err != nil {
		return nil, err
	}

	out := make([]respond.ChatRespond, 0, len(chats))
	for _, chat := range chats {
		item := respond.ChatRespond{ID: chat.ID, Type: chat.Type}
		if err := s.describeChat(repos, chat, userID, &item); err != nil {
			return nil, err
		}
		last, err := repos.Message.LastByChat(chat.ID)
		if err != nil {
			return nil, err
		}
		if last != nil {
			preview := last.Content
			if preview == "" {
				preview = last.AttachmentName
			}
			item.LastMessage = &preview
			item.LastMessageTime = respond.NewTimestamp(last.CreatedAt)
		}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastMessageTime, out[j].LastMessageTime
		switch {
		case a == nil && b == nil:
			return out[i].ID > out[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(b.Time):
			return a.After(b.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// describeChat 填充会话名称和头像
// 私聊取对方信息，群聊取群信息，AI 会话为固定值
func (s *Service) describeChat(repos *store.Repositories, chat store.Chat, viewerID int64, item *respond.ChatRespond) error {
	switch chat.Type {
	case store.ChatTypeAI:
		item.Name = constants.AI_CHAT_SERVER_NAME
		item.Avatar = constants.AI_CHAT_AVATAR
	case store.ChatTypeGroup:
		item.Avatar = constants.GROUP_AVATAR
		if chat.GroupID == nil {
			return nil
		}
		group, err := repos.Group.FindByID(*chat.GroupID)
		if err != nil {
			return err
		}
		item.Name = group.Name
		if group.Avatar != "" {
			item.Avatar = group.Avatar
		}
	default:
		ids, err := repos.Chat.Participants(chat.ID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if id == viewerID {
				continue
			}
			peer, err := repos.User.FindByID(id)
			if err != nil {
				return err
			}
			item.Name = peer.Name
			item.Avatar = peer.Avatar
			break
		}
	}
	return nil
}

// CreateChat 创建私聊或 AI 会话，已存在时返回已有会话
// 私聊按成员对去重，AI 会话每个用户一个
func (s *Service) CreateChat(ctx context.Context, req *request.CreateChatRequest) (int64, error) {
	members := dedupIDs(req.Members, 0)
	if len(members) == 0 {
		return 0, errorx.New(errorx.CodeInvalidParam, "members are required")
	}
	repos := s.repos.WithContext(ctx)
	if err := s.ensureUsers(repos, members); err != nil {
		return 0, err
	}

	if req.IsGroup {
		chatID, _, err := s.createGroup(repos, strings.TrimSpace(req.Name), "", "", members[0], members[1:])
		return chatID, err
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	if req.IsAI || len(members) == 1 {
		owner := members[0]
		existing, err := repos.Chat.FindAI(owner)
		if err == nil {
			return existing.ID, nil
		}
		if !errorx.IsNotFound(err) {
			return 0, err
		}
		chat := &store.Chat{Type: store.ChatTypeAI}
		err = repos.Transaction(func(tx *store.Repositories) error {
			return tx.Chat.Create(chat, []int64{owner})
		})
		return chat.ID, err
	}

	if len(members) != 2 {
		return 0, errorx.New(errorx.CodeInvalidParam, "private chat needs exactly two members")
	}
	existing, err := repos.Chat.FindPrivate(members[0], members[1])
	if err == nil {
		return existing.ID, nil
	}
	if !errorx.IsNotFound(err) {
		return 0, err
	}
	chat := &store.Chat{Type: store.ChatTypePrivate}
	err = repos.Transaction(func(tx *store.Repositories) error {
		return tx.Chat.Create(chat, members)
	})
	return chat.ID, err
}

// CreateGroup 创建群组及其会话，创建者为管理员
func (s *Service) CreateGroup(ctx context.Context, req *request.CreateGroupRequest) (chatID, groupID int64, err error) {
	name := strings.TrimSpace(req.Name)
	members := dedupIDs(req.MemberIDs, req.CreatedBy)
	if name == "" || len(members) == 0 {
		return 0, 0, errorx.ErrInvalidGroupSpec
	}
	repos := s.repos.WithContext(ctx)
	if err := s.ensureUsers(repos, append([]int64{req.CreatedBy}, members...)); err != nil {
		return 0, 0, err
	}
	return s.createGroup(repos, name, strings.TrimSpace(req.Description), strings.TrimSpace(req.Avatar), req.CreatedBy, members)
}

func (s *Service) createGroup(repos *store.Repositories, name, description, avatar string, creator int64, members []int64) (int64, int64, error) {
	if name == "" {
		return 0, 0, errorx.ErrInvalidGroupSpec
	}
	if avatar == "" {
		avatar = constants.GROUP_AVATAR
	}
	group := &store.Group{Name: name, Description: description, Avatar: avatar, CreatedBy: creator}
	chat := &store.Chat{Type: store.ChatTypeGroup}
	err := repos.Transaction(func(tx *store.Repositories) error {
		if err := tx.Group.Create(group, members); err != nil {
			return err
		}
		chat.GroupID = &group.ID
		return tx.Chat.Create(chat, append([]int64{creator}, members...))
	})
	if err != nil {
		return 0, 0, err
	}
	return chat.ID, group.ID, nil
}
