package service

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"chattix/internal/dto/request"
	"chattix/internal/dto/respond"
	"chattix/pkg/constants"
	"chattix/pkg/errorx"
)

// Register 按手机号注册，已注册时只更新名称
func (s *Service) Register(ctx context.Context, req *request.RegisterRequest) (respond.UserRespond, error) {
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		return respond.UserRespond{}, errorx.New(errorx.CodeInvalidParam, "phone is required")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = constants.DEFAULT_USER_NAME
	}
	avatar := strings.TrimSpace(req.Avatar)
	if avatar == "" {
		r, _ := utf8.DecodeRuneInString(name)
		avatar = string(unicode.ToUpper(r))
	}
	user, err := s.repos.WithContext(ctx).User.Upsert(phone, name, avatar)
	if err != nil {
		return respond.UserRespond{}, err
	}
	return toUserRespond(*user), nil
}

// SearchUser 按手机号精确查找
func (s *Service) SearchUser(ctx context.Context, phone string) (respond.UserRespond, error) {
	user, err := s.repos.WithContext(ctx).User.FindByPhone(strings.TrimSpace(phone))
	if err != nil {
		if errorx.IsNotFound(err) {
			return respond.UserRespond{}, errorx.Wrap(err, errorx.CodeNotFound, "user not found")
		}
		return respond.UserRespond{}, err
	}
	return toUserRespond(*user), nil
}

// Contacts 用户的联系人，按名称排序
func (s *Service) Contacts(ctx context.Context, userID int64) ([]respond.UserRespond, error) {
	users, err := s.repos.WithContext(ctx).Contact.ListUsers(userID)
	if err != nil {
		return nil, err
	}
	out := make([]respond.UserRespond, 0, len(users))
	for _, u := range users {
		out = append(out, toUserRespond(u))
	}
	return out, nil
}

// AddContact 添加联系人，重复添加视为成功
func (s *Service) AddContact(ctx context.Context, req *request.AddContactRequest) error {
	repos := s.repos.WithContext(ctx)
	if err := s.ensureUsers(repos, []int64{req.UserID, req.ContactUserID}); err != nil {
		return err
	}
	return repos.Contact.Add(req.UserID, req.ContactUserID)
}

// UpdateStatus 更新在线状态，last_seen 记为当前时间
func (s *Service) UpdateStatus(ctx context.Context, req *request.UpdateStatusRequest) error {
	return s.repos.WithContext(ctx).User.UpdateOnline(req.UserID, req.IsOnline, s.timestamp())
}
