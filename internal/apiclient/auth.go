package apiclient

import (
	"context"

	"research-admin/internal/shared/model"
)

// AuthService /api/auth
type AuthService struct {
	c *Client
}

// LoginResponse 登录结果
type LoginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Login 登录；不写入本地存储，由会话持有者决定如何持久化
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := s.c.Post(ctx, LoginPath, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me 当前用户
func (s *AuthService) Me(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := s.c.Get(ctx, "/api/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile 修改个人资料（name / password / profileImage）
func (s *AuthService) UpdateProfile(ctx context.Context, form *Form) (*model.User, error) {
	var u model.User
	if err := s.c.Put(ctx, "/api/auth/profile", form, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
