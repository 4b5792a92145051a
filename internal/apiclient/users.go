package apiclient

import (
	"context"
	"net/url"

	"research-admin/internal/shared/model"
)

// UserService /api/users
type UserService struct {
	c *Client
}

const usersPath = "/api/users"

// UserInput 新建用户
type UserInput struct {
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Password        string     `json:"password"`
	Role            model.Role `json:"role"`
	Category        string     `json:"category,omitempty"`
	Country         string     `json:"country,omitempty"`
	UnitPayment     float64    `json:"unitPayment,omitempty"`
	TrustedInquirer bool       `json:"trustedInquirer,omitempty"`
}

// List 用户列表；params 可为 nil
func (s *UserService) List(ctx context.Context, params url.Values) ([]model.User, error) {
	var page model.Page[model.User]
	if err := s.c.Get(ctx, usersPath, params, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// Create 新建用户
func (s *UserService) Create(ctx context.Context, in UserInput) (*model.User, error) {
	var u model.User
	if err := s.c.Post(ctx, usersPath, in, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Update 编辑用户（multipart，可带头像）
func (s *UserService) Update(ctx context.Context, id string, form *Form) (*model.User, error) {
	p, err := idPath(usersPath, id)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := s.c.Put(ctx, p, form, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Toggle 启用/停用（软删除）
func (s *UserService) Toggle(ctx context.Context, id string) (*model.User, error) {
	p, err := idPath(usersPath, id, "toggle")
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := s.c.Patch(ctx, p, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Inquirers 可分配的询盘员，type 为空时返回全部
func (s *UserService) Inquirers(ctx context.Context, t model.ResearchType) ([]model.User, error) {
	all, err := s.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(all))
	for _, u := range all {
		if !u.Role.IsInquirer() || !u.IsActive {
			continue
		}
		if t != "" && u.Role.TargetType() != t {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}
