package apiclient

import (
	"context"

	"research-admin/internal/shared/model"
)

// NoticeService /api/notices 与站内信
type NoticeService struct {
	c *Client
}

const noticesPath = "/api/notices"

// NoticeInput 公告（按分类与角色投放）
type NoticeInput struct {
	Title    string       `json:"title"`
	Content  string       `json:"content"`
	Category string       `json:"category,omitempty"`
	Roles    []model.Role `json:"roles,omitempty"`
}

// MessageInput 站内信
type MessageInput struct {
	To      string `json:"to"`
	Subject string `json:"subject,omitempty"`
	Content string `json:"content"`
}

// List 公告列表
func (s *NoticeService) List(ctx context.Context) ([]model.Notice, error) {
	var page model.Page[model.Notice]
	if err := s.c.Get(ctx, noticesPath, nil, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// Create 发布公告
func (s *NoticeService) Create(ctx context.Context, in NoticeInput) (*model.Notice, error) {
	var n model.Notice
	if err := s.c.Post(ctx, noticesPath, in, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Update 修改公告
func (s *NoticeService) Update(ctx context.Context, id string, in NoticeInput) (*model.Notice, error) {
	p, err := idPath(noticesPath, id)
	if err != nil {
		return nil, err
	}
	var n model.Notice
	if err := s.c.Put(ctx, p, in, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Messages 收件箱
func (s *NoticeService) Messages(ctx context.Context) ([]model.Message, error) {
	var page model.Page[model.Message]
	if err := s.c.Get(ctx, noticesPath+"/messages", nil, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// Send 发送站内信
func (s *NoticeService) Send(ctx context.Context, in MessageInput) (*model.Message, error) {
	var m model.Message
	if err := s.c.Post(ctx, noticesPath+"/messages", in, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// MarkRead 标记已读
func (s *NoticeService) MarkRead(ctx context.Context, id string) error {
	p, err := idPath(noticesPath+"/messages", id, "read")
	if err != nil {
		return err
	}
	return s.c.Patch(ctx, p, nil, nil)
}

// Recipients 可发送站内信的用户
func (s *NoticeService) Recipients(ctx context.Context) ([]model.User, error) {
	var page model.Page[model.User]
	if err := s.c.Get(ctx, noticesPath+"/recipients", nil, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}
