package apiclient

import (
	"context"

	"research-admin/internal/shared/model"
)

// CategoryService /api/categories
type CategoryService struct {
	c *Client
}

// CategoryInput 新建分类
type CategoryInput struct {
	Name         string `json:"name"`
	CooldownDays int    `json:"cooldownDays"`
}

// List 全部分类（接口返回数组）
func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	var page model.Page[model.Category]
	if err := s.c.Get(ctx, "/api/categories", nil, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// Create 新建分类（仅超级管理员）
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*model.Category, error) {
	var cat model.Category
	if err := s.c.Post(ctx, "/api/categories", in, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}
