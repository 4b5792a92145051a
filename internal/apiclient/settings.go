package apiclient

import (
	"context"
	"strings"

	"research-admin/internal/shared/model"
)

// SettingsService /api/settings
type SettingsService struct {
	c *Client
}

const reasonsPath = "/api/settings/disapproval-reasons"

// Reasons 预设驳回理由
func (s *SettingsService) Reasons(ctx context.Context) ([]model.DisapprovalReason, error) {
	var page model.Page[model.DisapprovalReason]
	if err := s.c.Get(ctx, reasonsPath, nil, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// AddReason 新增
func (s *SettingsService) AddReason(ctx context.Context, label string) (*model.DisapprovalReason, error) {
	var r model.DisapprovalReason
	if err := s.c.Post(ctx, reasonsPath, map[string]string{"label": strings.TrimSpace(label)}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateReason 修改
func (s *SettingsService) UpdateReason(ctx context.Context, id, label string) (*model.DisapprovalReason, error) {
	p, err := idPath(reasonsPath, id)
	if err != nil {
		return nil, err
	}
	var r model.DisapprovalReason
	if err := s.c.Put(ctx, p, map[string]string{"label": strings.TrimSpace(label)}, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteReason 删除
func (s *SettingsService) DeleteReason(ctx context.Context, id string) error {
	p, err := idPath(reasonsPath, id)
	if err != nil {
		return err
	}
	return s.c.Delete(ctx, p, nil)
}
