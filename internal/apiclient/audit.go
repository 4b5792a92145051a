package apiclient

import (
	"context"

	"research-admin/internal/shared/model"
)

// AuditService /api/audit
type AuditService struct {
	c *Client
}

// AuditRequest 批量审核
type AuditRequest struct {
	IDs    []string     `json:"ids"`
	Action model.Status `json:"action"` // APPROVED | DISAPPROVED
	Reason string       `json:"reason,omitempty"`
}

// Research 审核调研
func (s *AuditService) Research(ctx context.Context, req AuditRequest) error {
	return s.c.Post(ctx, "/api/audit/research", req, nil)
}

// Inquiry 审核询盘
func (s *AuditService) Inquiry(ctx context.Context, req AuditRequest) error {
	return s.c.Post(ctx, "/api/audit/inquiry", req, nil)
}
