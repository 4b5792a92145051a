package apiclient

import (
	"context"
	"net/url"

	"research-admin/internal/shared/model"
)

// InquiryService /api/inquiry，子操作与调研一致
type InquiryService struct {
	c *Client
}

const inquiryPath = "/api/inquiry"

// List 分页查询
func (s *InquiryService) List(ctx context.Context, params url.Values) (*model.Page[model.Inquiry], error) {
	var page model.Page[model.Inquiry]
	if err := s.c.Get(ctx, inquiryPath, params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get 单条记录
func (s *InquiryService) Get(ctx context.Context, id string) (*model.Inquiry, error) {
	p, err := idPath(inquiryPath, id)
	if err != nil {
		return nil, err
	}
	var inq model.Inquiry
	if err := s.c.Get(ctx, p, nil, &inq); err != nil {
		return nil, err
	}
	return &inq, nil
}

// Create 针对已通过的调研提交询盘（multipart）
func (s *InquiryService) Create(ctx context.Context, form *Form) (*model.Inquiry, error) {
	var inq model.Inquiry
	if err := s.c.Post(ctx, inquiryPath, form, &inq); err != nil {
		return nil, err
	}
	return &inq, nil
}

// Resubmit 驳回后重新提交
func (s *InquiryService) Resubmit(ctx context.Context, id string, form *Form) (*model.Inquiry, error) {
	p, err := idPath(inquiryPath, id, "resubmit")
	if err != nil {
		return nil, err
	}
	var inq model.Inquiry
	if err := s.c.Put(ctx, p, form, &inq); err != nil {
		return nil, err
	}
	return &inq, nil
}

// Appeal 发起申诉
func (s *InquiryService) Appeal(ctx context.Context, id string) error {
	p, err := idPath(inquiryPath, id, "appeal")
	if err != nil {
		return err
	}
	return s.c.Post(ctx, p, nil, nil)
}

// DecideAppeal 管理员裁决申诉
func (s *InquiryService) DecideAppeal(ctx context.Context, id string, d AppealDecision) error {
	p, err := idPath(inquiryPath, id, "appeal-decision")
	if err != nil {
		return err
	}
	return s.c.Put(ctx, p, d, nil)
}
