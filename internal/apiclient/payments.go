package apiclient

import (
	"context"
	"net/url"

	"research-admin/internal/shared/model"
)

// PaymentService /api/payments
type PaymentService struct {
	c *Client
}

const paymentsPath = "/api/payments"

// PayRequest 标记已付款，金额固定为 totalAmount
type PayRequest struct {
	PaidAmount     float64 `json:"paidAmount"`
	PaymentChannel string  `json:"paymentChannel"`
}

// List 付款列表（category / search 过滤）
func (s *PaymentService) List(ctx context.Context, params url.Values) ([]model.Payment, error) {
	var page model.Page[model.Payment]
	if err := s.c.Get(ctx, paymentsPath, params, &page); err != nil {
		return nil, err
	}
	return page.Data, nil
}

// Generate 补生成付款记录
func (s *PaymentService) Generate(ctx context.Context) error {
	return s.c.Post(ctx, paymentsPath+"/generate", nil, nil)
}

// MarkPaid 标记已付款
func (s *PaymentService) MarkPaid(ctx context.Context, id string, req PayRequest) (*model.Payment, error) {
	p, err := idPath(paymentsPath, id, "pay")
	if err != nil {
		return nil, err
	}
	var pay model.Payment
	if err := s.c.Put(ctx, p, req, &pay); err != nil {
		return nil, err
	}
	return &pay, nil
}
