package model

import (
	"encoding/json"
	"time"
)

// PaymentStatus 付款状态
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "UNPAID"
	PaymentPartial PaymentStatus = "PARTIAL"
	PaymentPaid    PaymentStatus = "PAID"
)

// SourceDetails 付款来源的工作内容快照
type SourceDetails struct {
	CompanyName  string `json:"companyName,omitempty"`
	CompanyLink  string `json:"companyLink,omitempty"`
	PersonName   string `json:"personName,omitempty"`
	LinkedinLink string `json:"linkedinLink,omitempty"`
}

// DisplayName 公司名或人名
func (s *SourceDetails) DisplayName() string {
	if s == nil {
		return ""
	}
	if s.CompanyName != "" {
		return s.CompanyName
	}
	return s.PersonName
}

// Payment 付款记录
//
// 由服务端在审核通过或管理员补生成时创建，客户端只能标记付款。
type Payment struct {
	ID              string         `json:"id"`
	ReferenceNo     string         `json:"referenceNo,omitempty"`
	User            *Ref           `json:"user,omitempty"`
	Role            Role           `json:"role,omitempty"`
	BeneficiaryType string         `json:"beneficiaryType,omitempty"`
	SourceDetails   *SourceDetails `json:"sourceDetails,omitempty"`
	WorkStatus      Status         `json:"workStatus,omitempty"` // PENDING | APPROVED
	UnitPrice       float64        `json:"unitPrice"`
	Quantity        int            `json:"quantity"`
	TotalAmount     float64        `json:"totalAmount"`
	PaidAmount      float64        `json:"paidAmount,omitempty"`
	Status          PaymentStatus  `json:"status"`
	PaymentChannel  string         `json:"paymentChannel,omitempty"`
	Category        *Ref           `json:"category,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	PaymentDate     *time.Time     `json:"paymentDate,omitempty"`
}

// UnmarshalJSON 兼容 "_id"
func (p *Payment) UnmarshalJSON(data []byte) error {
	type alias Payment
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.ID = pickID(p.ID, aux.MongoID)
	return nil
}

// Outstanding 未付金额
func (p *Payment) Outstanding() float64 {
	if p.Status == PaymentPaid {
		return 0
	}
	if rest := p.TotalAmount - p.PaidAmount; rest > 0 {
		return rest
	}
	return 0
}
