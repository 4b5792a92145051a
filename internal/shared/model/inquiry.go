package model

import (
	"encoding/json"
	"time"
)

// Inquiry 询盘记录
//
// 询盘挂在一条已通过的调研记录上，审核、重提、申诉的子生命周期与调研相同。
type Inquiry struct {
	ID                string
	ReferenceNo       string
	Research          *Research
	Inquirer          *Ref
	Type              ResearchType
	Status            Status
	DisapprovalReason string
	Resubmitted       bool
	Appealed          bool
	AppealDecidedBy   *Ref
	Screenshots       []string
	Category          *Ref
	CreatedAt         time.Time
}

type inquiryWire struct {
	ID                string       `json:"id,omitempty"`
	MongoID           string       `json:"_id,omitempty"`
	ReferenceNo       string       `json:"referenceNo,omitempty"`
	Research          *Research    `json:"research,omitempty"`
	Inquirer          *Ref         `json:"inquirer,omitempty"`
	Type              ResearchType `json:"type,omitempty"`
	Status            Status       `json:"status,omitempty"`
	DisapprovalReason string       `json:"disapprovalReason,omitempty"`
	Resubmitted       bool         `json:"resubmitted,omitempty"`
	Appealed          bool         `json:"appealed,omitempty"`
	AppealDecidedBy   *Ref         `json:"appealDecidedBy,omitempty"`
	Screenshots       []string     `json:"screenshots,omitempty"`
	Screenshot        string       `json:"screenshot,omitempty"`
	Category          *Ref         `json:"category,omitempty"`
	CreatedAt         *time.Time   `json:"createdAt,omitempty"`
}

// UnmarshalJSON 解码；缺少 type 时取关联调研的目标类型
func (q *Inquiry) UnmarshalJSON(data []byte) error {
	var w inquiryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*q = Inquiry{
		ID:                pickID(w.ID, w.MongoID),
		ReferenceNo:       w.ReferenceNo,
		Research:          w.Research,
		Inquirer:          w.Inquirer,
		Type:              w.Type,
		Status:            w.Status,
		DisapprovalReason: w.DisapprovalReason,
		Resubmitted:       w.Resubmitted,
		Appealed:          w.Appealed,
		AppealDecidedBy:   w.AppealDecidedBy,
		Screenshots:       NormalizeScreenshots(w.Screenshots, w.Screenshot),
		Category:          w.Category,
	}
	if !q.Type.Valid() && q.Research != nil && q.Research.Target != nil {
		q.Type = q.Research.Type()
	}
	if w.CreatedAt != nil {
		q.CreatedAt = *w.CreatedAt
	}
	return nil
}

// MarshalJSON 编码为线上格式
func (q Inquiry) MarshalJSON() ([]byte, error) {
	w := inquiryWire{
		ID:                q.ID,
		ReferenceNo:       q.ReferenceNo,
		Research:          q.Research,
		Inquirer:          q.Inquirer,
		Type:              q.Type,
		Status:            q.Status,
		DisapprovalReason: q.DisapprovalReason,
		Resubmitted:       q.Resubmitted,
		Appealed:          q.Appealed,
		AppealDecidedBy:   q.AppealDecidedBy,
		Screenshots:       q.Screenshots,
		Category:          q.Category,
	}
	if !q.CreatedAt.IsZero() {
		w.CreatedAt = &q.CreatedAt
	}
	return json.Marshal(w)
}

// AppealDecided 申诉是否已有处理人
func (q *Inquiry) AppealDecided() bool {
	return q != nil && q.AppealDecidedBy != nil && q.AppealDecidedBy.ID != ""
}

// Link 关联调研的目标链接
func (q *Inquiry) Link() string {
	if q == nil {
		return ""
	}
	return q.Research.Link()
}

func (q Inquiry) RecordID() string     { return q.ID }
func (q Inquiry) RecordStatus() Status { return q.Status }
