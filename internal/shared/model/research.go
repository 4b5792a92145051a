// research.go 包含调研记录与目标联合类型：
//   - Target：WebsiteTarget / LinkedInTarget，解码时一次性确定
//   - Research：调研记录（审核、重提、申诉、举报、分配子生命周期）

package model

import (
	"encoding/json"
	"strings"
	"time"
)

// ============================================================================
// Target - 调研目标（带标签的联合类型）
// ============================================================================

// Target 调研目标
type Target interface {
	Type() ResearchType
	// Link 目标主链接（公司官网或 LinkedIn 主页）
	Link() string
	// DisplayName 公司名或人名
	DisplayName() string
}

// WebsiteTarget 公司网站
type WebsiteTarget struct {
	CompanyName string
	CompanyLink string
}

func (WebsiteTarget) Type() ResearchType    { return ResearchTypeWebsite }
func (t WebsiteTarget) Link() string        { return t.CompanyLink }
func (t WebsiteTarget) DisplayName() string { return t.CompanyName }

// LinkedInTarget LinkedIn 个人主页
type LinkedInTarget struct {
	PersonName   string
	LinkedinLink string
}

func (LinkedInTarget) Type() ResearchType    { return ResearchTypeLinkedIn }
func (t LinkedInTarget) Link() string        { return t.LinkedinLink }
func (t LinkedInTarget) DisplayName() string { return t.PersonName }

// targetFields 目标在线上格式中的扁平字段
type targetFields struct {
	Type         ResearchType `json:"type,omitempty"`
	CompanyName  string       `json:"companyName,omitempty"`
	CompanyLink  string       `json:"companyLink,omitempty"`
	PersonName   string       `json:"personName,omitempty"`
	LinkedinLink string       `json:"linkedinLink,omitempty"`
}

// InferResearchType 确定目标类型
//
// 显式 type 优先；缺失时沿用旧规则：有 companyName/companyLink 即 WEBSITE，否则 LINKEDIN。
func InferResearchType(explicit ResearchType, companyName, companyLink string) ResearchType {
	if explicit.Valid() {
		return explicit
	}
	if companyName != "" || companyLink != "" {
		return ResearchTypeWebsite
	}
	return ResearchTypeLinkedIn
}

func (f targetFields) target() Target {
	if InferResearchType(f.Type, f.CompanyName, f.CompanyLink) == ResearchTypeWebsite {
		return WebsiteTarget{CompanyName: f.CompanyName, CompanyLink: f.CompanyLink}
	}
	return LinkedInTarget{PersonName: f.PersonName, LinkedinLink: f.LinkedinLink}
}

func fieldsOf(t Target) targetFields {
	switch v := t.(type) {
	case WebsiteTarget:
		return targetFields{Type: ResearchTypeWebsite, CompanyName: v.CompanyName, CompanyLink: v.CompanyLink}
	case LinkedInTarget:
		return targetFields{Type: ResearchTypeLinkedIn, PersonName: v.PersonName, LinkedinLink: v.LinkedinLink}
	default:
		return targetFields{}
	}
}

// NormalizeScreenshots 合并复数与旧的单数截图字段，返回有序列表
func NormalizeScreenshots(list []string, single string) []string {
	out := make([]string, 0, len(list)+1)
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		if s := strings.TrimSpace(single); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ============================================================================
// Research - 调研记录
// ============================================================================

// Research 调研记录
type Research struct {
	ID          string
	ReferenceNo string
	Target      Target
	Country     string
	Category    *Ref
	Researcher  *Ref
	Status      Status

	DisapprovalReason string
	Resubmitted       bool

	// 申诉子生命周期
	Appealed        bool
	AppealedAt      *time.Time
	AppealDecidedBy *Ref

	// 询盘员举报子生命周期
	Reported       bool
	ReportReason   string
	ReportReviewed bool

	// 分配给询盘员
	AssignedTo *Ref
	AssignedAt *time.Time

	// Screenshots 已归一化的截图 URL 列表
	Screenshots []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// researchWire 线上格式
type researchWire struct {
	ID          string `json:"id,omitempty"`
	MongoID     string `json:"_id,omitempty"`
	ReferenceNo string `json:"referenceNo,omitempty"`
	targetFields
	Country           string     `json:"country,omitempty"`
	Category          *Ref       `json:"category,omitempty"`
	Researcher        *Ref       `json:"researcher,omitempty"`
	Status            Status     `json:"status,omitempty"`
	DisapprovalReason string     `json:"disapprovalReason,omitempty"`
	Resubmitted       bool       `json:"resubmitted,omitempty"`
	Appealed          bool       `json:"appealed,omitempty"`
	AppealedAt        *time.Time `json:"appealedAt,omitempty"`
	AppealDecidedBy   *Ref       `json:"appealDecidedBy,omitempty"`
	Reported          bool       `json:"reported,omitempty"`
	ReportReason      string     `json:"reportReason,omitempty"`
	ReportReviewed    bool       `json:"reportReviewed,omitempty"`
	AssignedTo        *Ref       `json:"assignedTo,omitempty"`
	AssignedAt        *time.Time `json:"assignedAt,omitempty"`
	Screenshots       []string   `json:"screenshots,omitempty"`
	Screenshot        string     `json:"screenshot,omitempty"`
	CreatedAt         *time.Time `json:"createdAt,omitempty"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
}

// UnmarshalJSON 解码并在边界处完成目标类型推断与截图归一化；
// 裸 ID 字符串解码为只有 ID 的记录
func (r *Research) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = Research{ID: id}
		return nil
	}

	var w researchWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Research{
		ID:                pickID(w.ID, w.MongoID),
		ReferenceNo:       w.ReferenceNo,
		Target:            w.targetFields.target(),
		Country:           w.Country,
		Category:          w.Category,
		Researcher:        w.Researcher,
		Status:            w.Status,
		DisapprovalReason: w.DisapprovalReason,
		Resubmitted:       w.Resubmitted,
		Appealed:          w.Appealed,
		AppealedAt:        w.AppealedAt,
		AppealDecidedBy:   w.AppealDecidedBy,
		Reported:          w.Reported,
		ReportReason:      w.ReportReason,
		ReportReviewed:    w.ReportReviewed,
		AssignedTo:        w.AssignedTo,
		AssignedAt:        w.AssignedAt,
		Screenshots:       NormalizeScreenshots(w.Screenshots, w.Screenshot),
	}
	if w.CreatedAt != nil {
		r.CreatedAt = *w.CreatedAt
	}
	if w.UpdatedAt != nil {
		r.UpdatedAt = *w.UpdatedAt
	}
	return nil
}

// MarshalJSON 编码为线上格式（只输出复数截图字段）
func (r Research) MarshalJSON() ([]byte, error) {
	w := researchWire{
		ID:                r.ID,
		ReferenceNo:       r.ReferenceNo,
		targetFields:      fieldsOf(r.Target),
		Country:           r.Country,
		Category:          r.Category,
		Researcher:        r.Researcher,
		Status:            r.Status,
		DisapprovalReason: r.DisapprovalReason,
		Resubmitted:       r.Resubmitted,
		Appealed:          r.Appealed,
		AppealedAt:        r.AppealedAt,
		AppealDecidedBy:   r.AppealDecidedBy,
		Reported:          r.Reported,
		ReportReason:      r.ReportReason,
		ReportReviewed:    r.ReportReviewed,
		AssignedTo:        r.AssignedTo,
		AssignedAt:        r.AssignedAt,
		Screenshots:       r.Screenshots,
	}
	if !r.CreatedAt.IsZero() {
		w.CreatedAt = &r.CreatedAt
	}
	if !r.UpdatedAt.IsZero() {
		w.UpdatedAt = &r.UpdatedAt
	}
	return json.Marshal(w)
}

// Type 目标类型；未设置目标时为空
func (r *Research) Type() ResearchType {
	if r == nil || r.Target == nil {
		return ""
	}
	return r.Target.Type()
}

// Link 目标主链接
func (r *Research) Link() string {
	if r == nil || r.Target == nil {
		return ""
	}
	return r.Target.Link()
}

// DisplayName 公司名或人名
func (r *Research) DisplayName() string {
	if r == nil || r.Target == nil {
		return ""
	}
	return r.Target.DisplayName()
}

// IsAssigned 是否已分配给询盘员
func (r *Research) IsAssigned() bool {
	return r != nil && r.AssignedTo != nil && r.AssignedTo.ID != ""
}

// AppealDecided 申诉是否已有处理人
func (r *Research) AppealDecided() bool {
	return r != nil && r.AppealDecidedBy != nil && r.AppealDecidedBy.ID != ""
}

// RecordID 实现列表行接口
func (r Research) RecordID() string { return r.ID }

// RecordStatus 实现列表行接口
func (r Research) RecordStatus() Status { return r.Status }
