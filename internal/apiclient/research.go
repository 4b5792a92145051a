package apiclient

import (
	"context"
	"net/url"

	"research-admin/internal/shared/model"
)

// ResearchService /api/research
type ResearchService struct {
	c *Client
}

const researchPath = "/api/research"

// AppealDecision 申诉裁决
type AppealDecision struct {
	Decision        model.Status `json:"decision"`
	RejectionReason string       `json:"rejectionReason,omitempty"`
}

// ReportReview 举报审核
type ReportReview struct {
	Action        string `json:"action"` // blacklist | valid
	Clarification string `json:"clarification,omitempty"`
}

// 举报审核动作
const (
	ReportActionBlacklist = "blacklist"
	ReportActionValid     = "valid"
)

// DuplicateResult 链接查重结果
type DuplicateResult struct {
	Duplicate bool            `json:"duplicate"`
	Existing  *model.Research `json:"existing,omitempty"`
}

// List 分页查询
func (s *ResearchService) List(ctx context.Context, params url.Values) (*model.Page[model.Research], error) {
	var page model.Page[model.Research]
	if err := s.c.Get(ctx, researchPath, params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get 单条记录
func (s *ResearchService) Get(ctx context.Context, id string) (*model.Research, error) {
	p, err := idPath(researchPath, id)
	if err != nil {
		return nil, err
	}
	var r model.Research
	if err := s.c.Get(ctx, p, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Create 新建（multipart，含 screenshots）
func (s *ResearchService) Create(ctx context.Context, form *Form) (*model.Research, error) {
	var r model.Research
	if err := s.c.Post(ctx, researchPath, form, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Update 管理员编辑（multipart）
func (s *ResearchService) Update(ctx context.Context, id string, form *Form) (*model.Research, error) {
	p, err := idPath(researchPath, id)
	if err != nil {
		return nil, err
	}
	var r model.Research
	if err := s.c.Put(ctx, p, form, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Resubmit 驳回后重新提交（multipart，仅一次）
func (s *ResearchService) Resubmit(ctx context.Context, id string, form *Form) (*model.Research, error) {
	p, err := idPath(researchPath, id, "resubmit")
	if err != nil {
		return nil, err
	}
	var r model.Research
	if err := s.c.Put(ctx, p, form, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Appeal 发起申诉（仅一次）
func (s *ResearchService) Appeal(ctx context.Context, id string) error {
	p, err := idPath(researchPath, id, "appeal")
	if err != nil {
		return err
	}
	return s.c.Post(ctx, p, nil, nil)
}

// DecideAppeal 管理员裁决申诉
func (s *ResearchService) DecideAppeal(ctx context.Context, id string, d AppealDecision) error {
	p, err := idPath(researchPath, id, "appeal-decision")
	if err != nil {
		return err
	}
	return s.c.Put(ctx, p, d, nil)
}

// Report 询盘员举报目标无效
func (s *ResearchService) Report(ctx context.Context, id, reason string) error {
	p, err := idPath(researchPath, id, "report")
	if err != nil {
		return err
	}
	return s.c.Post(ctx, p, map[string]string{"reason": reason}, nil)
}

// ReviewReport 管理员审核举报
func (s *ResearchService) ReviewReport(ctx context.Context, id string, r ReportReview) error {
	p, err := idPath(researchPath, id, "report-review")
	if err != nil {
		return err
	}
	return s.c.Put(ctx, p, r, nil)
}

// CheckDuplicate 按链接查重；field 为 companyLink 或 linkedinLink
func (s *ResearchService) CheckDuplicate(ctx context.Context, field, link string) (*DuplicateResult, error) {
	var out DuplicateResult
	params := url.Values{field: []string{link}}
	if err := s.c.Get(ctx, researchPath+"/check-duplicate", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Assign 批量分配给询盘员
func (s *ResearchService) Assign(ctx context.Context, ids []string, inquirerID string) error {
	body := struct {
		ResearchIDs []string `json:"researchIds"`
		InquirerID  string   `json:"inquirerId"`
	}{ids, inquirerID}
	return s.c.Post(ctx, researchPath+"/assign", body, nil)
}

// Deassign 批量取消分配
func (s *ResearchService) Deassign(ctx context.Context, ids []string) error {
	body := struct {
		ResearchIDs []string `json:"researchIds"`
	}{ids}
	return s.c.Post(ctx, researchPath+"/deassign", body, nil)
}
