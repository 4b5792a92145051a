package console

import (
	"errors"
	"strings"

	"research-admin/internal/apiclient"
	"research-admin/internal/shared/model"
)

// ReasonOther 选择"其他"时使用自定义文本
const ReasonOther = "other"

var (
	// ErrActionRequired 未选择审核动作
	ErrActionRequired = errors.New("select an action")
	// ErrReasonRequired 驳回必须给出原因
	ErrReasonRequired = errors.New("a disapproval reason is required")
)

// ReasonPicker 驳回原因选择
type ReasonPicker struct {
	Options []model.DisapprovalReason
	// Choice 选中的原因 ID，或 ReasonOther
	Choice string
	Custom string
}

// Resolve 最终提交的原因文本
//
// 选 other 时取自定义文本；否则取选中原因的标签，找不到时回退到自定义文本。
func (p ReasonPicker) Resolve() string {
	custom := strings.TrimSpace(p.Custom)
	if p.Choice == ReasonOther {
		return custom
	}
	for _, o := range p.Options {
		if o.ID == p.Choice {
			if label := strings.TrimSpace(o.Label); label != "" {
				return label
			}
			break
		}
	}
	return custom
}

// CanConfirm 原因非空时才能确认驳回
func (p ReasonPicker) CanConfirm() bool {
	return p.Resolve() != ""
}

// AuditRequest 构造批量审核请求
func AuditRequest(ids []string, action model.Status, picker ReasonPicker) (apiclient.AuditRequest, error) {
	if action != model.StatusApproved && action != model.StatusDisapproved {
		return apiclient.AuditRequest{}, ErrActionRequired
	}
	if len(ids) == 0 {
		return apiclient.AuditRequest{}, ErrNothingSelected
	}
	req := apiclient.AuditRequest{IDs: ids, Action: action}
	if action == model.StatusDisapproved {
		req.Reason = picker.Resolve()
		if req.Reason == "" {
			return apiclient.AuditRequest{}, ErrReasonRequired
		}
	}
	return req, nil
}
