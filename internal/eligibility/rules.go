package eligibility

import "research-admin/internal/shared/model"

// Record 可审核、重提、申诉的记录（调研或询盘）
type Record interface {
	RecordID() string
	RecordStatus() model.Status
}

// ownerOf 记录的提交人
func ownerOf(r Record) *model.Ref {
	switch v := r.(type) {
	case model.Research:
		return v.Researcher
	case *model.Research:
		return v.Researcher
	case model.Inquiry:
		return v.Inquirer
	case *model.Inquiry:
		return v.Inquirer
	}
	return nil
}

// flags 重提 / 申诉 / 已裁决
func flags(r Record) (resubmitted, appealed, decided bool) {
	switch v := r.(type) {
	case model.Research:
		return v.Resubmitted, v.Appealed, v.AppealDecided()
	case *model.Research:
		return v.Resubmitted, v.Appealed, v.AppealDecided()
	case model.Inquiry:
		return v.Resubmitted, v.Appealed, v.AppealDecided()
	case *model.Inquiry:
		return v.Resubmitted, v.Appealed, v.AppealDecided()
	}
	return false, false, false
}

// CanResubmit 提交人、已驳回、未重提、未申诉
//
// 申诉与重提互斥，各自只有一次。
func CanResubmit(u *model.User, r Record) bool {
	return ownerDisapprovedUntouched(u, r)
}

// CanAppeal 与 CanResubmit 条件相同
func CanAppeal(u *model.User, r Record) bool {
	return ownerDisapprovedUntouched(u, r)
}

func ownerDisapprovedUntouched(u *model.User, r Record) bool {
	if u == nil || r == nil || !u.Owns(ownerOf(r)) {
		return false
	}
	if r.RecordStatus() != model.StatusDisapproved {
		return false
	}
	resubmitted, appealed, _ := flags(r)
	return !resubmitted && !appealed
}

// CanDecideAppeal 管理员、已申诉、未裁决
func CanDecideAppeal(u *model.User, r Record) bool {
	if u == nil || r == nil || !u.Role.IsAdmin() {
		return false
	}
	_, appealed, decided := flags(r)
	return appealed && !decided
}

// CanReport 询盘员、未举报
func CanReport(u *model.User, r *model.Research) bool {
	return u != nil && r != nil && u.Role.IsInquirer() && !r.Reported
}

// CanReviewReport 管理员、已举报、未审核
func CanReviewReport(u *model.User, r *model.Research) bool {
	return u != nil && r != nil && u.Role.IsAdmin() && r.Reported && !r.ReportReviewed
}

// CanAuditResearch 对应类型的调研审核员、待审核
func CanAuditResearch(u *model.User, r *model.Research) bool {
	if u == nil || r == nil || !u.Role.IsResearchAuditor() {
		return false
	}
	return r.Status == model.StatusPending && u.Role.TargetType() == r.Type()
}

// CanAuditInquiry 对应类型的询盘审核员、待审核
func CanAuditInquiry(u *model.User, q *model.Inquiry) bool {
	if u == nil || q == nil || !u.Role.IsInquiryAuditor() {
		return false
	}
	if q.Type != "" && u.Role.TargetType() != q.Type {
		return false
	}
	return q.Status == model.StatusPending
}

// Pending 审核勾选资格
func Pending[T Record](r T) bool {
	return r.RecordStatus() == model.StatusPending
}

// Assignable 分配勾选资格：已通过且未分配
func Assignable(r model.Research) bool {
	return r.Status == model.StatusApproved && !r.IsAssigned()
}

// Any 所有行都可勾选（批量打开链接）
func Any[T any](T) bool {
	return true
}
