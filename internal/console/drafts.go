package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"research-admin/internal/apiclient"
	"research-admin/internal/attachment"
	"research-admin/internal/shared/model"
)

// FieldError 单个字段的校验错误
type FieldError struct {
	Field   string
	Message string
}

// ValidationErrors 按检查顺序排列的校验错误
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// For 指定字段的错误文案
func (v ValidationErrors) For(field string) string {
	for _, e := range v {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}

func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v *ValidationErrors) add(field, msg string) {
	*v = append(*v, FieldError{Field: field, Message: msg})
}

// ============================================================================
// 截图
// ============================================================================

// ScreenshotLimitMessage 超限提示
func ScreenshotLimitMessage(limit int64, n int) string {
	return fmt.Sprintf("Each image must be ≤ %dKB. %d file(s) exceeded the limit.", limit/1024, n)
}

// FilterScreenshots 丢弃超过单张上限的图片，返回保留的图片与提示（无超限时为空）
func FilterScreenshots(list []attachment.Attachment, limit int64) ([]attachment.Attachment, string) {
	if limit <= 0 {
		limit = attachment.DefaultMaxImageBytes
	}
	kept, over := attachment.SplitBySize(list, limit)
	if len(over) == 0 {
		return kept, ""
	}
	return kept, ScreenshotLimitMessage(limit, len(over))
}

// ============================================================================
// 调研
// ============================================================================

// ResearchDraft 新建调研
type ResearchDraft struct {
	Type         model.ResearchType
	CompanyName  string
	CompanyLink  string
	PersonName   string
	LinkedinLink string
	Country      string
	Screenshots  []attachment.Attachment
}

// NewResearchDraft 研究员角色的类型固定为其范围，其他角色默认 WEBSITE
func NewResearchDraft(role model.Role) *ResearchDraft {
	t := model.ResearchTypeWebsite
	if role.IsResearcher() {
		t = role.TargetType()
	}
	return &ResearchDraft{Type: t}
}

// SetType 切换类型；研究员角色不可切换
func (d *ResearchDraft) SetType(role model.Role, t model.ResearchType) {
	if role.IsResearcher() || !t.Valid() {
		return
	}
	d.Type = t
}

// Link 当前类型对应的链接（用于查重）
func (d *ResearchDraft) Link() string {
	if d.Type == model.ResearchTypeLinkedIn {
		return strings.TrimSpace(d.LinkedinLink)
	}
	return strings.TrimSpace(d.CompanyLink)
}

// Validate 依次检查国家、名称与链接
func (d *ResearchDraft) Validate() error {
	in := newTargetInput(d.Type, d.CompanyName, d.CompanyLink, d.PersonName, d.LinkedinLink, d.Country)
	return forms.checkTarget(in, researchMessages)
}

// CanSubmit 查重命中时禁止提交
func (d *ResearchDraft) CanSubmit(dup *DuplicateChecker) bool {
	return d.Validate() == nil && (dup == nil || !dup.Blocked())
}

// Form 构造 multipart 表单
func (d *ResearchDraft) Form(ctx context.Context) *apiclient.Form {
	f := apiclient.NewForm().Set("type", string(d.Type)).Set("country", strings.TrimSpace(d.Country))
	if d.Type == model.ResearchTypeWebsite {
		f.Set("companyName", strings.TrimSpace(d.CompanyName)).Set("companyLink", strings.TrimSpace(d.CompanyLink))
	} else {
		f.Set("personName", strings.TrimSpace(d.PersonName)).Set("linkedinLink", strings.TrimSpace(d.LinkedinLink))
	}
	return f.AddFiles(ctx, "screenshots", d.Screenshots)
}

// ResubmitDraft 重提，预填原记录
type ResubmitDraft struct {
	CompanyName  string
	CompanyLink  string
	PersonName   string
	LinkedinLink string
	Country      string
	Screenshots  []attachment.Attachment
}

// NewResubmitDraft 从原记录预填
func NewResubmitDraft(r *model.Research) *ResubmitDraft {
	d := &ResubmitDraft{Country: r.Country}
	switch t := r.Target.(type) {
	case model.WebsiteTarget:
		d.CompanyName, d.CompanyLink = t.CompanyName, t.CompanyLink
	case model.LinkedInTarget:
		d.PersonName, d.LinkedinLink = t.PersonName, t.LinkedinLink
	}
	return d
}

// IsWebsite 按已填写的字段推断类型
func (d *ResubmitDraft) IsWebsite() bool {
	return model.InferResearchType("", strings.TrimSpace(d.CompanyName), strings.TrimSpace(d.CompanyLink)) == model.ResearchTypeWebsite
}

// Validate 校验
func (d *ResubmitDraft) Validate() error {
	t := model.ResearchTypeLinkedIn
	if d.IsWebsite() {
		t = model.ResearchTypeWebsite
	}
	in := newTargetInput(t, d.CompanyName, d.CompanyLink, d.PersonName, d.LinkedinLink, d.Country)
	return forms.checkTarget(in, resubmitMessages)
}

// Form 重提表单不带 type 字段
func (d *ResubmitDraft) Form(ctx context.Context) *apiclient.Form {
	f := apiclient.NewForm().Set("country", strings.TrimSpace(d.Country))
	if d.IsWebsite() {
		f.Set("companyName", strings.TrimSpace(d.CompanyName)).Set("companyLink", strings.TrimSpace(d.CompanyLink))
	} else {
		f.Set("personName", strings.TrimSpace(d.PersonName)).Set("linkedinLink", strings.TrimSpace(d.LinkedinLink))
	}
	return f.AddFiles(ctx, "screenshots", d.Screenshots)
}

// AdminEdit 管理员编辑调研
type AdminEdit struct {
	CompanyName  string
	CompanyLink  string
	PersonName   string
	LinkedinLink string
	Country      string
	Status       model.Status
}

// NewAdminEdit 从记录预填
func NewAdminEdit(r *model.Research) *AdminEdit {
	e := &AdminEdit{Country: r.Country, Status: r.Status}
	switch t := r.Target.(type) {
	case model.WebsiteTarget:
		e.CompanyName, e.CompanyLink = t.CompanyName, t.CompanyLink
	case model.LinkedInTarget:
		e.PersonName, e.LinkedinLink = t.PersonName, t.LinkedinLink
	}
	return e
}

// Form 编辑表单
func (e *AdminEdit) Form() *apiclient.Form {
	f := apiclient.NewForm()
	for _, kv := range [][2]string{
		{"companyName", e.CompanyName},
		{"companyLink", e.CompanyLink},
		{"personName", e.PersonName},
		{"linkedinLink", e.LinkedinLink},
		{"country", e.Country},
		{"status", string(e.Status)},
	} {
		f.SetNonEmpty(kv[0], kv[1])
	}
	return f
}

// ============================================================================
// 询盘
// ============================================================================

// InquiryDraft 新建询盘
type InquiryDraft struct {
	ResearchID  string
	Screenshots []attachment.Attachment
}

// Validate 受信任的询盘员可不附截图
func (d *InquiryDraft) Validate(user *model.User) error {
	return forms.check(inquiryInput{
		Research:    strings.TrimSpace(d.ResearchID),
		Screenshots: len(d.Screenshots),
		Trusted:     user != nil && user.TrustedInquirer,
	}, inquiryMessages)
}

// Form 询盘表单
func (d *InquiryDraft) Form(ctx context.Context) *apiclient.Form {
	return apiclient.NewForm().Set("research", strings.TrimSpace(d.ResearchID)).AddFiles(ctx, "screenshots", d.Screenshots)
}

// ============================================================================
// 用户 / 分类 / 付款
// ============================================================================

// UserDraft 新建用户
type UserDraft struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
	Category string
	Country  string
}

// NewUserDraft 默认角色 WEBSITE_RESEARCHER
func NewUserDraft() *UserDraft {
	return &UserDraft{Role: model.RoleWebsiteResearcher}
}

// Validate 校验全部字段，每个字段最多一条错误
func (d *UserDraft) Validate() error {
	return forms.check(userInput{
		Name:     strings.TrimSpace(d.Name),
		Email:    strings.TrimSpace(d.Email),
		Password: d.Password,
		Role:     d.Role,
		Category: strings.TrimSpace(d.Category),
	}, userMessages)
}

// Input 请求体
func (d *UserDraft) Input() apiclient.UserInput {
	return apiclient.UserInput{
		Name:     strings.TrimSpace(d.Name),
		Email:    strings.TrimSpace(d.Email),
		Password: d.Password,
		Role:     d.Role,
		Category: strings.TrimSpace(d.Category),
		Country:  strings.TrimSpace(d.Country),
	}
}

// CategoryDraft 新建分类
type CategoryDraft struct {
	Name         string
	CooldownDays string
}

// Validate 名称必填，冷却期至少 1 天
func (d *CategoryDraft) Validate() error {
	return forms.check(categoryInput{Name: strings.TrimSpace(d.Name), CooldownDays: d.cooldown()}, categoryMessages)
}

// cooldown 空值或 0 取默认 30 天
func (d *CategoryDraft) cooldown() int {
	n, err := strconv.Atoi(strings.TrimSpace(d.CooldownDays))
	if err != nil || n == 0 {
		return model.DefaultCooldownDays
	}
	return n
}

// Input 请求体
func (d *CategoryDraft) Input() apiclient.CategoryInput {
	return apiclient.CategoryInput{Name: strings.TrimSpace(d.Name), CooldownDays: d.cooldown()}
}

// PaymentDraft 标记付款，金额固定为应付总额
type PaymentDraft struct {
	Payment *model.Payment
	Channel string
}

// Validate 必须选择付款渠道
func (d *PaymentDraft) Validate() error {
	in := paymentInput{Channel: strings.TrimSpace(d.Channel)}
	if d.Payment != nil {
		in.Payment = d.Payment.ID
	}
	return forms.check(in, paymentMessages)
}

// Request 请求体
func (d *PaymentDraft) Request() apiclient.PayRequest {
	return apiclient.PayRequest{PaidAmount: d.Payment.TotalAmount, PaymentChannel: strings.TrimSpace(d.Channel)}
}

// ============================================================================
// 举报 / 申诉
// ============================================================================

// DefaultReportReason 询盘员未填写举报原因时使用
const DefaultReportReason = "Reported by inquirer"

// ReportReason 举报原因
func ReportReason(text string) string {
	if text = strings.TrimSpace(text); text != "" {
		return text
	}
	return DefaultReportReason
}

// ReportReviewRequest 举报审核；valid 必须附说明，blacklist 不发送说明
func ReportReviewRequest(action, clarification string) (apiclient.ReportReview, error) {
	var errs ValidationErrors
	switch action {
	case apiclient.ReportActionBlacklist:
		return apiclient.ReportReview{Action: action}, nil
	case apiclient.ReportActionValid:
		clarification = strings.TrimSpace(clarification)
		if clarification == "" {
			errs.add("clarification", "Clarification is required")
			return apiclient.ReportReview{}, errs
		}
		return apiclient.ReportReview{Action: action, Clarification: clarification}, nil
	case "":
		errs.add("action", "Select an action")
	default:
		errs.add("action", fmt.Sprintf("Unknown action %q", action))
	}
	return apiclient.ReportReview{}, errs
}

// AppealApproval 同意申诉
func AppealApproval() apiclient.AppealDecision {
	return apiclient.AppealDecision{Decision: model.StatusApproved}
}

// AppealRejection 驳回申诉必须给出原因
func AppealRejection(reason string) (apiclient.AppealDecision, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		var errs ValidationErrors
		errs.add("rejectionReason", "Rejection reason is required")
		return apiclient.AppealDecision{}, errs
	}
	return apiclient.AppealDecision{Decision: model.StatusDisapproved, RejectionReason: reason}, nil
}
