package model

import "sort"

// Capability 界面能力
//
// 调用方只查询能力，不直接比较角色字符串。
type Capability string

const (
	CapViewDashboard     Capability = "dashboard:view"
	CapFilterByCategory  Capability = "category:filter"
	CapViewCategories    Capability = "category:view"
	CapCreateCategory    Capability = "category:create"
	CapManageUsers       Capability = "user:manage"
	CapViewResearch      Capability = "research:view"
	CapCreateResearch    Capability = "research:create"
	CapEditResearch      Capability = "research:edit"
	CapAuditResearch     Capability = "research:audit"
	CapAssignResearch    Capability = "research:assign"
	CapReviewAppeals     Capability = "research:appeal-review"
	CapReviewReports     Capability = "research:report-review"
	CapViewAssignments   Capability = "research:assignments"
	CapReportResearch    Capability = "research:report"
	CapViewInquiries     Capability = "inquiry:view"
	CapCreateInquiry     Capability = "inquiry:create"
	CapAuditInquiry      Capability = "inquiry:audit"
	CapViewPayments      Capability = "payment:view"
	CapGeneratePayments  Capability = "payment:generate"
	CapMarkPaid          Capability = "payment:mark-paid"
	CapViewNotices       Capability = "notice:view"
	CapPublishNotices    Capability = "notice:publish"
	CapManageReasons     Capability = "settings:reasons"
	CapEditOwnProfile    Capability = "profile:edit"
	CapSendMessages      Capability = "message:send"
	CapOpenResearchLinks Capability = "research:open-links"
)

// 所有登录用户都具备的能力
var baseCapabilities = []Capability{
	CapViewDashboard,
	CapViewNotices,
	CapEditOwnProfile,
	CapSendMessages,
}

var adminCapabilities = []Capability{
	CapViewCategories,
	CapManageUsers,
	CapViewResearch,
	CapEditResearch,
	CapAssignResearch,
	CapReviewAppeals,
	CapReviewReports,
	CapViewInquiries,
	CapViewPayments,
	CapGeneratePayments,
	CapPublishNotices,
	CapManageReasons,
}

// roleCapabilities 角色 → 能力表
var roleCapabilities = map[Role][]Capability{
	RoleSuperAdmin:              append([]Capability{CapFilterByCategory, CapCreateCategory, CapMarkPaid}, adminCapabilities...),
	RoleCategoryAdmin:           adminCapabilities,
	RoleWebsiteResearcher:       {CapViewResearch, CapCreateResearch},
	RoleLinkedInResearcher:      {CapViewResearch, CapCreateResearch},
	RoleWebsiteInquirer:         {CapViewAssignments, CapReportResearch, CapOpenResearchLinks, CapViewInquiries, CapCreateInquiry},
	RoleLinkedInInquirer:        {CapViewAssignments, CapReportResearch, CapOpenResearchLinks, CapViewInquiries, CapCreateInquiry},
	RoleWebsiteResearchAuditor:  {CapViewResearch, CapAuditResearch},
	RoleLinkedInResearchAuditor: {CapViewResearch, CapAuditResearch},
	RoleWebsiteInquiryAuditor:   {CapViewInquiries, CapAuditInquiry},
	RoleLinkedInInquiryAuditor:  {CapViewInquiries, CapAuditInquiry},
}

// Capabilities 能力集合
type Capabilities map[Capability]struct{}

// CapabilitiesFor 计算角色的能力集合，未知角色返回空集合
func CapabilitiesFor(role Role) Capabilities {
	caps := Capabilities{}
	extra, ok := roleCapabilities[role]
	if !ok {
		return caps
	}
	for _, c := range baseCapabilities {
		caps[c] = struct{}{}
	}
	for _, c := range extra {
		caps[c] = struct{}{}
	}
	return caps
}

// Has 是否具备能力
func (c Capabilities) Has(cap Capability) bool {
	_, ok := c[cap]
	return ok
}

// List 排序后的能力列表
func (c Capabilities) List() []Capability {
	out := make([]Capability, 0, len(c))
	for cap := range c {
		out = append(out, cap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
