// Package model 定义控制台与 REST API 之间交换的数据模型
//
// role.go 包含角色枚举与角色展示名：
//   - Role：固定的十种角色
//   - ResearchType：WEBSITE / LINKEDIN 两种目标类型
package model

// Role 用户角色
type Role string

const (
	RoleSuperAdmin              Role = "SUPER_ADMIN"
	RoleCategoryAdmin           Role = "CATEGORY_ADMIN"
	RoleWebsiteResearcher       Role = "WEBSITE_RESEARCHER"
	RoleLinkedInResearcher      Role = "LINKEDIN_RESEARCHER"
	RoleWebsiteInquirer         Role = "WEBSITE_INQUIRER"
	RoleLinkedInInquirer        Role = "LINKEDIN_INQUIRER"
	RoleWebsiteResearchAuditor  Role = "WEBSITE_RESEARCH_AUDITOR"
	RoleLinkedInResearchAuditor Role = "LINKEDIN_RESEARCH_AUDITOR"
	RoleWebsiteInquiryAuditor   Role = "WEBSITE_INQUIRY_AUDITOR"
	RoleLinkedInInquiryAuditor  Role = "LINKEDIN_INQUIRY_AUDITOR"
)

// AllRoles 按侧边栏顺序排列的全部角色
var AllRoles = []Role{
	RoleSuperAdmin,
	RoleCategoryAdmin,
	RoleWebsiteResearcher,
	RoleLinkedInResearcher,
	RoleWebsiteInquirer,
	RoleLinkedInInquirer,
	RoleWebsiteResearchAuditor,
	RoleLinkedInResearchAuditor,
	RoleWebsiteInquiryAuditor,
	RoleLinkedInInquiryAuditor,
}

var roleLabels = map[Role]string{
	RoleSuperAdmin:              "Super Admin",
	RoleCategoryAdmin:           "Category Admin",
	RoleWebsiteResearcher:       "Website Researcher",
	RoleLinkedInResearcher:      "LinkedIn Researcher",
	RoleWebsiteInquirer:         "Website Inquirer",
	RoleLinkedInInquirer:        "LinkedIn Inquirer",
	RoleWebsiteResearchAuditor:  "Website Research Auditor",
	RoleLinkedInResearchAuditor: "LinkedIn Research Auditor",
	RoleWebsiteInquiryAuditor:   "Website Inquiry Auditor",
	RoleLinkedInInquiryAuditor:  "LinkedIn Inquiry Auditor",
}

// Label 返回展示名，未知角色原样返回
func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return string(r)
}

// Valid 是否为已知角色
func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// TargetType 返回角色作用的目标类型；管理员无类型范围，返回空
func (r Role) TargetType() ResearchType {
	switch r {
	case RoleWebsiteResearcher, RoleWebsiteInquirer, RoleWebsiteResearchAuditor, RoleWebsiteInquiryAuditor:
		return ResearchTypeWebsite
	case RoleLinkedInResearcher, RoleLinkedInInquirer, RoleLinkedInResearchAuditor, RoleLinkedInInquiryAuditor:
		return ResearchTypeLinkedIn
	default:
		return ""
	}
}

// IsAdmin SUPER_ADMIN 或 CATEGORY_ADMIN
func (r Role) IsAdmin() bool {
	return r == RoleSuperAdmin || r == RoleCategoryAdmin
}

func (r Role) IsResearcher() bool {
	return r == RoleWebsiteResearcher || r == RoleLinkedInResearcher
}

func (r Role) IsInquirer() bool {
	return r == RoleWebsiteInquirer || r == RoleLinkedInInquirer
}

func (r Role) IsResearchAuditor() bool {
	return r == RoleWebsiteResearchAuditor || r == RoleLinkedInResearchAuditor
}

func (r Role) IsInquiryAuditor() bool {
	return r == RoleWebsiteInquiryAuditor || r == RoleLinkedInInquiryAuditor
}

// ResearchType 调研目标类型
type ResearchType string

const (
	ResearchTypeWebsite  ResearchType = "WEBSITE"
	ResearchTypeLinkedIn ResearchType = "LINKEDIN"
)

// Label 展示名
func (t ResearchType) Label() string {
	switch t {
	case ResearchTypeWebsite:
		return "Website"
	case ResearchTypeLinkedIn:
		return "LinkedIn"
	default:
		return string(t)
	}
}

// Valid 是否为已知类型
func (t ResearchType) Valid() bool {
	return t == ResearchTypeWebsite || t == ResearchTypeLinkedIn
}

// Status 审核状态（调研与询盘共用）
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusApproved    Status = "APPROVED"
	StatusDisapproved Status = "DISAPPROVED"
)

// Valid 是否为已知状态
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusDisapproved
}
