package console

import (
	"research-admin/internal/apiclient"
	"research-admin/internal/shared/model"
)

// 过滤字段名
const (
	FilterStatus     = "status"
	FilterList       = "list"
	FilterCountry    = "country"
	FilterSearch     = "search"
	FilterCategory   = "category"
	FilterType       = "type"
	FilterAssignment = "assignment"
	FilterAssignedTo = "assignedTo"
)

// 调研列表的 list 取值
const (
	ListResubmitted = "resubmitted"
	ListAppealed    = "appealed"
	ListReported    = "reported"
)

// 分配页的 assignment 取值
const (
	AssignmentAssigned   = "assigned"
	AssignmentUnassigned = "unassigned"
)

func paged(q Query) apiclient.Params {
	return apiclient.NewParams().SetInt("page", q.Page).SetInt("limit", q.Limit)
}

// categoryFilter 只有能按分类过滤的角色才发送 category
func categoryFilter(p apiclient.Params, user *model.User, q Query) {
	if user != nil && model.CapabilitiesFor(user.Role).Has(model.CapFilterByCategory) {
		p.Set(FilterCategory, q.Get(FilterCategory))
	}
}

// ResearchListParams 调研列表
//
// 询盘员只看分配给自己的记录（myAssignments=1），忽略 status / list；
// 其他角色 status 与 list 互斥。
func ResearchListParams(user *model.User) ParamsBuilder {
	return func(q Query) apiclient.Params {
		p := paged(q)
		if user != nil && user.Role.IsInquirer() {
			p.SetFlag("myAssignments", true)
		} else if list := q.Get(FilterList); list != "" {
			p.Set(FilterList, list)
		} else {
			p.Set(FilterStatus, q.Get(FilterStatus))
		}
		p.Set(FilterCountry, q.Get(FilterCountry))
		p.Set(FilterSearch, q.Get(FilterSearch))
		categoryFilter(p, user, q)
		return p
	}
}

// AssignmentParams 分配页：固定 status=APPROVED
func AssignmentParams(user *model.User) ParamsBuilder {
	return func(q Query) apiclient.Params {
		p := paged(q).Set(FilterStatus, string(model.StatusApproved))
		categoryFilter(p, user, q)
		for _, k := range []string{FilterType, FilterCountry, FilterSearch, FilterAssignment, FilterAssignedTo} {
			p.Set(k, q.Get(k))
		}
		return p
	}
}

// AppealsParams 申诉队列：固定 list=appealed
func AppealsParams(q Query) apiclient.Params {
	return paged(q).Set(FilterList, ListAppealed).Set(FilterSearch, q.Get(FilterSearch))
}

// ReportsParams 举报队列：固定 list=reported
func ReportsParams(q Query) apiclient.Params {
	return paged(q).Set(FilterList, ListReported).Set(FilterSearch, q.Get(FilterSearch))
}

// InquiryListParams 询盘列表
func InquiryListParams(q Query) apiclient.Params {
	return paged(q).Set(FilterStatus, q.Get(FilterStatus)).Set(FilterSearch, q.Get(FilterSearch))
}

// PaymentParams 付款列表不分页
func PaymentParams(user *model.User, category, search string) apiclient.Params {
	p := apiclient.NewParams().Set(FilterSearch, search)
	categoryFilter(p, user, Query{Filters: map[string]string{FilterCategory: category}})
	return p
}
