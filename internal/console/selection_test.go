package console

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-admin/internal/apiclient"
	"research-admin/internal/shared/model"
)

type countingReloader struct{ loads int }

func (r *countingReloader) Load(context.Context) error {
	r.loads++
	return nil
}

func research(id string, status model.Status) model.Research {
	return model.Research{ID: id, Status: status}
}

func TestSelection_ToggleAndOrder(t *testing.T) {
	s := NewSelection()
	assert.True(t, s.Toggle("b"))
	assert.True(t, s.Toggle("a"))
	assert.True(t, s.Toggle("c"))
	assert.False(t, s.Toggle("a"))

	assert.Equal(t, []string{"b", "c"}, s.IDs())
	assert.True(t, s.Has("c"))
	assert.False(t, s.Has("a"))

	s.Remove("b", "missing")
	assert.Equal(t, []string{"c"}, s.IDs())
	s.Clear()
	assert.Zero(t, s.Len())
}

func TestToggleAll_PendingOnly(t *testing.T) {
	rows := []model.Research{
		research("1", model.StatusPending),
		research("2", model.StatusApproved),
		research("3", model.StatusPending),
		research("4", model.StatusDisapproved),
	}
	pending := func(r model.Research) bool { return r.Status == model.StatusPending }
	s := NewSelection()

	ToggleAll(s, rows, pending)
	assert.Equal(t, []string{"1", "3"}, s.IDs())

	// 全部可选行已勾选时再次切换为清空
	ToggleAll(s, rows, pending)
	assert.Zero(t, s.Len())

	// 部分勾选时切换为全选
	s.Toggle("3")
	ToggleAll(s, rows, pending)
	assert.Equal(t, []string{"1", "3"}, s.IDs())
}

func TestToggleAll_AllRows(t *testing.T) {
	rows := []model.Research{research("1", model.StatusApproved), research("2", model.StatusApproved)}
	s := NewSelection()
	ToggleAll(s, rows, nil)
	assert.Equal(t, 2, s.Len())
	ToggleAll(s, rows, nil)
	assert.Zero(t, s.Len())
}

func TestBulkRunner_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("success clears and reloads", func(t *testing.T) {
		sel := NewSelection()
		sel.Toggle("a")
		sel.Toggle("b")
		list := &countingReloader{}
		var submitted [][]string
		b := NewBulkRunner(sel, list, nil, func(_ context.Context, ids []string) error {
			submitted = append(submitted, ids)
			return nil
		})

		require.NoError(t, b.Run(ctx))
		assert.Equal(t, [][]string{{"a", "b"}}, submitted)
		assert.Zero(t, sel.Len())
		assert.Equal(t, 1, list.loads)
	})

	t.Run("failure keeps selection", func(t *testing.T) {
		sel := NewSelection()
		sel.Toggle("a")
		list := &countingReloader{}
		var shown string
		b := NewBulkRunner(sel, list, func(msg string) { shown = msg }, func(context.Context, []string) error {
			return &apiclient.APIError{Status: 400, Message: "Inquirer not found"}
		})

		assert.Error(t, b.Run(ctx))
		assert.Equal(t, "Inquirer not found", shown)
		assert.Equal(t, []string{"a"}, sel.IDs())
		assert.Zero(t, list.loads)
	})

	t.Run("empty selection", func(t *testing.T) {
		b := NewBulkRunner(NewSelection(), nil, nil, func(context.Context, []string) error {
			return errors.New("must not be called")
		})
		assert.ErrorIs(t, b.Run(ctx), ErrNothingSelected)
	})
}

func TestBulkRunner_RunOn(t *testing.T) {
	sel := NewSelection()
	sel.Toggle("a")
	sel.Toggle("b")
	list := &countingReloader{}
	b := NewBulkRunner(sel, list, nil, func(context.Context, []string) error { return nil })

	require.NoError(t, b.RunOn(context.Background(), "a"))
	assert.Equal(t, []string{"b"}, sel.IDs())
	assert.Equal(t, 1, list.loads)
}

func TestReasonPicker(t *testing.T) {
	options := []model.DisapprovalReason{
		{ID: "r1", Label: " Broken link "},
		{ID: "r2", Label: ""},
	}
	tests := []struct {
		name   string
		picker ReasonPicker
		want   string
	}{
		{"canned label", ReasonPicker{Options: options, Choice: "r1"}, "Broken link"},
		{"other uses custom", ReasonPicker{Options: options, Choice: ReasonOther, Custom: "  wrong country "}, "wrong country"},
		{"empty label falls back", ReasonPicker{Options: options, Choice: "r2", Custom: "typed"}, "typed"},
		{"unknown id falls back", ReasonPicker{Options: options, Choice: "r9", Custom: "typed"}, "typed"},
		{"nothing", ReasonPicker{Options: options, Choice: ReasonOther, Custom: "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.picker.Resolve())
			assert.Equal(t, tt.want != "", tt.picker.CanConfirm())
		})
	}
}

func TestAuditRequest(t *testing.T) {
	picker := ReasonPicker{Choice: ReasonOther, Custom: "duplicate entry"}

	req, err := AuditRequest([]string{"1", "2"}, model.StatusApproved, picker)
	require.NoError(t, err)
	assert.Empty(t, req.Reason)
	assert.Equal(t, []string{"1", "2"}, req.IDs)

	req, err = AuditRequest([]string{"1"}, model.StatusDisapproved, picker)
	require.NoError(t, err)
	assert.Equal(t, "duplicate entry", req.Reason)

	_, err = AuditRequest([]string{"1"}, model.StatusDisapproved, ReasonPicker{Choice: ReasonOther})
	assert.ErrorIs(t, err, ErrReasonRequired)

	_, err = AuditRequest([]string{"1"}, "", picker)
	assert.ErrorIs(t, err, ErrActionRequired)

	_, err = AuditRequest(nil, model.StatusApproved, picker)
	assert.ErrorIs(t, err, ErrNothingSelected)
}

func TestOpenLinks(t *testing.T) {
	rows := []model.Research{
		{ID: "1", Target: model.WebsiteTarget{CompanyName: "Acme", CompanyLink: "https://acme.example"}, Screenshots: []string{"s1", "s2"}},
		{ID: "2", Target: model.LinkedInTarget{PersonName: "Jo", LinkedinLink: "https://linkedin.com/in/jo"}},
		{ID: "3", Target: model.WebsiteTarget{CompanyName: "NoLink"}, Screenshots: []string{"s3"}},
	}
	sel := NewSelection()
	sel.Toggle("3")
	sel.Toggle("1")

	assert.Equal(t, []string{"https://acme.example", "s1", "s2", "s3"}, OpenLinks(rows, sel))
}

func TestQueryBuilders(t *testing.T) {
	superAdmin := &model.User{ID: "u0", Role: model.RoleSuperAdmin}
	categoryAdmin := &model.User{ID: "u1", Role: model.RoleCategoryAdmin}
	inquirer := &model.User{ID: "u2", Role: model.RoleWebsiteInquirer}

	q := Query{Page: 2, Limit: 25, Filters: map[string]string{
		FilterStatus:   "PENDING",
		FilterCountry:  " India ",
		FilterCategory: "c1",
		FilterSearch:   "acme",
	}}

	t.Run("super admin research list", func(t *testing.T) {
		p := ResearchListParams(superAdmin)(q)
		assert.Equal(t, "page=2&limit=25&status=PENDING&country=India&category=c1&search=acme", sortedQuery(p))
	})

	t.Run("category admin never sends category", func(t *testing.T) {
		p := ResearchListParams(categoryAdmin)(q)
		assert.Empty(t, p.Get(FilterCategory))
		assert.Equal(t, "PENDING", p.Get(FilterStatus))
	})

	t.Run("inquirer sees own assignments", func(t *testing.T) {
		p := ResearchListParams(inquirer)(q)
		assert.Equal(t, "1", p.Get("myAssignments"))
		assert.Empty(t, p.Get(FilterStatus))
	})

	t.Run("list filter replaces status", func(t *testing.T) {
		withList := Query{Page: 1, Limit: 10, Filters: map[string]string{FilterStatus: "PENDING", FilterList: ListReported}}
		p := ResearchListParams(categoryAdmin)(withList)
		assert.Equal(t, ListReported, p.Get(FilterList))
		assert.Empty(t, p.Get(FilterStatus))
	})

	t.Run("assignment page", func(t *testing.T) {
		aq := Query{Page: 1, Limit: 10, Filters: map[string]string{
			FilterStatus:     "PENDING",
			FilterType:       "LINKEDIN",
			FilterAssignment: AssignmentUnassigned,
		}}
		p := AssignmentParams(categoryAdmin)(aq)
		assert.Equal(t, "APPROVED", p.Get(FilterStatus))
		assert.Equal(t, "LINKEDIN", p.Get(FilterType))
		assert.Equal(t, AssignmentUnassigned, p.Get(FilterAssignment))
	})

	t.Run("appeals queue", func(t *testing.T) {
		p := AppealsParams(Query{Page: 1, Limit: 10, Filters: map[string]string{FilterStatus: "PENDING"}})
		assert.Equal(t, ListAppealed, p.Get(FilterList))
		assert.Empty(t, p.Get(FilterStatus))
	})

	t.Run("payments", func(t *testing.T) {
		assert.Equal(t, "c1", PaymentParams(superAdmin, "c1", "").Get(FilterCategory))
		assert.Empty(t, PaymentParams(categoryAdmin, "c1", "").Get(FilterCategory))
	})
}

// sortedQuery 按固定键顺序输出，便于断言
func sortedQuery(p apiclient.Params) string {
	keys := []string{"page", "limit", "myAssignments", "status", "list", "country", "category", "search"}
	out := ""
	for _, k := range keys {
		if v := p.Get(k); v != "" {
			if out != "" {
				out += "&"
			}
			out += k + "=" + v
		}
	}
	return out
}
