package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	legacyrouter "github.com/getkin/kin-openapi/routers/legacy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-admin/api"
	"research-admin/internal/attachment"
	"research-admin/internal/shared/model"
	"research-admin/internal/shared/storage"
)

// contractServer 按内嵌的接口描述校验每个请求，并返回固定响应
type contractServer struct {
	t      *testing.T
	srv    *httptest.Server
	doc    *openapi3.T
	router routers.Router

	mu   sync.Mutex
	seen map[string]bool
}

func newContractServer(t *testing.T) *contractServer {
	t.Helper()
	data, err := api.ConsoleSpec()
	require.NoError(t, err)

	doc, err := openapi3.NewLoader().LoadFromData(data)
	require.NoError(t, err)

	cs := &contractServer{t: t, doc: doc, seen: map[string]bool{}}
	cs.srv = httptest.NewServer(http.HandlerFunc(cs.handle))
	t.Cleanup(cs.srv.Close)

	doc.Servers = openapi3.Servers{{URL: cs.srv.URL}}
	require.NoError(t, doc.Validate(context.Background()))
	cs.router, err = legacyrouter.NewRouter(doc)
	require.NoError(t, err)
	return cs
}

func (cs *contractServer) handle(w http.ResponseWriter, r *http.Request) {
	// 服务端收到的 URL 不含 scheme/host，路由匹配前补齐
	u := *r.URL
	u.Scheme = "http"
	u.Host = r.Host
	req := r.Clone(r.Context())
	req.URL = &u

	route, pathParams, err := cs.router.FindRoute(req)
	if err != nil {
		cs.t.Errorf("no route for %s %s: %v", r.Method, r.URL.Path, err)
		w.WriteHeader(http.StatusNotFound)
		return
	}
	multipart := strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/")
	input := &openapi3filter.RequestValidationInput{
		Request:    req,
		PathParams: pathParams,
		Route:      route,
		Options: &openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			ExcludeRequestBody: multipart,
		},
	}
	if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
		cs.t.Errorf("%s violates contract: %v", route.Operation.OperationID, err)
	}
	if multipart && route.Operation.RequestBody != nil {
		if route.Operation.RequestBody.Value.GetMediaType("multipart/form-data") == nil {
			cs.t.Errorf("%s does not accept multipart", route.Operation.OperationID)
		}
	}

	cs.mu.Lock()
	cs.seen[route.Operation.OperationID] = true
	cs.mu.Unlock()

	switch route.Operation.OperationID {
	case "login":
		writeJSON(w, 200, map[string]any{"token": "jwt", "user": map[string]any{"_id": "u1", "role": "SUPER_ADMIN"}})
	case "listResearch", "listInquiry":
		writeJSON(w, 200, map[string]any{"data": []any{}, "total": 0})
	case "listCategories", "listUsers", "listPayments", "listNotices", "listMessages", "listRecipients", "listReasons":
		writeJSON(w, 200, []any{})
	case "checkDuplicate":
		writeJSON(w, 200, map[string]any{"duplicate": false})
	default:
		writeJSON(w, 200, map[string]any{"_id": "x1"})
	}
}

func (cs *contractServer) operations() []string {
	var ops []string
	for _, item := range cs.doc.Paths.Map() {
		for _, op := range item.Operations() {
			ops = append(ops, op.OperationID)
		}
	}
	sort.Strings(ops)
	return ops
}

func (cs *contractServer) covered() []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	var ops []string
	for op := range cs.seen {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

func TestContract_AllOperations(t *testing.T) {
	cs := newContractServer(t)
	kv := storage.NewMemoryKV()
	c := New(cs.srv.URL, kv)
	ctx := context.Background()

	resp, err := c.Auth.Login(ctx, "admin@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, storage.KeyToken, resp.Token))

	shot := attachment.FromBytes("s.png", []byte("png"))
	researchForm := func() *Form {
		return NewForm().Set("type", "WEBSITE").Set("country", "DE").
			Set("companyName", "Acme").Set("companyLink", "https://acme.example").
			AddFile(ctx, "screenshots", shot)
	}

	calls := []struct {
		name string
		fn   func() error
	}{
		{"me", func() error { _, err := c.Auth.Me(ctx); return err }},
		{"profile", func() error {
			_, err := c.Auth.UpdateProfile(ctx, NewForm().Set("name", "Ann").AddFile(ctx, "profileImage", shot))
			return err
		}},
		{"research list", func() error {
			q := NewParams().SetInt("page", 1).SetInt("limit", 25).Set("status", "PENDING").
				Set("type", "WEBSITE").Set("assignment", "unassigned").Set("list", "appealed").SetFlag("myAssignments", true)
			_, err := c.Research.List(ctx, q.Values())
			return err
		}},
		{"research create", func() error { _, err := c.Research.Create(ctx, researchForm()); return err }},
		{"research update", func() error {
			_, err := c.Research.Update(ctx, "r1", researchForm().Set("status", "APPROVED"))
			return err
		}},
		{"research get", func() error { _, err := c.Research.Get(ctx, "r1"); return err }},
		{"research resubmit", func() error { _, err := c.Research.Resubmit(ctx, "r1", researchForm()); return err }},
		{"research appeal", func() error { return c.Research.Appeal(ctx, "r1") }},
		{"research appeal decision", func() error {
			return c.Research.DecideAppeal(ctx, "r1", AppealDecision{Decision: model.StatusDisapproved, RejectionReason: "no"})
		}},
		{"research report", func() error { return c.Research.Report(ctx, "r1", "Reported by inquirer") }},
		{"research report review", func() error {
			return c.Research.ReviewReport(ctx, "r1", ReportReview{Action: ReportActionValid, Clarification: "ok"})
		}},
		{"duplicate", func() error {
			_, err := c.Research.CheckDuplicate(ctx, "companyLink", "https://acme.example")
			return err
		}},
		{"assign", func() error { return c.Research.Assign(ctx, []string{"r1", "r2"}, "u9") }},
		{"deassign", func() error { return c.Research.Deassign(ctx, []string{"r1"}) }},
		{"inquiry list", func() error {
			_, err := c.Inquiry.List(ctx, NewParams().SetInt("page", 2).Set("status", "APPROVED").Values())
			return err
		}},
		{"inquiry create", func() error {
			_, err := c.Inquiry.Create(ctx, NewForm().Set("research", "r1").AddFile(ctx, "screenshots", shot))
			return err
		}},
		{"inquiry get", func() error { _, err := c.Inquiry.Get(ctx, "i1"); return err }},
		{"inquiry resubmit", func() error { _, err := c.Inquiry.Resubmit(ctx, "i1", NewForm().Set("research", "r1")); return err }},
		{"inquiry appeal", func() error { return c.Inquiry.Appeal(ctx, "i1") }},
		{"inquiry appeal decision", func() error {
			return c.Inquiry.DecideAppeal(ctx, "i1", AppealDecision{Decision: model.StatusApproved})
		}},
		{"audit research", func() error {
			return c.Audit.Research(ctx, AuditRequest{IDs: []string{"r1"}, Action: model.StatusDisapproved, Reason: "Broken link"})
		}},
		{"audit inquiry", func() error {
			return c.Audit.Inquiry(ctx, AuditRequest{IDs: []string{"i1"}, Action: model.StatusApproved})
		}},
		{"categories", func() error { _, err := c.Categories.List(ctx); return err }},
		{"category create", func() error {
			_, err := c.Categories.Create(ctx, CategoryInput{Name: "Tech", CooldownDays: 30})
			return err
		}},
		{"users", func() error { _, err := c.Users.List(ctx, nil); return err }},
		{"user create", func() error {
			_, err := c.Users.Create(ctx, UserInput{Name: "Bob", Email: "bob@example.com", Password: "secret1", Role: model.RoleWebsiteInquirer, Category: "c1"})
			return err
		}},
		{"user update", func() error { _, err := c.Users.Update(ctx, "u2", NewForm().Set("name", "Bob")); return err }},
		{"user toggle", func() error { _, err := c.Users.Toggle(ctx, "u2"); return err }},
		{"payments", func() error {
			_, err := c.Payments.List(ctx, NewParams().Set("search", "acme").Values())
			return err
		}},
		{"payments generate", func() error { return c.Payments.Generate(ctx) }},
		{"payments pay", func() error {
			_, err := c.Payments.MarkPaid(ctx, "p1", PayRequest{PaidAmount: 12.5, PaymentChannel: "bank"})
			return err
		}},
		{"dashboard", func() error { _, err := c.Dashboard.Get(ctx, NewParams().Set("category", "c1").Values()); return err }},
		{"notices", func() error { _, err := c.Notices.List(ctx); return err }},
		{"notice create", func() error {
			_, err := c.Notices.Create(ctx, NoticeInput{Title: "T", Content: "C", Roles: []model.Role{model.RoleWebsiteInquirer}})
			return err
		}},
		{"notice update", func() error {
			_, err := c.Notices.Update(ctx, "n1", NoticeInput{Title: "T", Content: "C2"})
			return err
		}},
		{"messages", func() error { _, err := c.Notices.Messages(ctx); return err }},
		{"send", func() error { _, err := c.Notices.Send(ctx, MessageInput{To: "u2", Content: "hi"}); return err }},
		{"read", func() error { return c.Notices.MarkRead(ctx, "m1") }},
		{"recipients", func() error { _, err := c.Notices.Recipients(ctx); return err }},
		{"reasons", func() error { _, err := c.Settings.Reasons(ctx); return err }},
		{"reason add", func() error { _, err := c.Settings.AddReason(ctx, " Broken link "); return err }},
		{"reason update", func() error { _, err := c.Settings.UpdateReason(ctx, "d1", "Dead link"); return err }},
		{"reason delete", func() error { return c.Settings.DeleteReason(ctx, "d1") }},
	}

	for _, call := range calls {
		t.Run(call.name, func(t *testing.T) {
			assert.NoError(t, call.fn())
		})
	}

	assert.Equal(t, cs.operations(), cs.covered())
}
