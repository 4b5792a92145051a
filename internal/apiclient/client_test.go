package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-admin/internal/attachment"
	"research-admin/internal/metrics"
	"research-admin/internal/shared/storage"
)

type recordingInvalidator struct {
	calls atomic.Int32
}

func (r *recordingInvalidator) Invalidate(context.Context) {
	r.calls.Add(1)
}

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) (*Client, storage.KV) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	kv := storage.NewMemoryKV()
	return New(srv.URL, kv, opts...), kv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestClient_BearerHeader(t *testing.T) {
	var got []string
	c, kv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("Authorization"))
		writeJSON(w, 200, map[string]any{"_id": "u1", "role": "SUPER_ADMIN"})
	})
	ctx := context.Background()

	_, err := c.Auth.Me(ctx)
	require.NoError(t, err)

	require.NoError(t, kv.Set(ctx, storage.KeyToken, "tok-1"))
	u, err := c.Auth.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	assert.Equal(t, []string{"", "Bearer tok-1"}, got)
}

func TestClient_ContentTypes(t *testing.T) {
	var (
		jsonCT      string
		multipartCT string
		fields      map[string][]string
		files       []string
	)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/categories":
			jsonCT = r.Header.Get("Content-Type")
			writeJSON(w, 201, map[string]any{"_id": "c1", "name": "Tech", "cooldownDays": 15})
		case "/api/research":
			multipartCT = r.Header.Get("Content-Type")
			require.NoError(t, r.ParseMultipartForm(1<<20))
			fields = r.MultipartForm.Value
			for _, fh := range r.MultipartForm.File["screenshots"] {
				files = append(files, fh.Filename)
			}
			writeJSON(w, 201, map[string]any{"_id": "r1", "type": "WEBSITE", "companyName": "Acme"})
		}
	})
	ctx := context.Background()

	cat, err := c.Categories.Create(ctx, CategoryInput{Name: "Tech", CooldownDays: 15})
	require.NoError(t, err)
	assert.Equal(t, "c1", cat.ID)
	assert.Equal(t, "application/json", jsonCT)

	form := NewForm().
		Set("type", "WEBSITE").
		Set("country", "DE").
		SetNonEmpty("companyName", " Acme ").
		SetNonEmpty("personName", "  ").
		AddFiles(ctx, "screenshots", []attachment.Attachment{
			attachment.FromBytes("a.png", []byte("1")),
			attachment.FromBytes("b.png", []byte("2")),
		})
	r, err := c.Research.Create(ctx, form)
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID)

	assert.True(t, strings.HasPrefix(multipartCT, "multipart/form-data; boundary="))
	assert.Equal(t, []string{"Acme"}, fields["companyName"])
	assert.NotContains(t, fields, "personName")
	assert.Equal(t, []string{"a.png", "b.png"}, files)
}

func TestClient_UnauthorizedInvalidatesOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New("t", reg)
	var redirects []string
	var mu sync.Mutex
	nav := NavigatorFunc(func(p string) {
		mu.Lock()
		defer mu.Unlock()
		redirects = append(redirects, p)
	})

	c, kv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, map[string]string{"message": "jwt expired"})
	}, WithNavigator(nav), WithMetrics(m))
	inv := &recordingInvalidator{}
	c.AddInvalidator(inv)

	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, storage.KeyToken, "t"))
	require.NoError(t, kv.Set(ctx, storage.KeyUser, `{"id":"u1"}`))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Auth.Me(ctx)
			assert.ErrorIs(t, err, ErrUnauthorized)
		}()
	}
	wg.Wait()

	_, err := kv.Get(ctx, storage.KeyToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = kv.Get(ctx, storage.KeyUser)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.Equal(t, []string{"/"}, redirects)
	assert.Equal(t, int32(1), inv.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionInvalidations))

	// 重新登录后新的 401 再次触发
	c.ResetInvalidation()
	_, err = c.Dashboard.Get(ctx, nil)
	require.Error(t, err)
	assert.Equal(t, []string{"/", "/"}, redirects)
}

func TestClient_UnauthorizedAlwaysClearsStore(t *testing.T) {
	redirects := 0
	c, kv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, map[string]string{"message": "jwt expired"})
	}, WithNavigator(NavigatorFunc(func(string) { redirects++ })))
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, storage.KeyToken, "t1"))
	_, err := c.Auth.Me(ctx)
	require.ErrorIs(t, err, ErrUnauthorized)

	// 未重新登录，外部写入的 token 也要被清掉
	require.NoError(t, kv.Set(ctx, storage.KeyToken, "t2"))
	require.NoError(t, kv.Set(ctx, storage.KeyUser, `{"id":"u1"}`))
	_, err = c.Auth.Me(ctx)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = kv.Get(ctx, storage.KeyToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = kv.Get(ctx, storage.KeyUser)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 1, redirects)
}

func TestClient_LoginUnauthorizedKeepsSession(t *testing.T) {
	redirected := false
	c, kv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, 401, map[string]string{"message": "Invalid credentials"})
	}, WithNavigator(NavigatorFunc(func(string) { redirected = true })))
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, storage.KeyUser, `{"id":"u1"}`))

	_, err := c.Auth.Login(ctx, "a@b.co", "bad")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", Message(err, "Login failed"))
	assert.Equal(t, 401, StatusOf(err))
	assert.False(t, redirected)

	v, err := kv.Get(ctx, storage.KeyUser)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"u1"}`, v)
}

func TestClient_ErrorPassthrough(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/categories":
			writeJSON(w, 400, map[string]string{"message": "Category already exists"})
		default:
			w.WriteHeader(500)
			io.WriteString(w, "boom")
		}
	})
	ctx := context.Background()

	_, err := c.Categories.Create(ctx, CategoryInput{Name: "x", CooldownDays: 1})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "/api/categories", apiErr.Path)
	assert.Equal(t, "Category already exists", Message(err, "Failed"))
	assert.False(t, errors.Is(err, ErrUnauthorized))

	err = c.Payments.Generate(ctx)
	assert.Equal(t, "Generate failed", Message(err, "Generate failed"))
	assert.Equal(t, 500, StatusOf(err))
}

func TestClient_TransportAndCancel(t *testing.T) {
	c := New("http://127.0.0.1:1", storage.NewMemoryKV())
	_, err := c.Auth.Me(context.Background())
	require.Error(t, err)
	assert.False(t, IsCanceled(err))
	assert.Equal(t, "Failed to load", Message(err, "Failed to load"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Research.List(ctx, nil)
	assert.ErrorIs(t, err, ErrCanceled)
	assert.True(t, IsCanceled(err))
}

func TestClient_PathParamsEscaped(t *testing.T) {
	var paths []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.EscapedPath())
		writeJSON(w, 200, map[string]any{})
	})
	ctx := context.Background()

	require.NoError(t, c.Research.Appeal(ctx, "65f0c2a1e4b0a1b2c3d4e5f6"))
	require.NoError(t, c.Research.Appeal(ctx, "a/b"))
	require.NoError(t, c.Notices.MarkRead(ctx, "m1"))
	assert.Error(t, c.Research.Appeal(ctx, " "))

	assert.Equal(t, []string{
		"POST /api/research/65f0c2a1e4b0a1b2c3d4e5f6/appeal",
		"POST /api/research/a%2Fb/appeal",
		"PATCH /api/notices/messages/m1/read",
	}, paths)
}

func TestClient_CountryBreakdownFallback(t *testing.T) {
	var query string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/dashboard":
			writeJSON(w, 200, map[string]any{"research": []any{map[string]any{"_id": "APPROVED", "count": 3}}})
		case "/api/research":
			query = r.URL.RawQuery
			writeJSON(w, 200, map[string]any{"data": []any{
				map[string]any{"_id": "1", "country": "DE"},
				map[string]any{"_id": "2", "country": "DE"},
				map[string]any{"_id": "3", "country": ""},
			}, "total": 3})
		}
	})
	ctx := context.Background()

	stats, err := c.Dashboard.Get(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.ResearchByStatus()["APPROVED"])

	rows, err := c.Dashboard.CountryBreakdown(ctx, stats)
	require.NoError(t, err)
	assert.Equal(t, "limit=1000&status=APPROVED", query)
	require.Len(t, rows, 2)
	assert.Equal(t, "DE", rows[0].Country)
	assert.Equal(t, 2, rows[0].Count)
}

func TestUserService_Inquirers(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, []any{
			map[string]any{"_id": "1", "role": "WEBSITE_INQUIRER"},
			map[string]any{"_id": "2", "role": "LINKEDIN_INQUIRER"},
			map[string]any{"_id": "3", "role": "WEBSITE_INQUIRER", "isActive": false},
			map[string]any{"_id": "4", "role": "WEBSITE_RESEARCHER"},
		})
	})
	ctx := context.Background()

	all, err := c.Users.Inquirers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	web, err := c.Users.Inquirers(ctx, "WEBSITE")
	require.NoError(t, err)
	require.Len(t, web, 1)
	assert.Equal(t, "1", web[0].ID)
}
