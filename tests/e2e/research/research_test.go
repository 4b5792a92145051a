package research

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-admin/internal/console"
	"research-admin/internal/shared/model"
	"research-admin/tests/testutil"
)

var c *testutil.E2EClient

func TestMain(m *testing.M) {
	var err error
	c, err = testutil.SetupE2EClient()
	if err != nil {
		fmt.Fprintf(os.Stderr, "e2e: skipping: %v\n", err)
		os.Exit(0)
	}
	os.Exit(m.Run())
}

// TestResearch_ListPagination 分页参数与总数
func TestResearch_ListPagination(t *testing.T) {
	u := c.Session.CurrentUser()
	if !c.Session.Can(model.CapViewResearch) {
		t.Skipf("role %s cannot view research", u.Role)
	}
	list := console.NewListController(c.API.Research.List, console.ResearchListParams(u), console.WithPageSize(10))
	require.NoError(t, list.Load(context.Background()))
	assert.LessOrEqual(t, len(list.Rows()), 10)
	assert.GreaterOrEqual(t, list.Total(), len(list.Rows()))
	assert.Empty(t, list.Err())
}

// TestResearch_CheckDuplicateUnique 随机链接不应命中
func TestResearch_CheckDuplicateUnique(t *testing.T) {
	if !c.Session.Can(model.CapCreateResearch) {
		t.Skip("role cannot create research")
	}
	link := fmt.Sprintf("https://e2e-%d.example.com", time.Now().UnixNano())
	res, err := c.API.Research.CheckDuplicate(context.Background(), console.FieldCompanyLink, link)
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
}
