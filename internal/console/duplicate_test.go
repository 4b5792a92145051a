package console

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-admin/internal/apiclient"
	"research-admin/internal/metrics"
	"research-admin/internal/shared/model"
)

type lookupLog struct {
	mu    sync.Mutex
	links []string
	res   *apiclient.DuplicateResult
	err   error
}

func (l *lookupLog) lookup(_ context.Context, field, link string) (*apiclient.DuplicateResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.links = append(l.links, field+"="+link)
	return l.res, l.err
}

func (l *lookupLog) calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.links...)
}

func TestDuplicateChecker_Debounce(t *testing.T) {
	log := &lookupLog{res: &apiclient.DuplicateResult{}}
	c := NewDuplicateChecker(log.lookup, WithDebounce(50*time.Millisecond))
	defer c.Stop()
	ctx := context.Background()

	for _, link := range []string{"https://acme", "https://acme.", "https://acme.c", "https://acme.co", "https://acme.com"} {
		c.Update(ctx, FieldCompanyLink, link)
	}
	assert.True(t, c.Pending())

	require.Eventually(t, func() bool { return !c.Pending() }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"companyLink=https://acme.com"}, log.calls())
}

func TestDuplicateChecker_ShortLinkClears(t *testing.T) {
	log := &lookupLog{res: &apiclient.DuplicateResult{Duplicate: true, Existing: &model.Research{ReferenceNo: "R-7"}}}
	c := NewDuplicateChecker(log.lookup)
	ctx := context.Background()

	res := c.Check(ctx, FieldCompanyLink, "https://acme.com")
	assert.True(t, res.Duplicate)
	assert.True(t, c.Blocked())

	c.Update(ctx, FieldCompanyLink, " short ")
	assert.False(t, c.Blocked())
	assert.False(t, c.Pending())
	assert.Len(t, log.calls(), 1)
}

func TestDuplicateChecker_FailureIsNotDuplicate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New("test", reg)
	log := &lookupLog{err: errors.New("network down")}
	c := NewDuplicateChecker(log.lookup, WithDuplicateMetrics(m))

	res := c.Check(context.Background(), FieldLinkedinLink, "https://linkedin.com/in/jo")
	assert.False(t, res.Duplicate)
	assert.False(t, c.Blocked())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DuplicateChecks.WithLabelValues("failed")))
}

func TestDuplicateChecker_SupersededCheckIsIgnored(t *testing.T) {
	started := make(chan struct{})
	lookup := func(ctx context.Context, _, _ string) (*apiclient.DuplicateResult, error) {
		close(started)
		<-ctx.Done()
		return &apiclient.DuplicateResult{Duplicate: true}, nil
	}
	var results int
	c := NewDuplicateChecker(lookup, OnDuplicateResult(func(apiclient.DuplicateResult) { results++ }))
	ctx := context.Background()

	done := make(chan apiclient.DuplicateResult, 1)
	go func() { done <- c.Check(ctx, FieldCompanyLink, "https://acme.com/a") }()
	<-started

	c.Update(ctx, FieldCompanyLink, "x")
	res := <-done
	assert.False(t, res.Duplicate)
	assert.False(t, c.Blocked())
	assert.Zero(t, results)
}

func TestDuplicateMessage(t *testing.T) {
	assert.Empty(t, DuplicateMessage(model.ResearchTypeWebsite, apiclient.DuplicateResult{}))
	assert.Equal(t, "Duplicate detected. This website already exists (Ref: R-1).",
		DuplicateMessage(model.ResearchTypeWebsite, apiclient.DuplicateResult{Duplicate: true, Existing: &model.Research{ReferenceNo: "R-1"}}))
	assert.Equal(t, "Duplicate detected. This LinkedIn profile already exists (Ref: —).",
		DuplicateMessage(model.ResearchTypeLinkedIn, apiclient.DuplicateResult{Duplicate: true}))
	assert.Equal(t, FieldLinkedinLink, DuplicateField(model.ResearchTypeLinkedIn))
	assert.Equal(t, FieldCompanyLink, DuplicateField(model.ResearchTypeWebsite))
}
