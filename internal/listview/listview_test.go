package listview

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vxplore/Clinik-pe-sub000/internal/apiclient"
	"github.com/vxplore/Clinik-pe-sub000/internal/clinikpe"
	"github.com/vxplore/Clinik-pe-sub000/internal/observability/metrics"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Query
	}{
		{"defaults", "", Query{PageNumber: 1, PageSize: 10}},
		{"explicit", "pageNumber=3&pageSize=25&status=Active&search=+cbc+", Query{PageNumber: 3, PageSize: 25, Status: "active", Search: "cbc"}},
		{"aliases", "page=2&limit=50&type=clinic&category=hematology", Query{PageNumber: 2, PageSize: 50, Type: "clinic", Category: "hematology"}},
		{"clamped", "pageNumber=-4&pageSize=1000", Query{PageNumber: 1, PageSize: 10}},
		{"garbage", "pageNumber=abc&pageSize=xyz", Query{PageNumber: 1, PageSize: 10}},
		{"status all means no filter", "status=all", Query{PageNumber: 1, PageSize: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := url.ParseQuery(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ParseQuery(v, 10))
		})
	}
}

func TestParseQuery_InvalidDefaultSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, ParseQuery(url.Values{}, 0).PageSize)
	assert.Equal(t, 20, ParseQuery(url.Values{}, 20).PageSize)
}

func TestQuery_ListQueryAndValues(t *testing.T) {
	q := Query{PageNumber: 2, PageSize: 10, Status: "inactive", Search: "x"}
	assert.Equal(t, clinikpe.ListQuery{PageNumber: 2, PageSize: 10, Status: "inactive", Search: "x"}, q.ListQuery())
	assert.Equal(t, "pageNumber=2&pageSize=10&search=x&status=inactive", q.Values().Encode())
}

func TestNewBanner(t *testing.T) {
	tests := []struct {
		n, s, z  int
		from, to int
		text     string
	}{
		{1, 10, 35, 1, 10, "Showing 1 to 10 of 35"},
		{4, 10, 35, 31, 35, "Showing 31 to 35 of 35"},
		{2, 25, 30, 26, 30, "Showing 26 to 30 of 30"},
		{1, 10, 0, 0, 0, "Showing 0 to 0 of 0"},
		{3, 10, 0, 0, 0, "Showing 0 to 0 of 0"},
		{1, 10, 10, 1, 10, "Showing 1 to 10 of 10"},
	}
	for _, tt := range tests {
		b := NewBanner(tt.n, tt.s, tt.z)
		assert.Equal(t, tt.from, b.From, "from n=%d s=%d z=%d", tt.n, tt.s, tt.z)
		assert.Equal(t, tt.to, b.To, "to n=%d s=%d z=%d", tt.n, tt.s, tt.z)
		assert.Equal(t, tt.text, b.Text)
	}
}

func TestNewBanner_Formula(t *testing.T) {
	for n := 1; n <= 6; n++ {
		for s := 1; s <= 12; s++ {
			for z := 0; z <= 40; z += 7 {
				b := NewBanner(n, s, z)
				wantFrom := (n-1)*s + 1
				if z == 0 {
					wantFrom = 0
				}
				wantTo := n * s
				if z < wantTo {
					wantTo = z
				}
				if b.From != wantFrom || b.To != wantTo || b.Total != z {
					t.Fatalf("NewBanner(%d,%d,%d) = %+v", n, s, z, b)
				}
			}
		}
	}
}

func TestNewPage(t *testing.T) {
	src := &clinikpe.Page[string]{Items: []string{"a", "b"}, Pagination: apiclient.Pagination{TotalRecords: 12}}
	p := NewPage(src, Query{PageNumber: 2, PageSize: 10})
	assert.Equal(t, []string{"a", "b"}, p.Items)
	assert.Equal(t, apiclient.Pagination{PageNumber: 2, PageSize: 10, TotalRecords: 12, PageCount: 2}, p.Pagination)
	assert.Equal(t, "Showing 11 to 12 of 12", p.Banner.Text)

	empty := NewPage[string](nil, Query{PageNumber: 1, PageSize: 10})
	assert.NotNil(t, empty.Items)
	assert.Equal(t, "Showing 0 to 0 of 0", empty.Banner.Text)
}

func TestTracker_DiscardsSupersededLoad(t *testing.T) {
	reg := prometheus.NewRegistry()
	tr := NewTracker(metrics.NewDashboardMetrics(reg))

	firstCtx, first := tr.Begin(context.Background(), "sess-1", "centers")
	_, second := tr.Begin(context.Background(), "sess-1", "centers")

	select {
	case <-firstCtx.Done():
	case <-time.After(time.Second):
		t.Fatal("superseded load must be cancelled")
	}
	assert.False(t, first.Current())
	assert.True(t, second.Current())

	assert.ErrorIs(t, first.Finish(), ErrStale)
	assert.NoError(t, second.Finish())
	expected := `
# HELP clinikpe_dashboard_stale_responses_discarded_total List responses dropped because a newer load was issued for the same page
# TYPE clinikpe_dashboard_stale_responses_discarded_total counter
clinikpe_dashboard_stale_responses_discarded_total{page="centers"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "clinikpe_dashboard_stale_responses_discarded_total"))
}

func TestTracker_PagesAndSessionsAreIndependent(t *testing.T) {
	tr := NewTracker(nil)
	_, a := tr.Begin(context.Background(), "sess-1", "centers")
	_, b := tr.Begin(context.Background(), "sess-1", "providers")
	_, c := tr.Begin(context.Background(), "sess-2", "centers")
	assert.NoError(t, a.Finish())
	assert.NoError(t, b.Finish())
	assert.NoError(t, c.Finish())
}

func TestTracker_FinishedLoadsLeaveNoState(t *testing.T) {
	tr := NewTracker(nil)
	for i := 0; i < 100; i++ {
		_, tk := tr.Begin(context.Background(), fmt.Sprintf("sess-%d", i), "centers")
		require.NoError(t, tk.Finish())
	}

	_, old := tr.Begin(context.Background(), "sess-x", "centers")
	_, latest := tr.Begin(context.Background(), "sess-x", "centers")
	require.NoError(t, latest.Finish())
	assert.ErrorIs(t, old.Finish(), ErrStale, "a load superseded by a finished one is still stale")

	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Empty(t, tr.latest)
	assert.Empty(t, tr.cancels)
}

func TestTracker_Forget(t *testing.T) {
	tr := NewTracker(nil)
	ctx, tk := tr.Begin(context.Background(), "sess-1", "centers")
	tr.Forget("sess-1")
	assert.Error(t, ctx.Err())
	assert.ErrorIs(t, tk.Finish(), ErrStale)

	_, fresh := tr.Begin(context.Background(), "sess-1", "centers")
	assert.NoError(t, fresh.Finish())
}

func TestLoad_LastIssuedWins(t *testing.T) {
	tr := NewTracker(nil)
	release := make(chan struct{})
	slowDone := make(chan error, 1)

	go func() {
		_, err := Load(context.Background(), tr, "sess-1", "tests", func(ctx context.Context) (string, error) {
			<-release
			return "slow", nil
		})
		slowDone <- err
	}()

	// Wait until the slow load has registered.
	require.Eventually(t, func() bool {
		tr.mu.Lock()
		defer tr.mu.Unlock()
		return len(tr.cancels) == 1
	}, time.Second, 5*time.Millisecond)

	got, err := Load(context.Background(), tr, "sess-1", "tests", func(ctx context.Context) (string, error) {
		return "fast", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fast", got)

	close(release)
	assert.ErrorIs(t, <-slowDone, ErrStale)
}

func TestLoad_PassesFetchError(t *testing.T) {
	tr := NewTracker(nil)
	boom := errors.New("boom")
	_, err := Load(context.Background(), tr, "s", "p", func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}
