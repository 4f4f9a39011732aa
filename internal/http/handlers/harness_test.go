package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/vxplore/Clinik-pe-sub000/internal/apiclient"
	"github.com/vxplore/Clinik-pe-sub000/internal/clinikpe"
	"github.com/vxplore/Clinik-pe-sub000/internal/listview"
	"github.com/vxplore/Clinik-pe-sub000/internal/notify"
	"github.com/vxplore/Clinik-pe-sub000/internal/observability/metrics"
	"github.com/vxplore/Clinik-pe-sub000/internal/session"
	"github.com/vxplore/Clinik-pe-sub000/pkg/logging"
)

// harness wires the handlers to a fake ClinikPe backend and miniredis.
type harness struct {
	t        *testing.T
	upstream chi.Router
	mr       *miniredis.Miniredis
	redis    *redis.Client
	reg      *prometheus.Registry
	env      *Env
	sessions *session.Store
	tokens   *session.Tokens
	boards   *session.BoardCache
	sidebar  *session.SidebarStore

	mu    sync.Mutex
	calls []string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})

	h := &harness{t: t, upstream: chi.NewRouter(), mr: mr, redis: rdb, reg: prometheus.NewRegistry()}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		h.calls = append(h.calls, r.Method+" "+r.URL.Path)
		h.mu.Unlock()
		h.upstream.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	logger := logging.New("error")
	m := metrics.NewDashboardMetrics(h.reg)
	h.env = &Env{
		API:      clinikpe.New(apiclient.NewAgent(srv.URL, 5*time.Second, logger), logger),
		Tracker:  listview.NewTracker(m),
		Feed:     notify.NewFeed(rdb, time.Hour, m, logger),
		Metrics:  m,
		Logger:   logger,
		PageSize: 10,
	}
	h.sessions = session.NewStore(rdb, time.Hour)
	h.tokens = session.NewTokens("test-secret", time.Hour)
	h.boards = session.NewBoardCache(rdb, time.Hour)
	h.sidebar = session.NewSidebarStore(rdb, time.Hour)
	return h
}

func (h *harness) called(call string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, c := range h.calls {
		if c == call {
			n++
		}
	}
	return n
}

// adminSession stores a logged-in admin scoped to org-1/center-1.
func (h *harness) adminSession() session.Session {
	h.t.Helper()
	sess, err := h.sessions.Create(context.Background(), session.Session{
		Kind:          session.KindAdmin,
		UserID:        "u-1",
		UserName:      "Asha",
		OrgID:         "org-1",
		CenterID:      "center-1",
		UpstreamToken: "upstream-token",
	})
	require.NoError(h.t, err)
	return sess
}

// serve routes one request through a router holding only pattern.
func (h *harness) serve(method, pattern string, handler http.HandlerFunc, target string, body any, sess *session.Session) *httptest.ResponseRecorder {
	h.t.Helper()
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, handler)

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	default:
		data, err := json.Marshal(b)
		require.NoError(h.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if sess != nil {
		req = req.WithContext(session.WithSession(req.Context(), *sess))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func envelope(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":    status < 300,
		"httpStatus": status,
		"message":    message,
		"data":       data,
	})
}

func listEnvelope(w http.ResponseWriter, key string, items any, total int) {
	envelope(w, http.StatusOK, "", map[string]any{
		key:          items,
		"pagination": map[string]any{"pageNumber": 1, "pageSize": 10, "totalRecords": total},
	})
}

// response is the decoded Result of a handler.
type response struct {
	Notification *notify.Notification `json:"notification"`
	Page         json.RawMessage      `json:"page"`
	Items        json.RawMessage      `json:"items"`
	Data         json.RawMessage      `json:"data"`
	Errors       map[string]string    `json:"errors"`
	Redirect     string               `json:"redirect"`
	Stale        bool                 `json:"stale"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()
	var res response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func decodePage[T any](t *testing.T, raw json.RawMessage) listview.Page[T] {
	t.Helper()
	var page listview.Page[T]
	require.NoError(t, json.Unmarshal(raw, &page))
	return page
}
