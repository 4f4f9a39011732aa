package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vxplore/Clinik-pe-sub000/internal/observability/metrics"
	"github.com/vxplore/Clinik-pe-sub000/internal/tenancy"
	"github.com/vxplore/Clinik-pe-sub000/pkg/logging"
)

func newTestAgent(t *testing.T, handler http.HandlerFunc) *Agent {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewAgent(ts.URL+"/", time.Second, logging.New("error"),
		WithMetrics(metrics.NewUpstreamMetrics(prometheus.NewRegistry())))
}

func TestAgent_Do_JSONBodyQueryAndHeaders(t *testing.T) {
	agent := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/organization/org-1/center", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("pageNumber"))
		assert.False(t, r.URL.Query().Has("status"), "blank query values must be skipped")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer upstream-token", r.Header.Get("Authorization"))
		assert.Equal(t, "web", r.Header.Get("X-Client"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Main Branch", body["name"])

		w.Header().Set("X-Trace", "abc")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"httpStatus":201,"message":"created","data":{"uid":"c-1"}}`))
	})

	ctx := tenancy.WithUpstreamToken(context.Background(), "upstream-token")
	req := New("/organization/{org}/center", "org-1").
		Method(http.MethodPost).
		JSON(map[string]string{"name": "Main Branch"}).
		Query("pageNumber", "2").
		Query("status", "").
		Header("X-Client", "web")

	resp := agent.Do(ctx, req)
	require.NoError(t, resp.Err)
	assert.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, "Created", resp.StatusText)
	assert.Equal(t, "abc", resp.Headers.Get("X-Trace"))
	assert.True(t, resp.OK())
	assert.Contains(t, string(resp.Data), `"uid":"c-1"`)
}

func TestAgent_Do_ExplicitAuthorizationWins(t *testing.T) {
	agent := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer explicit", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	ctx := tenancy.WithUpstreamToken(context.Background(), "from-session")
	resp := agent.Do(ctx, New("/organization").Header("Authorization", "Bearer explicit"))
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestAgent_Do_NetworkFailureMapsToZeroStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	agent := NewAgent(url, time.Second, logging.New("error"))
	resp := agent.Do(context.Background(), New("/organization"))
	require.NotNil(t, resp)
	assert.Equal(t, 0, resp.Status)
	assert.Empty(t, resp.Data)
	assert.Error(t, resp.Err)
	assert.NotNil(t, resp.Headers)
}

func TestAgent_Do_CancelledContext(t *testing.T) {
	agent := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp := agent.Do(ctx, New("/organization"))
	assert.Equal(t, 0, resp.Status)
	assert.ErrorIs(t, resp.Err, context.Canceled)
}

func TestAgent_Do_BuildErrorNeverHitsNetwork(t *testing.T) {
	called := false
	agent := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	resp := agent.Do(context.Background(), New("/organization/{org}"))
	assert.False(t, called)
	assert.Equal(t, 0, resp.Status)
	assert.Error(t, resp.Err)
}

func TestAgent_Do_Multipart(t *testing.T) {
	agent := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Dr. Rao", r.FormValue("name"))
		f, hdr, err := r.FormFile("photo")
		require.NoError(t, err)
		defer f.Close()
		content, _ := io.ReadAll(f)
		assert.Equal(t, "avatar.png", hdr.Filename)
		assert.Equal(t, "PNGDATA", string(content))
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	req := New("/provider/{id}/photo", "p-1").
		Method(http.MethodPost).
		Multipart(map[string]string{"name": "Dr. Rao"}, []File{{Field: "photo", Name: "avatar.png", ContentType: "image/png", Content: []byte("PNGDATA")}})
	resp := agent.Do(context.Background(), req)
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestAgent_Do_NonSuccessKeepsBody(t *testing.T) {
	agent := newTestAgent(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"success":false,"httpStatus":422,"message":"Phone already registered"}`))
	})
	resp := agent.Do(context.Background(), New("/organization").Method(http.MethodPost))
	assert.NoError(t, resp.Err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	assert.False(t, resp.OK())

	_, err := Decode[struct{}](resp)
	assert.Equal(t, http.StatusUnprocessableEntity, StatusOf(err))
	assert.Equal(t, "Phone already registered", MessageOf(err))
}
