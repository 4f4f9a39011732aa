package apiclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vxplore/Clinik-pe-sub000/internal/observability/metrics"
	"github.com/vxplore/Clinik-pe-sub000/internal/tenancy"
	"github.com/vxplore/Clinik-pe-sub000/pkg/logging"
)

const defaultTimeout = 15 * time.Second

var agentTracer = otel.Tracer("clinikpe.internal.apiclient")

// Response is the normalized result of every call. A network failure yields
// Status 0, no data and Err set; Do never returns nil.
type Response struct {
	Data       []byte
	Status     int
	StatusText string
	Headers    http.Header
	Err        error
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status <= 299
}

// Agent sends Requests to the ClinikPe API.
type Agent struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
	metrics    *metrics.UpstreamMetrics
}

// Option customizes an Agent.
type Option func(*Agent)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Agent) {
		if c != nil {
			a.httpClient = c
		}
	}
}

// WithMetrics records per-route request counts and latency.
func WithMetrics(m *metrics.UpstreamMetrics) Option {
	return func(a *Agent) { a.metrics = m }
}

// NewAgent constructs an agent for baseURL.
func NewAgent(baseURL string, timeout time.Duration, logger *logging.Logger, opts ...Option) *Agent {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = logging.Default()
	}
	a := &Agent{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Do executes req. The session's upstream bearer token is attached when the
// context carries one and the request did not set Authorization itself.
func (a *Agent) Do(ctx context.Context, req *Request) *Response {
	ctx, span := agentTracer.Start(ctx, "clinikpe.api "+req.method+" "+req.route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.method),
			attribute.String("http.route", req.route),
		),
	)
	defer span.End()
	if orgID, ok := tenancy.OrgIDFromContext(ctx); ok {
		span.SetAttributes(attribute.String("clinikpe.org_id", orgID))
	}

	start := time.Now()
	resp := a.do(ctx, req)
	a.metrics.ObserveRequest(req.method, req.route, resp.Status, time.Since(start).Seconds())

	span.SetAttributes(attribute.Int("http.response.status_code", resp.Status))
	if resp.Err != nil {
		span.RecordError(resp.Err)
		span.SetStatus(codes.Error, "network failure")
	} else if !resp.OK() {
		span.SetStatus(codes.Error, resp.StatusText)
	}
	return resp
}

func (a *Agent) do(ctx context.Context, req *Request) *Response {
	if req.err != nil {
		return failed(req.err)
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.URL(a.baseURL), body)
	if err != nil {
		return failed(err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	for key, values := range req.headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if httpReq.Header.Get("Authorization") == "" {
		if token, ok := tenancy.UpstreamTokenFromContext(ctx); ok {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		a.logger.Warn("clinikpe API request failed", "method", req.method, "route", req.route, "error", err)
		return failed(err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		a.logger.Warn("clinikpe API response read failed", "method", req.method, "route", req.route, "error", err)
		return failed(err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		msg := string(data)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		a.logger.Warn("clinikpe API non-2xx response", "status", httpResp.StatusCode, "route", req.route, "body", msg)
	}

	return &Response{
		Data:       data,
		Status:     httpResp.StatusCode,
		StatusText: http.StatusText(httpResp.StatusCode),
		Headers:    httpResp.Header,
	}
}

func failed(err error) *Response {
	return &Response{Headers: http.Header{}, Err: err}
}
