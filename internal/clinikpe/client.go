// Package clinikpe is the typed facade over the ClinikPe REST API: one method
// per backend endpoint, each a thin call through the apiclient Agent.
package clinikpe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/vxplore/Clinik-pe-sub000/internal/apiclient"
	"github.com/vxplore/Clinik-pe-sub000/pkg/logging"
)

// APIError is a well-formed rejection from the backend.
type APIError = apiclient.APIError

var (
	ErrUnreachable   = apiclient.ErrUnreachable
	ErrShapeMismatch = apiclient.ErrShapeMismatch

	// ErrMissingScope is returned when a tenant-scoped call lacks an org or center id.
	ErrMissingScope = errors.New("clinikpe: organization or center not selected")
)

// Doer sends a request and returns the normalized response.
type Doer interface {
	Do(ctx context.Context, req *apiclient.Request) *apiclient.Response
}

// Client exposes the ClinikPe endpoints.
type Client struct {
	api    Doer
	logger *logging.Logger
}

// New wraps an agent.
func New(api Doer, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{api: api, logger: logger}
}

// ListQuery carries the paging and filter inputs of every list endpoint.
type ListQuery struct {
	PageNumber int
	PageSize   int
	Status     string
	Type       string
	Search     string
	Category   string
}

func (q ListQuery) apply(req *apiclient.Request) *apiclient.Request {
	if q.PageNumber > 0 {
		req.Query("pageNumber", strconv.Itoa(q.PageNumber))
	}
	if q.PageSize > 0 {
		req.Query("pageSize", strconv.Itoa(q.PageSize))
	}
	return req.
		Query("status", q.Status).
		Query("type", q.Type).
		Query("search", q.Search).
		Query("category", q.Category)
}

func (s Scope) requireOrg() error {
	if s.OrgID == "" {
		return ErrMissingScope
	}
	return nil
}

func (s Scope) requireCenter() error {
	if s.OrgID == "" || s.CenterID == "" {
		return ErrMissingScope
	}
	return nil
}

// call sends req and decodes the envelope data into T.
func call[T any](ctx context.Context, c *Client, req *apiclient.Request) (*apiclient.Envelope[T], error) {
	resp := c.api.Do(ctx, req)
	env, err := apiclient.Decode[T](resp)
	if err != nil {
		if errors.Is(err, apiclient.ErrShapeMismatch) {
			c.logger.Warn("clinikpe API response shape mismatch", "route", req.Route(), "status", resp.Status, "error", err)
		}
		return nil, fmt.Errorf("clinikpe: %s: %w", req.Route(), err)
	}
	return env, nil
}

func fetch[T any](ctx context.Context, c *Client, req *apiclient.Request) (*T, error) {
	env, err := call[T](ctx, c, req)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func list[T any](ctx context.Context, c *Client, req *apiclient.Request, q ListQuery) (*Page[T], error) {
	env, err := call[apiclient.ListData[T]](ctx, c, q.apply(req))
	if err != nil {
		return nil, err
	}
	page := &Page[T]{Items: env.Data.Items, Pagination: env.Data.Pagination}
	if page.Items == nil {
		page.Items = []T{}
	}
	if page.Pagination.PageNumber == 0 {
		page.Pagination.PageNumber = q.PageNumber
	}
	if page.Pagination.PageSize == 0 {
		page.Pagination.PageSize = q.PageSize
	}
	page.Pagination.Normalize()
	return page, nil
}

// exec sends a mutation whose response data is ignored and returns the server message.
func exec(ctx context.Context, c *Client, req *apiclient.Request) (string, error) {
	env, err := call[struct{}](ctx, c, req)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func get(route string, params ...string) *apiclient.Request {
	return apiclient.New(route, params...).Method(http.MethodGet)
}

func post(route string, params ...string) *apiclient.Request {
	return apiclient.New(route, params...).Method(http.MethodPost)
}

func put(route string, params ...string) *apiclient.Request {
	return apiclient.New(route, params...).Method(http.MethodPut)
}

func patch(route string, params ...string) *apiclient.Request {
	return apiclient.New(route, params...).Method(http.MethodPatch)
}

func del(route string, params ...string) *apiclient.Request {
	return apiclient.New(route, params...).Method(http.MethodDelete)
}
