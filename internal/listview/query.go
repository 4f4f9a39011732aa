// Package listview implements the fetch/paginate/mutate contract shared by
// every entity list page of the dashboard.
package listview

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/vxplore/Clinik-pe-sub000/internal/clinikpe"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Query is the page request a list view holds: paging plus server-side
// filters. Every change to it re-queries the backend.
type Query struct {
	PageNumber int    `json:"pageNumber"`
	PageSize   int    `json:"pageSize"`
	Status     string `json:"status,omitempty"`
	Type       string `json:"type,omitempty"`
	Search     string `json:"search,omitempty"`
	Category   string `json:"category,omitempty"`
}

// ParseQuery reads a Query from URL parameters. Page numbers below 1 become 1
// and sizes outside 1..MaxPageSize become defaultSize.
func ParseQuery(v url.Values, defaultSize int) Query {
	if defaultSize < 1 || defaultSize > MaxPageSize {
		defaultSize = DefaultPageSize
	}
	q := Query{
		PageNumber: firstInt(v, "pageNumber", "page"),
		PageSize:   firstInt(v, "pageSize", "limit"),
		Status:     strings.ToLower(strings.TrimSpace(v.Get("status"))),
		Type:       strings.TrimSpace(v.Get("type")),
		Search:     strings.TrimSpace(v.Get("search")),
		Category:   strings.TrimSpace(v.Get("category")),
	}
	if q.Status == "all" {
		q.Status = ""
	}
	if q.PageNumber < 1 {
		q.PageNumber = 1
	}
	if q.PageSize < 1 || q.PageSize > MaxPageSize {
		q.PageSize = defaultSize
	}
	return q
}

func firstInt(v url.Values, keys ...string) int {
	for _, k := range keys {
		if raw := strings.TrimSpace(v.Get(k)); raw != "" {
			n, err := strconv.Atoi(raw)
			if err == nil {
				return n
			}
		}
	}
	return 0
}

// ListQuery converts q into the facade's list parameters.
func (q Query) ListQuery() clinikpe.ListQuery {
	return clinikpe.ListQuery{
		PageNumber: q.PageNumber,
		PageSize:   q.PageSize,
		Status:     q.Status,
		Type:       q.Type,
		Search:     q.Search,
		Category:   q.Category,
	}
}

// Values encodes q back into URL parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("pageNumber", strconv.Itoa(q.PageNumber))
	v.Set("pageSize", strconv.Itoa(q.PageSize))
	for key, val := range map[string]string{"status": q.Status, "type": q.Type, "search": q.Search, "category": q.Category} {
		if val != "" {
			v.Set(key, val)
		}
	}
	return v
}
