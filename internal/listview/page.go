package listview

import (
	"fmt"

	"github.com/vxplore/Clinik-pe-sub000/internal/apiclient"
	"github.com/vxplore/Clinik-pe-sub000/internal/clinikpe"
)

// Banner is the "Showing X to Y of Z" line under a table.
type Banner struct {
	From  int    `json:"from"`
	To    int    `json:"to"`
	Total int    `json:"total"`
	Text  string `json:"text"`
}

// NewBanner computes X = (n-1)*s+1 (0 when Z is 0) and Y = min(n*s, Z).
func NewBanner(pageNumber, pageSize, total int) Banner {
	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageSize < 0 {
		pageSize = 0
	}
	if total < 0 {
		total = 0
	}
	b := Banner{Total: total}
	if total > 0 {
		b.From = (pageNumber-1)*pageSize + 1
	}
	b.To = min(pageNumber*pageSize, total)
	b.Text = fmt.Sprintf("Showing %d to %d of %d", b.From, b.To, b.Total)
	return b
}

// Page is one rendered page of a list view.
type Page[T any] struct {
	Items      []T                  `json:"items"`
	Pagination apiclient.Pagination `json:"pagination"`
	Banner     Banner               `json:"banner"`
	Query      Query                `json:"query"`
}

// NewPage wraps a facade page. Paging the backend did not report is taken
// from the request.
func NewPage[T any](src *clinikpe.Page[T], q Query) Page[T] {
	p := Page[T]{Items: []T{}, Query: q}
	if src != nil {
		if src.Items != nil {
			p.Items = src.Items
		}
		p.Pagination = src.Pagination
	}
	if p.Pagination.PageNumber == 0 {
		p.Pagination.PageNumber = q.PageNumber
	}
	if p.Pagination.PageSize == 0 {
		p.Pagination.PageSize = q.PageSize
	}
	p.Pagination.Normalize()
	p.Banner = NewBanner(p.Pagination.PageNumber, p.Pagination.PageSize, p.Pagination.TotalRecords)
	return p
}
