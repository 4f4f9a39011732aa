package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Pagination is the canonical page metadata. The backend names these fields
// inconsistently across endpoints; UnmarshalJSON accepts every spelling seen.
type Pagination struct {
	PageNumber   int `json:"pageNumber"`
	PageSize     int `json:"pageSize"`
	TotalRecords int `json:"totalRecords"`
	PageCount    int `json:"pageCount"`
}

var paginationAliases = map[string][]string{
	"pageNumber":   {"pageNumber", "page", "page_number", "currentPage", "current_page"},
	"pageSize":     {"pageSize", "limit", "page_size", "perPage", "per_page"},
	"totalRecords": {"totalRecords", "total", "total_records", "totalCount", "count"},
	"pageCount":    {"pageCount", "totalPages", "total_pages", "page_count"},
}

// UnmarshalJSON implements tolerant decoding. Values may be numbers or numeric strings.
func (p *Pagination) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	*p = Pagination{
		PageNumber:   pickInt(fields, paginationAliases["pageNumber"]),
		PageSize:     pickInt(fields, paginationAliases["pageSize"]),
		TotalRecords: pickInt(fields, paginationAliases["totalRecords"]),
		PageCount:    pickInt(fields, paginationAliases["pageCount"]),
	}
	p.Normalize()
	return nil
}

// Normalize derives a missing page count from total and size.
func (p *Pagination) Normalize() {
	if p.PageCount == 0 && p.PageSize > 0 && p.TotalRecords > 0 {
		p.PageCount = (p.TotalRecords + p.PageSize - 1) / p.PageSize
	}
}

func hasPaginationFields(fields map[string]json.RawMessage) bool {
	for _, aliases := range paginationAliases {
		for _, a := range aliases {
			if _, ok := fields[a]; ok {
				return true
			}
		}
	}
	return false
}

func pickInt(fields map[string]json.RawMessage, aliases []string) int {
	for _, key := range aliases {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if n, ok := flexInt(raw); ok {
			return n
		}
	}
	return 0
}

func flexInt(raw json.RawMessage) (int, bool) {
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	switch t := v.(type) {
	case json.Number:
		n = t
	case string:
		n = json.Number(strings.TrimSpace(t))
	default:
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return int(i), true
	}
	if f, err := strconv.ParseFloat(string(n), 64); err == nil {
		return int(f), true
	}
	return 0, false
}

// ListData is the payload of list endpoints: one array of records plus
// pagination. The array's key differs per endpoint ("organizations",
// "centers", "items", ...), so any single array field is accepted.
type ListData[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

var preferredListKeys = []string{"items", "data", "rows", "list", "records", "results"}

// UnmarshalJSON implements tolerant decoding of list payloads.
func (l *ListData[T]) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &l.Items)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return fmt.Errorf("%w: list data: %v", ErrShapeMismatch, err)
	}

	if raw, ok := fields["pagination"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &l.Pagination); err != nil {
			return fmt.Errorf("%w: pagination: %v", ErrShapeMismatch, err)
		}
	} else if hasPaginationFields(fields) {
		if err := json.Unmarshal(trimmed, &l.Pagination); err != nil {
			return fmt.Errorf("%w: pagination: %v", ErrShapeMismatch, err)
		}
	}

	key, err := listKey(fields)
	if err != nil {
		return err
	}
	if key == "" {
		if !hasPaginationFields(fields) && fields["pagination"] == nil {
			return fmt.Errorf("%w: list data has neither records nor pagination", ErrShapeMismatch)
		}
		l.Items = []T{}
		return nil
	}
	if err := json.Unmarshal(fields[key], &l.Items); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrShapeMismatch, key, err)
	}
	if l.Items == nil {
		l.Items = []T{}
	}
	return nil
}

func listKey(fields map[string]json.RawMessage) (string, error) {
	var arrays []string
	for key, raw := range fields {
		if key == "pagination" {
			continue
		}
		t := bytes.TrimSpace(raw)
		if len(t) > 0 && t[0] == '[' {
			arrays = append(arrays, key)
		}
	}
	switch len(arrays) {
	case 0:
		return "", nil
	case 1:
		return arrays[0], nil
	}
	for _, preferred := range preferredListKeys {
		for _, key := range arrays {
			if key == preferred {
				return key, nil
			}
		}
	}
	sort.Strings(arrays)
	return "", fmt.Errorf("%w: ambiguous list fields %s", ErrShapeMismatch, strings.Join(arrays, ", "))
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
