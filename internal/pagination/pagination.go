// Package pagination parses page/size/sort query parameters and renders
// the stable page envelope used by every list endpoint.
package pagination

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

const (
	DefaultSize = 20
	MaxSize     = 100
)

// Order is a single sort instruction.
type Order struct {
	Field string
	Desc  bool
}

// Request is a parsed page specification.
type Request struct {
	Page int
	Size int
	Sort []Order
}

// Offset is the row offset implied by page and size.
func (r Request) Offset() int { return r.Page * r.Size }

// SortString renders the sort orders the way the page envelope exposes
// them: "field: DIR" segments, or "UNSORTED".
func (r Request) SortString() string {
	if len(r.Sort) == 0 {
		return "UNSORTED"
	}
	parts := make([]string, len(r.Sort))
	for i, o := range r.Sort {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts[i] = o.Field + ": " + dir
	}
	return strings.Join(parts, ", ")
}

// OrderBy builds a SQL ORDER BY clause from the whitelisted sort
// orders, falling back to the given default clause when unsorted.
// Column names come from the allowed map, never from the request.
func (r Request) OrderBy(allowed map[string]string, fallback string) string {
	var cols []string
	for _, o := range r.Sort {
		col, ok := allowed[o.Field]
		if !ok {
			continue
		}
		if o.Desc {
			col += " DESC"
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		return fallback
	}
	return strings.Join(cols, ", ")
}

// Parse reads page, size and repeatable sort parameters from the
// request. Sort values look like "date,desc" or just "amount"; fields
// not in allowed are rejected.
func Parse(r *http.Request, allowed map[string]string) (Request, error) {
	q := r.URL.Query()
	req := Request{Page: 0, Size: DefaultSize}

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return req, fmt.Errorf("invalid page parameter: %q", v)
		}
		req.Page = n
	}

	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return req, fmt.Errorf("invalid size parameter: %q", v)
		}
		if n > MaxSize {
			n = MaxSize
		}
		req.Size = n
	}

	for _, v := range q["sort"] {
		parts := strings.Split(v, ",")
		field := strings.TrimSpace(parts[0])
		if field == "" {
			continue
		}
		if _, ok := allowed[field]; !ok {
			return req, fmt.Errorf("unknown sort field: %q", field)
		}
		order := Order{Field: field}
		if len(parts) > 1 {
			switch strings.ToLower(strings.TrimSpace(parts[1])) {
			case "desc":
				order.Desc = true
			case "asc", "":
			default:
				return req, fmt.Errorf("invalid sort direction: %q", parts[1])
			}
		}
		req.Sort = append(req.Sort, order)
	}

	return req, nil
}

// Page is the engine-neutral page envelope.
type Page[T any] struct {
	Content       []T    `json:"content"`
	Number        int    `json:"number"`
	Size          int    `json:"size"`
	TotalElements int64  `json:"totalElements"`
	TotalPages    int    `json:"totalPages"`
	Sort          string `json:"sort"`
}

// NewPage assembles an envelope; Content is never null on the wire.
func NewPage[T any](content []T, req Request, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Content:       content,
		Number:        req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    pages,
		Sort:          req.SortString(),
	}
}
