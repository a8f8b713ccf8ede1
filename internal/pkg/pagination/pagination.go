package pagination

import (
	"github.com/gofiber/fiber/v2"
)

const (
	// DefaultLimit is the page size used when none is requested
	DefaultLimit = 20
	// MaxLimit caps the page size a caller may request
	MaxLimit = 100
)

// Params is a requested page. Page is 1-based.
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// New clamps page and limit to usable values
func New(page, limit int) Params {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit}
}

// FromQuery reads ?page= and ?limit=. Missing or malformed values fall back to the defaults.
func FromQuery(c *fiber.Ctx) Params {
	return New(c.QueryInt("page", 1), c.QueryInt("limit", DefaultLimit))
}

// Offset is the number of rows before the page
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Meta places a page within the full result
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Page is one page of items plus its meta
type Page[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}

// NewPage wraps items fetched for params out of total matches
func NewPage[T any](items []T, params Params, total int64) *Page[T] {
	if items == nil {
		items = []T{}
	}
	limit := int64(params.Limit)
	if limit < 1 {
		limit = DefaultLimit
	}
	totalPages := int((total + limit - 1) / limit)

	return &Page[T]{
		Data: items,
		Meta: Meta{
			Page:       params.Page,
			Limit:      int(limit),
			Total:      total,
			TotalPages: totalPages,
			HasNext:    params.Page < totalPages,
			HasPrev:    params.Page > 1,
		},
	}
}

// Map converts every item of p and keeps its meta
func Map[T, U any](p *Page[T], convert func(T) U) *Page[U] {
	out := make([]U, 0, len(p.Data))
	for _, item := range p.Data {
		out = append(out, convert(item))
	}
	return &Page[U]{Data: out, Meta: p.Meta}
}
