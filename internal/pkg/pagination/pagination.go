package pagination

import "github.com/gofiber/fiber/v2"

// Window bounds for audit listings. The attempts table grows with every
// submission, so listings are always windowed.
const (
	DefaultPerPage = 25
	MaxPerPage     = 200
)

// Window is the page slice a client asked for
type Window struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// FromRequest reads the page window from the query string, clamped to sane
// bounds.
func FromRequest(c *fiber.Ctx) Window {
	w := Window{
		Page:    c.QueryInt("page", 1),
		PerPage: c.QueryInt("per_page", DefaultPerPage),
	}
	if w.Page < 1 {
		w.Page = 1
	}
	if w.PerPage < 1 {
		w.PerPage = DefaultPerPage
	}
	if w.PerPage > MaxPerPage {
		w.PerPage = MaxPerPage
	}
	return w
}

// Offset returns the row offset of the window
func (w Window) Offset() int {
	return (w.Page - 1) * w.PerPage
}

// Meta places the window inside the full result set
type Meta struct {
	Page         int   `json:"page"`
	PerPage      int   `json:"per_page"`
	TotalRecords int64 `json:"total_records"`
	TotalPages   int   `json:"total_pages"`
	HasNext      bool  `json:"has_next"`
}

// Page wraps one window of records with its placement meta
type Page struct {
	Records interface{} `json:"records"`
	Meta    Meta        `json:"meta"`
}

// NewPage builds the envelope for one window of records
func NewPage(records interface{}, w Window, total int64) Page {
	totalPages := int(total) / w.PerPage
	if int(total)%w.PerPage > 0 {
		totalPages++
	}
	return Page{
		Records: records,
		Meta: Meta{
			Page:         w.Page,
			PerPage:      w.PerPage,
			TotalRecords: total,
			TotalPages:   totalPages,
			HasNext:      w.Page < totalPages,
		},
	}
}
