package task

import (
	"strings"
	"time"
)

// DefaultOrdering is applied when a filter names no ordering.
const DefaultOrdering = "-created_at"

// orderableFields maps accepted ordering names to columns.
var orderableFields = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"due_date":   "due_date",
	"start_date": "start_date",
	"priority":   "priority",
	"status":     "status",
	"title":      "title",
	"progress":   "progress",
}

// Filter describes a task query. Categories are ANDed; multi-valued
// fields OR their own values.
type Filter struct {
	Statuses    []Status   `json:"statuses,omitempty"`
	Priorities  []Priority `json:"priorities,omitempty"`
	Category    string     `json:"category,omitempty"`
	AssignedTo  string     `json:"assigned_to,omitempty"`
	OwnerID     string     `json:"owner_id,omitempty"`
	IsAssigned  *bool      `json:"is_assigned,omitempty"`
	IsOverdue   *bool      `json:"is_overdue,omitempty"`
	DueSoonDays *int       `json:"due_soon_days,omitempty"`

	CreatedFrom *time.Time `json:"created_from,omitempty"`
	CreatedTo   *time.Time `json:"created_to,omitempty"`
	DueFrom     *time.Time `json:"due_from,omitempty"`
	DueTo       *time.Time `json:"due_to,omitempty"`
	StartFrom   *time.Time `json:"start_from,omitempty"`
	StartTo     *time.Time `json:"start_to,omitempty"`
	ProgressMin *int       `json:"progress_min,omitempty"`
	ProgressMax *int       `json:"progress_max,omitempty"`

	Search string `json:"search,omitempty"`
	// Tags is a comma separated list; a task matches if it carries any of them.
	Tags string `json:"tags,omitempty"`

	IncludeDeleted bool   `json:"include_deleted,omitempty"`
	Ordering       string `json:"ordering,omitempty"`
	Page           int    `json:"page,omitempty"`
	PageSize       int    `json:"page_size,omitempty"`
}

// TagList splits the Tags filter into trimmed, non-empty labels.
func (f Filter) TagList() []string {
	if strings.TrimSpace(f.Tags) == "" {
		return nil
	}
	var out []string
	for _, tag := range strings.Split(f.Tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// OrderColumn resolves Ordering into a column and direction. Unknown fields
// are reported by Validate; here they fall back to the default.
func (f Filter) OrderColumn() (column string, desc bool) {
	ordering := strings.TrimSpace(f.Ordering)
	if ordering == "" {
		ordering = DefaultOrdering
	}
	desc = strings.HasPrefix(ordering, "-")
	name := strings.TrimPrefix(ordering, "-")
	column, ok := orderableFields[name]
	if !ok {
		return "created_at", true
	}
	return column, desc
}

// Normalize fills page defaults and clamps the page size to maxPageSize.
func (f *Filter) Normalize(defaultPageSize, maxPageSize int) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = defaultPageSize
	}
	if maxPageSize > 0 && f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
}

// Offset returns the row offset of the current page.
func (f Filter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Validate reports every malformed field of the filter.
func (f Filter) Validate() error {
	verr := NewValidationError()
	for _, s := range f.Statuses {
		if !s.Valid() {
			verr.Add("statuses", "unknown status "+string(s))
		}
	}
	for _, p := range f.Priorities {
		if !p.Valid() {
			verr.Add("priorities", "unknown priority "+string(p))
		}
	}
	if f.DueSoonDays != nil && *f.DueSoonDays < 0 {
		verr.Add("due_soon_days", "must not be negative")
	}
	checkRange(verr, "created", f.CreatedFrom, f.CreatedTo)
	checkRange(verr, "due", f.DueFrom, f.DueTo)
	checkRange(verr, "start", f.StartFrom, f.StartTo)
	if f.ProgressMin != nil {
		validateProgressBound(verr, "progress_min", *f.ProgressMin)
	}
	if f.ProgressMax != nil {
		validateProgressBound(verr, "progress_max", *f.ProgressMax)
	}
	if f.ProgressMin != nil && f.ProgressMax != nil && *f.ProgressMin > *f.ProgressMax {
		verr.Add("progress_min", "must not exceed progress_max")
	}
	if f.Ordering != "" {
		if _, ok := orderableFields[strings.TrimPrefix(strings.TrimSpace(f.Ordering), "-")]; !ok {
			verr.Add("ordering", "unsupported field")
		}
	}
	if f.Page < 0 {
		verr.Add("page", "must not be negative")
	}
	if f.PageSize < 0 {
		verr.Add("page_size", "must not be negative")
	}
	return verr.OrNil()
}

func checkRange(verr *ValidationError, name string, from, to *time.Time) {
	if from != nil && to != nil && to.Before(*from) {
		verr.Add(name+"_from", "must not be after "+name+"_to")
	}
}

func validateProgressBound(verr *ValidationError, field string, v int) {
	if v < 0 || v > 100 {
		verr.Add(field, "must be between 0 and 100")
	}
}

// Page is one page of a listing.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	HasNext  bool  `json:"has_next"`
}

// NewPage builds a page and computes HasNext from the total.
func NewPage[T any](items []T, total int64, page, pageSize int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		HasNext:  int64(page*pageSize) < total,
	}
}
