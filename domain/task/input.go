package task

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxTitleLength    = 200
	maxCategoryLength = 100
	maxTagLength      = 50
	maxTags           = 20
)

// CreateInput holds the caller-supplied fields of a new task.
type CreateInput struct {
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         Status     `json:"status,omitempty"`
	Priority       Priority   `json:"priority,omitempty"`
	Category       string     `json:"category"`
	Tags           []string   `json:"tags,omitempty"`
	Progress       int        `json:"progress"`
	EstimatedHours float64    `json:"estimated_hours"`
	ActualHours    float64    `json:"actual_hours"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	AssignedTo     string     `json:"assigned_to,omitempty"`
}

// NewTask validates in and builds a task owned by owner. The id is left for
// the caller to assign.
func NewTask(in CreateInput, owner Principal, now time.Time) (*Task, error) {
	verr := NewValidationError()

	title := strings.TrimSpace(in.Title)
	validateTitle(verr, title)
	validateCategory(verr, in.Category)

	status := in.Status
	if status == "" {
		status = StatusPending
	} else if !status.Valid() {
		verr.Add("status", "must be one of PENDING, IN_PROGRESS, COMPLETED, CANCELLED, ON_HOLD")
	}

	priority := in.Priority
	if priority == "" {
		priority = PriorityMedium
	} else if !priority.Valid() {
		verr.Add("priority", "must be one of LOW, MEDIUM, HIGH, URGENT")
	}

	validateProgress(verr, in.Progress)
	validateHours(verr, "estimated_hours", in.EstimatedHours)
	validateHours(verr, "actual_hours", in.ActualHours)
	tags := normalizeTags(verr, "tags", in.Tags)
	validateDates(verr, in.StartDate, in.DueDate)

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	t := &Task{
		Title:          title,
		Description:    in.Description,
		Status:         StatusPending,
		Priority:       priority,
		Category:       strings.TrimSpace(in.Category),
		Tags:           tags,
		Progress:       in.Progress,
		EstimatedHours: in.EstimatedHours,
		ActualHours:    in.ActualHours,
		DueDate:        cloneTime(in.DueDate),
		StartDate:      cloneTime(in.StartDate),
		OwnerID:        owner.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if assignee := strings.TrimSpace(in.AssignedTo); assignee != "" {
		t.AssignedTo = &assignee
	}
	t.SetStatus(status, now)
	return t, nil
}

func validateTitle(verr *ValidationError, title string) {
	switch {
	case title == "":
		verr.Add("title", "is required")
	case utf8.RuneCountInString(title) > maxTitleLength:
		verr.Add("title", "must be at most 200 characters")
	}
}

func validateCategory(verr *ValidationError, category string) {
	if utf8.RuneCountInString(strings.TrimSpace(category)) > maxCategoryLength {
		verr.Add("category", "must be at most 100 characters")
	}
}

func validateProgress(verr *ValidationError, progress int) {
	if progress < 0 || progress > 100 {
		verr.Add("progress", "must be between 0 and 100")
	}
}

func validateHours(verr *ValidationError, field string, hours float64) {
	if hours < 0 {
		verr.Add(field, "must not be negative")
	}
}

func validateDates(verr *ValidationError, start, due *time.Time) {
	if start != nil && due != nil && due.Before(*start) {
		verr.Add("due_date", "must not be before start_date")
	}
}

// normalizeTags trims, drops empties and de-duplicates tags, keeping first
// occurrence order.
func normalizeTags(verr *ValidationError, field string, tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if strings.Contains(tag, SearchSeparator) {
			verr.Add(field, "tags must not contain control characters")
			continue
		}
		if utf8.RuneCountInString(tag) > maxTagLength {
			verr.Add(field, "each tag must be at most 50 characters")
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > maxTags {
		verr.Add(field, "at most 20 tags are allowed")
	}
	return out
}
