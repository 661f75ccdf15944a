package task

import (
	"strings"
	"time"
)

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Title          *string    `json:"title,omitempty"`
	Description    *string    `json:"description,omitempty"`
	Status         *Status    `json:"status,omitempty"`
	Priority       *Priority  `json:"priority,omitempty"`
	Category       *string    `json:"category,omitempty"`
	Tags           *[]string  `json:"tags,omitempty"`
	AddTags        []string   `json:"add_tags,omitempty"`
	RemoveTags     []string   `json:"remove_tags,omitempty"`
	Progress       *int       `json:"progress,omitempty"`
	EstimatedHours *float64   `json:"estimated_hours,omitempty"`
	ActualHours    *float64   `json:"actual_hours,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	ClearDueDate   bool       `json:"clear_due_date,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	ClearStartDate bool       `json:"clear_start_date,omitempty"`
	// AssignedTo set to the empty string unassigns the task.
	AssignedTo *string `json:"assigned_to,omitempty"`
	// OwnerID is accepted only when it matches the current owner.
	OwnerID *string `json:"owner_id,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil &&
		p.Category == nil && p.Tags == nil && len(p.AddTags) == 0 && len(p.RemoveTags) == 0 &&
		p.Progress == nil && p.EstimatedHours == nil && p.ActualHours == nil &&
		p.DueDate == nil && !p.ClearDueDate && p.StartDate == nil && !p.ClearStartDate &&
		p.AssignedTo == nil && p.OwnerID == nil
}

// Apply validates the patch against t and, when every field is valid,
// returns the updated copy. t itself is never modified.
func (p Patch) Apply(t *Task, now time.Time) (*Task, error) {
	verr := NewValidationError()
	next := t.Clone()

	if p.OwnerID != nil && *p.OwnerID != t.OwnerID {
		verr.Add("owner_id", "cannot be changed")
	}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		validateTitle(verr, title)
		next.Title = title
	}
	if p.Description != nil {
		next.Description = *p.Description
	}
	if p.Category != nil {
		validateCategory(verr, *p.Category)
		next.Category = strings.TrimSpace(*p.Category)
	}
	if p.Priority != nil {
		if !p.Priority.Valid() {
			verr.Add("priority", "must be one of LOW, MEDIUM, HIGH, URGENT")
		} else {
			next.Priority = *p.Priority
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		verr.Add("status", "must be one of PENDING, IN_PROGRESS, COMPLETED, CANCELLED, ON_HOLD")
	}
	if p.Progress != nil {
		validateProgress(verr, *p.Progress)
		next.Progress = *p.Progress
	}
	if p.EstimatedHours != nil {
		validateHours(verr, "estimated_hours", *p.EstimatedHours)
		next.EstimatedHours = *p.EstimatedHours
	}
	if p.ActualHours != nil {
		validateHours(verr, "actual_hours", *p.ActualHours)
		next.ActualHours = *p.ActualHours
	}
	if p.Tags != nil {
		next.Tags = normalizeTags(verr, "tags", *p.Tags)
	}
	if len(p.AddTags) > 0 {
		next.Tags = AddTags(next.Tags, normalizeTags(verr, "add_tags", p.AddTags)...)
		if len(next.Tags) > maxTags {
			verr.Add("add_tags", "at most 20 tags are allowed")
		}
	}
	if len(p.RemoveTags) > 0 {
		next.Tags = RemoveTags(next.Tags, p.RemoveTags...)
	}

	switch {
	case p.ClearDueDate:
		next.DueDate = nil
	case p.DueDate != nil:
		next.DueDate = cloneTime(p.DueDate)
	}
	switch {
	case p.ClearStartDate:
		next.StartDate = nil
	case p.StartDate != nil:
		next.StartDate = cloneTime(p.StartDate)
	}
	validateDates(verr, next.StartDate, next.DueDate)

	if p.AssignedTo != nil {
		if assignee := strings.TrimSpace(*p.AssignedTo); assignee == "" {
			next.AssignedTo = nil
		} else {
			next.AssignedTo = &assignee
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if p.Status != nil {
		next.SetStatus(*p.Status, now)
	}
	next.UpdatedAt = now
	return next, nil
}

// AddTags appends tags that are not present yet.
func AddTags(tags []string, add ...string) []string {
	out := append([]string(nil), tags...)
	for _, tag := range add {
		if !containsTag(out, tag) {
			out = append(out, tag)
		}
	}
	return out
}

// RemoveTags drops the given tags; tags that are absent are ignored.
func RemoveTags(tags []string, remove ...string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if !containsTag(remove, tag) {
			out = append(out, tag)
		}
	}
	return out
}

func containsTag(tags []string, tag string) bool {
	tag = strings.TrimSpace(tag)
	for _, t := range tags {
		if strings.TrimSpace(t) == tag {
			return true
		}
	}
	return false
}
