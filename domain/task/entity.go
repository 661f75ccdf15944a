package task

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Status represents the workflow state of a task.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusOnHold     Status = "ON_HOLD"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled, StatusOnHold:
		return true
	}
	return false
}

// OpenStatuses are the statuses a task can be overdue or due soon in.
var OpenStatuses = []Status{StatusPending, StatusInProgress, StatusOnHold}

// Priority represents how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// Rank orders priorities from LOW (1) to URGENT (4). Unknown priorities rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityUrgent:
		return 4
	}
	return 0
}

// Task is the tracked record. A task is tombstoned rather than removed when
// soft-deleted; only HardDelete and the retention sweep remove the row.
type Task struct {
	ID             string     `gorm:"primarykey;size:36" json:"id"`
	Title          string     `gorm:"size:200;not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	Status         Status     `gorm:"size:20;not null;index" json:"status"`
	Priority       Priority   `gorm:"size:10;not null" json:"priority"`
	Category       string     `gorm:"size:100;index" json:"category"`
	Tags           []string   `gorm:"serializer:json" json:"tags"`
	Progress       int        `gorm:"not null" json:"progress"`
	EstimatedHours float64    `json:"estimated_hours"`
	ActualHours    float64    `json:"actual_hours"`
	DueDate        *time.Time `gorm:"index" json:"due_date,omitempty"`
	StartDate      *time.Time `json:"start_date,omitempty"`
	OwnerID        string     `gorm:"size:64;not null;index" json:"owner_id"`
	AssignedTo     *string    `gorm:"size:64;index" json:"assigned_to,omitempty"`
	IsDeleted      bool       `gorm:"not null;index" json:"is_deleted"`
	DeletedAt      *time.Time `gorm:"index" json:"deleted_at,omitempty"`
	DeletedBy      *string    `gorm:"size:64" json:"deleted_by,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Case-folded copies of the searchable fields, kept by RefreshSearchColumns.
	CategoryText string `gorm:"size:100" json:"-"`
	TagText      string `gorm:"type:text" json:"-"`
	SearchText   string `gorm:"type:text" json:"-"`
}

// TableName returns the table name for the Task model.
func (Task) TableName() string {
	return "tasks"
}

// BeforeSave keeps the tags column a JSON array rather than null and
// refreshes the search columns.
func (t *Task) BeforeSave(_ *gorm.DB) error {
	if t.Tags == nil {
		t.Tags = []string{}
	}
	t.RefreshSearchColumns()
	return nil
}

// IsOwner reports whether principalID owns the task.
func (t *Task) IsOwner(principalID string) bool {
	return principalID != "" && t.OwnerID == principalID
}

// IsAssignee reports whether principalID is the task's assignee.
func (t *Task) IsAssignee(principalID string) bool {
	return principalID != "" && t.AssignedTo != nil && *t.AssignedTo == principalID
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	c.DueDate = cloneTime(t.DueDate)
	c.StartDate = cloneTime(t.StartDate)
	c.DeletedAt = cloneTime(t.DeletedAt)
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.AssignedTo = cloneString(t.AssignedTo)
	c.DeletedBy = cloneString(t.DeletedBy)
	return &c
}

// CheckInvariants verifies the record-level invariants of a task.
func (t *Task) CheckInvariants() error {
	if t.IsDeleted != (t.DeletedAt != nil) {
		return fmt.Errorf("task %s: is_deleted=%v but deleted_at present=%v", t.ID, t.IsDeleted, t.DeletedAt != nil)
	}
	if (t.CompletedAt != nil) != (t.Status == StatusCompleted) {
		return fmt.Errorf("task %s: status=%s but completed_at present=%v", t.ID, t.Status, t.CompletedAt != nil)
	}
	if t.Progress < 0 || t.Progress > 100 {
		return fmt.Errorf("task %s: progress %d out of range", t.ID, t.Progress)
	}
	return nil
}

// cloneTime copies v and normalizes it to UTC so stored timestamps compare
// consistently.
func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := v.UTC()
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
