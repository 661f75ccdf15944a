package task

import "time"

// State is the lifecycle state of a stored task.
type State string

const (
	StateActive  State = "ACTIVE"
	StateDeleted State = "DELETED"
)

// State returns the lifecycle state of the task.
func (t *Task) State() State {
	if t.IsDeleted {
		return StateDeleted
	}
	return StateActive
}

// Tombstone marks the task deleted by the given principal.
func (t *Task) Tombstone(by Principal, now time.Time) {
	at := now
	t.IsDeleted = true
	t.DeletedAt = &at
	if by.IsAuthenticated() {
		id := by.ID
		t.DeletedBy = &id
	} else {
		t.DeletedBy = nil
	}
	t.UpdatedAt = now
}

// ClearTombstone returns the task to the active state.
func (t *Task) ClearTombstone(now time.Time) {
	t.IsDeleted = false
	t.DeletedAt = nil
	t.DeletedBy = nil
	t.UpdatedAt = now
}

// SetStatus moves the task to status s. Entering COMPLETED forces progress to
// 100 and stamps completed_at; leaving it clears completed_at and keeps progress.
func (t *Task) SetStatus(s Status, now time.Time) {
	if t.Status == s {
		return
	}
	wasCompleted := t.Status == StatusCompleted
	t.Status = s
	switch {
	case s == StatusCompleted:
		at := now
		t.CompletedAt = &at
		t.Progress = 100
	case wasCompleted:
		t.CompletedAt = nil
	}
}

// Contribution is what the task adds to its owner's counters: one task when
// active, plus one completed task when its status is COMPLETED.
func (t *Task) Contribution() (total, completed int) {
	if t.IsDeleted {
		return 0, 0
	}
	if t.Status == StatusCompleted {
		return 1, 1
	}
	return 1, 0
}

// ContributionDelta returns how the owner's counters change going from before to after.
func ContributionDelta(before, after *Task) (total, completed int) {
	var bt, bc, at, ac int
	if before != nil {
		bt, bc = before.Contribution()
	}
	if after != nil {
		at, ac = after.Contribution()
	}
	return at - bt, ac - bc
}

// TombstoneInfo describes a tombstoned task.
type TombstoneInfo struct {
	ID        string     `json:"id"`
	IsDeleted bool       `json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *string    `json:"deleted_by,omitempty"`
}

// TombstoneInfo returns the tombstone fields of the task.
func (t *Task) TombstoneInfo() TombstoneInfo {
	return TombstoneInfo{
		ID:        t.ID,
		IsDeleted: t.IsDeleted,
		DeletedAt: cloneTime(t.DeletedAt),
		DeletedBy: cloneString(t.DeletedBy),
	}
}
