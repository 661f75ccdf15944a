package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// TaskCreatedEvent is emitted when a new task is created.
type TaskCreatedEvent struct {
	TaskID     string    `json:"task_id"`
	Title      string    `json:"title"`
	OwnerID    string    `json:"owner_id"`
	AssignedTo string    `json:"assigned_to,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// TaskCreatedV1 is the typed event definition for task creation.
// Subject: events.task.v1.task-created
var TaskCreatedV1 = helper.EventDefinition[TaskCreatedEvent](
	"task", "TaskCreated", "v1",
)

// TaskUpdatedEvent is emitted after a task's fields change.
type TaskUpdatedEvent struct {
	TaskID    string    `json:"task_id"`
	OwnerID   string    `json:"owner_id"`
	ActorID   string    `json:"actor_id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskUpdatedV1 is the typed event definition for task updates.
// Subject: events.task.v1.task-updated
var TaskUpdatedV1 = helper.EventDefinition[TaskUpdatedEvent](
	"task", "TaskUpdated", "v1",
)

// TaskCompletedEvent is emitted when a task enters COMPLETED.
type TaskCompletedEvent struct {
	TaskID      string    `json:"task_id"`
	OwnerID     string    `json:"owner_id"`
	ActorID     string    `json:"actor_id"`
	CompletedAt time.Time `json:"completed_at"`
}

// TaskCompletedV1 is the typed event definition for task completion.
// Subject: events.task.v1.task-completed
var TaskCompletedV1 = helper.EventDefinition[TaskCompletedEvent](
	"task", "TaskCompleted", "v1",
)

// TaskSoftDeletedEvent is emitted when a task is tombstoned.
type TaskSoftDeletedEvent struct {
	TaskID    string    `json:"task_id"`
	OwnerID   string    `json:"owner_id"`
	DeletedBy string    `json:"deleted_by,omitempty"`
	DeletedAt time.Time `json:"deleted_at"`
}

// TaskSoftDeletedV1 is the typed event definition for soft deletion.
// Subject: events.task.v1.task-soft-deleted
var TaskSoftDeletedV1 = helper.EventDefinition[TaskSoftDeletedEvent](
	"task", "TaskSoftDeleted", "v1",
)

// TaskRestoredEvent is emitted when a tombstoned task becomes active again.
type TaskRestoredEvent struct {
	TaskID     string    `json:"task_id"`
	OwnerID    string    `json:"owner_id"`
	RestoredBy string    `json:"restored_by"`
	RestoredAt time.Time `json:"restored_at"`
}

// TaskRestoredV1 is the typed event definition for restores.
// Subject: events.task.v1.task-restored
var TaskRestoredV1 = helper.EventDefinition[TaskRestoredEvent](
	"task", "TaskRestored", "v1",
)

// TaskPurgedEvent is emitted when a task row is removed for good, either by
// its owner or by the retention sweep (PurgedBy is empty then).
type TaskPurgedEvent struct {
	TaskID   string    `json:"task_id"`
	OwnerID  string    `json:"owner_id"`
	PurgedBy string    `json:"purged_by,omitempty"`
	Reason   string    `json:"reason"`
	PurgedAt time.Time `json:"purged_at"`
}

// TaskPurgedV1 is the typed event definition for permanent deletion.
// Subject: events.task.v1.task-purged
var TaskPurgedV1 = helper.EventDefinition[TaskPurgedEvent](
	"task", "TaskPurged", "v1",
)

// Purge reasons.
const (
	PurgeReasonExplicit  = "explicit"
	PurgeReasonRetention = "retention"
)
