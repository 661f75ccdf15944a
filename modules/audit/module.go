// Package audit keeps a bounded, newest-first trail of task lifecycle events.
package audit

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/taskflow/events"
)

// DefaultCapacity is the number of entries kept when none is configured.
const DefaultCapacity = 1000

// HealthRecentEntries is the number of latest entries reported by Health.
const HealthRecentEntries = 5

// Entry types recorded by the trail.
const (
	TypeCreated     = "task_created"
	TypeUpdated     = "task_updated"
	TypeCompleted   = "task_completed"
	TypeSoftDeleted = "task_soft_deleted"
	TypeRestored    = "task_restored"
	TypePurged      = "task_purged"
)

// Entry is one recorded lifecycle event.
type Entry struct {
	TaskID    string    `json:"task_id"`
	OwnerID   string    `json:"owner_id"`
	ActorID   string    `json:"actor_id,omitempty"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditModule subscribes to task events and keeps the most recent ones in a
// ring buffer.
type AuditModule struct {
	mu       sync.RWMutex
	entries  []Entry
	next     int
	size     int
	received uint64
}

var _ mono.Module = (*AuditModule)(nil)
var _ mono.EventConsumerModule = (*AuditModule)(nil)
var _ mono.HealthCheckableModule = (*AuditModule)(nil)

// NewModule creates an AuditModule holding at most capacity entries.
func NewModule(capacity int) *AuditModule {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &AuditModule{entries: make([]Entry, capacity)}
}

func (m *AuditModule) Name() string {
	return "audit"
}

func (m *AuditModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCompletedV1, m.handleTaskCompleted, m); err != nil {
		return fmt.Errorf("failed to register TaskCompleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskSoftDeletedV1, m.handleTaskSoftDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskSoftDeleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskRestoredV1, m.handleTaskRestored, m); err != nil {
		return fmt.Errorf("failed to register TaskRestored consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskPurgedV1, m.handleTaskPurged, m); err != nil {
		return fmt.Errorf("failed to register TaskPurged consumer: %w", err)
	}

	log.Printf("[audit] Registered event consumers: TaskCreated, TaskUpdated, TaskCompleted, TaskSoftDeleted, TaskRestored, TaskPurged")
	return nil
}

func (m *AuditModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.record(Entry{
		TaskID:    event.TaskID,
		OwnerID:   event.OwnerID,
		ActorID:   event.OwnerID,
		Type:      TypeCreated,
		Message:   fmt.Sprintf("Task '%s' created with status %s", event.Title, event.Status),
		Timestamp: event.CreatedAt,
	})
	return nil
}

func (m *AuditModule) handleTaskUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	m.record(Entry{
		TaskID:    event.TaskID,
		OwnerID:   event.OwnerID,
		ActorID:   event.ActorID,
		Type:      TypeUpdated,
		Message:   fmt.Sprintf("Task updated by %s (status %s)", event.ActorID, event.Status),
		Timestamp: event.UpdatedAt,
	})
	return nil
}

func (m *AuditModule) handleTaskCompleted(_ context.Context, event events.TaskCompletedEvent, _ *mono.Msg) error {
	m.record(Entry{
		TaskID:    event.TaskID,
		OwnerID:   event.OwnerID,
		ActorID:   event.ActorID,
		Type:      TypeCompleted,
		Message:   fmt.Sprintf("Task completed by %s", event.ActorID),
		Timestamp: event.CompletedAt,
	})
	return nil
}

func (m *AuditModule) handleTaskSoftDeleted(_ context.Context, event events.TaskSoftDeletedEvent, _ *mono.Msg) error {
	by := event.DeletedBy
	if by == "" {
		by = "unknown"
	}
	m.record(Entry{
		TaskID:    event.TaskID,
		OwnerID:   event.OwnerID,
		ActorID:   event.DeletedBy,
		Type:      TypeSoftDeleted,
		Message:   fmt.Sprintf("Task moved to trash by %s", by),
		Timestamp: event.DeletedAt,
	})
	return nil
}

func (m *AuditModule) handleTaskRestored(_ context.Context, event events.TaskRestoredEvent, _ *mono.Msg) error {
	m.record(Entry{
		TaskID:    event.TaskID,
		OwnerID:   event.OwnerID,
		ActorID:   event.RestoredBy,
		Type:      TypeRestored,
		Message:   fmt.Sprintf("Task restored by %s", event.RestoredBy),
		Timestamp: event.RestoredAt,
	})
	return nil
}

func (m *AuditModule) handleTaskPurged(_ context.Context, event events.TaskPurgedEvent, _ *mono.Msg) error {
	message := fmt.Sprintf("Task permanently deleted by %s", event.PurgedBy)
	if event.Reason == events.PurgeReasonRetention {
		message = "Task purged by the retention sweep"
	}
	m.record(Entry{
		TaskID:    event.TaskID,
		OwnerID:   event.OwnerID,
		ActorID:   event.PurgedBy,
		Type:      TypePurged,
		Message:   message,
		Timestamp: event.PurgedAt,
	})
	return nil
}

func (m *AuditModule) record(e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[m.next] = e
	m.next = (m.next + 1) % len(m.entries)
	if m.size < len(m.entries) {
		m.size++
	}
	m.received++
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns everything held.
func (m *AuditModule) Recent(limit int) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || limit > m.size {
		limit = m.size
	}
	out := make([]Entry, 0, limit)
	for i := 1; i <= limit; i++ {
		out = append(out, m.entries[(m.next-i+len(m.entries))%len(m.entries)])
	}
	return out
}

// Health reports the buffer usage and the latest entries.
func (m *AuditModule) Health(_ context.Context) mono.HealthStatus {
	recent := m.Recent(HealthRecentEntries)

	m.mu.RLock()
	held, capacity, received := m.size, len(m.entries), m.received
	m.mu.RUnlock()

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"held":     held,
			"capacity": capacity,
			"received": received,
			"recent":   recent,
		},
	}
}

func (m *AuditModule) Start(_ context.Context) error {
	log.Printf("[audit] Module started - keeping the last %d task events", len(m.entries))
	return nil
}

func (m *AuditModule) Stop(_ context.Context) error {
	log.Println("[audit] Module stopped")
	return nil
}
