package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Scope narrows a task query.
type Scope = func(*gorm.DB) *gorm.DB

// Repository provides database operations for tasks. Every read takes the
// View explicitly; there is no implicit soft-delete scope.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Migrate runs database migrations for the tasks table.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&Task{})
}

// ViewScope translates v into a where clause.
func ViewScope(v View) Scope {
	return func(db *gorm.DB) *gorm.DB {
		switch v {
		case ViewFull:
			return db
		case ViewDeleted:
			return db.Where("tasks.is_deleted = ?", true)
		default:
			return db.Where("tasks.is_deleted = ?", false)
		}
	}
}

// Create inserts a new task.
func (r *Repository) Create(ctx context.Context, t *Task) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// Get returns the task with id if it belongs to view, or ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string, view View) (*Task, error) {
	var t Task
	err := r.db.WithContext(ctx).Scopes(ViewScope(view)).First(&t, "tasks.id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// List returns one page of the tasks in view matching scopes, plus the total
// number of matches. A non-positive limit returns every match.
func (r *Repository) List(ctx context.Context, view View, scopes []Scope, order string, offset, limit int) ([]*Task, int64, error) {
	base := r.db.WithContext(ctx).Model(&Task{}).Scopes(ViewScope(view)).Scopes(scopes...)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	query := base.Session(&gorm.Session{})
	if order != "" {
		query = query.Order(order)
	}
	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}

	var tasks []*Task
	if err := query.Find(&tasks).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// Update writes every mutable field of an active task, keeping the caller's
// UpdatedAt. It reports false when the task is missing or tombstoned.
func (r *Repository) Update(ctx context.Context, t *Task) (bool, error) {
	if t.Tags == nil {
		t.Tags = []string{}
	}
	// UpdateColumns skips BeforeSave.
	t.RefreshSearchColumns()
	result := r.db.WithContext(ctx).Model(&Task{}).
		Where("id = ? AND is_deleted = ?", t.ID, false).
		Select("*").
		Omit("id", "owner_id", "created_at", "is_deleted", "deleted_at", "deleted_by").
		UpdateColumns(t)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update task: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// MarkDeleted writes the tombstone fields of t, but only if the stored row is
// still active.
func (r *Repository) MarkDeleted(ctx context.Context, t *Task) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Task{}).
		Where("id = ? AND is_deleted = ?", t.ID, false).
		Updates(map[string]any{
			"is_deleted": true,
			"deleted_at": t.DeletedAt,
			"deleted_by": t.DeletedBy,
			"updated_at": t.UpdatedAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to soft delete task: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ClearDeleted removes the tombstone of t, but only if the stored row is
// still tombstoned.
func (r *Repository) ClearDeleted(ctx context.Context, t *Task) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Task{}).
		Where("id = ? AND is_deleted = ?", t.ID, true).
		Updates(map[string]any{
			"is_deleted": false,
			"deleted_at": nil,
			"deleted_by": nil,
			"updated_at": t.UpdatedAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to restore task: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// HardDelete removes the row regardless of its tombstone state.
func (r *Repository) HardDelete(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Task{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to purge task: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ExpiredIDs lists tombstoned tasks deleted before cutoff, oldest first.
func (r *Repository) ExpiredIDs(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	var ids []string
	query := r.db.WithContext(ctx).Model(&Task{}).
		Where("is_deleted = ? AND deleted_at < ?", true, cutoff).
		Order("deleted_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list expired tasks: %w", err)
	}
	return ids, nil
}

// PurgeExpired removes the task only if it is still tombstoned and was
// deleted before cutoff.
func (r *Repository) PurgeExpired(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ? AND deleted_at < ?", id, true, cutoff).
		Delete(&Task{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to purge expired task: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// CountOwned returns the active and completed-active task counts of owner.
func (r *Repository) CountOwned(ctx context.Context, ownerID string) (total, completed int64, err error) {
	base := r.db.WithContext(ctx).Model(&Task{}).Where("owner_id = ? AND is_deleted = ?", ownerID, false)
	if err = base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	if err = base.Session(&gorm.Session{}).Where("status = ?", StatusCompleted).Count(&completed).Error; err != nil {
		return 0, 0, fmt.Errorf("failed to count completed tasks: %w", err)
	}
	return total, completed, nil
}
