package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	domain "github.com/example/taskflow/domain/task"
	"github.com/example/taskflow/events"
)

type opKind int

const (
	opCreate opKind = iota
	opUpdate
	opSoftDelete
	opRestore
	opPurge
)

// mutation is the before and after image of one committed change. A nil
// after means the row was purged.
type mutation struct {
	before *domain.Task
	after  *domain.Task
}

func (m mutation) task() *domain.Task {
	if m.after != nil {
		return m.after
	}
	return m.before
}

func (m mutation) delta() (total, completed int) {
	return domain.ContributionDelta(m.before, m.after)
}

// mutateFunc performs one change on a repository bound to a transaction. It
// re-reads the row and re-checks authorization itself.
type mutateFunc func(ctx context.Context, repo *domain.Repository, p domain.Principal, id string, now time.Time) (mutation, error)

func updateFn(patch domain.Patch) mutateFunc {
	return func(ctx context.Context, repo *domain.Repository, p domain.Principal, id string, now time.Time) (mutation, error) {
		current, err := repo.Get(ctx, id, domain.ViewActive)
		if err != nil {
			return mutation{}, err
		}
		if err := domain.Authorize(p, current, domain.ActionEdit); err != nil {
			return mutation{}, err
		}
		next, err := patch.Apply(current, now)
		if err != nil {
			return mutation{}, err
		}
		ok, err := repo.Update(ctx, next)
		if err != nil {
			return mutation{}, err
		}
		if !ok {
			return mutation{}, domain.ErrNotFound
		}
		return mutation{before: current, after: next}, nil
	}
}

func softDeleteFn(ctx context.Context, repo *domain.Repository, p domain.Principal, id string, now time.Time) (mutation, error) {
	current, err := repo.Get(ctx, id, domain.ViewActive)
	if err != nil {
		return mutation{}, err
	}
	if err := domain.Authorize(p, current, domain.ActionSoftDelete); err != nil {
		return mutation{}, err
	}
	next := current.Clone()
	next.Tombstone(p, now)
	ok, err := repo.MarkDeleted(ctx, next)
	if err != nil {
		return mutation{}, err
	}
	if !ok {
		return mutation{}, domain.ErrNotFound
	}
	return mutation{before: current, after: next}, nil
}

func restoreFn(ctx context.Context, repo *domain.Repository, p domain.Principal, id string, now time.Time) (mutation, error) {
	current, err := repo.Get(ctx, id, domain.ViewFull)
	if err != nil {
		return mutation{}, err
	}
	if err := domain.Authorize(p, current, domain.ActionRestore); err != nil {
		return mutation{}, err
	}
	if current.State() != domain.StateDeleted {
		return mutation{}, fmt.Errorf("task %s is not deleted: %w", id, domain.ErrConflict)
	}
	next := current.Clone()
	next.ClearTombstone(now)
	ok, err := repo.ClearDeleted(ctx, next)
	if err != nil {
		return mutation{}, err
	}
	if !ok {
		return mutation{}, fmt.Errorf("task %s is not deleted: %w", id, domain.ErrConflict)
	}
	return mutation{before: current, after: next}, nil
}

func purgeFn(ctx context.Context, repo *domain.Repository, p domain.Principal, id string, _ time.Time) (mutation, error) {
	current, err := repo.Get(ctx, id, domain.ViewFull)
	if err != nil {
		return mutation{}, err
	}
	if err := domain.Authorize(p, current, domain.ActionPurge); err != nil {
		return mutation{}, err
	}
	ok, err := repo.HardDelete(ctx, id)
	if err != nil {
		return mutation{}, err
	}
	if !ok {
		return mutation{}, domain.ErrNotFound
	}
	return mutation{before: current}, nil
}

// applyOne runs fn and the resulting stats adjustment in one transaction.
func (s *Service) applyOne(ctx context.Context, p domain.Principal, id string, kind opKind, fn mutateFunc) (mutation, error) {
	if !p.IsAuthenticated() || id == "" {
		return mutation{}, domain.ErrNotFound
	}
	now := s.clock()
	var m mutation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		m, err = fn(ctx, s.repo.WithTx(tx), p, id, now)
		if err != nil {
			return err
		}
		total, completed := m.delta()
		return s.stats.Adjust(ctx, tx, m.task().OwnerID, total, completed)
	})
	if err != nil {
		if isInternal(err) {
			s.logger.Error("Task mutation failed", "task_id", id, "principal", p.ID, "error", err)
		}
		return mutation{}, err
	}
	s.afterCommit(ctx, p, kind, m)
	return m, nil
}

// SoftDelete tombstones an active task. Owner and assignee may do this.
func (s *Service) SoftDelete(ctx context.Context, p domain.Principal, id string) (*domain.TombstoneInfo, error) {
	m, err := s.applyOne(ctx, p, id, opSoftDelete, softDeleteFn)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Task soft deleted", "task_id", id, "principal", p.ID)
	info := m.after.TombstoneInfo()
	return &info, nil
}

// Restore clears the tombstone of a deleted task. Only the owner may restore;
// restoring an active task is ErrConflict.
func (s *Service) Restore(ctx context.Context, p domain.Principal, id string) (*domain.Task, error) {
	m, err := s.applyOne(ctx, p, id, opRestore, restoreFn)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Task restored", "task_id", id, "principal", p.ID)
	return m.after, nil
}

// HardDelete purges a task in any state. Only the owner may purge.
func (s *Service) HardDelete(ctx context.Context, p domain.Principal, id string) error {
	if _, err := s.applyOne(ctx, p, id, opPurge, purgeFn); err != nil {
		return err
	}
	s.logger.Info("Task purged", "task_id", id, "principal", p.ID)
	return nil
}

// SweepRetention purges tombstoned tasks deleted more than thresholdDays ago.
// A zero threshold uses the configured retention. Per-task failures are
// logged and skipped. When ctx is cancelled the sweep stops between tasks and
// returns the count so far together with the context error.
func (s *Service) SweepRetention(ctx context.Context, thresholdDays int) (int, time.Time, error) {
	if thresholdDays < 0 {
		verr := domain.NewValidationError()
		verr.Add("threshold_days", "must not be negative")
		return 0, time.Time{}, verr
	}
	if thresholdDays == 0 {
		thresholdDays = s.settings.RetentionDays
	}
	now := s.clock()
	cutoff := now.AddDate(0, 0, -thresholdDays)

	ids, err := s.repo.ExpiredIDs(ctx, cutoff, 0)
	if err != nil {
		return 0, cutoff, err
	}

	purged := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("Retention sweep interrupted", "purged", purged, "remaining", len(ids)-purged)
			return purged, cutoff, err
		}
		t, ok, err := s.purgeExpired(ctx, id, cutoff)
		if err != nil {
			s.logger.Warn("Retention purge failed, skipping", "task_id", id, "error", err)
			continue
		}
		if !ok {
			continue
		}
		purged++
		s.afterCommit(ctx, domain.Anonymous(), opPurge, mutation{before: t})
	}

	s.logger.Info("Retention sweep finished", "purged", purged, "candidates", len(ids), "cutoff", cutoff)
	return purged, cutoff, nil
}

// purgeExpired removes one expired tombstone. It reports false when the task
// was restored or removed since it was listed.
func (s *Service) purgeExpired(ctx context.Context, id string, cutoff time.Time) (*domain.Task, bool, error) {
	var t *domain.Task
	var ok bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		t, err = repo.Get(ctx, id, domain.ViewDeleted)
		if err != nil {
			return err
		}
		ok, err = repo.PurgeExpired(ctx, id, cutoff)
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return t, ok, nil
}

// afterCommit invalidates cached state and publishes lifecycle events.
// Event publishing is best-effort.
func (s *Service) afterCommit(ctx context.Context, actor domain.Principal, kind opKind, m mutation) {
	t := m.task()
	s.invalidate(ctx, []string{t.ID}, []string{t.OwnerID})
	if s.bus == nil {
		return
	}

	var err error
	switch kind {
	case opCreate:
		ev := events.TaskCreatedEvent{
			TaskID:    t.ID,
			Title:     t.Title,
			OwnerID:   t.OwnerID,
			Status:    string(t.Status),
			CreatedAt: t.CreatedAt,
		}
		if t.AssignedTo != nil {
			ev.AssignedTo = *t.AssignedTo
		}
		err = events.TaskCreatedV1.Publish(s.bus, ev, nil)
		if err == nil && t.CompletedAt != nil {
			err = s.publishCompleted(actor, t)
		}
	case opUpdate:
		err = events.TaskUpdatedV1.Publish(s.bus, events.TaskUpdatedEvent{
			TaskID:    t.ID,
			OwnerID:   t.OwnerID,
			ActorID:   actor.ID,
			Status:    string(t.Status),
			UpdatedAt: t.UpdatedAt,
		}, nil)
		if err == nil && m.before.Status != domain.StatusCompleted && t.Status == domain.StatusCompleted {
			err = s.publishCompleted(actor, t)
		}
	case opSoftDelete:
		ev := events.TaskSoftDeletedEvent{TaskID: t.ID, OwnerID: t.OwnerID, DeletedAt: *t.DeletedAt}
		if t.DeletedBy != nil {
			ev.DeletedBy = *t.DeletedBy
		}
		err = events.TaskSoftDeletedV1.Publish(s.bus, ev, nil)
	case opRestore:
		err = events.TaskRestoredV1.Publish(s.bus, events.TaskRestoredEvent{
			TaskID:     t.ID,
			OwnerID:    t.OwnerID,
			RestoredBy: actor.ID,
			RestoredAt: t.UpdatedAt,
		}, nil)
	case opPurge:
		reason := events.PurgeReasonExplicit
		if !actor.IsAuthenticated() {
			reason = events.PurgeReasonRetention
		}
		err = events.TaskPurgedV1.Publish(s.bus, events.TaskPurgedEvent{
			TaskID:   t.ID,
			OwnerID:  t.OwnerID,
			PurgedBy: actor.ID,
			Reason:   reason,
			PurgedAt: s.clock(),
		}, nil)
	}
	if err != nil {
		s.logger.Warn("Failed to publish task event", "task_id", t.ID, "error", err)
	}
}

func (s *Service) publishCompleted(actor domain.Principal, t *domain.Task) error {
	return events.TaskCompletedV1.Publish(s.bus, events.TaskCompletedEvent{
		TaskID:      t.ID,
		OwnerID:     t.OwnerID,
		ActorID:     actor.ID,
		CompletedAt: *t.CompletedAt,
	}, nil)
}
