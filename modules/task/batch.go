package task

import (
	"context"
	"errors"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/example/taskflow/domain/profile"
	domain "github.com/example/taskflow/domain/task"
)

// BatchOp is the operation a batch applies to each id.
type BatchOp string

const (
	BatchDelete  BatchOp = "delete"
	BatchRestore BatchOp = "restore"
	BatchUpdate  BatchOp = "update"
)

// BatchFailure is one id that could not be processed.
type BatchFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
	Code   string `json:"code"`
}

// BatchResult reports the outcome of every id in a batch. Succeeded and
// Failed keep the order of the request.
type BatchResult struct {
	TotalAttempted int            `json:"total_attempted"`
	Succeeded      []string       `json:"succeeded"`
	Failed         []BatchFailure `json:"failed"`
	SuccessRate    float64        `json:"success_rate"`
}

// FailedIDs returns the ids worth retrying.
func (r *BatchResult) FailedIDs() []string {
	ids := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		ids = append(ids, f.ID)
	}
	return ids
}

type itemOutcome struct {
	m   mutation
	err error
}

// Batch applies op to every id independently. A batch larger than the
// configured cap is rejected as a whole with a CapacityError; otherwise one
// item's failure never stops the others. Stats are adjusted once, after every
// item has finished.
func (s *Service) Batch(ctx context.Context, p domain.Principal, op BatchOp, ids []string, payload *domain.Patch) (*BatchResult, error) {
	if len(ids) > s.settings.MaxBatchSize {
		return nil, &domain.CapacityError{Size: len(ids), Limit: s.settings.MaxBatchSize}
	}

	verr := domain.NewValidationError()
	var fn mutateFunc
	var kind opKind
	switch op {
	case BatchDelete:
		fn, kind = softDeleteFn, opSoftDelete
	case BatchRestore:
		fn, kind = restoreFn, opRestore
	case BatchUpdate:
		if payload == nil || payload.IsEmpty() {
			verr.Add("payload", "must change at least one field")
		} else {
			fn, kind = updateFn(*payload), opUpdate
		}
	default:
		verr.Add("op", "must be one of delete, restore, update")
	}
	if len(ids) == 0 {
		verr.Add("ids", "must not be empty")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	ids = uniqueIDs(ids)
	outcomes := make([]itemOutcome, len(ids))
	now := s.clock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.settings.BatchConcurrency, 1))
	for i, id := range ids {
		g.Go(func() error {
			outcomes[i] = s.runItem(gctx, p, id, now, fn)
			return nil
		})
	}
	_ = g.Wait()

	result := &BatchResult{
		TotalAttempted: len(ids),
		Succeeded:      []string{},
		Failed:         []BatchFailure{},
	}
	deltas := profile.Deltas{}
	var committed []mutation
	for i, id := range ids {
		out := outcomes[i]
		if out.err != nil {
			result.Failed = append(result.Failed, failureFor(id, out.err))
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
		total, completed := out.m.delta()
		deltas.Add(out.m.task().OwnerID, total, completed)
		committed = append(committed, out.m)
	}
	if result.TotalAttempted > 0 {
		rate := float64(len(result.Succeeded)) / float64(result.TotalAttempted)
		result.SuccessRate = math.Round(rate*1000) / 1000
	}

	s.applyBatchStats(ctx, deltas)
	for _, m := range committed {
		s.afterCommit(ctx, p, kind, m)
	}

	s.logger.Info("Batch processed", "op", string(op), "principal", p.ID,
		"total", result.TotalAttempted, "succeeded", len(result.Succeeded), "failed", len(result.Failed))
	return result, nil
}

// runItem processes one id in its own transaction without touching stats.
func (s *Service) runItem(ctx context.Context, p domain.Principal, id string, now time.Time, fn mutateFunc) itemOutcome {
	if id == "" {
		return itemOutcome{err: domain.ErrNotFound}
	}
	if !p.IsAuthenticated() {
		return itemOutcome{err: domain.ErrNotFound}
	}
	if err := ctx.Err(); err != nil {
		return itemOutcome{err: err}
	}
	var m mutation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		m, err = fn(ctx, s.repo.WithTx(tx), p, id, now)
		return err
	})
	if err != nil {
		s.logger.Debug("Batch item failed", "task_id", id, "principal", p.ID, "error", err)
		return itemOutcome{err: err}
	}
	return itemOutcome{m: m}
}

// applyBatchStats applies the accumulated deltas in one transaction. If that
// fails the affected owners are recounted instead.
func (s *Service) applyBatchStats(ctx context.Context, deltas profile.Deltas) {
	owners := deltas.Owners()
	if len(owners) == 0 {
		return
	}
	err := s.stats.AdjustMany(ctx, deltas)
	if err == nil {
		return
	}
	s.logger.Error("Failed to apply batch stats, recounting", "owners", owners, "error", err)
	if err := s.stats.RecountMany(ctx, owners); err != nil {
		s.logger.Error("Stats recount failed", "owners", owners, "error", err)
	}
}

func failureFor(id string, err error) BatchFailure {
	code := ErrorCode(err)
	reason := err.Error()
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		reason = "cancelled"
	case code == CodeInternal:
		reason = "internal error"
	}
	return BatchFailure{ID: id, Reason: reason, Code: code}
}

// uniqueIDs drops repeated ids, keeping the first occurrence.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
