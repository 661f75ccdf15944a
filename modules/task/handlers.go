package task

import (
	"context"
	"errors"

	"github.com/go-monolith/mono"

	domain "github.com/example/taskflow/domain/task"
)

// errNotStarted is the only error the handlers return directly. Domain
// failures travel inside the response payload so callers can tell NotFound
// from Forbidden.
var errNotStarted = errors.New("task module not started")

func (m *TaskModule) principal(ctx context.Context, token string) (domain.Principal, *ErrorResponse) {
	p, err := m.identity.ResolvePrincipal(ctx, token)
	if err != nil {
		m.logger.Debug("Token rejected", "error", err)
		return domain.Anonymous(), NewErrorResponse(domain.ErrUnauthenticated)
	}
	return p, nil
}

func (m *TaskModule) errorResponse(op string, err error) *ErrorResponse {
	if isInternal(err) {
		m.logger.Error("Task operation failed", "op", op, "error", err)
	}
	return NewErrorResponse(err)
}

// createTask handles the create-task service request.
func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	if m.service == nil {
		return TaskResponse{}, errNotStarted
	}
	p, errResp := m.principal(ctx, req.Token)
	if errResp != nil {
		return TaskResponse{Error: errResp}, nil
	}
	t, err := m.service.Create(ctx, p, req.CreateInput)
	if err != nil {
		return TaskResponse{Error: m.errorResponse(ServiceCreateTask, err)}, nil
	}
	return TaskResponse{Task: t}, nil
}

// getTask handles the get-task service request.
func (m *TaskModule) getTask(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	if m.service == nil {
		return TaskResponse{}, errNotStarted
	}
	p, errResp := m.principal(ctx, req.Token)
	if errResp != nil {
		return TaskResponse{Error: errResp}, nil
	}
	view, err := parseView(req.View)
	if err != nil {
		return TaskResponse{Error: NewErrorResponse(err)}, nil
	}
	t, err := m.service.Get(ctx, p, req.TaskID, view)
	if err != nil {
		return TaskResponse{Error: m.errorResponse(ServiceGetTask, err)}, nil
	}
	return TaskResponse{Task: t}, nil
}

// listTasks handles the list-tasks service request.
func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	if m.service == nil {
		return ListTasksResponse{}, errNotStarted
	}
	p, errResp := m.principal(ctx, req.Token)
	if errResp != nil {
		return ListTasksResponse{Error: errResp}, nil
	}
	view, err := parseView(req.View)
	if err != nil {
		return ListTasksResponse{Error: NewErrorResponse(err)}, nil
	}
	page, err := m.service.List(ctx, p, req.Filter, view)
	if err != nil {
		return ListTasksResponse{Error: m.errorResponse(ServiceListTasks, err)}, nil
	}
	return ListTasksResponse{Page: *page}, nil
}

// updateTask handles the update-task service request.
func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	if m.service == nil {
		return TaskResponse{}, errNotStarted
	}
	p, errResp := m.principal(ctx, req.Token)
	if errResp != nil {
		return TaskResponse{Error: errResp}, nil
	}
	t, err := m.service.Update(ctx, p, req.TaskID, req.Patch)
	if err != nil {
		return TaskResponse{Error: m.errorResponse(ServiceUpdateTask, err)}, nil
	}
	return TaskResponse{Task: t}, nil
}

// softDeleteTask handles the soft-delete-task service request.
func (m *TaskModule) softDeleteTask(ctx context.Context, req TaskActionRequest, _ *mono.Msg) (TombstoneResponse, error) {
	if m.service == nil {
		return TombstoneResponse{}, errNotStarted
	}
	p, errResp := m.principal(ctx, req.Token)
	if errResp != nil {
		return TombstoneResponse{Error: errResp}, nil
	}
	info, err := m.service.SoftDelete(ctx, p, req.TaskID)
	if err != nil {
		return TombstoneResponse{Error: m.errorResponse(ServiceSoftDeleteTask, err)}, nil
	}
	return TombstoneResponse{Tombstone: info}, nil
}

// restoreTask handles the restore-task service request.
func (m *TaskModule) restoreTask(ctx context.Context, req TaskActionRequest, _ *mono.Msg) (TaskResponse, error) {
	if m.service == nil {
		return TaskResponse{}, errNotStarted
	}
	p, errResp := m.principal(ctx, req.Token)
	if errResp != nil {
		return TaskResponse{Error: errResp}, nil
	}
	t, err := m.service.Restore(ctx, p, req.TaskID)
	if err != nil {
		return TaskResponse{Error: m.errorResponse(ServiceRestoreTask, err)}, nil
	}
	return TaskResponse{Task: t}, nil
}

// hardDeleteTask handles the hard-delete-task service request.
func (m *TaskModule) hardDeleteTask(ctx context.Context, req TaskActionRequest, _ *mono.Msg) (AckResponse, error) {
	if m.service == nil {
		return AckResponse{}, errNotStarted
	}
	p, errResp := m.principal(ctx, req.Token)
	if errResp != nil {
		return AckResponse{Error: errResp}, nil
	}
	if err := m.service.HardDelete(ctx, p, req.TaskID); err != nil {
		return AckResponse{TaskID: req.TaskID, Error: m.errorResponse(ServiceHardDeleteTask, err)}, nil
	}
	return AckResponse{TaskID: req.TaskID, Deleted: true}, nil
}

// batchTasks handles the batch-tasks service request.
func (m *TaskModule) batchTasks(ctx context.Context, req BatchTasksRequest, _ *mono.Msg) (BatchTasksResponse, error) {
	if m.service == nil {
		return BatchTasksResponse{}, errNotStarted
	}
	p, errResp := m.principal(ctx, req.Token)
	if errResp != nil {
		return BatchTasksResponse{Error: errResp}, nil
	}
	result, err := m.service.Batch(ctx, p, req.Op, req.IDs, req.Payload)
	if err != nil {
		return BatchTasksResponse{Error: m.errorResponse(ServiceBatchTasks, err)}, nil
	}
	return BatchTasksResponse{Result: result}, nil
}

// sweepRetention handles the sweep-retention service request. It carries no
// principal.
func (m *TaskModule) sweepRetention(ctx context.Context, req SweepRetentionRequest, _ *mono.Msg) (SweepRetentionResponse, error) {
	if m.service == nil {
		return SweepRetentionResponse{}, errNotStarted
	}
	purged, cutoff, err := m.service.SweepRetention(ctx, req.ThresholdDays)
	resp := SweepRetentionResponse{Purged: purged, Cutoff: cutoff}
	if err != nil {
		resp.Error = m.errorResponse(ServiceSweepRetention, err)
	}
	return resp, nil
}

// getStats handles the get-stats service request.
func (m *TaskModule) getStats(ctx context.Context, req StatsRequest, _ *mono.Msg) (StatsResponse, error) {
	if m.service == nil {
		return StatsResponse{}, errNotStarted
	}
	p, errResp := m.principal(ctx, req.Token)
	if errResp != nil {
		return StatsResponse{Error: errResp}, nil
	}
	stats, err := m.service.GetStats(ctx, p)
	if err != nil {
		return StatsResponse{Error: m.errorResponse(ServiceGetStats, err)}, nil
	}
	return StatsResponse{Stats: stats}, nil
}

// reconcileStats handles the reconcile-stats service request.
func (m *TaskModule) reconcileStats(ctx context.Context, req StatsRequest, _ *mono.Msg) (StatsResponse, error) {
	if m.service == nil {
		return StatsResponse{}, errNotStarted
	}
	p, errResp := m.principal(ctx, req.Token)
	if errResp != nil {
		return StatsResponse{Error: errResp}, nil
	}
	stats, err := m.service.ReconcileStats(ctx, p)
	if err != nil {
		return StatsResponse{Error: m.errorResponse(ServiceReconcileStats, err)}, nil
	}
	return StatsResponse{Stats: stats}, nil
}

func parseView(s string) (domain.View, error) {
	view, err := domain.ParseView(s)
	if err != nil {
		verr := domain.NewValidationError()
		verr.Add("view", "must be one of active, full, deleted")
		return "", verr
	}
	return view, nil
}
