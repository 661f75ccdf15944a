package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/example/taskflow/domain/profile"
	domain "github.com/example/taskflow/domain/task"
)

// taskAdapter wraps ServiceContainer for type-safe cross-module communication.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new adapter for task services.
// container is the ServiceContainer from the task module received via SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

// callService performs one typed request-reply call and wraps its failure.
func callService[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s service call failed: %w", service, err)
	}
	return nil
}

// CreateTask creates a task via the create-task service.
func (a *taskAdapter) CreateTask(ctx context.Context, token string, in domain.CreateInput) (*domain.Task, error) {
	req := CreateTaskRequest{Token: token, CreateInput: in}
	var resp TaskResponse
	if err := callService(ctx, a.container, ServiceCreateTask, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.Err()
	}
	return resp.Task, nil
}

// GetTask fetches a task via the get-task service.
func (a *taskAdapter) GetTask(ctx context.Context, token, taskID string, view domain.View) (*domain.Task, error) {
	req := GetTaskRequest{Token: token, TaskID: taskID, View: string(view)}
	var resp TaskResponse
	if err := callService(ctx, a.container, ServiceGetTask, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.Err()
	}
	return resp.Task, nil
}

// ListTasks lists tasks via the list-tasks service.
func (a *taskAdapter) ListTasks(ctx context.Context, token string, filter domain.Filter, view domain.View) (*domain.Page[*domain.Task], error) {
	req := ListTasksRequest{Token: token, View: string(view), Filter: filter}
	var resp ListTasksResponse
	if err := callService(ctx, a.container, ServiceListTasks, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.Err()
	}
	return &resp.Page, nil
}

// UpdateTask applies a patch via the update-task service.
func (a *taskAdapter) UpdateTask(ctx context.Context, token, taskID string, patch domain.Patch) (*domain.Task, error) {
	req := UpdateTaskRequest{Token: token, TaskID: taskID, Patch: patch}
	var resp TaskResponse
	if err := callService(ctx, a.container, ServiceUpdateTask, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.Err()
	}
	return resp.Task, nil
}

// SoftDeleteTask tombstones a task via the soft-delete-task service.
func (a *taskAdapter) SoftDeleteTask(ctx context.Context, token, taskID string) (*domain.TombstoneInfo, error) {
	req := TaskActionRequest{Token: token, TaskID: taskID}
	var resp TombstoneResponse
	if err := callService(ctx, a.container, ServiceSoftDeleteTask, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.Err()
	}
	return resp.Tombstone, nil
}

// RestoreTask restores a task via the restore-task service.
func (a *taskAdapter) RestoreTask(ctx context.Context, token, taskID string) (*domain.Task, error) {
	req := TaskActionRequest{Token: token, TaskID: taskID}
	var resp TaskResponse
	if err := callService(ctx, a.container, ServiceRestoreTask, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.Err()
	}
	return resp.Task, nil
}

// HardDeleteTask removes a task via the hard-delete-task service.
func (a *taskAdapter) HardDeleteTask(ctx context.Context, token, taskID string) error {
	req := TaskActionRequest{Token: token, TaskID: taskID}
	var resp AckResponse
	if err := callService(ctx, a.container, ServiceHardDeleteTask, &req, &resp); err != nil {
		return err
	}
	return resp.Error.Err()
}

// BatchTasks runs a batch via the batch-tasks service.
func (a *taskAdapter) BatchTasks(ctx context.Context, token string, op BatchOp, ids []string, payload *domain.Patch) (*BatchResult, error) {
	req := BatchTasksRequest{Token: token, Op: op, IDs: ids, Payload: payload}
	var resp BatchTasksResponse
	if err := callService(ctx, a.container, ServiceBatchTasks, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.Err()
	}
	return resp.Result, nil
}

// SweepRetention triggers a retention sweep via the sweep-retention service.
// The purged count is returned even when the sweep stopped early.
func (a *taskAdapter) SweepRetention(ctx context.Context, thresholdDays int) (int, error) {
	req := SweepRetentionRequest{ThresholdDays: thresholdDays}
	var resp SweepRetentionResponse
	if err := callService(ctx, a.container, ServiceSweepRetention, &req, &resp); err != nil {
		return 0, err
	}
	return resp.Purged, resp.Error.Err()
}

// GetStats fetches the caller's counters via the get-stats service.
func (a *taskAdapter) GetStats(ctx context.Context, token string) (*profile.PrincipalStats, error) {
	req := StatsRequest{Token: token}
	var resp StatsResponse
	if err := callService(ctx, a.container, ServiceGetStats, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.Err()
	}
	return resp.Stats, nil
}

// ReconcileStats recomputes the caller's counters via the reconcile-stats service.
func (a *taskAdapter) ReconcileStats(ctx context.Context, token string) (*profile.PrincipalStats, error) {
	req := StatsRequest{Token: token}
	var resp StatsResponse
	if err := callService(ctx, a.container, ServiceReconcileStats, &req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error.Err()
	}
	return resp.Stats, nil
}
