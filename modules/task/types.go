package task

import (
	"context"
	"errors"
	"time"

	"github.com/example/taskflow/domain/profile"
	domain "github.com/example/taskflow/domain/task"
)

// Service names registered by the task module.
const (
	ServiceCreateTask     = "create-task"
	ServiceGetTask        = "get-task"
	ServiceListTasks      = "list-tasks"
	ServiceUpdateTask     = "update-task"
	ServiceSoftDeleteTask = "soft-delete-task"
	ServiceRestoreTask    = "restore-task"
	ServiceHardDeleteTask = "hard-delete-task"
	ServiceBatchTasks     = "batch-tasks"
	ServiceSweepRetention = "sweep-retention"
	ServiceGetStats       = "get-stats"
	ServiceReconcileStats = "reconcile-stats"
)

// Error codes carried in ErrorResponse.
const (
	CodeValidation      = "validation"
	CodeNotFound        = "not_found"
	CodeForbidden       = "forbidden"
	CodeConflict        = "conflict"
	CodeCapacity        = "capacity"
	CodeUnauthenticated = "unauthenticated"
	CodeInternal        = "internal"
)

// ErrorResponse describes a failed request across the service boundary.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Limit   int               `json:"limit,omitempty"`
	Size    int               `json:"size,omitempty"`
}

// ErrorCode classifies err into one of the Code constants.
func ErrorCode(err error) string {
	var verr *domain.ValidationError
	var cerr *domain.CapacityError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return CodeValidation
	case errors.As(err, &cerr):
		return CodeCapacity
	case errors.Is(err, domain.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, domain.ErrForbidden):
		return CodeForbidden
	case errors.Is(err, domain.ErrConflict):
		return CodeConflict
	case errors.Is(err, domain.ErrUnauthenticated):
		return CodeUnauthenticated
	}
	return CodeInternal
}

// NewErrorResponse converts a domain error into its wire form. Internal
// errors are reported without their details.
func NewErrorResponse(err error) *ErrorResponse {
	if err == nil {
		return nil
	}
	resp := &ErrorResponse{Code: ErrorCode(err), Message: err.Error()}
	var verr *domain.ValidationError
	var cerr *domain.CapacityError
	switch {
	case errors.As(err, &verr):
		resp.Fields = verr.Fields
	case errors.As(err, &cerr):
		resp.Limit, resp.Size = cerr.Limit, cerr.Size
	case resp.Code == CodeInternal:
		resp.Message = "internal error"
	}
	return resp
}

// Err converts the wire form back into the matching domain error.
func (e *ErrorResponse) Err() error {
	if e == nil {
		return nil
	}
	switch e.Code {
	case CodeValidation:
		verr := domain.NewValidationError()
		for field, msg := range e.Fields {
			verr.Add(field, msg)
		}
		if !verr.HasErrors() {
			verr.Add("request", e.Message)
		}
		return verr
	case CodeCapacity:
		return &domain.CapacityError{Size: e.Size, Limit: e.Limit}
	case CodeNotFound:
		return domain.ErrNotFound
	case CodeForbidden:
		return domain.ErrForbidden
	case CodeConflict:
		return domain.ErrConflict
	case CodeUnauthenticated:
		return domain.ErrUnauthenticated
	}
	return errors.New(e.Message)
}

// CreateTaskRequest is the request for creating a task.
type CreateTaskRequest struct {
	Token string `json:"token"`
	domain.CreateInput
}

// GetTaskRequest is the request for getting a task.
type GetTaskRequest struct {
	Token  string `json:"token"`
	TaskID string `json:"task_id"`
	View   string `json:"view,omitempty"`
}

// ListTasksRequest is the request for listing tasks.
type ListTasksRequest struct {
	Token  string        `json:"token"`
	View   string        `json:"view,omitempty"`
	Filter domain.Filter `json:"filter"`
}

// UpdateTaskRequest is the request for updating a task.
type UpdateTaskRequest struct {
	Token  string       `json:"token"`
	TaskID string       `json:"task_id"`
	Patch  domain.Patch `json:"patch"`
}

// TaskActionRequest targets one task with a lifecycle action.
type TaskActionRequest struct {
	Token  string `json:"token"`
	TaskID string `json:"task_id"`
}

// BatchTasksRequest applies one operation to many tasks.
type BatchTasksRequest struct {
	Token   string        `json:"token"`
	Op      BatchOp       `json:"op"`
	IDs     []string      `json:"ids"`
	Payload *domain.Patch `json:"payload,omitempty"`
}

// SweepRetentionRequest triggers a retention sweep. A zero threshold uses the
// configured retention.
type SweepRetentionRequest struct {
	ThresholdDays int `json:"threshold_days,omitempty"`
}

// StatsRequest asks for the acting principal's counters.
type StatsRequest struct {
	Token string `json:"token"`
}

// TaskResponse is the response for a single task.
type TaskResponse struct {
	Task  *domain.Task   `json:"task,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ListTasksResponse is one page of tasks.
type ListTasksResponse struct {
	Page  domain.Page[*domain.Task] `json:"page"`
	Error *ErrorResponse            `json:"error,omitempty"`
}

// TombstoneResponse is the response for a soft delete.
type TombstoneResponse struct {
	Tombstone *domain.TombstoneInfo `json:"tombstone,omitempty"`
	Error     *ErrorResponse        `json:"error,omitempty"`
}

// AckResponse acknowledges a permanent delete.
type AckResponse struct {
	TaskID  string         `json:"task_id,omitempty"`
	Deleted bool           `json:"deleted"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

// BatchTasksResponse carries the outcome of a batch.
type BatchTasksResponse struct {
	Result *BatchResult   `json:"result,omitempty"`
	Error  *ErrorResponse `json:"error,omitempty"`
}

// SweepRetentionResponse reports how many tasks a sweep purged.
type SweepRetentionResponse struct {
	Purged int            `json:"purged"`
	Cutoff time.Time      `json:"cutoff"`
	Error  *ErrorResponse `json:"error,omitempty"`
}

// StatsResponse carries a principal's counters.
type StatsResponse struct {
	Stats *profile.PrincipalStats `json:"stats,omitempty"`
	Error *ErrorResponse          `json:"error,omitempty"`
}

// TaskPort defines the interface for task operations used by other modules.
// Errors are the domain errors of the task package.
type TaskPort interface {
	CreateTask(ctx context.Context, token string, in domain.CreateInput) (*domain.Task, error)
	GetTask(ctx context.Context, token, taskID string, view domain.View) (*domain.Task, error)
	ListTasks(ctx context.Context, token string, filter domain.Filter, view domain.View) (*domain.Page[*domain.Task], error)
	UpdateTask(ctx context.Context, token, taskID string, patch domain.Patch) (*domain.Task, error)
	SoftDeleteTask(ctx context.Context, token, taskID string) (*domain.TombstoneInfo, error)
	RestoreTask(ctx context.Context, token, taskID string) (*domain.Task, error)
	HardDeleteTask(ctx context.Context, token, taskID string) error
	BatchTasks(ctx context.Context, token string, op BatchOp, ids []string, payload *domain.Patch) (*BatchResult, error)
	SweepRetention(ctx context.Context, thresholdDays int) (int, error)
	GetStats(ctx context.Context, token string) (*profile.PrincipalStats, error)
	ReconcileStats(ctx context.Context, token string) (*profile.PrincipalStats, error)
}
