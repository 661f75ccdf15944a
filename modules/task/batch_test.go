package task

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/example/taskflow/domain/task"
)

func TestBatch_ScenarioD_PartialFailure(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	t2 := ts.create(t, alice, domain.CreateInput{Title: "T2"})
	t3 := ts.create(t, alice, domain.CreateInput{Title: "T3"})
	t4 := ts.create(t, bob, domain.CreateInput{Title: "T4"})

	result, err := ts.service.Batch(ctx, alice, BatchDelete, []string{t2.ID, t3.ID, t4.ID}, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalAttempted)
	assert.Equal(t, []string{t2.ID, t3.ID}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, t4.ID, result.Failed[0].ID)
	assert.Equal(t, CodeNotFound, result.Failed[0].Code)
	assert.NotEmpty(t, result.Failed[0].Reason)
	assert.InDelta(t, 0.667, result.SuccessRate, 0.0005)
	assert.Equal(t, []string{t4.ID}, result.FailedIDs())

	// Successful items are committed, the failed one is untouched.
	_, err = ts.service.Get(ctx, alice, t2.ID, domain.ViewDeleted)
	assert.NoError(t, err)
	_, err = ts.service.Get(ctx, bob, t4.ID, domain.ViewActive)
	assert.NoError(t, err)

	assert.Zero(t, ts.stats(t, alice).TaskCount)
	assert.Equal(t, int64(1), ts.stats(t, bob).TaskCount)
}

func TestBatch_CapacityRejectsWholeBatch(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	first := ts.create(t, alice, domain.CreateInput{})
	ids := []string{first.ID}
	for i := 1; i <= 50; i++ {
		ids = append(ids, fmt.Sprintf("missing-%d", i))
	}

	_, err := ts.service.Batch(ctx, alice, BatchDelete, ids, nil)
	var cerr *domain.CapacityError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 51, cerr.Size)
	assert.Equal(t, 50, cerr.Limit)

	_, err = ts.service.Get(ctx, alice, first.ID, domain.ViewActive)
	assert.NoError(t, err, "nothing is applied when the cap is exceeded")

	result, err := ts.service.Batch(ctx, alice, BatchDelete, ids[:50], nil)
	require.NoError(t, err)
	assert.Equal(t, 50, result.TotalAttempted)
	assert.Equal(t, []string{first.ID}, result.Succeeded)
	assert.Len(t, result.Failed, 49)
}

func TestBatch_Validation(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		op      BatchOp
		ids     []string
		payload *domain.Patch
		field   string
	}{
		{name: "unknown op", op: "archive", ids: []string{"a"}, field: "op"},
		{name: "update without payload", op: BatchUpdate, ids: []string{"a"}, field: "payload"},
		{name: "update with empty payload", op: BatchUpdate, ids: []string{"a"}, payload: &domain.Patch{}, field: "payload"},
		{name: "no ids", op: BatchDelete, ids: nil, field: "ids"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.service.Batch(ctx, alice, tt.op, tt.ids, tt.payload)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestBatch_DuplicatesAreProcessedOnce(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	t1 := ts.create(t, alice, domain.CreateInput{})

	result, err := ts.service.Batch(ctx, alice, BatchDelete, []string{t1.ID, t1.ID, t1.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalAttempted)
	assert.Equal(t, []string{t1.ID}, result.Succeeded)
	assert.Empty(t, result.Failed)
	assert.Equal(t, 1.0, result.SuccessRate)
	assert.Zero(t, ts.stats(t, alice).TaskCount)
}

func TestBatch_UpdateAndRestore(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	mine := ts.create(t, alice, domain.CreateInput{Title: "mine"})
	assigned := ts.create(t, bob, domain.CreateInput{Title: "assigned", AssignedTo: "alice"})

	status := domain.StatusCompleted
	result, err := ts.service.Batch(ctx, alice, BatchUpdate, []string{mine.ID, assigned.ID},
		&domain.Patch{Status: &status, AddTags: []string{"q3"}})
	require.NoError(t, err)
	assert.Equal(t, []string{mine.ID, assigned.ID}, result.Succeeded)

	got, err := ts.service.Get(ctx, alice, assigned.ID, domain.ViewActive)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, []string{"q3"}, got.Tags)

	assert.Equal(t, int64(1), ts.stats(t, alice).CompletedTaskCount)
	assert.Equal(t, int64(1), ts.stats(t, bob).CompletedTaskCount)

	_, err = ts.service.Batch(ctx, alice, BatchDelete, []string{mine.ID, assigned.ID}, nil)
	require.NoError(t, err)

	// Only the owner may restore.
	result, err = ts.service.Batch(ctx, alice, BatchRestore, []string{mine.ID, assigned.ID}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{mine.ID}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, CodeForbidden, result.Failed[0].Code)
	assert.Equal(t, 0.5, result.SuccessRate)

	s := ts.stats(t, alice)
	assert.Equal(t, int64(1), s.TaskCount)
	assert.Equal(t, int64(1), s.CompletedTaskCount)
}

func TestBatch_InvalidPayloadFailsEveryItem(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	t1 := ts.create(t, alice, domain.CreateInput{})
	progress := 150
	result, err := ts.service.Batch(ctx, alice, BatchUpdate, []string{t1.ID}, &domain.Patch{Progress: &progress})
	require.NoError(t, err)
	assert.Empty(t, result.Succeeded)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, CodeValidation, result.Failed[0].Code)
	assert.Zero(t, result.SuccessRate)
}

func TestBatch_CancelledContext(t *testing.T) {
	ts := setupTest(t)

	t1 := ts.create(t, alice, domain.CreateInput{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := ts.service.Batch(ctx, alice, BatchDelete, []string{t1.ID}, nil)
	require.NoError(t, err)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "cancelled", result.Failed[0].Reason)

	_, err = ts.service.Get(context.Background(), alice, t1.ID, domain.ViewActive)
	assert.NoError(t, err)
}

func TestBatch_AnonymousFailsEveryItem(t *testing.T) {
	ts := setupTest(t)

	t1 := ts.create(t, alice, domain.CreateInput{})
	result, err := ts.service.Batch(context.Background(), domain.Anonymous(), BatchDelete, []string{t1.ID, ""}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Succeeded)
	assert.Len(t, result.Failed, 2)
}
