package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/taskflow/domain/profile"
	domain "github.com/example/taskflow/domain/task"
)

// mockLogger implements types.Logger for testing.
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger {
	return m
}
func (m *mockLogger) WithModule(_ string) types.Logger {
	return m
}
func (m *mockLogger) WithError(_ error) types.Logger {
	return m
}

// testClock is a settable clock shared by the service under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var (
	alice = domain.User("alice")
	bob   = domain.User("bob")
	carol = domain.User("carol")
)

type testSetup struct {
	db      *gorm.DB
	service *Service
	clock   *testClock
}

func setupTest(t *testing.T, opts ...ServiceOption) *testSetup {
	t.Helper()

	db, err := OpenDatabase(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	clock := &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	opts = append([]ServiceOption{WithClock(clock.Now)}, opts...)
	svc := NewService(db, &mockLogger{}, DefaultSettings(), opts...)
	require.NoError(t, svc.Migrate())

	return &testSetup{db: db, service: svc, clock: clock}
}

func (ts *testSetup) create(t *testing.T, p domain.Principal, in domain.CreateInput) *domain.Task {
	t.Helper()
	if in.Title == "" {
		in.Title = "task"
	}
	created, err := ts.service.Create(context.Background(), p, in)
	require.NoError(t, err)
	return created
}

func (ts *testSetup) stats(t *testing.T, p domain.Principal) *profile.PrincipalStats {
	t.Helper()
	stats, err := ts.service.GetStats(context.Background(), p)
	require.NoError(t, err)
	return stats
}

func ptr[T any](v T) *T { return &v }

func TestService_ScenarioA_CreateDefaultsAndVisibility(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	t1 := ts.create(t, alice, domain.CreateInput{Title: "Write report"})
	assert.NotEmpty(t, t1.ID)
	assert.Equal(t, domain.StatusPending, t1.Status)
	assert.Equal(t, domain.PriorityMedium, t1.Priority)
	assert.Equal(t, 0, t1.Progress)
	assert.Equal(t, "alice", t1.OwnerID)
	assert.Nil(t, t1.CompletedAt)

	_, err := ts.service.Get(ctx, bob, t1.ID, domain.ViewActive)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = ts.service.Get(ctx, domain.Anonymous(), t1.ID, domain.ViewActive)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := ts.service.Get(ctx, alice, t1.ID, domain.ViewActive)
	require.NoError(t, err)
	assert.Equal(t, "Write report", got.Title)
}

func TestService_Create_Errors(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	_, err := ts.service.Create(ctx, domain.Anonymous(), domain.CreateInput{Title: "x"})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = ts.service.Create(ctx, alice, domain.CreateInput{Title: " ", Progress: 120})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "progress")

	assert.Zero(t, ts.stats(t, alice).TaskCount)
}

func TestService_AssigneeCanReadAndEdit(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	t1 := ts.create(t, alice, domain.CreateInput{AssignedTo: "bob"})

	got, err := ts.service.Get(ctx, bob, t1.ID, domain.ViewActive)
	require.NoError(t, err)
	assert.Equal(t, t1.ID, got.ID)

	updated, err := ts.service.Update(ctx, bob, t1.ID, domain.Patch{Progress: ptr(40)})
	require.NoError(t, err)
	assert.Equal(t, 40, updated.Progress)

	_, err = ts.service.Update(ctx, carol, t1.ID, domain.Patch{Progress: ptr(50)})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Unassigning removes bob's visibility.
	_, err = ts.service.Update(ctx, alice, t1.ID, domain.Patch{AssignedTo: ptr("")})
	require.NoError(t, err)
	_, err = ts.service.Get(ctx, bob, t1.ID, domain.ViewActive)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_ScenarioB_CompletionRoundTrip(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	t1 := ts.create(t, alice, domain.CreateInput{Progress: 30})

	ts.clock.Advance(time.Hour)
	done, err := ts.service.Update(ctx, alice, t1.ID, domain.Patch{Status: ptr(domain.StatusCompleted)})
	require.NoError(t, err)
	assert.Equal(t, 100, done.Progress)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, done.CompletedAt.Equal(ts.clock.Now()))
	assert.Equal(t, int64(1), ts.stats(t, alice).CompletedTaskCount)

	back, err := ts.service.Update(ctx, alice, t1.ID, domain.Patch{Status: ptr(domain.StatusInProgress)})
	require.NoError(t, err)
	assert.Nil(t, back.CompletedAt)
	assert.Equal(t, 100, back.Progress)
	assert.Equal(t, int64(0), ts.stats(t, alice).CompletedTaskCount)

	stored, err := ts.service.Get(ctx, alice, t1.ID, domain.ViewActive)
	require.NoError(t, err)
	assert.Nil(t, stored.CompletedAt)
	assert.Equal(t, domain.StatusInProgress, stored.Status)
}

func TestService_Update_Validation(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()
	t1 := ts.create(t, alice, domain.CreateInput{Title: "keep"})

	_, err := ts.service.Update(ctx, alice, t1.ID, domain.Patch{Title: ptr(""), OwnerID: ptr("bob")})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "owner_id")

	stored, err := ts.service.Get(ctx, alice, t1.ID, domain.ViewActive)
	require.NoError(t, err)
	assert.Equal(t, "keep", stored.Title)
}

func TestService_ScenarioC_SoftDeleteThenHardDelete(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	t1 := ts.create(t, alice, domain.CreateInput{AssignedTo: "bob"})

	info, err := ts.service.SoftDelete(ctx, alice, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, t1.ID, info.ID)
	assert.True(t, info.IsDeleted)
	require.NotNil(t, info.DeletedBy)
	assert.Equal(t, "alice", *info.DeletedBy)

	active, err := ts.service.List(ctx, alice, domain.Filter{}, domain.ViewActive)
	require.NoError(t, err)
	assert.Empty(t, active.Items)

	deleted, err := ts.service.List(ctx, alice, domain.Filter{}, domain.ViewDeleted)
	require.NoError(t, err)
	require.Len(t, deleted.Items, 1)
	require.NotNil(t, deleted.Items[0].DeletedBy)
	assert.Equal(t, "alice", *deleted.Items[0].DeletedBy)

	err = ts.service.HardDelete(ctx, bob, t1.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, ts.service.HardDelete(ctx, alice, t1.ID))

	_, err = ts.service.Get(ctx, alice, t1.ID, domain.ViewFull)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = ts.service.HardDelete(ctx, alice, t1.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_SoftDelete_Rules(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	t1 := ts.create(t, alice, domain.CreateInput{AssignedTo: "bob"})

	_, err := ts.service.SoftDelete(ctx, carol, t1.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	info, err := ts.service.SoftDelete(ctx, bob, t1.ID)
	require.NoError(t, err)
	require.NotNil(t, info.DeletedBy)
	assert.Equal(t, "bob", *info.DeletedBy)

	_, err = ts.service.SoftDelete(ctx, alice, t1.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "second soft delete")

	_, err = ts.service.Update(ctx, alice, t1.ID, domain.Patch{Title: ptr("new")})
	assert.ErrorIs(t, err, domain.ErrNotFound, "update of a tombstone")

	_, err = ts.service.Get(ctx, alice, t1.ID, domain.ViewActive)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := ts.service.Get(ctx, alice, t1.ID, domain.ViewDeleted)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
}

func TestService_Restore(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	t1 := ts.create(t, alice, domain.CreateInput{AssignedTo: "bob"})

	_, err := ts.service.Restore(ctx, alice, t1.ID)
	assert.ErrorIs(t, err, domain.ErrConflict, "restore of an active task")

	_, err = ts.service.SoftDelete(ctx, alice, t1.ID)
	require.NoError(t, err)

	_, err = ts.service.Restore(ctx, bob, t1.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = ts.service.Restore(ctx, carol, t1.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	restored, err := ts.service.Restore(ctx, alice, t1.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
	assert.Nil(t, restored.DeletedAt)
	assert.Nil(t, restored.DeletedBy)

	got, err := ts.service.Get(ctx, alice, t1.ID, domain.ViewActive)
	require.NoError(t, err)
	assert.Equal(t, t1.Title, got.Title)
}

func TestService_StatsFollowEveryMutation(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	t1 := ts.create(t, alice, domain.CreateInput{})
	t2 := ts.create(t, alice, domain.CreateInput{Status: domain.StatusCompleted})
	ts.create(t, alice, domain.CreateInput{AssignedTo: "bob"})

	s := ts.stats(t, alice)
	assert.Equal(t, int64(3), s.TaskCount)
	assert.Equal(t, int64(1), s.CompletedTaskCount)
	assert.Zero(t, ts.stats(t, bob).TaskCount, "assignees do not own tasks")

	_, err := ts.service.Update(ctx, alice, t1.ID, domain.Patch{Status: ptr(domain.StatusCompleted)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), ts.stats(t, alice).CompletedTaskCount)

	_, err = ts.service.SoftDelete(ctx, alice, t2.ID)
	require.NoError(t, err)
	s = ts.stats(t, alice)
	assert.Equal(t, int64(2), s.TaskCount)
	assert.Equal(t, int64(1), s.CompletedTaskCount)

	_, err = ts.service.Restore(ctx, alice, t2.ID)
	require.NoError(t, err)
	s = ts.stats(t, alice)
	assert.Equal(t, int64(3), s.TaskCount)
	assert.Equal(t, int64(2), s.CompletedTaskCount)

	require.NoError(t, ts.service.HardDelete(ctx, alice, t1.ID))
	s = ts.stats(t, alice)
	assert.Equal(t, int64(2), s.TaskCount)
	assert.Equal(t, int64(1), s.CompletedTaskCount)

	// Purging a tombstone leaves the counters alone.
	_, err = ts.service.SoftDelete(ctx, alice, t2.ID)
	require.NoError(t, err)
	require.NoError(t, ts.service.HardDelete(ctx, alice, t2.ID))
	s = ts.stats(t, alice)
	assert.Equal(t, int64(1), s.TaskCount)
	assert.Equal(t, int64(0), s.CompletedTaskCount)

	reconciled, err := ts.service.ReconcileStats(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, s.TaskCount, reconciled.TaskCount)
	assert.Equal(t, s.CompletedTaskCount, reconciled.CompletedTaskCount)
}

func TestService_Stats_Unauthenticated(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	_, err := ts.service.GetStats(ctx, domain.Anonymous())
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	_, err = ts.service.ReconcileStats(ctx, domain.Anonymous())
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestService_ScenarioE_RetentionSweep(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()
	day := 24 * time.Hour

	old := ts.create(t, alice, domain.CreateInput{Title: "old"})
	recent := ts.create(t, alice, domain.CreateInput{Title: "recent"})
	active := ts.create(t, alice, domain.CreateInput{Title: "active"})

	_, err := ts.service.SoftDelete(ctx, alice, old.ID)
	require.NoError(t, err)
	ts.clock.Advance(2 * day)
	_, err = ts.service.SoftDelete(ctx, alice, recent.ID)
	require.NoError(t, err)
	ts.clock.Advance(29 * day)

	purged, cutoff, err := ts.service.SweepRetention(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)
	assert.True(t, cutoff.Equal(ts.clock.Now().AddDate(0, 0, -30)))

	_, err = ts.service.Get(ctx, alice, old.ID, domain.ViewFull)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = ts.service.Get(ctx, alice, recent.ID, domain.ViewDeleted)
	assert.NoError(t, err)
	_, err = ts.service.Get(ctx, alice, active.ID, domain.ViewActive)
	assert.NoError(t, err)

	purged, _, err = ts.service.SweepRetention(ctx, 30)
	require.NoError(t, err)
	assert.Zero(t, purged, "second sweep is a no-op")

	assert.Equal(t, int64(1), ts.stats(t, alice).TaskCount)
}

func TestService_SweepRetention_DefaultsAndErrors(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	t1 := ts.create(t, alice, domain.CreateInput{})
	_, err := ts.service.SoftDelete(ctx, alice, t1.ID)
	require.NoError(t, err)
	ts.clock.Advance(31 * 24 * time.Hour)

	_, _, err = ts.service.SweepRetention(ctx, -1)
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	purged, _, err := ts.service.SweepRetention(cancelled, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, purged)

	purged, _, err = ts.service.SweepRetention(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, purged, "zero threshold uses the configured retention")
}

func TestService_SweepRetention_SkipsRestored(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	t1 := ts.create(t, alice, domain.CreateInput{})
	_, err := ts.service.SoftDelete(ctx, alice, t1.ID)
	require.NoError(t, err)
	ts.clock.Advance(40 * 24 * time.Hour)
	_, err = ts.service.Restore(ctx, alice, t1.ID)
	require.NoError(t, err)

	purged, _, err := ts.service.SweepRetention(ctx, 30)
	require.NoError(t, err)
	assert.Zero(t, purged)
}

func TestService_SweepRetention_ContinuesAfterFailedPurge(t *testing.T) {
	ts := setupTest(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		task := ts.create(t, alice, domain.CreateInput{})
		_, err := ts.service.SoftDelete(ctx, alice, task.ID)
		require.NoError(t, err)
		ids = append(ids, task.ID)
		ts.clock.Advance(time.Hour)
	}
	ts.clock.Advance(31 * 24 * time.Hour)

	// The oldest tombstone is purged first; make that delete fail once.
	var deletes atomic.Int32
	require.NoError(t, ts.db.Callback().Delete().Before("gorm:delete").Register("test:fail_first_purge", func(tx *gorm.DB) {
		if tx.Statement.Table == "tasks" && deletes.Add(1) == 1 {
			tx.AddError(errors.New("disk full"))
		}
	}))

	purged, _, err := ts.service.SweepRetention(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, purged)

	_, err = ts.service.Get(ctx, alice, ids[0], domain.ViewDeleted)
	assert.NoError(t, err, "the failed purge is rolled back")
	for _, id := range ids[1:] {
		_, err = ts.service.Get(ctx, alice, id, domain.ViewFull)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}

	purged, _, err = ts.service.SweepRetention(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, purged, "the skipped task is picked up by the next sweep")
}

func TestService_Get_SharedReadSurvivesCancelledCaller(t *testing.T) {
	ts := setupTest(t)
	created := ts.create(t, alice, domain.CreateInput{Title: "shared"})

	entered := make(chan struct{})
	release := make(chan struct{})
	var blocked atomic.Bool
	require.NoError(t, ts.db.Callback().Query().Before("gorm:query").Register("test:block_first_read", func(tx *gorm.DB) {
		if tx.Statement.Table == "tasks" && blocked.CompareAndSwap(false, true) {
			close(entered)
			<-release
		}
	}))

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := ts.service.Get(first, alice, created.ID, domain.ViewActive)
		firstErr <- err
	}()
	<-entered

	type result struct {
		task *domain.Task
		err  error
	}
	second := make(chan result, 1)
	go func() {
		task, err := ts.service.Get(context.Background(), alice, created.ID, domain.ViewActive)
		second <- result{task: task, err: err}
	}()
	// Give the second caller time to join the read in flight.
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting for the shared read")
	}

	close(release)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, "shared", res.task.Title)
}

// fakeCache is an in-memory Cache that counts hits.
type fakeCache struct {
	mu        sync.Mutex
	tasks     map[string]*domain.Task
	stats     map[string]*profile.PrincipalStats
	taskHits  int
	statsHits int
}

var _ Cache = (*fakeCache)(nil)

func newFakeCache() *fakeCache {
	return &fakeCache{
		tasks: make(map[string]*domain.Task),
		stats: make(map[string]*profile.PrincipalStats),
	}
}

func (c *fakeCache) GetTask(_ context.Context, id string) (*domain.Task, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tasks[id]
	if !ok {
		return nil, false, nil
	}
	c.taskHits++
	return t.Clone(), true, nil
}

func (c *fakeCache) SetTask(_ context.Context, t *domain.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks[t.ID] = t.Clone()
	return nil
}

func (c *fakeCache) DeleteTasks(_ context.Context, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.tasks, id)
	}
	return nil
}

func (c *fakeCache) GetStats(_ context.Context, principalID string) (*profile.PrincipalStats, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.stats[principalID]
	if !ok {
		return nil, false, nil
	}
	c.statsHits++
	copied := *s
	return &copied, true, nil
}

func (c *fakeCache) SetStats(_ context.Context, stats *profile.PrincipalStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *stats
	c.stats[stats.PrincipalID] = &copied
	return nil
}

func (c *fakeCache) DeleteStats(_ context.Context, principalIDs ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range principalIDs {
		delete(c.stats, id)
	}
	return nil
}

// brokenCache fails every call.
type brokenCache struct{}

var errCacheDown = errors.New("cache down")

func (brokenCache) GetTask(context.Context, string) (*domain.Task, bool, error) {
	return nil, false, errCacheDown
}

func (brokenCache) SetTask(context.Context, *domain.Task) error {
	return errCacheDown
}

func (brokenCache) DeleteTasks(context.Context, ...string) error {
	return errCacheDown
}

func (brokenCache) GetStats(context.Context, string) (*profile.PrincipalStats, bool, error) {
	return nil, false, errCacheDown
}

func (brokenCache) SetStats(context.Context, *profile.PrincipalStats) error {
	return errCacheDown
}

func (brokenCache) DeleteStats(context.Context, ...string) error {
	return errCacheDown
}

func TestService_Cache_ReadThroughAndInvalidate(t *testing.T) {
	c := newFakeCache()
	ts := setupTest(t, WithCache(c))
	ctx := context.Background()

	t1 := ts.create(t, alice, domain.CreateInput{Title: "cached", AssignedTo: "bob"})

	_, err := ts.service.Get(ctx, alice, t1.ID, domain.ViewActive)
	require.NoError(t, err)
	_, err = ts.service.Get(ctx, bob, t1.ID, domain.ViewActive)
	require.NoError(t, err)
	assert.Equal(t, 1, c.taskHits)

	// A cached row is still subject to visibility.
	_, err = ts.service.Get(ctx, carol, t1.ID, domain.ViewActive)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = ts.service.Update(ctx, alice, t1.ID, domain.Patch{Title: ptr("renamed")})
	require.NoError(t, err)
	got, err := ts.service.Get(ctx, alice, t1.ID, domain.ViewActive)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)

	_, err = ts.service.SoftDelete(ctx, alice, t1.ID)
	require.NoError(t, err)
	_, err = ts.service.Get(ctx, alice, t1.ID, domain.ViewActive)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, int64(0), ts.stats(t, alice).TaskCount)
	assert.Equal(t, int64(0), ts.stats(t, alice).TaskCount)
	assert.Equal(t, 1, c.statsHits)

	ts.create(t, alice, domain.CreateInput{})
	assert.Equal(t, int64(1), ts.stats(t, alice).TaskCount, "create invalidates cached stats")
}

func TestService_Cache_FailuresFallBackToDatabase(t *testing.T) {
	ts := setupTest(t, WithCache(brokenCache{}))
	ctx := context.Background()

	t1 := ts.create(t, alice, domain.CreateInput{})
	got, err := ts.service.Get(ctx, alice, t1.ID, domain.ViewActive)
	require.NoError(t, err)
	assert.Equal(t, t1.ID, got.ID)
	assert.Equal(t, int64(1), ts.stats(t, alice).TaskCount)
}
