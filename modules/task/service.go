package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/example/taskflow/domain/profile"
	domain "github.com/example/taskflow/domain/task"
)

// Settings are the tunables of the task service.
type Settings struct {
	RetentionDays    int
	MaxBatchSize     int
	BatchConcurrency int
	DefaultPageSize  int
	MaxPageSize      int
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		RetentionDays:    30,
		MaxBatchSize:     50,
		BatchConcurrency: 4,
		DefaultPageSize:  20,
		MaxPageSize:      100,
	}
}

// Cache stores task rows and owner counters. Implementations must treat
// every error as a miss; the database stays the source of truth.
type Cache interface {
	GetTask(ctx context.Context, id string) (*domain.Task, bool, error)
	SetTask(ctx context.Context, t *domain.Task) error
	DeleteTasks(ctx context.Context, ids ...string) error
	GetStats(ctx context.Context, principalID string) (*profile.PrincipalStats, bool, error)
	SetStats(ctx context.Context, stats *profile.PrincipalStats) error
	DeleteStats(ctx context.Context, principalIDs ...string) error
}

// Service implements visibility, querying, the task lifecycle and batch
// mutations on top of the task repository and the stats synchronizer.
type Service struct {
	db       *gorm.DB
	repo     *domain.Repository
	stats    *profile.Synchronizer
	cache    Cache
	bus      mono.EventBus
	logger   types.Logger
	settings Settings
	now      func() time.Time
	newID    func() string
	sfGroup  singleflight.Group
}

// ServiceOption configures optional collaborators of a Service.
type ServiceOption func(*Service)

// WithCache enables the cache-aside path for task rows and stats.
func WithCache(c Cache) ServiceOption {
	return func(s *Service) { s.cache = c }
}

// WithEventBus enables lifecycle event publishing.
func WithEventBus(bus mono.EventBus) ServiceOption {
	return func(s *Service) { s.bus = bus }
}

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the UUID generator for new task ids.
func WithIDGenerator(newID func() string) ServiceOption {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a task service over db.
func NewService(db *gorm.DB, logger types.Logger, settings Settings, opts ...ServiceOption) *Service {
	s := &Service{
		db:       db,
		repo:     domain.NewRepository(db),
		stats:    profile.NewSynchronizer(db),
		logger:   logger,
		settings: settings,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates or updates the tables the service uses.
func (s *Service) Migrate() error {
	if err := s.repo.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate tasks: %w", err)
	}
	if err := s.stats.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate principal stats: %w", err)
	}
	return nil
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// Create validates the input and stores a new task owned by p.
func (s *Service) Create(ctx context.Context, p domain.Principal, in domain.CreateInput) (*domain.Task, error) {
	if !p.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}
	now := s.clock()
	t, err := domain.NewTask(in, p, now)
	if err != nil {
		return nil, err
	}
	t.ID = s.newID()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, t); err != nil {
			return err
		}
		total, completed := t.Contribution()
		return s.stats.Adjust(ctx, tx, t.OwnerID, total, completed)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Task created", "task_id", t.ID, "principal", p.ID)
	s.afterCommit(ctx, p, opCreate, mutation{after: t})
	return t, nil
}

// Get returns the task if it is in view and visible to p. Invisible and
// missing tasks are both ErrNotFound.
func (s *Service) Get(ctx context.Context, p domain.Principal, id string, view domain.View) (*domain.Task, error) {
	if !p.IsAuthenticated() || id == "" {
		return nil, domain.ErrNotFound
	}
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !view.Contains(t) {
		return nil, domain.ErrNotFound
	}
	if err := domain.Authorize(p, t, domain.ActionRead); err != nil {
		return nil, err
	}
	return t, nil
}

// load reads a task through the cache. Concurrent misses for the same id
// share one database read.
func (s *Service) load(ctx context.Context, id string) (*domain.Task, error) {
	if s.cache != nil {
		cached, found, err := s.cache.GetTask(ctx, id)
		if err != nil {
			s.logger.Warn("Cache read failed", "task_id", id, "error", err)
		}
		if found {
			return cached, nil
		}
	}

	// The shared read outlives any single caller; each caller still stops
	// waiting when its own ctx is done.
	ch := s.sfGroup.DoChan("task:"+id, func() (any, error) {
		return s.repo.Get(context.WithoutCancel(ctx), id, domain.ViewFull)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	t := res.Val.(*domain.Task).Clone()

	if s.cache != nil {
		if err := s.cache.SetTask(ctx, t); err != nil {
			s.logger.Warn("Cache write failed", "task_id", id, "error", err)
		}
	}
	return t, nil
}

// List returns one page of the tasks visible to p that match the filter.
// IncludeDeleted widens the active view to the full view.
func (s *Service) List(ctx context.Context, p domain.Principal, f domain.Filter, view domain.View) (*domain.Page[*domain.Task], error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	f.Normalize(s.settings.DefaultPageSize, s.settings.MaxPageSize)
	if !p.IsAuthenticated() {
		page := domain.NewPage[*domain.Task](nil, 0, f.Page, f.PageSize)
		return &page, nil
	}
	if f.IncludeDeleted && view == domain.ViewActive {
		view = domain.ViewFull
	}

	tasks, total, err := s.repo.List(ctx, view, composeScopes(p, f, s.clock()), orderClause(f), f.Offset(), f.PageSize)
	if err != nil {
		return nil, err
	}
	page := domain.NewPage(tasks, total, f.Page, f.PageSize)
	return &page, nil
}

// Update applies a patch to an active task the principal may edit.
func (s *Service) Update(ctx context.Context, p domain.Principal, id string, patch domain.Patch) (*domain.Task, error) {
	m, err := s.applyOne(ctx, p, id, opUpdate, updateFn(patch))
	if err != nil {
		return nil, err
	}
	return m.after, nil
}

// GetStats returns the counters of the acting principal.
func (s *Service) GetStats(ctx context.Context, p domain.Principal) (*profile.PrincipalStats, error) {
	if !p.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if s.cache != nil {
		cached, found, err := s.cache.GetStats(ctx, p.ID)
		if err != nil {
			s.logger.Warn("Cache read failed", "principal", p.ID, "error", err)
		}
		if found {
			return cached, nil
		}
	}
	stats, err := s.stats.Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetStats(ctx, stats); err != nil {
			s.logger.Warn("Cache write failed", "principal", p.ID, "error", err)
		}
	}
	return stats, nil
}

// ReconcileStats recounts the acting principal's counters from the tasks table.
func (s *Service) ReconcileStats(ctx context.Context, p domain.Principal) (*profile.PrincipalStats, error) {
	if !p.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}
	var stats *profile.PrincipalStats
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		stats, err = s.stats.Recount(ctx, tx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, nil, []string{p.ID})
	s.logger.Info("Stats reconciled", "principal", p.ID, "task_count", stats.TaskCount,
		"completed_task_count", stats.CompletedTaskCount)
	return stats, nil
}

// Ping checks the database connection.
func (s *Service) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// invalidate drops cached rows and counters. Failures only cost freshness
// until the TTL expires, so they are logged.
func (s *Service) invalidate(ctx context.Context, taskIDs, owners []string) {
	if s.cache == nil {
		return
	}
	if len(taskIDs) > 0 {
		if err := s.cache.DeleteTasks(ctx, taskIDs...); err != nil {
			s.logger.Warn("Cache invalidation failed", "task_ids", taskIDs, "error", err)
		}
	}
	if len(owners) > 0 {
		if err := s.cache.DeleteStats(ctx, owners...); err != nil {
			s.logger.Warn("Cache invalidation failed", "owners", owners, "error", err)
		}
	}
}

// isInternal reports whether err is outside the domain error taxonomy.
func isInternal(err error) bool {
	return err != nil && ErrorCode(err) == CodeInternal && !errors.Is(err, context.Canceled)
}
