package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/taskflow/events"
	"github.com/example/taskflow/modules/identity"
)

// ModuleConfig configures the task module.
type ModuleConfig struct {
	DBPath   string
	DBDebug  bool
	Settings Settings
}

// TaskModule is the core module: it owns the task store and exposes the
// task operations as request-reply services.
type TaskModule struct {
	config   ModuleConfig
	logger   types.Logger
	db       *gorm.DB
	service  *Service
	identity identity.IdentityPort
	eventBus mono.EventBus
	cache    Cache
}

// Compile-time interface checks.
var _ mono.Module = (*TaskModule)(nil)
var _ mono.ServiceProviderModule = (*TaskModule)(nil)
var _ mono.DependentModule = (*TaskModule)(nil)
var _ mono.EventEmitterModule = (*TaskModule)(nil)
var _ mono.HealthCheckableModule = (*TaskModule)(nil)

// NewModule creates a new TaskModule.
func NewModule(config ModuleConfig, logger types.Logger) *TaskModule {
	return &TaskModule{
		config: config,
		logger: logger.WithModule("task"),
	}
}

// Name returns the module name.
func (m *TaskModule) Name() string {
	return "task"
}

// Dependencies returns the modules this module needs.
func (m *TaskModule) Dependencies() []string {
	return []string{"identity"}
}

// SetDependencyServiceContainer receives the service containers of dependencies.
func (m *TaskModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "identity" {
		m.identity = identity.NewIdentityAdapter(container)
	}
}

// SetEventBus receives the event bus used to publish lifecycle events.
func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// SetCache enables the cache-aside path. It must be called before Start.
func (m *TaskModule) SetCache(c Cache) {
	m.cache = c
}

// Service returns the task service, or nil before Start.
func (m *TaskModule) Service() *Service {
	return m.service
}

// EmitEvents declares the events this module publishes.
func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskUpdatedV1.ToBase(),
		events.TaskCompletedV1.ToBase(),
		events.TaskSoftDeletedV1.ToBase(),
		events.TaskRestoredV1.ToBase(),
		events.TaskPurgedV1.ToBase(),
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	registrations := []struct {
		name     string
		register func() error
	}{
		{ServiceCreateTask, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceCreateTask, json.Unmarshal, json.Marshal, m.createTask)
		}},
		{ServiceGetTask, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceGetTask, json.Unmarshal, json.Marshal, m.getTask)
		}},
		{ServiceListTasks, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceListTasks, json.Unmarshal, json.Marshal, m.listTasks)
		}},
		{ServiceUpdateTask, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceUpdateTask, json.Unmarshal, json.Marshal, m.updateTask)
		}},
		{ServiceSoftDeleteTask, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceSoftDeleteTask, json.Unmarshal, json.Marshal, m.softDeleteTask)
		}},
		{ServiceRestoreTask, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceRestoreTask, json.Unmarshal, json.Marshal, m.restoreTask)
		}},
		{ServiceHardDeleteTask, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceHardDeleteTask, json.Unmarshal, json.Marshal, m.hardDeleteTask)
		}},
		{ServiceBatchTasks, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceBatchTasks, json.Unmarshal, json.Marshal, m.batchTasks)
		}},
		{ServiceSweepRetention, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceSweepRetention, json.Unmarshal, json.Marshal, m.sweepRetention)
		}},
		{ServiceGetStats, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceGetStats, json.Unmarshal, json.Marshal, m.getStats)
		}},
		{ServiceReconcileStats, func() error {
			return helper.RegisterTypedRequestReplyService(container, ServiceReconcileStats, json.Unmarshal, json.Marshal, m.reconcileStats)
		}},
	}

	for _, r := range registrations {
		if err := r.register(); err != nil {
			return fmt.Errorf("failed to register %s service: %w", r.name, err)
		}
	}

	log.Printf("[task] Registered %d services: create-task, get-task, list-tasks, update-task, soft-delete-task, "+
		"restore-task, hard-delete-task, batch-tasks, sweep-retention, get-stats, reconcile-stats", len(registrations))
	return nil
}

// Start opens the database, runs migrations and builds the service.
func (m *TaskModule) Start(_ context.Context) error {
	if m.identity == nil {
		return fmt.Errorf("identity dependency not set")
	}

	log.Printf("[task] Connecting to SQLite database: %s", m.config.DBPath)
	db, err := OpenDatabase(m.config.DBPath, m.config.DBDebug)
	if err != nil {
		return err
	}
	m.db = db

	opts := []ServiceOption{}
	if m.eventBus != nil {
		opts = append(opts, WithEventBus(m.eventBus))
	} else {
		log.Println("[task] Warning: eventBus not set, events will not be published")
	}
	if m.cache != nil {
		opts = append(opts, WithCache(m.cache))
	}

	m.service = NewService(db, m.logger, m.config.Settings, opts...)
	if err := m.service.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Printf("[task] Module started (retention: %d days, max batch: %d, cache: %v)",
		m.config.Settings.RetentionDays, m.config.Settings.MaxBatchSize, m.cache != nil)
	return nil
}

// Stop gracefully closes the database connection.
func (m *TaskModule) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}

	log.Println("[task] Closing database connection...")
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Println("[task] Module stopped")
	return nil
}

// Health performs a health check on the task module.
func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := m.service.Ping(pingCtx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver":         "sqlite",
			"path":           m.config.DBPath,
			"cache_enabled":  m.cache != nil,
			"retention_days": m.config.Settings.RetentionDays,
		},
	}
}

// OpenDatabase opens the SQLite database with a single pooled connection so
// writers are serialized.
func OpenDatabase(path string, debug bool) (*gorm.DB, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}
