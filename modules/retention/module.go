// Package retention runs the background sweep that purges expired tombstones.
package retention

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"

	"github.com/example/taskflow/modules/task"
)

// Sweeper purges tombstones older than thresholdDays. Zero means the task
// module's configured retention.
type Sweeper interface {
	SweepRetention(ctx context.Context, thresholdDays int) (int, error)
}

// Config configures the sweeper.
type Config struct {
	// Interval between sweeps. Zero disables the sweeper.
	Interval time.Duration
	// ThresholdDays is passed to every sweep; zero defers to the task module.
	ThresholdDays int
	// Timeout bounds a single sweep.
	Timeout time.Duration
}

// SweeperModule calls the sweep-retention service on a fixed interval.
type SweeperModule struct {
	config  Config
	logger  types.Logger
	sweeper Sweeper

	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once

	mu        sync.Mutex
	lastRun   time.Time
	lastCount int
	lastErr   error
	runs      int
}

// Compile-time interface checks.
var _ mono.Module = (*SweeperModule)(nil)
var _ mono.DependentModule = (*SweeperModule)(nil)
var _ mono.HealthCheckableModule = (*SweeperModule)(nil)

// NewModule creates a new SweeperModule.
func NewModule(config Config, logger types.Logger) *SweeperModule {
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Minute
	}
	return &SweeperModule{
		config: config,
		logger: logger.WithModule("retention"),
	}
}

// Name returns the module name.
func (m *SweeperModule) Name() string {
	return "retention"
}

// Dependencies returns the modules this module needs.
func (m *SweeperModule) Dependencies() []string {
	return []string{"task"}
}

// SetDependencyServiceContainer receives the service containers of dependencies.
func (m *SweeperModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "task" {
		m.sweeper = task.NewTaskAdapter(container)
	}
}

// SetSweeper replaces the sweeper, for in-process wiring.
func (m *SweeperModule) SetSweeper(s Sweeper) {
	m.sweeper = s
}

// Start launches the sweep loop unless the interval is zero.
func (m *SweeperModule) Start(_ context.Context) error {
	if m.config.Interval <= 0 {
		log.Println("[retention] Sweeper disabled (interval is 0)")
		return nil
	}
	if m.sweeper == nil {
		return fmt.Errorf("task dependency not set")
	}

	m.stopChan = make(chan struct{})
	m.doneChan = make(chan struct{})
	go m.run()

	log.Printf("[retention] Sweeper started (interval: %s)", m.config.Interval)
	return nil
}

func (m *SweeperModule) run() {
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()
	defer close(m.doneChan)

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.sweepUntilStopped()
		}
	}
}

// sweepUntilStopped runs one sweep that is cancelled when the module stops.
func (m *SweeperModule) sweepUntilStopped() {
	ctx, cancel := context.WithTimeout(context.Background(), m.config.Timeout)
	defer cancel()

	go func() {
		select {
		case <-m.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	_, _ = m.RunOnce(ctx)
}

// RunOnce performs a single sweep and records its outcome.
func (m *SweeperModule) RunOnce(ctx context.Context) (int, error) {
	if m.sweeper == nil {
		return 0, fmt.Errorf("task dependency not set")
	}
	started := time.Now()
	purged, err := m.sweeper.SweepRetention(ctx, m.config.ThresholdDays)

	m.mu.Lock()
	m.lastRun = started
	m.lastCount = purged
	m.lastErr = err
	m.runs++
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("Retention sweep failed", "purged", purged, "error", err)
		return purged, err
	}
	m.logger.Info("Retention sweep completed", "purged", purged, "duration", time.Since(started).String())
	return purged, nil
}

// Stop signals the loop and waits for the current sweep to end.
func (m *SweeperModule) Stop(ctx context.Context) error {
	if m.stopChan == nil {
		return nil
	}

	m.stopOnce.Do(func() {
		close(m.stopChan)
	})

	select {
	case <-m.doneChan:
		log.Println("[retention] Sweeper stopped")
	case <-ctx.Done():
		log.Println("[retention] Sweeper shutdown timeout exceeded")
		return ctx.Err()
	}
	return nil
}

// Health reports the outcome of the most recent sweep. A failed sweep does
// not make the module unhealthy; the next tick retries.
func (m *SweeperModule) Health(_ context.Context) mono.HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	details := map[string]any{
		"interval": m.config.Interval.String(),
		"runs":     m.runs,
	}
	if !m.lastRun.IsZero() {
		details["last_run"] = m.lastRun.UTC().Format(time.RFC3339)
		details["last_purged"] = m.lastCount
	}
	if m.lastErr != nil {
		details["last_error"] = m.lastErr.Error()
	}

	message := "operational"
	if m.config.Interval <= 0 {
		message = "disabled"
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: message,
		Details: details,
	}
}
