package profile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/taskflow/domain/task"
)

// PrincipalStats holds the derived task counters of one principal.
type PrincipalStats struct {
	PrincipalID        string    `gorm:"primarykey;size:64" json:"principal_id"`
	TaskCount          int64     `gorm:"not null;default:0" json:"task_count"`
	CompletedTaskCount int64     `gorm:"not null;default:0" json:"completed_task_count"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TableName returns the table name for the PrincipalStats model.
func (PrincipalStats) TableName() string {
	return "principal_stats"
}

// Delta is a pending change to one principal's counters.
type Delta struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// IsZero reports whether the delta changes nothing.
func (d Delta) IsZero() bool {
	return d.Total == 0 && d.Completed == 0
}

// Deltas accumulates per-owner changes.
type Deltas map[string]Delta

// Add folds a change for owner into the set.
func (d Deltas) Add(owner string, total, completed int) {
	if owner == "" || (total == 0 && completed == 0) {
		return
	}
	cur := d[owner]
	cur.Total += total
	cur.Completed += completed
	d[owner] = cur
}

// Owners returns the owners with a non-zero delta, sorted.
func (d Deltas) Owners() []string {
	owners := make([]string, 0, len(d))
	for owner, delta := range d {
		if !delta.IsZero() {
			owners = append(owners, owner)
		}
	}
	sort.Strings(owners)
	return owners
}

// Synchronizer keeps PrincipalStats consistent with the tasks table using
// transactional increments.
type Synchronizer struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSynchronizer creates a stats synchronizer over db.
func NewSynchronizer(db *gorm.DB) *Synchronizer {
	return &Synchronizer{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Migrate runs database migrations for the principal_stats table.
func (s *Synchronizer) Migrate() error {
	return s.db.AutoMigrate(&PrincipalStats{})
}

func (s *Synchronizer) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

// Adjust increments the counters of owner by the given amounts in a single
// upsert. Pass the caller's transaction as tx so the change commits with the
// mutation that caused it. Counters never drop below zero.
func (s *Synchronizer) Adjust(ctx context.Context, tx *gorm.DB, owner string, dTotal, dCompleted int) error {
	if owner == "" || (dTotal == 0 && dCompleted == 0) {
		return nil
	}
	row := PrincipalStats{
		PrincipalID:        owner,
		TaskCount:          int64(max(dTotal, 0)),
		CompletedTaskCount: int64(max(dCompleted, 0)),
		UpdatedAt:          s.now(),
	}
	err := s.handle(tx).WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "principal_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"task_count":           clampedAdd("task_count", dTotal),
			"completed_task_count": clampedAdd("completed_task_count", dCompleted),
			"updated_at":           row.UpdatedAt,
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to adjust stats for %s: %w", owner, err)
	}
	return nil
}

func clampedAdd(column string, delta int) clause.Expr {
	return gorm.Expr(fmt.Sprintf("CASE WHEN %[1]s + ? < 0 THEN 0 ELSE %[1]s + ? END", column), delta, delta)
}

// AdjustMany applies every delta in one transaction.
func (s *Synchronizer) AdjustMany(ctx context.Context, deltas Deltas) error {
	owners := deltas.Owners()
	if len(owners) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, owner := range owners {
			d := deltas[owner]
			if err := s.Adjust(ctx, tx, owner, d.Total, d.Completed); err != nil {
				return err
			}
		}
		return nil
	})
}

// Recount rebuilds the counters of owner from the tasks table.
func (s *Synchronizer) Recount(ctx context.Context, tx *gorm.DB, owner string) (*PrincipalStats, error) {
	db := s.handle(tx)
	total, completed, err := task.NewRepository(db).CountOwned(ctx, owner)
	if err != nil {
		return nil, err
	}
	row := PrincipalStats{
		PrincipalID:        owner,
		TaskCount:          total,
		CompletedTaskCount: completed,
		UpdatedAt:          s.now(),
	}
	err = db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "principal_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"task_count", "completed_task_count", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to store recount for %s: %w", owner, err)
	}
	return &row, nil
}

// RecountMany rebuilds the counters of each owner, stopping at the first error.
func (s *Synchronizer) RecountMany(ctx context.Context, owners []string) error {
	for _, owner := range owners {
		if _, err := s.Recount(ctx, nil, owner); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the counters of owner. A principal without a row has zero counters.
func (s *Synchronizer) Get(ctx context.Context, owner string) (*PrincipalStats, error) {
	var stats PrincipalStats
	err := s.db.WithContext(ctx).First(&stats, "principal_id = ?", owner).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &PrincipalStats{PrincipalID: owner}, nil
		}
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &stats, nil
}
