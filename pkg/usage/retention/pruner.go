package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"palisade-hq/palisade/pkg/usage"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is the number of days to retain request logs.
	// 0 means keep records forever (no age-based pruning).
	RetentionDays int

	// PruneSchedule is a cron expression for scheduling pruning.
	// Example: "0 3 * * *" (daily at 3 AM). Empty disables the scheduler.
	PruneSchedule string

	// MaxRecords is the maximum number of records to keep.
	// 0 means unlimited.
	MaxRecords int64
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: 90,
		PruneSchedule: "0 3 * * *",
		MaxRecords:    0,
	}
}

// Pruner enforces retention policy on request log records.
type Pruner struct {
	storage   usage.Storage
	config    *Config
	logger    *slog.Logger
	scheduler *Scheduler
}

// NewPruner creates a new retention pruner.
func NewPruner(storage usage.Storage, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}

	pruner := &Pruner{
		storage: storage,
		config:  config,
		logger:  slog.Default().With("component", "usage.retention"),
	}
	pruner.scheduler = NewScheduler(pruner)

	return pruner
}

// Prune deletes request log records older than the retention period, then
// trims the total count down to MaxRecords if configured. Returns the total
// number of records deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var totalDeleted int64

	if p.config.RetentionDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -p.config.RetentionDays)

		deleted, err := p.storage.Delete(ctx, cutoff)
		if err != nil {
			return totalDeleted, fmt.Errorf("prune by age failed: %w", err)
		}
		totalDeleted += deleted
		if deleted > 0 {
			p.logger.Info("pruned records by age",
				"deleted_count", deleted,
				"retention_days", p.config.RetentionDays,
			)
		}
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return totalDeleted, fmt.Errorf("prune by count failed: %w", err)
		}
		totalDeleted += deleted
		if deleted > 0 {
			p.logger.Info("pruned records by count",
				"deleted_count", deleted,
				"max_records", p.config.MaxRecords,
			)
		}
	}

	if totalDeleted == 0 {
		p.logger.Debug("no records pruned",
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	} else {
		p.logger.Info("request log pruning completed",
			"total_deleted", totalDeleted,
		)
	}

	return totalDeleted, nil
}

// pruneByCount deletes the oldest records when the total exceeds MaxRecords.
// It finds the timestamp of the newest record to remove and deletes
// everything strictly older, which may retain a few extra records when
// timestamps collide. That is acceptable for a soft cap.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &usage.Query{})
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}

	if count <= p.config.MaxRecords {
		return 0, nil
	}

	toDelete := count - p.config.MaxRecords

	// Records query newest-first; skip the records we keep to land on the
	// newest record that must go.
	boundary, err := p.storage.Query(ctx, &usage.Query{
		Limit:  1,
		Offset: int(p.config.MaxRecords),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to find count boundary: %w", err)
	}
	if len(boundary) == 0 {
		return 0, nil
	}

	cutoff := boundary[0].Timestamp.Add(time.Millisecond)

	p.logger.Info("record count exceeds limit, pruning oldest",
		"current_count", count,
		"max_records", p.config.MaxRecords,
		"to_delete", toDelete,
	)

	deleted, err := p.storage.Delete(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete failed: %w", err)
	}
	return deleted, nil
}

// Start starts the automatic pruning scheduler.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops the automatic pruning scheduler.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the time of the next scheduled pruning.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
