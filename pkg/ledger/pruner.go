package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/quill/pkg/scheduler"
)

// RetentionConfig contains configuration for the retention pruner.
type RetentionConfig struct {
	// RetentionDays is the number of days to keep records.
	// 0 keeps records forever.
	RetentionDays int

	// MaxRecords is the maximum number of records to keep.
	// 0 means unlimited.
	MaxRecords int64

	// PruneSchedule is a cron expression, e.g. "0 3 * * *".
	PruneSchedule string
}

// Pruner enforces retention on a Storage.
type Pruner struct {
	storage Storage
	config  RetentionConfig
	logger  *slog.Logger
	now     func() time.Time
}

// NewPruner creates a new retention pruner.
func NewPruner(storage Storage, config RetentionConfig, logger *slog.Logger) *Pruner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		storage: storage,
		config:  config,
		logger:  logger.With("component", "ledger.retention"),
		now:     time.Now,
	}
}

// Prune deletes records older than the retention period, then the oldest
// records beyond MaxRecords. It returns the total number deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.RetentionDays > 0 {
		cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)
		deleted, err := p.storage.Delete(ctx, &Query{EndTime: &cutoff})
		if err != nil {
			return total, &RetentionError{RetentionDays: p.config.RetentionDays, Cause: err}
		}
		total += deleted
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += deleted
	}

	if total > 0 {
		p.logger.Info("ledger pruning completed",
			"total_deleted", total,
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	} else {
		p.logger.Debug("no ledger records pruned")
	}

	return total, nil
}

// pruneByCount deletes the oldest records while the total exceeds
// MaxRecords.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.storage.Count(ctx, &Query{})
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	if count <= p.config.MaxRecords {
		return 0, nil
	}

	// The newest record that falls outside the kept window marks the cutoff.
	excess := count - p.config.MaxRecords
	boundary, err := p.storage.Query(ctx, &Query{
		Ascending: true,
		Offset:    int(excess - 1),
		Limit:     1,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to find cutoff record: %w", err)
	}
	if len(boundary) == 0 {
		return 0, nil
	}

	cutoff := boundary[0].CreatedAt
	return p.storage.Delete(ctx, &Query{EndTime: &cutoff})
}

// Schedule registers the prune job with s.
func (p *Pruner) Schedule(s *scheduler.Scheduler) error {
	if p.config.RetentionDays <= 0 && p.config.MaxRecords <= 0 {
		return nil
	}
	return s.Add("ledger.prune", p.config.PruneSchedule, func(ctx context.Context) error {
		_, err := p.Prune(ctx)
		return err
	})
}
