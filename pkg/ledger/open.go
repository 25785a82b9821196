package ledger

import (
	"fmt"
	"log/slog"

	"mercator-hq/quill/pkg/config"
)

// Open creates the storage backend selected by cfg.
func Open(cfg config.LedgerConfig, logger *slog.Logger) (Storage, error) {
	switch cfg.Backend {
	case "memory", "":
		return NewMemoryStorage(), nil
	case "sqlite":
		return NewSQLiteStorage(SQLiteConfig{
			Driver:      cfg.Driver,
			Path:        cfg.Path,
			BusyTimeout: cfg.BusyTimeout,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}

// RetentionFromConfig extracts the retention settings from cfg.
func RetentionFromConfig(cfg config.LedgerConfig) RetentionConfig {
	return RetentionConfig{
		RetentionDays: cfg.RetentionDays,
		MaxRecords:    int64(cfg.MaxRecords),
		PruneSchedule: cfg.PruneSchedule,
	}
}
