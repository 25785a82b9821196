// Package ledger keeps an append-only record of generation outcomes.
//
// Every chat turn and copy generation produces one Record: what ran, how it
// ended, how long it took and how much text moved. Records never contain
// conversation or copy text; conversation state stays in memory only.
//
// # Storage
//
// Two backends implement Storage:
//
//   - MemoryStorage keeps records in process memory.
//   - SQLiteStorage writes to a SQLite file through either modernc.org/sqlite
//     (driver "sqlite", pure Go) or github.com/mattn/go-sqlite3 (driver
//     "sqlite3", cgo).
//
// # Recording
//
// The Recorder queues records and writes them from a background goroutine,
// so handlers never block on the database. When the queue is full, records
// are dropped and a warning is logged.
//
// # Retention
//
// The Pruner deletes records older than the retention period and trims the
// oldest records beyond a maximum count. Schedule registers it as a cron
// job:
//
//	pruner := ledger.NewPruner(store, ledger.RetentionConfig{
//	    RetentionDays: 30,
//	    PruneSchedule: "0 3 * * *",
//	}, logger)
//	if err := pruner.Schedule(sched); err != nil {
//	    return err
//	}
package ledger
