package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Recorder writes records to storage in the background so that request
// handlers never wait on the database.
//
// A nil *Recorder is valid and drops every record.
type Recorder struct {
	storage      Storage
	recordChan   chan *Record
	writeTimeout time.Duration
	logger       *slog.Logger

	wg        sync.WaitGroup
	done      chan struct{}
	closeOnce sync.Once
}

// RecorderConfig contains configuration for the recorder.
type RecorderConfig struct {
	// AsyncBuffer is the size of the pending write queue.
	// Default: 256
	AsyncBuffer int

	// WriteTimeout bounds each storage write.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// NewRecorder creates a recorder and starts its writer goroutine.
func NewRecorder(storage Storage, config RecorderConfig, logger *slog.Logger) *Recorder {
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = 256
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		storage:      storage,
		recordChan:   make(chan *Record, config.AsyncBuffer),
		writeTimeout: config.WriteTimeout,
		logger:       logger.With("component", "ledger.recorder"),
		done:         make(chan struct{}),
	}

	r.wg.Add(1)
	go r.worker()

	return r
}

// Record enqueues a record. Missing IDs and timestamps are filled in. When
// the queue is full the record is dropped with a warning.
func (r *Recorder) Record(record *Record) {
	if r == nil || record == nil {
		return
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	select {
	case <-r.done:
		r.logger.Warn("recorder closed, dropping record", "record_id", record.ID)
		return
	default:
	}

	select {
	case r.recordChan <- record:
	default:
		r.logger.Warn("ledger queue full, dropping record",
			"record_id", record.ID,
			"kind", record.Kind,
			"capacity", cap(r.recordChan),
		)
	}
}

// Storage returns the backing store.
func (r *Recorder) Storage() Storage {
	if r == nil {
		return nil
	}
	return r.storage
}

// Close drains pending records and stops the writer. It does not close the
// storage.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	r.closeOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.write(record)

		case <-r.done:
			for {
				select {
				case record := <-r.recordChan:
					r.write(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(record *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
	defer cancel()

	if err := r.storage.Store(ctx, record); err != nil {
		r.logger.Error("failed to store ledger record",
			"record_id", record.ID,
			"kind", record.Kind,
			"error", err,
		)
		return
	}

	r.logger.Debug("ledger record stored",
		"record_id", record.ID,
		"kind", record.Kind,
		"status", record.Status,
	)
}
