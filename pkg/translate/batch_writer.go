package translate

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// WriteFunc performs database writes inside a batch transaction. tx is nil
// when the writer has no database.
type WriteFunc func(ctx context.Context, tx *sql.Tx) error

// BatchWriter groups writes into transactions. Batches commit in submission
// order on a single goroutine, so a later checkpoint never lands before an
// earlier one.
type BatchWriter struct {
	db   *sql.DB
	size int

	mu     sync.Mutex
	buf    []WriteFunc
	closed bool
	ticker *time.Ticker

	batches chan []WriteFunc
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// OnError is called for each failed or dropped batch.
	OnError func(error)

	errMu   sync.Mutex
	lastErr error
}

// NewBatchWriter starts a writer that commits every size writes and, when
// interval is positive, on that interval.
func NewBatchWriter(db *sql.DB, size int, interval time.Duration) *BatchWriter {
	if size <= 0 {
		size = 10
	}
	ctx, cancel := context.WithCancel(context.Background())
	bw := &BatchWriter{
		db:      db,
		size:    size,
		buf:     make([]WriteFunc, 0, size),
		batches: make(chan []WriteFunc, 2),
		ctx:     ctx,
		cancel:  cancel,
	}
	bw.wg.Add(1)
	go bw.commitLoop()
	if interval > 0 {
		bw.ticker = time.NewTicker(interval)
		bw.wg.Add(1)
		go bw.tickLoop()
	}
	return bw
}

// Submit queues w for the next batch.
func (bw *BatchWriter) Submit(w WriteFunc) error {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.closed {
		return ErrBatchWriterClosed
	}
	bw.buf = append(bw.buf, w)
	if len(bw.buf) >= bw.size {
		bw.flushLocked()
	}
	return nil
}

// Flush hands the buffered writes to the committer without waiting for them.
func (bw *BatchWriter) Flush() {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	bw.flushLocked()
}

// flushLocked needs bw.mu. A full commit queue blocks Submit, which is the
// backpressure the producer relies on.
func (bw *BatchWriter) flushLocked() {
	if len(bw.buf) == 0 {
		return
	}
	batch := bw.buf
	bw.buf = make([]WriteFunc, 0, bw.size)
	select {
	case bw.batches <- batch:
	case <-bw.ctx.Done():
		bw.report(fmt.Errorf("batch writer: dropping batch of %d writes after shutdown", len(batch)))
	}
}

func (bw *BatchWriter) report(err error) {
	bw.errMu.Lock()
	if bw.lastErr == nil {
		bw.lastErr = err
	}
	bw.errMu.Unlock()
	if bw.OnError != nil {
		bw.OnError(err)
	}
}

func (bw *BatchWriter) commitLoop() {
	defer bw.wg.Done()
	for batch := range bw.batches {
		if err := bw.commit(batch); err != nil {
			bw.report(err)
		}
	}
}

func (bw *BatchWriter) commit(batch []WriteFunc) error {
	// Flushing runs past shutdown, so it does not use bw.ctx.
	ctx := context.Background()
	if bw.db == nil {
		for _, w := range batch {
			if err := w(ctx, nil); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := bw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	for _, w := range batch {
		if err := w(ctx, tx); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch (%d writes): %w", len(batch), err)
	}
	return nil
}

func (bw *BatchWriter) tickLoop() {
	defer bw.wg.Done()
	for {
		select {
		case <-bw.ctx.Done():
			return
		case <-bw.ticker.C:
			bw.Flush()
		}
	}
}

// Close flushes what is buffered, waits for every batch to commit and
// returns the first error the writer saw.
func (bw *BatchWriter) Close() error {
	bw.mu.Lock()
	if bw.closed {
		bw.mu.Unlock()
		return ErrBatchWriterClosed
	}
	bw.closed = true
	if bw.ticker != nil {
		bw.ticker.Stop()
	}
	bw.flushLocked()
	bw.mu.Unlock()

	bw.cancel()
	close(bw.batches)
	bw.wg.Wait()

	bw.errMu.Lock()
	defer bw.errMu.Unlock()
	return bw.lastErr
}

// ErrBatchWriterClosed is returned by Submit and Close after Close.
var ErrBatchWriterClosed = &BatchWriterError{"batch writer closed"}

type BatchWriterError struct{ msg string }

func (e *BatchWriterError) Error() string { return e.msg }
