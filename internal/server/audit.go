package server

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AuditEntry is one recorded API call. Entries are batched off the request
// path so audit writes never add latency to a handler.
type AuditEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	StatusCode int       `json:"status_code"`
	ActorID    string    `json:"actor_id,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

// AuditManager aggregates audit entries into batches and hands them to a
// small worker pool for emission. A batch flushes when it is full or when
// the flush timeout fires, whichever comes first.
type AuditManager struct {
	workerCount  int
	batchSize    int
	flushTimeout time.Duration
	logger       *zap.Logger

	inputChan  chan AuditEntry
	batchChan  chan []AuditEntry
	shutdownCh chan struct{}
	once       sync.Once
	wg         sync.WaitGroup
}

func NewAuditManager(workerCount, batchSize int, flushTimeout time.Duration, logger *zap.Logger) *AuditManager {
	return &AuditManager{
		workerCount:  workerCount,
		batchSize:    batchSize,
		flushTimeout: flushTimeout,
		logger:       logger,
		inputChan:    make(chan AuditEntry, workerCount*batchSize*2),
		batchChan:    make(chan []AuditEntry, workerCount*2),
		shutdownCh:   make(chan struct{}),
	}
}

func (m *AuditManager) Start(ctx context.Context) {
	m.wg.Add(1)
	go m.runAggregator(ctx)

	for i := 0; i < m.workerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(ctx, i)
	}
}

// Record enqueues an entry. If the pipeline is saturated or shut down the
// entry is emitted inline rather than dropped.
func (m *AuditManager) Record(ctx context.Context, entry AuditEntry) {
	select {
	case m.inputChan <- entry:
	case <-ctx.Done():
		m.emit(-1, entry)
	case <-m.shutdownCh:
		m.emit(-1, entry)
	}
}

func (m *AuditManager) Shutdown(ctx context.Context) {
	m.once.Do(func() {
		close(m.shutdownCh)

		done := make(chan struct{})
		go func() {
			m.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			m.logger.Info("audit manager shutdown complete")
		case <-ctx.Done():
			m.logger.Warn("audit manager shutdown interrupted")
		}
	})
}

func (m *AuditManager) runAggregator(ctx context.Context) {
	defer m.wg.Done()

	var (
		batch    []AuditEntry
		timer    *time.Timer
		timeoutC <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
		if len(batch) > 0 {
			m.dispatchBatch(batch)
		}
		close(m.batchChan)
	}()

	for {
		select {
		case entry := <-m.inputChan:
			batch = append(batch, entry)
			if len(batch) >= m.batchSize {
				m.dispatchBatch(batch)
				batch = nil
				timeoutC = nil
			} else if len(batch) == 1 {
				timer = time.NewTimer(m.flushTimeout)
				timeoutC = timer.C
			}

		case <-timeoutC:
			m.dispatchBatch(batch)
			batch = nil
			timeoutC = nil

		case <-ctx.Done():
			return

		case <-m.shutdownCh:
			return
		}
	}
}

func (m *AuditManager) dispatchBatch(batch []AuditEntry) {
	batchCopy := make([]AuditEntry, len(batch))
	copy(batchCopy, batch)

	select {
	case m.batchChan <- batchCopy:
	default:
		// Workers are behind; emit directly instead of blocking the
		// aggregator.
		for _, entry := range batchCopy {
			m.emit(-1, entry)
		}
	}
}

func (m *AuditManager) runWorker(ctx context.Context, id int) {
	defer m.wg.Done()

	for {
		select {
		case batch, ok := <-m.batchChan:
			if !ok {
				return
			}
			for _, entry := range batch {
				m.emit(id, entry)
			}
		case <-ctx.Done():
			// Drain what is already queued, then exit.
			for {
				select {
				case batch, ok := <-m.batchChan:
					if !ok {
						return
					}
					for _, entry := range batch {
						m.emit(id, entry)
					}
				default:
					return
				}
			}
		}
	}
}

func (m *AuditManager) emit(workerID int, entry AuditEntry) {
	m.logger.Info("audit",
		zap.Int("worker", workerID),
		zap.Time("ts", entry.Timestamp),
		zap.String("method", entry.Method),
		zap.String("path", entry.Path),
		zap.Int("status", entry.StatusCode),
		zap.String("actor_id", entry.ActorID),
		zap.Int64("duration_ms", entry.DurationMs))
}
