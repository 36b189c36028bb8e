// Package worker provides background persistence of recommendation history.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/moodmix/internal/core/domain"
	"github.com/ewilliams-labs/moodmix/internal/core/ports"
	"github.com/ewilliams-labs/moodmix/internal/metrics"
)

const defaultWriteTimeout = 5 * time.Second

// Pool writes history entries on background workers so the request path
// never waits on storage.
type Pool struct {
	repo         ports.HistoryRepository
	logger       *zap.Logger
	jobs         chan domain.HistoryEntry
	workers      int
	writeTimeout time.Duration

	wg       sync.WaitGroup
	mu       sync.RWMutex
	stopped  bool
	stopOnce sync.Once
}

// NewPool creates a worker pool with the given worker count and queue size.
func NewPool(repo ports.HistoryRepository, logger *zap.Logger, workers int, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		repo:         repo,
		logger:       logger,
		jobs:         make(chan domain.HistoryEntry, queueSize),
		workers:      workers,
		writeTimeout: defaultWriteTimeout,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for entry := range p.jobs {
				p.process(entry)
			}
		}()
	}
}

// Stop closes the queue and waits for queued entries to be written.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		close(p.jobs)
		p.mu.Unlock()
	})
	p.wg.Wait()
}

// Submit queues an entry without blocking. Entries are dropped when the
// queue is full or the pool has stopped.
func (p *Pool) Submit(entry domain.HistoryEntry) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		metrics.HistoryDroppedTotal.WithLabelValues("stopped").Inc()
		return
	}

	select {
	case p.jobs <- entry:
	default:
		metrics.HistoryDroppedTotal.WithLabelValues("queue_full").Inc()
		p.logger.Warn("worker: dropping history entry, queue full", zap.String("entry_id", entry.ID))
	}
}

func (p *Pool) process(entry domain.HistoryEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
	defer cancel()

	if err := p.repo.RecordRecommendation(ctx, entry); err != nil {
		metrics.HistoryDroppedTotal.WithLabelValues("write_failed").Inc()
		p.logger.Warn("worker: failed to record history",
			zap.String("entry_id", entry.ID),
			zap.Error(err),
		)
		return
	}
	metrics.HistoryRecordedTotal.Inc()
	p.logger.Debug("worker: recorded history",
		zap.String("entry_id", entry.ID),
		zap.Int("tracks", len(entry.TrackIDs)),
	)
}
