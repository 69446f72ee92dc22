// Package ingest implements the buffered worker pool that loads parsed
// matches into the ledger store. This decouples CSV parsing from database
// writes and batches inserts, with flush guarantees on shutdown.
package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/breakpoint-analytics/tennis-api/internal/models"
)

// Prometheus metrics
var (
	matchesEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tennis_matches_enqueued_total",
		Help: "Total number of matches enqueued for ingestion",
	})

	matchesInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tennis_matches_inserted_total",
		Help: "Total number of matches inserted into the ledger",
	})

	matchesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tennis_matches_failed_total",
		Help: "Total number of matches that failed ingestion",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tennis_ingest_queue_depth",
		Help: "Current depth of the ingest queue",
	})

	batchInsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tennis_batch_insert_duration_seconds",
		Help:    "Duration of batch inserts into the ledger",
		Buckets: prometheus.DefBuckets,
	})
)

// MatchWriter is the ledger-side sink for ingested matches.
type MatchWriter interface {
	InsertMatches(ctx context.Context, matches []models.Match) (int64, error)
}

// PoolConfig configures the ingest worker pool
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	Writer        MatchWriter
	Logger        *zap.Logger
}

// Pool manages a pool of workers batching matches into the ledger store
type Pool struct {
	config PoolConfig
	queue  chan models.Match
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.SugaredLogger
}

// NewPool creates a new ingest pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}

	return &Pool{
		config: cfg,
		queue:  make(chan models.Match, cfg.QueueSize),
		logger: cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	go p.reportQueueDepth()

	p.logger.Infow("Ingest pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
	)
}

// Stop drains the queue, flushes pending batches and shuts the pool down.
func (p *Pool) Stop() {
	close(p.queue)
	p.wg.Wait()
	p.cancel()
	p.logger.Info("Ingest pool stopped")
}

// Enqueue adds a match to the queue. Blocks while the queue is full so the
// parser cannot outrun the database.
func (p *Pool) Enqueue(m models.Match) bool {
	select {
	case p.queue <- m:
		matchesEnqueued.Inc()
		return true
	case <-p.ctx.Done():
		p.logger.Warn("Ingest pool context canceled, dropping match")
		return false
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.queue)
}

// worker batches matches from the queue and flushes them to the writer
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	batch := make([]models.Match, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		inserted, err := p.config.Writer.InsertMatches(ctx, batch)
		cancel()
		batchInsertDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			p.logger.Errorw("Batch insert failed", "worker", id, "batchSize", len(batch), "error", err)
			matchesFailed.Add(float64(len(batch)))
		} else {
			matchesInserted.Add(float64(inserted))
		}
		batch = batch[:0]
	}

	for {
		select {
		case m, ok := <-p.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, m)
			if len(batch) >= p.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-p.ctx.Done():
			flush()
			return
		}
	}
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			queueDepth.Set(float64(len(p.queue)))
		case <-p.ctx.Done():
			return
		}
	}
}
