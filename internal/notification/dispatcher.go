package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DispatcherConfig controls how the outbox is drained
type DispatcherConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Workers    int
}

// Dispatcher drains the outbox on a schedule with a pool of workers
type Dispatcher struct {
	outbox    *Outbox
	deliverer *Deliverer
	logger    *zap.Logger
	cron      *cron.Cron
	cfg       DispatcherConfig
	mu        sync.Mutex
}

func NewDispatcher(outbox *Outbox, deliverer *Deliverer, logger *zap.Logger, cfg DispatcherConfig) *Dispatcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Dispatcher{
		outbox:    outbox,
		deliverer: deliverer,
		logger:    logger.Named("dispatcher"),
		cfg:       cfg,
		cron:      cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", max(1, int(cfg.Interval.Seconds())))
	_, _ = d.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := d.Drain(ctx); err != nil {
			d.logger.Error("outbox drain failed", zap.Error(err))
		}
	})

	return d
}

// Start launches the cron scheduler.
func (d *Dispatcher) Start() {
	d.cron.Start()
	d.logger.Info("dispatcher started",
		zap.Duration("interval", d.cfg.Interval),
		zap.Int("workers", d.cfg.Workers))
}

// Stop waits for a running drain to finish or ctx to expire.
func (d *Dispatcher) Stop(ctx context.Context) {
	stopCtx := d.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	d.logger.Info("dispatcher stopped")
}

type outcome struct {
	job Job
	err error
}

// Drain delivers one batch of jobs. Failed jobs are requeued until they
// reach MaxRetries, then dropped.
func (d *Dispatcher) Drain(ctx context.Context) error {
	// the cron entry and shutdown may overlap
	d.mu.Lock()
	defer d.mu.Unlock()

	jobs, err := d.outbox.GetBatch(d.cfg.BatchSize)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return nil
	}

	queue := make(chan Job)
	results := make(chan outcome, len(jobs))
	var wg sync.WaitGroup
	for i := 0; i < min(d.cfg.Workers, len(jobs)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				results <- outcome{job: job, err: d.deliverer.Deliver(ctx, job)}
			}
		}()
	}
	for _, job := range jobs {
		queue <- job
	}
	close(queue)
	wg.Wait()
	close(results)

	for res := range results {
		d.settle(res)
	}
	return nil
}

func (d *Dispatcher) settle(res outcome) {
	job := res.job
	if res.err == nil {
		if err := d.outbox.Remove(job); err != nil {
			d.logger.Warn("failed to remove delivered job", zap.String("job_id", job.ID), zap.Error(err))
		}
		return
	}

	job.Retries++
	d.logger.Error("notification delivery failed",
		zap.String("job_id", job.ID),
		zap.String("kind", string(job.Kind)),
		zap.Int("retries", job.Retries),
		zap.Error(res.err))

	if job.Retries >= d.cfg.MaxRetries {
		d.logger.Warn("dropping job (max retries reached)", zap.String("job_id", job.ID))
		_ = d.outbox.Remove(job)
		return
	}
	if err := d.outbox.Requeue(job); err != nil {
		d.logger.Error("failed to requeue job", zap.String("job_id", job.ID), zap.Error(err))
	}
}
