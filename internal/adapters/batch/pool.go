// Package batch runs per-client jobs over a bounded worker pool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/EvanTenenbaum/TERP-sub019/pkg/logger"
	"github.com/EvanTenenbaum/TERP-sub019/pkg/metrics"
)

// Default pool configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	defaultJobTimeout       = 10 * time.Second
)

// Job outcomes reported to metrics.
const (
	outcomeOK       = "ok"
	outcomeFailed   = "failed"
	outcomeCanceled = "canceled"
)

// Processor handles one client.
type Processor interface {
	Process(ctx context.Context, clientID string) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, clientID string) error

// Process implements Processor.
func (f ProcessorFunc) Process(ctx context.Context, clientID string) error { return f(ctx, clientID) }

// Failure is one job that returned an error.
type Failure struct {
	ClientID string `json:"clientId"`
	Err      error  `json:"-"`
}

// Report summarizes one run.
type Report struct {
	RunID     string        `json:"runId"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failures  []Failure     `json:"failures"`
	Duration  time.Duration `json:"duration"`
}

// Failed is the number of failed jobs.
func (r Report) Failed() int { return len(r.Failures) }

// Pool fans jobs out to a fixed number of workers.
type Pool struct {
	workers    int
	jobTimeout time.Duration
	runID      func() string
	logger     logger.Logger
}

// NewPool creates a pool. A non-positive worker count selects a multiple of
// the CPU count.
func NewPool(workers int, opts ...Option) *Pool {
	if workers < 1 {
		workers = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{
		workers:    workers,
		jobTimeout: defaultJobTimeout,
		runID:      uuid.NewString,
		logger:     logger.Get().Named("batch"),
	}
	for _, opt := range opts {
		opt(p)
	}
	metrics.UpdateBatchWorkers(workers)
	return p
}

// Workers is the pool size.
func (p *Pool) Workers() int { return p.workers }

// Run processes every client id once. Job errors are collected in the
// report; Run itself only fails when ctx is done before all jobs ran.
func (p *Pool) Run(ctx context.Context, clientIDs []string, proc Processor) (Report, error) {
	if len(clientIDs) == 0 {
		return Report{}, ErrNoJobs
	}

	start := time.Now()
	rep := Report{RunID: p.runID(), Total: len(clientIDs)}

	jobs := make(chan string)
	var (
		mu        sync.Mutex
		succeeded int
		failures  []Failure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for _, id := range clientIDs {
			select {
			case jobs <- id:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	workers := min(p.workers, len(clientIDs))
	for i := 0; i < workers; i++ {
		wlog := p.logger.Named("worker-" + strconv.Itoa(i))
		g.Go(func() error {
			for id := range jobs {
				err := p.process(gctx, proc, id)
				mu.Lock()
				if err != nil {
					failures = append(failures, Failure{ClientID: id, Err: err})
				} else {
					succeeded++
				}
				mu.Unlock()
				if err != nil {
					wlog.Warn(gctx, "batch job failed",
						logger.String("runId", rep.RunID),
						logger.String("clientId", id),
						logger.Error(err),
					)
				}
			}
			return nil
		})
	}

	err := g.Wait()
	sort.Slice(failures, func(i, j int) bool { return failures[i].ClientID < failures[j].ClientID })
	rep.Succeeded = succeeded
	rep.Failures = failures
	rep.Duration = time.Since(start)

	p.logger.Info(ctx, "batch run finished",
		logger.String("runId", rep.RunID),
		logger.Int("total", rep.Total),
		logger.Int("succeeded", rep.Succeeded),
		logger.Int("failed", rep.Failed()),
		logger.Duration("duration", rep.Duration),
	)
	if err != nil {
		return rep, fmt.Errorf("batch run %s interrupted: %w", rep.RunID, err)
	}
	return rep, nil
}

func (p *Pool) process(ctx context.Context, proc Processor, clientID string) error {
	start := time.Now()
	jctx, cancel := context.WithTimeout(ctx, p.jobTimeout)
	defer cancel()

	err := proc.Process(jctx, clientID)
	metrics.RecordBatchJobLatency(float64(time.Since(start).Microseconds()) / 1000)
	switch {
	case err == nil:
		metrics.RecordBatchJob(outcomeOK)
	case errors.Is(err, context.Canceled):
		metrics.RecordBatchJob(outcomeCanceled)
	default:
		metrics.RecordBatchJob(outcomeFailed)
		metrics.RecordErrorByComponent("batch", "job_failed")
	}
	return err
}
