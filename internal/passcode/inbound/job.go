package inbound

import (
	"context"
	"log/slog"
	"time"

	"github.com/baginvent/passcode/internal/pkg/config"
	"github.com/baginvent/passcode/internal/pkg/goroutine"
	"go.uber.org/atomic"
)

const defaultSweepInterval = time.Minute

type sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// SweepJob deletes expired passcodes. Runs never overlap; a trigger that
// arrives while a sweep is in progress is dropped.
type SweepJob struct {
	uc       sweeper
	interval time.Duration

	running *atomic.Bool
	runs    *atomic.Int64
	swept   *atomic.Int64
	lastRun *atomic.Time
}

func NewSweepJob(uc sweeper, interval time.Duration) *SweepJob {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &SweepJob{
		uc:       uc,
		interval: interval,
		running:  atomic.NewBool(false),
		runs:     atomic.NewInt64(0),
		swept:    atomic.NewInt64(0),
		lastRun:  atomic.NewTime(time.Time{}),
	}
}

// RegisterSweepJob starts the periodic sweep when passcode.sweep.enabled is set.
func RegisterSweepJob(ctx context.Context, cfg config.Config, routine *goroutine.Manager, job *SweepJob) {
	if !cfg.GetBool("passcode.sweep.enabled") {
		return
	}

	routine.Go(ctx, func(pCtx context.Context) error {
		slog.InfoContext(pCtx, "Running job for sweeping expired passcodes", "interval", job.interval.String())
		job.Run(pCtx)
		return nil
	})
}

// Run sweeps every interval until ctx is done.
func (j *SweepJob) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

// RunOnce performs one sweep and reports whether it ran.
func (j *SweepJob) RunOnce(ctx context.Context) bool {
	if !j.running.CompareAndSwap(false, true) {
		return false
	}
	defer j.running.Store(false)

	n, err := j.uc.Sweep(ctx)
	if err != nil {
		slog.WarnContext(ctx, "sweep of expired passcodes failed", "error", err)
		return true
	}

	j.runs.Inc()
	j.swept.Add(n)
	j.lastRun.Store(time.Now())
	return true
}

// Stats returns the completed runs, total rows swept and the last run time.
func (j *SweepJob) Stats() (runs, swept int64, lastRun time.Time) {
	return j.runs.Load(), j.swept.Load(), j.lastRun.Load()
}
