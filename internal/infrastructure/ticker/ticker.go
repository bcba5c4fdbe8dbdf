// Package ticker runs a job on a fixed interval on top of robfig/cron.
package ticker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one periodic unit of work. Its error is logged, never fatal.
type Job func(ctx context.Context) error

type Ticker struct {
	cron     *cron.Cron
	interval time.Duration
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

// New returns a stopped ticker. Overlapping runs are skipped rather than queued.
func New(interval time.Duration, log *zap.Logger) (*Ticker, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("ticker: interval must be positive, got %s", interval)
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log})),
	)
	return &Ticker{cron: c, interval: interval, log: log, ctx: ctx, cancel: cancel}, nil
}

// Register schedules job every interval under name.
func (t *Ticker) Register(name string, job Job) error {
	_, err := t.cron.AddJob(fmt.Sprintf("@every %s", t.interval), cron.FuncJob(func() {
		t.RunNow(name, job)
	}))
	if err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	return nil
}

// RunNow executes job once on the caller's goroutine.
func (t *Ticker) RunNow(name string, job Job) {
	start := time.Now()
	if err := job(t.ctx); err != nil {
		t.log.Error("periodic job failed", zap.String("job", name), zap.Error(err))
		return
	}
	t.log.Debug("periodic job done", zap.String("job", name), zap.Duration("took", time.Since(start)))
}

func (t *Ticker) Start() {
	t.cron.Start()
	t.log.Info("ticker started", zap.Duration("interval", t.interval))
}

// Stop cancels the job context and waits for a running job to return.
func (t *Ticker) Stop() {
	t.cancel()
	<-t.cron.Stop().Done()
	t.log.Info("ticker stopped")
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ log *zap.Logger }

func (l cronLogger) Info(msg string, kv ...interface{}) {
	l.log.Sugar().Debugw(msg, kv...)
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.log.Sugar().Errorw(msg, append(kv, "error", err)...)
}
