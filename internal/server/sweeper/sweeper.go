// Package sweeper periodically removes refresh token records whose expiry
// has passed.
package sweeper

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/robfig/cron/v3"
)

const DefaultInterval = time.Hour

var ErrAlreadyStarted = errors.New("sweeper already started")

// Sweeper is owned by the process that starts it. Start schedules Tick every
// interval; Stop cancels the in-flight tick and waits for it.
type Sweeper struct {
	repomanager repomanager.RepositoryManager
	interval    time.Duration
	now         func() time.Time
	log         logging.Logger

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

type Option func(*Sweeper)

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.now = now
	}
}

func New(rm repomanager.RepositoryManager, interval time.Duration, log logging.Logger, opts ...Option) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Sweeper{
		repomanager: rm,
		interval:    interval,
		now:         time.Now,
		log:         log.With("module", "sweeper"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tick runs one sweep and returns the number of records removed. Failures
// are logged and returned; the next tick retries.
func (s *Sweeper) Tick(ctx context.Context) (int64, error) {
	now := s.now()

	n, err := s.repomanager.RefreshTokens(s.repomanager.Conn()).DeleteExpiredBefore(ctx, now)
	if err != nil {
		s.log.Error(ctx, "sweep failed", "error", err)
		return 0, common.StoreFault(err)
	}

	s.log.Info(ctx, "expired refresh tokens removed", "count", n, "before", now)
	return n, nil
}

func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return ErrAlreadyStarted
	}

	cl := logging.NewCronLogger(s.log)
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	jobCtx, cancel := context.WithCancel(ctx)
	c.Schedule(cron.Every(s.interval), cron.FuncJob(func() {
		_, _ = s.Tick(jobCtx)
	}))
	c.Start()

	s.cron = c
	s.cancel = cancel

	s.log.Info(ctx, "sweeper started", "interval", s.interval.String())
	return nil
}

// Stop is safe to call more than once and on a sweeper that never started.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return
	}

	s.cancel()
	<-s.cron.Stop().Done()

	s.cron = nil
	s.cancel = nil

	s.log.Info(context.Background(), "sweeper stopped")
}
