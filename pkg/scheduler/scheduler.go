package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Flusher delivers every queued message whose scheduled time has passed.
type Flusher interface {
	FlushDue(ctx context.Context, now time.Time)
}

type Scheduler struct {
	cron    *cron.Cron
	flusher Flusher
}

func New(flusher Flusher) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		flusher: flusher,
	}
}

func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("@every 1m", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Second)
		defer cancel()
		s.flusher.FlushDue(ctx, time.Now())
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	zap.S().Info("message scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
