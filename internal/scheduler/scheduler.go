// Package scheduler fires time-boundary nudges at the tracked entries. The
// year rollover itself is derived from persisted timestamps inside each
// accumulator; the cron job only guarantees a cycle runs right at the
// boundary instead of waiting for the next state change.
package scheduler

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Ticker receives synthetic update cycles.
type Ticker interface {
	EnqueueTick(now time.Time)
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron    *cron.Cron
	Tickers []Ticker
}

// NewScheduler creates a new Scheduler firing in loc, the same zone that
// bounds the year averages.
func NewScheduler(tickers []Ticker, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		Tickers: tickers,
	}
}

// RegisterAll registers the boundary tasks.
func (s *Scheduler) RegisterAll() error {
	// Year boundary: Jan 1st 00:00:00
	if _, err := s.Cron.AddFunc("0 0 0 1 1 *", s.yearBoundary); err != nil {
		return fmt.Errorf("register year boundary task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

func (s *Scheduler) yearBoundary() {
	log.Println("[INFO] year boundary reached, nudging entries")
	now := time.Now()
	for _, t := range s.Tickers {
		t.EnqueueTick(now)
	}
}
