// Package scheduler fires the daily tip broadcast on a cron schedule
// evaluated in UTC.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/chris/bloom/internal/broadcast"
	"github.com/robfig/cron/v3"
)

// Job is run on every tick.
type Job interface {
	Run(ctx context.Context) (broadcast.Report, error)
}

type Scheduler struct {
	cron *cron.Cron
	job  Job
	ctx  context.Context

	mu      sync.Mutex
	running bool
	entryID cron.EntryID
}

// New creates a scheduler that runs job on every match of cronExpr. ctx is
// passed to each run; cancelling it interrupts a broadcast in progress.
func New(ctx context.Context, cronExpr string, job Job) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)
	s := &Scheduler{cron: c, job: job, ctx: ctx}
	id, err := c.AddFunc(cronExpr, s.tick)
	if err != nil {
		return nil, fmt.Errorf("invalid cron %q: %w", cronExpr, err)
	}
	s.entryID = id
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("scheduler: daily tip scheduled, next run %s", s.cron.Entry(s.entryID).Next.Format("2006-01-02 15:04 MST"))
}

// Stop halts the schedule and waits for a running broadcast to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// tick skips a run if the previous one is still going.
func (s *Scheduler) tick() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Printf("scheduler: previous broadcast still running, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	rep, err := s.job.Run(s.ctx)
	if err != nil {
		log.Printf("scheduler: broadcast: %v", err)
		return
	}
	log.Printf("scheduler: broadcast %s delivered %d/%d", rep.RunID, rep.Sent(), len(rep.Results))
}
