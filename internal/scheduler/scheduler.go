package scheduler

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the study reminder on a cron schedule.
type Scheduler struct {
	cron       *cron.Cron
	spec       string
	ctx        context.Context
	cancel     context.CancelFunc
	remindFunc func(ctx context.Context) error
}

// New creates a scheduler for spec, a standard five-field cron expression
// evaluated in loc. A nil loc means local time.
func New(spec string, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		spec:   spec,
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetReminderFunction sets the job fired on every schedule tick.
func (s *Scheduler) SetReminderFunction(f func(ctx context.Context) error) {
	s.remindFunc = f
}

// Start registers the reminder and starts the cron loop. An empty spec leaves
// the scheduler idle.
func (s *Scheduler) Start() error {
	if s.remindFunc == nil {
		return errors.New("scheduler: reminder function not set")
	}
	if s.spec == "" {
		log.Println("Reminder schedule is empty, reminders are disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.spec, func() { s.run() })
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("Scheduler started, reminders at %q", s.spec)
	return nil
}

func (s *Scheduler) run() {
	log.Println("Triggered study reminder")
	if err := s.remindFunc(s.ctx); err != nil {
		log.Printf("Study reminder failed: %v", err)
	}
}

// Next reports when the reminder fires next, or the zero time when not running.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop stops the scheduler and waits for a running reminder to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Println("Scheduler stopped")
}

// IsRunning reports whether a reminder is registered.
func (s *Scheduler) IsRunning() bool {
	return s.cron != nil && len(s.cron.Entries()) > 0
}
