// Package reminder runs the daily background job that prepares the day's
// session ahead of time and reports how much review is waiting.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/abhisek/kotoba/internal/session"
	"github.com/abhisek/kotoba/internal/store"
)

// DefaultAt is the default local time of the daily run.
const DefaultAt = "07:00"

// Starter plans or resumes today's session.
type Starter interface {
	Start(ctx context.Context) (session.View, error)
}

// DueSource reports what the review scheduler has due.
type DueSource interface {
	DueGrammar(ctx context.Context, now time.Time, limit int) ([]store.GrammarState, error)
	DueVocab(ctx context.Context, now time.Time, limit int) ([]store.VocabState, error)
}

// Summary is the outcome of one run.
type Summary struct {
	Date       string
	SessionID  string
	Phase      session.Phase
	Finished   bool
	DueGrammar int
	DueVocab   int
}

// Notifier delivers a summary to the learner.
type Notifier interface {
	Notify(ctx context.Context, s Summary) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, s Summary) error

func (f NotifierFunc) Notify(ctx context.Context, s Summary) error {
	return f(ctx, s)
}

// Job builds today's plan and notifies.
type Job struct {
	starter  Starter
	due      DueSource
	notifier Notifier
	now      func() time.Time
	log      *slog.Logger
}

// NewJob creates a Job. notifier may be nil.
func NewJob(starter Starter, due DueSource, notifier Notifier, log *slog.Logger) *Job {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Job{starter: starter, due: due, notifier: notifier, now: time.Now, log: log}
}

// SetClock replaces the job's clock.
func (j *Job) SetClock(now func() time.Time) {
	j.now = now
}

// Run prepares today's session once.
func (j *Job) Run(ctx context.Context) (Summary, error) {
	v, err := j.starter.Start(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("preparing session: %w", err)
	}
	now := j.now()
	grammar, err := j.due.DueGrammar(ctx, now, 0)
	if err != nil {
		return Summary{}, fmt.Errorf("counting due grammar: %w", err)
	}
	vocab, err := j.due.DueVocab(ctx, now, 0)
	if err != nil {
		return Summary{}, fmt.Errorf("counting due vocab: %w", err)
	}

	s := Summary{
		Date:       v.Date,
		SessionID:  v.SessionID,
		Phase:      v.Phase,
		Finished:   v.Phase == session.Step5,
		DueGrammar: len(grammar),
		DueVocab:   len(vocab),
	}
	j.log.Info("daily session prepared",
		"date", s.Date, "phase", s.Phase, "due_grammar", s.DueGrammar, "due_vocab", s.DueVocab)

	if j.notifier != nil {
		if err := j.notifier.Notify(ctx, s); err != nil {
			j.log.Warn("reminder notification failed", "err", err)
		}
	}
	return s, nil
}

// Scheduler runs a Job once a day.
type Scheduler struct {
	cron *gocron.Scheduler
	job  *Job
	at   string
}

// NewScheduler creates a Scheduler that runs job every day at at ("HH:MM")
// in loc.
func NewScheduler(job *Job, at string, loc *time.Location) *Scheduler {
	if at == "" {
		at = DefaultAt
	}
	if loc == nil {
		loc = time.Local
	}
	cron := gocron.NewScheduler(loc)
	cron.SingletonModeAll()
	return &Scheduler{cron: cron, job: job, at: at}
}

// Start registers the daily run and starts the scheduler in the background.
// Runs use ctx and stop being scheduled once Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.Every(1).Day().At(s.at).Do(func() {
		if _, err := s.job.Run(ctx); err != nil {
			s.job.log.Error("daily run failed", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling daily run at %q: %w", s.at, err)
	}
	s.cron.StartAsync()
	return nil
}

// NextRun returns when the job runs next.
func (s *Scheduler) NextRun() time.Time {
	_, next := s.cron.NextRun()
	return next
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
