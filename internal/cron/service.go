// Package cron runs configured prompts on a schedule.
//
// Each entry in the "schedules" config section becomes a job that sends its
// message through the execution loop, either on a fixed interval
// ("everySeconds") or on a five-field cron expression ("cron", optional "tz").
package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	robfigcron "github.com/robfig/cron/v3"

	"github.com/ksfoundation/oneshot/internal/config"
)

// ErrUnknownJob is returned by RunNow for a name with no job.
var ErrUnknownJob = errors.New("unknown schedule")

// Job is one scheduled prompt.
type Job struct {
	Name         string
	Message      string
	Model        string
	Expr         string
	TZ           string
	EverySeconds int
}

// Kind returns "every" or "cron".
func (j Job) Kind() string {
	if j.EverySeconds > 0 {
		return "every"
	}
	return "cron"
}

// JobState is the in-memory run history of a job.
type JobState struct {
	NextRun      time.Time `json:"nextRun,omitempty"`
	LastRun      time.Time `json:"lastRun,omitempty"`
	LastStatus   string    `json:"lastStatus,omitempty"` // "ok" | "error"
	LastError    string    `json:"lastError,omitempty"`
	LastResponse string    `json:"lastResponse,omitempty"`
	Runs         int       `json:"runs"`
}

// JobStatus pairs a job with its state.
type JobStatus struct {
	Job   Job      `json:"job"`
	State JobState `json:"state"`
}

// RunFunc executes one job and returns the response text.
type RunFunc func(ctx context.Context, job Job) (string, error)

// Option configures a Service.
type Option func(*Service)

// WithRunObserver registers a callback invoked after every run.
func WithRunObserver(fn func(name string, err error)) Option {
	return func(s *Service) { s.observe = fn }
}

// Service schedules jobs on a robfig/cron runner.
type Service struct {
	run     RunFunc
	observe func(name string, err error)

	mu       sync.Mutex
	jobs     map[string]Job
	order    []string
	schedule map[string]robfigcron.Schedule
	state    map[string]*JobState
	entries  map[string]robfigcron.EntryID

	robfig *robfigcron.Cron
}

var parser = robfigcron.NewParser(
	robfigcron.Minute | robfigcron.Hour | robfigcron.Dom | robfigcron.Month | robfigcron.Dow,
)

// NewService builds jobs from schedules. Disabled entries are skipped;
// invalid entries are logged and skipped.
func NewService(schedules []config.ScheduleConfig, run RunFunc, opts ...Option) *Service {
	logger := slogLogger{}
	s := &Service{
		run:      run,
		jobs:     make(map[string]Job),
		schedule: make(map[string]robfigcron.Schedule),
		state:    make(map[string]*JobState),
		entries:  make(map[string]robfigcron.EntryID),
		robfig: robfigcron.New(
			robfigcron.WithLogger(logger),
			robfigcron.WithChain(robfigcron.Recover(logger), robfigcron.SkipIfStillRunning(logger)),
		),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, sc := range schedules {
		if sc.Disabled {
			continue
		}
		job := Job{
			Name:         strings.TrimSpace(sc.Name),
			Message:      sc.Message,
			Model:        sc.Model,
			Expr:         sc.Cron,
			TZ:           sc.TZ,
			EverySeconds: sc.EverySeconds,
		}
		sched, err := parseSchedule(job)
		if err != nil {
			slog.Warn("cron: skipping schedule", "name", sc.Name, "err", err)
			continue
		}
		if _, dup := s.jobs[job.Name]; dup {
			slog.Warn("cron: duplicate schedule name, keeping first", "name", job.Name)
			continue
		}
		s.jobs[job.Name] = job
		s.order = append(s.order, job.Name)
		s.schedule[job.Name] = sched
		s.state[job.Name] = &JobState{NextRun: sched.Next(time.Now())}
	}
	return s
}

func parseSchedule(job Job) (robfigcron.Schedule, error) {
	if job.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if strings.TrimSpace(job.Message) == "" {
		return nil, fmt.Errorf("message is required")
	}
	switch {
	case job.EverySeconds > 0 && job.Expr != "":
		return nil, fmt.Errorf("set either cron or everySeconds, not both")
	case job.EverySeconds > 0:
		return robfigcron.Every(time.Duration(job.EverySeconds) * time.Second), nil
	case job.Expr != "":
		sched, err := parser.Parse(job.Expr)
		if err != nil {
			return nil, fmt.Errorf("invalid cron expression %q: %w", job.Expr, err)
		}
		if job.TZ == "" {
			return sched, nil
		}
		loc, err := time.LoadLocation(job.TZ)
		if err != nil {
			return nil, fmt.Errorf("invalid tz %q: %w", job.TZ, err)
		}
		return withLocation(sched, loc), nil
	}
	return nil, fmt.Errorf("cron or everySeconds is required")
}

// Len returns the number of scheduled jobs.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Start arms every job and blocks until ctx is cancelled. Running jobs are
// allowed to finish before Start returns.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	for _, name := range s.order {
		name := name
		s.entries[name] = s.robfig.Schedule(s.schedule[name], robfigcron.FuncJob(func() {
			_, _ = s.execute(ctx, name)
		}))
	}
	s.mu.Unlock()

	s.robfig.Start()
	slog.Info("cron: started", "jobs", len(s.order))

	<-ctx.Done()
	<-s.robfig.Stop().Done()
	slog.Info("cron: stopped")
	return ctx.Err()
}

// Jobs returns every job with its state, soonest next run first.
func (s *Service) Jobs() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobStatus, 0, len(s.order))
	for _, name := range s.order {
		st := *s.state[name]
		if id, ok := s.entries[name]; ok {
			if e := s.robfig.Entry(id); e.Valid() && !e.Next.IsZero() {
				st.NextRun = e.Next
			}
		}
		out = append(out, JobStatus{Job: s.jobs[name], State: st})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].State.NextRun.Before(out[j].State.NextRun) })
	return out
}

// RunNow executes the named job immediately.
func (s *Service) RunNow(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	_, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.execute(ctx, name)
}

func (s *Service) execute(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	job := s.jobs[name]
	s.mu.Unlock()

	start := time.Now()
	slog.Info("cron: executing job", "name", name, "model", job.Model)

	var (
		resp string
		err  error
	)
	if s.run != nil {
		resp, err = s.run(ctx, job)
	}
	if err != nil {
		slog.Error("cron: job failed", "name", name, "err", err)
	}

	s.mu.Lock()
	st := s.state[name]
	st.LastRun = start
	st.Runs++
	st.LastResponse = resp
	st.LastStatus = "ok"
	st.LastError = ""
	if err != nil {
		st.LastStatus = "error"
		st.LastError = err.Error()
	}
	st.NextRun = s.schedule[name].Next(time.Now())
	s.mu.Unlock()

	if s.observe != nil {
		s.observe(name, err)
	}
	return resp, err
}

// withLocation wraps a Schedule to always use a specific location.
type locSchedule struct {
	inner robfigcron.Schedule
	loc   *time.Location
}

func (l locSchedule) Next(t time.Time) time.Time {
	return l.inner.Next(t.In(l.loc))
}

func withLocation(s robfigcron.Schedule, loc *time.Location) robfigcron.Schedule {
	return locSchedule{inner: s, loc: loc}
}

// slogLogger routes robfig/cron's logging through slog.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append([]any{"err", err}, keysAndValues...)...)
}
