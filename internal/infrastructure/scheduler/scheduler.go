// Package scheduler runs a task once a day at a fixed wall-clock time, with
// bounded retries. The server uses it for nightly backups.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStatus represents the status of a scheduled job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// defaultTickInterval is how often the scheduler checks the clock
const defaultTickInterval = time.Minute

// Task is the unit of work the scheduler runs
type Task func(ctx context.Context) error

// Job is one run of the task, retries included
type Job struct {
	ID          uuid.UUID
	Name        string
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
}

// NewJob creates a pending job
func NewJob(name string, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		Name:       name,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.CompletedAt = nil
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job failed and has retries left
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry puts a failed job back to pending
func (j *Job) ScheduleRetry() {
	j.RetryCount++
	j.Status = JobStatusPending
}

// Config holds the settings of a daily scheduler
type Config struct {
	Name          string
	Schedule      string // "minute hour * * *"
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	// TickInterval defaults to one minute
	TickInterval time.Duration
}

// Status is a snapshot of the scheduler
type Status struct {
	Name       string
	IsRunning  bool
	JobRunning bool
	NextRunAt  time.Time
	LastJob    *Job
}

// DailyScheduler runs a task once per day at the configured time
type DailyScheduler struct {
	config Config
	hour   int
	minute int
	task   Task
	logger *zap.Logger
	now    func() time.Time

	mu          sync.Mutex
	isRunning   bool
	jobRunning  bool
	lastRunDate string
	lastJob     *Job
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewDailyScheduler validates the schedule and creates a stopped scheduler
func NewDailyScheduler(config Config, task Task, logger *zap.Logger) (*DailyScheduler, error) {
	hour, minute, err := ParseDailySchedule(config.Schedule)
	if err != nil {
		return nil, err
	}
	if config.TickInterval <= 0 {
		config.TickInterval = defaultTickInterval
	}
	if config.RetryAttempts < 0 {
		config.RetryAttempts = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DailyScheduler{
		config: config,
		hour:   hour,
		minute: minute,
		task:   task,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Start begins watching the clock
func (s *DailyScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.ctx = ctx
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.loop(ctx)

	s.logger.Info("Scheduler started",
		zap.String("name", s.config.Name),
		zap.String("schedule", s.config.Schedule),
		zap.Time("next_run_at", nextDailyRun(s.now(), s.hour, s.minute)),
	)
	return nil
}

// Stop cancels the clock loop and any running job, then waits for them
func (s *DailyScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully", zap.String("name", s.config.Name))
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out", zap.String("name", s.config.Name))
		return ctx.Err()
	}
}

// TriggerNow runs the task immediately, outside the daily schedule
func (s *DailyScheduler) TriggerNow() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	if s.jobRunning {
		s.mu.Unlock()
		return ErrJobInProgress
	}
	s.jobRunning = true
	s.wg.Add(1)
	ctx := s.ctx
	s.mu.Unlock()

	go s.run(ctx)
	return nil
}

// Status returns a snapshot of the scheduler state
func (s *DailyScheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Name:       s.config.Name,
		IsRunning:  s.isRunning,
		JobRunning: s.jobRunning,
		NextRunAt:  nextDailyRun(s.now(), s.hour, s.minute),
	}
	if s.lastJob != nil {
		job := *s.lastJob
		st.LastJob = &job
	}
	return st
}

func (s *DailyScheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.claimRun(s.now()) {
				s.wg.Add(1)
				go s.run(ctx)
			}
		}
	}
}

// claimRun reports whether the scheduled time has come and no run happened
// today, and marks the day as taken
func (s *DailyScheduler) claimRun(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.shouldRun(now) || s.jobRunning {
		return false
	}
	s.lastRunDate = now.Format(time.DateOnly)
	s.jobRunning = true
	return true
}

func (s *DailyScheduler) shouldRun(now time.Time) bool {
	if now.Hour() != s.hour || now.Minute() != s.minute {
		return false
	}
	return s.lastRunDate != now.Format(time.DateOnly)
}

// run executes the task, retrying after RetryDelay until it succeeds or the
// retries are used up
func (s *DailyScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	job := NewJob(s.config.Name, s.config.RetryAttempts)
	defer func() {
		s.mu.Lock()
		s.jobRunning = false
		s.lastJob = job
		s.mu.Unlock()
	}()

	for {
		job.Start()
		s.logger.Info("Running scheduled job",
			zap.String("job_id", job.ID.String()),
			zap.String("name", job.Name),
			zap.Int("retry_count", job.RetryCount),
		)

		err := s.execute(ctx)
		if err == nil {
			job.Complete()
			s.logger.Info("Scheduled job completed",
				zap.String("job_id", job.ID.String()),
				zap.String("name", job.Name),
			)
			return
		}

		job.Fail(err.Error())
		s.logger.Error("Scheduled job failed",
			zap.String("job_id", job.ID.String()),
			zap.String("name", job.Name),
			zap.Error(err),
		)
		if !job.ShouldRetry() || ctx.Err() != nil {
			return
		}
		job.ScheduleRetry()

		timer := time.NewTimer(s.config.RetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			job.Fail(ctx.Err().Error())
			return
		case <-timer.C:
		}
	}
}

func (s *DailyScheduler) execute(ctx context.Context) error {
	if s.config.JobTimeout <= 0 {
		return s.task(ctx)
	}
	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()
	return s.task(jobCtx)
}
