package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when triggering a job on a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobInProgress is returned when a run is requested while the previous one is still going
	ErrJobInProgress = errors.New("job already in progress")

	// ErrInvalidSchedule is returned for a schedule that is not "minute hour * * *"
	ErrInvalidSchedule = errors.New("invalid schedule")
)
