package providers

// JobID identifies one scheduled recurring trigger
type JobID int

// TickSpec is a weekly recurring trigger: a UTC day of week ("Monday"..
// "Sunday") and a UTC "HH:mm" time of day.
type TickSpec struct {
	Day  string
	Time string
}

// Scheduler registers recurring day-of-week + time-of-day triggers. The
// business hour manager owns the mapping from required tick times to job
// ids and diffs it on topology changes.
type Scheduler interface {
	// Schedule registers fn to run weekly at the given UTC day and time
	Schedule(spec TickSpec, fn func()) (JobID, error)

	// Remove cancels a scheduled trigger
	Remove(id JobID)

	// Stop cancels all triggers and stops the scheduler
	Stop()
}
