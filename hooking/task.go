package hooking

import "time"

// A list of hook poses for the hooks to apply to
var (
	HookPosTaskStart = &HookPos{Name: "HookPosTaskStart"}
	HookPosTaskTag   = &HookPos{Name: "HookPosTaskTag"}
	HookPosTaskEnd   = &HookPos{Name: "HookPosTaskEnd"}
)

// TaskStart is data that is passed to the hook when a task starts.
type TaskStart struct {
	ID     string
	Kind   string
	What   string
	Where  string
	Detail string
}

// TaskTag is data attached to a task to provide more information about the
// task.
type TaskTag struct {
	TaskID string
	What   string
	Detail string
}

// TaskEnd is data that is passed to the hook when a task ends.
type TaskEnd struct {
	ID  string
	Err string
}

type tag struct {
	What   string `json:"what"`
	Detail string `json:"detail"`
}

type task struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	What      string  `json:"what"`
	Where     string  `json:"where"`
	Detail    string  `json:"detail"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Err       string  `json:"err"`
	Tags      []tag   `json:"tags"`
}

// TaskFilter is a function that can filter interesting tasks. If this function
// returns true, the task is considered useful.
type TaskFilter func(t TaskStart) bool

// A TimeTeller can tell the current time in seconds.
type TimeTeller interface {
	Now() float64
}

type wallClock struct {
	start time.Time
}

// NewWallClock returns a TimeTeller that reports the seconds elapsed since it
// was created.
func NewWallClock() TimeTeller {
	return &wallClock{start: time.Now()}
}

func (c *wallClock) Now() float64 {
	return time.Since(c.start).Seconds()
}
