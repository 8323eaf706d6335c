package hooking

import (
	"sync"

	"github.com/tebeka/atexit"
)

// TracerBackend is a backend that can store tasks.
type TracerBackend interface {
	// Write writes a task to the storage.
	Write(t task)

	// Flush flushes the tasks to the storage, in case if the backend buffers
	// the tasks.
	Flush()
}

// DBTracer is a tracer that can store tasks into a database.
type DBTracer struct {
	timeTeller   TimeTeller
	backend      TracerBackend
	lock         sync.Mutex
	tracingTasks map[string]task
}

// NewDBTracer creates a new DBTracer.
func NewDBTracer(
	timeTeller TimeTeller,
	backend TracerBackend,
) *DBTracer {
	t := &DBTracer{
		timeTeller:   timeTeller,
		backend:      backend,
		tracingTasks: make(map[string]task),
	}

	atexit.Register(func() { t.Terminate() })

	return t
}

// Func records the start end of a task.
func (t *DBTracer) Func(ctx HookCtx) {
	switch ctx.Pos {
	case HookPosTaskStart:
		t.StartTask(ctx.Item.(TaskStart))
	case HookPosTaskTag:
		t.TagTask(ctx.Item.(TaskTag))
	case HookPosTaskEnd:
		t.EndTask(ctx.Item.(TaskEnd))
	}
}

// StartTask marks the start of a task.
func (t *DBTracer) StartTask(taskStart TaskStart) {
	startingTaskMustBeValid(taskStart)

	currTask := task{
		ID:        taskStart.ID,
		Kind:      taskStart.Kind,
		What:      taskStart.What,
		Where:     taskStart.Where,
		Detail:    taskStart.Detail,
		StartTime: t.timeTeller.Now(),
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.tracingTasks[currTask.ID] = currTask
}

func startingTaskMustBeValid(task TaskStart) {
	if task.ID == "" {
		panic("task ID must be set")
	}

	if task.Kind == "" {
		panic("task kind must be set")
	}

	if task.What == "" {
		panic("task what must be set")
	}

	if task.Where == "" {
		panic("task where must be set")
	}
}

// TagTask marks a tag of a task.
func (t *DBTracer) TagTask(tt TaskTag) {
	t.lock.Lock()
	defer t.lock.Unlock()

	originalTask, ok := t.tracingTasks[tt.TaskID]
	if !ok {
		return
	}

	originalTask.Tags = append(originalTask.Tags, tag{
		What:   tt.What,
		Detail: tt.Detail,
	})

	t.tracingTasks[tt.TaskID] = originalTask
}

// EndTask marks the end of a task.
func (t *DBTracer) EndTask(taskEnd TaskEnd) {
	now := t.timeTeller.Now()

	t.lock.Lock()
	defer t.lock.Unlock()

	originalTask, ok := t.tracingTasks[taskEnd.ID]
	if !ok {
		return
	}

	originalTask.EndTime = now
	originalTask.Err = taskEnd.Err

	delete(t.tracingTasks, taskEnd.ID)

	t.backend.Write(originalTask)
}

// NumInflightTasks returns the number of tasks started but not ended.
func (t *DBTracer) NumInflightTasks() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return len(t.tracingTasks)
}

// Terminate writes the unfinished tasks and flushes the backend.
func (t *DBTracer) Terminate() {
	t.lock.Lock()
	defer t.lock.Unlock()

	for _, task := range t.tracingTasks {
		task.EndTime = t.timeTeller.Now()
		t.backend.Write(task)
	}

	t.tracingTasks = make(map[string]task)

	t.backend.Flush()
}
