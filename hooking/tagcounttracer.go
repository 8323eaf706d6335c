package hooking

import "sync"

// TagCountTracer counts how many times each tag is attached to the tasks that
// pass the filter.
type TagCountTracer struct {
	filter TaskFilter
	lock   sync.Mutex

	inflightTasks map[string]bool
	tagNames      []string
	tagCount      map[string]uint64
}

// NewTagCountTracer creates a new TagCountTracer. A nil filter accepts all
// tasks.
func NewTagCountTracer(filter TaskFilter) *TagCountTracer {
	t := &TagCountTracer{
		filter:        filter,
		inflightTasks: make(map[string]bool),
		tagCount:      make(map[string]uint64),
	}

	return t
}

// Func dispatches the hook to the tracer methods.
func (t *TagCountTracer) Func(ctx HookCtx) {
	switch ctx.Pos {
	case HookPosTaskStart:
		t.StartTask(ctx.Item.(TaskStart))
	case HookPosTaskTag:
		t.TagTask(ctx.Item.(TaskTag))
	case HookPosTaskEnd:
		t.EndTask(ctx.Item.(TaskEnd))
	}
}

// GetTagNames returns all the tag names collected, in the order they were
// first seen.
func (t *TagCountTracer) GetTagNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	names := make([]string, len(t.tagNames))
	copy(names, t.tagNames)

	return names
}

// GetTagCount returns the number of times a tag is recorded.
func (t *TagCountTracer) GetTagCount(tagName string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.tagCount[tagName]
}

// StartTask starts following a task if it passes the filter.
func (t *TagCountTracer) StartTask(taskStart TaskStart) {
	if t.filter != nil && !t.filter(taskStart) {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.inflightTasks[taskStart.ID] = true
}

// TagTask counts the tag if its task is followed.
func (t *TagCountTracer) TagTask(taskTag TaskTag) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if !t.inflightTasks[taskTag.TaskID] {
		return
	}

	_, ok := t.tagCount[taskTag.What]
	if !ok {
		t.tagNames = append(t.tagNames, taskTag.What)
	}

	t.tagCount[taskTag.What]++
}

// EndTask stops following a task.
func (t *TagCountTracer) EndTask(taskEnd TaskEnd) {
	t.lock.Lock()
	defer t.lock.Unlock()

	delete(t.inflightTasks, taskEnd.ID)
}
