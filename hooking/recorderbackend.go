package hooking

import (
	"strings"

	"github.com/ParkGyuhwan/buffercache/datarecording"
)

// TaskTableName is the table that the recorder backend writes tasks into.
const TaskTableName = "cache_tasks"

// TaskEntry is the row written for each finished task.
type TaskEntry struct {
	ID        string
	Kind      string
	What      string
	Location  string
	Detail    string
	StartTime float64
	EndTime   float64
	Tags      string
	Err       string
}

type recorderBackend struct {
	recorder datarecording.DataRecorder
}

// NewRecorderBackend returns a TracerBackend that stores tasks through a
// DataRecorder.
func NewRecorderBackend(recorder datarecording.DataRecorder) TracerBackend {
	recorder.CreateTable(TaskTableName, TaskEntry{})

	return &recorderBackend{recorder: recorder}
}

func (b *recorderBackend) Write(t task) {
	tags := make([]string, 0, len(t.Tags))
	for _, tg := range t.Tags {
		if tg.Detail == "" {
			tags = append(tags, tg.What)
			continue
		}

		tags = append(tags, tg.What+"="+tg.Detail)
	}

	b.recorder.InsertData(TaskTableName, TaskEntry{
		ID:        t.ID,
		Kind:      t.Kind,
		What:      t.What,
		Location:  t.Where,
		Detail:    t.Detail,
		StartTime: t.StartTime,
		EndTime:   t.EndTime,
		Tags:      strings.Join(tags, ","),
		Err:       t.Err,
	})
}

func (b *recorderBackend) Flush() {
	b.recorder.Flush()
}
