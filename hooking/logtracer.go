package hooking

import "log"

// A LogTracer prints cache tasks into a logger, one line per event.
type LogTracer struct {
	timeTeller TimeTeller
	logger     *log.Logger
}

// NewLogTracer creates a new LogTracer.
func NewLogTracer(logger *log.Logger, timeTeller TimeTeller) *LogTracer {
	return &LogTracer{
		timeTeller: timeTeller,
		logger:     logger,
	}
}

// Func prints the task event carried by ctx.
func (t *LogTracer) Func(ctx HookCtx) {
	now := t.timeTeller.Now()

	switch ctx.Pos {
	case HookPosTaskStart:
		ts := ctx.Item.(TaskStart)
		t.logger.Printf("start, %.9f, %s, %s, %s, %s\n",
			now, ts.Where, ts.ID, ts.What, ts.Detail)
	case HookPosTaskTag:
		tt := ctx.Item.(TaskTag)
		t.logger.Printf("tag, %.9f, %s, %s, %s\n",
			now, tt.TaskID, tt.What, tt.Detail)
	case HookPosTaskEnd:
		te := ctx.Item.(TaskEnd)
		if te.Err != "" {
			t.logger.Printf("end, %.9f, %s, error: %s\n", now, te.ID, te.Err)
			return
		}

		t.logger.Printf("end, %.9f, %s\n", now, te.ID)
	}
}
