package hooking

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type stubTimeTeller struct {
	now float64
}

func (t *stubTimeTeller) Now() float64 {
	return t.now
}

type memBackend struct {
	tasks   []task
	flushed int
}

func (b *memBackend) Write(t task) {
	b.tasks = append(b.tasks, t)
}

func (b *memBackend) Flush() {
	b.flushed++
}

func startCtx(id, what string) HookCtx {
	return HookCtx{
		Pos: HookPosTaskStart,
		Item: TaskStart{
			ID: id, Kind: "req_in", What: what, Where: "Cache",
		},
	}
}

func tagCtx(id, what string) HookCtx {
	return HookCtx{Pos: HookPosTaskTag, Item: TaskTag{TaskID: id, What: what}}
}

func endCtx(id string) HookCtx {
	return HookCtx{Pos: HookPosTaskEnd, Item: TaskEnd{ID: id}}
}

var _ = Describe("DBTracer", func() {
	var (
		timeTeller *stubTimeTeller
		backend    *memBackend
		t          *DBTracer
	)

	BeforeEach(func() {
		timeTeller = &stubTimeTeller{}
		backend = &memBackend{}
		t = NewDBTracer(timeTeller, backend)
	})

	It("should write a task when it ends", func() {
		timeTeller.now = 1
		t.Func(startCtx("1", "read"))
		t.Func(tagCtx("1", "miss"))

		Expect(backend.tasks).To(BeEmpty())
		Expect(t.NumInflightTasks()).To(Equal(1))

		timeTeller.now = 2
		t.Func(endCtx("1"))

		Expect(backend.tasks).To(HaveLen(1))
		Expect(backend.tasks[0].What).To(Equal("read"))
		Expect(backend.tasks[0].StartTime).To(Equal(1.0))
		Expect(backend.tasks[0].EndTime).To(Equal(2.0))
		Expect(backend.tasks[0].Tags).To(Equal([]tag{{What: "miss"}}))
		Expect(t.NumInflightTasks()).To(Equal(0))
	})

	It("should ignore tags and ends of unknown tasks", func() {
		t.Func(tagCtx("x", "hit"))
		t.Func(endCtx("x"))

		Expect(backend.tasks).To(BeEmpty())
	})

	It("should panic if the task is incomplete", func() {
		Expect(func() {
			t.StartTask(TaskStart{ID: "1", Kind: "req_in", What: "read"})
		}).To(Panic())
	})

	It("should write unfinished tasks on terminate", func() {
		t.Func(startCtx("1", "write"))
		timeTeller.now = 5

		t.Terminate()

		Expect(backend.tasks).To(HaveLen(1))
		Expect(backend.tasks[0].EndTime).To(Equal(5.0))
		Expect(backend.flushed).To(Equal(1))
	})
})

var _ = Describe("TagCountTracer", func() {
	It("should count tags of followed tasks", func() {
		t := NewTagCountTracer(func(ts TaskStart) bool {
			return ts.What == "read"
		})

		t.Func(startCtx("1", "read"))
		t.Func(tagCtx("1", "miss"))
		t.Func(tagCtx("1", "evict"))
		t.Func(endCtx("1"))

		t.Func(startCtx("2", "read"))
		t.Func(tagCtx("2", "hit"))
		t.Func(endCtx("2"))

		t.Func(startCtx("3", "write"))
		t.Func(tagCtx("3", "hit"))
		t.Func(endCtx("3"))

		t.Func(tagCtx("2", "hit"))

		Expect(t.GetTagNames()).To(Equal([]string{"miss", "evict", "hit"}))
		Expect(t.GetTagCount("hit")).To(Equal(uint64(1)))
		Expect(t.GetTagCount("miss")).To(Equal(uint64(1)))
		Expect(t.GetTagCount("writeback")).To(Equal(uint64(0)))
	})
})

var _ = Describe("LogTracer", func() {
	It("should print one line per event", func() {
		buf := new(bytes.Buffer)
		t := NewLogTracer(log.New(buf, "", 0), &stubTimeTeller{now: 0.5})

		t.Func(startCtx("7", "write"))
		t.Func(tagCtx("7", "hit"))
		t.Func(HookCtx{Pos: HookPosTaskEnd, Item: TaskEnd{ID: "7", Err: "boom"}})

		Expect(buf.String()).To(Equal(
			"start, 0.500000000, Cache, 7, write, \n" +
				"tag, 0.500000000, 7, hit, \n" +
				"end, 0.500000000, 7, error: boom\n"))
	})
})
