package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ParkGyuhwan/buffercache/blockdev"
)

var _ = Describe("ClockVictimFinder", func() {
	var (
		table  *frameTable
		finder *ClockVictimFinder
	)

	fill := func() {
		for i := 0; i < table.NumFrames(); i++ {
			table.Frame(i).bind(blockdev.SectorID(100 + i))
		}
	}

	BeforeEach(func() {
		table = newFrameTable(4)
		finder = NewClockVictimFinder()
	})

	It("should start after the first frame", func() {
		Expect(finder.FindVictim(table)).To(Equal(1))
		Expect(finder.Hand()).To(Equal(1))
	})

	It("should pick a free frame even if it is referenced", func() {
		table.Frame(1).referenced.Store(true)

		Expect(finder.FindVictim(table)).To(Equal(1))
	})

	It("should give referenced frames a second chance", func() {
		fill()
		table.Frame(1).referenced.Store(true)
		table.Frame(2).referenced.Store(true)

		Expect(finder.FindVictim(table)).To(Equal(3))
		Expect(table.IsReferenced(1)).To(BeFalse())
		Expect(table.IsReferenced(2)).To(BeFalse())
	})

	It("should keep the hand between calls", func() {
		fill()

		Expect(finder.FindVictim(table)).To(Equal(1))
		Expect(finder.FindVictim(table)).To(Equal(2))
		Expect(finder.FindVictim(table)).To(Equal(3))
		Expect(finder.FindVictim(table)).To(Equal(0))
		Expect(finder.FindVictim(table)).To(Equal(1))
	})

	It("should return after a full sweep if every frame is referenced", func() {
		fill()
		for i := 0; i < table.NumFrames(); i++ {
			table.Frame(i).referenced.Store(true)
		}

		Expect(finder.FindVictim(table)).To(Equal(1))
		for i := 0; i < table.NumFrames(); i++ {
			if i == 1 {
				continue
			}
			Expect(table.IsReferenced(i)).To(BeFalse())
		}
	})

	It("should not pick a frame referenced after the previous sweep", func() {
		fill()
		for i := 0; i < table.NumFrames(); i++ {
			table.Frame(i).referenced.Store(true)
		}

		first := finder.FindVictim(table)
		table.Frame(2).referenced.Store(true)

		second := finder.FindVictim(table)

		Expect(first).To(Equal(1))
		Expect(second).To(Equal(3))
	})

	It("should work with a single frame", func() {
		table = newFrameTable(1)
		fill()
		table.Frame(0).referenced.Store(true)

		Expect(finder.FindVictim(table)).To(Equal(0))
		Expect(finder.FindVictim(table)).To(Equal(0))
	})

	It("should move the hand back on reset", func() {
		finder.FindVictim(table)
		finder.Reset()

		Expect(finder.Hand()).To(Equal(0))
	})
})

var _ = Describe("frameTable", func() {
	var table *frameTable

	BeforeEach(func() {
		table = newFrameTable(3)
	})

	It("should allocate sector-sized frames", func() {
		Expect(table.NumFrames()).To(Equal(3))
		for i := 0; i < 3; i++ {
			Expect(table.Frame(i).data).To(HaveLen(blockdev.SectorSize))
			Expect(table.Frame(i).state()).To(Equal(FrameFree))
		}
	})

	It("should only find valid frames", func() {
		table.Frame(2).bind(0)

		f, found := table.Lookup(0)
		Expect(found).To(BeTrue())
		Expect(f.id).To(Equal(2))

		table.Frame(2).unbind()
		_, found = table.Lookup(0)
		Expect(found).To(BeFalse())
	})

	It("should report frame states", func() {
		table.Frame(0).bind(7)
		table.Frame(1).bind(8)
		table.Frame(1).dirty = true
		table.Frame(1).referenced.Store(true)

		infos := table.Snapshot()

		Expect(infos).To(HaveLen(3))
		Expect(infos[0].State).To(Equal(FrameClean))
		Expect(infos[0].Sector).To(Equal(blockdev.SectorID(7)))
		Expect(infos[1].State).To(Equal(FrameDirty))
		Expect(infos[1].Referenced).To(BeTrue())
		Expect(infos[2].State).To(Equal(FrameFree))
		Expect(infos[2].Valid).To(BeFalse())
	})

	It("should panic when unbinding a dirty frame", func() {
		table.Frame(0).bind(7)
		table.Frame(0).dirty = true

		Expect(func() { table.Frame(0).unbind() }).To(Panic())
	})

	It("should free all the frames on reset", func() {
		table.Frame(0).bind(7)
		table.Frame(0).data[0] = 9
		table.Frame(1).bind(8)

		table.Reset()

		for i := 0; i < 3; i++ {
			Expect(table.IsValid(i)).To(BeFalse())
		}
		Expect(table.Frame(0).data[0]).To(Equal(byte(0)))
	})
})
