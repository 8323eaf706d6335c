package monitoring

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ParkGyuhwan/buffercache/blockdev"
	"github.com/ParkGyuhwan/buffercache/cache"
)

type failingCache struct {
	MonitoredCache
}

func (c failingCache) Name() string {
	return "Failing"
}

func (c failingCache) FlushAll() error {
	return errors.New("device offline")
}

var _ = Describe("Monitor", func() {
	var (
		m      *Monitor
		c      *cache.Cache
		device *blockdev.MemDevice
		router http.Handler
	)

	get := func(url string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

		return rec
	}

	post := func(url string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, nil))

		return rec
	}

	BeforeEach(func() {
		device = blockdev.NewMemDevice(16)
		c = cache.MakeBuilder().
			WithDevice(device).
			WithNumFrames(4).
			Build("L1")

		m = NewMonitor()
		m.RegisterCache(c)
		router = m.newRouter()
	})

	It("should list caches", func() {
		rec := get("/api/list_caches")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`["L1"]`))
	})

	It("should report 404 for an unknown cache", func() {
		Expect(get("/api/stats/L2").Code).To(Equal(http.StatusNotFound))
		Expect(get("/api/frames/L2").Code).To(Equal(http.StatusNotFound))
		Expect(get("/api/cache/L2").Code).To(Equal(http.StatusNotFound))
		Expect(post("/api/flush/L2").Code).To(Equal(http.StatusNotFound))
	})

	It("should report stats", func() {
		buf := make([]byte, 4)
		Expect(c.Read(1, 0, 4, buf, 0)).To(Succeed())
		Expect(c.Read(1, 0, 4, buf, 0)).To(Succeed())

		rec := get("/api/stats/L1")

		rsp := statsRsp{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.Reads).To(Equal(uint64(2)))
		Expect(rsp.Hits).To(Equal(uint64(1)))
		Expect(rsp.Misses).To(Equal(uint64(1)))
		Expect(rsp.HitRate).To(BeNumerically("~", 0.5))
	})

	It("should list frames", func() {
		Expect(c.Write(3, 0, 1, []byte{1}, 0)).To(Succeed())

		rec := get("/api/frames/L1")

		var frames []cache.FrameInfo
		Expect(json.Unmarshal(rec.Body.Bytes(), &frames)).To(Succeed())
		Expect(frames).To(HaveLen(4))
		Expect(frames[1].Sector).To(Equal(blockdev.SectorID(3)))
		Expect(frames[1].State).To(Equal(cache.FrameDirty))
	})

	It("should flush on request", func() {
		Expect(c.Write(3, 0, 1, []byte{0x7F}, 0)).To(Succeed())

		rec := post("/api/flush/L1")

		Expect(rec.Code).To(Equal(http.StatusOK))
		buf := make([]byte, blockdev.SectorSize)
		Expect(device.ReadSector(3, buf)).To(Succeed())
		Expect(buf[0]).To(Equal(byte(0x7F)))
	})

	It("should only flush with POST", func() {
		Expect(c.Write(2, 0, 1, []byte{0x7F}, 0)).To(Succeed())

		Expect(get("/api/flush/L1").Code).
			To(Equal(http.StatusMethodNotAllowed))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec,
			httptest.NewRequest(http.MethodPut, "/api/flush/L1", nil))
		Expect(rec.Code).To(Equal(http.StatusMethodNotAllowed))

		buf := make([]byte, blockdev.SectorSize)
		Expect(device.ReadSector(2, buf)).To(Succeed())
		Expect(buf[0]).To(Equal(byte(0)))
	})

	It("should report flush errors", func() {
		m.RegisterCache(failingCache{})

		rec := post("/api/flush/Failing")

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).To(ContainSubstring("device offline"))
	})

	It("should serialize cache details", func() {
		rec := get("/api/cache/L1")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.Len()).To(BeNumerically(">", 0))
	})

	It("should reject malformed field requests", func() {
		rec := get("/api/field/not-json")

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should serve the page", func() {
		rec := get("/")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Buffer Cache Monitor"))
	})

	Context("progress bars", func() {
		It("should list bars in progress", func() {
			bar := m.CreateProgressBar("bench", 100)
			bar.IncrementInProgress(10)
			bar.MoveInProgressToFinished(4)
			bar.IncrementFinished(1)

			var bars []ProgressBarStatus
			Expect(json.Unmarshal(get("/api/progress").Body.Bytes(), &bars)).
				To(Succeed())

			Expect(bars).To(HaveLen(1))
			Expect(bars[0].ID).To(Equal("1"))
			Expect(bars[0].Name).To(Equal("bench"))
			Expect(bars[0].Total).To(Equal(uint64(100)))
			Expect(bars[0].InProgress).To(Equal(uint64(6)))
			Expect(bars[0].Finished).To(Equal(uint64(5)))
		})

		It("should remove completed bars", func() {
			bar1 := m.CreateProgressBar("a", 1)
			m.CreateProgressBar("b", 1)

			m.CompleteProgressBar(bar1)

			Expect(get("/api/progress").Body.String()).NotTo(ContainSubstring(`"a"`))
			Expect(m.progressBars).To(HaveLen(1))
		})
	})

	It("should fall back to a random port for reserved ports", func() {
		Expect(NewMonitor().WithPortNumber(80).portNumber).To(Equal(0))
		Expect(NewMonitor().WithPortNumber(8080).portNumber).To(Equal(8080))
	})
})
