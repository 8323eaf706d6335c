// Package monitoring serves the state of running buffer caches over HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/ParkGyuhwan/buffercache/cache"
	"github.com/ParkGyuhwan/buffercache/idgen"
	"github.com/ParkGyuhwan/buffercache/monitoring/web"
)

// MonitoredCache is what the monitor needs from a cache.
type MonitoredCache interface {
	Name() string
	NumFrames() int
	ClockHand() int
	Stats() cache.Stats
	Snapshot() []cache.FrameInfo
	FlushAll() error
}

// Monitor turns a program that uses buffer caches into a server so that the
// caches can be inspected and flushed from outside.
type Monitor struct {
	portNumber int
	idGen      idgen.Generator

	cachesLock sync.Mutex
	caches     []MonitoredCache

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		idGen: idgen.New(),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterCache registers a cache to be monitored.
func (m *Monitor) RegisterCache(c MonitoredCache) {
	m.cachesLock.Lock()
	defer m.cachesLock.Unlock()

	m.caches = append(m.caches, c)
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        m.idGen.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// StartServer starts the monitor as a web server and returns the URL it
// listens on.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring buffer caches with %s\n", url)

	r := m.newRouter()

	go func() {
		err := http.Serve(listener, r)
		dieOnErr(err)
	}()

	return url
}

func (m *Monitor) newRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/list_caches", m.listCaches)
	r.HandleFunc("/api/cache/{name}", m.listCacheDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/stats/{name}", m.reportStats)
	r.HandleFunc("/api/frames/{name}", m.listFrames)
	r.HandleFunc("/api/flush/{name}", m.flush).Methods(http.MethodPost)
	r.HandleFunc("/api/flush/{name}", methodNotAllowed)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

func (m *Monitor) listCaches(w http.ResponseWriter, _ *http.Request) {
	m.cachesLock.Lock()
	names := make([]string, 0, len(m.caches))
	for _, c := range m.caches {
		names = append(names, c.Name())
	}
	m.cachesLock.Unlock()

	writeJSON(w, names)
}

// cacheState is the view of a cache that the serializer walks.
type cacheState struct {
	Name      string
	NumFrames int
	ClockHand int
	Stats     cache.Stats
	Frames    []cache.FrameInfo
}

func stateOf(c MonitoredCache) *cacheState {
	return &cacheState{
		Name:      c.Name(),
		NumFrames: c.NumFrames(),
		ClockHand: c.ClockHand(),
		Stats:     c.Stats(),
		Frames:    c.Snapshot(),
	}
}

func (m *Monitor) listCacheDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	c := m.findCacheOr404(w, name)
	if c == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(stateOf(c))
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	CacheName string `json:"cache_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	c := m.findCacheOr404(w, req.CacheName)
	if c == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(stateOf(c))
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	err = serializer.Serialize(w)
	dieOnErr(err)
}

type statsRsp struct {
	cache.Stats
	HitRate float64 `json:"hit_rate"`
}

func (m *Monitor) reportStats(w http.ResponseWriter, r *http.Request) {
	c := m.findCacheOr404(w, mux.Vars(r)["name"])
	if c == nil {
		return
	}

	stats := c.Stats()
	writeJSON(w, statsRsp{Stats: stats, HitRate: stats.HitRate()})
}

func (m *Monitor) listFrames(w http.ResponseWriter, r *http.Request) {
	c := m.findCacheOr404(w, mux.Vars(r)["name"])
	if c == nil {
		return
	}

	frames := c.Snapshot()
	if frames == nil {
		frames = []cache.FrameInfo{}
	}

	writeJSON(w, frames)
}

func (m *Monitor) flush(w http.ResponseWriter, r *http.Request) {
	c := m.findCacheOr404(w, mux.Vars(r)["name"])
	if c == nil {
		return
	}

	err := c.FlushAll()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	w.WriteHeader(http.StatusOK)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusMethodNotAllowed)
	fmt.Fprintf(w, "Error: %s is not allowed", r.Method)
}

func (m *Monitor) findCacheOr404(
	w http.ResponseWriter,
	name string,
) MonitoredCache {
	m.cachesLock.Lock()
	defer m.cachesLock.Unlock()

	for _, c := range m.caches {
		if c.Name() == name {
			return c
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Cache not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bars := make([]ProgressBarStatus, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.Status())
	}

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
