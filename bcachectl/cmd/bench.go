package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/ParkGyuhwan/buffercache/blockdev"
	"github.com/ParkGyuhwan/buffercache/cache"
	"github.com/ParkGyuhwan/buffercache/config"
	"github.com/ParkGyuhwan/buffercache/datarecording"
	"github.com/ParkGyuhwan/buffercache/hooking"
	"github.com/ParkGyuhwan/buffercache/monitoring"
)

type benchOptions struct {
	conf        config.Config
	numOps      int
	numWorkers  int
	numSectors  uint64
	writeRatio  float64
	seed        int64
	monitor     bool
	openMonitor bool

	// device replaces the device described by conf when set.
	device blockdev.Device
}

type benchResult struct {
	stats    cache.Stats
	duration time.Duration
	tags     map[string]uint64
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run a random read/write workload through the cache.",
	Long: `bench runs a random workload of partial sector reads and writes ` +
		`through the cache. The workload runs against BCACHE_IMAGE if set, ` +
		`or against an in-memory device otherwise.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		conf, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := benchOptions{conf: conf}
		opts.numOps, _ = cmd.Flags().GetInt("ops")
		opts.numWorkers, _ = cmd.Flags().GetInt("workers")
		opts.numSectors, _ = cmd.Flags().GetUint64("range")
		opts.writeRatio, _ = cmd.Flags().GetFloat64("write-ratio")
		opts.seed, _ = cmd.Flags().GetInt64("seed")
		opts.monitor, _ = cmd.Flags().GetBool("monitor")
		opts.openMonitor, _ = cmd.Flags().GetBool("open-monitor")

		if cmd.Flags().Changed("image") {
			opts.conf.Image, _ = cmd.Flags().GetString("image")
		}

		if cmd.Flags().Changed("trace") {
			trace, _ := cmd.Flags().GetString("trace")
			opts.conf.Trace = config.TraceMode(trace)
		}

		err = opts.conf.Validate()
		if err != nil {
			return err
		}

		result, err := runBench(opts, cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		printBenchResult(cmd.OutOrStdout(), result)

		return nil
	},
}

func init() {
	benchCmd.Flags().Int("ops", 100000, "Number of operations")
	benchCmd.Flags().Int("workers", 4, "Number of concurrent workers")
	benchCmd.Flags().Uint64("range", 256,
		"Number of distinct sectors touched by the workload")
	benchCmd.Flags().Float64("write-ratio", 0.3,
		"Fraction of operations that are writes")
	benchCmd.Flags().Int64("seed", 1, "Seed of the workload")
	benchCmd.Flags().String("image", "",
		"Disk image to run against (overrides BCACHE_IMAGE)")
	benchCmd.Flags().String("trace", "",
		"Trace mode: none, log, or db (overrides BCACHE_TRACE)")
	benchCmd.Flags().Bool("monitor", false, "Serve the monitoring page")
	benchCmd.Flags().Bool("open-monitor", false,
		"Serve the monitoring page and open it in a browser")

	rootCmd.AddCommand(benchCmd)
}

// openDevice returns the device the workload runs against and a function
// that closes it.
func openDevice(opts benchOptions) (blockdev.Device, func() error, error) {
	dev := opts.device

	switch {
	case dev != nil:
	case opts.conf.Image == "":
		dev = blockdev.NewMemDevice(opts.conf.ImageSectors)
	default:
		fileDev, err := blockdev.OpenFileDevice(opts.conf.Image)
		if err != nil {
			return nil, nil, err
		}

		dev = fileDev
	}

	if closer, ok := dev.(io.Closer); ok {
		return dev, closer.Close, nil
	}

	return dev, func() error { return nil }, nil
}

// runBench runs the workload and then terminates the cache, closes the
// device, and closes the trace database, whether the workload fails or not.
func runBench(
	opts benchOptions,
	logOut io.Writer,
) (result benchResult, err error) {
	if opts.numWorkers <= 0 || opts.numOps < 0 {
		return benchResult{}, fmt.Errorf(
			"invalid workload: %d operations on %d workers",
			opts.numOps, opts.numWorkers)
	}

	dev, closeDev, err := openDevice(opts)
	if err != nil {
		return benchResult{}, err
	}
	defer func() {
		err = errors.Join(err, closeDev())
	}()

	if dev.NumSectors() == 0 {
		return benchResult{}, errors.New("device has no sector")
	}

	if opts.numSectors == 0 || opts.numSectors > dev.NumSectors() {
		opts.numSectors = dev.NumSectors()
	}

	tagCounter := hooking.NewTagCountTracer(nil)
	builder := cache.MakeBuilder().
		WithDevice(dev).
		WithNumFrames(opts.conf.NumFrames).
		WithHook(tagCounter)

	var (
		recorder datarecording.DataRecorder
		dbTracer *hooking.DBTracer
	)

	switch opts.conf.Trace {
	case config.TraceLog:
		logger := log.New(logOut, "", 0)
		builder = builder.WithHook(
			hooking.NewLogTracer(logger, hooking.NewWallClock()))
	case config.TraceDB:
		recorder = datarecording.New(opts.conf.TraceDB)
		dbTracer = hooking.NewDBTracer(
			hooking.NewWallClock(), hooking.NewRecorderBackend(recorder))
		builder = builder.WithHook(dbTracer)
	}

	c := builder.Build("BufferCache")

	var execRecorder *datarecording.ExecRecorder
	if recorder != nil {
		execRecorder = datarecording.NewExecRecorder(recorder)
		execRecorder.Start()
		execRecorder.Set("Frames", strconv.Itoa(opts.conf.NumFrames))
		execRecorder.Set("Workers", strconv.Itoa(opts.numWorkers))
		execRecorder.Set("Operations", strconv.Itoa(opts.numOps))

		defer func() {
			dbTracer.Terminate()
			execRecorder.End()

			err = errors.Join(err, recorder.Close())
		}()
	}

	var bar *monitoring.ProgressBar
	if opts.monitor || opts.openMonitor {
		m := monitoring.NewMonitor().WithPortNumber(opts.conf.MonitorPort)
		m.RegisterCache(c)
		bar = m.CreateProgressBar("bench", uint64(opts.numOps))
		defer m.CompleteProgressBar(bar)

		url := m.StartServer()
		if opts.openMonitor {
			err = browser.OpenURL(url)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Cannot open the browser: %v\n", err)
			}
		}
	}

	start := time.Now()
	workErr := runWorkload(c, opts, bar)
	duration := time.Since(start)

	err = errors.Join(workErr, c.Terminate())
	if err != nil {
		return benchResult{}, err
	}

	result = benchResult{
		stats:    c.Stats(),
		duration: duration,
		tags:     make(map[string]uint64),
	}

	for _, name := range tagCounter.GetTagNames() {
		result.tags[name] = tagCounter.GetTagCount(name)
	}

	return result, nil
}

func runWorkload(
	c *cache.Cache,
	opts benchOptions,
	bar *monitoring.ProgressBar,
) error {
	var (
		wg       sync.WaitGroup
		errLock  sync.Mutex
		firstErr error
	)

	for w := 0; w < opts.numWorkers; w++ {
		numOps := opts.numOps / opts.numWorkers
		if w < opts.numOps%opts.numWorkers {
			numOps++
		}

		wg.Add(1)

		go func(w, numOps int) {
			defer wg.Done()

			err := runWorker(c, opts, rand.New(rand.NewSource(opts.seed+int64(w))),
				numOps, bar)
			if err != nil {
				errLock.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errLock.Unlock()
			}
		}(w, numOps)
	}

	wg.Wait()

	return firstErr
}

func runWorker(
	c *cache.Cache,
	opts benchOptions,
	rnd *rand.Rand,
	numOps int,
	bar *monitoring.ProgressBar,
) error {
	buf := make([]byte, blockdev.SectorSize)

	for i := 0; i < numOps; i++ {
		sector := blockdev.SectorID(rnd.Int63n(int64(opts.numSectors)))
		offset := rnd.Intn(blockdev.SectorSize)
		length := 1 + rnd.Intn(blockdev.SectorSize-offset)

		var err error
		if rnd.Float64() < opts.writeRatio {
			rnd.Read(buf[:length])
			err = c.Write(sector, offset, length, buf, 0)
		} else {
			err = c.Read(sector, offset, length, buf, 0)
		}

		if err != nil {
			return err
		}

		if bar != nil {
			bar.IncrementFinished(1)
		}
	}

	return nil
}

func printBenchResult(w io.Writer, r benchResult) {
	fmt.Fprintf(w, "duration:      %s\n", r.duration)
	fmt.Fprintf(w, "reads:         %d\n", r.stats.Reads)
	fmt.Fprintf(w, "writes:        %d\n", r.stats.Writes)
	fmt.Fprintf(w, "hits:          %d\n", r.stats.Hits)
	fmt.Fprintf(w, "misses:        %d\n", r.stats.Misses)
	fmt.Fprintf(w, "hit rate:      %.2f%%\n", r.stats.HitRate()*100)
	fmt.Fprintf(w, "evictions:     %d\n", r.stats.Evictions)
	fmt.Fprintf(w, "device reads:  %d\n", r.stats.DeviceReads)
	fmt.Fprintf(w, "device writes: %d\n", r.stats.DeviceWrites)

	for _, name := range []string{"hit", "miss", "evict", "writeback"} {
		fmt.Fprintf(w, "tag %-10s %d\n", name+":", r.tags[name])
	}
}
