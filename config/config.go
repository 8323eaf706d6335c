// Package config collects the settings of the bcachectl tool from .env files
// and BCACHE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/ParkGyuhwan/buffercache/cache"
)

// Names of the environment variables.
const (
	EnvNumFrames    = "BCACHE_NUM_FRAMES"
	EnvImage        = "BCACHE_IMAGE"
	EnvImageSectors = "BCACHE_IMAGE_SECTORS"
	EnvMonitorPort  = "BCACHE_MONITOR_PORT"
	EnvTrace        = "BCACHE_TRACE"
	EnvTraceDB      = "BCACHE_TRACE_DB"
)

// TraceMode selects how cache tasks are traced.
type TraceMode string

// Supported trace modes.
const (
	TraceNone TraceMode = "none"
	TraceLog  TraceMode = "log"
	TraceDB   TraceMode = "db"
)

// DefaultEnvFile is read by Load when no file is named.
const DefaultEnvFile = ".env"

// Config holds the settings of one run.
type Config struct {
	// NumFrames is the capacity of the cache.
	NumFrames int

	// Image is the path of the disk image. An empty path means an in-memory
	// device.
	Image string

	// ImageSectors is the size of a new image or in-memory device.
	ImageSectors uint64

	// MonitorPort is the port of the monitoring server. Zero picks a random
	// port.
	MonitorPort int

	Trace   TraceMode
	TraceDB string
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		NumFrames:    cache.DefaultNumFrames,
		ImageSectors: 8192,
		Trace:        TraceNone,
	}
}

// Load reads the given .env files, or DefaultEnvFile if none is given, and
// applies the environment on top. Variables already set in the environment
// win over the files. A missing DefaultEnvFile is not an error.
func Load(files ...string) (Config, error) {
	values := make(map[string]string)

	if len(files) == 0 {
		fileValues, err := godotenv.Read(DefaultEnvFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("reading %s: %w", DefaultEnvFile, err)
		}

		for k, v := range fileValues {
			values[k] = v
		}
	} else {
		fileValues, err := godotenv.Read(files...)
		if err != nil {
			return Config{}, err
		}

		values = fileValues
	}

	for _, name := range []string{
		EnvNumFrames, EnvImage, EnvImageSectors,
		EnvMonitorPort, EnvTrace, EnvTraceDB,
	} {
		if v, ok := os.LookupEnv(name); ok {
			values[name] = v
		}
	}

	return Parse(values)
}

// Parse builds a Config from variable values. Variables not present keep
// their default.
func Parse(values map[string]string) (Config, error) {
	c := Default()

	var err error

	if v, ok := values[EnvNumFrames]; ok {
		c.NumFrames, err = strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvNumFrames, err)
		}
	}

	if v, ok := values[EnvImage]; ok {
		c.Image = v
	}

	if v, ok := values[EnvImageSectors]; ok {
		c.ImageSectors, err = strconv.ParseUint(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvImageSectors, err)
		}
	}

	if v, ok := values[EnvMonitorPort]; ok {
		c.MonitorPort, err = strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvMonitorPort, err)
		}
	}

	if v, ok := values[EnvTrace]; ok && v != "" {
		c.Trace = TraceMode(v)
	}

	if v, ok := values[EnvTraceDB]; ok {
		c.TraceDB = v
	}

	err = c.Validate()
	if err != nil {
		return Config{}, err
	}

	return c, nil
}

// Validate checks that the settings can be used.
func (c Config) Validate() error {
	if c.NumFrames <= 0 {
		return fmt.Errorf("number of frames must be positive, got %d",
			c.NumFrames)
	}

	if c.ImageSectors == 0 {
		return errors.New("image must have at least one sector")
	}

	if c.MonitorPort < 0 || c.MonitorPort > 65535 {
		return fmt.Errorf("invalid monitor port %d", c.MonitorPort)
	}

	switch c.Trace {
	case TraceNone, TraceLog, TraceDB:
	default:
		return fmt.Errorf("unknown trace mode %q", c.Trace)
	}

	return nil
}
