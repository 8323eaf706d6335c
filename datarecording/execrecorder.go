package datarecording

import (
	"os"
	"strings"
	"time"
)

// ExecInfo is one property of a program execution.
type ExecInfo struct {
	Property string
	Value    string
}

// ExecTableName is the table that holds the execution properties.
const ExecTableName = "exec_info"

// An ExecRecorder records how and when the program was run, next to the data
// produced by the run.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

// NewExecRecorder creates the exec_info table in recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	e := &ExecRecorder{
		recorder: recorder,
	}

	recorder.CreateTable(ExecTableName, ExecInfo{})

	return e
}

// Start records the start time, the command line, and the working directory.
func (e *ExecRecorder) Start() {
	startTime := time.Now().Format("2006-01-02 15:04:05.000000000")
	e.entries = append(e.entries, ExecInfo{"Start Time", startTime})

	cmd := strings.Join(os.Args, " ")
	e.entries = append(e.entries, ExecInfo{"Command", cmd})

	cwd, err := os.Getwd()
	if err == nil {
		e.entries = append(e.entries, ExecInfo{"Working Directory", cwd})
	}
}

// Set adds an arbitrary property, such as a configuration value.
func (e *ExecRecorder) Set(property, value string) {
	e.entries = append(e.entries, ExecInfo{property, value})
}

// End records the end time and writes all the properties.
func (e *ExecRecorder) End() {
	endTime := time.Now().Format("2006-01-02 15:04:05.000000000")
	e.entries = append(e.entries, ExecInfo{"End Time", endTime})

	for _, entry := range e.entries {
		e.recorder.InsertData(ExecTableName, entry)
	}

	e.entries = nil

	e.recorder.Flush()
}
