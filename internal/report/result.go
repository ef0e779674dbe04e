package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/saalfeldlab/n5-spark-launcher/pkg/logging"
)

// Result is the outcome of one launch. Set once when the wrapper exits.
type Result struct {
	// Identity
	LaunchID string `json:"launch_id" yaml:"launch_id"`
	Job      string `json:"job" yaml:"job"`
	Nodes    int    `json:"nodes" yaml:"nodes"`
	PID      int    `json:"pid" yaml:"pid"`

	// Timing
	StartTime time.Time     `json:"start_time" yaml:"start_time"`
	EndTime   time.Time     `json:"end_time" yaml:"end_time"`
	Duration  time.Duration `json:"duration" yaml:"duration"`

	// Outcome
	ExitCode   int    `json:"exit_code" yaml:"exit_code"`
	ExitReason string `json:"exit_reason" yaml:"exit_reason"`
	Signal     string `json:"signal,omitempty" yaml:"signal,omitempty"`
}

// NewLaunchID returns a fresh identifier for a launch
func NewLaunchID() string {
	return uuid.NewString()
}

// NewResult creates a result for a finished wrapper process
func NewResult(launchID, job string, nodes, pid, exitCode int, startTime, endTime time.Time, reason string) *Result {
	return &Result{
		LaunchID:   launchID,
		Job:        job,
		Nodes:      nodes,
		PID:        pid,
		ExitCode:   exitCode,
		ExitReason: reason,
		StartTime:  startTime,
		EndTime:    endTime,
		Duration:   endTime.Sub(startTime),
	}
}

// Succeeded reports whether the wrapper exited cleanly
func (r *Result) Succeeded() bool {
	return r.ExitCode == 0
}

// LogSummary emits a one-line summary of the launch
func (r *Result) LogSummary(logger *logging.Logger) {
	fields := map[string]interface{}{
		"launch_id":   r.LaunchID,
		"job":         r.Job,
		"nodes":       r.Nodes,
		"pid":         r.PID,
		"exit":        r.ExitCode,
		"reason":      r.ExitReason,
		"runtime_sec": int64(r.Duration.Seconds()),
	}
	if r.Signal != "" {
		fields["signal"] = r.Signal
	}

	if r.Succeeded() {
		logger.Info("launch finished", fields)
	} else {
		logger.Warn("launch finished with non-zero exit", fields)
	}
}
