package wrapper

import (
	"fmt"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// LifecycleState represents the wrapper process's lifecycle state
type LifecycleState string

const (
	StateStarting  LifecycleState = "starting"
	StateRunning   LifecycleState = "running"
	StateCompleted LifecycleState = "completed"
	StateFailed    LifecycleState = "failed"
	StateKilled    LifecycleState = "killed"
)

// ExitReason describes why the wrapper process terminated
type ExitReason string

const (
	ExitReasonSuccess ExitReason = "success" // exit code 0
	ExitReasonError   ExitReason = "error"   // exit code != 0
	ExitReasonSignal  ExitReason = "signal"  // killed by signal
	ExitReasonUnknown ExitReason = "unknown"
)

// LifecycleEvent represents a lifecycle state change
type LifecycleEvent struct {
	PID       int            `json:"pid"`
	State     LifecycleState `json:"state"`
	Timestamp time.Time      `json:"timestamp"`
	Message   string         `json:"message,omitempty"`
}

// DetermineExitReason classifies a wait status
func DetermineExitReason(status syscall.WaitStatus) ExitReason {
	switch {
	case status.Exited() && status.ExitStatus() == 0:
		return ExitReasonSuccess
	case status.Exited():
		return ExitReasonError
	case status.Signaled():
		return ExitReasonSignal
	default:
		return ExitReasonUnknown
	}
}

// SignalName returns the conventional name of a signal, e.g. SIGTERM
func SignalName(sig syscall.Signal) string {
	if name := unix.SignalName(sig); name != "" {
		return name
	}
	return fmt.Sprintf("SIG%d", int(sig))
}
