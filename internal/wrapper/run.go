package wrapper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/saalfeldlab/n5-spark-launcher/internal/job"
	"github.com/saalfeldlab/n5-spark-launcher/internal/observe"
	"github.com/saalfeldlab/n5-spark-launcher/internal/report"
	"github.com/saalfeldlab/n5-spark-launcher/pkg/logging"
)

// Runner delegates an invocation to the flintstone wrapper and blocks until
// the wrapper exits.
type Runner interface {
	Run(ctx context.Context, launchID string, inv *job.Invocation) (*report.Result, error)
}

// ExecRunner runs the wrapper as a child process sharing the launcher's
// terminal. A non-zero exit of the child is reported in the Result, not as
// an error.
type ExecRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Environ supplies the base environment of the child. Defaults to os.Environ.
	Environ func() []string

	Logger *logging.Logger

	mu     sync.Mutex
	events []LifecycleEvent
}

// NewExecRunner creates a runner wired to the process's standard streams
func NewExecRunner(logger *logging.Logger) *ExecRunner {
	return &ExecRunner{
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Environ: os.Environ,
		Logger:  logger,
	}
}

// Run spawns the wrapper and waits for it. Cancelling ctx sends SIGTERM to
// the wrapper; the launcher itself never cancels.
func (r *ExecRunner) Run(ctx context.Context, launchID string, inv *job.Invocation) (*report.Result, error) {
	logger := r.logger().WithField("launch_id", launchID).WithField("job", inv.Job)
	r.resetEvents()

	environ := r.Environ
	if environ == nil {
		environ = os.Environ
	}

	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)
	cmd.Env = mergeEnv(environ(), inv.Env)
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}

	r.emitEvent(0, StateStarting, "spawning "+inv.Path)
	logger.Debug("spawning wrapper", map[string]interface{}{"cmd": inv.String()})

	timing := observe.NewTiming()
	if err := cmd.Start(); err != nil {
		r.emitEvent(0, StateFailed, err.Error())
		return nil, fmt.Errorf("%w: %s: %w", ErrSpawnFailed, inv.Path, err)
	}

	pid := cmd.Process.Pid
	r.emitEvent(pid, StateRunning, fmt.Sprintf("PID %d started", pid))
	logger.Info("wrapper started", map[string]interface{}{"pid": pid, "nodes": inv.Nodes})

	stopRelay := relaySignals(pid, logger)
	err := cmd.Wait()
	stopRelay()
	timing.Complete()

	exitCode := 0
	reason := ExitReasonSuccess
	signalName := ""

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			r.emitEvent(pid, StateFailed, fmt.Sprintf("wait error: %v", err))
			return nil, fmt.Errorf("wait for wrapper PID %d: %w", pid, err)
		}

		exitCode = exitErr.ExitCode()
		reason = ExitReasonUnknown
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			reason = DetermineExitReason(status)
			if status.Signaled() {
				signalName = SignalName(status.Signal())
				// shell convention for a child killed by a signal
				exitCode = 128 + int(status.Signal())
			}
		}
	}

	switch reason {
	case ExitReasonSuccess:
		r.emitEvent(pid, StateCompleted, "completed successfully")
	case ExitReasonSignal:
		r.emitEvent(pid, StateKilled, "killed by "+signalName)
	default:
		r.emitEvent(pid, StateFailed, fmt.Sprintf("exited with code %d", exitCode))
	}

	logger.Debug("wrapper exited", map[string]interface{}{
		"pid":         pid,
		"exit":        exitCode,
		"runtime_sec": timing.Duration().Seconds(),
	})

	result := report.NewResult(launchID, inv.Job, inv.Nodes, pid, exitCode,
		timing.StartedAt, timing.CompletedAt, string(reason))
	result.Signal = signalName
	return result, nil
}

// Events returns the lifecycle events of the most recent run
func (r *ExecRunner) Events() []LifecycleEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LifecycleEvent(nil), r.events...)
}

func (r *ExecRunner) resetEvents() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

func (r *ExecRunner) emitEvent(pid int, state LifecycleState, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, LifecycleEvent{
		PID:       pid,
		State:     state,
		Timestamp: time.Now(),
		Message:   message,
	})
}

func (r *ExecRunner) logger() *logging.Logger {
	if r.Logger == nil {
		return logging.Discard()
	}
	return r.Logger
}

// mergeEnv returns base with the keys of overrides replaced. base is not
// modified, so the launcher's own environment stays untouched.
func mergeEnv(base, overrides []string) []string {
	keys := make(map[string]struct{}, len(overrides))
	for _, kv := range overrides {
		k, _, _ := strings.Cut(kv, "=")
		keys[k] = struct{}{}
	}

	out := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		k, _, _ := strings.Cut(kv, "=")
		if _, ok := keys[k]; ok {
			continue
		}
		out = append(out, kv)
	}
	return append(out, overrides...)
}
