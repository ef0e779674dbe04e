// Package launcher ties a job, the install layout and the cluster settings
// together and hands the resulting call to the flintstone wrapper.
package launcher

import (
	"context"
	"errors"
	"time"

	"github.com/saalfeldlab/n5-spark-launcher/internal/cluster"
	"github.com/saalfeldlab/n5-spark-launcher/internal/history"
	"github.com/saalfeldlab/n5-spark-launcher/internal/job"
	"github.com/saalfeldlab/n5-spark-launcher/internal/layout"
	"github.com/saalfeldlab/n5-spark-launcher/internal/report"
	"github.com/saalfeldlab/n5-spark-launcher/internal/wrapper"
	"github.com/saalfeldlab/n5-spark-launcher/pkg/logging"
)

// Launcher runs jobs through flintstone. History and Metrics are optional.
type Launcher struct {
	Layout   layout.Layout
	Settings cluster.Settings
	Runner   wrapper.Runner
	Logger   *logging.Logger
	History  *history.Store
	Metrics  *report.Metrics

	newID func() string
	now   func() time.Time
}

// New creates a launcher with the given layout, settings and runner
func New(l layout.Layout, s cluster.Settings, runner wrapper.Runner, logger *logging.Logger) *Launcher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Launcher{
		Layout:   l,
		Settings: s,
		Runner:   runner,
		Logger:   logger,
		newID:    report.NewLaunchID,
		now:      time.Now,
	}
}

// Plan parses args for j and builds the wrapper call without running it.
func (l *Launcher) Plan(j job.Job, args []string) (*job.Invocation, error) {
	if err := l.Settings.Validate(); err != nil {
		return nil, err
	}
	return job.Plan(j, l.Layout, l.Settings, args)
}

// Launch plans the call and blocks until the wrapper exits. args[0] is the
// node count; the rest is forwarded to the job unchanged. A parse error
// returns before anything is spawned.
func (l *Launcher) Launch(ctx context.Context, j job.Job, args []string) (*report.Result, error) {
	inv, err := l.Plan(j, args)
	if err != nil {
		return nil, err
	}

	id := l.newID()
	logger := l.Logger.WithField("launch_id", id).WithField("job", j.Name)
	logger.Info("launching", map[string]interface{}{
		"nodes":   inv.Nodes,
		"class":   j.Class,
		"archive": l.Layout.ArchivePath,
		"wrapper": inv.Path,
	})

	if l.History != nil {
		if err := l.History.RecordStart(id, inv, l.now()); err != nil {
			logger.Warn("failed to record launch", map[string]interface{}{"error": err.Error()})
		}
	}
	if l.Metrics != nil {
		l.Metrics.IncrStarted(j.Name, inv.Nodes)
	}

	result, err := l.Runner.Run(ctx, id, inv)
	if err != nil {
		l.recordFailure(logger, id, j, err)
		return nil, err
	}

	result.LogSummary(logger)
	if l.History != nil {
		if err := l.History.RecordResult(result); err != nil {
			logger.Warn("failed to record result", map[string]interface{}{"error": err.Error()})
		}
	}
	if l.Metrics != nil {
		l.Metrics.RecordResult(result)
	}
	return result, nil
}

func (l *Launcher) recordFailure(logger *logging.Logger, id string, j job.Job, cause error) {
	// the caller reports cause to the user
	logger.Debug("launch failed", map[string]interface{}{"error": cause.Error()})

	status := history.StatusFailed
	if errors.Is(cause, wrapper.ErrSpawnFailed) {
		status = history.StatusSpawnFailed
		if l.Metrics != nil {
			l.Metrics.IncrSpawnFailed(j.Name)
		}
	}
	if l.History != nil {
		if err := l.History.RecordFailure(id, status, cause, l.now()); err != nil {
			logger.Warn("failed to record failure", map[string]interface{}{"error": err.Error()})
		}
	}
}
