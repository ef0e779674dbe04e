package launcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saalfeldlab/n5-spark-launcher/internal/cluster"
	"github.com/saalfeldlab/n5-spark-launcher/internal/history"
	"github.com/saalfeldlab/n5-spark-launcher/internal/job"
	"github.com/saalfeldlab/n5-spark-launcher/internal/layout"
	"github.com/saalfeldlab/n5-spark-launcher/internal/report"
	"github.com/saalfeldlab/n5-spark-launcher/internal/wrapper"
	"github.com/saalfeldlab/n5-spark-launcher/pkg/logging"
)

// recordingRunner captures invocations instead of spawning anything.
type recordingRunner struct {
	calls    []*job.Invocation
	exitCode int
	err      error
}

func (r *recordingRunner) Run(_ context.Context, launchID string, inv *job.Invocation) (*report.Result, error) {
	r.calls = append(r.calls, inv)
	if r.err != nil {
		return nil, r.err
	}
	start := time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)
	reason := "success"
	if r.exitCode != 0 {
		reason = "error"
	}
	return report.NewResult(launchID, inv.Job, inv.Nodes, 4242, r.exitCode, start, start.Add(time.Minute), reason), nil
}

func newTestLauncher(runner wrapper.Runner) *Launcher {
	l := New(layout.FromScriptDir("/install/startup-scripts/spark-janelia"), cluster.Default(), runner, nil)
	ids := 0
	l.newID = func() string {
		ids++
		return fmt.Sprintf("launch-%d", ids)
	}
	return l
}

func TestLaunchDelegatesExampleInvocation(t *testing.T) {
	runner := &recordingRunner{}
	l := newTestLauncher(runner)

	result, err := l.Launch(context.Background(), job.MIPS, []string{"4", "--foo", "bar"})
	require.NoError(t, err)
	require.Len(t, runner.calls, 1)

	inv := runner.calls[0]
	assert.Equal(t, []string{
		"/install/startup-scripts/spark-janelia/flintstone/flintstone.sh",
		"4",
		"/install/target/n5-spark-1.0.1-SNAPSHOT.jar",
		"org.janelia.saalfeldlab.n5.spark.N5MaxIntensityProjection",
		"--foo",
		"bar",
	}, inv.Argv())
	assert.ElementsMatch(t, []string{
		"SPARK_VERSION=2", "N_DRIVER_THREADS=2", "MEMORY_PER_NODE=115", "TERMINATE=1",
	}, inv.Env)
	assert.Equal(t, "launch-1", result.LaunchID)
}

func TestLaunchInvalidNodeCountSpawnsNothing(t *testing.T) {
	for _, args := range [][]string{nil, {"x"}, {"4.5", "--foo"}, {""}} {
		runner := &recordingRunner{}
		l := newTestLauncher(runner)

		result, err := l.Launch(context.Background(), job.MIPS, args)

		assert.Error(t, err)
		assert.True(t, errors.Is(err, job.ErrMissingNodeCount) || errors.Is(err, job.ErrInvalidNodeCount))
		assert.Nil(t, result)
		assert.Empty(t, runner.calls, "args %q must not spawn", args)
	}
}

func TestLaunchInvalidSettings(t *testing.T) {
	runner := &recordingRunner{}
	l := newTestLauncher(runner)
	l.Settings.MemoryPerNodeGB = 0

	_, err := l.Launch(context.Background(), job.MIPS, []string{"2"})
	assert.Error(t, err)
	assert.Empty(t, runner.calls)
}

func TestLaunchRecordsHistoryAndMetrics(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	runner := &recordingRunner{exitCode: 1}
	l := newTestLauncher(runner)
	l.History = store
	l.Metrics = report.NewMetrics()

	result, err := l.Launch(context.Background(), job.MIPS, []string{"8", "-n", "/data/a.n5"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)

	rec, err := store.Get(result.LaunchID)
	require.NoError(t, err)
	assert.Equal(t, history.StatusFinished, rec.Status)
	assert.Equal(t, 8, rec.Nodes)
	require.NotNil(t, rec.ExitCode)
	assert.Equal(t, 1, *rec.ExitCode)

	n, err := testutil.GatherAndCount(l.Metrics.Registry(), "n5spark_launches_started_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLaunchSpawnFailure(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	spawnErr := fmt.Errorf("%w: no such file", wrapper.ErrSpawnFailed)
	l := newTestLauncher(&recordingRunner{err: spawnErr})
	l.History = store
	l.Metrics = report.NewMetrics()

	_, err = l.Launch(context.Background(), job.MIPS, []string{"2"})
	assert.ErrorIs(t, err, wrapper.ErrSpawnFailed)

	rec, err := store.Get("launch-1")
	require.NoError(t, err)
	assert.Equal(t, history.StatusSpawnFailed, rec.Status)
	n, err := testutil.GatherAndCount(l.Metrics.Registry(), "n5spark_spawn_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLaunchFailureLeavesReportingToCaller(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.WARN, false)
	logger.SetOutput(&buf)

	l := newTestLauncher(&recordingRunner{err: fmt.Errorf("%w: no such file", wrapper.ErrSpawnFailed)})
	l.Logger = logger

	_, err := l.Launch(context.Background(), job.MIPS, []string{"2"})
	assert.ErrorIs(t, err, wrapper.ErrSpawnFailed)
	assert.Empty(t, buf.String())
}

func TestPlanDoesNotRun(t *testing.T) {
	runner := &recordingRunner{}
	l := newTestLauncher(runner)

	inv, err := l.Plan(job.MIPS, []string{"3"})
	require.NoError(t, err)
	assert.Equal(t, "3", inv.Args[0])
	assert.Empty(t, runner.calls)
}
