package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saalfeldlab/n5-spark-launcher/pkg/logging"
)

func TestNewResult(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)

	r := NewResult("id-1", "mips", 4, 1234, 0, start, end, "success")

	assert.Equal(t, 90*time.Second, r.Duration)
	assert.True(t, r.Succeeded())

	r.ExitCode = 3
	assert.False(t, r.Succeeded())
}

func TestNewLaunchID(t *testing.T) {
	a, b := NewLaunchID(), NewLaunchID()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestLogSummary(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.INFO, false)
	logger.SetOutput(&buf)

	start := time.Now()
	NewResult("id-2", "mips", 8, 42, 1, start, start.Add(time.Minute), "error").LogSummary(logger)

	out := buf.String()
	assert.Contains(t, out, "non-zero exit")
	assert.Contains(t, out, "job=mips")
	assert.Contains(t, out, "exit=1")
	assert.Contains(t, out, "launch_id=id-2")
}

func TestMetrics(t *testing.T) {
	m := NewMetrics()
	start := time.Now()

	m.IncrStarted("mips", 4)
	m.RecordResult(NewResult("a", "mips", 4, 1, 0, start, start.Add(2*time.Second), "success"))
	m.IncrStarted("mips", 6)
	m.RecordResult(NewResult("b", "mips", 6, 2, 1, start, start.Add(5*time.Second), "error"))
	m.IncrSpawnFailed("convert")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.launchesStarted.WithLabelValues("mips")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.launchesFinished.WithLabelValues("mips", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.launchesFinished.WithLabelValues("mips", "error")))
	assert.Equal(t, float64(6), testutil.ToFloat64(m.nodesRequested.WithLabelValues("mips")))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.duration.WithLabelValues("mips")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.lastExitCode.WithLabelValues("mips")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.spawnFailures.WithLabelValues("convert")))
}

func TestMetricsTextfile(t *testing.T) {
	m := NewMetrics()
	m.IncrStarted("mips", 4)

	path := filepath.Join(t.TempDir(), "n5spark.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `n5spark_launches_started_total{job="mips"} 1`)
	assert.Contains(t, string(data), `n5spark_nodes_requested{job="mips"} 4`)
}
