package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/saalfeldlab/n5-spark-launcher/internal/config"
	"github.com/saalfeldlab/n5-spark-launcher/internal/history"
	"github.com/saalfeldlab/n5-spark-launcher/internal/job"
	"github.com/saalfeldlab/n5-spark-launcher/internal/launcher"
	"github.com/saalfeldlab/n5-spark-launcher/internal/report"
	"github.com/saalfeldlab/n5-spark-launcher/pkg/logging"
)

var (
	dryRun       bool
	launchOutput string
)

var launchCmd = &cobra.Command{
	Use:   "launch [flags] <job> <nodes> [job-args...]",
	Short: "Launch a registered n5-spark job",
	Long: `Launch submits one of the registered jobs (see "n5spark jobs") through
flintstone. Flags must come before the job name; everything after the node
count is passed to the job unchanged.

Example:
  n5spark launch mips 20 -n /nrs/data.n5 -i volume/s0 -o mips
  n5spark launch --dry-run -o json scale-pyramid-nonisotropic 10 -n /nrs/data.n5 -i raw/s0 -r 4,4,40`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLaunchCmd,
}

func init() {
	rootCmd.AddCommand(launchCmd)

	launchCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the wrapper call instead of running it")
	launchCmd.Flags().StringVarP(&launchOutput, "output", "o", "text", "dry-run output format: text, json, yaml")
	// stop flag parsing at the job name so job arguments pass through
	launchCmd.Flags().SetInterspersed(false)
}

func runLaunchCmd(cmd *cobra.Command, args []string) error {
	j, err := job.Lookup(args[0])
	if err != nil {
		return usageError(err)
	}

	if dryRun {
		return planJob(cmd.OutOrStdout(), j, args[1:])
	}
	return launchJob(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), j, args[1:])
}

// launchJob runs j with args and decides the exit status of the launcher.
func launchJob(ctx context.Context, stdout, stderr io.Writer, j job.Job, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, stderr)
	defer logger.Close()

	l, cleanup, err := buildLauncher(cfg, logger, stdout, stderr)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := l.Launch(ctx, j, args)
	if err != nil {
		if errors.Is(err, job.ErrMissingNodeCount) || errors.Is(err, job.ErrInvalidNodeCount) {
			return usageError(err)
		}
		return err
	}

	if l.Metrics != nil {
		if err := l.Metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warn("failed to write metrics", map[string]interface{}{"error": err.Error()})
		}
	}

	if cfg.PropagateExitCode && result.ExitCode != 0 {
		return &exitError{code: result.ExitCode}
	}
	return nil
}

// buildLauncher wires layout, runner and the optional history and metrics.
func buildLauncher(cfg *config.Config, logger *logging.Logger, stdout, stderr io.Writer) (*launcher.Launcher, func(), error) {
	lay, err := cfg.Layout()
	if err != nil {
		return nil, nil, err
	}

	l := launcher.New(lay, cfg.Cluster, newRunner(logger, stdout, stderr), logger)
	cleanup := func() {}

	if cfg.HistoryDB != "" {
		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			logger.Warn("launch history disabled", map[string]interface{}{"error": err.Error()})
		} else {
			l.History = store
			cleanup = func() { store.Close() }
		}
	}
	if cfg.MetricsTextfile != "" {
		l.Metrics = report.NewMetrics()
	}
	return l, cleanup, nil
}

// planJob prints the wrapper call that launchJob would make.
func planJob(w io.Writer, j job.Job, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	lay, err := cfg.Layout()
	if err != nil {
		return err
	}

	l := launcher.New(lay, cfg.Cluster, nil, nil)
	inv, err := l.Plan(j, args)
	if err != nil {
		return usageError(err)
	}

	switch launchOutput {
	case "json":
		return writeJSON(w, inv)
	case "yaml":
		return writeYAML(w, inv)
	case "text":
		_, err := fmt.Fprintln(w, inv.String())
		return err
	default:
		return usageError(fmt.Errorf("unknown output format %q", launchOutput))
	}
}
