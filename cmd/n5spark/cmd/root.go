package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/saalfeldlab/n5-spark-launcher/internal/config"
	"github.com/saalfeldlab/n5-spark-launcher/internal/wrapper"
	"github.com/saalfeldlab/n5-spark-launcher/pkg/logging"
)

var (
	cfgFile  string
	logLevel string
)

// newRunner builds the process runner; replaced in tests
var newRunner = func(logger *logging.Logger, stdout, stderr io.Writer) wrapper.Runner {
	r := wrapper.NewExecRunner(logger)
	r.Stdout = stdout
	r.Stderr = stderr
	return r
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "n5spark",
	Short: "Launch n5-spark jobs on a flintstone Spark cluster",
	Long: `n5spark submits the Spark jobs packaged in the n5-spark archive through the
flintstone wrapper. Installed (or hard-linked) as n5-mips in the launcher directory it behaves
like the n5-mips launcher script: n5-mips <nodes> [job-args...].`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.n5spark/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

// Execute runs the command line and returns the process exit code
func Execute() int {
	return execute("n5spark", os.Args[1:])
}

// RunMIPS is the entry point when the binary is invoked as n5-mips.
// Every argument goes to the mips job unparsed.
func RunMIPS(args []string) int {
	return execute("n5-mips", append([]string{mipsCmd.Name()}, args...))
}

func execute(prog string, args []string) int {
	passthrough = prog == "n5-mips"
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return exitCode(prog, err, rootCmd.ErrOrStderr())
}

// loadConfig reads the config file and environment into a fresh viper
// instance, then applies command line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.New(), cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
		if err := cfg.Validate(); err != nil {
			return nil, usageError(err)
		}
	}
	return cfg, nil
}

// newLogger logs to w, and additionally to log_file when one is configured.
// Callers must Close the returned logger.
func newLogger(cfg *config.Config, w io.Writer) *logging.Logger {
	level := logging.ParseLevel(cfg.LogLevel)
	jsonFormat := cfg.LogFormat == "json"

	if cfg.LogFile != "" {
		logger, err := logging.NewFileLogger(cfg.LogFile, level, jsonFormat)
		if err == nil {
			logger.SetOutput(io.MultiWriter(logger.File(), w))
			return logger
		}
		fmt.Fprintf(w, "warning: %v\n", err)
	}

	logger := logging.NewLogger(level, jsonFormat)
	logger.SetOutput(w)
	return logger
}

func printErr(w io.Writer, prog string, err error) {
	fmt.Fprintf(w, "%s: %v\n", prog, err)
}
