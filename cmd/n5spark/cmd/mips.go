package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saalfeldlab/n5-spark-launcher/internal/job"
)

// passthrough is set when the binary runs as n5-mips: the launcher takes no
// flags at all and the node count must come first.
var passthrough bool

var mipsCmd = &cobra.Command{
	Use:   "mips <nodes> [job-args...]",
	Short: "Maximum intensity projections (N5MaxIntensityProjection)",
	Long: `mips runs org.janelia.saalfeldlab.n5.spark.N5MaxIntensityProjection on <nodes>
cluster nodes. Launcher flags (--config, --log-level) are read up to the node
count; every argument after it, flag-like or not, is handed to the job unchanged.`,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !passthrough {
			var err error
			if args, err = parseLeadingFlags(cmd, args); err != nil {
				return usageError(err)
			}
		}
		return launchJob(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), job.MIPS, args)
	},
}

func init() {
	rootCmd.AddCommand(mipsCmd)
}

// parseLeadingFlags applies the inherited long flags that precede the node
// count and returns the remaining arguments. cobra leaves them unparsed
// because flag parsing is disabled for the job arguments.
func parseLeadingFlags(cmd *cobra.Command, args []string) ([]string, error) {
	flags := cmd.InheritedFlags()
	for len(args) > 0 && strings.HasPrefix(args[0], "--") && len(args[0]) > 2 {
		name, value, hasValue := strings.Cut(args[0][2:], "=")
		f := flags.Lookup(name)
		if f == nil {
			return nil, fmt.Errorf("unknown flag: --%s", name)
		}
		args = args[1:]
		if !hasValue {
			if len(args) == 0 {
				return nil, fmt.Errorf("flag needs an argument: --%s", name)
			}
			value, args = args[0], args[1:]
		}
		if err := flags.Set(name, value); err != nil {
			return nil, err
		}
	}
	return args, nil
}
