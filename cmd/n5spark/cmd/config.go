package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saalfeldlab/n5-spark-launcher/internal/config"
	"github.com/saalfeldlab/n5-spark-launcher/internal/layout"
)

var configOutput string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect launcher configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration and resolved paths",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		lay, err := cfg.Layout()
		if err != nil {
			return err
		}

		view := struct {
			Config *config.Config `json:"config" yaml:"config"`
			Layout layout.Layout  `json:"layout" yaml:"layout"`
			Status layout.Status  `json:"status" yaml:"status"`
			Env    []string       `json:"env" yaml:"env"`
		}{cfg, lay, lay.Stat(), cfg.Cluster.Env()}

		switch configOutput {
		case "yaml":
			return writeYAML(cmd.OutOrStdout(), view)
		case "json":
			return writeJSON(cmd.OutOrStdout(), view)
		default:
			return usageError(fmt.Errorf("unknown output format %q", configOutput))
		}
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configShowCmd.Flags().StringVarP(&configOutput, "output", "o", "yaml", "output format: yaml, json")
}
