package cmd

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/saalfeldlab/n5-spark-launcher/internal/job"
)

var jobsOutput string

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List the jobs that can be launched",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs := job.All()
		w := cmd.OutOrStdout()

		switch jobsOutput {
		case "json":
			return writeJSON(w, jobs)
		case "yaml":
			return writeYAML(w, jobs)
		case "table":
			table := tablewriter.NewWriter(w)
			table.Header("Job", "Class", "Usage")
			for _, j := range jobs {
				table.Append([]string{j.Name, j.Class, j.Usage})
			}
			table.Render()
			return nil
		default:
			return usageError(fmt.Errorf("unknown output format %q", jobsOutput))
		}
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.Flags().StringVarP(&jobsOutput, "output", "o", "table", "output format: table, json, yaml")
}
