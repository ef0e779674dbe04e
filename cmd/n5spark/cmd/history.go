package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/saalfeldlab/n5-spark-launcher/internal/history"
)

var (
	historyLimit  int
	historyOutput string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent launches from this machine",
	Long: `history reads the launch database configured by history_db
(N5SPARK_HISTORY_DB). Launches are recorded only while it is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.HistoryDB == "" {
			return errors.New("launch history is disabled; set history_db or N5SPARK_HISTORY_DB")
		}

		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			return err
		}
		defer store.Close()

		launches, err := store.Recent(historyLimit)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		switch historyOutput {
		case "json":
			return writeJSON(w, launches)
		case "table":
			if len(launches) == 0 {
				fmt.Fprintln(w, "No launches recorded")
				return nil
			}
			table := tablewriter.NewWriter(w)
			table.Header("ID", "Job", "Nodes", "Status", "Exit", "Started", "Args")
			for _, l := range launches {
				exit := "-"
				if l.ExitCode != nil {
					exit = strconv.Itoa(*l.ExitCode)
				}
				table.Append([]string{
					shortID(l.ID),
					l.Job,
					strconv.Itoa(l.Nodes),
					l.Status,
					exit,
					l.StartedAt.Local().Format(time.DateTime),
					jobArgs(l.Args),
				})
			}
			table.Render()
			return nil
		default:
			return usageError(fmt.Errorf("unknown output format %q", historyOutput))
		}
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of launches to show")
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", "table", "output format: table, json")
}

// jobArgs drops node count, archive and class from the recorded wrapper args.
func jobArgs(args []string) string {
	if len(args) <= 3 {
		return ""
	}
	return strings.Join(args[3:], " ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
