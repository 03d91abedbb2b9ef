package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ksfoundation/oneshot/internal/config"
	"github.com/ksfoundation/oneshot/internal/journal"
	"github.com/ksfoundation/oneshot/internal/shared/cmdutils"
	"github.com/ksfoundation/oneshot/internal/shared/llmutils"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent turns from the journal",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of turns to show")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print full entries as JSON")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Journal.Disabled {
		return fmt.Errorf("journal is disabled in %s", configPath())
	}

	store, err := journal.Open(config.ExpandHome(cfg.Journal.Path))
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if historyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No turns recorded.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		names := make([]string, 0, len(e.ToolCalls))
		for _, tc := range e.ToolCalls {
			names = append(names, tc.Name)
		}
		status := "ok"
		if e.Error != "" {
			status = "error"
		}
		rows = append(rows, []string{
			e.Time.Local().Format("2006-01-02 15:04:05"),
			llmutils.StringOrDefault(e.Source, "-"),
			e.Model,
			status,
			llmutils.Truncate(strings.Join(names, ","), 30),
			llmutils.Truncate(strings.ReplaceAll(e.Message, "\n", " "), 40),
		})
	}
	cmdutils.Table(out, []string{"Time", "Source", "Model", "Status", "Tools", "Message"}, rows)
	return nil
}
