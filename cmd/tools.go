package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ksfoundation/oneshot/internal/providers"
	"github.com/ksfoundation/oneshot/internal/shared/cmdutils"
	"github.com/ksfoundation/oneshot/internal/shared/llmutils"
)

var (
	toolsJSON    bool
	toolsModels  bool
	toolsTimeout time.Duration
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tool catalog advertised to the model",
	RunE:  runTools,
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsJSON, "json", false, "Print descriptors with their parameter schemas as JSON")
	toolsCmd.Flags().BoolVar(&toolsModels, "models", false, "List selectable models instead of tools")
	toolsCmd.Flags().DurationVar(&toolsTimeout, "timeout", 30*time.Second, "Provider startup timeout")
}

func runTools(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	if toolsModels {
		rows := [][]string{}
		for _, m := range providers.Models() {
			rows = append(rows, []string{m.ID, m.Provider, fmt.Sprint(m.MaxTokens), m.Description})
		}
		cmdutils.Table(out, []string{"Model", "Provider", "Max Tokens", "Description"}, rows)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Journal.Disabled = true
	container, err := newContainer(cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), toolsTimeout)
	defer cancel()
	if err := container.ConnectProviders(ctx); err != nil {
		slog.Warn("some tool providers are unavailable", "err", err)
	}

	snap := container.Catalog().Build(ctx)

	if toolsJSON {
		type entry struct {
			Name        string          `json:"name"`
			Description string          `json:"description"`
			Provider    string          `json:"provider,omitempty"`
			Parameters  json.RawMessage `json:"parameters"`
		}
		entries := make([]entry, 0, snap.Len())
		for _, d := range snap.Descriptors() {
			entries = append(entries, entry{d.Name, d.Description, d.Provider, d.ParametersJSON()})
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	rows := make([][]string, 0, snap.Len())
	for _, d := range snap.Descriptors() {
		rows = append(rows, []string{
			d.Name,
			llmutils.StringOrDefault(d.Provider, "builtin"),
			llmutils.Truncate(d.Description, 60),
		})
	}
	cmdutils.Table(out, []string{"Tool", "Source", "Description"}, rows)
	return nil
}
