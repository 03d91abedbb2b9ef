package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ksfoundation/oneshot/internal/config"
	"github.com/ksfoundation/oneshot/internal/journal"
	"github.com/ksfoundation/oneshot/internal/providers"
	"github.com/ksfoundation/oneshot/internal/shared/cmdutils"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show oneshot status",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	cfgPath := configPath()

	fmt.Fprintf(out, "%s oneshot Status\n\n", cmdutils.Logo)

	_, statErr := os.Stat(cfgPath)
	fmt.Fprintf(out, "Config:    %s %s\n", cfgPath, yesNo(statErr == nil))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(out, "  (could not load config: %v)\n", err)
		return nil
	}

	ws := cfg.WorkspacePath()
	_, wsErr := os.Stat(ws)
	fmt.Fprintf(out, "Workspace: %s %s\n", ws, yesNo(wsErr == nil))

	spec := providers.NewRouter().Resolve(cfg.Agent.Model)
	fmt.Fprintf(out, "Model:     %s (%s, %s)\n", cfg.Agent.Model, spec.Label(), spec.Kind)
	fmt.Fprintf(out, "Gateway:   %s:%d\n", cfg.Gateway.Host, cfg.Gateway.Port)

	printJournalStatus(cfg)

	fmt.Fprintln(out, "\nProviders:")
	for _, spec := range providers.PROVIDERS {
		p := cfg.ProviderByName(spec.Name)
		if p == nil {
			continue
		}
		label := spec.Label()
		switch {
		case spec.Keyless:
			if p.APIBase != "" {
				fmt.Fprintf(out, "  %-20s ✓ %s\n", label, p.APIBase)
			} else {
				fmt.Fprintf(out, "  %-20s (not set)\n", label)
			}
		case p.APIKey != "" || os.Getenv(spec.EnvKey) != "":
			fmt.Fprintf(out, "  %-20s ✓\n", label)
		default:
			fmt.Fprintf(out, "  %-20s (not set)\n", label)
		}
	}

	fmt.Fprintln(out, "\nMCP servers:")
	names := cfg.MCPServerNames()
	if len(names) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, name := range names {
		srv := cfg.Tools.MCPServers[name]
		target := srv.URL
		if target == "" {
			target = strings.TrimSpace(srv.Command + " " + strings.Join(srv.Args, " "))
		}
		fmt.Fprintf(out, "  %-20s %s\n", name, target)
	}
	return nil
}

func printJournalStatus(cfg *config.Config) {
	if cfg.Journal.Disabled {
		fmt.Println("Journal:   disabled")
		return
	}
	path := config.ExpandHome(cfg.Journal.Path)
	if _, err := os.Stat(path); err != nil {
		fmt.Printf("Journal:   %s (empty)\n", path)
		return
	}
	store, err := journal.Open(path)
	if err != nil {
		fmt.Printf("Journal:   %s (busy: %v)\n", path, err)
		return
	}
	defer store.Close()
	n, err := store.Count()
	if err != nil {
		fmt.Printf("Journal:   %s (%v)\n", path, err)
		return
	}
	fmt.Printf("Journal:   %s (%d turns)\n", path, n)
}
