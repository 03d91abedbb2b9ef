package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ksfoundation/oneshot/internal/config"
	"github.com/ksfoundation/oneshot/internal/shared/cmdutils"
)

var onboardForce bool

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize configuration and workspace",
	RunE:  runOnboard,
}

func init() {
	onboardCmd.Flags().BoolVarP(&onboardForce, "force", "f", false, "Refresh an existing config without prompting")
}

func runOnboard(cmd *cobra.Command, _ []string) error {
	cfgPath := configPath()

	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Printf("Config already exists at %s\n", cfgPath)
		if !onboardForce {
			fmt.Printf("Press Enter to refresh (keep existing values) or Ctrl+C to cancel: ")
			fmt.Scanln()
		}
		existing, loadErr := config.Load(cfgPath)
		if loadErr != nil {
			def := config.DefaultConfig()
			existing = &def
		}
		if err := config.Save(existing, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Config refreshed at %s\n", cfgPath)
	} else {
		cfg := config.DefaultConfig()
		if err := config.Save(&cfg, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Created config at %s\n", cfgPath)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	workspace := cfg.WorkspacePath()
	for _, dir := range []string{workspace, config.ExpandHome(cfg.Tools.Workflow.Dir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	fmt.Printf("✓ Workspace at %s\n", workspace)
	if !cfg.Journal.Disabled {
		journalDir := filepath.Dir(config.ExpandHome(cfg.Journal.Path))
		if err := os.MkdirAll(journalDir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", journalDir, err)
		}
	}

	fmt.Printf("\n%s oneshot is ready!\n\n", cmdutils.Logo)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Add an API key (providers.openai.apiKey, or OPENAI_API_KEY) to %s\n", cfgPath)
	fmt.Println("     Or use model \"local-llm\" with a running Ollama server.")
	fmt.Println("  2. Register MCP servers under tools.mcpServers")
	fmt.Printf("  3. Chat: oneshot chat -m \"Check if acme.com is available\"\n")
	return nil
}
