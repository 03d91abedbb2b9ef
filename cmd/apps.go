package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ksfoundation/oneshot/internal/hosting"
	"github.com/ksfoundation/oneshot/internal/shared/cmdutils"
)

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "Browse one-click apps and render their deploy commands",
}

func init() {
	appsCmd.AddCommand(appsListCmd)
	appsCmd.AddCommand(appsCommandCmd)
}

var appsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the one-click app catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rows := make([][]string, 0, len(hosting.Apps))
		for _, a := range hosting.Apps {
			ports := make([]string, len(a.Ports))
			for i, p := range a.Ports {
				ports[i] = strconv.Itoa(p)
			}
			rows = append(rows, []string{a.ID, a.Category, a.Image, strings.Join(ports, ",")})
		}
		cmdutils.Table(cmd.OutOrStdout(), []string{"ID", "Category", "Image", "Ports"}, rows)
		return nil
	},
}

var appsCommandCmd = &cobra.Command{
	Use:   "command <app-id> <subdomain>",
	Short: "Print the container command that serves an app at <subdomain>",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		line, err := hosting.NewProvisioner(cfg.Tools.Hosting, nil).DeployCommand(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
		return nil
	},
}
