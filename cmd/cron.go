package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ksfoundation/oneshot/internal/cron"
	"github.com/ksfoundation/oneshot/internal/shared/cmdutils"
	"github.com/ksfoundation/oneshot/internal/shared/llmutils"
)

var cronCmd = &cobra.Command{
	Use:     "cron",
	Aliases: []string{"schedule"},
	Short:   "Inspect and run scheduled prompts",
}

func init() {
	cronCmd.AddCommand(cronListCmd)
	cronCmd.AddCommand(cronRunCmd)
}

var cronListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled prompts from the config",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		svc := cron.NewService(cfg.Schedules, nil)
		jobs := svc.Jobs()
		if len(jobs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No scheduled prompts.")
			return nil
		}
		rows := make([][]string, 0, len(jobs))
		for _, j := range jobs {
			rows = append(rows, []string{
				llmutils.Truncate(j.Job.Name, 20),
				formatSchedule(j.Job),
				llmutils.StringOrDefault(j.Job.Model, "(default)"),
				j.State.NextRun.Format("2006-01-02 15:04"),
				llmutils.Truncate(j.Job.Message, 40),
			})
		}
		cmdutils.Table(cmd.OutOrStdout(), []string{"Name", "Schedule", "Model", "Next Run", "Message"}, rows)
		return nil
	},
}

var cronRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Run a scheduled prompt now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		container, err := newContainer(cfg)
		if err != nil {
			return err
		}
		defer container.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()

		if err := container.ConnectProviders(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}

		resp, err := container.CronService().RunNow(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%s %s\n%s\n\n", cmdutils.Logo, args[0], resp)
		return nil
	},
}

func formatSchedule(j cron.Job) string {
	switch j.Kind() {
	case "every":
		return fmt.Sprintf("every %ds", j.EverySeconds)
	default:
		if j.TZ != "" {
			return j.Expr + " (" + j.TZ + ")"
		}
		return j.Expr
	}
}
