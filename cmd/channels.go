package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ksfoundation/oneshot/internal/shared/cmdutils"
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Manage chat channels",
}

func init() {
	channelsCmd.AddCommand(channelsStatusCmd)
}

var channelsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show channel status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		slack := cfg.Channels.Slack
		slackDetail := "(not configured)"
		if slack.AppToken != "" && slack.BotToken != "" {
			slackDetail = "socket, groups: " + slack.GroupPolicy
		}
		tg := cfg.Channels.Telegram

		rows := [][]string{
			{"Slack", yesNo(slack.Enabled), orDefaultModel(slack.Model, cfg.Agent.Model), slackDetail, allowList(slack.AllowFrom)},
			{"Telegram", yesNo(tg.Enabled), orDefaultModel(tg.Model, cfg.Agent.Model), tokenHint(tg.Token), allowList(tg.AllowFrom)},
		}
		cmdutils.Table(cmd.OutOrStdout(), []string{"Channel", "Enabled", "Model", "Config", "Allow"}, rows)
		return nil
	},
}

func yesNo(b bool) string {
	if b {
		return "✓"
	}
	return "✗"
}

func tokenHint(token string) string {
	if token == "" {
		return "(not configured)"
	}
	if len(token) <= 10 {
		return "token set"
	}
	return token[:10] + "..."
}

func orDefaultModel(model, def string) string {
	if model == "" {
		return def
	}
	return model
}

func allowList(ids []string) string {
	if len(ids) == 0 {
		return "everyone"
	}
	return fmt.Sprintf("%d ids: %s", len(ids), strings.Join(ids, ","))
}
