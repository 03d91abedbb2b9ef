package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ksfoundation/oneshot/internal/agent"
	"github.com/ksfoundation/oneshot/internal/journal"
	"github.com/ksfoundation/oneshot/internal/shared/cmdutils"
)

var (
	chatMessage string
	chatModel   string
	chatJSON    bool
	chatTimeout time.Duration
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Send a prompt through the execution loop",
	Long: "Send a single prompt with -m, or start an interactive prompt where every line is " +
		"answered independently (no conversation history is kept).",
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Send a single message and exit")
	chatCmd.Flags().StringVar(&chatModel, "model", "", "Model id (default: agent.model from config)")
	chatCmd.Flags().BoolVar(&chatJSON, "json", false, "Print the raw response as JSON")
	chatCmd.Flags().DurationVar(&chatTimeout, "timeout", 5*time.Minute, "Per-message timeout")
}

var exitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
	":q":    true,
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	container, err := newContainer(cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = journal.WithSource(ctx, "cli")

	if err := container.ConnectProviders(ctx); err != nil {
		slog.Warn("some tool providers are unavailable", "err", err)
	}

	out := cmd.OutOrStdout()
	loop := container.Loop()

	if chatMessage != "" {
		return sendOne(ctx, out, loop, chatMessage)
	}
	return runInteractive(ctx, cmd.InOrStdin(), out, loop)
}

func sendOne(ctx context.Context, out io.Writer, loop *agent.Loop, message string) error {
	ctx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()

	if !chatJSON {
		fmt.Fprintf(os.Stderr, "  ↳ thinking...\n")
	}
	resp, err := loop.Chat(ctx, message, chatModel)
	if err != nil {
		return err
	}

	if chatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	cmdutils.PrintResponse(out, resp)
	return nil
}

// runInteractive reads lines from in and answers each one as its own
// single-prompt request.
func runInteractive(ctx context.Context, in io.Reader, out io.Writer, loop *agent.Loop) error {
	model := chatModel
	if model == "" {
		model = loop.DefaultModel()
	}
	fmt.Fprintf(out, "%s Interactive mode, model %s (type 'exit' or Ctrl+C to quit)\n\n", cmdutils.Logo, model)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Fprint(out, "You: ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nGoodbye!")
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out, "\nGoodbye!")
				return nil
			}
			line = strings.TrimSpace(l)
		}

		if line == "" {
			continue
		}
		if exitCommands[strings.ToLower(line)] {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}
		if err := sendOne(ctx, out, loop, line); err != nil {
			fmt.Fprintf(out, "\nError: %v\n\n", err)
		}
	}
}
