// Package channels provides chat-platform front-ends that forward each
// inbound message to the execution loop and reply with its answer.
package channels

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ksfoundation/oneshot/internal/journal"
	"github.com/ksfoundation/oneshot/internal/schema"
	"github.com/ksfoundation/oneshot/internal/shared/llmutils"
)

// Chatter answers one user message.
type Chatter interface {
	Chat(ctx context.Context, userMessage, modelID string) (schema.AgentResponse, error)
}

// Channel is a running chat front-end.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
}

// Base holds common state and helper methods shared by all channels.
type Base struct {
	channelName string
	chat        Chatter
	model       string
	allowFrom   []string // empty = allow all
	timeout     time.Duration
}

// NewBase creates a Base with the given channel name, chatter, model, and allowlist.
func NewBase(name string, chat Chatter, model string, allowFrom []string) Base {
	return Base{channelName: name, chat: chat, model: model, allowFrom: allowFrom, timeout: 5 * time.Minute}
}

// IsAllowed checks whether senderID is on the allowlist.
// senderID may be "id|username" (Telegram) or a plain string.
func (b *Base) IsAllowed(senderID string) bool {
	if len(b.allowFrom) == 0 {
		return true
	}
	for _, part := range strings.Split(senderID, "|") {
		if part == "" {
			continue
		}
		for _, allowed := range b.allowFrom {
			if allowed == part {
				return true
			}
		}
	}
	return false
}

// HandleMessage verifies the sender is allowed, runs one chat turn and
// returns the reply text. ok is false when the sender was rejected.
func (b *Base) HandleMessage(ctx context.Context, senderID, content string) (reply string, ok bool) {
	if !b.IsAllowed(senderID) {
		slog.Warn("access denied", "channel", b.channelName, "sender", senderID)
		return "", false
	}

	ctx, cancel := context.WithTimeout(journal.WithSource(ctx, b.channelName), b.timeout)
	defer cancel()

	slog.Info("Processing message", "channel", b.channelName, "sender", senderID)
	resp, err := b.chat.Chat(ctx, content, b.model)
	if err != nil {
		slog.Error("chat failed", "channel", b.channelName, "err", err)
		return fmt.Sprintf("Sorry, I couldn't reach the model: %v", err), true
	}
	return llmutils.CleanLocal(resp.Content), true
}

// splitMessage splits content into chunks that fit within maxLen,
// preferring newline breaks, then space breaks, then hard cut.
func splitMessage(content string, maxLen int) []string {
	if len(content) <= maxLen {
		return []string{content}
	}
	var chunks []string
	for len(content) > 0 {
		if len(content) <= maxLen {
			chunks = append(chunks, content)
			break
		}
		cut := content[:maxLen]
		pos := strings.LastIndex(cut, "\n")
		if pos <= 0 {
			pos = strings.LastIndex(cut, " ")
		}
		if pos <= 0 {
			pos = maxLen
		}
		chunks = append(chunks, content[:pos])
		content = strings.TrimLeft(content[pos:], " \t\n")
	}
	return chunks
}
