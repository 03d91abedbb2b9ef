package channels

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ksfoundation/oneshot/internal/config/channel"
)

// TelegramChannel implements the Telegram bot via long polling.
type TelegramChannel struct {
	Base
	cfg *channel.TelegramConfig
	bot *tgbotapi.BotAPI
}

// NewTelegramChannel creates a TelegramChannel.
func NewTelegramChannel(cfg *channel.TelegramConfig, chat Chatter, model string) *TelegramChannel {
	return &TelegramChannel{
		Base: NewBase("telegram", chat, model, cfg.AllowFrom),
		cfg:  cfg,
	}
}

func (t *TelegramChannel) Name() string { return "telegram" }

func (t *TelegramChannel) Start(ctx context.Context) error {
	if t.cfg.Token == "" {
		return fmt.Errorf("telegram: bot token not configured")
	}
	bot, err := tgbotapi.NewBotAPI(t.cfg.Token)
	if err != nil {
		return fmt.Errorf("telegram: create bot: %w", err)
	}
	t.bot = bot
	slog.Info("telegram: connected", "username", bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go t.handleUpdate(ctx, update)
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			return ctx.Err()
		}
	}
}

// senderKey is "id|username" so allowlists may name either.
func senderKey(u *tgbotapi.User) string {
	key := strconv.FormatInt(u.ID, 10)
	if u.UserName != "" {
		key += "|" + u.UserName
	}
	return key
}

// promptText returns the caption for media messages and the text otherwise.
func promptText(msg *tgbotapi.Message) string {
	if msg.Caption != "" {
		return strings.TrimSpace(msg.Caption)
	}
	return strings.TrimSpace(msg.Text)
}

func (t *TelegramChannel) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	prompt := promptText(msg)
	if prompt == "" {
		return
	}

	typingCtx, stopTyping := context.WithCancel(ctx)
	go t.keepTyping(typingCtx, msg.Chat.ID)
	reply, ok := t.HandleMessage(ctx, senderKey(msg.From), prompt)
	stopTyping()
	if !ok || reply == "" {
		return
	}

	var replyTo int
	if t.cfg.ReplyToMessage {
		replyTo = msg.MessageID
	}
	for _, chunk := range splitMessage(reply, 4000) {
		if err := t.send(msg.Chat.ID, replyTo, chunk); err != nil {
			slog.Error("telegram: send failed", "chat", msg.Chat.ID, "err", err)
			return
		}
	}
}

// keepTyping refreshes the chat action until ctx ends; Telegram clears it
// after about five seconds.
func (t *TelegramChannel) keepTyping(ctx context.Context, chatID int64) {
	if t.bot == nil {
		return
	}
	tick := time.NewTicker(4 * time.Second)
	defer tick.Stop()
	for {
		_, _ = t.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
		select {
		case <-tick.C:
		case <-ctx.Done():
			return
		}
	}
}

// send posts one chunk as HTML, falling back to plain text when Telegram
// rejects the markup.
func (t *TelegramChannel) send(chatID int64, replyTo int, chunk string) error {
	if t.bot == nil {
		return nil
	}
	m := tgbotapi.NewMessage(chatID, markdownToTelegramHTML(chunk))
	m.ParseMode = tgbotapi.ModeHTML
	m.ReplyToMessageID = replyTo
	if _, err := t.bot.Send(m); err == nil {
		return nil
	}
	plain := tgbotapi.NewMessage(chatID, chunk)
	plain.ReplyToMessageID = replyTo
	_, err := t.bot.Send(plain)
	return err
}

// Telegram only understands a small HTML subset, so model output written in
// Markdown is rewritten before sending. Code spans are stashed first so the
// inline rules never touch their contents.

type htmlRule struct {
	re   *regexp.Regexp
	repl string
}

var (
	reTGCodeBlock  = regexp.MustCompile("(?s)```[\\w]*\\n?(.*?)```")
	reTGInlineCode = regexp.MustCompile("`([^`]+)`")

	// Applied before escaping.
	tgStripRules = []htmlRule{
		{regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`), "$1"},
		{regexp.MustCompile(`(?m)^>\s*(.*)$`), "$1"},
	}
	// Applied after escaping, in order.
	tgInlineRules = []htmlRule{
		{regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`), `<a href="$2">$1</a>`},
		{regexp.MustCompile(`\*\*(.+?)\*\*`), "<b>$1</b>"},
		{regexp.MustCompile(`__(.+?)__`), "<b>$1</b>"},
		{regexp.MustCompile(`(?:^|[^a-zA-Z0-9])_([^_]+)_(?:[^a-zA-Z0-9]|$)`), "<i>$1</i>"},
		{regexp.MustCompile(`~~(.+?)~~`), "<s>$1</s>"},
		{regexp.MustCompile(`(?m)^[-*]\s+`), "• "},
	}
)

// codeStash swaps code spans for NUL-delimited placeholders and restores
// them once the surrounding text has been converted.
type codeStash struct {
	tag   string
	open  string
	close string
	items []string
}

func (c *codeStash) hide(re *regexp.Regexp, text string) string {
	return re.ReplaceAllStringFunc(text, func(m string) string {
		c.items = append(c.items, re.FindStringSubmatch(m)[1])
		return fmt.Sprintf("\x00%s%d\x00", c.tag, len(c.items)-1)
	})
}

func (c *codeStash) restore(text string) string {
	for i, code := range c.items {
		text = strings.ReplaceAll(text, fmt.Sprintf("\x00%s%d\x00", c.tag, i), c.open+htmlEscape(code)+c.close)
	}
	return text
}

func markdownToTelegramHTML(text string) string {
	if text == "" {
		return ""
	}
	blocks := &codeStash{tag: "CB", open: "<pre><code>", close: "</code></pre>"}
	inline := &codeStash{tag: "IC", open: "<code>", close: "</code>"}
	text = inline.hide(reTGInlineCode, blocks.hide(reTGCodeBlock, text))

	for _, r := range tgStripRules {
		text = r.re.ReplaceAllString(text, r.repl)
	}
	text = htmlEscape(text)
	for _, r := range tgInlineRules {
		text = r.re.ReplaceAllString(text, r.repl)
	}
	return blocks.restore(inline.restore(text))
}

var tgEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func htmlEscape(s string) string { return tgEscaper.Replace(s) }
