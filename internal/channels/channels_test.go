package channels

import (
	"context"
	"errors"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/slack-go/slack/slackevents"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksfoundation/oneshot/internal/config/channel"
	"github.com/ksfoundation/oneshot/internal/journal"
	"github.com/ksfoundation/oneshot/internal/schema"
)

type fakeChatter struct {
	model  string
	source string
	reply  string
	err    error
}

func (f *fakeChatter) Chat(ctx context.Context, _ string, model string) (schema.AgentResponse, error) {
	f.model, f.source = model, journal.SourceFrom(ctx)
	return schema.AgentResponse{Content: f.reply}, f.err
}

func TestIsAllowed(t *testing.T) {
	open := NewBase("telegram", nil, "", nil)
	assert.True(t, open.IsAllowed("anyone"))

	b := NewBase("telegram", nil, "", []string{"42", "alice"})
	assert.True(t, b.IsAllowed("42"))
	assert.True(t, b.IsAllowed("99|alice"))
	assert.True(t, b.IsAllowed("42|bob"))
	assert.False(t, b.IsAllowed("99|bob"))
	assert.False(t, b.IsAllowed(""))
}

func TestHandleMessage(t *testing.T) {
	chat := &fakeChatter{reply: "Paris"}
	b := NewBase("telegram", chat, "claude-3-opus", []string{"42"})

	reply, ok := b.HandleMessage(context.Background(), "42|alice", "capital of France?")
	require.True(t, ok)
	assert.Equal(t, "Paris", reply)
	assert.Equal(t, "claude-3-opus", chat.model)
	assert.Equal(t, "telegram", chat.source)

	_, ok = b.HandleMessage(context.Background(), "7", "hi")
	assert.False(t, ok)
}

func TestHandleMessage_BackendError(t *testing.T) {
	chat := &fakeChatter{err: &schema.BackendError{Provider: "openai", Kind: schema.ErrBackendUnavailable, Err: errors.New("503")}}
	b := NewBase("slack", chat, "gpt-4-turbo-preview", nil)

	reply, ok := b.HandleMessage(context.Background(), "U1", "hi")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(reply, "Sorry, I couldn't reach the model"), reply)
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	chunks := splitMessage("line one\nline two\nline three", 12)
	assert.Equal(t, []string{"line one", "line two", "line three"}, chunks)

	chunks = splitMessage(strings.Repeat("x", 25), 10)
	assert.Equal(t, []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)}, chunks)
}

func TestMarkdownToTelegramHTML(t *testing.T) {
	got := markdownToTelegramHTML("**bold** and `code` <tag>\n- item")
	assert.Equal(t, "<b>bold</b> and <code>code</code> &lt;tag&gt;\n• item", got)
	assert.Equal(t, "", markdownToTelegramHTML(""))
}

func newTestSlack(cfg channel.SlackConfig) *SlackChannel {
	s := NewSlackChannel(&cfg, &fakeChatter{}, "gpt-4-turbo-preview")
	s.setBotUser("UBOT")
	return s
}

func innerEvent(typ string, data map[string]interface{}) slackevents.EventsAPIInnerEvent {
	return slackevents.EventsAPIInnerEvent{Type: typ, Data: data}
}

func TestSlack_ParseMention(t *testing.T) {
	s := newTestSlack(channel.DefaultSlackConfig())

	m, ok := s.parseInnerEvent(innerEvent("app_mention", map[string]interface{}{
		"user": "U1", "channel": "C1", "text": "<@UBOT> check acme", "ts": "1.0", "channel_type": "channel",
	}))
	require.True(t, ok)
	assert.Equal(t, "check acme", m.text)
	assert.Equal(t, "1.0", m.threadTS)
}

func TestSlack_IgnoresUnmentionedGroupMessage(t *testing.T) {
	s := newTestSlack(channel.DefaultSlackConfig())

	_, ok := s.parseInnerEvent(innerEvent("message", map[string]interface{}{
		"user": "U1", "channel": "C1", "text": "just chatting", "channel_type": "channel",
	}))
	assert.False(t, ok)
}

func TestSlack_IgnoresBotAndSubtypes(t *testing.T) {
	s := newTestSlack(channel.DefaultSlackConfig())

	_, ok := s.parseInnerEvent(innerEvent("message", map[string]interface{}{
		"user": "UBOT", "channel": "D1", "text": "echo", "channel_type": "im",
	}))
	assert.False(t, ok)

	_, ok = s.parseInnerEvent(innerEvent("message", map[string]interface{}{
		"user": "U1", "channel": "D1", "text": "edited", "channel_type": "im", "subtype": "message_changed",
	}))
	assert.False(t, ok)
}

func TestSlack_DirectMessageAllowlist(t *testing.T) {
	cfg := channel.DefaultSlackConfig()
	cfg.AllowFrom = []string{"U1"}
	s := newTestSlack(cfg)

	_, ok := s.parseInnerEvent(innerEvent("message", map[string]interface{}{
		"user": "U1", "channel": "D1", "text": "hi", "channel_type": "im",
	}))
	assert.True(t, ok)

	_, ok = s.parseInnerEvent(innerEvent("message", map[string]interface{}{
		"user": "U2", "channel": "D1", "text": "hi", "channel_type": "im",
	}))
	assert.False(t, ok)
}

func TestSlack_GroupAllowlistPolicy(t *testing.T) {
	cfg := channel.DefaultSlackConfig()
	cfg.GroupPolicy = "allowlist"
	cfg.GroupAllowFrom = []string{"C1"}
	s := newTestSlack(cfg)

	assert.True(t, s.isAllowedSlack("U1", "C1", "channel"))
	assert.False(t, s.isAllowedSlack("U1", "C2", "channel"))
	assert.True(t, s.shouldRespond("message", "anything", "C1"))
}

func TestManager_EnabledChannels(t *testing.T) {
	cfg := channel.DefaultChannelsConfig()
	assert.Empty(t, NewManager(cfg, &fakeChatter{}, "gpt-4-turbo-preview").EnabledChannels())

	cfg.Slack.Enabled = true
	cfg.Telegram.Enabled = true
	cfg.Telegram.Model = "local-llm"
	m := NewManager(cfg, &fakeChatter{}, "gpt-4-turbo-preview")
	assert.Equal(t, []string{"slack", "telegram"}, m.EnabledChannels())
	assert.Equal(t, "local-llm", m.channels["telegram"].(*TelegramChannel).model)
	assert.Equal(t, "gpt-4-turbo-preview", m.channels["slack"].(*SlackChannel).model)
}

func TestTelegramSenderAndPrompt(t *testing.T) {
	assert.Equal(t, "42", senderKey(&tgbotapi.User{ID: 42}))
	assert.Equal(t, "42|alice", senderKey(&tgbotapi.User{ID: 42, UserName: "alice"}))

	assert.Equal(t, "hello", promptText(&tgbotapi.Message{Text: "  hello \n"}))
	assert.Equal(t, "what is this?", promptText(&tgbotapi.Message{Text: "ignored", Caption: "what is this?"}))
	assert.Equal(t, "", promptText(&tgbotapi.Message{}))
}

func TestMarkdownToTelegramHTML_CodeBlockUntouched(t *testing.T) {
	got := markdownToTelegramHTML("see:\n```go\na := **b** < c\n```")
	assert.Equal(t, "see:\n<pre><code>a := **b** &lt; c\n</code></pre>", got)
}

func TestHandleMessage_HidesThinkBlocks(t *testing.T) {
	chat := &fakeChatter{reply: "<think>which city?</think>\nParis"}
	b := NewBase("slack", chat, "local-llm", nil)

	reply, ok := b.HandleMessage(context.Background(), "U1", "capital of France?")
	require.True(t, ok)
	assert.Equal(t, "Paris", reply)
}
