package channels

import (
	"context"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	slackgo "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/ksfoundation/oneshot/internal/config/channel"
)

// SlackChannel implements Slack via Socket Mode.
type SlackChannel struct {
	Base
	cfg       *channel.SlackConfig
	webClient *slackgo.Client
	smClient  *socketmode.Client
	botUserID string
	mention   *regexp.Regexp
}

func NewSlackChannel(cfg *channel.SlackConfig, chat Chatter, model string) *SlackChannel {
	return &SlackChannel{
		Base: NewBase("slack", chat, model, cfg.AllowFrom),
		cfg:  cfg,
	}
}

func (s *SlackChannel) Name() string { return "slack" }

func (s *SlackChannel) Start(ctx context.Context) error {
	if s.cfg.BotToken == "" || s.cfg.AppToken == "" {
		slog.Warn("slack: bot/app token not configured")
		<-ctx.Done()
		return ctx.Err()
	}

	s.webClient = slackgo.New(s.cfg.BotToken,
		slackgo.OptionAppLevelToken(s.cfg.AppToken))

	// Resolve bot user ID.
	if resp, err := s.webClient.AuthTestContext(ctx); err == nil {
		s.setBotUser(resp.UserID)
		slog.Info("slack: connected", "bot_user_id", s.botUserID)
	}

	s.smClient = socketmode.New(s.webClient)

	go s.smClient.RunContext(ctx) //nolint:errcheck

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-s.smClient.Events:
			if !ok {
				return nil
			}
			s.handleEvent(ctx, evt)
		}
	}
}

func (s *SlackChannel) handleEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeEventsAPI:
		s.smClient.Ack(*evt.Request)
		cb, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		if cb.InnerEvent.Type != "message" && cb.InnerEvent.Type != "app_mention" {
			return
		}
		msg, ok := s.parseInnerEvent(cb.InnerEvent)
		if !ok {
			return
		}
		go s.respond(ctx, msg)
	}
}

// slackMessage is an inbound message the bot should answer.
type slackMessage struct {
	user, channel, text string
	channelType         string
	ts, threadTS        string
}

func (s *SlackChannel) parseInnerEvent(ev slackevents.EventsAPIInnerEvent) (slackMessage, bool) {
	data, ok := ev.Data.(map[string]interface{})
	if !ok {
		return slackMessage{}, false
	}
	var m slackMessage
	m.user, _ = data["user"].(string)
	m.channel, _ = data["channel"].(string)
	m.text, _ = data["text"].(string)
	subtype, _ := data["subtype"].(string)
	m.channelType, _ = data["channel_type"].(string)
	m.ts, _ = data["ts"].(string)
	m.threadTS, _ = data["thread_ts"].(string)

	if subtype != "" || m.user == "" || m.channel == "" {
		return slackMessage{}, false
	}
	if m.user == s.botUserID {
		return slackMessage{}, false
	}
	// Avoid double-processing mention + message events.
	if ev.Type == "message" && s.mentionsBot(m.text) {
		return slackMessage{}, false
	}
	if !s.isAllowedSlack(m.user, m.channel, m.channelType) {
		return slackMessage{}, false
	}
	if m.channelType != "im" && !s.shouldRespond(ev.Type, m.text, m.channel) {
		return slackMessage{}, false
	}

	m.text = s.stripMention(m.text)
	if s.cfg.ReplyInThread && m.threadTS == "" {
		m.threadTS = m.ts
	}
	return m, true
}

func (s *SlackChannel) respond(ctx context.Context, m slackMessage) {
	// Best-effort reaction.
	if s.webClient != nil && m.ts != "" && s.cfg.ReactEmoji != "" {
		_ = s.webClient.AddReactionContext(ctx, s.cfg.ReactEmoji, slackgo.ItemRef{
			Channel:   m.channel,
			Timestamp: m.ts,
		})
	}

	reply, ok := s.HandleMessage(ctx, m.user, m.text)
	if !ok || reply == "" {
		return
	}
	if err := s.send(ctx, m, reply); err != nil {
		slog.Error("slack: send failed", "channel", m.channel, "err", err)
	}
}

func (s *SlackChannel) setBotUser(id string) {
	s.botUserID = id
	s.mention = regexp.MustCompile(`<@` + regexp.QuoteMeta(id) + `>\s*`)
}

func (s *SlackChannel) inGroupAllowlist(channel string) bool {
	return slices.Contains(s.cfg.GroupAllowFrom, channel)
}

func (s *SlackChannel) isAllowedSlack(user, channel, channelType string) bool {
	if channelType == "im" {
		return s.IsAllowed(user)
	}
	return s.cfg.GroupPolicy != "allowlist" || s.inGroupAllowlist(channel)
}

func (s *SlackChannel) mentionsBot(text string) bool {
	return s.botUserID != "" && strings.Contains(text, "<@"+s.botUserID+">")
}

// shouldRespond applies the group policy to channel messages.
func (s *SlackChannel) shouldRespond(evType, text, channel string) bool {
	switch s.cfg.GroupPolicy {
	case "open":
		return true
	case "mention":
		return evType == "app_mention" || s.mentionsBot(text)
	case "allowlist":
		return s.inGroupAllowlist(channel)
	}
	return false
}

func (s *SlackChannel) stripMention(text string) string {
	if s.mention == nil {
		return text
	}
	return strings.TrimSpace(s.mention.ReplaceAllString(text, ""))
}

func (s *SlackChannel) send(ctx context.Context, m slackMessage, text string) error {
	if s.webClient == nil {
		return nil
	}
	for _, chunk := range splitMessage(text, 3900) {
		options := []slackgo.MsgOption{slackgo.MsgOptionText(chunk, false)}
		if m.threadTS != "" && m.channelType != "im" {
			options = append(options, slackgo.MsgOptionTS(m.threadTS))
		}
		if _, _, err := s.webClient.PostMessageContext(ctx, m.channel, options...); err != nil {
			return err
		}
	}
	return nil
}
