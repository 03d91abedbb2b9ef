package channel

// SlackConfig configures the Slack front-end (socket mode).
type SlackConfig struct {
	Enabled        bool     `json:"enabled" yaml:"enabled"`
	BotToken       string   `json:"botToken" yaml:"botToken"`
	AppToken       string   `json:"appToken" yaml:"appToken"`
	Model          string   `json:"model,omitempty" yaml:"model,omitempty"`
	ReplyInThread  bool     `json:"replyInThread" yaml:"replyInThread"`
	ReactEmoji     string   `json:"reactEmoji" yaml:"reactEmoji"`
	GroupPolicy    string   `json:"groupPolicy" yaml:"groupPolicy"` // "open", "mention" or "allowlist"
	GroupAllowFrom []string `json:"groupAllowFrom" yaml:"groupAllowFrom"`
	AllowFrom      []string `json:"allowFrom" yaml:"allowFrom"`
}

func DefaultSlackConfig() SlackConfig {
	return SlackConfig{
		ReplyInThread:  true,
		ReactEmoji:     "eyes",
		GroupPolicy:    "mention",
		GroupAllowFrom: []string{},
		AllowFrom:      []string{},
	}
}
