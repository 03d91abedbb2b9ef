package channel

// TelegramConfig configures the Telegram front-end (long polling).
type TelegramConfig struct {
	Enabled        bool     `json:"enabled" yaml:"enabled"`
	Token          string   `json:"token" yaml:"token"`
	Model          string   `json:"model,omitempty" yaml:"model,omitempty"`
	AllowFrom      []string `json:"allowFrom" yaml:"allowFrom"`
	ReplyToMessage bool     `json:"replyToMessage" yaml:"replyToMessage"`
}

func DefaultTelegramConfig() TelegramConfig {
	return TelegramConfig{AllowFrom: []string{}}
}
