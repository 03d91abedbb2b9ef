package channel

// ChannelsConfig groups the optional chat front-ends.
type ChannelsConfig struct {
	Slack    SlackConfig    `json:"slack" yaml:"slack"`
	Telegram TelegramConfig `json:"telegram" yaml:"telegram"`
}

func DefaultChannelsConfig() ChannelsConfig {
	return ChannelsConfig{
		Slack:    DefaultSlackConfig(),
		Telegram: DefaultTelegramConfig(),
	}
}
