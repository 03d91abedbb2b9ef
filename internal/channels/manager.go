package channels

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/ksfoundation/oneshot/internal/config/channel"
)

// Manager owns all enabled channels.
type Manager struct {
	channels map[string]Channel
}

// NewManager creates a Manager with every enabled channel. Channels without
// their own model use defaultModel.
func NewManager(cfg channel.ChannelsConfig, chat Chatter, defaultModel string) *Manager {
	m := &Manager{channels: make(map[string]Channel)}

	if cfg.Telegram.Enabled {
		tg := cfg.Telegram
		m.channels["telegram"] = NewTelegramChannel(&tg, chat, orDefault(tg.Model, defaultModel))
		slog.Info("channel enabled", "name", "telegram")
	}
	if cfg.Slack.Enabled {
		sl := cfg.Slack
		m.channels["slack"] = NewSlackChannel(&sl, chat, orDefault(sl.Model, defaultModel))
		slog.Info("channel enabled", "name", "slack")
	}
	return m
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// EnabledChannels returns the names of all enabled channels, sorted.
func (m *Manager) EnabledChannels() []string {
	return slices.Sorted(maps.Keys(m.channels))
}

// StartAll runs every channel until ctx is cancelled and waits for them to
// return. A channel that fails is logged and the others keep running.
func (m *Manager) StartAll(ctx context.Context) error {
	var wg sync.WaitGroup
	for name, ch := range m.channels {
		wg.Go(func() {
			slog.Info("starting channel", "name", name)
			if err := ch.Start(ctx); err != nil && ctx.Err() == nil {
				slog.Error("channel exited with error", "name", name, "err", err)
			}
		})
	}
	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}
