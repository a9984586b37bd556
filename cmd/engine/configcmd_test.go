package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jobdigest-engine/internal/config"
)

func TestEnabledSources(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, []string{"none"}, enabledSources(cfg))

	cfg.Sources.Greenhouse = config.Boards{Enabled: true, Boards: []string{"monzo"}}
	cfg.Sources.Lever = config.Boards{Enabled: true}
	cfg.Sources.Feeds = []config.Feed{{Name: "f", URL: "https://example.com/rss"}}
	cfg.Sources.Alerts.Enabled = true
	assert.Equal(t, []string{"greenhouse", "rss", "email"}, enabledSources(cfg))
}
