package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"jobdigest-engine/internal/config"
	"jobdigest-engine/internal/scrape/types"
	"jobdigest-engine/internal/secrets"
)

func emptySecrets() secrets.Store {
	return secrets.Store{
		Keyring: func(string, string) (string, error) { return "", keyring.ErrNotFound },
		Getenv:  func(string) string { return "" },
	}
}

func TestNewMailer_MissingPassword(t *testing.T) {
	cfg := config.Default()
	cfg.Email.Username = "me@example.com"

	_, err := newMailer(cfg, emptySecrets())
	require.ErrorIs(t, err, secrets.ErrNotFound)
	assert.NotContains(t, err.Error(), "%!w")
	assert.Contains(t, err.Error(), "smtp password for me@example.com")
}

func TestNewMailer(t *testing.T) {
	cfg := config.Default()
	cfg.Email.To = []string{"me@example.com"}

	m, err := newMailer(cfg, emptySecrets())
	require.NoError(t, err, "no username means no auth")
	assert.Empty(t, m.Password)

	cfg.Email.Username = "me@example.com"
	sec := emptySecrets()
	sec.Getenv = func(k string) string {
		if k == "JOB_DIGEST_SMTP_PASSWORD" {
			return "app-password"
		}
		return ""
	}
	m, err = newMailer(cfg, sec)
	require.NoError(t, err)
	assert.Equal(t, "app-password", m.Password)
	assert.Equal(t, "me@example.com", m.From)
}

func TestBuildFetchers(t *testing.T) {
	cfg := config.Default()
	cfg.Sources.BatchSize = 1
	cfg.Sources.Greenhouse = config.Boards{Enabled: true, Boards: []string{"monzo", "wise"}}
	cfg.Sources.Alerts.Enabled = true

	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	names := func(fs []types.Fetcher) []string {
		var out []string
		for _, f := range fs {
			out = append(out, f.Name())
		}
		return out
	}

	fs := buildFetchers(cfg, emptySecrets(), day, nil)
	assert.Equal(t, []string{"greenhouse"}, names(fs), "alerts skipped without an IMAP password")

	cfg.Sources.Greenhouse.Enabled = false
	assert.Empty(t, buildFetchers(cfg, emptySecrets(), day, nil))
}
