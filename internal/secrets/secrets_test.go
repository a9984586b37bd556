package secrets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"jobdigest-engine/internal/config"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Email.Username = "me@example.com"
	cfg.Sources.Alerts.Username = "alerts@example.com"
	cfg.Sources.Alerts.IMAPHost = "imap.example.com"
	return cfg
}

func TestAccount(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, "job-digest:smtp:me@example.com@smtp.gmail.com", Account(cfg, SMTP))
	assert.Equal(t, "job-digest:imap:alerts@example.com@imap.example.com", Account(cfg, IMAP))
	assert.Equal(t, "job-digest:gemini", Account(cfg, Gemini))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" SMTP ")
	require.NoError(t, err)
	assert.Equal(t, SMTP, k)

	_, err = ParseKind("ftp")
	assert.Error(t, err)
}

func TestStore_KeychainFirst(t *testing.T) {
	s := Store{
		Keyring: func(service, account string) (string, error) {
			assert.Equal(t, KeyringService, service)
			return "from-keychain", nil
		},
		Getenv: func(string) string { return "from-env" },
	}
	pw, err := s.Get(testConfig(), SMTP)
	require.NoError(t, err)
	assert.Equal(t, "from-keychain", pw)
}

func TestStore_EnvFallback(t *testing.T) {
	env := map[string]string{"GEMINI_API_KEY": "key-1"}
	s := Store{
		Keyring: func(string, string) (string, error) { return "", keyring.ErrNotFound },
		Getenv:  func(k string) string { return env[k] },
	}

	pw, err := s.Get(testConfig(), Gemini)
	require.NoError(t, err)
	assert.Equal(t, "key-1", pw)

	_, err = s.Get(testConfig(), IMAP)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.ErrorContains(t, err, "JOB_DIGEST_IMAP_PASSWORD")
}

func TestKeyringRoundTrip(t *testing.T) {
	keyring.MockInit()
	cfg := testConfig()

	require.NoError(t, Set(cfg, IMAP, "s3cret"))
	pw, err := Store{Getenv: func(string) string { return "" }}.Get(cfg, IMAP)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)

	require.NoError(t, Delete(cfg, IMAP))
	require.NoError(t, Delete(cfg, IMAP), "deleting a missing entry is not an error")
	assert.Error(t, Set(cfg, SMTP, "  "))
}
