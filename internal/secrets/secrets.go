// Package secrets looks up passwords and API keys: the OS keychain
// first, then the environment.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"jobdigest-engine/internal/config"
)

// KeyringService groups the app's secrets in the OS keychain.
const KeyringService = "job-digest"

type Kind string

const (
	SMTP   Kind = "smtp"
	IMAP   Kind = "imap"
	Gemini Kind = "gemini"
)

var ErrNotFound = errors.New("secret not found")

// envVars are consulted, in order, when the keychain has nothing.
var envVars = map[Kind][]string{
	SMTP:   {"JOB_DIGEST_SMTP_PASSWORD", "SMTP_PASSWORD"},
	IMAP:   {"JOB_DIGEST_IMAP_PASSWORD", "IMAP_PASSWORD"},
	Gemini: {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

// ParseKind accepts the names used on the command line.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case SMTP, IMAP, Gemini:
		return k, nil
	}
	return "", fmt.Errorf("unknown secret %q (want smtp, imap or gemini)", s)
}

// Account names the keychain entry for kind, e.g.
// "job-digest:smtp:me@example.com@smtp.gmail.com".
func Account(cfg config.Config, kind Kind) string {
	switch kind {
	case SMTP:
		return fmt.Sprintf("%s:smtp:%s@%s", KeyringService, cfg.Email.Username, cfg.Email.SMTPHost)
	case IMAP:
		a := cfg.Sources.Alerts
		return fmt.Sprintf("%s:imap:%s@%s", KeyringService, a.Username, a.IMAPHost)
	default:
		return fmt.Sprintf("%s:%s", KeyringService, kind)
	}
}

// Store reads and writes secrets. The zero value uses the OS keychain
// and the process environment.
type Store struct {
	Keyring func(service, account string) (string, error)
	Getenv  func(string) string
}

// Get returns the secret for kind, or ErrNotFound.
func (s Store) Get(cfg config.Config, kind Kind) (string, error) {
	get := s.Keyring
	if get == nil {
		get = keyring.Get
	}
	getenv := s.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	if pw, err := get(KeyringService, Account(cfg, kind)); err == nil && strings.TrimSpace(pw) != "" {
		return pw, nil
	}
	for _, name := range envVars[kind] {
		if v := strings.TrimSpace(getenv(name)); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%s: %w (set it with `engine secrets set %s` or %s)", kind, ErrNotFound, kind, envVars[kind][0])
}

// Set stores secret for kind in the OS keychain.
func Set(cfg config.Config, kind Kind, secret string) error {
	if strings.TrimSpace(secret) == "" {
		return errors.New("secret is empty")
	}
	return keyring.Set(KeyringService, Account(cfg, kind), secret)
}

// Delete removes the keychain entry for kind.
func Delete(cfg config.Config, kind Kind) error {
	err := keyring.Delete(KeyringService, Account(cfg, kind))
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
