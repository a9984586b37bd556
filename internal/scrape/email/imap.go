// internal/scrape/email/imap.go
package email_scrape

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"
)

// unseenLookback bounds the UNSEEN search; older alerts are stale anyway.
const unseenLookback = 3 // months

// RawMessage is one fetched mail: its UID plus the full RFC822 bytes,
// fetched with BODY.PEEK[] so fetching alone never sets \Seen.
type RawMessage struct {
	UID     imap.UID
	Subject string
	Date    time.Time
	Raw     []byte
}

// DialAndLoginIMAP connects over TLS and logs in. The connection is
// closed when ctx is done; call the returned stop func to detach it.
func DialAndLoginIMAP(ctx context.Context, addr, username, password string, tlsCfg *tls.Config) (*imapclient.Client, func() bool, error) {
	if addr == "" {
		return nil, nil, errors.New("imap addr is required")
	}
	if username == "" || password == "" {
		return nil, nil, errors.New("imap username/password is required")
	}
	if tlsCfg == nil {
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	c, err := imapclient.DialTLS(addr, &imapclient.Options{TLSConfig: tlsCfg})
	if err != nil {
		return nil, nil, fmt.Errorf("imap dial tls: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })

	if err := c.Login(username, password).Wait(); err != nil {
		stop()
		_ = c.Close()
		return nil, nil, fmt.Errorf("imap login: %w", err)
	}
	return c, stop, nil
}

// SelectMailbox selects name read-write so flags can be stored later.
func SelectMailbox(c *imapclient.Client, name string) error {
	if name == "" {
		name = "INBOX"
	}
	if _, err := c.Select(name, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		return fmt.Errorf("imap select %q: %w", name, err)
	}
	return nil
}

// FetchUnseen returns up to max unseen messages from the last few
// months, newest first.
func FetchUnseen(ctx context.Context, c *imapclient.Client, max int) ([]RawMessage, error) {
	if c == nil {
		return nil, errors.New("imap client is nil")
	}
	if max <= 0 {
		max = 50
	}

	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
		Since:   time.Now().AddDate(0, -unseenLookback, 0),
	}
	searchData, err := c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("imap uid search unseen: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	slices.Reverse(uids)
	if len(uids) > max {
		uids = uids[:max]
	}

	bodyAll := &imap.FetchItemBodySection{Specifier: imap.PartSpecifierNone, Peek: true}
	fetchCmd := c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = fetchCmd.Close() }()

	out := make([]RawMessage, 0, len(uids))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			return nil, fmt.Errorf("imap fetch collect: %w", err)
		}

		m := RawMessage{UID: buf.UID}
		if buf.Envelope != nil {
			m.Subject = buf.Envelope.Subject
			m.Date = buf.Envelope.Date
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			m.Raw = append([]byte(nil), b...)
		}
		out = append(out, m)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("imap fetch close: %w", err)
	}
	return out, nil
}

// MarkSeen adds \Seen to uids.
func MarkSeen(c *imapclient.Client, uids []imap.UID) error {
	if c == nil {
		return errors.New("imap client is nil")
	}
	if len(uids) == 0 {
		return nil
	}
	cmd := c.Store(imap.UIDSetNum(uids...), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)
	if err := cmd.Close(); err != nil {
		return fmt.Errorf("imap store add seen: %w", err)
	}
	return nil
}

// LogoutAndClose logs out then closes the connection.
func LogoutAndClose(c *imapclient.Client, log *zap.Logger) {
	if c == nil {
		return
	}
	if err := c.Logout().Wait(); err != nil {
		log.Debug("imap logout", zap.Error(err))
	}
	_ = c.Close()
}

// imapMailbox is the live mailbox behind Scraper.
type imapMailbox struct {
	c    *imapclient.Client
	stop func() bool
	log  *zap.Logger
}

func dialMailbox(ctx context.Context, cfg Config, log *zap.Logger) (mailbox, error) {
	host := strings.TrimSpace(cfg.Host)
	addr := fmt.Sprintf("%s:%d", host, cfg.Port)
	c, stop, err := DialAndLoginIMAP(ctx, addr, cfg.Username, cfg.Password, &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: host,
	})
	if err != nil {
		return nil, err
	}
	if err := SelectMailbox(c, cfg.Mailbox); err != nil {
		stop()
		LogoutAndClose(c, log)
		return nil, err
	}
	return &imapMailbox{c: c, stop: stop, log: log}, nil
}

func (m *imapMailbox) Unseen(ctx context.Context, max int) ([]RawMessage, error) {
	return FetchUnseen(ctx, m.c, max)
}

func (m *imapMailbox) MarkSeen(_ context.Context, uids []imap.UID) error {
	return MarkSeen(m.c, uids)
}

func (m *imapMailbox) Close() {
	m.stop()
	LogoutAndClose(m.c, m.log)
}
