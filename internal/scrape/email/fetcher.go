package email_scrape

import (
	"context"
	"errors"
	"strings"

	"github.com/emersion/go-imap/v2"
	"go.uber.org/zap"

	"jobdigest-engine/internal/logger"
	"jobdigest-engine/internal/scrape/types"
)

type Config struct {
	Host        string
	Port        int
	Username    string
	Password    string
	Mailbox     string
	SubjectAny  []string // empty = every unseen mail is a candidate
	MaxMessages int
}

// mailbox is the slice of IMAP the scraper needs.
type mailbox interface {
	Unseen(ctx context.Context, max int) ([]RawMessage, error)
	MarkSeen(ctx context.Context, uids []imap.UID) error
	Close()
}

type dialFunc func(ctx context.Context, cfg Config, log *zap.Logger) (mailbox, error)

// Scraper reads job-alert mails. Mails it parsed are marked seen only
// through ScrapeResult.Finalize, so a failed run sees them again.
type Scraper struct {
	cfg  Config
	log  *zap.Logger
	dial dialFunc
}

func New(cfg Config, log *zap.Logger) *Scraper {
	if cfg.Port == 0 {
		cfg.Port = 993
	}
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = 50
	}
	return &Scraper{cfg: cfg, log: logger.OrNop(log), dial: dialMailbox}
}

func (s *Scraper) Name() string { return "email" }

func (s *Scraper) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	res := types.ScrapeResult{Source: "Email"}
	if strings.TrimSpace(s.cfg.Host) == "" || strings.TrimSpace(s.cfg.Username) == "" {
		return res, errors.New("email alerts enabled but imap_host/username missing")
	}
	if s.cfg.Password == "" {
		return res, errors.New("imap password not found (set it with `engine secrets set imap` or JOB_DIGEST_IMAP_PASSWORD)")
	}

	mb, err := s.dial(ctx, s.cfg, s.log)
	if err != nil {
		return res, err
	}
	defer mb.Close()

	msgs, err := mb.Unseen(ctx, s.cfg.MaxMessages)
	if err != nil {
		return res, err
	}

	var processed []imap.UID
	for _, raw := range msgs {
		m, err := ParseMessage(raw.Raw)
		if err != nil {
			s.log.Warn("alert mail unreadable", zap.Uint32("uid", uint32(raw.UID)), zap.Error(err))
			continue
		}
		if m.Subject == "" {
			m.Subject = raw.Subject
		}
		if m.Date.IsZero() {
			m.Date = raw.Date
		}
		if len(s.cfg.SubjectAny) > 0 && !containsAnyCI(m.Subject, s.cfg.SubjectAny) {
			continue
		}

		posts, err := ParseAlert(m)
		if err != nil {
			s.log.Warn("alert mail parse failed", zap.String("subject", m.Subject), zap.Error(err))
			continue
		}
		s.log.Debug("alert mail parsed",
			zap.String("subject", m.Subject),
			zap.Int("postings", len(posts)),
		)
		for _, p := range posts {
			res.Postings = append(res.Postings, p)
		}
		processed = append(processed, raw.UID)
	}

	if len(processed) > 0 {
		res.Finalize = func(ctx context.Context) error {
			return s.markSeen(ctx, processed)
		}
	}
	return res, nil
}

func (s *Scraper) markSeen(ctx context.Context, uids []imap.UID) error {
	mb, err := s.dial(ctx, s.cfg, s.log)
	if err != nil {
		return err
	}
	defer mb.Close()
	if err := mb.MarkSeen(ctx, uids); err != nil {
		return err
	}
	s.log.Info("alert mails marked seen", zap.Int("count", len(uids)))
	return nil
}

func containsAnyCI(s string, terms []string) bool {
	ls := strings.ToLower(s)
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t != "" && strings.Contains(ls, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
