package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jobdigest-engine/internal/config"
	"jobdigest-engine/internal/digest"
	"jobdigest-engine/internal/enrich"
	"jobdigest-engine/internal/logger"
	"jobdigest-engine/internal/pipeline"
	"jobdigest-engine/internal/scrape/ashby"
	email_scrape "jobdigest-engine/internal/scrape/email"
	"jobdigest-engine/internal/scrape/greenhouse"
	"jobdigest-engine/internal/scrape/lever"
	"jobdigest-engine/internal/scrape/rss"
	"jobdigest-engine/internal/scrape/smartrecruiters"
	"jobdigest-engine/internal/scrape/types"
	"jobdigest-engine/internal/scrape/util"
	"jobdigest-engine/internal/scrape/workday"
	"jobdigest-engine/internal/secrets"
	"jobdigest-engine/internal/store"
)

const (
	requestTimeout = 20 * time.Second
	// server-side search for the APIs that support one
	productQuery = "product"
)

// buildFetchers returns one fetcher per enabled source for a run on day.
// Board lists are rotated through BoardBatch so large lists spread over
// several days.
func buildFetchers(cfg config.Config, sec secrets.Store, day time.Time, log *zap.Logger) []types.Fetcher {
	log = logger.OrNop(log)
	limiter := util.NewHostLimiter(cfg.Sources.RequestsPerSec, cfg.Sources.Burst)
	client := util.NewClient(requestTimeout, limiter)
	batch := func(b config.Boards) []string {
		return config.BoardBatch(b.Boards, cfg.Sources.BatchSize, day)
	}

	var fetchers []types.Fetcher
	if s := cfg.Sources.Greenhouse; s.Enabled && len(s.Boards) > 0 {
		fetchers = append(fetchers, greenhouse.New(greenhouse.Config{Boards: batch(s)}, client, log))
	}
	if s := cfg.Sources.Lever; s.Enabled && len(s.Boards) > 0 {
		fetchers = append(fetchers, lever.New(lever.Config{Boards: batch(s)}, client, log))
	}
	if s := cfg.Sources.Ashby; s.Enabled && len(s.Boards) > 0 {
		fetchers = append(fetchers, ashby.New(ashby.Config{Boards: batch(s)}, client, log))
	}
	if s := cfg.Sources.SmartRecruiters; s.Enabled && len(s.Boards) > 0 {
		fetchers = append(fetchers, smartrecruiters.New(smartrecruiters.Config{
			Companies: batch(s),
			Query:     productQuery,
		}, client, log))
	}
	if s := cfg.Sources.Workday; s.Enabled && len(s.Boards) > 0 {
		fetchers = append(fetchers, workday.New(workday.Config{
			Boards:     batch(s),
			SearchText: productQuery,
		}, client, log))
	}
	if len(cfg.Sources.Feeds) > 0 {
		fetchers = append(fetchers, rss.New(cfg.Sources.Feeds, client, log))
	}

	if a := cfg.Sources.Alerts; a.Enabled {
		pw, err := sec.Get(cfg, secrets.IMAP)
		if err != nil {
			log.Warn("email alerts skipped", zap.Error(err))
		} else {
			fetchers = append(fetchers, email_scrape.New(email_scrape.Config{
				Host:        a.IMAPHost,
				Port:        a.IMAPPort,
				Username:    a.Username,
				Password:    pw,
				Mailbox:     a.Mailbox,
				SubjectAny:  a.SubjectAny,
				MaxMessages: a.MaxMessages,
			}, log))
		}
	}
	return fetchers
}

// buildEngine wires the engine and its optional collaborators. The
// returned cleanup closes the document store.
func buildEngine(ctx context.Context, cfg config.Config, log *zap.Logger) (*pipeline.Engine, func(), error) {
	sec := secrets.Store{}
	sources := func(day time.Time) []types.Fetcher {
		return buildFetchers(cfg, sec, day, log)
	}

	eng, err := pipeline.NewEngine(cfg, sources, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {}

	if cfg.Store.Enabled {
		db, err := store.Open(ctx, cfg.Resolve(cfg.Store.Path))
		if err != nil {
			return nil, nil, fmt.Errorf("open document store: %w", err)
		}
		eng.Store = db
		cleanup = func() {
			if err := db.Close(); err != nil {
				log.Warn("closing document store", zap.Error(err))
			}
		}
	}

	if cfg.Email.Enabled {
		m, err := newMailer(cfg, sec)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		eng.Sender = m
	}

	if cfg.Enrich.Enabled {
		key, err := sec.Get(cfg, secrets.Gemini)
		if err != nil {
			log.Warn("enrichment disabled", zap.Error(err))
		} else if gen, err := enrich.NewGemini(ctx, key, cfg.Enrich.Model); err != nil {
			log.Warn("enrichment disabled", zap.Error(err))
		} else {
			eng.Enricher = enrich.New(gen, enrich.Options{
				MaxJobs:     cfg.Enrich.MaxJobs,
				Timeout:     time.Duration(cfg.Enrich.TimeoutSeconds) * time.Second,
				Profile:     cfg.Enrich.Profile,
				Preferences: cfg.Email.Preferences,
			}, log)
			log.Debug("enrichment enabled", zap.String("model", gen.Model()))
		}
	}
	return eng, cleanup, nil
}

// newMailer builds the SMTP sender. A username without a password is an
// error; no username means unauthenticated SMTP.
func newMailer(cfg config.Config, sec secrets.Store) (*digest.Mailer, error) {
	pw, err := sec.Get(cfg, secrets.SMTP)
	if err != nil && !errors.Is(err, secrets.ErrNotFound) {
		return nil, err
	}
	e := cfg.Email
	if pw == "" && e.Username != "" {
		return nil, fmt.Errorf("smtp password for %s: %w", e.Username, secrets.ErrNotFound)
	}
	return digest.NewMailer(e.SMTPHost, e.SMTPPort, e.Username, pw, e.From, e.To), nil
}
