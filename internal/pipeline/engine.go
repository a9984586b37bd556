package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobdigest-engine/internal/config"
	"jobdigest-engine/internal/delivery"
	"jobdigest-engine/internal/digest"
	"jobdigest-engine/internal/domain"
	"jobdigest-engine/internal/export"
	"jobdigest-engine/internal/logger"
	"jobdigest-engine/internal/scheduler"
	"jobdigest-engine/internal/scrape/types"
	"jobdigest-engine/internal/statefile"
	"jobdigest-engine/internal/store"
)

var (
	ErrNotEligible = errors.New("run not eligible")
	ErrNoSources   = errors.New("no sources enabled")
)

// runLockWait bounds how long a run waits for another one to finish.
const runLockWait = 5 * time.Second

// Sender delivers a rendered digest.
type Sender interface {
	Send(d digest.Digest, now time.Time) error
}

// Enricher rescores and annotates records in place.
type Enricher interface {
	Apply(ctx context.Context, recs []domain.JobRecord) int
}

// Sources returns the fetchers for a run on day. It is called once per
// run so board rotation follows the calendar in long-lived processes.
type Sources func(day time.Time) []types.Fetcher

// Static returns the same fetchers every day.
func Static(fetchers ...types.Fetcher) Sources {
	return func(time.Time) []types.Fetcher { return fetchers }
}

// Report summarizes one RunOnce.
type Report struct {
	RunID      string
	SlotKey    string
	Collected  int
	Records    []domain.JobRecord
	Suppressed int
	Steps      []Step
	CSVPath    string
	Emailed    bool
	Delivered  bool
}

// Engine runs the whole digest once per eligible invocation. Store,
// Enricher and Sender are optional.
type Engine struct {
	cfg     config.Config
	sources Sources
	loc     *time.Location
	slots   scheduler.Slots
	pipe    *Pipeline

	Store    *store.DB
	Enricher Enricher
	Sender   Sender

	log *zap.Logger
	now func() time.Time
}

func NewEngine(cfg config.Config, sources Sources, log *zap.Logger) (*Engine, error) {
	slots, err := scheduler.NewSlots(cfg.Schedule)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Schedule.Location()
	if err != nil {
		return nil, err
	}
	if sources == nil {
		sources = Static()
	}
	log = logger.OrNop(log)
	return &Engine{
		cfg:     cfg,
		sources: sources,
		loc:     loc,
		slots:   slots,
		pipe:    New(cfg, log),
		log:     log,
		now:     time.Now,
	}, nil
}

// RunOnce checks the schedule, collects, ranks, stores, exports and
// mails. Delivery state, the fired slot and source finalizers are only
// committed after the digest went out; with email disabled the written
// export counts as delivery.
func (e *Engine) RunOnce(ctx context.Context, force bool) (Report, error) {
	now := e.now()
	rep := Report{RunID: uuid.NewString()}
	log := e.log.With(zap.String(logger.FieldRunID, rep.RunID))

	lockCtx, cancel := context.WithTimeout(ctx, runLockWait)
	unlock, err := statefile.Lock(lockCtx, e.cfg.DigestPath("engine"))
	cancel()
	if err != nil {
		return rep, fmt.Errorf("acquire run lock: %w", err)
	}
	defer unlock()

	runState := scheduler.LoadRunState(ctx, e.cfg.RunStatePath(), log)
	dec := e.slots.WithForce(force).Check(now, runState)
	if !dec.Eligible {
		log.Info("run skipped", zap.String("reason", dec.Reason))
		return rep, fmt.Errorf("%w: %s", ErrNotEligible, dec.Reason)
	}
	rep.SlotKey = dec.SlotKey
	fetchers := e.sources(now.In(e.loc))
	if len(fetchers) == 0 {
		return rep, ErrNoSources
	}
	log.Info("run started", zap.String("slot", dec.SlotKey), zap.String("reason", dec.Reason), zap.Int("sources", len(fetchers)))

	col := Collect(ctx, fetchers, time.Duration(e.cfg.Sources.TimeoutSeconds)*time.Second, log)
	rep.Collected = len(col.Postings)
	if len(col.Failed) > 0 {
		log.Warn("some sources failed", zap.Strings("sources", col.Failed))
	}

	retention := time.Duration(e.cfg.Delivery.RetentionDays) * 24 * time.Hour
	tracker := delivery.Load(ctx, e.cfg.DeliveryStatePath(), retention, now, log)

	res := e.pipe.Run(col.Postings, tracker, now)
	recs := res.Records
	rep.Steps = res.Steps
	rep.Suppressed = len(res.Suppressed)

	if e.Enricher != nil && len(recs) > 0 {
		n := e.Enricher.Apply(ctx, recs)
		SortByFit(recs)
		log.Info("records enriched", zap.Int("enriched", n))
	}
	rep.Records = recs

	var counts map[string]int
	if e.Store != nil {
		counts = e.persist(ctx, recs, now, log)
	}

	dir := e.cfg.Resolve(e.cfg.App.DigestDir)
	path, err := export.WriteFile(dir, now, recs)
	if err != nil {
		log.Error("export failed", zap.Error(err))
	} else {
		rep.CSVPath = path
		log.Info("export written", zap.String("path", path), zap.Int("rows", len(recs)))
	}

	if e.Sender != nil {
		d := digest.Build(recs, e.cfg, now.In(e.loc))
		d.Pipeline = counts
		if err := e.Sender.Send(d, now); err != nil {
			log.Error("digest not sent", zap.Error(err))
			return rep, fmt.Errorf("send digest: %w", err)
		}
		rep.Emailed = true
		log.Info("digest sent", zap.Int("roles", len(d.Records)), zap.Int("total", d.Total))
	} else if err != nil {
		return rep, fmt.Errorf("export digest: %w", err)
	}
	rep.Delivered = true

	tracker.MarkDelivered(recs, now)
	if err := tracker.Save(ctx); err != nil {
		log.Warn("delivery state not saved", zap.Error(err))
	}
	runState.Mark(dec.SlotKey)
	if err := runState.Save(ctx); err != nil {
		log.Warn("run state not saved", zap.Error(err))
	}
	for _, fin := range col.Finalizers {
		if err := fin(ctx); err != nil {
			log.Warn("source finalize failed", zap.Error(err))
		}
	}

	log.Info("run finished",
		zap.Int("collected", rep.Collected),
		zap.Int("records", len(recs)),
		zap.Int("suppressed", rep.Suppressed),
		zap.Bool("emailed", rep.Emailed))
	return rep, nil
}

// persist writes the run into the document store. Failures are logged;
// the digest still goes out. It returns the status counts for the
// pipeline summary, nil when they could not be read.
func (e *Engine) persist(ctx context.Context, recs []domain.JobRecord, now time.Time, log *zap.Logger) map[string]int {
	opts := store.UpsertOptions{AutoDismissBelow: e.cfg.Scoring.AutoDismissBelow, Now: now}
	created := 0
	for _, r := range recs {
		res, err := e.Store.Upsert(ctx, r, opts)
		if err != nil {
			log.Warn("store upsert failed", zap.String("link", r.Link), zap.Error(err))
			continue
		}
		if res.Created {
			created++
		}
	}

	if n, err := e.Store.WriteNotifications(ctx, recs, e.cfg.Scoring.NotificationThreshold, now); err != nil {
		log.Warn("notifications not written", zap.Error(err))
	} else if n > 0 {
		log.Info("notifications queued", zap.Int("count", n))
	}
	if err := e.Store.WriteSourceStats(ctx, recs, now); err != nil {
		log.Warn("source stats not written", zap.Error(err))
	}
	if n, err := e.Store.CleanupStale(ctx, e.cfg.Store.StaleDays, now); err != nil {
		log.Warn("stale cleanup failed", zap.Error(err))
	} else if n > 0 {
		log.Info("stale documents dismissed", zap.Int64("count", n))
	}

	counts, err := e.Store.StatusCounts(ctx)
	if err != nil {
		log.Warn("status counts unavailable", zap.Error(err))
		return nil
	}
	log.Info("store updated", zap.Int("upserted", len(recs)), zap.Int("created", created))
	return counts
}
