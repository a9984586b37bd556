package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobdigest-engine/internal/domain"
	"jobdigest-engine/internal/logger"
	"jobdigest-engine/internal/scrape/types"
)

// DefaultFetchTimeout bounds one fetcher when none is configured.
const DefaultFetchTimeout = 2 * time.Minute

// Collected is the raw material of one run.
type Collected struct {
	Postings  []domain.RawPosting
	PerSource map[string]int
	Failed    []string
	// Finalizers run after the run delivered successfully.
	Finalizers []func(context.Context) error
}

// Collect runs every fetcher in parallel, each under its own timeout.
// A failing fetcher is logged and contributes nothing. Postings keep
// fetcher order.
func Collect(ctx context.Context, fetchers []types.Fetcher, timeout time.Duration, log *zap.Logger) Collected {
	log = logger.OrNop(log)
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}

	results := make([]*types.ScrapeResult, len(fetchers))
	var g errgroup.Group
	for i, f := range fetchers {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			flog := log.With(zap.String(logger.FieldSource, f.Name()))
			start := time.Now()
			flog.Debug("fetch started")
			res, err := f.Fetch(fctx)
			if err != nil {
				flog.Warn("fetch failed", zap.Error(err), zap.Duration("took", time.Since(start)))
				return nil
			}
			flog.Info("fetch done",
				zap.Int("postings", len(res.Postings)),
				zap.Duration("took", time.Since(start)))
			results[i] = &res
			return nil
		})
	}
	_ = g.Wait()

	out := Collected{PerSource: map[string]int{}}
	for i, res := range results {
		if res == nil {
			out.Failed = append(out.Failed, fetchers[i].Name())
			continue
		}
		out.Postings = append(out.Postings, res.Postings...)
		out.PerSource[fetchers[i].Name()] += len(res.Postings)
		if res.Finalize != nil {
			out.Finalizers = append(out.Finalizers, res.Finalize)
		}
	}
	return out
}
