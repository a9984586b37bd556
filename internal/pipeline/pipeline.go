// Package pipeline turns collected raw postings into the ranked,
// de-duplicated and delivery-filtered records of one run.
package pipeline

import (
	"slices"
	"time"

	"go.uber.org/zap"

	"jobdigest-engine/internal/config"
	"jobdigest-engine/internal/domain"
	"jobdigest-engine/internal/filter"
	"jobdigest-engine/internal/logger"
	"jobdigest-engine/internal/normalize"
	"jobdigest-engine/internal/rank"
	"jobdigest-engine/internal/reconcile"
)

// Stage names, as logged.
const (
	StageNormalize = "normalize"
	StageRelevance = "relevance"
	StageRecency   = "recency"
	StageScore     = "min_score"
	StageReconcile = "reconcile"
	StageDelivery  = "delivery"
)

const reasonMalformed = "missing_title_or_company"

// Step is what one stage did to the batch.
type Step struct {
	Stage   string
	Initial int
	Dropped int
	Left    int
	Reasons map[string]int
}

type Result struct {
	Records    []domain.JobRecord
	Suppressed []domain.JobRecord
	Steps      []Step
}

// Suppressor drops records that were already delivered.
type Suppressor interface {
	Filter(recs []domain.JobRecord) (fresh, suppressed []domain.JobRecord)
}

type Pipeline struct {
	norm      normalize.Normalizer
	relevance filter.Relevance
	recency   filter.Recency
	scorer    rank.FitScorer
	minScore  int
	log       *zap.Logger
}

func New(cfg config.Config, log *zap.Logger) *Pipeline {
	return &Pipeline{
		norm:      normalize.New(cfg.Filters.SummaryMaxChars),
		relevance: filter.NewRelevance(cfg.Filters, cfg.Vocabulary),
		recency:   filter.Recency{WindowHours: cfg.Filters.WindowHours},
		scorer:    rank.NewFitScorer(cfg.Vocabulary),
		minScore:  cfg.Scoring.MinScore,
		log:       logger.OrNop(log),
	}
}

// Run executes every stage in order over the whole batch. seen may be
// nil, in which case nothing is suppressed. The output is sorted by
// descending fit score, ties in input order.
func (p *Pipeline) Run(raw []domain.RawPosting, seen Suppressor, now time.Time) Result {
	var res Result

	recs := make([]domain.JobRecord, 0, len(raw))
	step := newStep(StageNormalize, len(raw))
	for _, r := range raw {
		rec, ok := p.norm.Normalize(r)
		if !ok {
			step.drop(reasonMalformed)
			continue
		}
		recs = append(recs, rec)
	}
	res.Steps = append(res.Steps, p.done(step, len(recs)))

	recs = p.gate(&res, StageRelevance, recs, func(r domain.JobRecord) filter.Verdict {
		if v := p.relevance.Title(r.Role); !v.Keep {
			return v
		}
		if v := p.relevance.Company(r.Company); !v.Keep {
			return v
		}
		return p.relevance.Location(r.Location, r.Notes)
	})

	recs = p.gate(&res, StageRecency, recs, func(r domain.JobRecord) filter.Verdict {
		return p.recency.Within(r.PostedRaw, r.PostedDate, now)
	})

	for i := range recs {
		recs[i] = p.scorer.Annotate(recs[i])
	}
	recs = p.gate(&res, StageScore, recs, func(r domain.JobRecord) filter.Verdict {
		if r.FitScore < p.minScore {
			return filter.Verdict{Reason: "below_min_score"}
		}
		return filter.Verdict{Keep: true}
	})

	step = newStep(StageReconcile, len(recs))
	recs = reconcile.Reconcile(recs)
	step.Dropped = step.Initial - len(recs)
	res.Steps = append(res.Steps, p.done(step, len(recs)))

	if seen != nil {
		step = newStep(StageDelivery, len(recs))
		var suppressed []domain.JobRecord
		recs, suppressed = seen.Filter(recs)
		step.Dropped = len(suppressed)
		if len(suppressed) > 0 {
			step.Reasons = map[string]int{"already_delivered": len(suppressed)}
		}
		res.Suppressed = suppressed
		res.Steps = append(res.Steps, p.done(step, len(recs)))
	}

	SortByFit(recs)
	res.Records = recs
	return res
}

// SortByFit orders records by descending fit score, keeping the input
// order of equal scores.
func SortByFit(recs []domain.JobRecord) {
	slices.SortStableFunc(recs, func(a, b domain.JobRecord) int {
		return b.FitScore - a.FitScore
	})
}

func (p *Pipeline) gate(res *Result, stage string, recs []domain.JobRecord, check func(domain.JobRecord) filter.Verdict) []domain.JobRecord {
	step := newStep(stage, len(recs))
	kept := recs[:0:0]
	for _, r := range recs {
		v := check(r)
		if !v.Keep {
			step.drop(v.Reason)
			p.log.Debug("record dropped",
				zap.String(logger.FieldStage, stage),
				zap.String("reason", v.Reason),
				zap.String("role", r.Role),
				zap.String("company", r.Company),
				zap.String("link", r.Link))
			continue
		}
		kept = append(kept, r)
	}
	res.Steps = append(res.Steps, p.done(step, len(kept)))
	return kept
}

func newStep(stage string, initial int) Step {
	return Step{Stage: stage, Initial: initial}
}

func (s *Step) drop(reason string) {
	s.Dropped++
	if s.Reasons == nil {
		s.Reasons = map[string]int{}
	}
	s.Reasons[reason]++
}

func (p *Pipeline) done(s Step, left int) Step {
	s.Left = left
	fields := []zap.Field{
		zap.String(logger.FieldStage, s.Stage),
		zap.Int("initial", s.Initial),
		zap.Int("dropped", s.Dropped),
		zap.Int("left", s.Left),
	}
	if len(s.Reasons) > 0 {
		fields = append(fields, zap.Any("reasons", s.Reasons))
	}
	p.log.Info("stage done", fields...)
	return s
}
