// Package delivery remembers which postings were already sent so a
// later run does not notify about them again.
package delivery

import (
	"context"
	"errors"
	"os"
	"time"

	"go.uber.org/zap"

	"jobdigest-engine/internal/domain"
	"jobdigest-engine/internal/logger"
	"jobdigest-engine/internal/normalize"
	"jobdigest-engine/internal/statefile"
)

// DefaultRetention is how long a delivered link suppresses a posting.
const DefaultRetention = 14 * 24 * time.Hour

// Tracker is the delivered-link cache of one run. It is loaded once,
// consulted, updated after a successful delivery and saved.
type Tracker struct {
	path      string
	retention time.Duration
	sent      map[string]string
	log       *zap.Logger
}

// Load reads the state file at path and drops entries older than
// retention. An unreadable file yields an empty tracker: the run goes
// ahead with no memory of earlier deliveries.
func Load(ctx context.Context, path string, retention time.Duration, now time.Time, log *zap.Logger) *Tracker {
	log = logger.OrNop(log)
	if retention <= 0 {
		retention = DefaultRetention
	}
	t := &Tracker{path: path, retention: retention, sent: map[string]string{}, log: log}

	var raw map[string]string
	err := statefile.ReadJSON(ctx, path, &raw)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		log.Warn("delivery state unreadable, starting empty", zap.String("path", path), zap.Error(err))
	default:
		t.sent = raw
		if t.sent == nil {
			t.sent = map[string]string{}
		}
	}

	if n := t.prune(now); n > 0 {
		log.Debug("delivery state pruned", zap.Int("expired", n), zap.Int("left", len(t.sent)))
	}
	return t
}

// prune removes entries older than the retention window. Entries whose
// timestamp does not parse are kept; they are overwritten the next time
// the link is delivered.
func (t *Tracker) prune(now time.Time) int {
	cutoff := now.Add(-t.retention)
	n := 0
	for link, ts := range t.sent {
		at, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			continue
		}
		if at.Before(cutoff) {
			delete(t.sent, link)
			n++
		}
	}
	return n
}

// Seen reports whether the record's link or any alternate link was
// delivered inside the retention window.
func (t *Tracker) Seen(rec domain.JobRecord) bool {
	for _, l := range rec.Links() {
		if _, ok := t.sent[normalize.IdentityKey(l)]; ok {
			return true
		}
	}
	return false
}

// Filter splits records into those still to deliver and those already
// sent, keeping order.
func (t *Tracker) Filter(recs []domain.JobRecord) (fresh, suppressed []domain.JobRecord) {
	for _, r := range recs {
		if t.Seen(r) {
			suppressed = append(suppressed, r)
			continue
		}
		fresh = append(fresh, r)
	}
	return fresh, suppressed
}

// MarkDelivered stamps every link of recs with now.
func (t *Tracker) MarkDelivered(recs []domain.JobRecord, now time.Time) {
	ts := now.UTC().Format(time.RFC3339)
	for _, r := range recs {
		for _, l := range r.Links() {
			if k := normalize.IdentityKey(l); k != "" {
				t.sent[k] = ts
			}
		}
	}
}

// Save writes the pruned and updated state. Callers log the error and
// carry on; the next run simply sees the previous state.
func (t *Tracker) Save(ctx context.Context) error {
	return statefile.WriteJSON(ctx, t.path, t.sent)
}

func (t *Tracker) Len() int { return len(t.sent) }
