// Package digest selects, renders and mails the daily digest.
package digest

import (
	"fmt"
	"strings"
	"time"

	"jobdigest-engine/internal/config"
	"jobdigest-engine/internal/domain"
)

// TopPick returns the index of the record with the highest fit score,
// ties broken by the longer WhyFit, then by position. -1 for no records.
func TopPick(recs []domain.JobRecord) int {
	best := -1
	for i, r := range recs {
		if best < 0 {
			best = i
			continue
		}
		b := recs[best]
		if r.FitScore > b.FitScore || (r.FitScore == b.FitScore && len(r.WhyFit) > len(b.WhyFit)) {
			best = i
		}
	}
	return best
}

// EmailSelection returns the first max records, with the top pick
// prepended when it fell outside them. The result never exceeds max.
func EmailSelection(recs []domain.JobRecord, max int) []domain.JobRecord {
	if max <= 0 || len(recs) == 0 {
		return nil
	}
	top := TopPick(recs)
	n := min(max, len(recs))
	out := make([]domain.JobRecord, 0, n)
	if top >= n {
		out = append(out, recs[top])
	}
	out = append(out, recs[:n]...)
	return out[:n]
}

// Digest is everything one email shows.
type Digest struct {
	Date           time.Time
	WindowHours    int
	Preferences    string
	SourcesSummary string
	Total          int
	TopPick        *domain.JobRecord
	Records        []domain.JobRecord
	// Pipeline counts stored documents per application status; nil hides it.
	Pipeline map[string]int
}

// Build assembles the digest of the ranked records recs.
func Build(recs []domain.JobRecord, cfg config.Config, day time.Time) Digest {
	d := Digest{
		Date:           day,
		WindowHours:    cfg.Filters.WindowHours,
		Preferences:    cfg.Email.Preferences,
		SourcesSummary: SourcesSummary(cfg.Sources),
		Total:          len(recs),
		Records:        EmailSelection(recs, cfg.Scoring.MaxEmailRoles),
	}
	if i := TopPick(recs); i >= 0 {
		top := recs[i]
		d.TopPick = &top
	}
	return d
}

// Subject is "Daily Job Digest - YYYY-MM-DD".
func (d Digest) Subject() string {
	return "Daily Job Digest - " + d.Date.Format("2006-01-02")
}

// SourcesSummary lists the configured sources with their board counts.
func SourcesSummary(s config.Sources) string {
	var parts []string
	add := func(name string, b config.Boards) {
		if b.Enabled {
			parts = append(parts, fmt.Sprintf("%s (%d)", name, len(b.Boards)))
		}
	}
	add("Greenhouse", s.Greenhouse)
	add("Lever", s.Lever)
	add("Ashby", s.Ashby)
	add("SmartRecruiters", s.SmartRecruiters)
	if len(s.Feeds) > 0 {
		parts = append(parts, fmt.Sprintf("Feeds (%d)", len(s.Feeds)))
	}
	if s.Alerts.Enabled {
		parts = append(parts, "Email alerts")
	}
	if len(parts) == 0 {
		return "none configured"
	}
	return strings.Join(parts, " · ")
}
