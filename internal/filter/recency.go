package filter

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"jobdigest-engine/internal/normalize"
)

const (
	ReasonTooOld     = "outside_window"
	ReasonUndateable = "no_resolvable_date"
)

var reAge = regexp.MustCompile(`(\d+)\s*(minutes?|mins?|hours?|hrs?|days?|weeks?)\b`)

// Recency keeps postings published within the last WindowHours.
type Recency struct {
	WindowHours int
}

// Within reads the relative text first ("today", "3 days ago") and only
// falls back to postedDate when the text says nothing usable. "new" is
// not an age and falls through to the date. A posting whose age cannot
// be resolved is rejected.
func (r Recency) Within(postedText, postedDate string, now time.Time) Verdict {
	text := strings.ToLower(strings.TrimSpace(postedText))
	window := r.WindowHours

	switch {
	case strings.Contains(text, "just now"), strings.Contains(text, "today"):
		return keep()
	case strings.Contains(text, "yesterday"):
		if window >= 24 {
			return keep()
		}
		return reject(ReasonTooOld)
	}

	if m := reAge.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			hours, ok := ageHours(n, m[2])
			if !ok || hours <= window {
				return keep()
			}
			return reject(ReasonTooOld)
		}
	}

	posted, ok := normalize.ParseTimestamp(postedDate)
	if !ok {
		return reject(ReasonUndateable)
	}
	if now.UTC().Sub(posted) <= time.Duration(window)*time.Hour {
		return keep()
	}
	return reject(ReasonTooOld)
}

// ageHours converts n units to hours. Minutes report ok=false: any
// number of minutes is recent.
func ageHours(n int, unit string) (int, bool) {
	switch {
	case strings.HasPrefix(unit, "min"):
		return 0, false
	case strings.HasPrefix(unit, "h"):
		return n, true
	case strings.HasPrefix(unit, "day"):
		return n * 24, true
	default:
		return n * 24 * 7, true
	}
}
