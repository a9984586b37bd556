package normalize

import (
	"regexp"
	"strings"
	"time"
)

var (
	reRelative  = regexp.MustCompile(`(?i)\b(reposted\s+\d+\s+days?\s+ago|\d+\s+days?\s+ago|\d+\s+hours?\s+ago|\d+\s+minutes?\s+ago|yesterday|today|new)\b`)
	reApplicant = regexp.MustCompile(`(\d[\d,]*)`)
)

// RelativePosted returns the first relative-time phrase found in the
// given texts, in order, or "".
func RelativePosted(texts ...string) string {
	for _, t := range texts {
		if t == "" {
			continue
		}
		if m := reRelative.FindString(t); m != "" {
			return m
		}
	}
	return ""
}

// ApplicantCount extracts "1234" from text like "1,234 applicants".
func ApplicantCount(s string) string {
	m := reApplicant.FindString(s)
	if m == "" {
		return ""
	}
	return strings.ReplaceAll(m, ",", "")
}

// millisToISO renders a Unix millisecond timestamp as RFC3339 UTC.
func millisToISO(ms int64) string {
	if ms <= 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
