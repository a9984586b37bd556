package normalize

import (
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp resolves an absolute publication date. It tries ISO-8601
// (a trailing Z is UTC, a naive value is taken as UTC), then RFC 2822,
// then Unix seconds or milliseconds (values above 1e10 are milliseconds),
// then loose human formats. The result is in UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	if t, err := mail.ParseDate(s); err == nil {
		return t.UTC(), true
	}

	if isDigits(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		if n > 10_000_000_000 {
			return time.UnixMilli(n).UTC(), true
		}
		return time.Unix(n, 0).UTC(), true
	}

	if t, err := dateparse.ParseIn(s, time.UTC); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// ISODate renders s as RFC3339 UTC when it resolves, else "".
func ISODate(s string) string {
	t, ok := ParseTimestamp(s)
	if !ok {
		return ""
	}
	return t.Format(time.RFC3339)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
