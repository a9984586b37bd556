package normalize

import (
	"net/url"
	"sort"
	"strings"
)

// CanonicalLink drops the fragment, lowercases scheme and host and
// re-encodes the query in sorted order. Anything that does not parse is
// returned unchanged. CanonicalLink(CanonicalLink(x)) == CanonicalLink(x).
func CanonicalLink(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	if u.RawQuery != "" {
		q, err := url.ParseQuery(u.RawQuery)
		if err != nil {
			return u.String()
		}
		u.RawQuery = encodeSorted(q)
	}
	return u.String()
}

// IdentityKey is the form links are compared in: the canonical link
// without tracking parameters that upstream senders append.
func IdentityKey(link string) string {
	c := CanonicalLink(link)
	if c == "" {
		return ""
	}
	u, err := url.Parse(c)
	if err != nil || u.RawQuery == "" {
		return c
	}
	q, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return c
	}

	for k := range q {
		if isTrackingParam(k) {
			q.Del(k)
		}
	}

	// linkedin carries the job in currentJobId; everything else is noise
	if strings.Contains(u.Host, "linkedin.com") {
		keep := url.Values{}
		if v := q.Get("currentJobId"); v != "" {
			keep.Set("currentJobId", v)
		}
		q = keep
	}

	u.RawQuery = encodeSorted(q)
	return u.String()
}

func isTrackingParam(k string) bool {
	lk := strings.ToLower(k)
	if lk == "utm" || strings.HasPrefix(lk, "utm_") {
		return true
	}
	switch lk {
	case "gclid", "fbclid", "msclkid", "mc_cid", "mc_eid", "mkt_tok", "trk", "refid", "trackingid":
		return true
	}
	return false
}

// encodeSorted is url.Values.Encode with values sorted within each key.
func encodeSorted(q url.Values) string {
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	return q.Encode()
}
