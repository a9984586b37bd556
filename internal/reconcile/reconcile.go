// Package reconcile merges records that describe the same posting seen
// through different sources or links.
package reconcile

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"jobdigest-engine/internal/domain"
	"jobdigest-engine/internal/normalize"
)

// TitleThreshold is the minimum title similarity for two records of the
// same company to be treated as one posting.
const TitleThreshold = 0.85

var (
	reNonWord = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	reSpaces  = regexp.MustCompile(`\s+`)
)

var seniorityTokens = map[string]bool{
	"senior": true, "sr": true, "lead": true, "principal": true,
	"head": true, "junior": true, "jr": true,
}

// Reconcile merges records describing the same posting. Each pass is
// first-fit: a record is compared with the records accepted so far and
// is either merged into the first match or appended. Passes repeat until
// one merges nothing, so Reconcile(Reconcile(x)) equals Reconcile(x).
// The input slice and its records are not modified.
func Reconcile(records []domain.JobRecord) []domain.JobRecord {
	out, merged := pass(records)
	for merged > 0 {
		out, merged = pass(out)
	}
	return out
}

func pass(records []domain.JobRecord) ([]domain.JobRecord, int) {
	out := make([]domain.JobRecord, 0, len(records))
	keys := make([]matchKey, 0, len(records))
	merges := 0

	for _, rec := range records {
		k := keyOf(rec)
		idx := -1
		for i := range out {
			if sameLink(k, keys[i]) || sameTitle(k, keys[i]) {
				idx = i
				break
			}
		}
		if idx < 0 {
			out = append(out, rec.Clone())
			keys = append(keys, k)
			continue
		}

		existing := out[idx]
		primary, secondary := existing, rec
		re, rr := Richness(existing), Richness(rec)
		if rr > re || (rr == re && rec.FitScore > existing.FitScore) {
			primary, secondary = rec, existing
		}

		m := merge(primary, secondary)
		m.AlternateLinks = dedupeLinks(m.AlternateLinks, m.Link)

		out[idx] = m
		keys[idx] = keyOf(m)
		merges++
	}
	return out, merges
}

// matchKey caches the normalized forms a record is compared by.
type matchKey struct {
	links   map[string]bool
	company string
	title   []string
}

func keyOf(rec domain.JobRecord) matchKey {
	k := matchKey{
		links:   map[string]bool{},
		company: NormalizeCompany(rec.Company),
		title:   strings.Fields(NormalizeTitle(rec.Role)),
	}
	for _, l := range rec.Links() {
		if id := normalize.IdentityKey(l); id != "" {
			k.links[id] = true
		}
	}
	return k
}

func sameLink(a, b matchKey) bool {
	for l := range a.links {
		if b.links[l] {
			return true
		}
	}
	return false
}

func sameTitle(a, b matchKey) bool {
	return a.company != "" && a.company == b.company && tokenSimilarity(a.title, b.title) >= TitleThreshold
}

// NormalizeCompany lowercases and turns punctuation into single spaces.
func NormalizeCompany(name string) string {
	s := reNonWord.ReplaceAllString(strings.ToLower(name), " ")
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// NormalizeTitle is NormalizeCompany with seniority modifiers removed.
func NormalizeTitle(title string) string {
	var out []string
	for _, tok := range strings.Fields(NormalizeCompany(title)) {
		if !seniorityTokens[tok] {
			out = append(out, tok)
		}
	}
	return strings.Join(out, " ")
}

// Similarity is the Jaccard index of the normalized title token sets.
// It is symmetric, Similarity(x, x) is 1 for any title with a token
// left after normalization, and two empty titles score 0.
func Similarity(a, b string) float64 {
	return tokenSimilarity(strings.Fields(NormalizeTitle(a)), strings.Fields(NormalizeTitle(b)))
}

func tokenSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]uint8, len(a)+len(b))
	for _, t := range a {
		set[t] |= 1
	}
	for _, t := range b {
		set[t] |= 2
	}
	shared := 0
	for _, v := range set {
		if v == 3 {
			shared++
		}
	}
	return float64(shared) / float64(len(set))
}

// Richness counts the usable fields of a copy, plus up to one point for
// the length of its notes.
func Richness(rec domain.JobRecord) float64 {
	score := 0.0
	for _, v := range []string{rec.Notes, rec.Posted, rec.Location, rec.Link, rec.ApplicantCount} {
		if v != "" {
			score++
		}
	}
	return score + float64(min(utf8.RuneCountInString(rec.Notes), 200))/200
}

// merge fills primary's empty fields from secondary and records
// secondary's links as alternates. Set values on primary are kept.
func merge(primary, secondary domain.JobRecord) domain.JobRecord {
	out := primary.Clone()
	if secondary.Link != "" && secondary.Link != out.Link {
		out.AlternateLinks = append(out.AlternateLinks, domain.AlternateLink{Source: secondary.Source, Link: secondary.Link})
	}
	out.AlternateLinks = append(out.AlternateLinks, secondary.AlternateLinks...)
	fill(&out.Notes, secondary.Notes)
	fill(&out.Posted, secondary.Posted)
	fill(&out.Location, secondary.Location)
	fill(&out.ApplicantCount, secondary.ApplicantCount)
	return out
}

func fill(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

// dedupeLinks drops repeated (source, link) pairs and pairs that repeat
// the primary link, keeping first occurrences in order.
func dedupeLinks(links []domain.AlternateLink, primary string) []domain.AlternateLink {
	if len(links) == 0 {
		return nil
	}
	seen := map[domain.AlternateLink]bool{}
	out := make([]domain.AlternateLink, 0, len(links))
	for _, l := range links {
		if l.Link == "" || l.Link == primary || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
