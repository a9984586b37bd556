package rank

import (
	"strings"

	"jobdigest-engine/internal/config"
	"jobdigest-engine/internal/domain"
)

const (
	maxReasons = 3
	maxGaps    = 2

	// DefaultPreference is the tag line when no preference applies.
	DefaultPreference = "General product fit"
	preferenceSep     = " · "
)

// WhyFit joins up to three reason sentences, one per matching hint in
// table order, or the default reason.
func (s FitScorer) WhyFit(text string) string {
	return hintSentences(text, s.Vocab.ReasonHints, maxReasons, s.Vocab.DefaultReason)
}

// CVGap is WhyFit over the gap table, capped at two sentences.
func (s FitScorer) CVGap(text string) string {
	return hintSentences(text, s.Vocab.GapHints, maxGaps, s.Vocab.DefaultGap)
}

func hintSentences(text string, hints []config.Hint, limit int, fallback string) string {
	text = strings.ToLower(text)
	var out []string
	seen := map[string]bool{}
	for _, h := range hints {
		if len(out) == limit {
			break
		}
		term := strings.ToLower(h.Term)
		if term == "" || seen[term] || !strings.Contains(text, term) {
			continue
		}
		seen[term] = true
		out = append(out, h.Text)
	}
	if len(out) == 0 {
		return fallback
	}
	return strings.Join(out, " ")
}

// PreferenceMatch lists the preference tags the posting satisfies.
func (s FitScorer) PreferenceMatch(text, company, location string) string {
	text = strings.ToLower(text)
	company = strings.ToLower(company)
	location = strings.ToLower(location)
	v := s.Vocab

	var tags []string
	add := func(ok bool, tag string) {
		if ok {
			tags = append(tags, tag)
		}
	}

	add(containsAny(location, v.PreferenceRegionTerms), "London/Remote UK")
	add(strings.Contains(text, "product"), "Product role")
	add(containsAny(text, v.PreferenceDomainTerms), "KYC/AML/Onboarding")
	add(containsAny(company, v.VendorCompanies), "RegTech/Vendor")
	add(containsAny(company, v.FintechCompanies), "Fintech/Payments")
	add(containsAny(company, v.BankCompanies), "Bank/FS")
	add(containsAny(company, v.TechCompanies), "Big Tech")
	add(strings.Contains(text, "api") || strings.Contains(text, "platform"), "Platform/API")

	if len(tags) == 0 {
		return DefaultPreference
	}
	return strings.Join(tags, preferenceSep)
}

// Annotate returns a copy of rec with the score and explanations set.
// Identity fields are left alone.
func (s FitScorer) Annotate(rec domain.JobRecord) domain.JobRecord {
	out := rec.Clone()
	text := FullText(rec)

	out.FitScore = Clamp(s.ScoreText(text, rec.Company).Score)
	out.WhyFit = s.WhyFit(text)
	out.CVGap = s.CVGap(text)
	out.PreferenceMatch = s.PreferenceMatch(text, rec.Company, rec.Location)
	return out
}
