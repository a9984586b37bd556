// internal/rank/fit_scorer.go
package rank

import (
	"strings"

	"jobdigest-engine/internal/config"
	"jobdigest-engine/internal/domain"
)

const (
	baseScore    = 60
	domainWeight = 4
	domainCap    = 20
	extraWeight  = 2
	extraCap     = 10
	productBonus = 5
	phraseBonus  = 3
	processBonus = 2
	vendorBonus  = 12
	fintechBonus = 8
	bankBonus    = 6
	techBonus    = 4
	focusBonus   = 3
	apiBonus     = 3
)

// FitScorer scores records against one vocabulary. Employer bonuses are
// independent: a company listed in two categories earns both.
type FitScorer struct {
	Vocab config.Vocabulary
}

func NewFitScorer(v config.Vocabulary) FitScorer {
	return FitScorer{Vocab: v}
}

// Score reads role, company and notes as one lowercase text.
func (s FitScorer) Score(rec domain.JobRecord) Result {
	return s.ScoreText(FullText(rec), rec.Company)
}

func (s FitScorer) ScoreText(text, company string) Result {
	text = strings.ToLower(text)
	company = strings.ToLower(company)
	v := s.Vocab

	res := Result{
		DomainHits: matches(text, v.DomainTerms),
		ExtraHits:  matches(text, v.ExtraTerms),
	}

	score := baseScore
	score += min(domainCap, domainWeight*len(res.DomainHits))
	score += min(extraCap, extraWeight*len(res.ExtraHits))

	if strings.Contains(text, "product") {
		score += productBonus
	}
	if containsAny(text, v.ProductPhrases) {
		score += phraseBonus
	}
	if containsAny(text, v.ProcessTerms) {
		score += processBonus
	}

	if containsAny(company, v.VendorCompanies) {
		score += vendorBonus
	}
	if containsAny(company, v.FintechCompanies) {
		score += fintechBonus
	}
	if containsAny(company, v.BankCompanies) {
		score += bankBonus
	}
	if containsAny(company, v.TechCompanies) {
		score += techBonus
	}

	if strings.Contains(text, "onboarding") || strings.Contains(text, "kyc") {
		score += focusBonus
	}
	if strings.Contains(text, "api") {
		score += apiBonus
	}

	res.Score = min(score, MaxHeuristicScore)
	return res
}

// FullText is the text every scorer and explanation builder reads.
func FullText(rec domain.JobRecord) string {
	return rec.Role + " " + rec.Company + " " + rec.Notes
}

// matches returns the distinct terms found in text, in vocabulary order.
func matches(text string, terms []string) []string {
	var hits []string
	seen := map[string]bool{}
	for _, t := range terms {
		t = strings.ToLower(t)
		if t == "" || seen[t] {
			continue
		}
		if strings.Contains(text, t) {
			seen[t] = true
			hits = append(hits, t)
		}
	}
	return hits
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if t = strings.ToLower(t); t != "" && strings.Contains(text, t) {
			return true
		}
	}
	return false
}
