package rank

import "jobdigest-engine/internal/domain"

// MaxHeuristicScore is the ceiling of the additive score. Only an
// external overwrite (enrichment) can go above it.
const MaxHeuristicScore = 90

// Result is a score with the vocabulary hits behind it. The hits feed
// the explanation builders; they are not stored on the record.
type Result struct {
	Score      int
	DomainHits []string
	ExtraHits  []string
}

type Scorer interface {
	Score(rec domain.JobRecord) Result
}

// Clamp bounds a fit score to [0, 100].
func Clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
