package types

import (
	"context"

	"jobdigest-engine/internal/domain"
)

// ScrapeResult is what one source produced in one run. Finalize, when
// set, is called after the run delivered successfully (for example to
// mark alert mails as read).
type ScrapeResult struct {
	Source   string
	Postings []domain.RawPosting
	Finalize func(context.Context) error
}

type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (ScrapeResult, error)
}
