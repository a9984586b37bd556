package util

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"jobdigest-engine/internal/domain"
	"jobdigest-engine/internal/logger"
)

const (
	boardWorkers = 8
	boardTimeout = 20 * time.Second
)

// BoardFunc fetches the postings of one board.
type BoardFunc func(ctx context.Context, board string) ([]domain.RawPosting, error)

// FetchBoards runs fetch over boards with a small worker pool. A failing
// board is logged and skipped; the others still count.
func FetchBoards(ctx context.Context, source string, boards []string, fetch BoardFunc, log *zap.Logger) []domain.RawPosting {
	log = logger.OrNop(log).With(zap.String(logger.FieldSource, source))

	postsCh := make(chan []domain.RawPosting, len(boards))
	workCh := make(chan string)

	workers := min(boardWorkers, len(boards))
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for board := range workCh {
				bctx, cancel := context.WithTimeout(ctx, boardTimeout)
				posts, err := fetch(bctx, board)
				cancel()

				if err != nil {
					log.Warn("board fetch failed", zap.String("board", board), zap.Error(err))
					continue
				}
				log.Debug("board fetched", zap.String("board", board), zap.Int("postings", len(posts)))
				if len(posts) > 0 {
					postsCh <- posts
				}
			}
		}()
	}

	go func() {
		defer close(workCh)
		for _, b := range boards {
			select {
			case <-ctx.Done():
				return
			case workCh <- b:
			}
		}
	}()

	wg.Wait()
	close(postsCh)

	var out []domain.RawPosting
	for batch := range postsCh {
		out = append(out, batch...)
	}
	return out
}
