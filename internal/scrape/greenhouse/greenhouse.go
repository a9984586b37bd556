package greenhouse

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"jobdigest-engine/internal/domain"
	"jobdigest-engine/internal/scrape/types"
	"jobdigest-engine/internal/scrape/util"
)

const DefaultBaseURL = "https://boards-api.greenhouse.io"

type Config struct {
	Boards  []string // boards-api.greenhouse.io/v1/boards/<board>/jobs
	BaseURL string
}

type Scraper struct {
	cfg    Config
	client *util.Client
	log    *zap.Logger
}

func New(cfg Config, client *util.Client, log *zap.Logger) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Scraper{cfg: cfg, client: client, log: log}
}

func (s *Scraper) Name() string { return "greenhouse" }

type jobsResponse struct {
	Jobs []struct {
		ID          int64  `json:"id"`
		Title       string `json:"title"`
		AbsoluteURL string `json:"absolute_url"`
		UpdatedAt   string `json:"updated_at"`
		Content     string `json:"content"`
		Location    struct {
			Name string `json:"name"`
		} `json:"location"`
	} `json:"jobs"`
}

func (s *Scraper) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	posts := util.FetchBoards(ctx, s.Name(), s.cfg.Boards, s.fetchBoard, s.log)
	return types.ScrapeResult{Source: "Greenhouse", Postings: posts}, nil
}

func (s *Scraper) fetchBoard(ctx context.Context, board string) ([]domain.RawPosting, error) {
	board = strings.TrimSpace(board)
	if board == "" {
		return nil, fmt.Errorf("empty board")
	}
	u := fmt.Sprintf("%s/v1/boards/%s/jobs?content=true", s.cfg.BaseURL, url.PathEscape(board))

	var res jobsResponse
	if err := s.client.GetJSON(ctx, u, &res); err != nil {
		return nil, fmt.Errorf("greenhouse %s: %w", board, err)
	}

	out := make([]domain.RawPosting, 0, len(res.Jobs))
	for _, j := range res.Jobs {
		out = append(out, domain.GreenhousePosting{
			Board:        board,
			Title:        j.Title,
			LocationName: j.Location.Name,
			AbsoluteURL:  j.AbsoluteURL,
			UpdatedAt:    j.UpdatedAt,
			Content:      j.Content,
		})
	}
	return out, nil
}
