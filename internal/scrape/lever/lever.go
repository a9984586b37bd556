package lever

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

const DefaultBaseURL = "https://api.lever.co"

type Config struct {
	Boards  []string // api.lever.co/v0/postings/<board>
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

func (s *Scraper) Name() string { return "lever" }

type leverPosting struct {
	ID         string `json:"id"`
	Text       string `json:"text"` // title
	Title      string `json:"title"`
	HostedURL  string `json:"hostedUrl"`
	ApplyURL   string `json:"applyUrl"`
	CreatedAt  int64  `json:"createdAt"` // ms epoch
	Categories struct {
		Location string `json:"location"`
		Team     string `json:"team"`
	} `json:"categories"`
	Description      string `json:"description"` // html
	DescriptionPlain string `json:"descriptionPlain"`
}

func (s *Scraper) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	posts := util.FetchBoards(ctx, s.Name(), s.cfg.Boards, s.fetchBoard, s.log)
	return types.ScrapeResult{Source: "Lever", Postings: posts}, nil
}

func (s *Scraper) fetchBoard(ctx context.Context, board string) ([]domain.RawPosting, error) {
	board = strings.TrimSpace(board)
	if board == "" {
		return nil, fmt.Errorf("empty board")
	}
	u := fmt.Sprintf("%s/v0/postings/%s?mode=json", s.cfg.BaseURL, url.PathEscape(board))

	var postings []leverPosting
	if err := s.client.GetJSON(ctx, u, &postings); err != nil {
		return nil, fmt.Errorf("lever %s: %w", board, err)
	}

	out := make([]domain.RawPosting, 0, len(postings))
	for _, p := range postings {
		desc := p.Description
		if desc == "" {
			desc = p.DescriptionPlain
		}
		out = append(out, domain.LeverPosting{
			Board:           board,
			Text:            p.Text,
			Title:           p.Title,
			Location:        p.Categories.Location,
			HostedURL:       p.HostedURL,
			ApplyURL:        p.ApplyURL,
			CreatedAtMillis: p.CreatedAt,
			Description:     desc,
		})
	}
	return out, nil
}
