package ashby

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

const DefaultBaseURL = "https://api.ashbyhq.com"

type Config struct {
	Boards  []string // api.ashbyhq.com/posting-api/job-board/<board>
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

func (s *Scraper) Name() string { return "ashby" }

type ashbyJob struct {
	Title           string `json:"title"`
	CompanyName     string `json:"companyName"`
	Location        string `json:"location"`
	LocationText    string `json:"locationText"`
	LocationName    string `json:"locationName"`
	JobURL          string `json:"jobUrl"`
	JobPageURL      string `json:"jobPageUrl"`
	ApplyURL        string `json:"applyUrl"`
	PublishedAt     string `json:"publishedAt"`
	CreatedAt       string `json:"createdAt"`
	DescriptionHTML string `json:"descriptionHtml"`
}

// Boards answer with either "jobs" or "postings".
type boardResponse struct {
	Jobs     []ashbyJob `json:"jobs"`
	Postings []ashbyJob `json:"postings"`
}

func (s *Scraper) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	posts := util.FetchBoards(ctx, s.Name(), s.cfg.Boards, s.fetchBoard, s.log)
	return types.ScrapeResult{Source: "Ashby", Postings: posts}, nil
}

func (s *Scraper) fetchBoard(ctx context.Context, board string) ([]domain.RawPosting, error) {
	board = strings.TrimSpace(board)
	if board == "" {
		return nil, fmt.Errorf("empty board")
	}
	u := fmt.Sprintf("%s/posting-api/job-board/%s", s.cfg.BaseURL, url.PathEscape(board))

	var res boardResponse
	if err := s.client.GetJSON(ctx, u, &res); err != nil {
		return nil, fmt.Errorf("ashby %s: %w", board, err)
	}
	jobs := res.Jobs
	if len(jobs) == 0 {
		jobs = res.Postings
	}

	out := make([]domain.RawPosting, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, domain.AshbyPosting{
			Board:           board,
			Title:           j.Title,
			CompanyName:     j.CompanyName,
			Location:        j.Location,
			LocationText:    j.LocationText,
			LocationName:    j.LocationName,
			JobURL:          j.JobURL,
			JobPageURL:      j.JobPageURL,
			ApplyURL:        j.ApplyURL,
			PublishedAt:     j.PublishedAt,
			CreatedAt:       j.CreatedAt,
			DescriptionHTML: j.DescriptionHTML,
		})
	}
	return out, nil
}
