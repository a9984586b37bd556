package smartrecruiters

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

const (
	DefaultBaseURL = "https://api.smartrecruiters.com"

	pageSize  = 100
	maxOffset = 5000
)

type Config struct {
	// Companies are SmartRecruiters company identifiers, e.g.
	// https://jobs.smartrecruiters.com/<company>
	Companies []string
	// Query narrows the search server-side. Empty lists everything.
	Query   string
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

func (s *Scraper) Name() string { return "smartrecruiters" }

// { "content": [...], "totalFound": N, "offset": O, "limit": L }
type postingsResponse struct {
	Content    []posting `json:"content"`
	TotalFound int       `json:"totalFound"`
	Offset     int       `json:"offset"`
	Limit      int       `json:"limit"`
}

type posting struct {
	ID           string `json:"id"`
	UUID         string `json:"uuid"`
	Name         string `json:"name"`
	ReleasedDate string `json:"releasedDate"`
	Company      struct {
		Name       string `json:"name"`
		Identifier string `json:"identifier"`
	} `json:"company"`
	Location struct {
		City    string `json:"city"`
		Region  string `json:"region"`
		Country string `json:"country"`
		Remote  bool   `json:"remote"`
	} `json:"location"`
}

func (s *Scraper) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	posts := util.FetchBoards(ctx, s.Name(), s.cfg.Companies, s.fetchCompany, s.log)
	return types.ScrapeResult{Source: "SmartRecruiters", Postings: posts}, nil
}

// fetchCompany pages through the postings until totalFound is reached.
// Pages already read are kept when a later page fails.
func (s *Scraper) fetchCompany(ctx context.Context, company string) ([]domain.RawPosting, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, fmt.Errorf("empty company")
	}
	base := fmt.Sprintf("%s/v1/companies/%s/postings", s.cfg.BaseURL, url.PathEscape(company))

	var out []domain.RawPosting
	for offset := 0; offset <= maxOffset; offset += pageSize {
		q := url.Values{}
		q.Set("limit", fmt.Sprint(pageSize))
		q.Set("offset", fmt.Sprint(offset))
		if s.cfg.Query != "" {
			q.Set("q", s.cfg.Query)
		}

		var pr postingsResponse
		if err := s.client.GetJSON(ctx, base+"?"+q.Encode(), &pr); err != nil {
			if len(out) > 0 {
				return out, nil
			}
			return nil, fmt.Errorf("smartrecruiters %s: %w", company, err)
		}
		if len(pr.Content) == 0 {
			break
		}

		for _, p := range pr.Content {
			out = append(out, domain.SmartRecruitersPosting{
				Company:           company,
				CompanyName:       p.Company.Name,
				CompanyIdentifier: p.Company.Identifier,
				ID:                firstNonEmpty(p.ID, p.UUID),
				Name:              p.Name,
				City:              p.Location.City,
				Region:            p.Location.Region,
				Country:           p.Location.Country,
				Remote:            p.Location.Remote,
				ReleasedDate:      p.ReleasedDate,
			})
		}

		if pr.TotalFound > 0 && offset+pageSize >= pr.TotalFound {
			break
		}
	}
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
