// Package workday reads the public "cxs" job search endpoint that backs
// every myworkdayjobs.com career site.
package workday

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"jobdigest-engine/internal/domain"
	"jobdigest-engine/internal/logger"
	"jobdigest-engine/internal/normalize"
	"jobdigest-engine/internal/scrape/types"
	"jobdigest-engine/internal/scrape/util"
)

const (
	// Workday rejects limits above 20.
	pageSize           = 20
	defaultMaxPostings = 200
)

type Config struct {
	// Boards are career site URLs, e.g.
	// https://acme.wd3.myworkdayjobs.com/en-US/External
	Boards      []string
	SearchText  string
	MaxPostings int // per board
}

type Scraper struct {
	cfg    Config
	client *util.Client
	log    *zap.Logger
}

func New(cfg Config, client *util.Client, log *zap.Logger) *Scraper {
	if cfg.MaxPostings <= 0 {
		cfg.MaxPostings = defaultMaxPostings
	}
	return &Scraper{cfg: cfg, client: client, log: logger.OrNop(log)}
}

func (s *Scraper) Name() string { return "workday" }

type searchRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

type searchResponse struct {
	Total       int `json:"total"`
	JobPostings []struct {
		Title         string `json:"title"`
		ExternalPath  string `json:"externalPath"`
		LocationsText string `json:"locationsText"`
		PostedOn      string `json:"postedOn"`
	} `json:"jobPostings"`
}

func (s *Scraper) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	posts := util.FetchBoards(ctx, s.Name(), s.cfg.Boards, s.fetchBoard, s.log)
	return types.ScrapeResult{Source: "Workday", Postings: posts}, nil
}

func (s *Scraper) fetchBoard(ctx context.Context, raw string) ([]domain.RawPosting, error) {
	b, err := parseBoardURL(raw)
	if err != nil {
		return nil, err
	}
	company := normalize.CompanyFromSlug(b.tenant)

	var out []domain.RawPosting
	for offset := 0; offset < s.cfg.MaxPostings; offset += pageSize {
		req := searchRequest{
			AppliedFacets: map[string]any{},
			Limit:         pageSize,
			Offset:        offset,
			SearchText:    s.cfg.SearchText,
		}
		var res searchResponse
		if err := s.client.PostJSON(ctx, b.jobsEndpoint(), req, &res); err != nil {
			if len(out) > 0 {
				s.log.Warn("workday paging stopped", zap.String("board", raw), zap.Int("offset", offset), zap.Error(err))
				return out, nil
			}
			return nil, fmt.Errorf("workday %s: %w", b.tenant, err)
		}

		for _, p := range res.JobPostings {
			title := strings.TrimSpace(p.Title)
			link := b.jobURL(p.ExternalPath)
			if title == "" || link == "" {
				continue
			}
			out = append(out, domain.AlertPosting{
				SourceName: "Workday",
				Title:      title,
				Company:    company,
				Location:   p.LocationsText,
				Link:       link,
				PostedText: postedText(p.PostedOn),
			})
		}

		if len(res.JobPostings) < pageSize || (res.Total > 0 && offset+pageSize >= res.Total) {
			break
		}
	}
	return out, nil
}

// postedText maps "Posted 3 Days Ago" to "3 Days Ago" and "Posted Today"
// to "Today". "30+ Days Ago" is left as is and reads as undated.
func postedText(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "Posted "); ok {
		return rest
	}
	return s
}

type board struct {
	scheme, host string
	tenant, site string
	locale       string
}

func parseBoardURL(raw string) (board, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return board{}, errors.New("empty board url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return board{}, err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	parts := strings.Split(u.Host, ".")
	if len(parts) < 3 {
		return board{}, fmt.Errorf("unexpected workday host %q", u.Host)
	}

	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) == 0 || segs[0] == "" {
		return board{}, fmt.Errorf("workday url %q has no site", raw)
	}
	b := board{scheme: u.Scheme, host: u.Host, tenant: parts[0]}
	if len(segs) >= 2 && isLocale(segs[0]) {
		b.locale = strings.ToLower(segs[0][:2]) + "-" + strings.ToUpper(segs[0][3:])
		segs = segs[1:]
	}
	b.site = segs[len(segs)-1]
	return b, nil
}

// isLocale accepts "en-US" in any case.
func isLocale(s string) bool {
	if len(s) != 5 || s[2] != '-' {
		return false
	}
	for _, c := range s[:2] + s[3:] {
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}

func (b board) jobsEndpoint() string {
	u := fmt.Sprintf("%s://%s/wday/cxs/%s/%s/jobs", b.scheme, b.host, b.tenant, b.site)
	if b.locale != "" {
		u += "?locale=" + url.QueryEscape(b.locale)
	}
	return u
}

func (b board) jobURL(path string) string {
	path = strings.TrimSpace(path)
	switch {
	case path == "":
		return ""
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return path
	case !strings.HasPrefix(path, "/"):
		path = "/" + path
	}
	site := b.site
	if b.locale != "" {
		site = b.locale + "/" + site
	}
	return fmt.Sprintf("%s://%s/%s%s", b.scheme, b.host, site, path)
}
