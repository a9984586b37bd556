// Package rss reads job feeds in RSS 2.0 or Atom form.
package rss

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"jobdigest-engine/internal/config"
	"jobdigest-engine/internal/domain"
	"jobdigest-engine/internal/logger"
	"jobdigest-engine/internal/scrape/types"
	"jobdigest-engine/internal/scrape/util"
)

type Scraper struct {
	feeds  []config.Feed
	client *util.Client
	log    *zap.Logger
}

func New(feeds []config.Feed, client *util.Client, log *zap.Logger) *Scraper {
	return &Scraper{feeds: feeds, client: client, log: logger.OrNop(log)}
}

func (s *Scraper) Name() string { return "rss" }

// Fetch reads every feed in turn. Feeds share hosts rarely enough that
// the host limiter is the only throttle needed.
func (s *Scraper) Fetch(ctx context.Context) (types.ScrapeResult, error) {
	var out []domain.RawPosting
	for _, f := range s.feeds {
		if ctx.Err() != nil {
			break
		}
		posts, err := s.fetchFeed(ctx, f)
		if err != nil {
			s.log.Warn("feed fetch failed", zap.String(logger.FieldSource, f.Name), zap.String("url", f.URL), zap.Error(err))
			continue
		}
		out = append(out, posts...)
	}
	return types.ScrapeResult{Source: "RSS", Postings: out}, nil
}

func (s *Scraper) fetchFeed(ctx context.Context, f config.Feed) ([]domain.RawPosting, error) {
	body, err := s.client.Get(ctx, f.URL)
	if err != nil {
		return nil, err
	}
	return Parse(f.Name, body)
}

type rssDoc struct {
	Items []struct {
		Title       string `xml:"title"`
		Link        string `xml:"link"`
		Description string `xml:"description"`
		PubDate     string `xml:"pubDate"`
		Creator     string `xml:"http://purl.org/dc/elements/1.1/ creator"`
		Author      string `xml:"author"`
	} `xml:"channel>item"`
}

type atomDoc struct {
	Entries []struct {
		Title string `xml:"title"`
		Links []struct {
			Href string `xml:"href,attr"`
			Rel  string `xml:"rel,attr"`
		} `xml:"link"`
		Summary   string `xml:"summary"`
		Content   string `xml:"content"`
		Published string `xml:"published"`
		Updated   string `xml:"updated"`
		Author    struct {
			Name string `xml:"name"`
		} `xml:"author"`
	} `xml:"entry"`
}

// Parse turns a feed document into postings tagged with feedName.
func Parse(feedName string, body []byte) ([]domain.RawPosting, error) {
	root, err := rootName(body)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", feedName, err)
	}

	var out []domain.RawPosting
	switch root {
	case "rss":
		var doc rssDoc
		if err := xml.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("feed %s: %w", feedName, err)
		}
		for _, it := range doc.Items {
			out = append(out, domain.FeedPosting{
				Feed:      feedName,
				Title:     it.Title,
				Author:    firstNonEmpty(it.Creator, it.Author),
				Link:      strings.TrimSpace(it.Link),
				Summary:   it.Description,
				Published: it.PubDate,
			})
		}
	case "feed":
		var doc atomDoc
		if err := xml.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("feed %s: %w", feedName, err)
		}
		for _, e := range doc.Entries {
			link := ""
			for _, l := range e.Links {
				if l.Rel == "" || l.Rel == "alternate" {
					link = l.Href
					break
				}
			}
			out = append(out, domain.FeedPosting{
				Feed:      feedName,
				Title:     e.Title,
				Author:    e.Author.Name,
				Link:      strings.TrimSpace(link),
				Summary:   firstNonEmpty(e.Summary, e.Content),
				Published: firstNonEmpty(e.Published, e.Updated),
			})
		}
	default:
		return nil, fmt.Errorf("feed %s: unsupported document <%s>", feedName, root)
	}
	return out, nil
}

func rootName(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("no root element: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local, nil
		}
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
