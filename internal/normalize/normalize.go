// Package normalize turns typed raw postings into canonical job records.
// It is the only place that knows the shape of each adapter's output.
package normalize

import (
	"html"
	"strings"

	"jobdigest-engine/internal/domain"
)

// DefaultSummaryMaxChars bounds Notes when no limit is configured.
const DefaultSummaryMaxChars = 1600

type Normalizer struct {
	SummaryMaxChars int
}

func New(summaryMaxChars int) Normalizer {
	if summaryMaxChars <= 0 {
		summaryMaxChars = DefaultSummaryMaxChars
	}
	return Normalizer{SummaryMaxChars: summaryMaxChars}
}

// fields is the flat view every variant is reduced to before cleaning.
type fields struct {
	title, company, location, link string
	postedText, postedDate         string
	summary, applicants            string
}

// Normalize returns the canonical record for raw. ok is false when the
// posting has no title or no company, or is of an unknown variant.
func (n Normalizer) Normalize(raw domain.RawPosting) (domain.JobRecord, bool) {
	if raw == nil {
		return domain.JobRecord{}, false
	}
	f, ok := extract(raw)
	if !ok {
		return domain.JobRecord{}, false
	}

	title := CleanText(html.UnescapeString(f.title))
	company := CleanText(html.UnescapeString(f.company))
	if title == "" || company == "" {
		return domain.JobRecord{}, false
	}

	summary := Cap(StripMarkup(f.summary), n.max())
	postedDate := ISODate(f.postedDate)

	// an absolute date wins; free text is only scanned without one
	relative := RelativePosted(f.postedText)
	if relative == "" && postedDate == "" {
		relative = RelativePosted(f.summary, f.title)
	}

	rec := domain.JobRecord{
		Role:           title,
		Company:        company,
		Location:       NormalizeLocation(StripMarkup(f.location)),
		Link:           CanonicalLink(f.link),
		Source:         raw.Source(),
		PostedRaw:      firstNonEmpty(relative, strings.TrimSpace(f.postedDate)),
		PostedDate:     postedDate,
		Notes:          summary,
		ApplicantCount: ApplicantCount(f.applicants),
	}
	rec.Posted = relative
	if rec.Posted == "" && postedDate != "" {
		rec.Posted = postedDate[:len("2006-01-02")]
	}
	return rec, true
}

func (n Normalizer) max() int {
	if n.SummaryMaxChars <= 0 {
		return DefaultSummaryMaxChars
	}
	return n.SummaryMaxChars
}

func extract(raw domain.RawPosting) (fields, bool) {
	switch p := raw.(type) {
	case domain.GreenhousePosting:
		return fields{
			title:      p.Title,
			company:    CompanyFromSlug(p.Board),
			location:   p.LocationName,
			link:       p.AbsoluteURL,
			postedDate: p.UpdatedAt,
			summary:    p.Content,
		}, true

	case domain.LeverPosting:
		return fields{
			title:      firstNonEmpty(p.Text, p.Title),
			company:    CompanyFromSlug(p.Board),
			location:   p.Location,
			link:       firstNonEmpty(p.HostedURL, p.ApplyURL),
			postedDate: millisToISO(p.CreatedAtMillis),
			summary:    p.Description,
		}, true

	case domain.AshbyPosting:
		return fields{
			title:      p.Title,
			company:    firstNonEmpty(p.CompanyName, CompanyFromSlug(p.Board)),
			location:   firstNonEmpty(p.Location, p.LocationText, p.LocationName),
			link:       firstNonEmpty(p.JobURL, p.JobPageURL, p.ApplyURL),
			postedDate: firstNonEmpty(p.PublishedAt, p.CreatedAt),
			summary:    p.DescriptionHTML,
		}, true

	case domain.SmartRecruitersPosting:
		f := fields{
			title:      p.Name,
			company:    firstNonEmpty(p.CompanyName, CompanyFromSlug(p.Company)),
			postedDate: p.ReleasedDate,
		}
		if p.Remote {
			f.location = "Remote"
		} else {
			f.location = joinNonEmpty(", ", p.City, p.Region, p.Country)
		}
		if p.ID != "" {
			f.link = "https://jobs.smartrecruiters.com/" + firstNonEmpty(p.CompanyIdentifier, p.Company) + "/" + p.ID
		}
		return f, true

	case domain.FeedPosting:
		title, company := p.Title, p.Author
		if company == "" {
			if role, co, ok := splitAt(title); ok {
				title, company = role, co
			}
		}
		return fields{
			title:      title,
			company:    firstNonEmpty(company, p.Source()),
			location:   "Remote",
			link:       p.Link,
			postedDate: p.Published,
			summary:    p.Summary,
		}, true

	case domain.AlertPosting:
		return fields{
			title:      p.Title,
			company:    p.Company,
			location:   p.Location,
			link:       p.Link,
			postedText: p.PostedText,
			postedDate: p.PostedDate,
			summary:    p.Summary,
			applicants: p.ApplicantText,
		}, true
	}
	return fields{}, false
}

// splitAt splits feed titles of the form "Product Manager at Acme".
func splitAt(title string) (role, company string, ok bool) {
	parts := strings.Split(title, " at ")
	if len(parts) != 2 {
		return "", "", false
	}
	role, company = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	return role, company, role != "" && company != ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func joinNonEmpty(sep string, vals ...string) string {
	var out []string
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, sep)
}
