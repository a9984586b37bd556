package email_scrape

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobdigest-engine/internal/domain"
	"jobdigest-engine/internal/normalize"
)

const (
	SourceLinkedIn = "LinkedIn"
	SourceAlert    = "Email Alert"

	// minTitleScore is what an anchor text needs to be taken as a title.
	minTitleScore = 3
)

var (
	reJobID      = regexp.MustCompile(`/jobs/view/(\d+)`)
	reApplicants = regexp.MustCompile(`(?i)(over\s+)?\d[\d,]*\s+applicants?`)
	reJobPath    = regexp.MustCompile(`(?i)/(jobs?|careers?|positions?|vacanc(y|ies)|openings?)(/|\?|$)|greenhouse\.io|lever\.co|ashbyhq\.com|smartrecruiters\.com|workable\.com`)
)

// card is what one alert entry yields before it becomes a posting.
type card struct {
	title, company, location string
	link                     string
	posted, applicants       string
}

// ParseAlert extracts postings from a parsed alert mail. LinkedIn alerts
// get the card parser; anything else the generic link scan. Cards carry
// their own relative posted text; the mail date stands in otherwise.
func ParseAlert(m Message) ([]domain.AlertPosting, error) {
	body := m.HTML
	if body == "" {
		return nil, nil
	}

	var (
		cards  []card
		source string
		err    error
	)
	if looksLikeLinkedInAlert(m.From, m.Subject, body) {
		source = SourceLinkedIn
		cards, err = parseLinkedInCards(body)
	} else {
		source = SourceAlert
		cards, err = parseGenericCards(body, companyFromSender(m.FromName))
	}
	if err != nil {
		return nil, err
	}

	postedDate := ""
	if !m.Date.IsZero() {
		postedDate = m.Date.UTC().Format(time.RFC3339)
	}

	out := make([]domain.AlertPosting, 0, len(cards))
	for _, c := range cards {
		out = append(out, domain.AlertPosting{
			SourceName:    source,
			Title:         c.title,
			Company:       c.company,
			Location:      c.location,
			Link:          c.link,
			PostedText:    c.posted,
			PostedDate:    postedDate,
			ApplicantText: c.applicants,
		})
	}
	return out, nil
}

// parseLinkedInCards merges every anchor that points at the same job id,
// so a logo anchor seen before the title anchor does not lose the title.
func parseLinkedInCards(htmlBody string) ([]card, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return nil, err
	}

	byKey := map[string]*card{}
	var order []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		lh := strings.ToLower(href)
		if !strings.Contains(lh, "linkedin.com") || !strings.Contains(lh, "/jobs/view/") {
			return
		}

		jobURL := unwrapRedirect(href)
		if jobURL == "" {
			return
		}
		key := jobURL
		if m := reJobID.FindStringSubmatch(jobURL); len(m) == 2 {
			key = m[1]
			jobURL = "https://www.linkedin.com/jobs/view/" + m[1] + "/"
		}

		c, ok := byKey[key]
		if !ok {
			c = &card{link: jobURL}
			byKey[key] = c
			order = append(order, key)
		}

		if t := stripTitleNoise(a.Text()); betterTitle(t, c.title) {
			c.title = t
		}
		fillFromCard(c, cardOf(a))
	})

	out := make([]card, 0, len(order))
	for _, k := range order {
		if c := byKey[k]; c.title != "" {
			out = append(out, *c)
		}
	}
	return out, nil
}

// parseGenericCards treats every job-looking link with a title-like
// anchor text as one posting. company is used when the card names none.
func parseGenericCards(htmlBody, company string) ([]card, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var out []card

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		link := unwrapRedirect(strings.TrimSpace(href))
		if link == "" || !strings.HasPrefix(strings.ToLower(link), "http") || !reJobPath.MatchString(link) {
			return
		}
		title := stripTitleNoise(a.Text())
		if !betterTitle(title, "") {
			return
		}
		key := normalize.IdentityKey(link)
		if seen[key] {
			return
		}
		seen[key] = true

		c := card{title: title, link: link}
		fillFromCard(&c, cardOf(a))
		if c.company == "" {
			c.company = company
		}
		out = append(out, c)
	})
	return out, nil
}

// cardOf returns the element that holds one alert entry.
func cardOf(a *goquery.Selection) *goquery.Selection {
	if c := a.Closest("table"); c.Length() > 0 {
		return c
	}
	if c := a.Closest("tr"); c.Length() > 0 {
		return c
	}
	return a.Parent()
}

// fillFromCard reads "Company · Location", a better title, posted text
// and applicant counts from the <p> lines of a card.
func fillFromCard(c *card, sel *goquery.Selection) {
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		t := normalize.CleanText(p.Text())
		if t == "" {
			return
		}

		posted := normalize.RelativePosted(t)
		applicants := reApplicants.FindString(t)
		if c.posted == "" {
			c.posted = posted
		}
		if c.applicants == "" {
			c.applicants = applicants
		}

		if strings.Contains(t, " · ") {
			if c.company == "" && c.location == "" && posted == "" && applicants == "" {
				parts := strings.SplitN(t, " · ", 2)
				c.company = strings.TrimSpace(parts[0])
				c.location = strings.TrimSpace(parts[1])
			}
			return
		}
		if t2 := stripTitleNoise(t); betterTitle(t2, c.title) {
			c.title = t2
		}
	})
}

// unwrapRedirect returns the target of ?url= and Google /url?q= wrappers.
func unwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if raw := u.Query().Get("url"); raw != "" {
		if uu, err := url.Parse(raw); err == nil && uu.Host != "" {
			return uu.String()
		}
	}
	if strings.Contains(strings.ToLower(u.Host), "google.") && strings.HasPrefix(u.Path, "/url") {
		if q := u.Query().Get("q"); q != "" {
			if uu, err := url.Parse(q); err == nil && uu.Host != "" {
				return uu.String()
			}
		}
	}
	return href
}

func looksLikeLinkedInAlert(from, subject, body string) bool {
	f := strings.ToLower(from)
	if strings.Contains(f, "jobalerts-noreply") || strings.Contains(f, "linkedin.com") {
		return true
	}
	s := strings.ToLower(subject)
	if strings.Contains(s, "linkedin") || strings.Contains(s, "job alert") {
		b := strings.ToLower(body)
		return strings.Contains(b, "linkedin.com/comm/jobs/view") || strings.Contains(b, "linkedin.com/jobs/view")
	}
	return false
}

// companyFromSender turns "Monzo Careers" into "Monzo".
func companyFromSender(name string) string {
	name = strings.Trim(strings.TrimSpace(name), `"`)
	var keep []string
	for _, w := range strings.Fields(name) {
		switch strings.ToLower(w) {
		case "careers", "jobs", "talent", "recruiting", "recruitment", "team", "hiring", "alerts", "-", "|":
			continue
		}
		keep = append(keep, w)
	}
	return strings.Join(keep, " ")
}

func stripTitleNoise(s string) string {
	s = normalize.CleanText(s)
	if s == "" {
		return ""
	}
	for _, b := range []string{"Actively recruiting", "Easy Apply", "Promoted"} {
		s = strings.ReplaceAll(s, b, "")
	}
	low := strings.ToLower(s)
	for _, bad := range []string{"alumni", "connections", "applicants", "school"} {
		if strings.Contains(low, bad) {
			return ""
		}
	}
	return normalize.CleanText(s)
}

// betterTitle reports whether candidate should replace current. It only
// switches on a clear gain so merged anchors do not flip-flop.
func betterTitle(candidate, current string) bool {
	c := strings.TrimSpace(candidate)
	if c == "" {
		return false
	}
	cs := titleScore(c)
	if strings.TrimSpace(current) == "" {
		return cs >= minTitleScore
	}
	ks := titleScore(current)
	if ks >= 8 && cs < ks {
		return false
	}
	return cs >= ks+3
}

var titleWords = []string{
	"product", "owner", "manager", "head", "director", "lead", "principal",
	"analyst", "engineer", "specialist", "consultant", "architect",
	"kyc", "aml", "compliance", "onboarding", "risk", "operations",
}

// titleScore rates how much s looks like a job title.
func titleScore(s string) int {
	orig := strings.TrimSpace(s)
	if orig == "" {
		return -100
	}
	l := strings.ToLower(orig)
	score := 0

	if strings.Contains(l, "unsubscribe") || (strings.Contains(l, "manage") && strings.Contains(l, "alert")) {
		return -50
	}
	if strings.Contains(l, "http://") || strings.Contains(l, "https://") || strings.Contains(l, "www.") {
		return -30
	}

	if strings.ContainsAny(orig, "$€£") {
		score -= 8
	}
	if strings.Contains(l, "per year") || strings.Contains(l, "per hour") || strings.Contains(l, "/yr") {
		score -= 6
	}

	for _, bad := range []string{"apply", "view job", "see job", "see all", "see details", "learn more", "sign in"} {
		if strings.Contains(l, bad) {
			score -= 6
		}
	}

	if strings.Count(orig, "|") >= 1 || strings.Count(orig, "•") >= 1 {
		score -= 2
	}

	for _, w := range titleWords {
		if containsWord(l, w) {
			score += 4
			break
		}
	}
	for _, w := range []string{"senior", "sr", "junior", "jr", "staff", "associate"} {
		if containsWord(l, w) {
			score += 2
		}
	}

	n := len([]rune(orig))
	switch {
	case n >= 6 && n <= 80:
		score += 2
	case n < 4 || n > 140:
		score -= 6
	}

	if strings.HasSuffix(orig, ".") || strings.Contains(l, "you will") || strings.Contains(l, "we are") {
		score -= 4
	}

	digits := 0
	for _, r := range orig {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits >= 6 {
		score -= 4
	}
	return score
}

// containsWord matches needle on word boundaries, so "sr" does not hit
// "sre".
func containsWord(haystackLower, needleLower string) bool {
	isBound := func(b byte) bool {
		switch b {
		case ' ', '\t', '-', '/', '(', ')', '[', ']', ',', '.', ':', ';', '|', '&':
			return true
		}
		return false
	}
	from := 0
	for {
		i := strings.Index(haystackLower[from:], needleLower)
		if i < 0 {
			return false
		}
		i += from
		end := i + len(needleLower)
		if (i == 0 || isBound(haystackLower[i-1])) && (end == len(haystackLower) || isBound(haystackLower[end])) {
			return true
		}
		from = i + 1
	}
}
