package email_scrape

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobdigest-engine/internal/domain"
)

const linkedInHTML = `<html><body>
<table class="card"><tr><td>
  <a href="https://www.linkedin.com/comm/jobs/view/4012345678/?trackingId=abc"><img src="logo.png"></a>
  <a href="https://www.linkedin.com/comm/jobs/view/4012345678/?trackingId=def">Senior Product Manager, Onboarding</a>
  <p>Acme Bank · London, England, United Kingdom</p>
  <p>2 days ago · 37 applicants</p>
</td></tr></table>
<table class="card"><tr><td>
  <a href="https://www.linkedin.com/comm/jobs/view/4098765432/">Product Owner KYC</a>
  <p>Fintech Ltd · Remote</p>
  <p>Actively recruiting</p>
</td></tr></table>
<a href="https://www.linkedin.com/comm/jobs/search/?alert=1">See all jobs</a>
<a href="https://www.linkedin.com/comm/psettings/email-unsubscribe">Unsubscribe</a>
</body></html>`

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func TestParseMessage_Multipart(t *testing.T) {
	raw := crlf(`From: LinkedIn Job Alerts <jobalerts-noreply@linkedin.com>
To: me@example.com
Subject: =?UTF-8?Q?New_jobs_for_you_=E2=80=93_Product?=
Date: Tue, 10 Mar 2026 08:00:00 +0000
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/plain; charset=utf-8

Product Manager at Acme
--b1
Content-Type: text/html; charset=iso-8859-1
Content-Transfer-Encoding: quoted-printable

<p>Caf=E9 Product Manager</p>
--b1--
`)

	m, err := ParseMessage(raw)
	require.NoError(t, err)
	assert.Equal(t, "New jobs for you – Product", m.Subject)
	assert.Equal(t, "jobalerts-noreply@linkedin.com", m.From)
	assert.Equal(t, "LinkedIn Job Alerts", m.FromName)
	assert.True(t, time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC).Equal(m.Date))
	assert.Contains(t, m.Text, "Product Manager at Acme")
	assert.Contains(t, m.HTML, "Café Product Manager")
}

func TestParseMessage_SinglePartHTML(t *testing.T) {
	raw := crlf(`From: jobs@monzo.com
Subject: Job alert
Content-Type: text/html; charset=utf-8

<a href="https://monzo.com/careers/1">Product Manager</a>
`)
	m, err := ParseMessage(raw)
	require.NoError(t, err)
	assert.Contains(t, m.HTML, "monzo.com/careers/1")
	assert.Empty(t, m.Text)

	_, err = ParseMessage(nil)
	assert.Error(t, err)
}

func TestParseAlert_LinkedIn(t *testing.T) {
	date := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	posts, err := ParseAlert(Message{
		From:    "jobalerts-noreply@linkedin.com",
		Subject: "Product Manager: 2 new jobs",
		Date:    date,
		HTML:    linkedInHTML,
	})
	require.NoError(t, err)
	require.Len(t, posts, 2, "logo and title anchors of one job merge into one posting")

	first := posts[0]
	assert.Equal(t, SourceLinkedIn, first.SourceName)
	assert.Equal(t, "Senior Product Manager, Onboarding", first.Title)
	assert.Equal(t, "Acme Bank", first.Company)
	assert.Equal(t, "London, England, United Kingdom", first.Location)
	assert.Equal(t, "https://www.linkedin.com/jobs/view/4012345678/", first.Link)
	assert.Equal(t, "2 days ago", first.PostedText)
	assert.Equal(t, "37 applicants", first.ApplicantText)
	assert.Equal(t, "2026-03-10T08:00:00Z", first.PostedDate)

	second := posts[1]
	assert.Equal(t, "Product Owner KYC", second.Title)
	assert.Equal(t, "Fintech Ltd", second.Company)
	assert.Equal(t, "Remote", second.Location)
	assert.Empty(t, second.PostedText)
}

func TestParseAlert_Generic(t *testing.T) {
	html := `<html><body>
<table><tr><td>
  <a href="https://www.google.com/url?q=https://jobs.lever.co/tide/abc-123&sa=D">Product Owner, Onboarding</a>
  <p>Tide · London</p>
</td></tr></table>
<div><a href="https://tide.co/careers/positions/42">Head of Product Compliance</a></div>
<div><a href="https://tide.co/careers/positions/42?utm_source=mail">Head of Product Compliance</a></div>
<div><a href="https://tide.co/careers">Visit our site</a></div>
<div><a href="https://tide.co/unsubscribe">Unsubscribe</a></div>
</body></html>`

	posts, err := ParseAlert(Message{FromName: "Tide Careers", Subject: "New jobs at Tide", HTML: html})
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, SourceAlert, posts[0].SourceName)
	assert.Equal(t, "https://jobs.lever.co/tide/abc-123", posts[0].Link)
	assert.Equal(t, "Product Owner, Onboarding", posts[0].Title)
	assert.Equal(t, "Tide", posts[0].Company)
	assert.Equal(t, "London", posts[0].Location)

	assert.Equal(t, "Head of Product Compliance", posts[1].Title)
	assert.Equal(t, "Tide", posts[1].Company, "sender name stands in for the company")
	assert.Empty(t, posts[1].PostedDate)
}

func TestParseAlert_NoHTML(t *testing.T) {
	posts, err := ParseAlert(Message{Text: "plain only"})
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestTitleHeuristics(t *testing.T) {
	assert.True(t, betterTitle("Product Manager", ""))
	assert.False(t, betterTitle("Unsubscribe", ""))
	assert.False(t, betterTitle("£60,000 - £70,000 per year", ""))
	assert.False(t, betterTitle("Product Manager", "Senior Product Manager, Payments"))
	assert.Equal(t, "", stripTitleNoise("3 connections work here"))
	assert.Equal(t, "Product Owner", stripTitleNoise("Product Owner Easy Apply"))
	assert.True(t, containsWord("senior product manager", "product"))
	assert.False(t, containsWord("sre lead", "sr"))
}

func TestCompanyFromSender(t *testing.T) {
	assert.Equal(t, "Monzo", companyFromSender(`"Monzo Careers"`))
	assert.Equal(t, "Acme Bank", companyFromSender("Acme Bank Talent Team"))
	assert.Equal(t, "", companyFromSender(""))
}

type fakeMailbox struct {
	msgs    []RawMessage
	marked  []imap.UID
	dials   int
	closed  int
	failErr error
}

func (f *fakeMailbox) Unseen(_ context.Context, max int) ([]RawMessage, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	if len(f.msgs) > max {
		return f.msgs[:max], nil
	}
	return f.msgs, nil
}

func (f *fakeMailbox) MarkSeen(_ context.Context, uids []imap.UID) error {
	f.marked = append(f.marked, uids...)
	return nil
}

func (f *fakeMailbox) Close() { f.closed++ }

func newTestScraper(cfg Config, mb *fakeMailbox) *Scraper {
	s := New(cfg, zap.NewNop())
	s.dial = func(context.Context, Config, *zap.Logger) (mailbox, error) {
		mb.dials++
		return mb, nil
	}
	return s
}

func alertMail(subject, html string) []byte {
	return crlf("From: LinkedIn <jobalerts-noreply@linkedin.com>\nSubject: " + subject +
		"\nDate: Tue, 10 Mar 2026 08:00:00 +0000\nContent-Type: text/html; charset=utf-8\n\n" + html + "\n")
}

func TestScraper_FetchMarksSeenOnlyOnFinalize(t *testing.T) {
	mb := &fakeMailbox{msgs: []RawMessage{
		{UID: 7, Raw: alertMail("Your job alert for product manager", linkedInHTML)},
		{UID: 8, Raw: alertMail("Your invoice", "<p>nothing</p>")},
		{UID: 9, Raw: nil},
	}}
	s := newTestScraper(Config{
		Host: "imap.example.com", Username: "me", Password: "pw",
		SubjectAny: []string{"job alert"},
	}, mb)

	res, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Email", res.Source)
	require.Len(t, res.Postings, 2)
	assert.IsType(t, domain.AlertPosting{}, res.Postings[0])
	assert.Empty(t, mb.marked, "fetching must not mark anything")
	assert.Equal(t, 1, mb.closed)

	require.NotNil(t, res.Finalize)
	require.NoError(t, res.Finalize(context.Background()))
	assert.Equal(t, []imap.UID{7}, mb.marked, "only matching, parsed mails are marked")
	assert.Equal(t, 2, mb.dials)
}

func TestScraper_FetchErrors(t *testing.T) {
	s := New(Config{Host: "imap.example.com", Username: "me"}, nil)
	_, err := s.Fetch(context.Background())
	assert.ErrorContains(t, err, "imap password")

	s = New(Config{Password: "pw"}, nil)
	_, err = s.Fetch(context.Background())
	assert.Error(t, err)

	mb := &fakeMailbox{failErr: errors.New("boom")}
	s = newTestScraper(Config{Host: "h", Username: "u", Password: "p"}, mb)
	_, err = s.Fetch(context.Background())
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, 1, mb.closed)
}

func TestScraper_NothingProcessedHasNoFinalize(t *testing.T) {
	mb := &fakeMailbox{}
	s := newTestScraper(Config{Host: "h", Username: "u", Password: "p"}, mb)
	res, err := s.Fetch(context.Background())
	require.NoError(t, err)
	assert.Nil(t, res.Finalize)
	assert.Empty(t, res.Postings)
}
