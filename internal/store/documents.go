package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"jobdigest-engine/internal/domain"
	"jobdigest-engine/internal/normalize"
)

// Application statuses.
const (
	StatusSaved       = "saved"
	StatusNew         = "new"
	StatusShortlisted = "shortlisted"
	StatusDismissed   = "dismissed"
)

const (
	// SourceManual marks records submitted by hand rather than scraped.
	SourceManual = "Manual"

	// autoDismissCap bounds the auto-dismiss threshold for new documents.
	autoDismissCap = 70
	// staleKeepScore exempts strong matches from stale cleanup.
	staleKeepScore = 85
)

// Document is a stored record plus its workflow state.
type Document struct {
	ID     string
	Record domain.JobRecord

	ApplicationStatus string
	DismissReason     string
	ManualLink        bool

	ApplicantCountNumeric  *int
	ApplicantCountPrev     *int
	ApplicantCountPrevDate string

	CreatedAt  string
	UpdatedAt  string
	LastSeenAt string
}

type UpsertOptions struct {
	// AutoDismissBelow dismisses new documents scoring below
	// min(AutoDismissBelow, 70). 0 disables it.
	AutoDismissBelow int
	Now              time.Time
}

type UpsertResult struct {
	ID      string
	Created bool
	Status  string
}

// DocumentID is the first 24 hex chars of sha256 over the link, or over
// "company-role-location" when there is no link.
func DocumentID(rec domain.JobRecord) string {
	seed := rec.Link
	if seed == "" {
		seed = rec.Company + "-" + rec.Role + "-" + rec.Location
	}
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])[:24]
}

func isoNow(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}

// Upsert writes rec. Scored fields are refreshed on every call; the
// application status only follows the rules for new documents and
// manual links; enrichment fields are filled only where still empty.
func (d *DB) Upsert(ctx context.Context, rec domain.JobRecord, opts UpsertOptions) (UpsertResult, error) {
	id := DocumentID(rec)
	now := isoNow(opts.Now)

	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return UpsertResult{}, err
	}
	defer func() { _ = tx.Rollback() }()

	existing, found, err := getDocument(ctx, tx, id)
	if err != nil {
		return UpsertResult{}, err
	}

	doc := Document{
		ID:         id,
		Record:     rec.Clone(),
		CreatedAt:  now,
		UpdatedAt:  now,
		LastSeenAt: now,
	}
	if found {
		doc.CreatedAt = existing.CreatedAt
		doc.ApplicationStatus = existing.ApplicationStatus
		doc.DismissReason = existing.DismissReason
		doc.ManualLink = existing.ManualLink
		doc.ApplicantCountNumeric = existing.ApplicantCountNumeric
		doc.ApplicantCountPrev = existing.ApplicantCountPrev
		doc.ApplicantCountPrevDate = existing.ApplicantCountPrevDate
		doc.Record.Enrichment = fillEnrichment(existing.Record.Enrichment, rec.Enrichment)
		if doc.Record.ApplicantCount == "" {
			doc.Record.ApplicantCount = existing.Record.ApplicantCount
		}
	}
	if rec.Source == SourceManual {
		doc.ManualLink = true
	}

	applyStatus(&doc, !found, rec, opts.AutoDismissBelow)

	if n, ok := parseCount(rec.ApplicantCount); ok {
		prev := doc.ApplicantCountNumeric
		if prev == nil && found {
			if p, ok := parseCount(existing.Record.ApplicantCount); ok {
				prev = &p
			}
		}
		if prev != nil && *prev != n {
			p := *prev
			doc.ApplicantCountPrev = &p
			doc.ApplicantCountPrevDate = now
			if err := recordApplicantHistory(ctx, tx, id, n, rec.ApplicantCount, now); err != nil {
				return UpsertResult{}, err
			}
		}
		doc.ApplicantCountNumeric = &n
	}

	if err := writeDocument(ctx, tx, doc, found); err != nil {
		return UpsertResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return UpsertResult{}, err
	}
	return UpsertResult{ID: id, Created: !found, Status: doc.ApplicationStatus}, nil
}

func applyStatus(doc *Document, isNew bool, rec domain.JobRecord, autoDismissBelow int) {
	threshold := 0
	if autoDismissBelow > 0 {
		threshold = min(autoDismissBelow, autoDismissCap)
	}
	status := doc.ApplicationStatus

	switch {
	case isNew && threshold > 0 && rec.FitScore < threshold:
		doc.ApplicationStatus = StatusDismissed
		doc.DismissReason = fmt.Sprintf("auto_low_fit_%d", threshold)
	case rec.Source == SourceManual && (status == "" || status == StatusSaved || status == StatusNew):
		doc.ApplicationStatus = StatusShortlisted
	case status == "":
		doc.ApplicationStatus = StatusSaved
	}
}

func parseCount(s string) (int, bool) {
	n, err := strconv.Atoi(normalize.ApplicantCount(s))
	return n, err == nil
}

// fillEnrichment returns have with every empty field taken from add.
func fillEnrichment(have, add domain.Enrichment) domain.Enrichment {
	str := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	list := func(dst *[]string, v []string) {
		if len(*dst) == 0 && len(v) > 0 {
			*dst = append([]string(nil), v...)
		}
	}
	out := have
	str(&out.RoleSummary, add.RoleSummary)
	str(&out.TailoredSummary, add.TailoredSummary)
	list(&out.TailoredCVBullets, add.TailoredCVBullets)
	list(&out.KeyRequirements, add.KeyRequirements)
	str(&out.MatchNotes, add.MatchNotes)
	str(&out.CompanyInsights, add.CompanyInsights)
	str(&out.CoverLetter, add.CoverLetter)
	list(&out.KeyTalkingPoints, add.KeyTalkingPoints)
	list(&out.StarStories, add.StarStories)
	str(&out.QuickPitch, add.QuickPitch)
	str(&out.InterviewFocus, add.InterviewFocus)
	list(&out.PrepQuestions, add.PrepQuestions)
	list(&out.PrepAnswers, add.PrepAnswers)
	list(&out.Scorecard, add.Scorecard)
	str(&out.ApplyTips, add.ApplyTips)
	return out
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const documentColumns = `id, role, company, location, link, source, posted, posted_raw, posted_date,
  fit_score, preference_match, why_fit, cv_gap, notes, applicant_count,
  applicant_count_numeric, applicant_count_prev, applicant_count_prev_date,
  alternate_links, enrichment, manual_link, application_status, dismiss_reason,
  created_at, updated_at, last_seen_at`

func getDocument(ctx context.Context, q querier, id string) (Document, bool, error) {
	var (
		doc              Document
		alts, enrichment string
		numeric, prev    sql.NullInt64
		manual           int
	)
	r := &doc.Record
	err := q.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?;`, id).Scan(
		&doc.ID, &r.Role, &r.Company, &r.Location, &r.Link, &r.Source, &r.Posted, &r.PostedRaw, &r.PostedDate,
		&r.FitScore, &r.PreferenceMatch, &r.WhyFit, &r.CVGap, &r.Notes, &r.ApplicantCount,
		&numeric, &prev, &doc.ApplicantCountPrevDate,
		&alts, &enrichment, &manual, &doc.ApplicationStatus, &doc.DismissReason,
		&doc.CreatedAt, &doc.UpdatedAt, &doc.LastSeenAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, fmt.Errorf("get document %s: %w", id, err)
	}

	if numeric.Valid {
		n := int(numeric.Int64)
		doc.ApplicantCountNumeric = &n
	}
	if prev.Valid {
		p := int(prev.Int64)
		doc.ApplicantCountPrev = &p
	}
	doc.ManualLink = manual != 0
	if err := json.Unmarshal([]byte(alts), &r.AlternateLinks); err != nil {
		return Document{}, false, fmt.Errorf("document %s alternate_links: %w", id, err)
	}
	if len(r.AlternateLinks) == 0 {
		r.AlternateLinks = nil
	}
	if err := json.Unmarshal([]byte(enrichment), &r.Enrichment); err != nil {
		return Document{}, false, fmt.Errorf("document %s enrichment: %w", id, err)
	}
	return doc, true, nil
}

func writeDocument(ctx context.Context, q querier, doc Document, exists bool) error {
	alts := doc.Record.AlternateLinks
	if alts == nil {
		alts = []domain.AlternateLink{}
	}
	altsJSON, err := json.Marshal(alts)
	if err != nil {
		return err
	}
	enrichJSON, err := json.Marshal(doc.Record.Enrichment)
	if err != nil {
		return err
	}

	nullable := func(p *int) any {
		if p == nil {
			return nil
		}
		return *p
	}
	manual := 0
	if doc.ManualLink {
		manual = 1
	}

	r := doc.Record
	args := []any{
		r.Role, r.Company, r.Location, r.Link, r.Source, r.Posted, r.PostedRaw, r.PostedDate,
		r.FitScore, r.PreferenceMatch, r.WhyFit, r.CVGap, r.Notes, r.ApplicantCount,
		nullable(doc.ApplicantCountNumeric), nullable(doc.ApplicantCountPrev), doc.ApplicantCountPrevDate,
		string(altsJSON), string(enrichJSON), manual, doc.ApplicationStatus, doc.DismissReason,
		doc.UpdatedAt, doc.LastSeenAt,
	}

	if exists {
		_, err = q.ExecContext(ctx, `
UPDATE documents SET
  role = ?, company = ?, location = ?, link = ?, source = ?, posted = ?, posted_raw = ?, posted_date = ?,
  fit_score = ?, preference_match = ?, why_fit = ?, cv_gap = ?, notes = ?, applicant_count = ?,
  applicant_count_numeric = ?, applicant_count_prev = ?, applicant_count_prev_date = ?,
  alternate_links = ?, enrichment = ?, manual_link = ?, application_status = ?, dismiss_reason = ?,
  updated_at = ?, last_seen_at = ?
WHERE id = ?;`, append(args, doc.ID)...)
	} else {
		_, err = q.ExecContext(ctx, `
INSERT INTO documents (`+documentColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
			append(append([]any{doc.ID}, args[:len(args)-2]...), doc.CreatedAt, doc.UpdatedAt, doc.LastSeenAt)...)
	}
	if err != nil {
		return fmt.Errorf("write document %s: %w", doc.ID, err)
	}
	return nil
}

func recordApplicantHistory(ctx context.Context, q querier, id string, count int, raw, now string) error {
	_, err := q.ExecContext(ctx, `
INSERT INTO applicant_history(document_id, date, count, raw_text, updated_at)
VALUES(?,?,?,?,?)
ON CONFLICT(document_id, date, count) DO UPDATE SET
  raw_text = excluded.raw_text,
  updated_at = excluded.updated_at;`,
		id, now[:len("2006-01-02")], count, raw, now)
	if err != nil {
		return fmt.Errorf("applicant history %s: %w", id, err)
	}
	return nil
}

// Get returns the stored document with id.
func (d *DB) Get(ctx context.Context, id string) (Document, bool, error) {
	return getDocument(ctx, d.Pool, id)
}

// SetStatus records a user decision on a document.
func (d *DB) SetStatus(ctx context.Context, id, status string, now time.Time) error {
	res, err := d.Pool.ExecContext(ctx,
		`UPDATE documents SET application_status = ?, updated_at = ? WHERE id = ?;`,
		status, isoNow(now), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s not found", id)
	}
	return nil
}

// CleanupStale dismisses saved documents created more than staleDays
// ago, except strong matches. It returns how many were changed.
func (d *DB) CleanupStale(ctx context.Context, staleDays int, now time.Time) (int64, error) {
	if staleDays <= 0 {
		return 0, nil
	}
	if now.IsZero() {
		now = time.Now()
	}
	cutoff := isoNow(now.AddDate(0, 0, -staleDays))
	res, err := d.Pool.ExecContext(ctx, `
UPDATE documents
SET application_status = ?, dismiss_reason = 'auto_stale', updated_at = ?
WHERE application_status = ? AND created_at < ? AND fit_score < ?;`,
		StatusDismissed, isoNow(now), StatusSaved, cutoff, staleKeepScore)
	if err != nil {
		return 0, fmt.Errorf("cleanup stale documents: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
