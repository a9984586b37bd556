package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"jobdigest-engine/internal/domain"
)

// WriteSourceStats stores how many records each source delivered on the
// day of now, replacing that day's row.
func (d *DB) WriteSourceStats(ctx context.Context, recs []domain.JobRecord, now time.Time) error {
	counts := map[string]int{}
	for _, r := range recs {
		counts[r.Source]++
	}
	b, err := json.Marshal(counts)
	if err != nil {
		return err
	}
	ts := isoNow(now)
	_, err = d.Pool.ExecContext(ctx, `
INSERT INTO source_stats(date, total, counts, updated_at)
VALUES(?,?,?,?)
ON CONFLICT(date) DO UPDATE SET
  total = excluded.total,
  counts = excluded.counts,
  updated_at = excluded.updated_at;`,
		ts[:len("2006-01-02")], len(recs), string(b), ts)
	if err != nil {
		return fmt.Errorf("write source stats: %w", err)
	}
	return nil
}

// SourceStats returns the per-source counts stored for day (YYYY-MM-DD).
func (d *DB) SourceStats(ctx context.Context, day string) (map[string]int, error) {
	var raw string
	if err := d.Pool.QueryRowContext(ctx, `SELECT counts FROM source_stats WHERE date = ?;`, day).Scan(&raw); err != nil {
		return nil, err
	}
	out := map[string]int{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// WriteNotifications queues a notification for every record scoring at
// least threshold. Notifications already seen are left alone. It returns
// how many were written.
func (d *DB) WriteNotifications(ctx context.Context, recs []domain.JobRecord, threshold int, now time.Time) (int, error) {
	if threshold <= 0 {
		return 0, nil
	}
	ts := isoNow(now)
	n := 0
	for _, r := range recs {
		if r.FitScore < threshold {
			continue
		}
		res, err := d.Pool.ExecContext(ctx, `
INSERT INTO notifications(document_id, role, company, fit_score, link, source, seen, created_at)
VALUES(?,?,?,?,?,?,0,?)
ON CONFLICT(document_id) DO UPDATE SET
  role = excluded.role,
  company = excluded.company,
  fit_score = excluded.fit_score,
  link = excluded.link,
  source = excluded.source
WHERE notifications.seen = 0;`,
			DocumentID(r), r.Role, r.Company, r.FitScore, r.Link, r.Source, ts)
		if err != nil {
			return n, fmt.Errorf("write notification: %w", err)
		}
		if c, _ := res.RowsAffected(); c > 0 {
			n++
		}
	}
	return n, nil
}

// MarkNotificationSeen flags the notification of a document as seen.
func (d *DB) MarkNotificationSeen(ctx context.Context, documentID string) error {
	_, err := d.Pool.ExecContext(ctx, `UPDATE notifications SET seen = 1 WHERE document_id = ?;`, documentID)
	return err
}

// StatusCounts counts stored documents per application status.
func (d *DB) StatusCounts(ctx context.Context) (map[string]int, error) {
	rows, err := d.Pool.QueryContext(ctx, `SELECT application_status, count(*) FROM documents GROUP BY application_status;`)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}
