// Package export writes the ranked records as a CSV digest.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"jobdigest-engine/internal/domain"
)

// Columns is the fixed header of every digest file.
var Columns = []string{
	"Role", "Company", "Location", "Link", "Posted", "Source", "Fit_Score_%",
	"Preference_Match", "Why_Fit", "CV_Gap", "Role_Summary", "Tailored_Summary",
	"Tailored_CV_Bullets", "Key_Requirements", "Match_Notes", "Company_Insights",
	"Cover_Letter", "Key_Talking_Points", "STAR_Stories", "Quick_Pitch",
	"Interview_Focus", "Prep_Questions", "Prep_Answers", "Scorecard", "Apply_Tips", "Notes",
}

// ListSep joins list fields inside one cell.
const ListSep = " | "

// FileName is digest_YYYY-MM-DD.csv for the local date of day.
func FileName(day time.Time) string {
	return "digest_" + day.Format("2006-01-02") + ".csv"
}

// Row renders one record in Columns order.
func Row(r domain.JobRecord) []string {
	e := r.Enrichment
	join := func(xs []string) string { return strings.Join(xs, ListSep) }
	return []string{
		r.Role, r.Company, r.Location, r.Link, r.Posted, r.Source, strconv.Itoa(r.FitScore),
		r.PreferenceMatch, r.WhyFit, r.CVGap, e.RoleSummary, e.TailoredSummary,
		join(e.TailoredCVBullets), join(e.KeyRequirements), e.MatchNotes, e.CompanyInsights,
		e.CoverLetter, join(e.KeyTalkingPoints), join(e.StarStories), e.QuickPitch,
		e.InterviewFocus, join(e.PrepQuestions), join(e.PrepAnswers), join(e.Scorecard), e.ApplyTips, r.Notes,
	}
}

// Write renders the header and one row per record. The header is
// written even when recs is empty.
func Write(w io.Writer, recs []domain.JobRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range recs {
		if err := cw.Write(Row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the digest for day into dir via a temp file and
// returns its path.
func WriteFile(dir string, day time.Time, recs []domain.JobRecord) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create digest dir: %w", err)
	}
	path := filepath.Join(dir, FileName(day))

	f, err := os.CreateTemp(dir, ".digest-*.csv")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if err := Write(f, recs); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write digest: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("write digest: %w", err)
	}
	return path, nil
}
