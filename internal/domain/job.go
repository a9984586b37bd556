package domain

// AlternateLink is another place the same posting was seen.
type AlternateLink struct {
	Source string `json:"source"`
	Link   string `json:"link"`
}

// JobRecord is the canonical form every raw posting is normalized into.
// Role, Company and Link are identity fields: once reconciliation has
// produced a record, later stages only annotate the derived fields.
type JobRecord struct {
	Role     string `json:"role"`
	Company  string `json:"company"`
	Location string `json:"location"`
	Link     string `json:"link"`
	Source   string `json:"source"`

	PostedRaw  string `json:"posted_raw"`
	Posted     string `json:"posted"`
	PostedDate string `json:"posted_date"`

	FitScore        int    `json:"fit_score"`
	PreferenceMatch string `json:"preference_match"`
	WhyFit          string `json:"why_fit"`
	CVGap           string `json:"cv_gap"`
	Notes           string `json:"notes"`
	ApplicantCount  string `json:"applicant_count"`

	AlternateLinks []AlternateLink `json:"alternate_links"`

	Enrichment Enrichment `json:"enrichment"`
}

// Enrichment holds fields filled by an external enricher. The core
// pipeline carries them through and never overwrites a set value.
type Enrichment struct {
	RoleSummary       string   `json:"role_summary,omitempty"`
	TailoredSummary   string   `json:"tailored_summary,omitempty"`
	TailoredCVBullets []string `json:"tailored_cv_bullets,omitempty"`
	KeyRequirements   []string `json:"key_requirements,omitempty"`
	MatchNotes        string   `json:"match_notes,omitempty"`
	CompanyInsights   string   `json:"company_insights,omitempty"`
	CoverLetter       string   `json:"cover_letter,omitempty"`
	KeyTalkingPoints  []string `json:"key_talking_points,omitempty"`
	StarStories       []string `json:"star_stories,omitempty"`
	QuickPitch        string   `json:"quick_pitch,omitempty"`
	InterviewFocus    string   `json:"interview_focus,omitempty"`
	PrepQuestions     []string `json:"prep_questions,omitempty"`
	PrepAnswers       []string `json:"prep_answers,omitempty"`
	Scorecard         []string `json:"scorecard,omitempty"`
	ApplyTips         string   `json:"apply_tips,omitempty"`
}

// Links returns the record's link followed by its alternate links,
// skipping empty values.
func (r JobRecord) Links() []string {
	out := make([]string, 0, 1+len(r.AlternateLinks))
	if r.Link != "" {
		out = append(out, r.Link)
	}
	for _, alt := range r.AlternateLinks {
		if alt.Link != "" {
			out = append(out, alt.Link)
		}
	}
	return out
}

// Clone returns a deep copy so callers can annotate without aliasing
// the slices of the original.
func (r JobRecord) Clone() JobRecord {
	out := r
	if r.AlternateLinks != nil {
		out.AlternateLinks = append([]AlternateLink(nil), r.AlternateLinks...)
	}
	e := &out.Enrichment
	e.TailoredCVBullets = cloneStrings(e.TailoredCVBullets)
	e.KeyRequirements = cloneStrings(e.KeyRequirements)
	e.KeyTalkingPoints = cloneStrings(e.KeyTalkingPoints)
	e.StarStories = cloneStrings(e.StarStories)
	e.PrepQuestions = cloneStrings(e.PrepQuestions)
	e.PrepAnswers = cloneStrings(e.PrepAnswers)
	e.Scorecard = cloneStrings(e.Scorecard)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
