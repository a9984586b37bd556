// Package enrich asks a language model to rescore records and fill
// their application-prep fields.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobdigest-engine/internal/domain"
	"jobdigest-engine/internal/logger"
	"jobdigest-engine/internal/rank"
)

// Generator turns a prompt into text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Options struct {
	MaxJobs     int
	Timeout     time.Duration
	Profile     string
	Preferences string
}

type Enricher struct {
	gen  Generator
	opts Options
	log  *zap.Logger
}

func New(gen Generator, opts Options, log *zap.Logger) *Enricher {
	return &Enricher{gen: gen, opts: opts, log: logger.OrNop(log)}
}

// Apply enriches the first MaxJobs records in place and returns how many
// were updated. A failed call leaves its record unchanged.
func (e *Enricher) Apply(ctx context.Context, recs []domain.JobRecord) int {
	n := min(e.opts.MaxJobs, len(recs))
	done := 0
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		p, err := e.call(ctx, recs[i])
		if err != nil {
			e.log.Warn("enrichment failed",
				zap.String("role", recs[i].Role),
				zap.String("company", recs[i].Company),
				zap.Error(err))
			continue
		}
		recs[i] = p.applyTo(recs[i])
		done++
	}
	return done
}

func (e *Enricher) call(ctx context.Context, rec domain.JobRecord) (payload, error) {
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}
	text, err := e.gen.Generate(ctx, Prompt(rec, e.opts.Profile, e.opts.Preferences))
	if err != nil {
		return payload{}, err
	}
	p, ok := parsePayload(text)
	if !ok {
		return payload{}, fmt.Errorf("no json object in response %q", logger.Truncate(text, 120))
	}
	return p, nil
}

// Prompt builds the enrichment request for one record.
func Prompt(rec domain.JobRecord, profile, preferences string) string {
	var b strings.Builder
	b.WriteString("You are a senior UK fintech product recruiter and ATS optimisation specialist. ")
	b.WriteString("Given the candidate profile and job summary, score fit 0-100 and produce ATS-ready outputs. ")
	b.WriteString("Return JSON ONLY with keys: fit_score (int), why_fit (string), cv_gap (string), ")
	b.WriteString("prep_questions (array of 8-12 strings), prep_answers (array of answer outlines matching prep_questions), ")
	b.WriteString("scorecard (array of 5-7 criteria), apply_tips (string), role_summary (string), ")
	b.WriteString("tailored_summary (string), tailored_cv_bullets (array of 4-6 strings), key_requirements (array of strings), ")
	b.WriteString("match_notes (string), company_insights (string), cover_letter (string), ")
	b.WriteString("key_talking_points (array of strings), star_stories (array of strings), quick_pitch (string), interview_focus (string).\n\n")
	b.WriteString("Plain text only: no tables, no icons, bullets start with '- '. ")
	b.WriteString("role_summary must use only the job text; write '- Not available in posting' when something is not stated.\n\n")
	fmt.Fprintf(&b, "Candidate profile: %s\n", profile)
	fmt.Fprintf(&b, "Preferences: %s\n\n", preferences)
	b.WriteString("Job:\n")
	fmt.Fprintf(&b, "Title: %s\n", rec.Role)
	fmt.Fprintf(&b, "Company: %s\n", rec.Company)
	fmt.Fprintf(&b, "Location: %s\n", rec.Location)
	fmt.Fprintf(&b, "Posted: %s\n", rec.Posted)
	fmt.Fprintf(&b, "Summary: %s\n", rec.Notes)
	return b.String()
}

var reObject = regexp.MustCompile(`(?s)\{.*\}`)

// payload is the decoded model answer. Fields the model left out stay
// zero.
type payload struct {
	FitScore *int
	WhyFit   string
	CVGap    string
	E        domain.Enrichment
}

func parsePayload(text string) (payload, bool) {
	m := reObject.FindString(text)
	if m == "" {
		return payload{}, false
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(m), &raw); err != nil {
		return payload{}, false
	}

	var p payload
	if v, ok := raw["fit_score"]; ok {
		if n, ok := asScore(v); ok {
			p.FitScore = &n
		}
	}
	p.WhyFit = asString(raw["why_fit"])
	p.CVGap = asString(raw["cv_gap"])

	e := &p.E
	e.RoleSummary = asString(raw["role_summary"])
	e.TailoredSummary = asString(raw["tailored_summary"])
	e.TailoredCVBullets = asList(raw["tailored_cv_bullets"])
	e.KeyRequirements = asList(raw["key_requirements"])
	e.MatchNotes = asString(raw["match_notes"])
	e.CompanyInsights = asString(raw["company_insights"])
	e.CoverLetter = asString(raw["cover_letter"])
	e.KeyTalkingPoints = asList(raw["key_talking_points"])
	e.StarStories = asList(raw["star_stories"])
	e.QuickPitch = asString(raw["quick_pitch"])
	e.InterviewFocus = asString(raw["interview_focus"])
	e.PrepQuestions = asList(raw["prep_questions"])
	e.PrepAnswers = asList(raw["prep_answers"])
	e.Scorecard = asList(raw["scorecard"])
	e.ApplyTips = asString(raw["apply_tips"])
	return p, true
}

// asScore reads a number or numeric string bounded to 0..100. Floats are
// bounded before the int conversion.
func asScore(v json.RawMessage) (int, bool) {
	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return int(max(0, min(100, f))), true
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return rank.Clamp(n), true
		}
	}
	return 0, false
}

func asString(v json.RawMessage) string {
	var s string
	if len(v) == 0 || json.Unmarshal(v, &s) != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// asList accepts an array of strings or a single string.
func asList(v json.RawMessage) []string {
	if len(v) == 0 {
		return nil
	}
	var items []any
	if err := json.Unmarshal(v, &items); err != nil {
		if s := asString(v); s != "" {
			return []string{s}
		}
		return nil
	}
	var out []string
	for _, it := range items {
		s := strings.TrimSpace(fmt.Sprint(it))
		if it == nil || s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// applyTo overwrites the fit score and explanations the model supplied
// and fills enrichment fields that are still empty.
func (p payload) applyTo(rec domain.JobRecord) domain.JobRecord {
	out := rec.Clone()
	if p.FitScore != nil {
		out.FitScore = rank.Clamp(*p.FitScore)
	}
	if p.WhyFit != "" {
		out.WhyFit = p.WhyFit
	}
	if p.CVGap != "" {
		out.CVGap = p.CVGap
	}

	e, add := &out.Enrichment, p.E
	fillString(&e.RoleSummary, add.RoleSummary)
	fillString(&e.TailoredSummary, add.TailoredSummary)
	fillList(&e.TailoredCVBullets, add.TailoredCVBullets)
	fillList(&e.KeyRequirements, add.KeyRequirements)
	fillString(&e.MatchNotes, add.MatchNotes)
	fillString(&e.CompanyInsights, add.CompanyInsights)
	fillString(&e.CoverLetter, add.CoverLetter)
	fillList(&e.KeyTalkingPoints, add.KeyTalkingPoints)
	fillList(&e.StarStories, add.StarStories)
	fillString(&e.QuickPitch, add.QuickPitch)
	fillString(&e.InterviewFocus, add.InterviewFocus)
	fillList(&e.PrepQuestions, add.PrepQuestions)
	fillList(&e.PrepAnswers, add.PrepAnswers)
	fillList(&e.Scorecard, add.Scorecard)
	fillString(&e.ApplyTips, add.ApplyTips)
	return out
}

func fillString(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

func fillList(dst *[]string, v []string) {
	if len(*dst) == 0 && len(v) > 0 {
		*dst = v
	}
}
