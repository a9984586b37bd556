package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"jobdigest-engine/internal/domain"
)

type fakeGen struct {
	replies []string
	errs    []error
	prompts []string
}

func (f *fakeGen) Generate(ctx context.Context, prompt string) (string, error) {
	i := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return "", errors.New("no reply queued")
}

func records() []domain.JobRecord {
	return []domain.JobRecord{
		{Role: "PM", Company: "Acme", FitScore: 72, WhyFit: "heuristic", Notes: "KYC platform"},
		{Role: "PO", Company: "Beta", FitScore: 75, WhyFit: "heuristic"},
		{Role: "Lead", Company: "Gamma", FitScore: 80},
	}
}

func TestParsePayload(t *testing.T) {
	p, ok := parsePayload("Sure!\n```json\n{\"fit_score\": \"91\", \"why_fit\": \" KYC depth \", " +
		"\"prep_questions\": \"Why us?\", \"scorecard\": [\"Ownership\", \"\", null, \"Data\"]}\n```")
	require.True(t, ok)
	require.NotNil(t, p.FitScore)
	assert.Equal(t, 91, *p.FitScore)
	assert.Equal(t, "KYC depth", p.WhyFit)
	assert.Equal(t, []string{"Why us?"}, p.E.PrepQuestions)
	assert.Equal(t, []string{"Ownership", "Data"}, p.E.Scorecard)

	_, ok = parsePayload("no json here")
	assert.False(t, ok)
	_, ok = parsePayload("{broken")
	assert.False(t, ok)

	p, ok = parsePayload(`{"fit_score": "high"}`)
	require.True(t, ok)
	assert.Nil(t, p.FitScore)
}

func TestParsePayload_ScoreBounds(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{`{"fit_score": 1e300}`, 100},
		{`{"fit_score": -1e300}`, 0},
		{`{"fit_score": 87.9}`, 87},
		{`{"fit_score": "250"}`, 100},
		{`{"fit_score": "-5"}`, 0},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			p, ok := parsePayload(tc.raw)
			require.True(t, ok)
			require.NotNil(t, p.FitScore)
			assert.Equal(t, tc.want, *p.FitScore)
		})
	}
}

func TestApply(t *testing.T) {
	gen := &fakeGen{
		replies: []string{
			`{"fit_score": 140, "why_fit": "Direct KYC match", "role_summary": "Owns onboarding", "apply_tips": "Lead with AML"}`,
		},
		errs: []error{nil, errors.New("quota exceeded")},
	}
	recs := records()
	recs[0].Enrichment.RoleSummary = "kept"

	core, logs := observer.New(zapcore.WarnLevel)
	e := New(gen, Options{MaxJobs: 2, Timeout: time.Second, Profile: "10y fintech PM", Preferences: "London"}, zap.New(core))

	n := e.Apply(context.Background(), recs)
	assert.Equal(t, 1, n)
	assert.Len(t, gen.prompts, 2, "only MaxJobs records are sent")

	assert.Equal(t, 100, recs[0].FitScore, "score is overwritten and clamped")
	assert.Equal(t, "Direct KYC match", recs[0].WhyFit)
	assert.Equal(t, "kept", recs[0].Enrichment.RoleSummary, "set enrichment fields are not overwritten")
	assert.Equal(t, "Lead with AML", recs[0].Enrichment.ApplyTips)

	assert.Equal(t, 75, recs[1].FitScore, "failed calls leave the record unchanged")
	assert.Equal(t, "heuristic", recs[1].WhyFit)
	assert.Equal(t, 80, recs[2].FitScore)

	require.Equal(t, 1, logs.FilterMessage("enrichment failed").Len())
	assert.Equal(t, "PO", logs.All()[0].ContextMap()["role"])
}

func TestApply_MissingFitScoreKeepsHeuristic(t *testing.T) {
	gen := &fakeGen{replies: []string{`{"cv_gap": "No payments exposure"}`}}
	recs := records()[:1]
	New(gen, Options{MaxJobs: 5}, nil).Apply(context.Background(), recs)
	assert.Equal(t, 72, recs[0].FitScore)
	assert.Equal(t, "No payments exposure", recs[0].CVGap)
}

func TestApply_CancelledContext(t *testing.T) {
	gen := &fakeGen{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Zero(t, New(gen, Options{MaxJobs: 3}, nil).Apply(ctx, records()))
	assert.Empty(t, gen.prompts)
}

func TestPrompt(t *testing.T) {
	p := Prompt(records()[0], "10y fintech PM", "London")
	assert.Contains(t, p, "Candidate profile: 10y fintech PM")
	assert.Contains(t, p, "Title: PM\n")
	assert.Contains(t, p, "Summary: KYC platform\n")
	assert.Contains(t, p, "fit_score (int)")
}
