package rank

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobdigest-engine/internal/config"
	"jobdigest-engine/internal/domain"
)

func scorer() FitScorer { return NewFitScorer(config.DefaultVocabulary()) }

func TestScoreText_Weights(t *testing.T) {
	s := NewFitScorer(config.Vocabulary{
		DomainTerms:      []string{"kyc", "aml", "fraud"},
		ExtraTerms:       []string{"workflow"},
		ProductPhrases:   []string{"product manager"},
		ProcessTerms:     []string{"process"},
		VendorCompanies:  []string{"acme"},
		FintechCompanies: []string{"acme pay"},
	})

	tests := []struct {
		name    string
		text    string
		company string
		want    int
	}{
		{"base only", "nothing relevant", "nobody", 60},
		{"one domain term", "aml", "nobody", 64},
		{"product word", "product", "nobody", 65},
		{"product phrase", "product manager", "nobody", 68},
		{"process", "process", "nobody", 62},
		{"extra", "workflow", "nobody", 62},
		{"kyc adds focus bonus", "kyc", "nobody", 67},
		{"api bonus", "api", "nobody", 63},
		{"vendor", "x", "Acme", 72},
		{"vendor and fintech stack", "x", "Acme Pay", 80},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := s.ScoreText(tc.text, tc.company)
			assert.Equal(t, tc.want, res.Score)
		})
	}
}

func TestScoreText_CapsAt90(t *testing.T) {
	s := scorer()
	text := "Senior Product Manager KYC AML onboarding screening sanctions fraud API platform data workflow process"
	res := s.ScoreText(text, "ComplyAdvantage")
	assert.Equal(t, MaxHeuristicScore, res.Score)
	assert.Contains(t, res.DomainHits, "kyc")
	assert.Contains(t, res.ExtraHits, "api")
}

func TestScore_Bounds(t *testing.T) {
	s := scorer()
	inputs := []domain.JobRecord{
		{},
		{Role: "x"},
		{Role: strings.Repeat("kyc aml fraud api product ", 50), Company: "Revolut Barclays Google Fenergo"},
		{Role: "Product Manager", Company: "Monzo", Notes: "Onboarding platform"},
	}
	for _, in := range inputs {
		got := s.Score(in).Score
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, MaxHeuristicScore)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-5))
	assert.Equal(t, 100, Clamp(140))
	assert.Equal(t, 77, Clamp(77))
}

func TestWhyFit(t *testing.T) {
	s := scorer()

	got := s.WhyFit("onboarding kyc aml fraud")
	parts := strings.Split(got, ". ")
	require.Len(t, parts, 3, "at most three reasons: %q", got)
	assert.True(t, strings.HasPrefix(got, "Onboarding workflow ownership"))

	assert.Equal(t, s.Vocab.DefaultReason, s.WhyFit("nothing here"))
}

func TestCVGap(t *testing.T) {
	s := scorer()
	got := s.CVGap("lending credit mobile")
	assert.Equal(t,
		"Highlight any lending or credit lifecycle exposure. Highlight any credit decisioning or lending exposure.",
		got)
	assert.Equal(t, s.Vocab.DefaultGap, s.CVGap(""))
}

func TestPreferenceMatch(t *testing.T) {
	s := scorer()
	got := s.PreferenceMatch("product manager kyc api", "Monzo", "London")
	assert.Equal(t, "London/Remote UK · Product role · KYC/AML/Onboarding · Fintech/Payments · Platform/API", got)
	assert.Equal(t, DefaultPreference, s.PreferenceMatch("chef", "Cafe", "Paris"))
}

func TestAnnotate_DoesNotTouchIdentity(t *testing.T) {
	s := scorer()
	in := domain.JobRecord{
		Role:           "Product Manager, Onboarding",
		Company:        "Monzo",
		Location:       "London",
		Link:           "https://x.io/1",
		AlternateLinks: []domain.AlternateLink{{Source: "RSS", Link: "https://y.io/1"}},
	}
	out := s.Annotate(in)

	assert.Equal(t, in.Role, out.Role)
	assert.Equal(t, in.Company, out.Company)
	assert.Equal(t, in.Link, out.Link)
	assert.NotZero(t, out.FitScore)
	assert.NotEmpty(t, out.WhyFit)
	assert.NotEmpty(t, out.CVGap)
	assert.NotEmpty(t, out.PreferenceMatch)

	out.AlternateLinks[0].Link = "changed"
	assert.Equal(t, "https://y.io/1", in.AlternateLinks[0].Link)
}
