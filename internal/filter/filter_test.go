package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"jobdigest-engine/internal/config"
)

func defaultRelevance() Relevance {
	cfg := config.Default()
	return NewRelevance(cfg.Filters, cfg.Vocabulary)
}

func TestRelevance_Title(t *testing.T) {
	r := defaultRelevance()

	tests := []struct {
		title  string
		keep   bool
		reason string
	}{
		{"Senior Product Manager, Onboarding", true, ""},
		{"Product Owner", true, ""},
		{"Platform Architect", true, ""},
		{"KYC Operations Analyst", true, ""},
		{"Growth Product Manager", false, ReasonExcludedTitle},
		{"Product Designer", false, ReasonNoRoleTerm},
		{"Software Engineer, Platform", false, ReasonNoRoleTerm},
		{"Sales Manager", false, ReasonNotProduct},
	}
	for _, tc := range tests {
		t.Run(tc.title, func(t *testing.T) {
			v := r.Title(tc.title)
			assert.Equal(t, tc.keep, v.Keep)
			assert.Equal(t, tc.reason, v.Reason)
		})
	}
}

func TestRelevance_Company(t *testing.T) {
	r := defaultRelevance()
	assert.False(t, r.Company("Ebury Partners").Keep)
	assert.True(t, r.Company("Monzo").Keep)
}

func TestRelevance_Location(t *testing.T) {
	r := defaultRelevance()

	tests := []struct {
		name     string
		location string
		desc     string
		keep     bool
		reason   string
	}{
		{"london", "London, UK", "", true, ""},
		{"berlin rejected", "Berlin, Germany", "", false, ReasonExcludedLocation},
		{"northern ireland overrides ireland", "Belfast, Northern Ireland", "", true, ""},
		{"dublin rejected", "Dublin, Ireland", "", false, ReasonExcludedLocation},
		{"remote uk", "Remote - United Kingdom", "", true, ""},
		{"remote alone", "Remote", "", false, ReasonRemoteOutside},
		{"hybrid alone", "Hybrid", "", false, ReasonRemoteOutside},
		{"region in description", "Remote", "You will work with our London team", true, ""},
		{"nothing", "Tokyo", "", false, ReasonNoAllowedRegion},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := r.Location(tc.location, tc.desc)
			assert.Equal(t, tc.keep, v.Keep)
			assert.Equal(t, tc.reason, v.Reason)
		})
	}
}

func TestRelevance_DomainTermDoesNotSaveExcludedCountry(t *testing.T) {
	r := defaultRelevance()
	assert.True(t, r.Title("Product Manager KYC").Keep)
	assert.False(t, r.Location("Berlin, Germany", "").Keep)
}

func TestRelevance_AlternateVocabulary(t *testing.T) {
	r := NewRelevance(config.Filters{
		RoleTitleRequirements: []string{"Engineer"},
		LocationsAllow:        []string{"Lisbon"},
	}, config.Vocabulary{DomainTerms: []string{"payments"}})

	assert.True(t, r.Title("Payments Engineer").Keep)
	assert.False(t, r.Title("Product Manager").Keep)
	assert.True(t, r.Location("Lisbon", "").Keep)
	assert.False(t, r.Location("London", "").Keep)
}

func TestRecency_Within(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		window int
		text   string
		date   string
		keep   bool
	}{
		{"today", 1, "Posted today", "", true},
		{"just now", 1, "just now", "", true},
		{"yesterday 24h", 24, "Yesterday", "", true},
		{"yesterday 12h", 12, "Yesterday", "", false},
		{"minutes always", 1, "45 minutes ago", "", true},
		{"3 days 24h", 24, "3 days ago", "", false},
		{"3 days 72h", 72, "3 days ago", "", true},
		{"hours inside", 24, "5 hours ago", "", true},
		{"hours outside", 4, "5 hours ago", "", false},
		{"weeks", 24 * 14, "2 weeks ago", "", true},
		{"reposted", 48, "Reposted 2 days ago", "", true},
		{"text wins over date", 24, "2 days ago", "2026-03-10T11:00:00Z", false},
		{"new falls back to date", 24, "new", "2026-03-10T11:00:00Z", true},
		{"new without date", 24, "new", "", false},
		{"new with stale date", 24, "new", "2026-03-01T11:00:00Z", false},
		{"iso inside", 24, "", "2026-03-10T00:00:00Z", true},
		{"iso outside", 24, "", "2026-03-08T00:00:00Z", false},
		{"rfc2822", 24, "", "Tue, 10 Mar 2026 09:00:00 +0000", true},
		{"unix millis", 24, "", "1773136800000", true},
		{"unparseable", 24, "", "sometime", false},
		{"nothing", 24, "", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := Recency{WindowHours: tc.window}.Within(tc.text, tc.date, now)
			assert.Equal(t, tc.keep, v.Keep, "reason=%q", v.Reason)
			if !tc.keep {
				assert.NotEmpty(t, v.Reason)
			}
		})
	}
}
