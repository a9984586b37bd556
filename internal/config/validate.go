package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err folds the errors into one value, nil when the config is usable.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return errors.New("config validation failed:\n- " + strings.Join(v.Errors, "\n- "))
}

// ParseRunTime parses "HH:MM" in 24h form.
func ParseRunTime(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("run time %q: want HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

// NormalizeAndValidate returns a copy with term lists lowercased, trimmed
// and de-duplicated, plus everything wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	terms := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.ToLower(strings.TrimSpace(x))
			if x == "" || seen[x] {
				continue
			}
			seen[x] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Filters.ExcludeTitleTerms = terms(out.Filters.ExcludeTitleTerms)
	out.Filters.RoleTitleRequirements = terms(out.Filters.RoleTitleRequirements)
	out.Filters.ExcludeCompanies = terms(out.Filters.ExcludeCompanies)
	out.Filters.LocationsAllow = terms(out.Filters.LocationsAllow)
	out.Filters.LocationsBlock = terms(out.Filters.LocationsBlock)

	v := &out.Vocabulary
	v.DomainTerms = terms(v.DomainTerms)
	v.ExtraTerms = terms(v.ExtraTerms)
	v.ProductPhrases = terms(v.ProductPhrases)
	v.ProcessTerms = terms(v.ProcessTerms)
	v.VendorCompanies = terms(v.VendorCompanies)
	v.FintechCompanies = terms(v.FintechCompanies)
	v.BankCompanies = terms(v.BankCompanies)
	v.TechCompanies = terms(v.TechCompanies)
	v.PreferenceRegionTerms = terms(v.PreferenceRegionTerms)
	v.PreferenceDomainTerms = terms(v.PreferenceDomainTerms)
	for i := range v.ReasonHints {
		v.ReasonHints[i].Term = strings.ToLower(strings.TrimSpace(v.ReasonHints[i].Term))
	}
	for i := range v.GapHints {
		v.GapHints[i].Term = strings.ToLower(strings.TrimSpace(v.GapHints[i].Term))
	}

	out.Sources.Alerts.SubjectAny = terms(out.Sources.Alerts.SubjectAny)

	// ---- Validation rules ----

	if out.Filters.WindowHours <= 0 {
		res.addErr("filters.window_hours must be > 0")
	}
	if out.Filters.SummaryMaxChars <= 0 {
		res.addErr("filters.summary_max_chars must be > 0")
	}
	if len(out.Filters.RoleTitleRequirements) == 0 {
		res.addWarn("filters.role_title_requirements is empty; every title will be rejected.")
	}
	if len(out.Filters.LocationsAllow) == 0 {
		res.addWarn("filters.locations_allow is empty; every location will be rejected.")
	}

	if out.Scoring.MinScore < 0 || out.Scoring.MinScore > 100 {
		res.addErr("scoring.min_score must be 0..100")
	} else if out.Scoring.MinScore > 90 {
		res.addWarn("scoring.min_score is %d but heuristic scores never exceed 90.", out.Scoring.MinScore)
	}
	if out.Scoring.MaxEmailRoles <= 0 {
		res.addErr("scoring.max_email_roles must be > 0")
	}

	if out.Delivery.RetentionDays <= 0 {
		res.addErr("delivery.retention_days must be > 0")
	}

	if out.Schedule.ToleranceMinutes < 0 {
		res.addErr("schedule.tolerance_minutes must be >= 0")
	}
	for _, rt := range out.Schedule.RunTimes {
		if _, _, err := ParseRunTime(rt); err != nil {
			res.addErr("schedule.run_times: %v", err)
		}
	}
	if _, err := out.Schedule.Location(); err != nil {
		res.addErr("schedule.timezone %q: %v", out.Schedule.Timezone, err)
	}

	if out.Email.Enabled {
		if strings.TrimSpace(out.Email.SMTPHost) == "" {
			res.addErr("email.smtp_host is required when email.enabled=true")
		}
		if out.Email.SMTPPort == 0 {
			res.addErr("email.smtp_port is required when email.enabled=true")
		}
		if len(out.Email.To) == 0 {
			res.addErr("email.to needs at least one recipient when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.Username) == "" {
			res.addWarn("email.username is empty; SMTP will be attempted without auth.")
		}
	}

	// password is not required here; it lives in the keychain
	if out.Sources.Alerts.Enabled {
		if strings.TrimSpace(out.Sources.Alerts.IMAPHost) == "" {
			res.addErr("sources.alerts.imap_host is required when sources.alerts.enabled=true")
		}
		if strings.TrimSpace(out.Sources.Alerts.Username) == "" {
			res.addErr("sources.alerts.username is required when sources.alerts.enabled=true")
		}
		if len(out.Sources.Alerts.SubjectAny) == 0 {
			res.addWarn("sources.alerts.subject_any is empty; alert scraping may find nothing.")
		}
	}
	if out.Sources.RequestsPerSec <= 0 {
		res.addErr("sources.requests_per_sec must be > 0")
	}
	if out.Sources.BatchSize < 0 {
		res.addErr("sources.batch_size must be >= 0")
	}

	if out.Store.Enabled && strings.TrimSpace(out.Store.Path) == "" {
		res.addErr("store.path is required when store.enabled=true")
	}
	if out.Enrich.Enabled && out.Enrich.MaxJobs <= 0 {
		res.addWarn("enrich.max_jobs is %d; no record will be enriched.", out.Enrich.MaxJobs)
	}

	blockSet := map[string]bool{}
	for _, b := range out.Filters.LocationsBlock {
		blockSet[b] = true
	}
	for _, a := range out.Filters.LocationsAllow {
		if blockSet[a] {
			res.addWarn("location appears in both allow and block: %q", a)
		}
	}

	return out, res
}
