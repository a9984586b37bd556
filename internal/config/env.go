package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every override, e.g. JOB_DIGEST_WINDOW_HOURS.
const EnvPrefix = "JOB_DIGEST"

// Overrides are the environment knobs, named by splitting the field
// name (WindowHours -> JOB_DIGEST_WINDOW_HOURS). Unset variables leave
// the file value alone, so every scalar is a pointer.
type Overrides struct {
	WindowHours      *int     `split_words:"true"`
	MinScore         *int     `split_words:"true"`
	SeenCacheDays    *int     `split_words:"true"`
	RunWindowMinutes *int     `split_words:"true"`
	RunAts           []string `split_words:"true"`
	TZ               *string  `split_words:"true"`
	ForceRun         *bool    `split_words:"true"`
	SummaryMaxChars  *int     `split_words:"true"`
	MaxEmailRoles    *int     `split_words:"true"`
	DigestDir        *string  `split_words:"true"`

	EmailEnabled *bool    `split_words:"true"`
	SMTPHost     *string  `split_words:"true"`
	SMTPPort     *int     `split_words:"true"`
	SMTPUser     *string  `split_words:"true"`
	EmailFrom    *string  `split_words:"true"`
	EmailTo      []string `split_words:"true"`

	EnrichEnabled *bool   `split_words:"true"`
	GeminiModel   *string `split_words:"true"`
	GeminiMaxJobs *int    `split_words:"true"`
	ProfileText   *string `split_words:"true"`
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overwriting variables that are already set.
// Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv returns a copy of cfg with environment overrides applied.
func ApplyEnv(cfg Config) (Config, error) {
	var o Overrides
	if err := envconfig.Process(EnvPrefix, &o); err != nil {
		return cfg, fmt.Errorf("process %s_* environment: %w", EnvPrefix, err)
	}
	return o.Apply(cfg), nil
}

// Apply copies every set override onto cfg.
func (o Overrides) Apply(cfg Config) Config {
	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setBool := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}

	setInt(&cfg.Filters.WindowHours, o.WindowHours)
	setInt(&cfg.Scoring.MinScore, o.MinScore)
	setInt(&cfg.Delivery.RetentionDays, o.SeenCacheDays)
	setInt(&cfg.Schedule.ToleranceMinutes, o.RunWindowMinutes)
	setStr(&cfg.Schedule.Timezone, o.TZ)
	setBool(&cfg.Schedule.Force, o.ForceRun)
	setInt(&cfg.Filters.SummaryMaxChars, o.SummaryMaxChars)
	setInt(&cfg.Scoring.MaxEmailRoles, o.MaxEmailRoles)
	setStr(&cfg.App.DigestDir, o.DigestDir)
	if len(o.RunAts) > 0 {
		cfg.Schedule.RunTimes = append([]string(nil), o.RunAts...)
	}

	setBool(&cfg.Email.Enabled, o.EmailEnabled)
	setStr(&cfg.Email.SMTPHost, o.SMTPHost)
	setInt(&cfg.Email.SMTPPort, o.SMTPPort)
	setStr(&cfg.Email.Username, o.SMTPUser)
	setStr(&cfg.Email.From, o.EmailFrom)
	if len(o.EmailTo) > 0 {
		cfg.Email.To = append([]string(nil), o.EmailTo...)
	}

	setBool(&cfg.Enrich.Enabled, o.EnrichEnabled)
	setStr(&cfg.Enrich.Model, o.GeminiModel)
	setInt(&cfg.Enrich.MaxJobs, o.GeminiMaxJobs)
	setStr(&cfg.Enrich.Profile, o.ProfileText)

	return cfg
}
