// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Hint is one entry of an ordered template table: when Term occurs in
// the text, Text is emitted.
type Hint struct {
	Term string `yaml:"term"`
	Text string `yaml:"text"`
}

type Config struct {
	App        App        `yaml:"app"`
	Schedule   Schedule   `yaml:"schedule"`
	Filters    Filters    `yaml:"filters"`
	Scoring    Scoring    `yaml:"scoring"`
	Vocabulary Vocabulary `yaml:"vocabulary"`
	Delivery   Delivery   `yaml:"delivery"`
	Sources    Sources    `yaml:"sources"`
	Email      Email      `yaml:"email"`
	Store      Store      `yaml:"store"`
	Enrich     Enrich     `yaml:"enrich"`
}

type App struct {
	DataDir   string `yaml:"data_dir"`
	DigestDir string `yaml:"digest_dir"`
}

type Schedule struct {
	RunTimes         []string `yaml:"run_times"` // HH:MM, local to Timezone
	ToleranceMinutes int      `yaml:"tolerance_minutes"`
	Timezone         string   `yaml:"timezone"`
	Force            bool     `yaml:"force"`
	StateFile        string   `yaml:"state_file"`
}

type Filters struct {
	WindowHours           int      `yaml:"window_hours"`
	SummaryMaxChars       int      `yaml:"summary_max_chars"`
	ExcludeTitleTerms     []string `yaml:"exclude_title_terms"`
	RoleTitleRequirements []string `yaml:"role_title_requirements"`
	ExcludeCompanies      []string `yaml:"exclude_companies"`
	LocationsAllow        []string `yaml:"locations_allow"`
	LocationsBlock        []string `yaml:"locations_block"`
}

type Scoring struct {
	MinScore              int `yaml:"min_score"`
	NotificationThreshold int `yaml:"notification_threshold"`
	AutoDismissBelow      int `yaml:"auto_dismiss_below"`
	MaxEmailRoles         int `yaml:"max_email_roles"`
}

// Vocabulary holds every term list the scorer and explanation builders
// read. Hint tables are evaluated in order.
type Vocabulary struct {
	DomainTerms      []string `yaml:"domain_terms"`
	ExtraTerms       []string `yaml:"extra_terms"`
	ProductPhrases   []string `yaml:"product_phrases"`
	ProcessTerms     []string `yaml:"process_terms"`
	VendorCompanies  []string `yaml:"vendor_companies"`
	FintechCompanies []string `yaml:"fintech_companies"`
	BankCompanies    []string `yaml:"bank_companies"`
	TechCompanies    []string `yaml:"tech_companies"`

	ReasonHints   []Hint `yaml:"reason_hints"`
	DefaultReason string `yaml:"default_reason"`
	GapHints      []Hint `yaml:"gap_hints"`
	DefaultGap    string `yaml:"default_gap"`

	PreferenceRegionTerms []string `yaml:"preference_region_terms"`
	PreferenceDomainTerms []string `yaml:"preference_domain_terms"`
}

type Delivery struct {
	StateFile     string `yaml:"state_file"`
	RetentionDays int    `yaml:"retention_days"`
}

type Boards struct {
	Enabled bool     `yaml:"enabled"`
	Boards  []string `yaml:"boards"`
}

type Feed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type Alerts struct {
	Enabled     bool     `yaml:"enabled"`
	IMAPHost    string   `yaml:"imap_host"`
	IMAPPort    int      `yaml:"imap_port"`
	Username    string   `yaml:"username"`
	Mailbox     string   `yaml:"mailbox"`
	SubjectAny  []string `yaml:"subject_any"`
	MaxMessages int      `yaml:"max_messages"`
}

type Sources struct {
	Greenhouse      Boards  `yaml:"greenhouse"`
	Lever           Boards  `yaml:"lever"`
	Ashby           Boards  `yaml:"ashby"`
	SmartRecruiters Boards  `yaml:"smartrecruiters"`
	Workday         Boards  `yaml:"workday"` // career site URLs
	Feeds           []Feed  `yaml:"feeds"`
	Alerts          Alerts  `yaml:"alerts"`
	BatchSize       int     `yaml:"batch_size"` // 0 = all boards every run
	RequestsPerSec  float64 `yaml:"requests_per_sec"`
	Burst           int     `yaml:"burst"`
	TimeoutSeconds  int     `yaml:"timeout_seconds"`
}

type Email struct {
	Enabled     bool     `yaml:"enabled"`
	SMTPHost    string   `yaml:"smtp_host"`
	SMTPPort    int      `yaml:"smtp_port"`
	Username    string   `yaml:"username"`
	From        string   `yaml:"from"`
	To          []string `yaml:"to"`
	Preferences string   `yaml:"preferences"`
}

type Store struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	StaleDays int    `yaml:"stale_days"`
}

type Enrich struct {
	Enabled        bool   `yaml:"enabled"`
	Model          string `yaml:"model"`
	MaxJobs        int    `yaml:"max_jobs"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Profile        string `yaml:"profile"`
}

// Default returns a complete configuration. Load overlays a YAML file on
// top of it, so a user file only has to name what it changes.
func Default() Config {
	var cfg Config

	cfg.App.DataDir = "."
	cfg.App.DigestDir = "digests"

	cfg.Schedule.ToleranceMinutes = 20
	cfg.Schedule.Timezone = "Europe/London"
	cfg.Schedule.StateFile = "run_state.json"

	cfg.Filters.WindowHours = 24
	cfg.Filters.SummaryMaxChars = 1600
	cfg.Filters.ExcludeTitleTerms = []string{"growth"}
	cfg.Filters.RoleTitleRequirements = append([]string(nil), roleTitleRequirements...)
	cfg.Filters.ExcludeCompanies = []string{"ebury"}
	cfg.Filters.LocationsAllow = append([]string(nil), ukLocationTerms...)
	cfg.Filters.LocationsBlock = append([]string(nil), excludeLocationTerms...)

	cfg.Scoring.MinScore = 70
	cfg.Scoring.NotificationThreshold = 80
	cfg.Scoring.MaxEmailRoles = 12

	cfg.Vocabulary = DefaultVocabulary()

	cfg.Delivery.StateFile = "sent_links.json"
	cfg.Delivery.RetentionDays = 14

	cfg.Sources.RequestsPerSec = 2
	cfg.Sources.Burst = 2
	cfg.Sources.TimeoutSeconds = 120
	cfg.Sources.Alerts.IMAPPort = 993
	cfg.Sources.Alerts.Mailbox = "INBOX"
	cfg.Sources.Alerts.SubjectAny = []string{"job alert", "jobs for you", "new jobs"}
	cfg.Sources.Alerts.MaxMessages = 50

	cfg.Email.Enabled = true
	cfg.Email.SMTPHost = "smtp.gmail.com"
	cfg.Email.SMTPPort = 587
	cfg.Email.Preferences = "London or remote UK, product roles in KYC/AML/onboarding, fintech and RegTech"

	cfg.Store.Enabled = true
	cfg.Store.Path = "jobs.db"
	cfg.Store.StaleDays = 14

	cfg.Enrich.Model = "gemini-2.5-flash"
	cfg.Enrich.MaxJobs = 10
	cfg.Enrich.TimeoutSeconds = 60

	return cfg
}

// Load reads the YAML file at path over Default(). A missing file is an
// error; use EnsureUserConfig to create one first.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve joins a relative path onto DataDir.
func (c Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.App.DataDir, p)
}

// DigestPath joins a file name onto the digest directory.
func (c Config) DigestPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Resolve(c.App.DigestDir), name)
}

func (c Config) DeliveryStatePath() string { return c.DigestPath(c.Delivery.StateFile) }
func (c Config) RunStatePath() string      { return c.DigestPath(c.Schedule.StateFile) }

// Location loads the configured timezone, falling back to UTC when the
// name is empty.
func (s Schedule) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}
