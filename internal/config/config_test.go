package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Default()
	cfg.Email.Username = "me@example.com"
	cfg.Email.To = []string{"me@example.com"}
	return cfg
}

func TestDefault_ValidOnceRecipientsSet(t *testing.T) {
	_, res := NormalizeAndValidate(Default())
	require.False(t, res.OK())
	assert.Contains(t, res.Err().Error(), "email.to")

	_, res = NormalizeAndValidate(validConfig())
	assert.True(t, res.OK(), res.Errors)
}

func TestNormalizeAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
		wantOK  bool
	}{
		{name: "defaults", mutate: func(*Config) {}, wantOK: true},
		{name: "bad run time", mutate: func(c *Config) { c.Schedule.RunTimes = []string{"25:00"} }, wantErr: "schedule.run_times"},
		{name: "bad timezone", mutate: func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }, wantErr: "schedule.timezone"},
		{name: "zero window", mutate: func(c *Config) { c.Filters.WindowHours = 0 }, wantErr: "window_hours"},
		{name: "min score range", mutate: func(c *Config) { c.Scoring.MinScore = 101 }, wantErr: "min_score"},
		{name: "alerts need host", mutate: func(c *Config) {
			c.Sources.Alerts.Enabled = true
			c.Sources.Alerts.Username = "me"
		}, wantErr: "imap_host"},
		{name: "store path", mutate: func(c *Config) { c.Store.Path = " " }, wantErr: "store.path"},
		{name: "email off needs no recipients", mutate: func(c *Config) {
			c.Email.Enabled = false
			c.Email.To = nil
		}, wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			_, res := NormalizeAndValidate(cfg)
			if tt.wantOK {
				assert.True(t, res.OK(), res.Errors)
				return
			}
			require.Error(t, res.Err())
			assert.Contains(t, res.Err().Error(), tt.wantErr)
		})
	}
}

func TestNormalizeAndValidate_Terms(t *testing.T) {
	cfg := validConfig()
	cfg.Filters.ExcludeCompanies = []string{" Ebury ", "ebury", "", "Revolut"}
	cfg.Filters.LocationsBlock = append(cfg.Filters.LocationsBlock, "london")

	out, res := NormalizeAndValidate(cfg)
	assert.Equal(t, []string{"ebury", "revolut"}, out.Filters.ExcludeCompanies)
	assert.Contains(t, res.Warnings, `location appears in both allow and block: "london"`)
	assert.Equal(t, []string{" Ebury ", "ebury", "", "Revolut"}, cfg.Filters.ExcludeCompanies, "input untouched")
}

func TestParseRunTime(t *testing.T) {
	h, m, err := ParseRunTime(" 09:30 ")
	require.NoError(t, err)
	assert.Equal(t, 9, h)
	assert.Equal(t, 30, m)

	_, _, err = ParseRunTime("9am")
	assert.Error(t, err)
}

func TestLoad_OverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
schedule:
  run_times: ["08:00", "18:00"]
scoring:
  min_score: 60
email:
  to: [me@example.com]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"08:00", "18:00"}, cfg.Schedule.RunTimes)
	assert.Equal(t, 60, cfg.Scoring.MinScore)
	assert.Equal(t, []string{"me@example.com"}, cfg.Email.To)
	assert.Equal(t, 24, cfg.Filters.WindowHours, "unset keys keep defaults")
	assert.Equal(t, "Europe/London", cfg.Schedule.Timezone)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestPaths(t *testing.T) {
	cfg := Default()
	cfg.App.DataDir = "/data"

	assert.Equal(t, "/data/jobs.db", cfg.Resolve("jobs.db"))
	assert.Equal(t, "/abs/jobs.db", cfg.Resolve("/abs/jobs.db"))
	assert.Equal(t, "/data/digests/sent_links.json", cfg.DeliveryStatePath())
	assert.Equal(t, "/data/digests/run_state.json", cfg.RunStatePath())
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("JOB_DIGEST_WINDOW_HOURS", "48")
	t.Setenv("JOB_DIGEST_RUN_ATS", "08:00,18:30")
	t.Setenv("JOB_DIGEST_TZ", "UTC")
	t.Setenv("JOB_DIGEST_FORCE_RUN", "true")
	t.Setenv("JOB_DIGEST_SMTP_USER", "bot@example.com")
	t.Setenv("JOB_DIGEST_EMAIL_TO", "a@example.com,b@example.com")

	cfg, err := ApplyEnv(Default())
	require.NoError(t, err)
	assert.Equal(t, 48, cfg.Filters.WindowHours)
	assert.Equal(t, []string{"08:00", "18:30"}, cfg.Schedule.RunTimes)
	assert.Equal(t, "UTC", cfg.Schedule.Timezone)
	assert.True(t, cfg.Schedule.Force)
	assert.Equal(t, "bot@example.com", cfg.Email.Username)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Email.To)
	assert.Equal(t, 70, cfg.Scoring.MinScore, "unset variables keep the file value")
}

func TestApplyEnv_BadValue(t *testing.T) {
	t.Setenv("JOB_DIGEST_MIN_SCORE", "lots")
	_, err := ApplyEnv(Default())
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("JOB_DIGEST_TEST_DOTENV=from-file\n"), 0o644))
	t.Setenv("JOB_DIGEST_TEST_DOTENV", "")
	os.Unsetenv("JOB_DIGEST_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("JOB_DIGEST_TEST_DOTENV"))
}

func TestBoardBatch(t *testing.T) {
	boards := []string{"a", "b", "c", "d", "e"}
	day := func(yday int) time.Time {
		return time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, yday-1)
	}

	assert.Equal(t, []string{"c", "d"}, BoardBatch(boards, 2, day(1)))
	assert.Equal(t, []string{"e", "a"}, BoardBatch(boards, 2, day(2)))
	assert.Equal(t, []string{"b", "c"}, BoardBatch(boards, 2, day(3)))
	assert.Equal(t, boards, BoardBatch(boards, 0, day(1)))
	assert.Equal(t, boards, BoardBatch(boards, 9, day(1)))
}

func TestOverlayBoards(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Sources.Lever.Boards = []string{"keep"}

	out, err := OverlayBoards(cfg, filepath.Join(dir, "boards.yml"))
	require.NoError(t, err)
	assert.Equal(t, cfg, out, "missing file is a no-op")

	path := filepath.Join(dir, "boards.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
greenhouse: [monzo, wise]
feeds:
  - name: fintech
    url: https://example.com/jobs.rss
`), 0o644))
	out, err = OverlayBoards(cfg, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"monzo", "wise"}, out.Sources.Greenhouse.Boards)
	assert.Equal(t, []string{"keep"}, out.Sources.Lever.Boards)
	require.Len(t, out.Sources.Feeds, 1)
	assert.Equal(t, "fintech", out.Sources.Feeds[0].Name)

	require.NoError(t, os.WriteFile(path, []byte("greenhouse: {"), 0o644))
	_, err = OverlayBoards(cfg, path)
	assert.Error(t, err)
}

func TestEnsureUserConfigAndSave(t *testing.T) {
	dir := t.TempDir()
	path, err := EnsureUserConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yml"), path)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.App.DataDir)

	cfg.Email.To = []string{"me@example.com"}
	require.NoError(t, SaveAtomic(path, cfg))
	assert.FileExists(t, path+".bak")
	assert.NoFileExists(t, path+".tmp")

	again, err := EnsureUserConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, path, again)
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"me@example.com"}, cfg.Email.To, "existing file not overwritten")

	bad := cfg
	bad.Filters.WindowHours = 0
	assert.Error(t, SaveAtomic(path, bad))
}
