package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobdigest-engine/internal/config"
	"jobdigest-engine/internal/logger"
)

const app = "engine"

var (
	cfgFile string
	envFile string
	dataDir string
	debug   bool
	jsonLog bool

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "engine collects job postings, ranks them and mails a daily digest",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	defaultDir := os.Getenv("JOB_DIGEST_DATA_DIR")
	if defaultDir == "" {
		defaultDir = "."
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yml in the data dir, created on first use)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", defaultDir, "directory holding config, state files, digests and the database")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&jsonLog, "json", "j", false, "json format for logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	l, err := logger.New(jsonLog, debug)
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}
	return l, nil
}

// loadConfig resolves the effective configuration: file over defaults,
// boards.yml over the file, environment over both. Validation warnings
// are logged; errors abort.
func loadConfig(log *zap.Logger) (config.Config, string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return config.Config{}, "", err
	}
	if err := config.LoadDotEnv(envFile, filepath.Join(dataDir, ".env")); err != nil {
		return config.Config{}, "", err
	}

	path := cfgFile
	if path == "" {
		p, err := config.EnsureUserConfig(dataDir)
		if err != nil {
			return config.Config{}, "", fmt.Errorf("config bootstrap failed: %w", err)
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return cfg, path, err
	}
	if cfg.App.DataDir == "" || cfg.App.DataDir == "." {
		cfg.App.DataDir = dataDir
	}
	cfg, err = config.OverlayBoards(cfg, filepath.Join(filepath.Dir(path), "boards.yml"))
	if err != nil {
		return cfg, path, err
	}
	cfg, err = config.ApplyEnv(cfg)
	if err != nil {
		return cfg, path, err
	}

	cfg, res := config.NormalizeAndValidate(cfg)
	for _, w := range res.Warnings {
		log.Warn("config warning", zap.String("path", path), zap.String("warning", w))
	}
	if !res.OK() {
		return cfg, path, fmt.Errorf("invalid config %s: %w", path, res.Err())
	}
	log.Debug("config loaded", zap.String("path", path), zap.String("data_dir", cfg.App.DataDir))
	return cfg, path, nil
}
