package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"jobdigest-engine/internal/config"
)

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Create config.yml in the data dir if it does not exist",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := config.EnsureUserConfig(dataDir)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load the effective configuration and report problems",
	RunE: func(cmd *cobra.Command, _ []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		cfg, path, err := loadConfig(log)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "config:   %s\n", path)
		fmt.Fprintf(out, "data dir: %s\n", cfg.App.DataDir)
		fmt.Fprintf(out, "schedule: %s (%s)\n", strings.Join(cfg.Schedule.RunTimes, ", "), cfg.Schedule.Timezone)
		fmt.Fprintf(out, "sources:  %s\n", strings.Join(enabledSources(cfg), ", "))
		fmt.Fprintln(out, "ok")
		return nil
	},
}

func enabledSources(cfg config.Config) []string {
	var out []string
	add := func(name string, on bool) {
		if on {
			out = append(out, name)
		}
	}
	s := cfg.Sources
	add("greenhouse", s.Greenhouse.Enabled && len(s.Greenhouse.Boards) > 0)
	add("lever", s.Lever.Enabled && len(s.Lever.Boards) > 0)
	add("ashby", s.Ashby.Enabled && len(s.Ashby.Boards) > 0)
	add("smartrecruiters", s.SmartRecruiters.Enabled && len(s.SmartRecruiters.Boards) > 0)
	add("workday", s.Workday.Enabled && len(s.Workday.Boards) > 0)
	add("rss", len(s.Feeds) > 0)
	add("email", s.Alerts.Enabled)
	if len(out) == 0 {
		out = append(out, "none")
	}
	return out
}

func init() {
	rootCmd.AddCommand(initConfigCmd, validateCmd)
}
