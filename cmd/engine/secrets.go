package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"jobdigest-engine/internal/secrets"
)

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage passwords and API keys in the OS keychain",
}

var secretsSetCmd = &cobra.Command{
	Use:   "set <smtp|imap|gemini>",
	Short: "Read a secret from stdin and store it in the keychain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := secrets.ParseKind(args[0])
		if err != nil {
			return err
		}
		log, err := newLogger()
		if err != nil {
			return err
		}
		cfg, _, err := loadConfig(log)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "%s secret: ", kind)
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading secret: %w", err)
		}
		if err := secrets.Set(cfg, kind, strings.TrimRight(line, "\r\n")); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", secrets.Account(cfg, kind))
		return nil
	},
}

var secretsDeleteCmd = &cobra.Command{
	Use:   "delete <smtp|imap|gemini>",
	Short: "Remove a secret from the keychain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := secrets.ParseKind(args[0])
		if err != nil {
			return err
		}
		log, err := newLogger()
		if err != nil {
			return err
		}
		cfg, _, err := loadConfig(log)
		if err != nil {
			return err
		}
		if err := secrets.Delete(cfg, kind); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", secrets.Account(cfg, kind))
		return nil
	},
}

func init() {
	secretsCmd.AddCommand(secretsSetCmd, secretsDeleteCmd)
	rootCmd.AddCommand(secretsCmd)
}
