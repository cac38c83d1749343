package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelsync/internal/services/tmdb"
	"reelsync/internal/services/trakt"
)

func newAuthCommand(cmdCtx *commandContext) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with a remote service",
	}
	authCmd.AddCommand(newAuthTraktCommand(cmdCtx))
	authCmd.AddCommand(newAuthTMDBCommand(cmdCtx))
	return authCmd
}

func newAuthTraktCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "trakt",
		Short: "Authorize via the Trakt device flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.ensureLogger()
			if err != nil {
				return err
			}

			if existing := trakt.LoadToken(cfg.TraktTokenPath()); existing != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "A Trakt token already exists; re-authorizing replaces it.")
			}

			client, err := trakt.New(cfg.Trakt.ClientID, cfg.Trakt.ClientSecret, cfg.Trakt.BaseURL, logger)
			if err != nil {
				return err
			}

			code, err := client.NewDeviceCode(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Visit %s and enter code: %s\n", code.VerificationURL, code.UserCode)
			fmt.Fprintln(out, "Waiting for authorization...")

			token, err := client.PollToken(cmd.Context(), code)
			if err != nil {
				return err
			}
			if err := trakt.SaveToken(cfg.TraktTokenPath(), token); err != nil {
				return err
			}
			fmt.Fprintf(out, "Authorized. Token saved to %s\n", cfg.TraktTokenPath())
			return nil
		},
	}
}

func newAuthTMDBCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tmdb",
		Short: "Create a TMDB session via the request-token flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.ensureLogger()
			if err != nil {
				return err
			}

			client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language, logger)
			if err != nil {
				return err
			}

			token, err := client.NewRequestToken(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Visit the following URL to approve this application:\n%s\n", tmdb.AuthorizeURL(token))
			fmt.Fprint(out, "After approving, press Enter to continue...")

			reader := bufio.NewReader(cmd.InOrStdin())
			if _, err := reader.ReadString('\n'); err != nil && !strings.Contains(err.Error(), "EOF") {
				return fmt.Errorf("wait for confirmation: %w", err)
			}

			session, err := client.NewSession(cmd.Context(), token)
			if err != nil {
				return err
			}
			if err := tmdb.SaveSession(cfg.TMDBSessionPath(), session); err != nil {
				return err
			}
			fmt.Fprintf(out, "Session saved to %s\n", cfg.TMDBSessionPath())
			return nil
		},
	}
}
