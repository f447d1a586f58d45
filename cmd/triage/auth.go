package main

import (
	"fmt"

	"github.com/Veraticus/inbox-triage/internal/cli"
	"github.com/Veraticus/inbox-triage/internal/config"
	"github.com/Veraticus/inbox-triage/internal/googleauth"
	"github.com/Veraticus/inbox-triage/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with Google services",
		Long:  `Authenticate with Gmail (to read your inbox) and Google Sheets (to export results).`,
	}

	cmd.AddCommand(authGmailCmd())
	cmd.AddCommand(authSheetsCmd())

	return cmd
}

func authGmailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gmail",
		Short: "Grant read-only access to your Gmail inbox",
		Long: `Run the OAuth2 browser flow for Gmail and store the token.

Requires gmail.client_id and gmail.client_secret (or TRIAGE_GMAIL_CLIENT_ID and
TRIAGE_GMAIL_CLIENT_SECRET). Only the gmail.readonly scope is requested.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}

			oauthCfg := cfg.GmailSourceConfig().OAuthConfig()
			oauthCfg.RedirectPort, _ = cmd.Flags().GetInt("port")
			return runOAuth(cmd, "Gmail", oauthCfg)
		},
	}
	cmd.Flags().Int("port", googleauth.DefaultRedirectPort, "local port for the OAuth callback")
	return cmd
}

func authSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Grant access to Google Sheets for exports",
		Long: `Run the OAuth2 browser flow for Google Sheets and store the token.

Not needed when sheets.service_account_path is configured.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sheetsCfg, err := config.LoadSheetsConfig(viper.GetViper())
			if err != nil {
				return err
			}
			if sheetsCfg.ServiceAccountPath != "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Using service account; no OAuth token needed"))
				return nil
			}

			oauthCfg := sheets.OAuthConfig(sheetsCfg)
			oauthCfg.RedirectPort, _ = cmd.Flags().GetInt("port")
			return runOAuth(cmd, "Google Sheets", oauthCfg)
		},
	}
	cmd.Flags().Int("port", googleauth.DefaultRedirectPort, "local port for the OAuth callback")
	return cmd
}

func runOAuth(cmd *cobra.Command, service string, oauthCfg googleauth.OAuth2Config) error {
	if oauthCfg.TokenFile == "" {
		return fmt.Errorf("no token file configured for %s", service)
	}

	if _, err := googleauth.AuthenticateOAuth2Interactive(cmd.Context(), oauthCfg); err != nil {
		return fmt.Errorf("%s authentication failed: %w", service, err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("%s authenticated; token saved to %s", service, oauthCfg.TokenFile)))
	return nil
}
