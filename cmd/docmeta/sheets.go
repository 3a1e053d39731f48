package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/docmeta/internal/cli"
	"github.com/Veraticus/docmeta/internal/common"
	"github.com/Veraticus/docmeta/internal/config"
	"github.com/Veraticus/docmeta/internal/sheets"
)

func sheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Google Sheets review integration",
	}
	cmd.AddCommand(sheetsAuthCmd())
	return cmd
}

func sheetsAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize docmeta to write the review spreadsheet",
		Long: `Run the Google OAuth2 flow in your browser and save the token.

Client credentials come from sheets.client_id and sheets.client_secret in the
config file or GOOGLE_SHEETS_CLIENT_ID and GOOGLE_SHEETS_CLIENT_SECRET.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			clientID := viper.GetString("sheets.client_id")
			if clientID == "" {
				clientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
			}
			clientSecret := viper.GetString("sheets.client_secret")
			if clientSecret == "" {
				clientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
			}
			if clientID == "" || clientSecret == "" {
				return common.NewUserError("Google OAuth2 client id and secret are required", common.ErrMissingConfig)
			}

			callback, _ := cmd.Flags().GetString("callback")
			tokenFile := config.TokenFile(viper.GetViper())
			_, err := sheets.Authenticate(cmd.Context(), sheets.OAuth2Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				TokenFile:    tokenFile,
				CallbackAddr: callback,
			}, slog.Default())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Token saved to "+tokenFile))
			return nil
		},
	}
	cmd.Flags().String("callback", "localhost:8080", "Address for the OAuth2 callback server")
	return cmd
}
