package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

// envTokenPassword supplies the password when --password is not given.
const envTokenPassword = "TRANSIT_GATE_PASSWORD"

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Obtain an access token with the OAuth2 password grant",
	Long: `Exchange a username and password at /oauth/token and print the token
response as JSON. The password may come from ` + envTokenPassword + `.`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().String("url", "http://127.0.0.1:8787", "gateway base URL")
	tokenCmd.Flags().StringP("username", "u", "", "OAuth2 username")
	tokenCmd.Flags().StringP("password", "p", "", "OAuth2 password (default: $"+envTokenPassword+")")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	baseURL, _ := flags.GetString("url")
	username, _ := flags.GetString("username")
	password, _ := flags.GetString("password")
	if password == "" {
		password = os.Getenv(envTokenPassword)
	}
	if username == "" || password == "" {
		return errors.New("username and password are required")
	}

	tok, err := fetchToken(cmd.Context(), baseURL, username, password)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]string{
		"access_token": tok.AccessToken,
		"token_type":   tok.Type(),
	})
}

// fetchToken runs the password grant against the gateway at baseURL.
func fetchToken(ctx context.Context, baseURL, username, password string) (*oauth2.Token, error) {
	conf := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  strings.TrimRight(baseURL, "/") + "/oauth/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	tok, err := conf.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil {
			return nil, fmt.Errorf("token request rejected with status %d", rerr.Response.StatusCode)
		}
		return nil, fmt.Errorf("token request: %w", err)
	}
	return tok, nil
}
