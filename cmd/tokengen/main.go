// Package main mints session tokens for the seeded demo sessions so the admin
// dashboard can be exercised locally. Tokens only work against a server that
// shares the signing key, which outside development is never the default.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"casestatus/internal/identity/token"
	"casestatus/internal/platform/config"
	"casestatus/internal/seeder"
	id "casestatus/pkg/domain"
)

const defaultTokenTTL = time.Hour

var (
	configPath string
	userIDFlag string
	sessionID  string
	ttl        time.Duration
	visitor    bool
	asJSON     bool
)

type tokenOutput struct {
	Token     string            `json:"token"`
	UserID    string            `json:"user_id"`
	SessionID string            `json:"session_id"`
	ExpiresAt time.Time         `json:"expires_at"`
	Usage     map[string]string `json:"usage"`
}

var rootCmd = &cobra.Command{
	Use:   "tokengen",
	Short: "Mint a session token for local testing",
	Long: "Signs a session token with the configured signing key. By default the token\n" +
		"names the seeded administrator session; --visitor names the seeded\n" +
		"non-administrator session. The session must exist in the server's store.",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		userID, sessID, err := resolveIdentity(userIDFlag, sessionID, visitor)
		if err != nil {
			return err
		}
		out, err := mint(cmd.Context(), cfg, userID, sessID, ttl)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), out, asJSON)
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "configs/casestatus.yaml", "path to the YAML config file")
	rootCmd.Flags().StringVar(&userIDFlag, "user-id", "", "user ID (UUID); defaults to the seeded user")
	rootCmd.Flags().StringVar(&sessionID, "session-id", "", "session ID (UUID); defaults to the seeded session")
	rootCmd.Flags().DurationVar(&ttl, "ttl", defaultTokenTTL, "token time-to-live")
	rootCmd.Flags().BoolVar(&visitor, "visitor", false, "use the seeded non-administrator session")
	rootCmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveIdentity(rawUserID, rawSessionID string, useVisitor bool) (id.UserID, id.SessionID, error) {
	userID, sessID := seeder.DemoAdminUserID, seeder.DemoAdminSessionID
	if useVisitor {
		userID, sessID = seeder.DemoVisitorUserID, seeder.DemoVisitorSessionID
	}

	if rawUserID != "" {
		parsed, err := id.ParseUserID(rawUserID)
		if err != nil {
			return id.UserID{}, id.SessionID{}, err
		}
		userID = parsed
	}
	if rawSessionID != "" {
		parsed, err := id.ParseSessionID(rawSessionID)
		if err != nil {
			return id.UserID{}, id.SessionID{}, err
		}
		sessID = parsed
	}
	return userID, sessID, nil
}

func mint(ctx context.Context, cfg config.Config, userID id.UserID, sessID id.SessionID, ttl time.Duration) (*tokenOutput, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("ttl must be positive")
	}
	expiresAt := time.Now().Add(ttl)
	signed, err := token.New(cfg.Session.SigningKey, cfg.Session.Issuer, cfg.Session.Audience).
		Issue(ctx, userID, sessID, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &tokenOutput{
		Token:     signed,
		UserID:    userID.String(),
		SessionID: sessID.String(),
		ExpiresAt: expiresAt.UTC(),
		Usage: map[string]string{
			"curl":   fmt.Sprintf("curl -H 'Authorization: Bearer %s' http://localhost%s/admin/dashboard", signed, cfg.Server.Addr),
			"cookie": fmt.Sprintf("%s=%s", cfg.Session.CookieName, signed),
		},
	}, nil
}

func render(w io.Writer, out *tokenOutput, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(w, "Token:      %s\n", out.Token)
	fmt.Fprintf(w, "User ID:    %s\n", out.UserID)
	fmt.Fprintf(w, "Session ID: %s\n", out.SessionID)
	fmt.Fprintf(w, "Expires at: %s\n\n", out.ExpiresAt.Format(time.RFC3339))
	fmt.Fprintf(w, "Usage:\n  %s\n  Cookie %s\n", out.Usage["curl"], out.Usage["cookie"])
	return nil
}
