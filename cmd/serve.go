package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/etnz/folio/drive"
	"github.com/etnz/folio/web"
	"github.com/google/subcommands"
)

const (
	googleClientIDEnv     = "GOOGLE_CLIENT_ID"
	googleClientSecretEnv = "GOOGLE_CLIENT_SECRET"
	secretKeyEnv          = "FOLIO_SECRET_KEY"
	redirectURLEnv        = "FOLIO_REDIRECT_URL"
	portEnv               = "PORT"
)

// serveCmd runs the web server, storing portfolios in the users' Google Drive.
type serveCmd struct {
	addr         string
	clientID     string
	clientSecret string
	redirectURL  string
	secretKey    string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the web application" }
func (*serveCmd) Usage() string {
	return `pft serve [-addr <addr>]

  Serves the web application. Users sign in with Google, and their portfolio
  is stored in their own Google Drive.

  Requires a Google OAuth client (GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET) and
  a key to sign sessions (FOLIO_SECRET_KEY), as flags or environment variables.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "Address to listen on. Defaults to :$"+portEnv+", or :8080")
	f.StringVar(&c.clientID, "google-client-id", "", "Google OAuth client ID. Takes precedence over "+googleClientIDEnv)
	f.StringVar(&c.clientSecret, "google-client-secret", "", "Google OAuth client secret. Takes precedence over "+googleClientSecretEnv)
	f.StringVar(&c.redirectURL, "redirect-url", "", "OAuth redirect URL. Takes precedence over "+redirectURLEnv+". Defaults to http://localhost:8080/oauth2callback")
	f.StringVar(&c.secretKey, "secret-key", "", "Key signing the session cookies. Takes precedence over "+secretKeyEnv)
}

// config resolves the flags against the environment.
func (c *serveCmd) config() error {
	c.clientID = envOr(c.clientID, googleClientIDEnv)
	c.clientSecret = envOr(c.clientSecret, googleClientSecretEnv)
	c.secretKey = envOr(c.secretKey, secretKeyEnv)
	c.redirectURL = envOr(c.redirectURL, redirectURLEnv)
	if c.redirectURL == "" {
		c.redirectURL = "http://localhost:8080/oauth2callback"
	}
	if c.addr == "" {
		port := os.Getenv(portEnv)
		if port == "" {
			port = "8080"
		}
		c.addr = ":" + port
	}
	switch {
	case c.clientID == "" || c.clientSecret == "":
		return fmt.Errorf("google OAuth client is not set. Use -google-client-id and -google-client-secret flags or %s and %s environment variables", googleClientIDEnv, googleClientSecretEnv)
	case c.secretKey == "":
		return fmt.Errorf("secret key is not set. Use -secret-key flag or %s environment variable", secretKeyEnv)
	}
	return nil
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.config(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	google := web.NewGoogle(c.clientID, c.clientSecret, c.redirectURL)
	a, err := openApp(ctx, drive.New(google.Config()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if a.redis != nil {
		defer a.redis.Close()
	}

	// the server closes the tracker on shutdown.
	srv := web.New(a.Tracker, google, web.NewSessions([]byte(c.secretKey)), a.log)
	if err := srv.ListenAndServe(ctx, c.addr); err != nil {
		a.log.Error().Err(err).Msg("server failed")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
