// Package cmd implements the CLI application to track a portfolio.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/folio"
	"github.com/etnz/folio/eodhd"
	"github.com/etnz/folio/redisstore"
	"github.com/etnz/folio/yahoo"
	"github.com/google/subcommands"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, cmd := range Commands() {
		c.Register(cmd, "portfolio")
	}
	c.Register(&serveCmd{}, "server")
}

// Commands returns the portfolio subcommands.
func Commands() []subcommands.Command {
	return []subcommands.Command{&showCmd{}, &addCmd{}, &editCmd{}, &deleteCmd{}, &quoteCmd{}}
}

// localUser owns the portfolio in the data directory.
const localUser = "local"

const (
	eodhdAPIKeyEnv = "EODHD_API_KEY"
	redisAddrEnv   = "FOLIO_REDIS_ADDR"
	// retention of the redis entries, well above the cache TTLs.
	redisRetention = 24 * time.Hour
	drainTimeout   = 30 * time.Second
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var dataDir = flag.String("data-dir", defaultDataDir(), "Directory holding the local "+folio.PortfolioFile)
var providerName = flag.String("provider", "", "Quote provider: eodhd or yahoo. Defaults to eodhd when an EODHD API key is set, yahoo otherwise")
var eodhdAPIKey = flag.String("eodhd-api-key", "", "EODHD API key. This flag takes precedence over the "+eodhdAPIKeyEnv+" environment variable. You can get one at https://eodhd.com/")
var redisAddr = flag.String("redis-addr", "", "Redis address to share the caches. This flag takes precedence over the "+redisAddrEnv+" environment variable")
var verbose = flag.Bool("v", false, "Log debug messages")

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "folio")
	}
	return ".folio"
}

// envOr returns value, or the environment variable env if value is empty.
func envOr(value, env string) string {
	if value == "" {
		return os.Getenv(env)
	}
	return value
}

// newLogger returns the logger for the application, writing to stderr.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()
}

// newProvider returns the quote provider selected by the flags. It is a
// variable for tests.
var newProvider = func(log zerolog.Logger) (folio.QuoteProvider, error) {
	key := envOr(*eodhdAPIKey, eodhdAPIKeyEnv)
	name := *providerName
	if name == "" {
		name = "yahoo"
		if key != "" {
			name = "eodhd"
		}
	}
	switch name {
	case "eodhd":
		if key == "" {
			return nil, fmt.Errorf("EODHD API key is not set. Use -eodhd-api-key flag or %s environment variable", eodhdAPIKeyEnv)
		}
		return eodhd.New(key, eodhd.WithLogger(log)), nil
	case "yahoo":
		return yahoo.New(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

// app is the tracker and the resources it holds.
type app struct {
	*folio.Tracker
	log   zerolog.Logger
	redis *redis.Client
}

// openApp returns a tracker over files. Caches are in memory unless a redis
// address is configured.
func openApp(ctx context.Context, files folio.FileStore) (*app, error) {
	log := newLogger()
	provider, err := newProvider(log)
	if err != nil {
		return nil, err
	}

	a := &app{log: log}
	var quotes folio.Store[folio.Quote]
	var portfolios folio.Store[[]folio.Position]
	if addr := envOr(*redisAddr, redisAddrEnv); addr != "" {
		a.redis, err = redisstore.Connect(ctx, addr)
		if err != nil {
			return nil, err
		}
		quotes = redisstore.New[folio.Quote](a.redis, "folio:quotes", redisRetention)
		portfolios = redisstore.New[[]folio.Position](a.redis, "folio:portfolios", redisRetention)
		log.Debug().Str("addr", addr).Msg("caches in redis")
	}
	a.Tracker = folio.NewTracker(files, provider, quotes, portfolios, folio.WithLogger(log))
	return a, nil
}

// Close drains the pending writes, and releases the resources.
func (a *app) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	err := a.Tracker.Close(ctx)
	if a.redis != nil {
		a.redis.Close()
	}
	return err
}

// localFiles is the file store of the CLI.
func localFiles() folio.FileStore { return folio.NewDirStore(*dataDir) }

// printMarkdown renders md for the terminal, or prints it raw if it cannot.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
