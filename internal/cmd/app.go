package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ninjaexa/ninjaexa/internal/config"
	"github.com/ninjaexa/ninjaexa/internal/core/ratelimit"
	"github.com/ninjaexa/ninjaexa/internal/exa"
	"github.com/ninjaexa/ninjaexa/internal/observability"
	"github.com/ninjaexa/ninjaexa/internal/search"
)

// app holds the components built once per invocation from the loaded
// configuration.
type app struct {
	cfg      *config.Config
	limiter  *ratelimit.Limiter
	client   *exa.Client
	searcher *search.Searcher
}

type appKey struct{}

// errConfig marks configuration faults so main can exit with
// ExitConfigInvalid.
var errConfig = errors.New("invalid configuration")

type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }

func (e *configError) Unwrap() []error { return []error{errConfig, e.err} }

// loadApp decodes and validates configuration and wires the limiter, client
// and searcher into the command context.
func loadApp(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Context(), viper.GetViper())
	if err != nil {
		return &configError{err: err}
	}
	if cfg.Logging.Level != "" {
		observability.InitCLILogger(config.AppName, verbose, cfg.Logging.Level)
	}

	a := newApp(cfg, resolveAPIKey(cfg))
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appKey{}, a))
	return nil
}

func newApp(cfg *config.Config, apiKey string) *app {
	limiter := ratelimit.New(cfg.RateLimit, ratelimit.NewFileStore(cfg.StateFile))

	opts := []exa.Option{
		exa.WithMCPURL(cfg.API.MCPURL),
		exa.WithBaseURL(cfg.API.BaseURL),
		exa.WithAPIKey(apiKey),
		exa.WithGate(limiter),
		exa.WithTimeout(cfg.API.Timeout),
		exa.WithUserAgent(cfg.API.UserAgent),
	}
	if observability.CLILogger != nil {
		opts = append(opts, exa.WithLogger(observability.CLILogger))
	}
	client := exa.NewClient(opts...)

	return &app{
		cfg:      cfg,
		limiter:  limiter,
		client:   client,
		searcher: search.New(client),
	}
}

func resolveAPIKey(cfg *config.Config) string {
	key := exa.ResolveAPIKey(exa.DefaultKeySources(cfg.API.KeyCacheFile, cfg.API.KeyCacheTTL))
	if observability.CLILogger != nil {
		observability.CLILogger.Debug("API key resolved", zap.Bool("present", key != ""))
	}
	return key
}

func appFrom(cmd *cobra.Command) *app {
	if cmd == nil || cmd.Context() == nil {
		return nil
	}
	a, _ := cmd.Context().Value(appKey{}).(*app)
	return a
}
