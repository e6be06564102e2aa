package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/agentbridge/internal/actiongroup"
	"github.com/nextlevelbuilder/agentbridge/internal/config"
	"github.com/nextlevelbuilder/agentbridge/internal/fallback"
	httpapi "github.com/nextlevelbuilder/agentbridge/internal/http"
	"github.com/nextlevelbuilder/agentbridge/internal/providers/bedrock"
)

func serveCmd() *cobra.Command {
	var (
		addr        string
		lexSessions bool
		noHotReload bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the Lex fallback and action-group endpoints",
		Long: `Serve over HTTP:
  POST /v1/lex/fallback    Lex V2 fallback intent, answered by the Bedrock agent
  POST /v1/actions/invoke  Bedrock agent action-group invocation
  GET  /health

Changes to the config file's server token and rate limits apply without a restart.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, lexSessions, !noHotReload)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&lexSessions, "lex-sessions", false, "reuse the Lex session id as the agent session")
	cmd.Flags().BoolVar(&noHotReload, "no-hot-reload", false, "don't watch the config file")
	return cmd
}

func runServe(addr string, lexSessions, hotReload bool) error {
	cfg, cfgPath, err := loadConfig()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, shutdown := initTelemetry(ctx, cfg)
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("otel shutdown failed", "error", err)
		}
	}()

	awsCfg, err := newAWSConfig(ctx, cfg.AWS)
	if err != nil {
		return err
	}

	var fb httpapi.FallbackHandler
	if cfg.BedrockAgent.AgentID != "" && cfg.BedrockAgent.AliasID != "" {
		runtime := bedrock.NewAgentRuntimeFromConfig(awsCfg, bedrock.AgentConfig{
			AgentID:     cfg.BedrockAgent.AgentID,
			AliasID:     cfg.BedrockAgent.AliasID,
			EnableTrace: cfg.BedrockAgent.EnableTrace,
		}, slog.Default())
		opts := []fallback.Option{fallback.WithLogger(slog.Default())}
		if lexSessions {
			opts = append(opts, fallback.WithLexSessions())
		}
		fb = fallback.NewHandler(runtime, opts...)
	} else {
		slog.Warn("bedrock agent not configured, /v1/lex/fallback disabled (set BEDROCK_AGENT_ID and BEDROCK_AGENT_ALIAS_ID)")
	}

	ag := cfg.ActionGroups
	actions := actiongroup.NewDefaultRouter(actiongroup.Config{
		RestaurantAPIBaseURL: ag.RestaurantAPIBaseURL,
		GutendexURL:          ag.GutendexURL,
		SerpAPIURL:           ag.SerpAPIURL,
		SerpAPIKey:           ag.SerpAPIKey,
		CacheTTL:             ag.CacheTTL.Std(),
		Timeout:              ag.Timeout.Std(),
	}, slog.Default())

	server := cfg.ServerSnapshot()
	limiter := httpapi.NewRateLimiter(server.RateLimitRPM, server.Burst, slog.Default())

	gin.SetMode(gin.ReleaseMode)
	srv := httpapi.NewServer(httpapi.Deps{
		Fallback:    fb,
		Actions:     actions,
		Token:       func() string { return cfg.ServerSnapshot().Token },
		Limiter:     limiter,
		CORSOrigins: server.CORSOrigins,
		Version:     Version,
		Logger:      slog.Default(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		limiter.CleanupLoop(gctx)
		return nil
	})
	if hotReload {
		if err := watchConfig(gctx, cfgPath, cfg, limiter); err != nil {
			slog.Warn("config hot reload disabled", "path", cfgPath, "error", err)
		}
	}
	g.Go(func() error {
		return srv.Run(gctx, addr)
	})

	slog.Info("agentbridge serving", "addr", addr, "routes", actions.Routes(), "auth", server.Token != "")
	if err := g.Wait(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// watchConfig swaps in reloaded settings. Only the token and rate limits
// take effect on a running server.
func watchConfig(ctx context.Context, path string, cfg *config.Config, limiter *httpapi.RateLimiter) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	w, err := config.NewWatcher(path, slog.Default())
	if err != nil {
		return err
	}
	w.OnChange(func(next *config.Config) {
		cfg.ReplaceFrom(next)
		s := cfg.ServerSnapshot()
		limiter.SetLimits(s.RateLimitRPM, s.Burst)
	})
	return w.Start(ctx)
}
