package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/apexfantasy/paddock/external/leaguehub"
	"github.com/apexfantasy/paddock/internal/config"
	"github.com/apexfantasy/paddock/internal/infrastructure/repository/memory"
	"github.com/apexfantasy/paddock/internal/interfaces/httpapi"
	"github.com/apexfantasy/paddock/internal/platform/cache"
	"github.com/apexfantasy/paddock/internal/platform/countdown"
	"github.com/apexfantasy/paddock/internal/platform/logging"
	"github.com/apexfantasy/paddock/internal/platform/resilience"
	"github.com/apexfantasy/paddock/internal/usecase"
)

// App bundles the HTTP server with the background loops that keep market
// countdowns ticking.
type App struct {
	Server    *http.Server
	Scheduler *countdown.Scheduler
	Market    *usecase.MarketService

	sweepInterval time.Duration
}

func New(cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	hubLogger := logging.NewJSON(cfg.LogLevel)
	logging.SetDefault(hubLogger)

	hub, err := leaguehub.NewClient(leaguehub.ClientConfig{
		BaseURL: cfg.LeagueHubBaseURL,
		Timeout: cfg.LeagueHubTimeout,
		Logger:  hubLogger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.LeagueHubCircuitEnabled,
			FailureThreshold: cfg.LeagueHubCircuitFailureCount,
			OpenTimeout:      cfg.LeagueHubCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.LeagueHubCircuitHalfOpenMaxReq,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build league hub client: %w", err)
	}

	cacheTTL := cfg.CacheTTL
	if !cfg.CacheEnabled {
		// keep the concurrent-load dedupe but make reuse effectively a no-op
		cacheTTL = time.Millisecond
	}
	marketCache := cache.NewStore(cacheTTL)

	boards := memory.NewBoardStore()
	scheduler := countdown.NewScheduler(clockwork.NewRealClock())

	lineupSvc := usecase.NewLineupService(hub, boards, logger)
	marketSvc := usecase.NewMarketService(hub, marketCache, scheduler, logger)
	teamSvc := usecase.NewTeamService(hub, logger)

	handler := httpapi.NewHandler(lineupSvc, marketSvc, teamSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Server:        server,
		Scheduler:     scheduler,
		Market:        marketSvc,
		sweepInterval: cfg.MarketSweepInterval,
	}, nil
}

// StartBackground launches the countdown scheduler and the market sweep
// loop. Both stop when ctx is canceled.
func (a *App) StartBackground(ctx context.Context, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	go a.Scheduler.Run(ctx)
	go func() {
		if err := a.Market.Run(ctx, a.sweepInterval); err != nil && ctx.Err() == nil {
			logger.Error("market sweep loop stopped", "error", err)
		}
	}()
}
