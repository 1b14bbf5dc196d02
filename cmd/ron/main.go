// Command ron runs the autonomous Fantasy Premier League decision
// engine (§ OVERVIEW): the event bus, the data gateway and scheduler,
// every analyzer and decision agent, and the outbound announcer/
// notifier, wired together and run until terminated.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fantasy-league/external/fpl"
	"github.com/riskibarqy/fantasy-league/internal/config"
	"github.com/riskibarqy/fantasy-league/internal/infrastructure/llm"
	"github.com/riskibarqy/fantasy-league/internal/infrastructure/notify"
	"github.com/riskibarqy/fantasy-league/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/fantasy-league/internal/observability"
	"github.com/riskibarqy/fantasy-league/internal/platform/agent"
	"github.com/riskibarqy/fantasy-league/internal/platform/cache"
	"github.com/riskibarqy/fantasy-league/internal/platform/eventbus"
	"github.com/riskibarqy/fantasy-league/internal/platform/logging"
	"github.com/riskibarqy/fantasy-league/internal/platform/resilience"
	"github.com/riskibarqy/fantasy-league/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.NewJSON(slogToZapLevel(cfg.LogLevel))
	logging.SetDefault(logger)

	stopUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		return
	}
	defer stopUptrace(context.Background())

	stopPyroscope, err := observability.InitPyroscope(cfg, slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		return
	}
	defer stopPyroscope()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlx.Connect("postgres", cfg.DBURL)
	if err != nil {
		logger.Error("connect database", "error", err)
		return
	}
	defer db.Close()

	bus, err := eventbus.New(eventbus.Config{RedisURL: cfg.BrokerURL, Prefix: "ron", Logger: logger})
	if err != nil {
		logger.Error("build event bus", "error", err)
		return
	}
	if err := bus.Connect(ctx); err != nil {
		logger.Error("connect event bus", "error", err)
		return
	}
	defer bus.Disconnect(context.Background())
	bus.StartListening(ctx)
	defer bus.StopListening()

	// Repositories. Each one is a thin Postgres adapter over a domain
	// repository interface; wiring them here rather than in the usecase
	// layer keeps every service's dependency narrow and mockable.
	players := postgres.NewPlayerRepository(db)
	teams := postgres.NewTeamRepository(db)
	fixtures := postgres.NewFixtureRepository(db)
	rawData := postgres.NewRawDataRepository(db)
	stats := postgres.NewPlayerStatsRepository(db)
	gameweeks := postgres.NewGameweekRepository(db)
	squadDrafts := postgres.NewSquadDraftRepository(db)
	chips := postgres.NewChipRepository(db)
	transfers := postgres.NewTransferRepository(db)
	elo := postgres.NewEloRepository(db)
	decisions := postgres.NewDecisionRepository(db)
	learning := postgres.NewLearningRepository(db)
	predictions := postgres.NewPredictionRepository(db)
	statValues := postgres.NewStatValueRepository(db)

	// Outbound clients.
	fplClient := fpl.NewClient(fpl.ClientConfig{
		BaseURL: cfg.FPLBaseURL,
		Timeout: cfg.FPLTimeout,
		Logger:  logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FPLCircuitEnabled,
			FailureThreshold: cfg.FPLCircuitFailureCount,
			OpenTimeout:      cfg.FPLCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FPLCircuitHalfOpenMaxReq,
		},
	})
	llmClient := llm.NewClient(llm.ClientConfig{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Timeout: cfg.LLMTimeout,
		Logger:  logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.LLMCircuitEnabled,
			FailureThreshold: cfg.LLMCircuitFailureCount,
			OpenTimeout:      cfg.LLMCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.LLMCircuitHalfOpenMaxReq,
		},
	})
	notifyClient := notify.NewClient(notify.ClientConfig{
		WebhookURL: cfg.WebhookURL,
		Timeout:    cfg.WebhookTimeout,
		Logger:     logger,
	})

	dataCache := cache.NewStore(0)

	// Synchronous facades - called directly, not subscribed to the bus.
	dataGateway := usecase.NewDataGatewayService(
		fplClient, dataCache, players, teams, fixtures, gameweeks, rawData, bus,
		usecase.DataGatewayConfig{LeagueID: cfg.LeagueID}, logger,
	)
	scheduler := usecase.NewSchedulerService(dataGateway, bus, logger)
	predictionSvc := usecase.NewPredictionService(players, stats, predictions, nil, nil, cfg.LeagueID, "v1", logger)
	transferOptimizer := usecase.NewTransferOptimizerService(squadDrafts, players, predictionSvc, predictionSvc, transfers, cfg.LeagueID, logger)
	squadOptimizer := usecase.NewSquadOptimizerService(players, predictionSvc, cfg.LeagueID, logger)
	rivalStandings := usecase.NewRivalStandingsService(fplClient, cfg.RivalLeagueID, logger)

	// Analyzer agents - each caches its latest analysis for the others
	// and for the coordinator/synthesis engine to read in-process.
	dcAnalyzer := usecase.NewDCAnalyzer(players, stats, gameweeks, bus, cfg.LeagueID, logger)
	fixtureAnalyzer := usecase.NewFixtureAnalyzer(fixtures, teams, elo, gameweeks, bus, cfg.LeagueID, logger)
	xgAnalyzer := usecase.NewXGAnalyzer(players, stats, statValues, gameweeks, bus, cfg.LeagueID, logger)
	valueAnalyzer := usecase.NewValueAnalyzer(players, dcAnalyzer, fixtureAnalyzer, xgAnalyzer, bus, cfg.LeagueID, logger)
	chipAdvisor := usecase.NewChipAdvisor(squadDrafts, players, predictionSvc, chips, bus, cfg.TeamID, cfg.LeagueID, logger)

	synthesisEngine := usecase.NewSynthesisEngine(players, predictionSvc, valueAnalyzer, fixtureAnalyzer, cfg.LeagueID, logger)
	synthesisReporter := usecase.NewSynthesisReporterService(synthesisEngine, chipAdvisor, rivalStandings, bus, cfg.TeamID, logger)

	coordinator := usecase.NewDecisionCoordinatorService(
		squadDrafts, players, predictionSvc, transferOptimizer, squadOptimizer,
		chipAdvisor, decisions, bus, llmClient, cfg.TeamID, cfg.LeagueID, logger,
	)
	learningStore := usecase.NewLearningStoreService(predictions, players, stats, learning, cfg.LeagueID, logger)
	notifier := usecase.NewNotifierService(notifyClient, logger)

	orchestrator := agent.NewOrchestrator()
	for _, w := range []agent.Worker{
		dcAnalyzer, fixtureAnalyzer, xgAnalyzer, valueAnalyzer, chipAdvisor,
		coordinator, learningStore, synthesisReporter, notifier,
	} {
		base := agent.New(w, bus, logger)
		if err := orchestrator.Register(w.Name(), base); err != nil {
			logger.Error("register agent", "agent", w.Name(), "error", err)
			return
		}
	}

	for name, err := range orchestrator.StartAll(ctx) {
		logger.Error("agent failed to start", "agent", name, "error", err)
	}

	stopJobs := runScheduledJobs(ctx, cfg, scheduler, dataGateway, logger)

	healthSrv := newHealthServer(cfg.RonHealthAddr, orchestrator)
	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", "error", err)
		}
	}()

	logger.Info("ron decision engine started", "team_id", cfg.TeamID, "league_id", cfg.LeagueID)
	<-ctx.Done()
	logger.Info("shutdown signal received")

	stopJobs()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(shutdownCtx)

	for name, err := range orchestrator.StopAll(shutdownCtx) {
		logger.Error("agent failed to stop cleanly", "agent", name, "error", err)
	}

	logger.Info("ron decision engine stopped")
}

// runScheduledJobs starts the background tickers that turn calendar time
// into bus activity (§4.4): the gateway and scheduler are synchronous
// facades, so something has to call them periodically. Each job gets its
// own goroutine and ticker so a slow cycle on one never delays another.
// The returned func stops every ticker and blocks until their goroutines
// have exited.
func runScheduledJobs(ctx context.Context, cfg config.Config, scheduler *usecase.SchedulerService, dataGateway *usecase.DataGatewayService, logger *logging.Logger) func() {
	jobCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{}, 4)

	go tickerLoop(jobCtx, done, cfg.JobScheduleInterval, func() {
		if err := scheduler.CheckDeadlines(jobCtx, time.Now()); err != nil {
			logger.Error("check deadlines", "error", err)
		}
	})

	go tickerLoop(jobCtx, done, cfg.JobLiveInterval, func() {
		if _, err := dataGateway.UpdateAllData(jobCtx, false); err != nil {
			logger.Error("update all data", "error", err)
		}
	})

	go tickerLoop(jobCtx, done, cfg.JobPreKickoffLead, func() {
		if err := scheduler.PricePulse(jobCtx, "pre"); err != nil {
			logger.Error("price pulse", "error", err)
		}
	})

	go tickerLoop(jobCtx, done, 24*time.Hour, func() {
		if err := scheduler.DailyRefresh(jobCtx); err != nil {
			logger.Error("daily refresh", "error", err)
		}
		if err := scheduler.WeeklyReview(jobCtx, time.Now()); err != nil {
			logger.Error("weekly review", "error", err)
		}
	})

	return func() {
		cancel()
		for i := 0; i < 4; i++ {
			<-done
		}
	}
}

func tickerLoop(ctx context.Context, done chan<- struct{}, interval time.Duration, fn func()) {
	defer func() { done <- struct{}{} }()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// newHealthServer exposes the orchestrator's aggregate status for
// container liveness/readiness probes - ron has no other HTTP surface.
func newHealthServer(addr string, orchestrator *agent.Orchestrator) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		status := orchestrator.Status()
		if status.HealthyAgents < status.TotalAgents {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return &http.Server{Addr: addr, Handler: mux}
}

// slogToZapLevel maps config.Config.LogLevel (slog) onto the zap-backed level this process's logger needs - the two
// logging packages were never meant to interoperate, so this is the one
// conversion seam between them.
func slogToZapLevel(level slog.Level) logging.Level {
	switch {
	case level <= slog.LevelDebug:
		return logging.LevelDebug
	case level < slog.LevelWarn:
		return logging.LevelInfo
	case level < slog.LevelError:
		return logging.LevelWarn
	default:
		return logging.LevelError
	}
}
