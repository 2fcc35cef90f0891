package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dexscreener-extractor/internal/agent"
	"dexscreener-extractor/internal/bot"
	"dexscreener-extractor/internal/browser"
	"dexscreener-extractor/internal/cache"
	"dexscreener-extractor/internal/config"
	"dexscreener-extractor/internal/db"
	"dexscreener-extractor/internal/handler"
	"dexscreener-extractor/internal/job"
	"dexscreener-extractor/internal/logging"
	"dexscreener-extractor/internal/panel"
	"dexscreener-extractor/internal/repository"
	"dexscreener-extractor/internal/scraper"
	"dexscreener-extractor/internal/store"
	"dexscreener-extractor/internal/webhook"
	"dexscreener-extractor/pkg/tracing"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "dexscreener-extractor/docs"
)

const serviceName = "dexscreener-extractor"

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	setupLoggingFunc       = logging.Setup
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newBrowserFunc         = openBrowser
	loadLayoutFunc         = scraper.LoadLayout
	startSchedulerFunc     = func(s *job.Scheduler, ctx context.Context) { go s.Start(ctx) }
	startTelegramBotFunc   = func(token string, p bot.ControlPanel) { bot.StartTelegramBot(token, p) }
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func openBrowser(ctx context.Context, cfg *config.Config) (browser.Browser, error) {
	if cfg.BrowserMode == "rod" {
		return browser.NewRodBrowser(ctx, cfg.BrowserControlURL)
	}
	return browser.NewHTTPBrowser(nil), nil
}

// @title           DEXScreener Extractor API
// @version         1.0
// @description     Control API for the DEXScreener table extractor: settings, history, pages and their control panels.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()
	setupLoggingFunc(cfg.LogLevel)
	logger := logging.For("server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Settings and history live in Redis; without it they only last for this process.
	var st store.Store
	if client, err := initRedisFunc(ctx, cfg.RedisURL); err != nil {
		logger.Warn("redis unavailable, settings will not persist", "err", err)
		st = store.NewMemoryStore()
	} else {
		st = store.NewRedisStore(client)
	}

	if err := initPostgresFunc(ctx, cfg.DatabaseURL); err != nil {
		logger.Warn("postgres unavailable, batch archive disabled", "err", err)
	}
	defer db.Close()

	tp, tracer, err := initTracerFunc(ctx, tracing.Options{
		ServiceName: serviceName,
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		log.Fatal("failed to initialize tracer", "err", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error("error shutting down tracer provider", "err", err)
		}
	}()

	var archive *repository.BatchRepository
	if db.Pool != nil {
		archive = repository.NewBatchRepository(db.Pool, tracer)
		if err := archive.RunMigrations(ctx); err != nil {
			log.Fatal("failed to run migrations", "err", err)
		}
	}

	layout, err := loadLayoutFunc(cfg.LayoutFile)
	if err != nil {
		log.Fatal("failed to load scraper layout", "err", err)
	}

	b, err := newBrowserFunc(ctx, cfg)
	if err != nil {
		log.Fatal("failed to start browser", "mode", cfg.BrowserMode, "err", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn("browser close failed", "err", err)
		}
	}()

	deps := agent.Deps{
		Store:   st,
		Scraper: scraper.New(layout, tracer),
		Sender:  webhook.New(nil, tracer),
		Tracer:  tracer,
	}
	if archive != nil {
		deps.Archiver = archive
	}
	timings := agent.DefaultTimings()
	timings.InitWait = cfg.AgentInitWait

	hub := agent.NewHub(ctx, b, deps, timings)
	defer hub.Shutdown()

	scheduler := job.NewScheduler(tracer, st, hub, cfg.TargetURL, job.Settle{
		AfterOpen:   cfg.SettleAfterOpen,
		AfterReload: cfg.SettleAfterReload,
		CloseGrace:  cfg.CloseGrace,
	})
	startSchedulerFunc(scheduler, ctx)

	startTelegramBotFunc(cfg.TelegramBotToken, panel.New(panel.FromStore(st), hub, panel.DefaultRevert))

	h := handler.New(tracer, st, hub, cfg.TargetURL, cfg.ExportDir).WithScheduler(scheduler)
	if archive != nil {
		h.WithArchive(archive)
	}

	r := newRouterFunc()
	r.Use(otelgin.Middleware(serviceName))

	h.RegisterRoutes(r, cfg.APIKey)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		logger.Info("control API listening", "addr", cfg.HTTPAddr)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	logger.Info("shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", "err", err)
	}

	logger.Info("server exiting")
}
