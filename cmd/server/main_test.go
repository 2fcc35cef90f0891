package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"dexscreener-extractor/internal/bot"
	"dexscreener-extractor/internal/browser"
	"dexscreener-extractor/internal/config"
	"dexscreener-extractor/internal/job"
	"dexscreener-extractor/pkg/tracing"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := stubServerDeps()
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func TestOpenBrowserDefaultsToHTTP(t *testing.T) {
	b, err := openBrowser(context.Background(), &config.Config{BrowserMode: "http"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := b.(*browser.HTTPBrowser); !ok {
		t.Fatalf("expected HTTP browser, got %T", b)
	}
}

func stubServerDeps() func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origSetupLogging := setupLoggingFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewBrowser := newBrowserFunc
	origStartScheduler := startSchedulerFunc
	origStartTelegram := startTelegramBotFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{HTTPAddr: ":0", BrowserMode: "http", TargetURL: "https://dexscreener.com/", ExportDir: os.TempDir()}
	}
	setupLoggingFunc = func(string) *log.Logger { return log.Default() }
	initPostgresFunc = func(context.Context, string) error { return nil }
	initRedisFunc = func(context.Context, string) (*redis.Client, error) {
		return nil, errors.New("no redis in tests")
	}
	initTracerFunc = func(ctx context.Context, opts tracing.Options) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newBrowserFunc = func(context.Context, *config.Config) (browser.Browser, error) {
		return browser.NewHTTPBrowser(nil), nil
	}
	startSchedulerFunc = func(*job.Scheduler, context.Context) {}
	startTelegramBotFunc = func(string, bot.ControlPanel) {}
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		setupLoggingFunc = origSetupLogging
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newBrowserFunc = origNewBrowser
		startSchedulerFunc = origStartScheduler
		startTelegramBotFunc = origStartTelegram
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}
}
