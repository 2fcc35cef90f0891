package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"dexscreener-extractor/cmd/dexctl/commands"
	"dexscreener-extractor/internal/config"
	"dexscreener-extractor/internal/logging"

	"github.com/joho/godotenv"
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	executeFunc    = commands.ExecuteContext
)

func main() {
	loadEnvFunc()
	// Config warnings are meant for the daemon.
	logging.Setup("error")
	cfg := loadConfigFunc()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	executeFunc(ctx, commands.Options{APIURL: cfg.ControlAPIURL, APIKey: cfg.APIKey})
}
