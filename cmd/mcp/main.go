package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dexscreener-extractor/internal/config"
	"dexscreener-extractor/internal/logging"
	"dexscreener-extractor/internal/panel"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	// stdout carries the protocol on stdio, so logs go to stderr.
	setupLoggingFunc = logging.Setup
	runStdioFunc     = func(ctx context.Context, s *mcp.Server) error {
		return s.Run(ctx, &mcp.StdioTransport{})
	}
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()
	setupLoggingFunc(cfg.LogLevel)
	logger := logging.For("mcp")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := newServer(panel.NewRemote(cfg.ControlAPIURL, cfg.APIKey, nil))

	if cfg.MCPTransport != "http" {
		logger.Info("serving MCP on stdio", "control_api", cfg.ControlAPIURL)
		if err := runStdioFunc(ctx, server); err != nil && ctx.Err() == nil {
			log.Fatal("mcp server failed", "err", err)
		}
		return
	}

	addr := fmt.Sprintf("%s:%d", cfg.MCPHTTPBind, cfg.MCPHTTPPort)
	srv := &http.Server{
		Addr:    addr,
		Handler: mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil),
	}
	go func() {
		logger.Info("serving MCP over HTTP", "addr", addr, "control_api", cfg.ControlAPIURL)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen failed", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down MCP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		logger.Error("MCP server shutdown error", "err", err)
	}
}
