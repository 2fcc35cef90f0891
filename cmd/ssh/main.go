package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"dexscreener-extractor/internal/config"
	"dexscreener-extractor/internal/logging"
	"dexscreener-extractor/internal/panel"
	"dexscreener-extractor/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	wishlogging "github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	gossh "golang.org/x/crypto/ssh"
)

var (
	loadEnvFunc       = godotenv.Load
	loadConfigFunc    = config.Load
	setupLoggingFunc  = logging.Setup
	newRemoteFunc     = panel.NewRemote
	newWishServerFunc = wish.NewServer
	setupSignalNotify = ossignal.Notify
	waitForSignalFunc = func(quit <-chan os.Signal) { <-quit }
)

// allowKeys accepts a public key when its SHA256 fingerprint is listed.
func allowKeys(fingerprints []string) func(ctx ssh.Context, key ssh.PublicKey) bool {
	allowed := make(map[string]struct{}, len(fingerprints))
	for _, fp := range fingerprints {
		allowed[fp] = struct{}{}
	}
	logger := logging.For("ssh")
	return func(ctx ssh.Context, key ssh.PublicKey) bool {
		fingerprint := gossh.FingerprintSHA256(key)
		if _, ok := allowed[fingerprint]; !ok {
			logger.Warn("SSH auth denied", "fingerprint", fingerprint)
			return false
		}
		logger.Info("SSH auth accepted", "fingerprint", fingerprint)
		return true
	}
}

func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()
	setupLoggingFunc(cfg.LogLevel)
	logger := logging.For("ssh")

	if len(cfg.SSHAllowedFingerprints) == 0 {
		logger.Warn("SSH_ALLOWED_FINGERPRINTS is empty, every key will be rejected")
	}

	remote := newRemoteFunc(cfg.ControlAPIURL, cfg.APIKey, nil)
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.SSHPort)

	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(allowKeys(cfg.SSHAllowedFingerprints)),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				p := panel.New(remote, remote, panel.DefaultRevert)
				model := tui.NewModel(p)
				pty, _, _ := s.Pty()
				model.SetSize(pty.Window.Width, pty.Window.Height)
				return model, []tea.ProgramOption{tea.WithAltScreen()}
			}),
			wishlogging.Middleware(),
		),
	)
	if err != nil {
		log.Fatal("failed to create SSH server", "err", err)
	}

	if srv != nil {
		go func() {
			logger.Info("SSH control panel listening", "addr", addr, "control_api", cfg.ControlAPIURL)
			if err := srv.ListenAndServe(); err != nil && err != ssh.ErrServerClosed {
				logger.Error("SSH server stopped", "err", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	logger.Info("shutting down SSH server")

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("SSH server shutdown error", "err", err)
		}
	}

	logger.Info("SSH server exited")
}
