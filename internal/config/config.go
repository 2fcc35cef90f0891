package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

type Config struct {
	HTTPAddr    string
	APIKey      string
	RedisURL    string
	DatabaseURL string

	BrowserMode       string
	BrowserControlURL string
	TargetURL         string
	ExportDir         string
	LayoutFile        string

	SettleAfterOpen   time.Duration
	SettleAfterReload time.Duration
	CloseGrace        time.Duration
	AgentInitWait     time.Duration

	TelegramBotToken string

	SSHPort                int
	SSHHostKeyPath         string
	SSHAllowedFingerprints []string
	ControlAPIURL          string

	MCPTransport string
	MCPHTTPBind  string
	MCPHTTPPort  int

	LogLevel       string
	TracingEnabled bool
	OTLPEndpoint   string
}

func Load() *Config {
	cfg := &Config{
		APIKey:            os.Getenv("API_KEY"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		BrowserControlURL: strings.TrimSpace(os.Getenv("BROWSER_CONTROL_URL")),
		LayoutFile:        strings.TrimSpace(os.Getenv("SCRAPER_LAYOUT_FILE")),
		TelegramBotToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		OTLPEndpoint:      strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}

	cfg.HTTPAddr = strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	if cfg.APIKey == "" {
		log.Warn("API_KEY not set, control API is unauthenticated")
	}
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, batch archive disabled")
	}
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	cfg.BrowserMode = strings.ToLower(strings.TrimSpace(os.Getenv("BROWSER_MODE")))
	if cfg.BrowserMode == "" {
		cfg.BrowserMode = "http"
	}
	if cfg.BrowserMode != "http" && cfg.BrowserMode != "rod" {
		log.Warnf("unsupported BROWSER_MODE=%q, defaulting to http", cfg.BrowserMode)
		cfg.BrowserMode = "http"
	}

	cfg.TargetURL = strings.TrimSpace(os.Getenv("TARGET_URL"))
	if cfg.TargetURL == "" {
		cfg.TargetURL = "https://dexscreener.com/"
	}

	cfg.ExportDir = strings.TrimSpace(os.Getenv("EXPORT_DIR"))
	if cfg.ExportDir == "" {
		cfg.ExportDir = "exports"
	}

	cfg.SettleAfterOpen = durationMS("SETTLE_OPEN_MS", 10*time.Second)
	cfg.SettleAfterReload = durationMS("SETTLE_RELOAD_MS", 5*time.Second)
	cfg.CloseGrace = durationMS("SETTLE_CLOSE_MS", 5*time.Second)
	cfg.AgentInitWait = durationMS("SETTLE_AGENT_INIT_MS", 3*time.Second)

	cfg.SSHPort = 2222
	if v := strings.TrimSpace(os.Getenv("SSH_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SSHPort = n
		}
	}

	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/dexextract_ed25519"
	}

	for _, fp := range strings.Split(os.Getenv("SSH_ALLOWED_FINGERPRINTS"), ",") {
		if fp = strings.TrimSpace(fp); fp != "" {
			cfg.SSHAllowedFingerprints = append(cfg.SSHAllowedFingerprints, fp)
		}
	}

	cfg.ControlAPIURL = strings.TrimRight(strings.TrimSpace(os.Getenv("CONTROL_API_URL")), "/")
	if cfg.ControlAPIURL == "" {
		cfg.ControlAPIURL = "http://localhost:8080"
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Warnf("unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}

	cfg.MCPHTTPPort = 8090
	if v := strings.TrimSpace(os.Getenv("MCP_HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPHTTPPort = n
		}
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.TracingEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("TRACING_ENABLED")), "true")

	return cfg
}

func durationMS(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		log.Warnf("invalid %s=%q, using %s", key, v, def)
		return def
	}
	return time.Duration(n) * time.Millisecond
}
