package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Paths       PathsConfig     `toml:"paths"`
	Analyzer    AnalyzerConfig  `toml:"analyzer"`
	Heygen      HeygenConfig    `toml:"heygen"`
	Renderer    RendererConfig  `toml:"renderer"`
	Copy        CopyConfig      `toml:"copy"`
	Cleanup     CleanupConfig   `toml:"cleanup"`
	Logging     LoggingConfig   `toml:"logging"`
	WebSocket   WebSocketConfig `toml:"websocket"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host" validate:"required"`
}

type StorageConfig struct {
	Type   string       `toml:"type" validate:"oneof=memory badger"` // Job store backend
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// PathsConfig holds the working directories for uploads and rendered videos
type PathsConfig struct {
	Uploads string `toml:"uploads" validate:"required"`
	Outputs string `toml:"outputs" validate:"required"`
}

// AnalyzerConfig controls product page fetching and image download
type AnalyzerConfig struct {
	UserAgent      string `toml:"user_agent"`
	RequestTimeout string `toml:"request_timeout"` // e.g. "18s" - product page fetch timeout
	ImageTimeout   string `toml:"image_timeout"`   // e.g. "12s" - product image fetch timeout
	MinImageBytes  int64  `toml:"min_image_bytes"` // Reject tracking pixels / placeholders below this
	RateLimit      int    `toml:"rate_limit"`      // Outbound fetches per second
}

// HeygenConfig controls the external avatar-video service client
type HeygenConfig struct {
	BaseURL         string `toml:"base_url"`
	UploadURL       string `toml:"upload_url"`
	RequestTimeout  string `toml:"request_timeout"`  // Upload/create/poll call timeout
	DownloadTimeout string `toml:"download_timeout"` // Result download timeout (multi-MB payload)
	PollInterval    string `toml:"poll_interval"`    // Sleep between status polls
	MaxPolls        int    `toml:"max_polls"`        // Poll ceiling; interval*max is the wall-clock cap
	RateLimit       int    `toml:"rate_limit"`       // API calls per second
}

// RendererConfig controls the local ffmpeg fallback renderer
type RendererConfig struct {
	FFmpegPath       string `toml:"ffmpeg_path"`
	Timeout          string `toml:"timeout"`             // Subprocess timeout, e.g. "120s"
	TargetDuration   int    `toml:"target_duration"`     // Slideshow target length in seconds
	MinImageDuration int    `toml:"min_image_duration"`  // Floor per image in seconds
	MinOutputBytes   int64  `toml:"min_output_bytes"`    // Sanity threshold for the rendered file
	Watermark        string `toml:"watermark"`           // Small persistent overlay text
}

// CopyConfig controls script generation
type CopyConfig struct {
	Seed int64 `toml:"seed"` // Random seed for template selection; 0 = time-based
}

// CleanupConfig controls the stale upload sweeper
type CleanupConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule format
	MaxAge   string `toml:"max_age"`  // e.g. "24h" - uploads older than this are removed
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs
}

// WebSocketConfig controls the live job event / log feed
type WebSocketConfig struct {
	MinLevel        string   `toml:"min_level"`        // Minimum log level broadcast to clients
	ExcludePatterns []string `toml:"exclude_patterns"` // Log messages containing these are not broadcast
}

// NewDefaultConfig returns the built-in defaults, mirroring the original
// service's constants (timeouts, poll bounds, output dimensions live in code).
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8090,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Type: "memory",
			Badger: BadgerConfig{
				Path:           "./data/autovis",
				ResetOnStartup: false,
			},
		},
		Paths: PathsConfig{
			Uploads: "./uploads",
			Outputs: "./outputs",
		},
		Analyzer: AnalyzerConfig{
			UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) " +
				"AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			RequestTimeout: "18s",
			ImageTimeout:   "12s",
			MinImageBytes:  1000,
			RateLimit:      5,
		},
		Heygen: HeygenConfig{
			BaseURL:         "https://api.heygen.com",
			UploadURL:       "https://upload.heygen.com",
			RequestTimeout:  "30s",
			DownloadTimeout: "180s",
			PollInterval:    "8s",
			MaxPolls:        80,
			RateLimit:       5,
		},
		Renderer: RendererConfig{
			FFmpegPath:       "ffmpeg",
			Timeout:          "120s",
			TargetDuration:   25,
			MinImageDuration: 4,
			MinOutputBytes:   4096,
			Watermark:        "AutoVis AI",
		},
		Copy: CopyConfig{
			Seed: 0,
		},
		Cleanup: CleanupConfig{
			Enabled:  true,
			Schedule: "0 * * * *",
			MaxAge:   "24h",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		WebSocket: WebSocketConfig{
			MinLevel: "info",
			ExcludePatterns: []string{
				"HTTP request",
				"HTTP response",
				"WebSocket client connected",
				"WebSocket client disconnected",
			},
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env. Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks structural constraints on the configuration
func Validate(config *Config) error {
	v := validator.New()
	if err := v.Struct(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("AUTOVIS_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("AUTOVIS_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("AUTOVIS_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if storageType := os.Getenv("AUTOVIS_STORAGE_TYPE"); storageType != "" {
		config.Storage.Type = storageType
	}
	if badgerPath := os.Getenv("AUTOVIS_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if uploads := os.Getenv("AUTOVIS_UPLOADS_DIR"); uploads != "" {
		config.Paths.Uploads = uploads
	}
	if outputs := os.Getenv("AUTOVIS_OUTPUTS_DIR"); outputs != "" {
		config.Paths.Outputs = outputs
	}

	if userAgent := os.Getenv("AUTOVIS_ANALYZER_USER_AGENT"); userAgent != "" {
		config.Analyzer.UserAgent = userAgent
	}
	if timeout := os.Getenv("AUTOVIS_ANALYZER_REQUEST_TIMEOUT"); timeout != "" {
		config.Analyzer.RequestTimeout = timeout
	}

	if baseURL := os.Getenv("AUTOVIS_HEYGEN_BASE_URL"); baseURL != "" {
		config.Heygen.BaseURL = baseURL
	}
	if uploadURL := os.Getenv("AUTOVIS_HEYGEN_UPLOAD_URL"); uploadURL != "" {
		config.Heygen.UploadURL = uploadURL
	}
	if maxPolls := os.Getenv("AUTOVIS_HEYGEN_MAX_POLLS"); maxPolls != "" {
		if n, err := strconv.Atoi(maxPolls); err == nil {
			config.Heygen.MaxPolls = n
		}
	}
	if interval := os.Getenv("AUTOVIS_HEYGEN_POLL_INTERVAL"); interval != "" {
		config.Heygen.PollInterval = interval
	}

	if ffmpeg := os.Getenv("AUTOVIS_FFMPEG_PATH"); ffmpeg != "" {
		config.Renderer.FFmpegPath = ffmpeg
	}
	if timeout := os.Getenv("AUTOVIS_RENDERER_TIMEOUT"); timeout != "" {
		config.Renderer.Timeout = timeout
	}

	if seed := os.Getenv("AUTOVIS_COPY_SEED"); seed != "" {
		if s, err := strconv.ParseInt(seed, 10, 64); err == nil {
			config.Copy.Seed = s
		}
	}

	if level := os.Getenv("AUTOVIS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// DurationOr parses a duration string, returning fallback on empty or invalid input
func DurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
