package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"wine-classifier/internal/common"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	ModelPath       string
	ONNXLibraryPath string
	HTTPPort        int
	MetricsPort     int
	DataPath        string // empty disables classification history
	CacheSize       int    // 0 disables the prediction cache
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	LogLevel        string
	LogFormat       string
	LogFile         string
	AllowedOrigins  []string
	HistoryLimit    int
}

type ConfigFile struct {
	Model struct {
		Path            string `yaml:"path"`
		ONNXLibraryPath string `yaml:"onnxLibraryPath"`
		CacheSize       *int   `yaml:"cacheSize"`
	} `yaml:"model"`

	Server struct {
		HTTPPort       int      `yaml:"httpPort"`
		ReadTimeout    string   `yaml:"readTimeout"`
		WriteTimeout   string   `yaml:"writeTimeout"`
		RequestTimeout string   `yaml:"requestTimeout"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`

	History struct {
		DataPath string `yaml:"dataPath"`
		Limit    int    `yaml:"limit"`
	} `yaml:"history"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		File   string `yaml:"file"`
	} `yaml:"logging"`

	System struct {
		MetricsPort int `yaml:"metricsPort"`
	} `yaml:"system"`
}

// Load reads .env if present, then CONFIG_FILE when set, else the environment.
func Load() (Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to read .env file, continuing with environment variables")
	}

	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	cacheSize := common.DefaultCacheSize
	if config.Model.CacheSize != nil {
		cacheSize = *config.Model.CacheSize
	}

	settings := Settings{
		ModelPath:       getEnvOrDefault(common.EnvModelPath, orDefault(config.Model.Path, common.DefaultModelPath)),
		ONNXLibraryPath: getEnvOrDefault(common.EnvONNXLibraryPath, config.Model.ONNXLibraryPath),
		HTTPPort:        getIntOrDefault(common.EnvHTTPPort, orDefault(config.Server.HTTPPort, common.DefaultHTTPPort)),
		MetricsPort:     getIntOrDefault(common.EnvMetricsPort, orDefault(config.System.MetricsPort, common.DefaultMetricsPort)),
		DataPath:        getEnvOrDefault(common.EnvDataPath, config.History.DataPath),
		CacheSize:       getIntOrDefault(common.EnvCacheSize, cacheSize),
		ReadTimeout:     getDurationOrDefault(common.EnvReadTimeout, parseDuration(config.Server.ReadTimeout, 10*time.Second)),
		WriteTimeout:    getDurationOrDefault(common.EnvWriteTimeout, parseDuration(config.Server.WriteTimeout, 10*time.Second)),
		RequestTimeout:  getDurationOrDefault(common.EnvRequestTimeout, parseDuration(config.Server.RequestTimeout, 5*time.Second)),
		LogLevel:        getEnvOrDefault(common.EnvLogLevel, orDefault(config.Logging.Level, common.DefaultLogLevel)),
		LogFormat:       getEnvOrDefault(common.EnvLogFormat, orDefault(config.Logging.Format, common.DefaultLogFormat)),
		LogFile:         getEnvOrDefault(common.EnvLogFile, config.Logging.File),
		AllowedOrigins:  getOriginsFromEnvOrConfig(config.Server.AllowedOrigins),
		HistoryLimit:    getIntOrDefault(common.EnvHistoryLimit, orDefault(config.History.Limit, common.DefaultHistoryLimit)),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		ModelPath:       getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		ONNXLibraryPath: os.Getenv(common.EnvONNXLibraryPath), // optional
		HTTPPort:        getIntOrDefault(common.EnvHTTPPort, common.DefaultHTTPPort),
		MetricsPort:     getIntOrDefault(common.EnvMetricsPort, common.DefaultMetricsPort),
		DataPath:        os.Getenv(common.EnvDataPath), // optional
		CacheSize:       getIntOrDefault(common.EnvCacheSize, common.DefaultCacheSize),
		ReadTimeout:     getDurationOrDefault(common.EnvReadTimeout, 10*time.Second),
		WriteTimeout:    getDurationOrDefault(common.EnvWriteTimeout, 10*time.Second),
		RequestTimeout:  getDurationOrDefault(common.EnvRequestTimeout, 5*time.Second),
		LogLevel:        getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		LogFormat:       getEnvOrDefault(common.EnvLogFormat, common.DefaultLogFormat),
		LogFile:         os.Getenv(common.EnvLogFile),
		AllowedOrigins:  splitOrDefault(os.Getenv(common.EnvAllowedOrigins), []string{common.DefaultAllowedOrigins}),
		HistoryLimit:    getIntOrDefault(common.EnvHistoryLimit, common.DefaultHistoryLimit),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// HistoryEnabled reports whether classifications are persisted.
func (s *Settings) HistoryEnabled() bool {
	return s.DataPath != ""
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

func parseDuration(v string, def time.Duration) time.Duration {
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func splitOrDefault(v string, def []string) []string {
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func getOriginsFromEnvOrConfig(configOrigins []string) []string {
	if env := os.Getenv(common.EnvAllowedOrigins); env != "" {
		return splitOrDefault(env, []string{common.DefaultAllowedOrigins})
	}
	if len(configOrigins) > 0 {
		return configOrigins
	}
	return []string{common.DefaultAllowedOrigins}
}

// validateSettings performs range validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.ModelPath == "" {
		return fmt.Errorf("model path cannot be empty")
	}

	if settings.HTTPPort < common.MinPort || settings.HTTPPort > common.MaxPort {
		return fmt.Errorf("HTTP port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.HTTPPort)
	}
	if settings.MetricsPort < common.MinPort || settings.MetricsPort > common.MaxPort {
		return fmt.Errorf("metrics port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.MetricsPort)
	}
	if settings.HTTPPort == settings.MetricsPort {
		return fmt.Errorf("HTTP port and metrics port must differ, both are %d", settings.HTTPPort)
	}

	if settings.ReadTimeout < time.Second || settings.ReadTimeout > 5*time.Minute {
		return fmt.Errorf("read timeout must be between 1s and 5m, got %v", settings.ReadTimeout)
	}
	if settings.WriteTimeout < time.Second || settings.WriteTimeout > 5*time.Minute {
		return fmt.Errorf("write timeout must be between 1s and 5m, got %v", settings.WriteTimeout)
	}
	if settings.RequestTimeout < 100*time.Millisecond || settings.RequestTimeout > time.Minute {
		return fmt.Errorf("request timeout must be between 100ms and 1m, got %v", settings.RequestTimeout)
	}

	if settings.CacheSize < 0 || settings.CacheSize > common.MaxCacheSize {
		return fmt.Errorf("cache size must be between 0 and %d, got %d", common.MaxCacheSize, settings.CacheSize)
	}
	if settings.HistoryLimit <= 0 || settings.HistoryLimit > common.MaxHistoryLimit {
		return fmt.Errorf("history limit must be between 1 and %d, got %d", common.MaxHistoryLimit, settings.HistoryLimit)
	}

	switch settings.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of trace, debug, info, warn, error, got %q", settings.LogLevel)
	}
	switch settings.LogFormat {
	case common.LogFormatConsole, common.LogFormatJSON:
	default:
		return fmt.Errorf("log format must be %q or %q, got %q", common.LogFormatConsole, common.LogFormatJSON, settings.LogFormat)
	}

	if len(settings.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	return nil
}
