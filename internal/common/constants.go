package common

// Environment variable keys
const (
	EnvConfigFile      = "CONFIG_FILE"
	EnvModelPath       = "MODEL_PATH"
	EnvONNXLibraryPath = "ONNX_LIBRARY_PATH"
	EnvHTTPPort        = "HTTP_PORT"
	EnvMetricsPort     = "METRICS_PORT"
	EnvDataPath        = "DATA_PATH"
	EnvCacheSize       = "CACHE_SIZE"
	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvRequestTimeout  = "REQUEST_TIMEOUT"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
	EnvLogFile         = "LOG_FILE"
	EnvAllowedOrigins  = "ALLOWED_ORIGINS"
	EnvHistoryLimit    = "HISTORY_LIMIT"
)

// Configuration defaults
const (
	DefaultModelPath      = "models/wine_model.json"
	DefaultHTTPPort       = 8501
	DefaultMetricsPort    = 8080
	DefaultCacheSize      = 1024
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "console"
	DefaultHistoryLimit   = 50
	DefaultAllowedOrigins = "*"
)

// Log formats
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Validation constants
const (
	MinPort         = 1024
	MaxPort         = 65535
	MaxCacheSize    = 1_000_000
	MaxHistoryLimit = 1000
)

// History store
const (
	HistoryFileName = "wine-history.db"
	HistoryBucket   = "classifications"
)
