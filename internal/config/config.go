package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Postgres   DBConfig         `mapstructure:"postgres"`
	Redis      RedisConfig      `mapstructure:"redis"`
	S3         S3Config         `mapstructure:"s3"`
	Logger     Logger           `mapstructure:"logger"`
	Processing ProcessingConfig `mapstructure:"processing"`
	Downloader DownloaderConfig `mapstructure:"downloader"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
}

type ServerConfig struct {
	AppVersion   string `mapstructure:"app_version"`
	Port         string `mapstructure:"port"`
	Mode         string `mapstructure:"mode"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	// EnableScheduler runs the executor loops inside the API process.
	EnableScheduler bool     `mapstructure:"enable_scheduler"`
	AllowOrigins    []string `mapstructure:"allow_origins"`
}

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
	PgDriver string `mapstructure:"pg_driver"`
}

type RedisConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	DB            int    `mapstructure:"db"`
	MinIdleConns  int    `mapstructure:"min_idle_conns"`
	PoolSize      int    `mapstructure:"pool_size"`
	PoolTimeout   int    `mapstructure:"pool_timeout"`
	UseTLS        bool   `mapstructure:"use_tls"`
	// KeyPrefix namespaces task locks and progress keys.
	KeyPrefix    string `mapstructure:"key_prefix"`
	LockTTLHours int    `mapstructure:"lock_ttl_hours" validate:"gte=0"`
}

type S3Config struct {
	Enabled        bool   `mapstructure:"enabled"`
	Endpoint       string `mapstructure:"endpoint"`
	Region         string `mapstructure:"region"`
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	Bucket         string `mapstructure:"bucket"`
	KeyPrefix      string `mapstructure:"key_prefix"`
	PresignExpireH int    `mapstructure:"presign_expire_hours"`
}

type Logger struct {
	Development       bool   `mapstructure:"development"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	Encoding          string `mapstructure:"encoding"`
	Level             string `mapstructure:"level"`
}

type ProcessingConfig struct {
	MaxConcurrentTasks        int     `mapstructure:"max_concurrent_tasks" validate:"gte=1"`
	CoreThreadPoolSize        int     `mapstructure:"core_thread_pool_size" validate:"gte=1"`
	MaxThreadPoolSize         int     `mapstructure:"max_thread_pool_size" validate:"gtefield=CoreThreadPoolSize"`
	QueueCapacity             int     `mapstructure:"queue_capacity" validate:"gte=0"`
	EnableMemoryMonitoring    bool    `mapstructure:"enable_memory_monitoring"`
	MemoryThresholdPercentage float64 `mapstructure:"memory_threshold_percentage" validate:"gt=0,lte=100"`
	MinFreeMemoryMB           int64   `mapstructure:"min_free_memory_mb" validate:"gte=0"`
	MaxFileSizeMB             int64   `mapstructure:"max_file_size_mb" validate:"gte=0"`
	EnableAdaptiveProcessing  bool    `mapstructure:"enable_adaptive_processing"`
	PerTaskMemoryMB           int64   `mapstructure:"per_task_memory_mb" validate:"gte=1"`
	ProcessingIntervalMs      int64   `mapstructure:"processing_interval_ms" validate:"gte=1000"`
	RetryIntervalMs           int64   `mapstructure:"retry_interval_ms" validate:"gte=1000"`
	StuckTaskCheckIntervalMs  int64   `mapstructure:"stuck_task_check_interval_ms" validate:"gte=1000"`
	CleanupIntervalMs         int64   `mapstructure:"cleanup_interval_ms" validate:"gte=1000"`
	StuckTaskTimeoutMinutes   int     `mapstructure:"stuck_task_timeout_minutes" validate:"gte=1"`
	CompletedRetentionDays    int     `mapstructure:"completed_task_retention_days" validate:"gte=1"`
	FailedRetentionDays       int     `mapstructure:"failed_task_retention_days" validate:"gte=1"`
}

type DownloaderConfig struct {
	YtDlpPath string `mapstructure:"ytdlp_path"`
	TempDir   string `mapstructure:"temp_dir"`
}

type TelegramConfig struct {
	Enabled               bool   `mapstructure:"enabled"`
	BotToken              string `mapstructure:"bot_token"`
	UseLocalAPI           bool   `mapstructure:"use_local_api"`
	LocalAPIURL           string `mapstructure:"local_api_url"`
	OfficialAPIURL        string `mapstructure:"official_api_url"`
	DefaultChatID         string `mapstructure:"default_chat_id"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(filename)
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if err := validator.New().Struct(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// SetDefaults registers the values used when a key is absent from both the
// config file and the environment.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.enable_scheduler", true)
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.pg_driver", "pgx")

	v.SetDefault("redis.key_prefix", "relay")
	v.SetDefault("redis.lock_ttl_hours", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.pool_timeout", 5)

	v.SetDefault("s3.key_prefix", "downloads")
	v.SetDefault("s3.presign_expire_hours", 24*7)

	v.SetDefault("logger.encoding", "json")
	v.SetDefault("logger.level", "info")

	v.SetDefault("processing.max_concurrent_tasks", 1)
	v.SetDefault("processing.core_thread_pool_size", 2)
	v.SetDefault("processing.max_thread_pool_size", 4)
	v.SetDefault("processing.queue_capacity", 20)
	v.SetDefault("processing.enable_memory_monitoring", true)
	v.SetDefault("processing.memory_threshold_percentage", 80.0)
	v.SetDefault("processing.min_free_memory_mb", 512)
	v.SetDefault("processing.max_file_size_mb", 2000)
	v.SetDefault("processing.enable_adaptive_processing", true)
	v.SetDefault("processing.per_task_memory_mb", 200)
	v.SetDefault("processing.processing_interval_ms", 30000)
	v.SetDefault("processing.retry_interval_ms", 300000)
	v.SetDefault("processing.stuck_task_check_interval_ms", 600000)
	v.SetDefault("processing.cleanup_interval_ms", 3600000)
	v.SetDefault("processing.stuck_task_timeout_minutes", 120)
	v.SetDefault("processing.completed_task_retention_days", 30)
	v.SetDefault("processing.failed_task_retention_days", 7)

	v.SetDefault("downloader.temp_dir", filepath.Join(os.TempDir(), "yt_downloads"))

	v.SetDefault("telegram.enabled", true)
	v.SetDefault("telegram.official_api_url", "https://api.telegram.org")
	v.SetDefault("telegram.local_api_url", "http://localhost:8081")
	v.SetDefault("telegram.request_timeout_seconds", 0)
}
