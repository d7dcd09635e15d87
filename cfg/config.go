package cfg

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/bots-empire/ytrelay-bot/internal/model"
)

const (
	defaultMetricsPort    = "7011"
	defaultCacheTTL       = 7 * 24 * time.Hour
	defaultSweepInterval  = time.Hour
	defaultStaleAfter     = 6 * time.Hour
	defaultRatePerMinute  = 6
	defaultRateBurst      = 3
	defaultPollingTimeout = 60
)

// Config is built once at startup and only read afterwards.
type Config struct {
	Telegram   TelegramConfig
	Download   DownloadConfig
	Redis      RedisConfig
	Metrics    MetricsConfig
	Limits     LimitsConfig
	Developers []int64
	LogLevel   string
}

type TelegramConfig struct {
	BotToken       string
	Debug          bool
	PollingTimeout int
}

type DownloadConfig struct {
	WorkDir       string
	Ladder        model.QualityLadder
	Timeout       time.Duration
	InstallYtdlp  bool
	SweepInterval time.Duration
	StaleAfter    time.Duration
}

// RedisConfig enables the file_id cache when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// MetricsConfig: an empty Port disables the /metrics listener.
type MetricsConfig struct {
	Port string
}

// LimitsConfig: PerMinute <= 0 disables per-chat limiting.
type LimitsConfig struct {
	PerMinute int
	Burst     int
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (*Config, error) {
	env := &envReader{getenv: getenv}

	ladder := model.DefaultQualityLadder()
	ladder.Primary.Format = env.str("QUALITY_PRIMARY", ladder.Primary.Format)
	ladder.Fallback.Format = env.str("QUALITY_FALLBACK", ladder.Fallback.Format)

	config := &Config{
		Telegram: TelegramConfig{
			BotToken:       strings.TrimSpace(getenv("TELEGRAM_BOT_TOKEN")),
			Debug:          env.boolean("TELEGRAM_DEBUG", false),
			PollingTimeout: env.integer("TELEGRAM_POLLING_TIMEOUT", defaultPollingTimeout),
		},
		Download: DownloadConfig{
			WorkDir:       env.str("WORK_DIR", os.TempDir()),
			Ladder:        ladder,
			Timeout:       env.duration("DOWNLOAD_TIMEOUT", 0),
			InstallYtdlp:  env.boolean("YTDLP_INSTALL", false),
			SweepInterval: env.duration("SWEEP_INTERVAL", defaultSweepInterval),
			StaleAfter:    env.duration("SWEEP_STALE_AFTER", defaultStaleAfter),
		},
		Redis: RedisConfig{
			Addr:     env.str("REDIS_ADDR", ""),
			Password: env.str("REDIS_PASSWORD", ""),
			DB:       env.integer("REDIS_DB", 0),
			TTL:      env.duration("CACHE_TTL", defaultCacheTTL),
		},
		Metrics: MetricsConfig{
			Port: env.optional("METRICS_PORT", defaultMetricsPort),
		},
		Limits: LimitsConfig{
			PerMinute: env.integer("RATE_PER_MINUTE", defaultRatePerMinute),
			Burst:     env.integer("RATE_BURST", defaultRateBurst),
		},
		Developers: env.int64List("DEVELOPER_CHAT_IDS"),
		LogLevel:   env.str("LOG_LEVEL", "info"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if env.err != nil {
		return nil, env.err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return errors.Wrap(model.ErrConfigurationMissing,
			"TELEGRAM_BOT_TOKEN environment variable is not set, get a token from @BotFather")
	}

	if c.Download.Timeout < 0 {
		return errors.New("DOWNLOAD_TIMEOUT must not be negative")
	}

	if c.Download.SweepInterval <= 0 {
		return errors.New("SWEEP_INTERVAL must be positive")
	}

	return nil
}

// envReader keeps the first parse error so FromEnv can report it once.
type envReader struct {
	getenv func(string) string
	err    error
}

func (e *envReader) str(key, defaultValue string) string {
	if value := strings.TrimSpace(e.getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// optional differs from str in that an explicitly set "off" clears the value.
func (e *envReader) optional(key, defaultValue string) string {
	value := strings.TrimSpace(e.getenv(key))
	switch strings.ToLower(value) {
	case "":
		return defaultValue
	case "off", "none", "disabled":
		return ""
	}
	return value
}

func (e *envReader) integer(key string, defaultValue int) int {
	value := strings.TrimSpace(e.getenv(key))
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		e.fail(errors.Wrapf(err, "parse %s", key))
		return defaultValue
	}
	return parsed
}

func (e *envReader) boolean(key string, defaultValue bool) bool {
	value := strings.TrimSpace(e.getenv(key))
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		e.fail(errors.Wrapf(err, "parse %s", key))
		return defaultValue
	}
	return parsed
}

func (e *envReader) duration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(e.getenv(key))
	if value == "" {
		return defaultValue
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		e.fail(errors.Wrapf(err, "parse %s", key))
		return defaultValue
	}
	return parsed
}

func (e *envReader) int64List(key string) []int64 {
	value := strings.TrimSpace(e.getenv(key))
	if value == "" {
		return nil
	}

	var ids []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			e.fail(errors.Wrapf(err, "parse %s", key))
			return nil
		}
		ids = append(ids, id)
	}
	return ids
}

func (e *envReader) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}
