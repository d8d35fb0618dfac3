package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Redis        RedisConfig
	CacheEnabled bool
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Sources      SourcesConfig
	Analysis     AnalysisConfig
	Warmup       WarmupConfig
	Analytics    AnalyticsConfig
	Reports      ReportsConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SourcesConfig lists the published CSV feeds. An empty URL marks a feed
// that is not wired up yet and loads as an empty data set.
type SourcesConfig struct {
	Practice         string
	PracticeSessions string
	Quiz             string
	Video            string
	Math             string
	Identity         []string
	Timezone         string
	FetchTimeout     time.Duration
	SnapshotTTL      time.Duration
}

// AnalysisConfig configures the generative-text upstream.
type AnalysisConfig struct {
	Enabled         bool
	APIKey          string
	Model           string
	Endpoint        string
	Timeout         time.Duration
	MaxOutputTokens int
	Temperature     float64
}

// WarmupConfig controls background snapshot priming.
type WarmupConfig struct {
	Enabled    bool
	Workers    int
	Retries    int
	RetryDelay time.Duration
	Interval   time.Duration
}

// AnalyticsConfig tunes the chart derivations.
type AnalyticsConfig struct {
	MovingAverageWindow int
	HistogramBins       int
	TopVideos           int
	TrendWeeks          int
	MissionPageSize     int
}

// ReportsConfig toggles the summary export endpoint.
type ReportsConfig struct {
	Enabled  bool
	Title    string
	FontPath string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}
	cfg.CacheEnabled = v.GetBool("CACHE_ENABLED")

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	practiceURL := strings.TrimSpace(v.GetString("CSV_PRACTICE_URL"))
	identity := splitAndTrim(v.GetString("IDENTITY_SOURCES"))
	if len(identity) == 0 && practiceURL != "" {
		identity = []string{practiceURL}
	}
	cfg.Sources = SourcesConfig{
		Practice:         practiceURL,
		PracticeSessions: strings.TrimSpace(v.GetString("CSV_PRACTICE_SESSIONS_URL")),
		Quiz:             strings.TrimSpace(v.GetString("CSV_QUIZ_URL")),
		Video:            strings.TrimSpace(v.GetString("CSV_VIDEO_URL")),
		Math:             strings.TrimSpace(v.GetString("CSV_MATH_URL")),
		Identity:         identity,
		Timezone:         v.GetString("SOURCES_TIMEZONE"),
		FetchTimeout:     parseDuration(v.GetString("SOURCES_FETCH_TIMEOUT"), 15*time.Second),
		SnapshotTTL:      parseDuration(v.GetString("SOURCES_SNAPSHOT_TTL"), 5*time.Minute),
	}

	cfg.Analysis = AnalysisConfig{
		Enabled:         v.GetBool("ENABLE_ANALYSIS"),
		APIKey:          v.GetString("GEMINI_API_KEY"),
		Model:           v.GetString("GEMINI_MODEL"),
		Endpoint:        v.GetString("GEMINI_ENDPOINT"),
		Timeout:         parseDuration(v.GetString("GEMINI_TIMEOUT"), 45*time.Second),
		MaxOutputTokens: v.GetInt("GEMINI_MAX_OUTPUT_TOKENS"),
		Temperature:     v.GetFloat64("GEMINI_TEMPERATURE"),
	}

	cfg.Warmup = WarmupConfig{
		Enabled:    v.GetBool("ENABLE_WARMUP"),
		Workers:    v.GetInt("WARMUP_WORKERS"),
		Retries:    v.GetInt("WARMUP_RETRIES"),
		RetryDelay: parseDuration(v.GetString("WARMUP_RETRY_DELAY"), 2*time.Second),
		Interval:   parseDuration(v.GetString("WARMUP_INTERVAL"), 0),
	}

	cfg.Analytics = AnalyticsConfig{
		MovingAverageWindow: v.GetInt("ANALYTICS_MOVING_AVERAGE_WINDOW"),
		HistogramBins:       v.GetInt("ANALYTICS_HISTOGRAM_BINS"),
		TopVideos:           v.GetInt("ANALYTICS_TOP_VIDEOS"),
		TrendWeeks:          v.GetInt("ANALYTICS_TREND_WEEKS"),
		MissionPageSize:     v.GetInt("ANALYTICS_MISSION_PAGE_SIZE"),
	}

	cfg.Reports = ReportsConfig{
		Enabled:  v.GetBool("ENABLE_REPORTS"),
		Title:    v.GetString("REPORTS_TITLE"),
		FontPath: v.GetString("REPORTS_FONT_PATH"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_ENABLED", false)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("JWT_ISSUER", "student-insight-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CSV_PRACTICE_URL", "")
	v.SetDefault("CSV_PRACTICE_SESSIONS_URL", "")
	v.SetDefault("CSV_QUIZ_URL", "")
	v.SetDefault("CSV_VIDEO_URL", "")
	v.SetDefault("CSV_MATH_URL", "")
	v.SetDefault("IDENTITY_SOURCES", "")
	v.SetDefault("SOURCES_TIMEZONE", "Asia/Taipei")
	v.SetDefault("SOURCES_FETCH_TIMEOUT", "15s")
	v.SetDefault("SOURCES_SNAPSHOT_TTL", "5m")

	v.SetDefault("ENABLE_ANALYSIS", true)
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("GEMINI_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta/models")
	v.SetDefault("GEMINI_TIMEOUT", "45s")
	v.SetDefault("GEMINI_MAX_OUTPUT_TOKENS", 1500)
	v.SetDefault("GEMINI_TEMPERATURE", 0.7)

	v.SetDefault("ENABLE_WARMUP", false)
	v.SetDefault("WARMUP_WORKERS", 2)
	v.SetDefault("WARMUP_RETRIES", 3)
	v.SetDefault("WARMUP_RETRY_DELAY", "2s")
	v.SetDefault("WARMUP_INTERVAL", "")

	v.SetDefault("ANALYTICS_MOVING_AVERAGE_WINDOW", 7)
	v.SetDefault("ANALYTICS_HISTOGRAM_BINS", 10)
	v.SetDefault("ANALYTICS_TOP_VIDEOS", 5)
	v.SetDefault("ANALYTICS_TREND_WEEKS", 6)
	v.SetDefault("ANALYTICS_MISSION_PAGE_SIZE", 5)

	v.SetDefault("ENABLE_REPORTS", true)
	v.SetDefault("REPORTS_TITLE", "Student Learning Summary")
	v.SetDefault("REPORTS_FONT_PATH", "")
}

// Location resolves the configured timezone, falling back to UTC+8 when the
// zone database is unavailable.
func (s SourcesConfig) Location() *time.Location {
	name := strings.TrimSpace(s.Timezone)
	if name == "" {
		return time.UTC
	}
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.FixedZone(name, 8*60*60)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
