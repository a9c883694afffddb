package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	JWTSecret string

	// External statement extraction service
	ExtractorBaseURL          string
	ExtractorAPIKey           string
	ExtractorTimeout          time.Duration
	ExtractorMinRowConfidence float64

	Matching         MatchingThresholds
	ReconWorkerCount int

	UploadRateLimit    string // ulule/limiter format, e.g. "10-M"
	MaxUploadSizeBytes int64

	PosthogAPIKey      string
	CORSAllowedOrigins []string
}

// MatchingThresholds are the scoring tunables as raw values. They hydrate the
// matching engine's config at wiring time; the defaults here and there agree.
type MatchingThresholds struct {
	AutoAcceptThreshold     int
	HighConfidenceMin       int
	MediumConfidenceMin     int
	AmountTolerancePct      float64
	AmountToleranceAbs      float64
	DateWindowBeforeDays    int
	DateWindowAfterDays     int
	MonthlyWindowBeforeDays int
	MonthlyWindowAfterDays  int
	MinNameSimilarity       float64
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("EXTRACTOR_BASE_URL", "")
	viper.SetDefault("EXTRACTOR_API_KEY", "")
	viper.SetDefault("EXTRACTOR_TIMEOUT", "30s")
	viper.SetDefault("EXTRACTOR_MIN_ROW_CONFIDENCE", 0.5)
	viper.SetDefault("MATCH_AUTO_ACCEPT_THRESHOLD", 80)
	viper.SetDefault("MATCH_HIGH_CONFIDENCE_MIN", 80)
	viper.SetDefault("MATCH_MEDIUM_CONFIDENCE_MIN", 50)
	viper.SetDefault("MATCH_AMOUNT_TOLERANCE_PCT", 0.02)
	viper.SetDefault("MATCH_AMOUNT_TOLERANCE_ABS", 1.0)
	viper.SetDefault("MATCH_DATE_WINDOW_BEFORE_DAYS", 3)
	viper.SetDefault("MATCH_DATE_WINDOW_AFTER_DAYS", 10)
	viper.SetDefault("MATCH_MONTHLY_WINDOW_BEFORE_DAYS", 5)
	viper.SetDefault("MATCH_MONTHLY_WINDOW_AFTER_DAYS", 15)
	viper.SetDefault("MATCH_MIN_NAME_SIMILARITY", 0.4)
	viper.SetDefault("RECON_WORKER_COUNT", 4)
	viper.SetDefault("UPLOAD_RATE_LIMIT", "10-M")
	viper.SetDefault("MAX_UPLOAD_SIZE_BYTES", 10*1024*1024)
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.ExtractorBaseURL = viper.GetString("EXTRACTOR_BASE_URL")
	if cfg.ExtractorBaseURL == "" {
		log.Println("Warning: EXTRACTOR_BASE_URL not set. Statement uploads will fail extraction.")
	}
	cfg.ExtractorAPIKey = viper.GetString("EXTRACTOR_API_KEY")
	if cfg.ExtractorAPIKey == "" {
		log.Println("Warning: EXTRACTOR_API_KEY not set.")
	}

	extractorTimeoutStr := viper.GetString("EXTRACTOR_TIMEOUT")
	extractorTimeout, err := time.ParseDuration(extractorTimeoutStr)
	if err != nil {
		extractorTimeout = 30 * time.Second
		log.Printf("Warning: Invalid value for EXTRACTOR_TIMEOUT ('%s'). Defaulting to %s.\n", extractorTimeoutStr, extractorTimeout.String())
	}
	cfg.ExtractorTimeout = extractorTimeout
	cfg.ExtractorMinRowConfidence = viper.GetFloat64("EXTRACTOR_MIN_ROW_CONFIDENCE")

	cfg.Matching = MatchingThresholds{
		AutoAcceptThreshold:     viper.GetInt("MATCH_AUTO_ACCEPT_THRESHOLD"),
		HighConfidenceMin:       viper.GetInt("MATCH_HIGH_CONFIDENCE_MIN"),
		MediumConfidenceMin:     viper.GetInt("MATCH_MEDIUM_CONFIDENCE_MIN"),
		AmountTolerancePct:      viper.GetFloat64("MATCH_AMOUNT_TOLERANCE_PCT"),
		AmountToleranceAbs:      viper.GetFloat64("MATCH_AMOUNT_TOLERANCE_ABS"),
		DateWindowBeforeDays:    viper.GetInt("MATCH_DATE_WINDOW_BEFORE_DAYS"),
		DateWindowAfterDays:     viper.GetInt("MATCH_DATE_WINDOW_AFTER_DAYS"),
		MonthlyWindowBeforeDays: viper.GetInt("MATCH_MONTHLY_WINDOW_BEFORE_DAYS"),
		MonthlyWindowAfterDays:  viper.GetInt("MATCH_MONTHLY_WINDOW_AFTER_DAYS"),
		MinNameSimilarity:       viper.GetFloat64("MATCH_MIN_NAME_SIMILARITY"),
	}

	cfg.ReconWorkerCount = viper.GetInt("RECON_WORKER_COUNT")
	if cfg.ReconWorkerCount < 1 {
		cfg.ReconWorkerCount = 1
		log.Println("Warning: RECON_WORKER_COUNT must be at least 1. Defaulting to 1.")
	}

	cfg.UploadRateLimit = viper.GetString("UPLOAD_RATE_LIMIT")
	cfg.MaxUploadSizeBytes = viper.GetInt64("MAX_UPLOAD_SIZE_BYTES")
	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")

	origins := viper.GetString("CORS_ALLOWED_ORIGINS")
	for _, origin := range strings.Split(origins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	return cfg, nil
}
