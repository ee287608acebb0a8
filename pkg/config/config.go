package config

import (
	"errors"
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

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Registration RegistrationConfig
	Grading      GradingConfig
	TermClock    TermClockConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// RegistrationConfig tunes the eligibility resolver and section allocator.
type RegistrationConfig struct {
	EnforceEligibility    bool
	EligibilityCacheTTL   time.Duration
	GeneralDepartmentCode string
}

// GradingConfig holds score maxima defaults and finalization fan-out.
type GradingConfig struct {
	DefaultCourseworkMax int
	DefaultExamMax       int
	FinalizeConcurrency  int
}

// TermClockConfig is the fallback used until a term clock row is persisted.
type TermClockConfig struct {
	AcademicYear     string
	Term             string
	RegistrationOpen bool
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_CACHE"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Registration = RegistrationConfig{
		EnforceEligibility:    v.GetBool("REGISTRATION_ENFORCE_ELIGIBILITY"),
		EligibilityCacheTTL:   parseDuration(v.GetString("ELIGIBILITY_CACHE_TTL"), 5*time.Minute),
		GeneralDepartmentCode: strings.ToUpper(strings.TrimSpace(v.GetString("GENERAL_DEPARTMENT_CODE"))),
	}

	cfg.Grading = GradingConfig{
		DefaultCourseworkMax: v.GetInt("GRADING_DEFAULT_COURSEWORK_MAX"),
		DefaultExamMax:       v.GetInt("GRADING_DEFAULT_EXAM_MAX"),
		FinalizeConcurrency:  v.GetInt("GRADING_FINALIZE_CONCURRENCY"),
	}
	if cfg.Grading.FinalizeConcurrency <= 0 {
		cfg.Grading.FinalizeConcurrency = 1
	}

	cfg.TermClock = TermClockConfig{
		AcademicYear:     strings.TrimSpace(v.GetString("TERM_CLOCK_ACADEMIC_YEAR")),
		Term:             strings.ToLower(strings.TrimSpace(v.GetString("TERM_CLOCK_TERM"))),
		RegistrationOpen: v.GetBool("TERM_CLOCK_REGISTRATION_OPEN"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sis")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("REGISTRATION_ENFORCE_ELIGIBILITY", true)
	v.SetDefault("ELIGIBILITY_CACHE_TTL", "5m")
	v.SetDefault("GENERAL_DEPARTMENT_CODE", "GEN")

	v.SetDefault("GRADING_DEFAULT_COURSEWORK_MAX", 50)
	v.SetDefault("GRADING_DEFAULT_EXAM_MAX", 50)
	v.SetDefault("GRADING_FINALIZE_CONCURRENCY", 4)

	v.SetDefault("TERM_CLOCK_ACADEMIC_YEAR", "2024-2025")
	v.SetDefault("TERM_CLOCK_TERM", "fall")
	v.SetDefault("TERM_CLOCK_REGISTRATION_OPEN", false)
}

// isMissingFile reports whether viper failed only because .env is absent.
func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
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
