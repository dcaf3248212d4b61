package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type TontineConfig struct {
	Currency  string
	QuotaStep decimal.Decimal
}

type ImportConfig struct {
	WindowStart string
	WindowEnd   string
	MaxFileSize int64
}

type StorageConfig struct {
	Enabled      bool
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	PublicURL    string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Tontine     TontineConfig
	Import      ImportConfig
	Storage     StorageConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:           v.GetString("HTTP_HOST"),
			Port:           v.GetInt("HTTP_PORT"),
			AllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Tontine: TontineConfig{
			Currency: v.GetString("TONTINE_CURRENCY"),
		},
		Import: ImportConfig{
			WindowStart: v.GetString("IMPORT_WINDOW_START"),
			WindowEnd:   v.GetString("IMPORT_WINDOW_END"),
			MaxFileSize: v.GetInt64("IMPORT_MAX_FILE_SIZE"),
		},
		Storage: StorageConfig{
			Enabled:      v.GetBool("S3_ENABLED"),
			Endpoint:     v.GetString("S3_ENDPOINT"),
			Region:       v.GetString("S3_REGION"),
			Bucket:       v.GetString("S3_BUCKET"),
			AccessKey:    v.GetString("S3_ACCESS_KEY"),
			SecretKey:    v.GetString("S3_SECRET_KEY"),
			UsePathStyle: v.GetBool("S3_USE_PATH_STYLE"),
			PublicURL:    v.GetString("S3_PUBLIC_URL"),
		},
	}

	step := strings.TrimSpace(v.GetString("TONTINE_QUOTA_ROUNDING"))
	if step == "" {
		cfg.Tontine.QuotaStep = decimal.NewFromInt(100)
	} else {
		parsed, err := decimal.NewFromString(step)
		if err != nil {
			return nil, fmt.Errorf("TONTINE_QUOTA_ROUNDING: %w", err)
		}
		cfg.Tontine.QuotaStep = parsed
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		cfg.HTTP.AllowedOrigins = []string{"*"}
	}
	if cfg.Tontine.Currency == "" {
		cfg.Tontine.Currency = "FCFA"
	}
	if cfg.Import.MaxFileSize == 0 {
		cfg.Import.MaxFileSize = 10 << 20
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ImportWindow returns the months spreadsheet payment columns may fall into.
// An unset bound is open.
func (c ImportConfig) ImportWindow() (start, end string) {
	return strings.TrimSpace(c.WindowStart), strings.TrimSpace(c.WindowEnd)
}

// ConnMaxLifetimeDuration parses DB_CONN_MAX_LIFETIME, zero when unset.
func (c DBConfig) ConnMaxLifetimeDuration() (time.Duration, error) {
	if strings.TrimSpace(c.ConnMaxLifetime) == "" {
		return 0, nil
	}
	return time.ParseDuration(c.ConnMaxLifetime)
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Tontine.QuotaStep.IsNegative() {
		return fmt.Errorf("TONTINE_QUOTA_ROUNDING must not be negative")
	}
	if _, err := cfg.DB.ConnMaxLifetimeDuration(); err != nil {
		return fmt.Errorf("DB_CONN_MAX_LIFETIME: %w", err)
	}
	if cfg.Storage.Enabled && cfg.Storage.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required when S3_ENABLED is set")
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
