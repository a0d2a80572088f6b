package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config agrupa la configuración de los tres binarios (api, uploads, adoptctl).
// Cada binario lee solo las secciones que necesita.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
	Pets       PetsConfig       `mapstructure:"pets"`
	Promotions PromotionsConfig `mapstructure:"promotions"`
	Payments   PaymentsConfig   `mapstructure:"payments"`
	Mail       MailConfig       `mapstructure:"mail"`
	Uploads    UploadsConfig    `mapstructure:"uploads"`
	Client     ClientConfig     `mapstructure:"client"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// DevAuth habilita X-Debug-User-ID / X-Debug-Role / X-Debug-Rescue-ID (solo dev).
	DevAuth bool `mapstructure:"dev_auth"`
}

type DatabaseConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	PoolTTL  time.Duration `mapstructure:"pool_ttl"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Issuer    string        `mapstructure:"issuer"`
	ResetTTL  time.Duration `mapstructure:"reset_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type PetsConfig struct {
	PageSize    int `mapstructure:"page_size"`
	MaxPageSize int `mapstructure:"max_page_size"`
}

type PromotionsConfig struct {
	BaseFeeCents int64         `mapstructure:"base_fee_cents"`
	Currency     string        `mapstructure:"currency"`
	Duration     time.Duration `mapstructure:"duration"`
}

type PaymentsConfig struct {
	// Vacío => gateway sandbox local.
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type MailConfig struct {
	From      string `mapstructure:"from"`
	SESRegion string `mapstructure:"ses_region"`
	ResetURL  string `mapstructure:"reset_url"`
}

type UploadsConfig struct {
	Addr      string `mapstructure:"addr"`
	Dir       string `mapstructure:"dir"`
	IndexPath string `mapstructure:"index_path"`
	// PublicURL es la URL base con la que se construyen las URLs devueltas por /upload.
	PublicURL string `mapstructure:"public_url"`
	MaxBytes  int64  `mapstructure:"max_bytes"`
}

type ClientConfig struct {
	APIBaseURL string        `mapstructure:"api_base_url"`
	Token      string        `mapstructure:"token"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

const envPrefix = "ADOPT"

// Load lee defaults, un config.yaml opcional y variables de entorno ADOPT_*.
// Antes intenta cargar un .env (si existe) para entornos locales.
func Load(path string) (*Config, error) {
	loadDotEnv()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default devuelve la configuración por defecto sin leer entorno (tests).
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "pet-adoption-api")
	v.SetDefault("app.environment", "development")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 5*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("http.dev_auth", false)

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_ttl", 60*time.Second)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.issuer", "pet-adoption-api")
	v.SetDefault("auth.reset_ttl", time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("pets.page_size", 12)
	v.SetDefault("pets.max_page_size", 50)

	v.SetDefault("promotions.base_fee_cents", 500)
	v.SetDefault("promotions.currency", "USD")
	v.SetDefault("promotions.duration", 30*24*time.Hour)

	v.SetDefault("payments.timeout", 10*time.Second)

	v.SetDefault("mail.from", "no-reply@pet-adoption.local")
	v.SetDefault("mail.reset_url", "http://localhost:3000/reset-password")

	v.SetDefault("uploads.addr", ":5001")
	v.SetDefault("uploads.dir", "./uploads")
	v.SetDefault("uploads.index_path", "./uploads/index.db")
	v.SetDefault("uploads.public_url", "http://localhost:5001")
	v.SetDefault("uploads.max_bytes", 5<<20)

	v.SetDefault("client.api_base_url", "http://localhost:8080/api/v1")
	v.SetDefault("client.timeout", 10*time.Second)
}

func (c *Config) Validate() error {
	if c.Pets.PageSize <= 0 || c.Pets.MaxPageSize < c.Pets.PageSize {
		return errors.New("pets.page_size must be > 0 and <= pets.max_page_size")
	}
	if c.Promotions.BaseFeeCents < 0 {
		return errors.New("promotions.base_fee_cents must be >= 0")
	}
	if c.Uploads.MaxBytes <= 0 {
		return errors.New("uploads.max_bytes must be > 0")
	}
	if strings.EqualFold(c.App.Environment, "production") {
		if strings.TrimSpace(c.Auth.JWTSecret) == "" {
			return errors.New("auth.jwt_secret is required in production")
		}
		if c.HTTP.DevAuth {
			return errors.New("http.dev_auth must be disabled in production")
		}
	}
	return nil
}

// loadDotEnv busca un .env en el cwd y hacia arriba hasta encontrar go.mod.
func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for {
		p := filepath.Join(dir, ".env")
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			return
		}
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
