package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Providers ProvidersConfig
	App       AppConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
}

// JWTConfig holds token signing configuration
type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	TrustExpiry   time.Duration
}

// ProviderKeys holds the test/live secret pair for one provider.
// BaseURL, when set, overrides the adapter's default endpoint and is
// used to point at provider sandboxes.
type ProviderKeys struct {
	TestSecretKey string
	LiveSecretKey string
	UseLive       bool
	BaseURL       string
}

// Secret returns the active secret key
func (k ProviderKeys) Secret() string {
	if k.UseLive {
		return k.LiveSecretKey
	}
	return k.TestSecretKey
}

// ProvidersConfig holds external provider configuration.
// UseInternal routes card/bill/withdrawal traffic to the in-process
// simulator.
type ProvidersConfig struct {
	UseInternal bool
	Timeout     time.Duration
	Flutterwave ProviderKeys
	Paystack    ProviderKeys
	Sudo        ProviderKeys
}

// AppConfig holds application-level settings
type AppConfig struct {
	FrontendURL       string
	LocalCurrencyCode string
	ReversalWindow    time.Duration
	DisputeWindow     time.Duration
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "paycore"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:        getEnv("SECRET_KEY", "change-this-in-production"),
			AccessExpiry:  time.Duration(getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 15)) * time.Minute,
			RefreshExpiry: time.Duration(getEnvAsInt("REFRESH_TOKEN_EXPIRE_MINUTES", 7*24*60)) * time.Minute,
			TrustExpiry:   time.Duration(getEnvAsInt("TRUST_TOKEN_EXPIRE_DAYS", 90)) * 24 * time.Hour,
		},
		Providers: ProvidersConfig{
			UseInternal: getEnvAsBool("USE_INTERNAL_PROVIDER", true),
			Timeout:     getEnvAsDuration("PROVIDER_TIMEOUT", 30*time.Second),
			Flutterwave: ProviderKeys{
				TestSecretKey: getEnv("FLUTTERWAVE_TEST_SECRET_KEY", ""),
				LiveSecretKey: getEnv("FLUTTERWAVE_LIVE_SECRET_KEY", ""),
				UseLive:       getEnvAsBool("FLUTTERWAVE_USE_LIVE", false),
				BaseURL:       getEnv("FLUTTERWAVE_BASE_URL", ""),
			},
			Paystack: ProviderKeys{
				TestSecretKey: getEnv("PAYSTACK_TEST_SECRET_KEY", ""),
				LiveSecretKey: getEnv("PAYSTACK_LIVE_SECRET_KEY", ""),
				UseLive:       getEnvAsBool("PAYSTACK_USE_LIVE", false),
				BaseURL:       getEnv("PAYSTACK_BASE_URL", ""),
			},
			Sudo: ProviderKeys{
				TestSecretKey: getEnv("SUDO_TEST_SECRET_KEY", ""),
				LiveSecretKey: getEnv("SUDO_LIVE_SECRET_KEY", ""),
				UseLive:       getEnvAsBool("SUDO_USE_LIVE", false),
				BaseURL:       getEnv("SUDO_BASE_URL", ""),
			},
		},
		App: AppConfig{
			FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:3000"),
			LocalCurrencyCode: getEnv("LOCAL_CURRENCY_CODE", "NGN"),
			ReversalWindow:    getEnvAsDuration("REVERSAL_WINDOW", 24*time.Hour),
			DisputeWindow:     getEnvAsDuration("DISPUTE_WINDOW", 30*24*time.Hour),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
