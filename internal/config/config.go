// internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	Simulation SimulationConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	Schema   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	PortfolioTTLSecs int
}

// SimulationConfig holds the tunable parameters of the replenishment
// simulation. The evaluation window doubles as the forecast horizon.
type SimulationConfig struct {
	WindowStart        string
	WindowEnd          string
	StressMode         bool
	TargetCoverageDays int
	ReferenceVolume    float64
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"http://127.0.0.1:5500", "http://localhost:5500"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "tsp_app")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "tsp_inventory")
		viper.SetDefault("DB_SCHEMA", "inv")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_PORTFOLIO_TTL_SECONDS", 60)
		viper.SetDefault("SIM_WINDOW_START", "2025-01-01")
		viper.SetDefault("SIM_WINDOW_END", "2025-02-14")
		viper.SetDefault("SIM_STRESS_MODE", true)
		viper.SetDefault("SIM_TARGET_COVERAGE_DAYS", 30)
		viper.SetDefault("SIM_REFERENCE_VOLUME", 300.0)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				Schema:   viper.GetString("DB_SCHEMA"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:          viper.GetBool("CACHE_ENABLED"),
				RedisURL:         viper.GetString("REDIS_URL"),
				RedisHost:        viper.GetString("REDIS_HOST"),
				RedisPort:        viper.GetString("REDIS_PORT"),
				RedisPassword:    viper.GetString("REDIS_PASSWORD"),
				RedisDB:          viper.GetInt("REDIS_DB"),
				PortfolioTTLSecs: viper.GetInt("CACHE_PORTFOLIO_TTL_SECONDS"),
			},
			Simulation: SimulationConfig{
				WindowStart:        viper.GetString("SIM_WINDOW_START"),
				WindowEnd:          viper.GetString("SIM_WINDOW_END"),
				StressMode:         viper.GetBool("SIM_STRESS_MODE"),
				TargetCoverageDays: viper.GetInt("SIM_TARGET_COVERAGE_DAYS"),
				ReferenceVolume:    viper.GetFloat64("SIM_REFERENCE_VOLUME"),
			},
		}
	})

	return instance
}
