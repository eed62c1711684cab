package config

import (
	"os"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the dispatch service
type Config struct {
	// Server configuration
	Port string

	// Database configuration, an empty DBHost keeps state in memory only
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// RabbitMQ configuration, an empty AMQPURL disables event publishing
	AMQPURL      string
	AMQPExchange string

	// Simulation configuration
	TickInterval     time.Duration
	ApproachFraction float64
	ArrivalEpsilon   float64
	MaxEnRouteTicks  int
	BusyPolicy       string
	FleetSize        int
	DepotLatitude    float64
	DepotLongitude   float64

	// Submissions per minute per client IP, 0 disables the limit
	ReportRateLimit int

	// Tokens owed to a wallet reporter per resolved report
	TokensPerResolution decimal.Decimal

	// Logging
	LogLevel string
}

// Load loads configuration from an optional .env file and the environment
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug(".env file not found, using system environment variables")
	}

	return &Config{
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret_app"),
		DBName:     getEnv("DB_NAME", "cleanapp"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "dispatch"),

		TickInterval:     getDurationEnv("TICK_INTERVAL", 2*time.Second),
		ApproachFraction: getFloatEnv("APPROACH_FRACTION", 0.1),
		ArrivalEpsilon:   getFloatEnv("ARRIVAL_EPSILON", 0.001),
		MaxEnRouteTicks:  getIntEnv("MAX_EN_ROUTE_TICKS", 0),
		BusyPolicy:       getEnv("BUSY_POLICY", "reject"),
		FleetSize:        getIntEnv("FLEET_SIZE", 3),
		DepotLatitude:    getFloatEnv("DEPOT_LATITUDE", 40.7128),
		DepotLongitude:   getFloatEnv("DEPOT_LONGITUDE", -74.0060),

		ReportRateLimit: getIntEnv("REPORT_RATE_LIMIT", 30),

		TokensPerResolution: getDecimalEnv("TOKENS_PER_RESOLUTION", decimal.NewFromInt(1)),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
			return duration
		}
		log.Warnf("invalid %s=%q, using %v", key, value, defaultValue)
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warnf("invalid %s=%q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Warnf("invalid %s=%q, using %v", key, value, defaultValue)
	}
	return defaultValue
}

func getDecimalEnv(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
		log.Warnf("invalid %s=%q, using %s", key, value, defaultValue)
	}
	return defaultValue
}
