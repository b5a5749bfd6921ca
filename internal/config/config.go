package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ScoreWeights are the independent signal weights summed by the scorer.
// The defaults keep the maximum achievable score at 100.
type ScoreWeights struct {
	RouteMatch     int
	ArrivalWindow  int
	CarryOnFit     int
	CheckedFit     int
	ReputationMax  int
	FragileBonus   int
	SpecialBonus   int
}

// Config carries every externally supplied knob of the engine: persistence
// and broker endpoints, lead-time thresholds, the two booking windows,
// scoring weights and sweep cadence. Nothing in the engine packages reads
// the environment directly.
type Config struct {
	HTTPPort string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers            []string
	KafkaNotificationsTopic string

	BaseLeadDays       int
	HighValueThreshold float64
	MultiItemThreshold int

	CooldownHours       int
	PurchaseWindowHours int

	CooldownSweepInterval time.Duration
	DeadlineSweepInterval time.Duration

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int

	Weights   ScoreWeights
	MaxRating float64
	MinScore  int

	ServiceFeePct   float64
	TaxPct          float64
	DeliveryFeeFlat float64
}

// Load reads the configuration from the environment, falling back to a
// .env / .example.env file next to the working directory the way local
// development expects.
func Load() (*Config, error) {
	loadEnv()

	cfg := &Config{
		HTTPPort: getEnvOrDefault("HTTP_PORT", "9000"),

		DBHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DBPort:     getIntOrDefault("DB_PORT", 5432),
		DBUser:     getEnvOrDefault("POSTGRES_USER", "crossbag"),
		DBPassword: os.Getenv("POSTGRES_PASSWORD"),
		DBName:     getEnvOrDefault("POSTGRES_DB", "crossbag"),

		RedisAddr:     fmt.Sprintf("%s:%s", getEnvOrDefault("REDIS_HOST", "localhost"), getEnvOrDefault("REDIS_PORT", "6379")),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getIntOrDefault("REDIS_DB", 0),

		KafkaBrokers:            []string{getEnvOrDefault("KAFKA_BROKERS", "localhost:9092")},
		KafkaNotificationsTopic: getEnvOrDefault("KAFKA_NOTIFICATIONS_TOPIC", "notifications"),

		BaseLeadDays:       getIntOrDefault("BASE_LEAD_DAYS", 5),
		HighValueThreshold: getFloatOrDefault("HIGH_VALUE_THRESHOLD", 1000),
		MultiItemThreshold: getIntOrDefault("MULTI_ITEM_THRESHOLD", 3),

		CooldownHours:       getIntOrDefault("COOLDOWN_HOURS", 24),
		PurchaseWindowHours: getIntOrDefault("PURCHASE_WINDOW_HOURS", 24),

		CooldownSweepInterval: getDurationOrDefault("COOLDOWN_SWEEP_INTERVAL", 5*time.Minute),
		DeadlineSweepInterval: getDurationOrDefault("DEADLINE_SWEEP_INTERVAL", 10*time.Minute),

		OutboxPollInterval: getDurationOrDefault("OUTBOX_POLL_INTERVAL", 2*time.Second),
		OutboxBatchSize:    getIntOrDefault("OUTBOX_BATCH_SIZE", 20),
		OutboxMaxAttempts:  getIntOrDefault("OUTBOX_MAX_ATTEMPTS", 5),

		Weights: ScoreWeights{
			RouteMatch:    getIntOrDefault("SCORE_ROUTE_MATCH", 30),
			ArrivalWindow: getIntOrDefault("SCORE_ARRIVAL_WINDOW", 20),
			CarryOnFit:    getIntOrDefault("SCORE_CARRY_ON_FIT", 25),
			CheckedFit:    getIntOrDefault("SCORE_CHECKED_FIT", 15),
			ReputationMax: getIntOrDefault("SCORE_REPUTATION_MAX", 10),
			FragileBonus:  getIntOrDefault("SCORE_FRAGILE_BONUS", 10),
			SpecialBonus:  getIntOrDefault("SCORE_SPECIAL_BONUS", 5),
		},
		MaxRating: getFloatOrDefault("MAX_RATING", 5),
		MinScore:  getIntOrDefault("MIN_SCORE", 0),

		ServiceFeePct:   getFloatOrDefault("SERVICE_FEE_PCT", 10),
		TaxPct:          getFloatOrDefault("TAX_PCT", 5),
		DeliveryFeeFlat: getFloatOrDefault("DELIVERY_FEE_FLAT", 15),
	}

	return cfg, nil
}

// DSN renders the postgres connection string for pgx.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func loadEnv() {
	wd, err := os.Getwd()
	if err != nil {
		log.Printf("Error getting working directory: %v", err)
		return
	}

	possiblePaths := []string{
		filepath.Join(wd, ".env"),
		filepath.Join(wd, "..", ".env"),
		filepath.Join(wd, "..", "..", ".env"),
	}

	for _, envPath := range possiblePaths {
		if err := godotenv.Load(envPath); err == nil {
			log.Printf("Loaded environment variables from %s", envPath)
			return
		}
	}

	for _, envPath := range possiblePaths {
		examplePath := filepath.Join(filepath.Dir(envPath), ".example.env")
		if err := godotenv.Load(examplePath); err == nil {
			log.Printf("Loaded environment variables from %s", examplePath)
			return
		}
	}

	log.Println("No .env file found, relying on process environment")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if v, err := time.ParseDuration(value); err == nil {
			return v
		}
	}
	return defaultValue
}
