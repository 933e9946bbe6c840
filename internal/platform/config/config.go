package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AnalysisQueueName      string
	AnalysisLockKey        string
	AnalysisLockTTLSeconds int
	AnalysisMinDelayMs     int
	AnalysisMaxDelayMs     int
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:                getEnv("API_PORT", "8080"),
		JWTKey:                 []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:                 time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		DBHost:                 getEnv("DB_HOST", "localhost"),
		DBPort:                 getEnv("DB_PORT", "5432"),
		DBUser:                 getEnv("DB_USER", "user"),
		DBPassword:             getEnv("DB_PASSWORD", "password"),
		DBName:                 getEnv("DB_NAME", "agrimarket_db"),
		DBSslMode:              getEnv("DB_SSLMODE", "disable"),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RedisDB:                getEnvAsInt("REDIS_DB", 0),
		AnalysisQueueName:      getEnv("ANALYSIS_QUEUE_NAME", "crop_analysis_queue"),
		AnalysisLockKey:        getEnv("ANALYSIS_LOCK_KEY", "crop_analysis_lock"),
		AnalysisLockTTLSeconds: getEnvAsInt("ANALYSIS_LOCK_TTL_SECONDS", 120),
		AnalysisMinDelayMs:     getEnvAsInt("ANALYSIS_MIN_DELAY_MS", 500),
		AnalysisMaxDelayMs:     getEnvAsInt("ANALYSIS_MAX_DELAY_MS", 2500),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
