package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	GinMode        string
	MongoURI       string
	MongoDatabase  string
	StorageDriver  string
	ExamsFile      string
	RedisAddress   string
	RedisPassword  string
	RedisDB        int
	LockTTL        time.Duration
	LockWait       time.Duration
	RabbitMQURI    string
	RabbitExchange string
	JWTSecret      string
	ConsulAddress  string
	ServiceName    string
	ServiceID      string
	ServiceAddress string
	CORSOrigins    []string
}

const (
	StorageMongo  = "mongo"
	StorageMemory = "memory"
)

// Load reads .env when present, then the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	return New()
}

func New() *Config {
	serviceName := getEnvOrDefault("SERVICE_NAME", "exam-service")
	hostname, _ := os.Hostname()

	return &Config{
		Port:           getEnvOrDefault("PORT", "6680"),
		GinMode:        getEnvOrDefault("GIN_MODE", "release"),
		MongoURI:       getEnvOrDefault("MONGO_URI", ""),
		MongoDatabase:  getEnvOrDefault("MONGO_DATABASE", "exam_service"),
		StorageDriver:  strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", StorageMongo)),
		ExamsFile:      getEnvOrDefault("EXAMS_FILE", ""),
		RedisAddress:   getEnvOrDefault("REDIS_ADDR", ""),
		RedisPassword:  getEnvOrDefault("REDIS_PWD", ""),
		RedisDB:        getIntOrDefault("REDIS_DB", 0),
		LockTTL:        time.Duration(getIntOrDefault("LOCK_TTL_SECONDS", 30)) * time.Second,
		LockWait:       time.Duration(getIntOrDefault("LOCK_WAIT_SECONDS", 10)) * time.Second,
		RabbitMQURI:    getEnvOrDefault("RABBITMQ_URI", ""),
		RabbitExchange: getEnvOrDefault("RABBITMQ_EXCHANGE", ""),
		JWTSecret:      getEnvOrDefault("JWT_SECRET", ""),
		ConsulAddress:  getEnvOrDefault("CONSUL_ADDRESS", ""),
		ServiceName:    serviceName,
		ServiceID:      getEnvOrDefault("SERVICE_ID", serviceName+"-"+hostname),
		ServiceAddress: getEnvOrDefault("SERVICE_ADDRESS", serviceName),
		CORSOrigins:    splitList(getEnvOrDefault("CORS_ORIGINS", "http://localhost:3000")),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	raw := getEnvOrDefault(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Invalid %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
