package configs

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort        string
	GRPCPort        string
	CodeforcesURL   string
	MongoDBURL      string
	MongoDBName     string
	NATSURL         string
	RedisURL        string
	RedisPassword   string
	RedisDB         int
	RefreshCron     string
	DisplayTimezone string
	LogLevel        string
	AppEnv          string
	HTTPTimeout     time.Duration
	FetchRetries    int
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded, using environment only: %v", err)
	}
	config := Config{
		HTTPPort:        getEnv("HTTPPORT", "8080"),
		GRPCPort:        getEnv("GRPCPORT", "50056"),
		CodeforcesURL:   getEnv("CODEFORCESURL", "https://codeforces.com/api"),
		MongoDBURL:      getEnv("MONGODBURL", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGODBNAME", "cfanalytics"),
		NATSURL:         getEnv("NATSURL", "nats://localhost:4222"),
		RedisURL:        getEnv("REDISURL", ""),
		RedisPassword:   getEnv("REDISPASSWORD", ""),
		RedisDB:         getEnvInt("REDISDB", 0),
		RefreshCron:     getEnv("REFRESHCRON", "@every 1h"),
		DisplayTimezone: getEnv("DISPLAYTIMEZONE", "Local"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		AppEnv:          getEnv("APP_ENV", "development"),
		HTTPTimeout:     getEnvDuration("HTTPTIMEOUT", 10*time.Second),
		FetchRetries:    getEnvInt("FETCHRETRIES", 3),
	}
	return config
}

// Location resolves DisplayTimezone, falling back to the process zone.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		log.Printf("Unknown DISPLAYTIMEZONE %q, using Local: %v", c.DisplayTimezone, err)
		return time.Local
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Invalid duration for %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
