package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

type MongoConfig struct {
	URI             string
	DBName          string
	TasksCollection string
	UsersCollection string
}

type Config struct {
	ServerPort  string
	StoreDriver string
	Mongo       MongoConfig
	SQLitePath  string
	JWTSecret   string
	JWTTTL      time.Duration
	LogLevel    string
	LogFile     string
	CORSOrigin  string
}

// Load reads an optional .env file and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}

	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "5001"),
		StoreDriver: getEnv("STORE_DRIVER", DriverMongo),
		Mongo: MongoConfig{
			URI:             getEnv("MONGO_URI", "mongodb://localhost:27017"),
			DBName:          getEnv("MONGO_DB_NAME", "task_manager"),
			TasksCollection: getEnv("MONGO_TASKS_COLLECTION", "tasks"),
			UsersCollection: getEnv("MONGO_USERS_COLLECTION", "users"),
		},
		SQLitePath: getEnv("SQLITE_PATH", "task_manager.db"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		JWTTTL:     ttl,
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFile:    os.Getenv("LOG_FILE"),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),
	}
	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set in the environment variables")
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	switch c.StoreDriver {
	case DriverMongo, DriverSQLite:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
