package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds the runtime configuration of the API server. Required
// values are enforced by must(); the rest fall back to defaults.
type Config struct {
	Env          string        // application environment (dev, test, prod)
	Port         string        // HTTP port to listen on
	DBUser       string        // database username
	DBPass       string        // database password (optional)
	DBHost       string        // database host address
	DBPort       string        // database port number
	DBName       string        // database name
	JWTSecret    string        // secret used to sign access tokens
	AccessTTLMin int           // access token time-to-live in minutes
	RefreshDays  int           // refresh token time-to-live in days
	BcryptCost   int           // bcrypt cost for password hashing
	LogLevel     string        // debug, info, warn, error
	SlowRequest  time.Duration // requests slower than this are logged at warn
	RabbitURL    string        // AMQP URL; empty disables booking notifications
	NotifyLogDir string        // where the notification consumer writes its log
	Ledger       LedgerConfig
}

// Load reads configuration values from environment variables. Missing
// required variables stop the process with a fatal log message.
func Load() Config {
	return Config{
		Env:          must("APP_ENV"),
		Port:         must("APP_PORT"),
		DBUser:       must("DB_USER"),
		DBPass:       os.Getenv("DB_PASS"),
		DBHost:       must("DB_HOST"),
		DBPort:       must("DB_PORT"),
		DBName:       must("DB_NAME"),
		JWTSecret:    must("JWT_SECRET"),
		AccessTTLMin: mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshDays:  envInt("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:   envInt("BCRYPT_COST", 12),
		LogLevel:     envStr("LOG_LEVEL", "info"),
		SlowRequest:  envDur("SLOW_REQUEST_THRESHOLD", time.Second),
		RabbitURL:    os.Getenv("RABBITMQ_URL"),
		NotifyLogDir: envStr("NOTIFY_LOG_DIR", "logs"),
		Ledger:       LoadLedgerConfig(),
	}
}

// LoadDB reads only the database settings; used by the command-line tools.
func LoadDB() Config {
	return Config{
		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),
		Ledger: LoadLedgerConfig(),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the value into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
