package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. The types reflect how the values are used in the
// application: strings for identifiers and secrets, ints for costs.
type Config struct {
	Env               string // application environment (e.g. "dev", "production")
	Port              string // HTTP port to listen on
	DBUser            string // database username
	DBPass            string // database password (optional)
	DBHost            string // database host address
	DBPort            string // database port number
	DBName            string // database name
	LaunchTokenSecret string // secret shared with the embedding host, verifies launch tokens
	BcryptCost        int    // bcrypt cost for technician password hashing
	RabbitURL         string // AMQP broker URL (optional, events disabled when empty)
}

// Load reads configuration values from the environment and returns a
// Config. A .env file in the working directory is applied first when
// present so local development does not need exported variables. Required
// variables are enforced by must() and missing values cause the program to
// exit with a fatal log message.
func Load() Config {
	_ = godotenv.Load() // absent .env is fine, the real environment wins anyway

	return Config{
		Env:               must("APP_ENV"),
		Port:              must("APP_PORT"),
		DBUser:            must("DB_USER"),
		DBPass:            os.Getenv("DB_PASS"), // empty password allowed
		DBHost:            must("DB_HOST"),
		DBPort:            must("DB_PORT"),
		DBName:            must("DB_NAME"),
		LaunchTokenSecret: must("LAUNCH_TOKEN_SECRET"),
		BcryptCost:        envInt("BCRYPT_COST", 12),
		RabbitURL:         os.Getenv("RABBITMQ_URL"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// envInt reads an integer variable, falling back to a default when the
// variable is unset or not a number.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
