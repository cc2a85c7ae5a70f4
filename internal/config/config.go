package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by LEDGER_ENV (or .env by default),
// then loads the corresponding .secret sidecar if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("LEDGER_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

// RegistryBackend selects the event-store backend.
// Defaults to "file". Valid values: file, postgres, memory.
func RegistryBackend() string {
	b := os.Getenv("REGISTRY_BACKEND")
	if b == "" {
		return "file"
	}
	return b
}

// RegistryPath is the location of the append-only event log for the file
// backend.
func RegistryPath() string {
	p := os.Getenv("REGISTRY_PATH")
	if p == "" {
		return ".claimledger/registry.log"
	}
	return p
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// APIToken is the optional bearer token guarding the HTTP surface. Empty
// means no auth.
func APIToken() string {
	return os.Getenv("API_TOKEN")
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// ValidateWorkers returns the document worker pool size for validation
// runs. 0 means one worker per CPU.
func ValidateWorkers() int {
	n, err := strconv.Atoi(os.Getenv("VALIDATE_WORKERS"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// RateLimitRPS returns requests per second limit for the HTTP surface.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
