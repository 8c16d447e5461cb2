package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// IsProduction checks if the app runs in production mode.
func IsProduction() bool {
	return GetEnv("ENV", "development") == "production"
}

// PoolConfig sizes the per-operator ledger connection pools. Values come
// from the environment, never from code.
type PoolConfig struct {
	MinActive   int
	MaxActive   int
	MaxWaitTime time.Duration
	MaxIdleTime time.Duration
}

// LoadPoolConfig reads the connection pool settings.
func LoadPoolConfig() PoolConfig {
	return PoolConfig{
		MinActive:   GetIntEnv("CONNPOOL_MIN_ACTIVE", 20),
		MaxActive:   GetIntEnv("CONNPOOL_MAX_ACTIVE", 100),
		MaxWaitTime: GetDurationEnv("CONNPOOL_MAX_WAIT", 5*time.Second),
		MaxIdleTime: GetDurationEnv("CONNPOOL_MAX_IDLE", 30*time.Second),
	}
}

// SeamlessConfig bounds the remote wallet client.
type SeamlessConfig struct {
	MinConnections int
	MaxConnections int
	ConnWaitTime   time.Duration
	MaxIdleTime    time.Duration
	Retries        uint
	RetryDelay     time.Duration
	RequestTimeout time.Duration
}

// LoadSeamlessConfig reads the remote wallet client settings.
func LoadSeamlessConfig() SeamlessConfig {
	return SeamlessConfig{
		MinConnections: GetIntEnv("SEAMLESS_MIN_CONNECTIONS", 10),
		MaxConnections: GetIntEnv("SEAMLESS_MAX_CONNECTIONS", 50),
		ConnWaitTime:   GetDurationEnv("SEAMLESS_CONN_WAIT", 3*time.Second),
		MaxIdleTime:    GetDurationEnv("SEAMLESS_MAX_IDLE", 60*time.Second),
		Retries:        uint(GetIntEnv("SEAMLESS_RETRIES", 1)),
		RetryDelay:     GetDurationEnv("SEAMLESS_RETRY_DELAY", 10*time.Millisecond),
		RequestTimeout: GetDurationEnv("SEAMLESS_TIMEOUT", 10*time.Second),
	}
}
