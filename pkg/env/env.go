// package env reads the configuration of the placefinder binaries from the
// environment, after loading a .env file when one is present.
//
// The API key is never read from anywhere but the environment or the masked
// input of the UI, and is never written to disk.
package env

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	GoogleMapsAPIKey string
	DatabaseURL      string
	ReverseGeocode   bool
	Debug            bool
	ThrottleInterval time.Duration
	SessionTTL       time.Duration
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	reverseGeocode, err := getBool("REVERSE_GEOCODE", false)
	if err != nil {
		return nil, err
	}

	debug, err := getBool("DEBUG", false)
	if err != nil {
		return nil, err
	}

	throttle, err := getDuration("THROTTLE_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}

	sessionTTL, err := getDuration("SESSION_TTL", 30*time.Minute)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		GoogleMapsAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		ReverseGeocode:   reverseGeocode,
		Debug:            debug,
		ThrottleInterval: throttle,
		SessionTTL:       sessionTTL,
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("failed to parse %s as boolean: %s", key, err.Error())
	}

	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s as duration: %s", key, err.Error())
	}

	return d, nil
}
