package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every configuration parameter of the relay.
type Config struct {
	// UpstreamURL is the contest server this relay polls.
	UpstreamURL string
	ServerPort  int
	SessionDir  string

	PollInterval   time.Duration
	ReplayDuration time.Duration
	ReplayMaxFPS   int

	// Optional: award archive. Empty disables archiving.
	DatabaseURL string

	// Optional: award feed. Empty brokers disable the feed.
	KafkaBrokers []string
	KafkaTopic   string

	// Optional: content mirror. Empty account ID disables mirroring.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	JWTSecretKey      string
	AdminPasswordHash string
}

// Load reads configuration from environment variables, optionally seeded
// from a .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	upstream := os.Getenv("UPSTREAM_URL")
	if upstream == "" {
		return nil, fmt.Errorf("UPSTREAM_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	adminHash := os.Getenv("ADMIN_PASSWORD_HASH")
	if adminHash == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	pollInterval, err := durationEnv("POLL_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	replayDuration, err := durationEnv("REPLAY_DURATION", 60*time.Second)
	if err != nil {
		return nil, err
	}
	replayMaxFPS, err := intEnv("REPLAY_MAX_FPS", 24)
	if err != nil {
		return nil, err
	}
	if replayMaxFPS < 1 {
		return nil, fmt.Errorf("REPLAY_MAX_FPS must be positive, got %d", replayMaxFPS)
	}

	sessionDir := os.Getenv("SESSION_DIR")
	if sessionDir == "" {
		sessionDir = ".ctfboard"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}
	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "ctfboard.awards"
	}

	cfg := &Config{
		UpstreamURL:       upstream,
		ServerPort:        port,
		SessionDir:        sessionDir,
		PollInterval:      pollInterval,
		ReplayDuration:    replayDuration,
		ReplayMaxFPS:      replayMaxFPS,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		KafkaBrokers:      brokers,
		KafkaTopic:        topic,
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		JWTSecretKey:      jwtKey,
		AdminPasswordHash: adminHash,
	}

	return cfg, nil
}

func intEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return value, nil
}

func durationEnv(name string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, value)
	}
	return value, nil
}
