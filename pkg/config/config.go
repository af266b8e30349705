package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	FirebaseProject string
	Environment     string
	ServiceName     string
	StorageBucket   string

	// Credentials: inline JSON wins over a file path; with neither set the
	// Google default credentials are used.
	ServiceAccountJSON string
	ServiceAccountPath string

	AllowedOrigins []string

	// Perspective scoring. An empty key switches the moderation gate to
	// auto-approve mode.
	PerspectiveAPIKey  string
	PerspectiveURL     string
	PerspectiveTimeout time.Duration
	Thresholds         ModerationThresholds

	ModerationWorkerEnabled bool

	PresenceThreshold time.Duration

	JWTSecret         string
	AppLockSessionTTL time.Duration
}

// devJWTSecret is only accepted in development.
const devJWTSecret = "your-secret-key"

var ErrInsecureJWTSecret = errors.New("JWT_SECRET must be set to a non-default value outside development")

type ModerationThresholds struct {
	Toxicity       float64
	SevereToxicity float64
	Insult         float64
	Threat         float64
	SexualExplicit float64
}

func DefaultThresholds() ModerationThresholds {
	return ModerationThresholds{
		Toxicity:       0.8,
		SevereToxicity: 0.7,
		Insult:         0.8,
		Threat:         0.7,
		SexualExplicit: 0.8,
	}
}

func Load() (*Config, error) {
	godotenv.Load()

	defaults := DefaultThresholds()

	config := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		FirebaseProject: getEnv("FIREBASE_PROJECT_ID", ""),
		Environment:     getEnv("ENVIRONMENT", "development"),
		ServiceName:     getEnv("SERVICE_NAME", "togetherly"),
		StorageBucket:   getEnv("STORAGE_BUCKET", ""),

		ServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),

		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS"),

		PerspectiveAPIKey:  getEnv("PERSPECTIVE_API_KEY", ""),
		PerspectiveURL:     getEnv("PERSPECTIVE_URL", "https://commentanalyzer.googleapis.com/v1alpha1/comments:analyze"),
		PerspectiveTimeout: getEnvAsDuration("PERSPECTIVE_TIMEOUT", 10*time.Second),
		Thresholds: ModerationThresholds{
			Toxicity:       getEnvAsFloat("THRESHOLD_TOXICITY", defaults.Toxicity),
			SevereToxicity: getEnvAsFloat("THRESHOLD_SEVERE_TOXICITY", defaults.SevereToxicity),
			Insult:         getEnvAsFloat("THRESHOLD_INSULT", defaults.Insult),
			Threat:         getEnvAsFloat("THRESHOLD_THREAT", defaults.Threat),
			SexualExplicit: getEnvAsFloat("THRESHOLD_SEXUAL_EXPLICIT", defaults.SexualExplicit),
		},

		ModerationWorkerEnabled: getEnvAsBool("MODERATION_WORKER_ENABLED", false),

		PresenceThreshold: getEnvAsDuration("PRESENCE_THRESHOLD", 2*time.Minute),

		JWTSecret:         getEnv("JWT_SECRET", devJWTSecret),
		AppLockSessionTTL: time.Duration(getEnvAsInt64("APP_LOCK_SESSION_TTL", 15*60)) * time.Second, // 15 minutes
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate refuses to sign app-lock tokens with a guessable key anywhere but
// a developer machine.
func (c *Config) validate() error {
	if c.Environment == "development" {
		return nil
	}
	secret := strings.TrimSpace(c.JWTSecret)
	if secret == "" || secret == devJWTSecret {
		return ErrInsecureJWTSecret
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var values []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		floatValue, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}
