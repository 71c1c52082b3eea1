package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is loaded once at process start and never mutated afterwards.
type Config struct {
	TelegramToken string
	// AuthorizedIDs is the static allow-list of Telegram user ids.
	AuthorizedIDs []string

	OpenAIKey   string
	OpenAIModel string

	NutritionixAppID  string
	NutritionixAPIKey string

	FirebaseProjectID       string
	FirebaseCredentialsFile string

	// Optional photo archive. Archival is disabled when the bucket is empty.
	S3Bucket string
	S3Region string

	// Ops HTTP surface (health check + access-request review).
	HTTPAddr      string
	AdminAPIToken string

	RecognizeTimeout time.Duration
	ResolveTimeout   time.Duration
	StoreTimeout     time.Duration

	// Workers bounds how many inbound updates are handled concurrently.
	Workers int
}

func Load() (*Config, error) {
	// A .env file is a local-dev convenience; in deployment the variables
	// come from the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:           os.Getenv("TELEGRAM_BOT_TOKEN"),
		AuthorizedIDs:           splitIDs(os.Getenv("AUTHORIZED_TELEGRAM_IDS")),
		OpenAIKey:               os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:             getenvDefault("OPENAI_MODEL", "gpt-4o"),
		NutritionixAppID:        os.Getenv("NUTRITIONIX_APP_ID"),
		NutritionixAPIKey:       os.Getenv("NUTRITIONIX_API_KEY"),
		FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseCredentialsFile: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		S3Bucket:                os.Getenv("S3_BUCKET"),
		S3Region:                getenvDefault("S3_REGION", os.Getenv("AWS_REGION")),
		HTTPAddr:                getenvDefault("HTTP_ADDR", ":8080"),
		AdminAPIToken:           os.Getenv("ADMIN_API_TOKEN"),
		RecognizeTimeout:        getenvDuration("RECOGNIZE_TIMEOUT", 45*time.Second),
		ResolveTimeout:          getenvDuration("RESOLVE_TIMEOUT", 10*time.Second),
		StoreTimeout:            getenvDuration("STORE_TIMEOUT", 10*time.Second),
		Workers:                 getenvInt("WORKERS", 4),
	}

	var missing []string
	if cfg.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if cfg.OpenAIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if cfg.NutritionixAppID == "" {
		missing = append(missing, "NUTRITIONIX_APP_ID")
	}
	if cfg.NutritionixAPIKey == "" {
		missing = append(missing, "NUTRITIONIX_API_KEY")
	}
	if cfg.FirebaseProjectID == "" {
		missing = append(missing, "FIREBASE_PROJECT_ID")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func splitIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
