package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress string

	MongoURI string
	MongoDB  string

	FirebaseProjectID       string
	FirebaseCredentialsJSON string
	DevJWTSecret            string

	PlacesBaseURL string
	PlacesAPIKey  string
	PlacesTimeout time.Duration

	ImageBucket string
	AppBaseURL  string

	MigrationBatchSize  int
	MigrationBatchDelay time.Duration
}

func Load() *Config {
	// Best-effort; env vars win over .env entries.
	_ = godotenv.Load()

	return &Config{
		ServerAddress:           getEnv("SERVER_ADDRESS", ":8080"),
		MongoURI:                os.Getenv("MONGO_URI"),
		MongoDB:                 getEnv("MONGO_DB", "coffices"),
		FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseCredentialsJSON: os.Getenv("FIREBASE_CREDENTIALS_JSON"),
		DevJWTSecret:            getEnv("DEV_JWT_SECRET", "dev-secret-do-not-use-in-production"),
		PlacesBaseURL:           getEnv("PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place"),
		PlacesAPIKey:            os.Getenv("PLACES_API_KEY"),
		PlacesTimeout:           time.Duration(getEnvInt("PLACES_TIMEOUT_SECS", 10)) * time.Second,
		ImageBucket:             os.Getenv("IMAGE_BUCKET"),
		AppBaseURL:              getEnv("APP_BASE_URL", "https://coffices.app"),
		MigrationBatchSize:      getEnvInt("MIGRATION_BATCH_SIZE", 5),
		MigrationBatchDelay:     time.Duration(getEnvInt("MIGRATION_BATCH_DELAY_MS", 1000)) * time.Millisecond,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
