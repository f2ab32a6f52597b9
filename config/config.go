package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process configuration. It is loaded once in main and
// passed by reference into every component that needs it.
type Config struct {
	Port     string
	MongoURI string
	DBName   string

	AWSRegion     string
	AWSBucketName string

	GeminiAPIKey      string
	OpenWeatherAPIKey string
	GoogleMapsAPIKey  string
	SendGridAPIKey    string

	JWTSecret string

	// Location drives the "after 19:00 the target date is tomorrow" rule.
	Location *time.Location
}

// Load reads environment variables (optionally from a .env file) into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := &Config{
		Port:              os.Getenv("PORT"),
		MongoURI:          os.Getenv("MONGO_URI"),
		DBName:            os.Getenv("DB_NAME"),
		AWSRegion:         os.Getenv("AWS_REGION"),
		AWSBucketName:     os.Getenv("AWS_BUCKET_NAME"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		GoogleMapsAPIKey:  os.Getenv("GOOGLE_MAPS_API_KEY"),
		SendGridAPIKey:    os.Getenv("SENDGRID_API_KEY"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.MongoURI == "" {
		cfg.MongoURI = "mongodb://localhost:27017/"
	}
	if cfg.DBName == "" {
		cfg.DBName = "coordii"
	}
	if cfg.AWSRegion == "" {
		cfg.AWSRegion = "ap-northeast-1"
	}

	tzName := os.Getenv("TIMEZONE")
	if tzName == "" {
		tzName = "Asia/Tokyo"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
	}
	cfg.Location = loc

	return cfg, nil
}
