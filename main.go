package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/coordii/coordii-backend/advisory"
	"github.com/coordii/coordii-backend/api"
	"github.com/coordii/coordii-backend/config"
	"github.com/coordii/coordii-backend/importer"
	"github.com/coordii/coordii-backend/jobs"
	"github.com/coordii/coordii-backend/models"
	"github.com/coordii/coordii-backend/storage"
	"github.com/coordii/coordii-backend/store"
	"github.com/coordii/coordii-backend/utils"
	"github.com/coordii/coordii-backend/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	mongoClient, err := utils.ConnectMongo(cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	db := mongoClient.Database(cfg.DBName)

	profiles, err := store.NewMongo[models.Profile](ctx, db.Collection("profiles"))
	if err != nil {
		log.Fatalf("Failed to init profiles store: %v", err)
	}
	garments, err := store.NewMongo[models.Garment](ctx, db.Collection("clothes"))
	if err != nil {
		log.Fatalf("Failed to init clothes store: %v", err)
	}
	snapshots, err := store.NewMongo[models.WeatherSnapshot](ctx, db.Collection("weather"))
	if err != nil {
		log.Fatalf("Failed to init weather store: %v", err)
	}
	coordinates, err := store.NewMongo[models.Coordinate](ctx, db.Collection("coordinates"))
	if err != nil {
		log.Fatalf("Failed to init coordinates store: %v", err)
	}
	tryOns, err := store.NewMongo[models.TryOn](ctx, db.Collection("try_ons"))
	if err != nil {
		log.Fatalf("Failed to init try-ons store: %v", err)
	}

	s3Store, err := storage.NewS3Store(ctx, cfg.AWSRegion, cfg.AWSBucketName)
	if err != nil {
		log.Fatalf("Failed to init S3: %v", err)
	}

	gemini := advisory.NewGemini(cfg.GeminiAPIKey)

	runner := &jobs.Runner{
		Profiles:    profiles,
		Weather:     snapshots,
		Garments:    garments,
		Coordinates: coordinates,
		TryOns:      tryOns,
		Advisory:    gemini,
		Storage:     s3Store,
	}

	jobService := &jobs.Service{
		Coordinates: coordinates,
		TryOns:      tryOns,
		Dispatcher:  &jobs.GoDispatcher{Runner: runner},
		Location:    cfg.Location,
	}

	server := &api.Server{
		Cfg:         cfg,
		Accounts:    db.Collection("accounts"),
		Feedbacks:   db.Collection("feedbacks"),
		Profiles:    profiles,
		Garments:    garments,
		Weather:     snapshots,
		Coordinates: coordinates,
		TryOns:      tryOns,
		Jobs:        jobService,
		Storage:     s3Store,
		Advisory:    gemini,
		Geocoder:    weather.NewGeocoder(cfg.GoogleMapsAPIKey),
		Forecast:    weather.NewOpenWeather(cfg.OpenWeatherAPIKey),
		Importer:    importer.New(),
		Mailer: &utils.Mailer{
			APIKey:    cfg.SendGridAPIKey,
			FromName:  "Coordii",
			FromEmail: "no-reply@coordii.app",
		},
	}

	cors := api.CORSMiddleware
	auth := server.AuthMiddleware

	// Auth routes
	http.HandleFunc("/auth/signup", cors(server.SignupHandler))
	http.HandleFunc("/auth/verify-otp", cors(server.VerifyOTPHandler))
	http.HandleFunc("/auth/login", cors(server.LoginHandler))

	// Profile and wardrobe
	http.HandleFunc("/users", cors(auth(server.ProfileHandler)))
	http.HandleFunc("/clothes", cors(auth(server.ClothesHandler)))
	http.HandleFunc("/clothes/import", cors(auth(server.ImportGarmentHandler)))
	http.HandleFunc("/analyze", cors(auth(server.AnalyzeGarmentHandler)))
	http.HandleFunc("/upload-url", cors(auth(server.UploadURLHandler)))

	// Weather
	http.HandleFunc("/weather", cors(auth(server.WeatherHandler)))

	// Async jobs
	http.HandleFunc("/coordinates", cors(auth(server.CoordinateHandler)))
	http.HandleFunc("/coordinates/status", cors(auth(server.CoordinateStatusHandler)))
	http.HandleFunc("/try-on", cors(auth(server.TryOnHandler)))
	http.HandleFunc("/try-on/status", cors(auth(server.TryOnStatusHandler)))
	http.HandleFunc("/gallery", cors(auth(server.GalleryHandler)))

	// Feedback
	http.HandleFunc("/feedback", cors(auth(server.FeedbackHandler)))

	fmt.Printf("Server starting on port %s...\n", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, utils.LatencyMiddleware(http.DefaultServeMux)); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
