package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/coffices/backend/internal/config"
	"github.com/coffices/backend/internal/handlers"
	appMiddleware "github.com/coffices/backend/internal/middleware"
	"github.com/coffices/backend/internal/places"
	"github.com/coffices/backend/internal/services"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// Firebase Auth (server-side verification of ID tokens)
	authClient, err := appMiddleware.NewFirebaseAuthClient(ctx, appMiddleware.FirebaseAuthConfig{
		ProjectID:       cfg.FirebaseProjectID,
		CredentialsJSON: cfg.FirebaseCredentialsJSON,
	})
	if err != nil {
		log.Printf("Warning: failed to initialize Firebase Auth client: %v", err)
	}

	if cfg.MongoURI == "" {
		log.Fatal("MONGO_URI env var is not set")
	}

	cofficeStore, err := services.NewMongoCofficeStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to initialize coffice store: %v", err)
	}
	defer cofficeStore.Close(ctx)

	ratingService, err := services.NewMongoRatingService(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to initialize rating service: %v", err)
	}
	defer ratingService.Close(ctx)

	profileService, err := services.NewMongoProfileService(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to initialize profile service: %v", err)
	}
	defer profileService.Close(ctx)

	placesClient, err := places.NewHTTPClient(cfg.PlacesBaseURL, cfg.PlacesAPIKey, cfg.PlacesTimeout, nil)
	if err != nil {
		log.Fatalf("Failed to initialize places client: %v", err)
	}

	imageService := services.NewGCSImageService(cfg.ImageBucket, placesClient)
	cofficeService := services.NewCofficeService(cofficeStore, placesClient, imageService)
	submissionService := services.NewSubmissionService(cofficeService, ratingService, profileService)

	// Initialize handlers
	cofficeHandler := handlers.NewCofficeHandler(cofficeService)
	ratingHandler := handlers.NewRatingHandler(submissionService, ratingService, cofficeService)
	placesHandler := handlers.NewPlacesHandler(placesClient, cfg.PlacesTimeout)
	profileHandler := handlers.NewProfileHandler(profileService, cofficeService, authClient)
	favoriteHandler := handlers.NewFavoriteHandler(profileService, cofficeService)
	previewHandler := handlers.NewPreviewHandler(cofficeService, cfg.AppBaseURL)

	// Token verification falls back to signed dev tokens when Firebase is not
	// configured, so the API stays usable in local development.
	auth := appMiddleware.FirebaseAuth(authClient)
	if authClient == nil {
		log.Printf("Warning: Firebase Auth unavailable, accepting dev tokens only")
		auth = appMiddleware.DevTokenAuth(cfg.DevJWTSecret)
	}

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Social link previews for crawlers; plain redirect for everyone else.
	r.Get("/share/{placeID}", previewHandler.SharePage)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Public reads
		r.Get("/coffices", cofficeHandler.ListCoffices)
		r.Get("/coffices/{placeID}", cofficeHandler.GetCoffice)
		r.Get("/profiles/{userID}", profileHandler.GetPublicProfileByUserID)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Get("/places/nearby", placesHandler.Nearby)

			r.Get("/coffices/{placeID}/rating", ratingHandler.GetOwnRating)
			r.Post("/coffices/{placeID}/rating", ratingHandler.SubmitRating)

			r.Post("/coffices/{placeID}/favorite", favoriteHandler.AddFavorite)
			r.Delete("/coffices/{placeID}/favorite", favoriteHandler.RemoveFavorite)

			r.Get("/favorites", favoriteHandler.ListFavorites)

			r.Get("/profile", profileHandler.GetProfile)
			r.Put("/profile", profileHandler.UpsertProfile)
		})
	})

	log.Printf("Coffices API server starting on %s", cfg.ServerAddress)
	if err := http.ListenAndServe(cfg.ServerAddress, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
