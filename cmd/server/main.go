package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studypath/internal/config"
	"studypath/internal/database"
	"studypath/internal/handlers"
	"studypath/internal/repository"
	"studypath/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if cfg.AuthSecret == "" {
		log.Fatal("AUTH_SECRET must be set")
	}

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	topicRepo := repository.NewTopicRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	planRepo := repository.NewPlanRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	// Initialize services; the plan compositor observes mastery
	// transitions and forwards completions to the engagement ledger
	engagementService := service.NewEngagementService(db, statsRepo, cfg.Location)
	planService := service.NewPlanService(db, planRepo, topicRepo, reviewRepo, engagementService, cfg.Location)
	reviewService := service.NewReviewService(db, reviewRepo)
	masteryService := service.NewMasteryService(db, progressRepo, topicRepo, reviewService, planService)

	// Initialize handlers
	middleware := handlers.NewMiddleware(cfg.AuthSecret)
	studyHandler := handlers.NewStudyHandler(masteryService, reviewService, planService, engagementService, topicRepo, progressRepo)

	// Setup routes
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/topics/tree", middleware.RequireLearner(studyHandler.TopicsTree))
	mux.HandleFunc("GET /api/topics/{topicID}", middleware.RequireLearner(studyHandler.TopicDetail))
	mux.HandleFunc("POST /api/topics/{topicID}/video-progress", middleware.RequireLearner(studyHandler.VideoProgress))
	mux.HandleFunc("POST /api/topics/{topicID}/test", middleware.RequireLearner(studyHandler.TestSubmit))

	mux.HandleFunc("GET /api/me/reviews", middleware.RequireLearner(studyHandler.MyReviews))
	mux.HandleFunc("POST /api/reviews/{reviewID}/done", middleware.RequireLearner(studyHandler.ReviewDone))

	mux.HandleFunc("GET /api/me/plan", middleware.RequireLearner(studyHandler.MyPlan))
	mux.HandleFunc("POST /api/plan/items/{itemID}/done", middleware.RequireLearner(studyHandler.PlanItemDone))
	mux.HandleFunc("POST /api/plan/items", middleware.RequireStaff(studyHandler.PlanAssign))

	mux.HandleFunc("GET /api/me/stats", middleware.RequireLearner(studyHandler.MyStats))

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine so shutdown can be handled below
	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
