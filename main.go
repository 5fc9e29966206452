package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/esplearn/internal/api"
	"github.com/example/esplearn/internal/database"
	"github.com/example/esplearn/internal/excel"
	"github.com/example/esplearn/internal/scheduler"
	"github.com/example/esplearn/internal/services"
)

// logNotifier writes due-word digests to the log. A push or email
// transport can replace it without touching the scheduler.
type logNotifier struct{}

func (logNotifier) SendDigest(learnerID string, dueCount int) error {
	log.Printf("learner %s has %d words due for review", learnerID, dueCount)
	return nil
}

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not load .env: %v", err)
	}

	db, err := database.Connect(database.ConfigFromEnv())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	vocabRepo := database.NewVocabularyRepository(db)
	historyRepo := database.NewReviewHistoryRepository(db)
	profileRepo := database.NewProfileRepository(db)

	reviews := services.NewReviewService(vocabRepo, historyRepo)
	levels := services.NewLevelService(profileRepo, historyRepo)
	importer := excel.NewImporter(reviews)

	handler := api.NewHandler(reviews, levels, importer)
	router := api.NewRouter(handler, os.Getenv("API_TOKEN"))

	jobs := scheduler.New(reviews, levels, logNotifier{})
	jobs.Start()
	defer jobs.Stop()

	addr := ":" + os.Getenv("PORT")
	if addr == ":" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := <-sigChan
	log.Printf("Received signal: %v", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Shutdown complete")
}
