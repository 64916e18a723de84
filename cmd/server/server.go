package main

import (
	"fmt"
	"log"
	"net/http"

	"qatutor/config"
	"qatutor/handlers"
	"qatutor/services/qa"
	"qatutor/services/summary"

	"github.com/gorilla/mux"
)

func main() {
	cfg := config.Load()

	if cfg.OpenAIAPIKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required")
	}

	if cfg.AnthropicAPIKey == "" {
		log.Fatal("ANTHROPIC_API_KEY environment variable is required")
	}

	generator, err := qa.NewLLMQuestionGenerator(cfg.OpenAIAPIKey)
	if err != nil {
		log.Fatalf("Failed to initialize question generator: %v", err)
	}

	evaluator := qa.NewAnthropicAnswerEvaluator(cfg.AnthropicAPIKey)

	qaConfig := qa.DefaultConfig()
	qaConfig.Retention = cfg.SessionRetention

	qaService := qa.NewService(qa.NewSessionStore(), generator, evaluator, qaConfig)
	qaHandler := handlers.NewQAHandler(qaService)

	summaryService, err := summary.NewService(cfg.OpenAIAPIKey)
	if err != nil {
		log.Fatalf("Failed to initialize summary service: %v", err)
	}
	summaryHandler := handlers.NewSummaryHandler(summaryService)

	router := mux.NewRouter()

	router.Use(corsMiddleware)

	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("OPTIONS")

	qaHandler.RegisterRoutes(router)
	summaryHandler.RegisterRoutes(router)

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")

	addr := ":" + cfg.Port
	fmt.Printf("Server starting on port %s\n", cfg.Port)

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Expose-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy"}`))
}
