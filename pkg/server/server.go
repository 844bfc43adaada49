package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"contact-autoclose/pkg/config"
	"contact-autoclose/pkg/engine"
	"contact-autoclose/pkg/handlers"
)

func NewHTTPServer(config *config.Config, eng *engine.Engine, logger *logrus.Logger) *http.Server {
	handler := handlers.NewHandler(eng, logger)

	router := mux.NewRouter()

	// API routes
	router.HandleFunc("/conversations", handler.OpenConversation).Methods("POST")
	router.HandleFunc("/conversations/{id}/agent-message", handler.AgentMessage).Methods("POST")
	router.HandleFunc("/conversations/{id}/customer-message", handler.CustomerMessage).Methods("POST")
	router.HandleFunc("/conversations/{id}/typing", handler.Typing).Methods("POST")
	router.HandleFunc("/conversations/{id}/revert", handler.Revert).Methods("POST")
	router.HandleFunc("/conversations/{id}/close", handler.Close).Methods("POST")
	router.HandleFunc("/conversations/{id}/status", handler.Status).Methods("GET")
	router.HandleFunc("/health", handler.Health).Methods("GET")

	// Metrics endpoint
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Add logging middleware
	router.Use(loggingMiddleware(logger))

	return &http.Server{
		Addr:         ":" + config.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func loggingMiddleware(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
				"remote":   r.RemoteAddr,
			}).Debug("HTTP request processed")
		})
	}
}
