package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"friendspark/log"
)

// RegisterRoutes returns the router wrapped with CORS, panic recovery and
// an access log in Combined Log Format written to accessLog.
func RegisterRoutes(h *Handler, allowedOrigins []string, accessLog io.Writer) http.Handler {
	router := mux.NewRouter()

	// Geohash endpoints
	router.HandleFunc("/geohash/encode", h.EncodeGeohash).Methods(http.MethodGet)
	router.HandleFunc("/geohash/{hash}", h.DecodeGeohash).Methods(http.MethodGet)
	router.HandleFunc("/geohash/{hash}/neighbors", h.GeohashNeighbors).Methods(http.MethodGet)

	// Event endpoints
	router.HandleFunc("/events", h.CreateEvent).Methods(http.MethodPost)
	router.HandleFunc("/events", h.ListEvents).Methods(http.MethodGet)
	router.HandleFunc("/events/nearby", h.NearbyEvents).Methods(http.MethodGet)
	router.HandleFunc("/events/{id}", h.GetEvent).Methods(http.MethodGet)
	router.HandleFunc("/events/{id}", h.PatchEvent).Methods(http.MethodPatch)
	router.HandleFunc("/events/{id}", h.DeleteEvent).Methods(http.MethodDelete)

	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	cors := handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(true),
	)
	return handlers.CombinedLoggingHandler(accessLog, recovery(cors(router)))
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	log.Error(context.Background(), "panic serving request", slog.String("panic", fmt.Sprint(v...)))
}
