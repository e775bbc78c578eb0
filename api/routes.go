package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"watchdeck/handlers"
)

// corsMiddleware handles CORS for API routes
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SetupRoutes wires the widget and settings endpoints.
func SetupRoutes(widgets *handlers.WidgetHandler, settings *handlers.SettingsHandler) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.Use(corsMiddleware)

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	widgetRoutes := api.PathPrefix("/widgets").Subrouter()
	widgetRoutes.HandleFunc("/anime-calendar", widgets.AnimeCalendar).Methods(http.MethodGet)
	widgetRoutes.HandleFunc("/bili-calendar", widgets.BiliCalendar).Methods(http.MethodGet)
	widgetRoutes.HandleFunc("/streaming-hot", widgets.StreamingHot).Methods(http.MethodGet)
	widgetRoutes.HandleFunc("/tomatoes", widgets.Tomatoes).Methods(http.MethodGet)
	widgetRoutes.HandleFunc("/trakt-list", widgets.TraktList).Methods(http.MethodGet)
	widgetRoutes.HandleFunc("/air-calendar", widgets.AirCalendar).Methods(http.MethodGet)
	widgetRoutes.HandleFunc("/upcoming", widgets.Upcoming).Methods(http.MethodGet)

	api.HandleFunc("/settings", settings.GetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", settings.PutSettings).Methods(http.MethodPut)

	return r
}
