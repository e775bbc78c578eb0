package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"watchdeck/config"
)

// SettingsHandler exposes the persisted configuration. Saving re-runs the
// same backfill as startup, so a partial PUT body never wedges the file.
type SettingsHandler struct {
	Manager *config.Manager

	// OnChange is invoked with the saved settings so the server can swap
	// the metadata service without a restart.
	OnChange func(config.Settings)
}

func NewSettingsHandler(m *config.Manager) *SettingsHandler {
	return &SettingsHandler{Manager: m}
}

func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.Manager.Load()
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s)
}

func (h *SettingsHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var s config.Settings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	if err := h.Manager.Save(s); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	// Read back through Load so the caller sees the backfilled values.
	saved, err := h.Manager.Load()
	if err != nil {
		saved = s
	}
	if h.OnChange != nil {
		h.OnChange(saved)
		log.Printf("[settings] configuration updated, services reloaded")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(saved)
}
