package utils

import (
	"encoding/json"
	"net/http"

	"school-directory/models"

	log "github.com/sirupsen/logrus"
)

func RespondWithError(w http.ResponseWriter, status int, error models.Error) {
	RespondJSON(w, status, error)
}

func ResponseJSON(w http.ResponseWriter, data interface{}) {
	RespondJSON(w, http.StatusOK, data)
}

func RespondMessage(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, models.Message{Message: message})
}

func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("Failed to encode JSON response")
	}
}
