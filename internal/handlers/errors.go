package handlers

import (
	"encoding/json"
	"net/http"

	"nihongo/internal/logger"
)

// apiResponse is the JSON envelope of the auth API.
type apiResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respondWithError(log *logger.Logger, w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Error(logMsg, "status", status, "error", err)
	}

	http.Error(w, userMsg, status)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// respondJSONError writes {"message": userMsg}. err, when set, is logged
// and never shown to the client.
func respondJSONError(log *logger.Logger, w http.ResponseWriter, status int, userMsg string, err error) {
	if err != nil {
		log.Error(userMsg, "status", status, "error", err)
	}
	respondJSON(w, status, apiResponse{Message: userMsg})
}
