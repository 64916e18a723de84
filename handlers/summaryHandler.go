package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"qatutor/models"
	"qatutor/services/summary"

	"github.com/gorilla/mux"
)

type SummaryHandler struct {
	service *summary.Service
}

func NewSummaryHandler(service *summary.Service) *SummaryHandler {
	return &SummaryHandler{service: service}
}

func (h *SummaryHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/summarize", h.Summarize).Methods("POST")
}

func (h *SummaryHandler) Summarize(w http.ResponseWriter, r *http.Request) {
	log.Printf("[INFO] Received summarize request")

	var req models.SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[ERROR] Failed to decode summarize request JSON: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	if req.Query == "" || (req.Option != "" && req.OriginalResponse == "") {
		h.writeErrorResponse(w, http.StatusBadRequest, "Required parameters are missing")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Printf("[ERROR] Response writer does not support streaming")
		h.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	wroteChunk := false
	err := h.service.StreamSummary(r.Context(), req.Query, req.Option, req.OriginalResponse, func(token string) {
		wroteChunk = true
		w.Write([]byte(token))
		flusher.Flush()
	})
	if err != nil {
		log.Printf("[ERROR] Streaming summary failed: %v", err)
		if !wroteChunk {
			// Headers are not committed until the first chunk, so a clean
			// error response is still possible here.
			h.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	log.Printf("[INFO] Summarize request completed successfully")
}

func (h *SummaryHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
