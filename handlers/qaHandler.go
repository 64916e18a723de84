package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"qatutor/models"
	"qatutor/services/qa"

	"github.com/gorilla/mux"
)

type QAHandler struct {
	service *qa.Service
}

func NewQAHandler(service *qa.Service) *QAHandler {
	return &QAHandler{service: service}
}

func (h *QAHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/qa/start", h.StartSession).Methods("POST")
	router.HandleFunc("/qa/answer", h.SubmitAnswer).Methods("POST")
}

func (h *QAHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log.Printf("[INFO] Received QA session start request")

	var req models.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[ERROR] Failed to decode start request JSON: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	if strings.TrimSpace(req.Context) == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "Context is required to start a session")
		return
	}

	resp, err := h.service.StartSession(r.Context(), req.Context)
	if err != nil {
		log.Printf("[ERROR] Failed to start QA session: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	log.Printf("[INFO] QA session %s started successfully", resp.SessionID)
	h.writeJSONResponse(w, http.StatusOK, resp)
}

func (h *QAHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	log.Printf("[INFO] Received QA answer request")

	var req models.AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[ERROR] Failed to decode answer request JSON: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	if req.SessionID == "" || strings.TrimSpace(req.Answer) == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "Session ID and answer are required")
		return
	}

	resp, err := h.service.ProcessAnswer(r.Context(), req.SessionID, req.Answer)
	if err != nil {
		if errors.Is(err, qa.ErrSessionNotFound) {
			h.writeErrorResponse(w, http.StatusNotFound, "Session not found or expired")
			return
		}
		log.Printf("[ERROR] Failed to process answer: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	log.Printf("[INFO] Answer processed with status %s", resp.Status)
	h.writeJSONResponse(w, http.StatusOK, resp)
}

func (h *QAHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *QAHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
