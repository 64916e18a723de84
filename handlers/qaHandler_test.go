package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"qatutor/models"
	"qatutor/services/qa"

	"github.com/gorilla/mux"
)

type stubGenerator struct {
	question string
	err      error
}

func (g *stubGenerator) GenerateQuestion(ctx context.Context, history []models.Message) (string, []models.Message, error) {
	if g.err != nil {
		return "", nil, g.err
	}
	updated := append(append([]models.Message{}, history...), models.Message{Role: "assistant", Content: g.question})
	return g.question, updated, nil
}

type stubEvaluator struct {
	evaluation models.Evaluation
	err        error
}

func (e *stubEvaluator) EvaluateAnswer(ctx context.Context, history []models.Message) (*models.Evaluation, []models.Message, error) {
	if e.err != nil {
		return nil, nil, e.err
	}
	updated := append(append([]models.Message{}, history...), models.Message{Role: "assistant", Content: e.evaluation.Feedback})
	return &e.evaluation, updated, nil
}

func newTestRouter(generator qa.QuestionGenerator, evaluator qa.AnswerEvaluator) *mux.Router {
	service := qa.NewService(qa.NewSessionStore(), generator, evaluator, qa.DefaultConfig())
	handler := NewQAHandler(service)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func postJSON(t *testing.T, router *mux.Router, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestStartSessionHandler(t *testing.T) {
	router := newTestRouter(&stubGenerator{question: "What is the capital of France?"}, &stubEvaluator{})

	rec := postJSON(t, router, "/qa/start", models.StartSessionRequest{Context: "Paris is the capital of France."})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var resp models.StartSessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.SessionID == "" {
		t.Error("expected non-empty session id")
	}
	if resp.Question != "What is the capital of France?" {
		t.Errorf("unexpected question %q", resp.Question)
	}
	if resp.AttemptCount != 0 {
		t.Errorf("expected attempt count 0, got %d", resp.AttemptCount)
	}
	if resp.MaxAttempts != qa.DefaultMaxAttempts {
		t.Errorf("expected max attempts %d, got %d", qa.DefaultMaxAttempts, resp.MaxAttempts)
	}
}

func TestStartSessionHandlerValidation(t *testing.T) {
	router := newTestRouter(&stubGenerator{question: "Q?"}, &stubEvaluator{})

	tests := []struct {
		name string
		body any
	}{
		{name: "missing context", body: models.StartSessionRequest{}},
		{name: "blank context", body: models.StartSessionRequest{Context: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, router, "/qa/start", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestStartSessionHandlerInvalidJSON(t *testing.T) {
	router := newTestRouter(&stubGenerator{question: "Q?"}, &stubEvaluator{})

	req := httptest.NewRequest(http.MethodPost, "/qa/start", bytes.NewReader([]byte(`{"context": `)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestStartSessionHandlerGenerationFailure(t *testing.T) {
	router := newTestRouter(&stubGenerator{err: qa.ErrGenerationFailed}, &stubEvaluator{})

	rec := postJSON(t, router, "/qa/start", models.StartSessionRequest{Context: "Paris is the capital of France."})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body["error"] != "Internal server error" {
		t.Errorf("expected generic error message, got %q", body["error"])
	}
}

func TestSubmitAnswerHandler(t *testing.T) {
	router := newTestRouter(
		&stubGenerator{question: "What is the capital of France?"},
		&stubEvaluator{evaluation: models.Evaluation{Feedback: "Correct!", Score: models.ScorePass}},
	)

	startRec := postJSON(t, router, "/qa/start", models.StartSessionRequest{Context: "Paris is the capital of France."})
	var start models.StartSessionResponse
	if err := json.Unmarshal(startRec.Body.Bytes(), &start); err != nil {
		t.Fatalf("failed to decode start response: %v", err)
	}

	rec := postJSON(t, router, "/qa/answer", models.AnswerRequest{SessionID: start.SessionID, Answer: "Paris"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var resp models.AnswerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode answer response: %v", err)
	}

	if resp.Status != models.StatusCorrect {
		t.Errorf("expected status %q, got %q", models.StatusCorrect, resp.Status)
	}
	if resp.Feedback != "Correct!" {
		t.Errorf("expected feedback from evaluator, got %q", resp.Feedback)
	}
	if resp.NextQuestion == "" {
		t.Error("expected a follow-up question")
	}
	if resp.AttemptCount != 0 {
		t.Errorf("expected attempt count 0, got %d", resp.AttemptCount)
	}
}

func TestSubmitAnswerHandlerNeedsImprovement(t *testing.T) {
	router := newTestRouter(
		&stubGenerator{question: "What is the capital of France?"},
		&stubEvaluator{evaluation: models.Evaluation{Feedback: "The capital is Paris.", Score: models.ScoreNeedsImprovement}},
	)

	startRec := postJSON(t, router, "/qa/start", models.StartSessionRequest{Context: "Paris is the capital of France."})
	var start models.StartSessionResponse
	if err := json.Unmarshal(startRec.Body.Bytes(), &start); err != nil {
		t.Fatalf("failed to decode start response: %v", err)
	}

	rec := postJSON(t, router, "/qa/answer", models.AnswerRequest{SessionID: start.SessionID, Answer: "London"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var resp models.AnswerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode answer response: %v", err)
	}

	if resp.Status != models.StatusNeedsImprovement {
		t.Errorf("expected status %q, got %q", models.StatusNeedsImprovement, resp.Status)
	}
	if resp.AttemptCount != 1 {
		t.Errorf("expected attempt count 1, got %d", resp.AttemptCount)
	}
	if resp.NextQuestion != "" {
		t.Errorf("unexpected next question %q", resp.NextQuestion)
	}
}

func TestSubmitAnswerHandlerValidation(t *testing.T) {
	router := newTestRouter(&stubGenerator{question: "Q?"}, &stubEvaluator{})

	tests := []struct {
		name string
		body models.AnswerRequest
	}{
		{name: "missing session id", body: models.AnswerRequest{Answer: "Paris"}},
		{name: "missing answer", body: models.AnswerRequest{SessionID: "qa_1"}},
		{name: "blank answer", body: models.AnswerRequest{SessionID: "qa_1", Answer: "  "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, router, "/qa/answer", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestSubmitAnswerHandlerUnknownSession(t *testing.T) {
	router := newTestRouter(&stubGenerator{question: "Q?"}, &stubEvaluator{evaluation: models.Evaluation{Feedback: "ok", Score: models.ScorePass}})

	rec := postJSON(t, router, "/qa/answer", models.AnswerRequest{SessionID: "qa_missing", Answer: "Paris"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestSubmitAnswerHandlerEvaluationFailure(t *testing.T) {
	router := newTestRouter(
		&stubGenerator{question: "What is the capital of France?"},
		&stubEvaluator{err: qa.ErrEvaluationFailed},
	)

	startRec := postJSON(t, router, "/qa/start", models.StartSessionRequest{Context: "Paris is the capital of France."})
	var start models.StartSessionResponse
	if err := json.Unmarshal(startRec.Body.Bytes(), &start); err != nil {
		t.Fatalf("failed to decode start response: %v", err)
	}

	rec := postJSON(t, router, "/qa/answer", models.AnswerRequest{SessionID: start.SessionID, Answer: "Paris"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if body["error"] != "Internal server error" {
		t.Errorf("expected generic error message, got %q", body["error"])
	}
}
