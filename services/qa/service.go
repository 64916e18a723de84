package qa

import (
	"context"
	"fmt"
	"log"
	"time"

	"qatutor/models"

	"github.com/google/uuid"
)

const DefaultMaxAttempts = 5

type Config struct {
	MaxAttempts int
	Retention   time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts: DefaultMaxAttempts,
		Retention:   time.Hour,
	}
}

// Service drives the tutoring loop: it creates sessions, threads the shared
// conversation history through the two collaborators and branches on the
// evaluator's verdict. All session mutations are staged on a copy and
// committed with Put only after every collaborator call has succeeded, so a
// failed call consumes no attempt and leaves no partial history.
type Service struct {
	store     *SessionStore
	generator QuestionGenerator
	evaluator AnswerEvaluator
	config    Config
}

func NewService(store *SessionStore, generator QuestionGenerator, evaluator AnswerEvaluator, config Config) *Service {
	return &Service{
		store:     store,
		generator: generator,
		evaluator: evaluator,
		config:    config,
	}
}

func (s *Service) StartSession(ctx context.Context, contextText string) (*models.StartSessionResponse, error) {
	log.Printf("[INFO] Starting new QA session (context length: %d chars)", len(contextText))

	s.sweep()

	history := []models.Message{
		{Role: "user", Content: contextEntry(contextText)},
	}

	question, history, err := s.generator.GenerateQuestion(ctx, history)
	if err != nil {
		log.Printf("[ERROR] Failed to generate initial question: %v", err)
		return nil, fmt.Errorf("failed to generate initial question: %w", err)
	}

	session := &models.QASession{
		ID:              newSessionID(),
		Context:         contextText,
		History:         history,
		CurrentQuestion: question,
		AttemptCount:    0,
		MaxAttempts:     s.config.MaxAttempts,
		CreatedAt:       time.Now(),
	}

	if err := s.store.Create(session); err != nil {
		// Ids are collision-resistant; a clash means something is very
		// wrong, but one retry with a fresh id keeps it from being fatal.
		log.Printf("[ERROR] Session id collision on %s, retrying with a fresh id", session.ID)
		session.ID = newSessionID()
		if err := s.store.Create(session); err != nil {
			return nil, fmt.Errorf("failed to store session: %w", err)
		}
	}

	log.Printf("[INFO] Successfully started session %s", session.ID)
	return &models.StartSessionResponse{
		SessionID:    session.ID,
		Question:     question,
		AttemptCount: 0,
		MaxAttempts:  session.MaxAttempts,
	}, nil
}

func (s *Service) ProcessAnswer(ctx context.Context, sessionID, answer string) (*models.AnswerResponse, error) {
	log.Printf("[INFO] Processing answer for session %s", sessionID)

	s.sweep()

	lock := s.store.LockSession(sessionID)
	defer lock.Unlock()

	session, err := s.store.Get(sessionID)
	if err != nil {
		log.Printf("[ERROR] Session %s not found: %v", sessionID, err)
		return nil, err
	}

	session.AttemptCount++
	session.History = append(session.History, models.Message{Role: "user", Content: answerEntry(answer)})

	evaluation, history, err := s.evaluator.EvaluateAnswer(ctx, session.History)
	if err != nil {
		log.Printf("[ERROR] Evaluation failed for session %s, no changes committed: %v", sessionID, err)
		return nil, fmt.Errorf("failed to evaluate answer: %w", err)
	}
	session.History = history

	if evaluation.Score == models.ScorePass {
		nextQuestion, err := s.installNextQuestion(ctx, session, FOLLOW_UP_QUESTION_PROMPT)
		if err != nil {
			return nil, err
		}

		s.store.Put(session.ID, session)
		log.Printf("[INFO] Session %s answered correctly, follow-up question installed", sessionID)

		return &models.AnswerResponse{
			Status:       models.StatusCorrect,
			Feedback:     evaluation.Feedback,
			NextQuestion: nextQuestion,
			AttemptCount: 0,
			MaxAttempts:  session.MaxAttempts,
		}, nil
	}

	if session.AttemptCount >= session.MaxAttempts {
		previousQuestion := session.CurrentQuestion

		nextQuestion, err := s.installNextQuestion(ctx, session, NEW_QUESTION_PROMPT)
		if err != nil {
			return nil, err
		}

		if questionsNearDuplicate(previousQuestion, nextQuestion) {
			log.Printf("[INFO] Replacement question for session %s too similar, regenerating once", sessionID)
			nextQuestion, err = s.installNextQuestion(ctx, session, RETRY_QUESTION_PROMPT)
			if err != nil {
				return nil, err
			}
		}

		s.store.Put(session.ID, session)
		log.Printf("[INFO] Session %s hit the attempt limit, new question installed", sessionID)

		return &models.AnswerResponse{
			Status:       models.StatusMaxAttempts,
			Feedback:     maxAttemptsFeedback(nextQuestion),
			NextQuestion: nextQuestion,
			AttemptCount: 0,
			MaxAttempts:  session.MaxAttempts,
		}, nil
	}

	// Retry path: record the feedback so the next answer is evaluated with
	// awareness of the prior hint.
	session.History = append(session.History, models.Message{Role: "user", Content: feedbackEntry(evaluation.Feedback)})
	s.store.Put(session.ID, session)

	log.Printf("[INFO] Session %s needs improvement (attempt %d of %d)", sessionID, session.AttemptCount, session.MaxAttempts)
	return &models.AnswerResponse{
		Status:       models.StatusNeedsImprovement,
		Feedback:     evaluation.Feedback,
		AttemptCount: session.AttemptCount,
		MaxAttempts:  session.MaxAttempts,
	}, nil
}

// installNextQuestion appends a priming entry, invokes the generator and
// installs the result: the new question becomes current, the transcript is
// adopted wholesale and the attempt counter resets to zero.
func (s *Service) installNextQuestion(ctx context.Context, session *models.QASession, priming string) (string, error) {
	session.History = append(session.History, models.Message{Role: "user", Content: priming})

	question, history, err := s.generator.GenerateQuestion(ctx, session.History)
	if err != nil {
		log.Printf("[ERROR] Failed to generate next question for session %s: %v", session.ID, err)
		return "", fmt.Errorf("failed to generate next question: %w", err)
	}

	session.History = history
	session.CurrentQuestion = question
	session.AttemptCount = 0
	return question, nil
}

func (s *Service) sweep() {
	if removed := s.store.SweepExpired(time.Now(), s.config.Retention); removed > 0 {
		log.Printf("[INFO] Swept %d expired sessions", removed)
	}
}

func newSessionID() string {
	return fmt.Sprintf("qa_%d_%s", time.Now().UnixMilli(), uuid.NewString())
}
