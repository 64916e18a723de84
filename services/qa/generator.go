package qa

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"qatutor/models"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

var ErrGenerationFailed = errors.New("question generation returned no usable output")

// QuestionGenerator produces exactly one new question from the conversation
// history and returns the superseding transcript alongside it.
type QuestionGenerator interface {
	GenerateQuestion(ctx context.Context, history []models.Message) (string, []models.Message, error)
}

type LLMQuestionGenerator struct {
	llm llms.Model
}

func NewLLMQuestionGenerator(apiKey string) (*LLMQuestionGenerator, error) {
	llm, err := openai.New(
		openai.WithModel("gpt-4o-mini"),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	return &LLMQuestionGenerator{llm: llm}, nil
}

func (g *LLMQuestionGenerator) GenerateQuestion(ctx context.Context, history []models.Message) (string, []models.Message, error) {
	log.Printf("[INFO] Calling LLM for question generation with %d history entries", len(history))

	messageHistory := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, QUESTION_GENERATOR_SYSTEM_PROMPT),
	}

	for _, msg := range history {
		var msgType schema.ChatMessageType
		if msg.Role == "user" {
			msgType = schema.ChatMessageTypeHuman
		} else {
			msgType = schema.ChatMessageTypeAI
		}
		messageHistory = append(messageHistory, llms.TextParts(msgType, msg.Content))
	}

	resp, err := g.llm.GenerateContent(ctx, messageHistory, llms.WithTemperature(0.7))
	if err != nil {
		log.Printf("[ERROR] Failed to generate question: %v", err)
		return "", nil, fmt.Errorf("failed to generate question: %w", err)
	}

	if len(resp.Choices) == 0 {
		log.Printf("[ERROR] No choices in question generation response")
		return "", nil, ErrGenerationFailed
	}

	question := strings.TrimSpace(resp.Choices[0].Content)
	if question == "" {
		log.Printf("[ERROR] Question generation returned empty output")
		return "", nil, ErrGenerationFailed
	}

	updated := make([]models.Message, len(history), len(history)+1)
	copy(updated, history)
	updated = append(updated, models.Message{Role: "assistant", Content: question})

	log.Printf("[INFO] Successfully generated question (%d chars)", len(question))
	return question, updated, nil
}
