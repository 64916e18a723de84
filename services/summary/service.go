package summary

import (
	"context"
	"fmt"
	"log"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	KEYWORDS_PROMPT = `Extract the most important keywords from the following text. Format as a simple bulleted list of keywords or short phrases:

%s`

	TALKING_POINTS_PROMPT = `Simplify the following text into clear, short, concise talking points that would be easy to remember and discuss with others:

%s`
)

// Service answers free-form queries and reshapes earlier responses into
// keywords or talking points, streaming tokens back as they arrive.
type Service struct {
	llm llms.Model
}

func NewService(apiKey string) (*Service, error) {
	llm, err := openai.New(
		openai.WithModel("gpt-4o-mini"),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	return &Service{llm: llm}, nil
}

func (s *Service) StreamSummary(ctx context.Context, query, option, originalResponse string, tokenCallback func(string)) error {
	prompt := s.buildPrompt(query, option, originalResponse)

	log.Printf("[INFO] Calling LLM for streaming summary (option: %q)", option)
	_, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt,
		llms.WithTemperature(0.7),
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			tokenCallback(string(chunk))
			return nil
		}),
	)
	if err != nil {
		log.Printf("[ERROR] Failed to generate streaming summary: %v", err)
		return fmt.Errorf("failed to generate streaming summary: %w", err)
	}

	log.Printf("[INFO] Successfully completed streaming summary")
	return nil
}

func (s *Service) buildPrompt(query, option, originalResponse string) string {
	switch option {
	case "keywords":
		return fmt.Sprintf(KEYWORDS_PROMPT, originalResponse)
	case "talking-points":
		return fmt.Sprintf(TALKING_POINTS_PROMPT, originalResponse)
	default:
		// Unrecognized options fall back to the original query.
		return query
	}
}
