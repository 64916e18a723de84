package qa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"qatutor/models"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
)

var ErrEvaluationFailed = errors.New("answer evaluation returned no usable output")

const submitEvaluationToolName = "submit_evaluation"

// AnswerEvaluator judges the most recent answer in the history against the
// context and question already present in it, returning a structured verdict
// and the superseding transcript.
type AnswerEvaluator interface {
	EvaluateAnswer(ctx context.Context, history []models.Message) (*models.Evaluation, []models.Message, error)
}

type SubmitEvaluationInput struct {
	Feedback string `json:"feedback" jsonschema:"required,description=Short feedback for the student: encouragement if correct, a concise explanation of what is missing or wrong otherwise"`
	Score    string `json:"score" jsonschema:"required,enum=pass,enum=needs_improvement,description=Whether the answer passes or needs improvement"`
}

type AnthropicAnswerEvaluator struct {
	client *anthropic.Client
}

func NewAnthropicAnswerEvaluator(apiKey string) *AnthropicAnswerEvaluator {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicAnswerEvaluator{client: &client}
}

func (e *AnthropicAnswerEvaluator) EvaluateAnswer(ctx context.Context, history []models.Message) (*models.Evaluation, []models.Message, error) {
	log.Printf("[INFO] Calling Anthropic API for answer evaluation with %d history entries", len(history))

	response, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.ModelClaude4Sonnet20250514,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: EVALUATOR_SYSTEM_PROMPT},
		},
		Messages: convertToAnthropicMessages(history),
		Tools:    evaluationToolSpecs(),
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: submitEvaluationToolName},
		},
	})
	if err != nil {
		log.Printf("[ERROR] Failed to call Anthropic API for evaluation: %v", err)
		return nil, nil, fmt.Errorf("failed to evaluate answer: %w", err)
	}

	evaluation, err := extractEvaluation(response)
	if err != nil {
		log.Printf("[ERROR] Failed to extract evaluation verdict: %v", err)
		return nil, nil, err
	}

	updated := make([]models.Message, len(history), len(history)+1)
	copy(updated, history)
	updated = append(updated, models.Message{Role: "assistant", Content: evaluation.Feedback})

	log.Printf("[INFO] Evaluation verdict: %s", evaluation.Score)
	return evaluation, updated, nil
}

func extractEvaluation(response *anthropic.Message) (*models.Evaluation, error) {
	for _, block := range response.Content {
		toolUse, ok := block.AsAny().(anthropic.ToolUseBlock)
		if !ok || toolUse.Name != submitEvaluationToolName {
			continue
		}

		inputJSON, err := json.Marshal(toolUse.Input)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal evaluation tool input: %w", err)
		}

		return parseEvaluation(inputJSON)
	}

	return nil, ErrEvaluationFailed
}

func parseEvaluation(input []byte) (*models.Evaluation, error) {
	var params SubmitEvaluationInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("failed to parse evaluation verdict: %w", err)
	}

	if !lo.Contains([]string{models.ScorePass, models.ScoreNeedsImprovement}, params.Score) {
		return nil, fmt.Errorf("%w: unexpected score %q", ErrEvaluationFailed, params.Score)
	}

	if params.Feedback == "" {
		return nil, fmt.Errorf("%w: empty feedback", ErrEvaluationFailed)
	}

	return &models.Evaluation{
		Feedback: params.Feedback,
		Score:    params.Score,
	}, nil
}

func convertToAnthropicMessages(history []models.Message) []anthropic.MessageParam {
	var messages []anthropic.MessageParam

	for _, msg := range history {
		if msg.Role == "user" {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		} else {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	return messages
}

func evaluationToolSpecs() []anthropic.ToolUnionParam {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(SubmitEvaluationInput{})

	return []anthropic.ToolUnionParam{
		{
			OfTool: &anthropic.ToolParam{
				Name:        submitEvaluationToolName,
				Description: anthropic.String("Submit the verdict on the student's most recent answer"),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: schema.Properties,
				},
			},
		},
	}
}
