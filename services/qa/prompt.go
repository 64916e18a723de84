package qa

import (
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const (
	QUESTION_GENERATOR_SYSTEM_PROMPT = `Given a context passage (and optionally any previous question/feedback in the history), generate exactly one clear, context-based question.
Output must be a single question sentence with no numbering.`

	EVALUATOR_SYSTEM_PROMPT = `You are a grading assistant.
You receive, in the conversation history, three key pieces of information:
1) The original context passage (from the user).
2) The question that was asked.
3) The student's answer to that question.

Your job is to compare the student's answer against the context + question, then decide:
- If the answer is correct (in context), set "score" to "pass" and feedback to a short encouraging message (e.g., "Correct!").
- If the answer is incomplete or incorrect, set "score" to "needs_improvement" and feedback to a concise explanation of what's missing or wrong.

Always submit your verdict through the submit_evaluation tool.

Never say "pass" on the very first run without actually evaluating. Keep your feedback focused on how the student can improve if needed.`

	FOLLOW_UP_QUESTION_PROMPT = "Generate a follow-up question."
	NEW_QUESTION_PROMPT       = "Generate a new question (different)."
	RETRY_QUESTION_PROMPT     = "That question is too similar to the previous one. Generate a completely different question about another aspect of the context."
)

func contextEntry(context string) string {
	return fmt.Sprintf("Context: %s", context)
}

func answerEntry(answer string) string {
	return fmt.Sprintf("Answer: %s", answer)
}

func feedbackEntry(feedback string) string {
	return fmt.Sprintf("Feedback: %s", feedback)
}

func maxAttemptsFeedback(question string) string {
	return fmt.Sprintf("Maximum attempts reached. Here's a new question: %s", question)
}

// questionsNearDuplicate reports whether two questions are the same modulo
// case, punctuation and small wording changes. Used to catch a forced
// replacement question that merely restates the one it replaces.
func questionsNearDuplicate(a, b string) bool {
	na := normalizeQuestion(a)
	nb := normalizeQuestion(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}

	short, long := na, nb
	if len(short) > len(long) {
		short, long = long, short
	}

	rank := fuzzy.RankMatchNormalizedFold(short, long)
	if rank < 0 {
		return false
	}

	// Tolerate an edit distance of up to 20% of the longer question.
	return rank*5 <= len(long)
}

func normalizeQuestion(q string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(q)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
