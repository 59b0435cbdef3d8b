package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sundial-ai/sundial/assistant"
	"github.com/sundial-ai/sundial/llm"
)

// Classifier determines which category a user message belongs to.
type Classifier interface {
	Classify(ctx context.Context, message *assistant.Message) (string, error)
}

// KeywordClassifier matches messages against per-category keyword lists.
// The category with the most matches wins.
type KeywordClassifier struct {
	keywords map[string][]string
}

// NewKeywordClassifier creates a keyword-based classifier.
func NewKeywordClassifier(keywords map[string][]string) *KeywordClassifier {
	return &KeywordClassifier{keywords: keywords}
}

// Classify determines category using keyword matching.
func (c *KeywordClassifier) Classify(ctx context.Context, message *assistant.Message) (string, error) {
	if message == nil {
		return "", fmt.Errorf("message cannot be nil")
	}

	content := strings.ToLower(message.Content)
	maxMatches := 0
	bestCategory := ""

	for category, keywords := range c.keywords {
		matches := 0
		for _, keyword := range keywords {
			if strings.Contains(content, strings.ToLower(keyword)) {
				matches++
			}
		}
		if matches > maxMatches {
			maxMatches = matches
			bestCategory = category
		}
	}

	if bestCategory == "" {
		return "", fmt.Errorf("no keyword matches found")
	}
	return bestCategory, nil
}

// LLMClassifier prompts a model to pick one of the valid categories. A
// fallback classifier handles model failures and invalid answers, so a
// flaky model degrades to keyword routing instead of erroring the turn.
type LLMClassifier struct {
	llm        llm.LLM
	categories []string
	prompt     string
	fallback   Classifier
	logger     *slog.Logger
}

// NewLLMClassifier creates a model-based classifier. fallback may be nil.
func NewLLMClassifier(model llm.LLM, categories []string, fallback Classifier) *LLMClassifier {
	if len(categories) == 0 {
		categories = []string{"general"}
	}

	prompt := fmt.Sprintf(`Classify the following message into one of these categories: %s

Reply with ONLY the category name, nothing else.

Message: `, strings.Join(categories, ", "))

	return &LLMClassifier{
		llm:        model,
		categories: categories,
		prompt:     prompt,
		fallback:   fallback,
		logger:     slog.Default().With("component", "classifier"),
	}
}

// Classify asks the model for a category and validates the answer.
func (c *LLMClassifier) Classify(ctx context.Context, message *assistant.Message) (string, error) {
	if message == nil {
		return "", fmt.Errorf("message cannot be nil")
	}

	prompt := assistant.NewMessage("user", c.prompt+message.Content)
	result, err := c.llm.Complete(ctx, []*assistant.Message{prompt}, llm.WithTemperature(0))
	if err != nil {
		return c.fallbackTo(ctx, message, fmt.Errorf("llm classification failed: %w", err))
	}

	category := strings.ToLower(strings.TrimSpace(result.Content))
	for _, valid := range c.categories {
		if strings.EqualFold(category, valid) {
			return valid, nil
		}
	}

	return c.fallbackTo(ctx, message, fmt.Errorf("llm returned invalid category '%s' (valid: %s)",
		category, strings.Join(c.categories, ", ")))
}

func (c *LLMClassifier) fallbackTo(ctx context.Context, message *assistant.Message, cause error) (string, error) {
	if c.fallback == nil {
		return "", cause
	}
	c.logger.Warn("falling back to keyword classification", "cause", cause)
	category, err := c.fallback.Classify(ctx, message)
	if err != nil {
		return "", cause
	}
	return category, nil
}
