package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"budgeteer/internal/logger"
)

type generateFunc func(ctx context.Context, prompt string) (string, error)

// GeminiClassifier asks a Gemini model for a category and falls back to
// another classifier when the model is slow, fails, or answers off-list.
type GeminiClassifier struct {
	generate generateFunc
	timeout  time.Duration
	fallback Classifier
}

// NewGeminiClassifier creates a classifier backed by the Gemini API.
func NewGeminiClassifier(ctx context.Context, apiKey, model string, timeout time.Duration, fallback Classifier) (*GeminiClassifier, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	generate := func(ctx context.Context, prompt string) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
		if err != nil {
			return "", err
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return "", fmt.Errorf("empty response from model %s", model)
		}
		var sb strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if part != nil {
				sb.WriteString(part.Text)
			}
		}
		return sb.String(), nil
	}

	return &GeminiClassifier{generate: generate, timeout: timeout, fallback: fallback}, nil
}

// Classify implements Classifier.
func (g *GeminiClassifier) Classify(ctx context.Context, description string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	answer, err := g.generate(ctx, prompt(description))
	if err == nil {
		if category, ok := normalize(answer); ok {
			return category, nil
		}
		err = fmt.Errorf("unexpected category %q", answer)
	}

	logger.Get().Warnw("gemini classification failed, using fallback", "error", err)
	if g.fallback == nil {
		return DefaultCategory, nil
	}
	return g.fallback.Classify(ctx, description)
}

func prompt(description string) string {
	var sb strings.Builder
	sb.WriteString("You are a personal finance assistant. Classify the expense below into exactly one of these categories: ")
	sb.WriteString(strings.Join(Categories, ", "))
	sb.WriteString(".\nReply with the category name only, no punctuation or explanation.\n\nExpense: ")
	sb.WriteString(description)
	return sb.String()
}
