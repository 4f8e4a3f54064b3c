// Package llm produces flashcard proposals from source text.
package llm

import (
	"context"
	"fmt"

	"github.com/vytor/tenxcards/internal/config"
	"github.com/vytor/tenxcards/internal/models"
)

type Generator interface {
	Generate(ctx context.Context, model, sourceText string) ([]models.ProposedFlashcard, error)
}

// FromConfig selects the generator named by cfg.LLMProvider.
func FromConfig(cfg config.Config) (Generator, error) {
	switch cfg.LLMProvider {
	case config.LLMMock:
		return MockGenerator{}, nil
	case config.LLMOpenAI:
		return NewOpenAICompatGenerator(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}

// MockGenerator returns a fixed set of study-technique cards regardless of
// input.
type MockGenerator struct{}

func (MockGenerator) Generate(ctx context.Context, _, _ string) ([]models.ProposedFlashcard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []models.ProposedFlashcard{
		{
			Front: "What is spaced repetition?",
			Back:  "A learning technique that reviews information at increasing intervals.",
		},
		{
			Front: "What is active recall?",
			Back:  "A study method that actively stimulates memory while learning.",
		},
		{
			Front: "What are the benefits of spaced repetition?",
			Back:  "Better retention, more efficient learning and durable long-term memory.",
		},
		{
			Front: "How does the SM-2 algorithm work?",
			Back:  "It computes the optimal gap between reviews based on a rating of how hard the card was.",
		},
		{
			Front: "What is an ease factor?",
			Back:  "A coefficient describing how easy a card is to remember, used by spaced repetition algorithms.",
		},
	}, nil
}
