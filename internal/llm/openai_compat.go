package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vytor/tenxcards/internal/models"
	"github.com/vytor/tenxcards/internal/validation"
)

const systemPrompt = `You create study flashcards. Read the user's text and reply with a JSON array only, ` +
	`no prose. Each element is {"front": "...", "back": "..."}. Fronts are questions of at most 200 characters, ` +
	`backs are answers of at most 500 characters. Produce between 3 and 10 cards.`

// OpenAICompatGenerator calls any OpenAI-compatible /chat/completions
// endpoint, such as OpenRouter or a local vLLM.
type OpenAICompatGenerator struct {
	baseURL      string
	apiKey       string
	defaultModel string
	httpClient   *http.Client
}

// NewOpenAICompatGenerator builds a generator. baseURL should include the
// version prefix, e.g. "https://openrouter.ai/api/v1".
func NewOpenAICompatGenerator(baseURL, apiKey, defaultModel string, timeout time.Duration) *OpenAICompatGenerator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAICompatGenerator{
		baseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:       strings.TrimSpace(apiKey),
		defaultModel: strings.TrimSpace(defaultModel),
		httpClient:   &http.Client{Timeout: timeout},
	}
}

func (g *OpenAICompatGenerator) Generate(ctx context.Context, model, sourceText string) ([]models.ProposedFlashcard, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		model = g.defaultModel
	}
	if model == "" {
		return nil, errors.New("openai-compat generation model required")
	}

	body, err := json.Marshal(oaiChatRequest{
		Model: model,
		Messages: []oaiMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: sourceText},
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai-compat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp oaiErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return nil, fmt.Errorf("openai-compat api error: %s", errResp.Error.Message)
		}
		return nil, fmt.Errorf("openai-compat api error: %s", resp.Status)
	}

	var chatResp oaiChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("openai-compat decode: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, errors.New("empty response from openai-compat api")
	}
	return parseCards(chatResp.Choices[0].Message.Content)
}

// parseCards reads the JSON array from a completion, tolerating a fenced
// code block around it. Cards failing field validation are dropped.
func parseCards(content string) ([]models.ProposedFlashcard, error) {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, errors.New("completion contains no JSON array")
	}

	var raw []models.ProposedFlashcard
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("decode proposed flashcards: %w", err)
	}

	cards := make([]models.ProposedFlashcard, 0, len(raw))
	for _, c := range raw {
		c.Front = strings.TrimSpace(c.Front)
		c.Back = strings.TrimSpace(c.Back)
		if validation.ValidateFlashcard(c.Front, c.Back).IsValid() {
			cards = append(cards, c)
		}
	}
	if len(cards) == 0 {
		return nil, errors.New("completion produced no usable flashcards")
	}
	return cards, nil
}

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiChatRequest struct {
	Model    string       `json:"model"`
	Messages []oaiMessage `json:"messages"`
}

type oaiChatResponse struct {
	Choices []struct {
		Message oaiMessage `json:"message"`
	} `json:"choices"`
}

type oaiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
