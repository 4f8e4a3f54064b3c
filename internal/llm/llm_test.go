package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/tenxcards/internal/config"
	"github.com/vytor/tenxcards/internal/llm"
)

func TestMockGenerator_ReturnsFiveCards(t *testing.T) {
	cards, err := llm.MockGenerator{}.Generate(context.Background(), "openai/gpt-4", "text")

	require.NoError(t, err)
	assert.Len(t, cards, 5)
	assert.Equal(t, "What is spaced repetition?", cards[0].Front)
}

func TestMockGenerator_RespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := llm.MockGenerator{}.Generate(ctx, "m", "text")
	assert.ErrorIs(t, err, context.Canceled)
}

func completionServer(t *testing.T, status int, content string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "openai/gpt-4", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "source", req.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 400 {
			_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestOpenAICompatGenerator_ParsesFencedJSON(t *testing.T) {
	content := "```json\n[{\"front\":\" Q1 \",\"back\":\"A1\"},{\"front\":\"\",\"back\":\"dropped\"},{\"front\":\"Q2\",\"back\":\"A2\"}]\n```"
	srv := completionServer(t, http.StatusOK, content)
	defer srv.Close()

	g := llm.NewOpenAICompatGenerator(srv.URL+"/v1/", "key", "openai/gpt-4", time.Second)
	cards, err := g.Generate(context.Background(), "", "source")

	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "Q1", cards[0].Front)
	assert.Equal(t, "Q2", cards[1].Front)
}

func TestOpenAICompatGenerator_APIError(t *testing.T) {
	srv := completionServer(t, http.StatusTooManyRequests, "")
	defer srv.Close()

	g := llm.NewOpenAICompatGenerator(srv.URL+"/v1", "key", "openai/gpt-4", time.Second)
	_, err := g.Generate(context.Background(), "openai/gpt-4", "source")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestOpenAICompatGenerator_NoArray(t *testing.T) {
	srv := completionServer(t, http.StatusOK, "Sorry, I cannot help with that.")
	defer srv.Close()

	g := llm.NewOpenAICompatGenerator(srv.URL+"/v1", "key", "openai/gpt-4", time.Second)
	_, err := g.Generate(context.Background(), "openai/gpt-4", "source")

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no JSON array"))
}

func TestFromConfig(t *testing.T) {
	g, err := llm.FromConfig(config.Config{LLMProvider: config.LLMMock})
	require.NoError(t, err)
	assert.IsType(t, llm.MockGenerator{}, g)

	g, err = llm.FromConfig(config.Config{LLMProvider: config.LLMOpenAI, LLMBaseURL: "http://x"})
	require.NoError(t, err)
	assert.IsType(t, &llm.OpenAICompatGenerator{}, g)

	_, err = llm.FromConfig(config.Config{LLMProvider: "nope"})
	assert.Error(t, err)
}
