package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mealprep/internal/config"
	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
	"git.home.luguber.info/inful/mealprep/internal/retry"
)

func testClient(baseURL, key string) *Client {
	cfg := config.LLMConfig{
		Enabled:     true,
		BaseURL:     baseURL,
		APIKey:      key,
		Model:       "test-model",
		MaxTokens:   500,
		Temperature: 0.3,
		Timeout:     config.Duration(time.Second),
	}
	policy := retry.Policy{Mode: config.RetryBackoffFixed, Initial: time.Millisecond, Max: time.Millisecond, MaxRetries: 0}
	return New(cfg, nil, nil, policy)
}

func TestGenerateInstructions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1].Content, "chicken breast")
		assert.Contains(t, req.Messages[1].Content, "Weeknight Chicken")

		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"1. Preheat the oven."}}]}`))
	}))
	defer srv.Close()

	out, err := testClient(srv.URL, "test-key").GenerateInstructions(context.Background(), RecipeInput{
		Name:     "Weeknight Chicken",
		Servings: 4,
		Ingredients: []IngredientInput{
			{Name: "chicken breast", Quantity: 500, Unit: "g"},
			{Name: "olive oil", Quantity: 2, Unit: "tbsp"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "1. Preheat the oven.", out)
}

func TestGenerateInstructionsNoIngredients(t *testing.T) {
	_, err := testClient("http://unused", "k").GenerateInstructions(context.Background(), RecipeInput{Name: "Empty"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation))
}

func TestChatMissingKey(t *testing.T) {
	_, err := testClient("http://unused", "").Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConfig))
}

func TestChatNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, "k").Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryProvider))
}
