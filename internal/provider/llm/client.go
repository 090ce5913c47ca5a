// Package llm generates cooking instructions through an OpenAI-compatible
// chat completion API.
package llm

import (
	"context"
	"fmt"
	"strings"

	"git.home.luguber.info/inful/mealprep/internal/config"
	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
	"git.home.luguber.info/inful/mealprep/internal/metrics"
	"git.home.luguber.info/inful/mealprep/internal/provider"
	"git.home.luguber.info/inful/mealprep/internal/quota"
	"git.home.luguber.info/inful/mealprep/internal/retry"
)

// Name is the provider label used for quota, metrics and logs.
const Name = "llm"

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Client calls a chat completion endpoint.
type Client struct {
	caller *provider.Caller
	cfg    config.LLMConfig
}

// New creates an LLM client from config.
func New(cfg config.LLMConfig, q *quota.Manager, rec metrics.Recorder, policy retry.Policy) *Client {
	return &Client{
		caller: provider.NewCaller(Name, cfg.Timeout.Std(), q, rec, policy),
		cfg:    cfg,
	}
}

// Chat sends messages and returns the first choice's content.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	if c.cfg.APIKey == "" {
		return "", apperrors.New(apperrors.CategoryConfig, apperrors.SeverityError, "llm api key not configured")
	}

	var resp chatResponse
	err := c.caller.DoJSON(ctx, provider.Request{
		Operation: "chat",
		Method:    "POST",
		URL:       c.cfg.BaseURL + "/chat/completions",
		Headers:   map[string]string{"Authorization": "Bearer " + c.cfg.APIKey},
		JSONBody: chatRequest{
			Model:       c.cfg.Model,
			Messages:    messages,
			MaxTokens:   c.cfg.MaxTokens,
			Temperature: c.cfg.Temperature,
		},
	}, &resp)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", apperrors.New(apperrors.CategoryProvider, apperrors.SeverityError, "llm returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// RecipeInput carries what the prompt needs from a recipe.
type RecipeInput struct {
	Name        string
	Servings    int
	Ingredients []IngredientInput
}

// IngredientInput is one ingredient line for the prompt.
type IngredientInput struct {
	Name     string
	Quantity float64
	Unit     string
}

// GenerateInstructions produces markdown cooking instructions for a recipe.
func (c *Client) GenerateInstructions(ctx context.Context, in RecipeInput) (string, error) {
	if len(in.Ingredients) == 0 {
		return "", apperrors.ValidationError("recipe has no ingredients")
	}

	var b strings.Builder
	for _, ing := range in.Ingredients {
		fmt.Fprintf(&b, "- %s: %g %s\n", ing.Name, ing.Quantity, ing.Unit)
	}

	prompt := fmt.Sprintf(`Write cooking instructions for the recipe %q (%d servings) using these ingredients:

%s
Respond in markdown with a numbered step list. Be concise and practical; do not restate the ingredient list.`,
		in.Name, in.Servings, b.String())

	return c.Chat(ctx, []Message{
		{Role: "system", Content: "You are a pragmatic home-cooking assistant. Write clear, numbered cooking steps."},
		{Role: "user", Content: prompt},
	})
}
