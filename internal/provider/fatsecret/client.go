// Package fatsecret wraps the FatSecret platform API (OAuth2 client
// credentials + foods.search).
package fatsecret

import (
	"context"
	"net/url"
	"regexp"
	"strconv"

	"git.home.luguber.info/inful/mealprep/internal/config"
	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
	"git.home.luguber.info/inful/mealprep/internal/metrics"
	"git.home.luguber.info/inful/mealprep/internal/nutrition"
	"git.home.luguber.info/inful/mealprep/internal/provider"
	"git.home.luguber.info/inful/mealprep/internal/quota"
	"git.home.luguber.info/inful/mealprep/internal/retry"
)

// Name is the provider label used for quota, metrics and logs.
const Name = "fatsecret"

const tokenURL = "https://oauth.fatsecret.com/connect/token"

// Client calls the FatSecret REST API.
type Client struct {
	caller  *provider.Caller
	tokens  *provider.TokenSource
	baseURL string
}

// New creates a FatSecret client from provider config.
func New(cfg config.ProviderConfig, q *quota.Manager, rec metrics.Recorder, policy retry.Policy) *Client {
	caller := provider.NewCaller(Name, cfg.Timeout.Std(), q, rec, policy)
	return &Client{
		caller:  caller,
		tokens:  provider.NewTokenSource(caller, tokenURL, cfg.ClientID, cfg.ClientSecret, "basic"),
		baseURL: cfg.BaseURL,
	}
}

type searchResponse struct {
	Foods struct {
		Food []food `json:"food"`
	} `json:"foods"`
}

type food struct {
	FoodID          string `json:"food_id"`
	FoodName        string `json:"food_name"`
	BrandName       string `json:"brand_name"`
	FoodDescription string `json:"food_description"`
}

// descriptionRe parses FatSecret's summary format:
// "Per 100g - Calories: 52kcal | Fat: 0.17g | Carbs: 13.81g | Protein: 0.26g"
var descriptionRe = regexp.MustCompile(
	`Per 100\s?g - Calories: ([\d.]+)kcal \| Fat: ([\d.]+)g \| Carbs: ([\d.]+)g \| Protein: ([\d.]+)g`)

// SearchFoods queries foods.search. Only results whose description reports
// per-100g values are returned; per-serving entries cannot be normalized
// without a serving weight.
func (c *Client) SearchFoods(ctx context.Context, query string) ([]nutrition.FoodRecord, error) {
	if query == "" {
		return nil, apperrors.ValidationError("search query is required")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{
		"method":            {"foods.search"},
		"search_expression": {query},
		"format":            {"json"},
		"max_results":       {"10"},
	}

	var resp searchResponse
	if err := c.caller.DoJSON(ctx, provider.Request{
		Operation: "search",
		Method:    "POST",
		URL:       c.baseURL,
		Headers:   map[string]string{"Authorization": "Bearer " + token},
		Form:      q,
	}, &resp); err != nil {
		return nil, err
	}

	records := make([]nutrition.FoodRecord, 0, len(resp.Foods.Food))
	for _, f := range resp.Foods.Food {
		macros, ok := parseDescription(f.FoodDescription)
		if !ok {
			continue
		}
		desc := f.FoodName
		if f.BrandName != "" {
			desc = f.BrandName + " " + desc
		}
		records = append(records, nutrition.FoodRecord{
			Description: desc,
			Source:      nutrition.SourceFatSecret,
			FatSecretID: f.FoodID,
			Macros:      macros,
		})
	}
	return records, nil
}

func parseDescription(desc string) (nutrition.Macros, bool) {
	m := descriptionRe.FindStringSubmatch(desc)
	if m == nil {
		return nutrition.Macros{}, false
	}

	calories, err1 := strconv.ParseFloat(m[1], 64)
	fat, err2 := strconv.ParseFloat(m[2], 64)
	carbs, err3 := strconv.ParseFloat(m[3], 64)
	protein, err4 := strconv.ParseFloat(m[4], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return nutrition.Macros{}, false
	}

	return nutrition.Macros{Calories: calories, Protein: protein, Carbs: carbs, Fat: fat}, true
}
