// Package usda wraps the USDA FoodData Central (FDC) API.
package usda

import (
	"context"
	"net/url"
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
const Name = "usda"

// FDC nutrient numbers for the tracked macros. Legacy numbers kept because
// Branded and SR Legacy records still report them.
var (
	caloriesNumbers = map[string]bool{"1008": true, "208": true}
	proteinNumbers  = map[string]bool{"1003": true, "203": true}
	carbNumbers     = map[string]bool{"1005": true, "205": true}
	fatNumbers      = map[string]bool{"1004": true, "204": true}
)

// Client calls the FDC REST API.
type Client struct {
	caller  *provider.Caller
	baseURL string
	apiKey  string
}

// New creates an FDC client from provider config.
func New(cfg config.ProviderConfig, q *quota.Manager, rec metrics.Recorder, policy retry.Policy) *Client {
	return &Client{
		caller:  provider.NewCaller(Name, cfg.Timeout.Std(), q, rec, policy),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}
}

type searchResponse struct {
	Foods []searchFood `json:"foods"`
}

type searchFood struct {
	FDCID         int            `json:"fdcId"`
	Description   string         `json:"description"`
	DataType      string         `json:"dataType"`
	GTINUPC       string         `json:"gtinUpc"`
	FoodNutrients []foodNutrient `json:"foodNutrients"`
	ServingSize   float64        `json:"servingSize"`
	ServingUnit   string         `json:"servingSizeUnit"`
	Score         float64        `json:"score"`
	Measures      []foodPortion  `json:"foodMeasures"`
}

type foodPortion struct {
	DisseminationText string  `json:"disseminationText"`
	GramWeight        float64 `json:"gramWeight"`
}

type foodNutrient struct {
	NutrientNumber string  `json:"nutrientNumber"`
	NutrientName   string  `json:"nutrientName"`
	UnitName       string  `json:"unitName"`
	Value          float64 `json:"value"`
}

// SearchFoods queries FDC by name and returns candidate food records ordered
// by FDC relevance score. Macros are per 100 g as FDC search reports them.
func (c *Client) SearchFoods(ctx context.Context, query string) ([]nutrition.FoodRecord, error) {
	if query == "" {
		return nil, apperrors.ValidationError("search query is required")
	}

	q := url.Values{
		"api_key":  {c.apiKey},
		"query":    {query},
		"pageSize": {"10"},
		"dataType": {"Foundation,SR Legacy,Branded"},
	}

	var resp searchResponse
	if err := c.caller.DoJSON(ctx, provider.Request{
		Operation: "search",
		URL:       c.baseURL + "/foods/search",
		Query:     q,
	}, &resp); err != nil {
		return nil, err
	}

	records := make([]nutrition.FoodRecord, 0, len(resp.Foods))
	for _, f := range resp.Foods {
		rec := nutrition.FoodRecord{
			Description: f.Description,
			Source:      nutrition.SourceUSDA,
			FDCID:       f.FDCID,
			UPC:         f.GTINUPC,
			Macros:      extractMacros(f.FoodNutrients),
		}
		if rec.Macros.IsZero() {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

type detailResponse struct {
	FDCID         int            `json:"fdcId"`
	Description   string         `json:"description"`
	GTINUPC       string         `json:"gtinUpc"`
	FoodNutrients []struct {
		Nutrient struct {
			Number string `json:"number"`
		} `json:"nutrient"`
		Amount float64 `json:"amount"`
	} `json:"foodNutrients"`
}

// Food fetches a single food record by FDC ID.
func (c *Client) Food(ctx context.Context, fdcID int) (*nutrition.FoodRecord, error) {
	if fdcID <= 0 {
		return nil, apperrors.ValidationError("fdc id must be positive")
	}

	var resp detailResponse
	if err := c.caller.DoJSON(ctx, provider.Request{
		Operation: "food",
		URL:       c.baseURL + "/food/" + strconv.Itoa(fdcID),
		Query:     url.Values{"api_key": {c.apiKey}},
	}, &resp); err != nil {
		return nil, err
	}

	rec := &nutrition.FoodRecord{
		Description: resp.Description,
		Source:      nutrition.SourceUSDA,
		FDCID:       resp.FDCID,
		UPC:         resp.GTINUPC,
	}
	for _, n := range resp.FoodNutrients {
		assignMacro(&rec.Macros, n.Nutrient.Number, n.Amount)
	}
	return rec, nil
}

func extractMacros(nutrients []foodNutrient) nutrition.Macros {
	var m nutrition.Macros
	for _, n := range nutrients {
		assignMacro(&m, n.NutrientNumber, n.Value)
	}
	return m
}

func assignMacro(m *nutrition.Macros, number string, value float64) {
	switch {
	case caloriesNumbers[number]:
		m.Calories = value
	case proteinNumbers[number]:
		m.Protein = value
	case carbNumbers[number]:
		m.Carbs = value
	case fatNumbers[number]:
		m.Fat = value
	}
}
