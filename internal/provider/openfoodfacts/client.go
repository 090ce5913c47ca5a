// Package openfoodfacts wraps the Open Food Facts (OFF) API for barcode and
// name lookups.
package openfoodfacts

import (
	"context"
	"net/url"

	"git.home.luguber.info/inful/mealprep/internal/config"
	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
	"git.home.luguber.info/inful/mealprep/internal/metrics"
	"git.home.luguber.info/inful/mealprep/internal/nutrition"
	"git.home.luguber.info/inful/mealprep/internal/provider"
	"git.home.luguber.info/inful/mealprep/internal/quota"
	"git.home.luguber.info/inful/mealprep/internal/retry"
)

// Name is the provider label used for quota, metrics and logs.
const Name = "openfoodfacts"

// Client calls the OFF REST API.
type Client struct {
	caller  *provider.Caller
	baseURL string
}

// New creates an OFF client from provider config.
func New(cfg config.ProviderConfig, q *quota.Manager, rec metrics.Recorder, policy retry.Policy) *Client {
	return &Client{
		caller:  provider.NewCaller(Name, cfg.Timeout.Std(), q, rec, policy),
		baseURL: cfg.BaseURL,
	}
}

type nutriments struct {
	EnergyKcal100g float64 `json:"energy-kcal_100g"`
	Proteins100g   float64 `json:"proteins_100g"`
	Carbs100g      float64 `json:"carbohydrates_100g"`
	Fat100g        float64 `json:"fat_100g"`
}

type offProduct struct {
	Code        string     `json:"code"`
	ProductName string     `json:"product_name"`
	Brands      string     `json:"brands"`
	Nutriments  nutriments `json:"nutriments"`
}

type productResponse struct {
	Status  int        `json:"status"`
	Code    string     `json:"code"`
	Product offProduct `json:"product"`
}

// ProductByBarcode looks a product up by its barcode (UPC/EAN). A barcode that
// OFF does not know returns a not-found error.
func (c *Client) ProductByBarcode(ctx context.Context, barcode string) (*nutrition.FoodRecord, error) {
	if barcode == "" {
		return nil, apperrors.ValidationError("barcode is required")
	}

	var resp productResponse
	if err := c.caller.DoJSON(ctx, provider.Request{
		Operation: "barcode",
		URL:       c.baseURL + "/api/v2/product/" + url.PathEscape(barcode) + ".json",
	}, &resp); err != nil {
		return nil, err
	}

	if resp.Status != 1 {
		return nil, apperrors.NotFoundError("no product for barcode " + barcode)
	}

	rec := toRecord(resp.Product)
	rec.UPC = barcode
	if rec.Macros.IsZero() {
		return nil, apperrors.NotFoundError("product for barcode " + barcode + " has no nutrition data")
	}
	return rec, nil
}

type searchResponse struct {
	Products []offProduct `json:"products"`
}

// SearchByName queries OFF's text search and returns candidates with
// nutrition data.
func (c *Client) SearchByName(ctx context.Context, query string) ([]nutrition.FoodRecord, error) {
	if query == "" {
		return nil, apperrors.ValidationError("search query is required")
	}

	q := url.Values{
		"search_terms":  {query},
		"search_simple": {"1"},
		"action":        {"process"},
		"json":          {"1"},
		"page_size":     {"10"},
		"fields":        {"code,product_name,brands,nutriments"},
	}

	var resp searchResponse
	if err := c.caller.DoJSON(ctx, provider.Request{
		Operation: "search",
		URL:       c.baseURL + "/cgi/search.pl",
		Query:     q,
	}, &resp); err != nil {
		return nil, err
	}

	records := make([]nutrition.FoodRecord, 0, len(resp.Products))
	for _, p := range resp.Products {
		rec := toRecord(p)
		if rec.Macros.IsZero() || rec.Description == "" {
			continue
		}
		records = append(records, *rec)
	}
	return records, nil
}

func toRecord(p offProduct) *nutrition.FoodRecord {
	desc := p.ProductName
	if p.Brands != "" && desc != "" {
		desc = p.Brands + " " + desc
	}
	return &nutrition.FoodRecord{
		Description: desc,
		Source:      nutrition.SourceOpenFoodFacts,
		OFFCode:     p.Code,
		Macros: nutrition.Macros{
			Calories: p.Nutriments.EnergyKcal100g,
			Protein:  p.Nutriments.Proteins100g,
			Carbs:    p.Nutriments.Carbs100g,
			Fat:      p.Nutriments.Fat100g,
		},
	}
}
