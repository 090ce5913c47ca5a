// Package kroger wraps the Kroger product search and cart APIs.
package kroger

import (
	"context"
	"net/url"

	"git.home.luguber.info/inful/mealprep/internal/config"
	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
	"git.home.luguber.info/inful/mealprep/internal/metrics"
	"git.home.luguber.info/inful/mealprep/internal/provider"
	"git.home.luguber.info/inful/mealprep/internal/quota"
	"git.home.luguber.info/inful/mealprep/internal/retry"
)

// Name is the provider label used for quota, metrics and logs.
const Name = "kroger"

// Client calls the Kroger REST API.
type Client struct {
	caller  *provider.Caller
	tokens  *provider.TokenSource
	baseURL string
}

// New creates a Kroger client from provider config.
func New(cfg config.ProviderConfig, q *quota.Manager, rec metrics.Recorder, policy retry.Policy) *Client {
	caller := provider.NewCaller(Name, cfg.Timeout.Std(), q, rec, policy)
	return &Client{
		caller:  caller,
		tokens:  provider.NewTokenSource(caller, cfg.BaseURL+"/connect/oauth2/token", cfg.ClientID, cfg.ClientSecret, "product.compact cart.basic:write"),
		baseURL: cfg.BaseURL,
	}
}

// Product is a retail product hit.
type Product struct {
	ProductID   string `json:"productId"`
	UPC         string `json:"upc"`
	Description string `json:"description"`
	Brand       string `json:"brand"`
}

type productsResponse struct {
	Data []struct {
		ProductID   string `json:"productId"`
		UPC         string `json:"upc"`
		Description string `json:"description"`
		Brand       string `json:"brand"`
	} `json:"data"`
}

// SearchProducts searches the catalog by term.
func (c *Client) SearchProducts(ctx context.Context, term string) ([]Product, error) {
	if term == "" {
		return nil, apperrors.ValidationError("search term is required")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var resp productsResponse
	if err := c.caller.DoJSON(ctx, provider.Request{
		Operation: "products",
		URL:       c.baseURL + "/products",
		Query: url.Values{
			"filter.term":  {term},
			"filter.limit": {"5"},
		},
		Headers: map[string]string{"Authorization": "Bearer " + token},
	}, &resp); err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(resp.Data))
	for _, d := range resp.Data {
		products = append(products, Product{
			ProductID:   d.ProductID,
			UPC:         d.UPC,
			Description: d.Description,
			Brand:       d.Brand,
		})
	}
	return products, nil
}

// CartItem is one UPC/quantity pair for a cart push.
type CartItem struct {
	UPC      string `json:"upc"`
	Quantity int    `json:"quantity"`
}

// AddToCart adds the items to the authenticated user's cart.
func (c *Client) AddToCart(ctx context.Context, items []CartItem) error {
	if len(items) == 0 {
		return apperrors.ValidationError("no items to add")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	return c.caller.DoJSON(ctx, provider.Request{
		Operation: "cart_add",
		Method:    "PUT",
		URL:       c.baseURL + "/cart/add",
		Headers:   map[string]string{"Authorization": "Bearer " + token},
		JSONBody:  map[string]any{"items": items},
	}, nil)
}
