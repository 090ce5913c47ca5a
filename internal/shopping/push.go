package shopping

import (
	"context"
	"log/slog"
	"math"

	"git.home.luguber.info/inful/mealprep/internal/eventlog"
	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
	"git.home.luguber.info/inful/mealprep/internal/logfields"
	"git.home.luguber.info/inful/mealprep/internal/metrics"
	"git.home.luguber.info/inful/mealprep/internal/observability"
	"git.home.luguber.info/inful/mealprep/internal/provider/kroger"
	"git.home.luguber.info/inful/mealprep/internal/store"
	"git.home.luguber.info/inful/mealprep/internal/units"
)

// CartClient is the retailer surface the pusher needs.
type CartClient interface {
	SearchProducts(ctx context.Context, term string) ([]kroger.Product, error)
	AddToCart(ctx context.Context, items []kroger.CartItem) error
}

// PushedItem is a list item that made it into the cart.
type PushedItem struct {
	Name        string `json:"name"`
	UPC         string `json:"upc"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

// FailedItem is a list item that could not be pushed, with the reason.
type FailedItem struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// PushResult reports per-item outcomes of a cart push.
type PushResult struct {
	Pushed []PushedItem `json:"pushed"`
	Failed []FailedItem `json:"failed"`
}

// Pusher resolves shopping list items to retailer products and adds them to
// the cart.
type Pusher struct {
	client  CartClient
	metrics metrics.Recorder
	events  *eventlog.Log
}

// NewPusher creates a pusher. rec may be nil; events may be nil.
func NewPusher(client CartClient, rec metrics.Recorder, events *eventlog.Log) *Pusher {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Pusher{client: client, metrics: rec, events: events}
}

// Push searches the retailer for each item by canonical name, takes the first
// hit, and adds everything found to the cart in one call. Items that fail to
// match are reported in the result, not fatal. The cart call itself failing
// is fatal.
func (p *Pusher) Push(ctx context.Context, list *store.ShoppingList) (*PushResult, error) {
	if p.client == nil {
		return nil, apperrors.New(apperrors.CategoryConfig, apperrors.SeverityError, "cart provider is not configured")
	}
	if len(list.Items) == 0 {
		return nil, apperrors.ValidationError("shopping list has no items")
	}

	result := &PushResult{}
	var cart []kroger.CartItem

	for _, item := range list.Items {
		products, err := p.client.SearchProducts(ctx, item.Name)
		if err != nil {
			result.Failed = append(result.Failed, FailedItem{Name: item.Name, Reason: err.Error()})
			continue
		}
		product, ok := firstWithUPC(products)
		if !ok {
			result.Failed = append(result.Failed, FailedItem{Name: item.Name, Reason: "no matching product"})
			continue
		}

		qty := cartQuantity(item)
		cart = append(cart, kroger.CartItem{UPC: product.UPC, Quantity: qty})
		result.Pushed = append(result.Pushed, PushedItem{
			Name:        item.Name,
			UPC:         product.UPC,
			Description: product.Description,
			Quantity:    qty,
		})
	}

	if len(cart) > 0 {
		if err := p.client.AddToCart(ctx, cart); err != nil {
			p.metrics.IncCartPush(metrics.ResultError)
			return nil, err
		}
	}

	if len(result.Failed) > 0 {
		observability.WarnContext(ctx, "cart push incomplete",
			logfields.ListID(list.ID), slog.Int("pushed", len(result.Pushed)), slog.Int("failed", len(result.Failed)))
	}
	if len(result.Pushed) > 0 {
		p.metrics.IncCartPush(metrics.ResultSuccess)
	} else {
		p.metrics.IncCartPush(metrics.ResultError)
	}

	if p.events != nil {
		if err := p.events.Append(ctx, eventlog.TypeCartPush, list.User, result); err != nil {
			observability.WarnContext(ctx, "failed to log cart push event", logfields.Error(err))
		}
	}

	return result, nil
}

// cartQuantity maps a consolidated quantity to a cart item count. Count items
// round up to whole pieces; weight and volume items map to one package.
func cartQuantity(item store.ShoppingListItem) int {
	if units.Unit(item.Unit) == units.Piece {
		if n := int(math.Ceil(item.Quantity)); n > 0 {
			return n
		}
	}
	return 1
}

func firstWithUPC(products []kroger.Product) (kroger.Product, bool) {
	for _, p := range products {
		if p.UPC != "" {
			return p, true
		}
	}
	return kroger.Product{}, false
}
