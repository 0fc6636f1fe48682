package stripe

import (
	"context"
	"fmt"

	"subscription-app/internal/billing"

	stripeapi "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
)

// Client reads checkout sessions and subscriptions from the Stripe API.
type Client struct {
	api *client.API
}

func NewClient(secretKey string) *Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{api: api}
}

// CheckoutSession re-fetches a session with its line items expanded.
func (c *Client) CheckoutSession(ctx context.Context, id string) (*billing.CheckoutSession, error) {
	params := &stripeapi.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items")

	session, err := c.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session %s: %w", id, err)
	}
	return toCheckoutSession(session), nil
}

func (c *Client) Subscription(ctx context.Context, id string) (*billing.ProviderSubscription, error) {
	params := &stripeapi.SubscriptionParams{}
	params.Context = ctx

	sub, err := c.api.Subscriptions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe subscription %s: %w", id, err)
	}
	return toSubscription(sub), nil
}

func toCheckoutSession(s *stripeapi.CheckoutSession) *billing.CheckoutSession {
	out := &billing.CheckoutSession{ID: s.ID}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.CustomerDetails != nil {
		out.Email = s.CustomerDetails.Email
	}
	if s.LineItems == nil {
		return out
	}
	for _, item := range s.LineItems.Data {
		if item == nil || item.Price == nil {
			continue
		}
		out.LineItems = append(out.LineItems, billing.LineItem{
			PriceID:   item.Price.ID,
			Recurring: item.Price.Type == stripeapi.PriceTypeRecurring,
		})
	}
	return out
}

func toSubscription(s *stripeapi.Subscription) *billing.ProviderSubscription {
	out := &billing.ProviderSubscription{ID: s.ID}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	return out
}
