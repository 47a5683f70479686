package payments

import (
	"context"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/synthera/backend/internal/config"
)

// Product types stamped into payment metadata, recovered during webhook
// reconciliation.
const (
	ProductVideoLicense = "video_license"
	ProductSubscription = "subscription"
	ProductTip          = "tip"
)

// Intent is the subset of a provider payment intent the handlers need.
type Intent struct {
	ID           string
	ClientSecret string
}

// CheckoutSession is the subset of a provider checkout session returned
// to subscription callers.
type CheckoutSession struct {
	ID  string
	URL string
}

// LicenseIntentParams describes a video license purchase intent request.
type LicenseIntentParams struct {
	VideoID     string
	VideoTitle  string
	LicenseType string
	CreatorID   string
	UserID      string
	Amount      float64
	CustomerID  string
}

// TipIntentParams describes a tip payment intent request.
type TipIntentParams struct {
	CreatorID  string
	UserID     string
	Amount     float64
	CustomerID string
	Message    string
}

// SubscriptionCheckoutParams describes a subscription checkout session request.
type SubscriptionCheckoutParams struct {
	CustomerID string
	PriceID    string
	UserID     string
	Tier       string
	Billing    string
}

// StripeGateway wraps the Stripe SDK for customers, payment intents,
// checkout sessions, subscriptions and refunds. Signature verification
// for incoming webhooks is delegated entirely to the SDK.
type StripeGateway struct {
	api           *client.API
	currency      string
	successURL    string
	cancelURL     string
	webhookSecret string
}

// NewStripeGateway constructs a gateway from the provider configuration.
func NewStripeGateway(cfg config.StripeConfig) *StripeGateway {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)

	return &StripeGateway{
		api:           api,
		currency:      "usd",
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		webhookSecret: cfg.WebhookSecret,
	}
}

// CreateCustomer registers a provider customer carrying the user id in
// metadata so webhook events can be traced back.
func (g *StripeGateway) CreateCustomer(ctx context.Context, email, name, userID string) (string, error) {
	params := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Email:  stripe.String(email),
		Name:   stripe.String(name),
	}
	params.AddMetadata("userId", userID)

	customer, err := g.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	return customer.ID, nil
}

// CreateLicenseIntent requests a payment intent for a video license
// purchase. Amounts are dollars; the provider wants cents.
func (g *StripeGateway) CreateLicenseIntent(ctx context.Context, p LicenseIntentParams) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(toCents(p.Amount)),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if p.CustomerID != "" {
		params.Customer = stripe.String(p.CustomerID)
	}
	params.AddMetadata("type", ProductVideoLicense)
	params.AddMetadata("videoId", p.VideoID)
	params.AddMetadata("videoTitle", p.VideoTitle)
	params.AddMetadata("licenseType", p.LicenseType)
	params.AddMetadata("creatorId", p.CreatorID)
	params.AddMetadata("userId", p.UserID)

	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("create license payment intent: %w", err)
	}
	return Intent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

// CreateTipIntent requests a payment intent for a creator tip.
func (g *StripeGateway) CreateTipIntent(ctx context.Context, p TipIntentParams) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(toCents(p.Amount)),
		Currency: stripe.String(g.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if p.CustomerID != "" {
		params.Customer = stripe.String(p.CustomerID)
	}
	params.AddMetadata("type", ProductTip)
	params.AddMetadata("creatorId", p.CreatorID)
	params.AddMetadata("userId", p.UserID)
	params.AddMetadata("message", p.Message)

	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("create tip payment intent: %w", err)
	}
	return Intent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

// CreateSubscriptionCheckout opens a provider-hosted checkout session in
// subscription mode.
func (g *StripeGateway) CreateSubscriptionCheckout(ctx context.Context, p SubscriptionCheckoutParams) (CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Params:   stripe.Params{Context: ctx},
		Customer: stripe.String(p.CustomerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(g.successURL),
		CancelURL:  stripe.String(g.cancelURL),
	}
	params.AddMetadata("type", ProductSubscription)
	params.AddMetadata("userId", p.UserID)
	params.AddMetadata("tier", p.Tier)
	params.AddMetadata("billing", p.Billing)

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("create subscription checkout: %w", err)
	}
	return CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// CancelSubscription cancels a provider subscription immediately.
func (g *StripeGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionCancelParams{
		Params: stripe.Params{Context: ctx},
	}
	if _, err := g.api.Subscriptions.Cancel(subscriptionID, params); err != nil {
		return fmt.Errorf("cancel subscription %s: %w", subscriptionID, err)
	}
	return nil
}

// Refund reverses a payment intent. A zero amount refunds the full charge.
func (g *StripeGateway) Refund(ctx context.Context, paymentIntentID string, amount float64) error {
	params := &stripe.RefundParams{
		Params:        stripe.Params{Context: ctx},
		PaymentIntent: stripe.String(paymentIntentID),
	}
	if amount > 0 {
		params.Amount = stripe.Int64(toCents(amount))
	}
	if _, err := g.api.Refunds.New(params); err != nil {
		return fmt.Errorf("refund payment %s: %w", paymentIntentID, err)
	}
	return nil
}

// ConstructEvent verifies the webhook signature against the shared secret
// and returns the decoded event. Verification failure must abort all
// processing.
func (g *StripeGateway) ConstructEvent(payload []byte, sigHeader string) (Event, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, g.webhookSecret)
	if err != nil {
		return Event{}, fmt.Errorf("verify webhook signature: %w", err)
	}
	return Event{ID: event.ID, Type: string(event.Type), Data: event.Data.Raw}, nil
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
