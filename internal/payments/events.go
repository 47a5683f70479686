package payments

import (
	"encoding/json"
	"fmt"
	"time"
)

// Webhook event types handled by the reconciliation flow.
const (
	EventPaymentIntentSucceeded  = "payment_intent.succeeded"
	EventPaymentIntentFailed     = "payment_intent.payment_failed"
	EventCheckoutCompleted       = "checkout.session.completed"
	EventSubscriptionCreated     = "customer.subscription.created"
	EventSubscriptionUpdated     = "customer.subscription.updated"
	EventSubscriptionDeleted     = "customer.subscription.deleted"
	EventInvoicePaymentSucceeded = "invoice.payment_succeeded"
	EventInvoicePaymentFailed    = "invoice.payment_failed"
)

// Event is a verified provider notification. Data holds the raw provider
// object JSON; the typed accessors below decode the fields the
// reconciliation handlers use, keeping the rest of the codebase off the
// provider's wire types.
type Event struct {
	ID   string
	Type string
	Data json.RawMessage
}

// PaymentIntentEvent is the reconciliation view of a payment intent.
// Amount is in the provider's minor unit (cents).
type PaymentIntentEvent struct {
	ID       string
	Amount   int64
	Currency string
	Metadata map[string]string
}

// AmountDollars converts the minor-unit amount to dollars.
func (p PaymentIntentEvent) AmountDollars() float64 {
	return float64(p.Amount) / 100
}

// PaymentIntent decodes the event payload as a payment intent.
func (e Event) PaymentIntent() (PaymentIntentEvent, error) {
	var payload struct {
		ID       string            `json:"id"`
		Amount   int64             `json:"amount"`
		Currency string            `json:"currency"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return PaymentIntentEvent{}, fmt.Errorf("decode payment intent event: %w", err)
	}
	if payload.Metadata == nil {
		payload.Metadata = map[string]string{}
	}
	return PaymentIntentEvent{
		ID:       payload.ID,
		Amount:   payload.Amount,
		Currency: payload.Currency,
		Metadata: payload.Metadata,
	}, nil
}

// SubscriptionEvent is the reconciliation view of a provider subscription.
type SubscriptionEvent struct {
	ID             string
	CustomerID     string
	Status         string
	PriceLookupKey string
	PeriodStart    time.Time
	PeriodEnd      time.Time
}

// Subscription decodes the event payload as a subscription. Billing
// period fields live on the first subscription item.
func (e Event) Subscription() (SubscriptionEvent, error) {
	var payload struct {
		ID       string `json:"id"`
		Customer string `json:"customer"`
		Status   string `json:"status"`
		Items    struct {
			Data []struct {
				CurrentPeriodStart int64 `json:"current_period_start"`
				CurrentPeriodEnd   int64 `json:"current_period_end"`
				Price              struct {
					LookupKey string `json:"lookup_key"`
				} `json:"price"`
			} `json:"data"`
		} `json:"items"`
	}
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return SubscriptionEvent{}, fmt.Errorf("decode subscription event: %w", err)
	}

	sub := SubscriptionEvent{
		ID:         payload.ID,
		CustomerID: payload.Customer,
		Status:     payload.Status,
	}
	if len(payload.Items.Data) > 0 {
		item := payload.Items.Data[0]
		sub.PriceLookupKey = item.Price.LookupKey
		if item.CurrentPeriodStart > 0 {
			sub.PeriodStart = time.Unix(item.CurrentPeriodStart, 0).UTC()
		}
		if item.CurrentPeriodEnd > 0 {
			sub.PeriodEnd = time.Unix(item.CurrentPeriodEnd, 0).UTC()
		}
	}
	return sub, nil
}

// CheckoutSessionEvent is the reconciliation view of a checkout session.
type CheckoutSessionEvent struct {
	ID       string
	Metadata map[string]string
}

// CheckoutSession decodes the event payload as a checkout session.
func (e Event) CheckoutSession() (CheckoutSessionEvent, error) {
	var payload struct {
		ID       string            `json:"id"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return CheckoutSessionEvent{}, fmt.Errorf("decode checkout session event: %w", err)
	}
	if payload.Metadata == nil {
		payload.Metadata = map[string]string{}
	}
	return CheckoutSessionEvent{ID: payload.ID, Metadata: payload.Metadata}, nil
}

// InvoiceEvent is the reconciliation view of a provider invoice.
type InvoiceEvent struct {
	ID             string
	SubscriptionID string
}

// Invoice decodes the event payload as an invoice.
func (e Event) Invoice() (InvoiceEvent, error) {
	var payload struct {
		ID           string `json:"id"`
		Subscription string `json:"subscription"`
	}
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return InvoiceEvent{}, fmt.Errorf("decode invoice event: %w", err)
	}
	return InvoiceEvent{ID: payload.ID, SubscriptionID: payload.Subscription}, nil
}
