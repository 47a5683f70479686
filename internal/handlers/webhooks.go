package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/synthera/backend/internal/logging"
	"github.com/synthera/backend/internal/models"
	"github.com/synthera/backend/internal/payments"
	"github.com/synthera/backend/internal/repositories"
)

// maxWebhookBody bounds how much of a webhook payload is read.
const maxWebhookBody = 1 << 20

// WebhookHandler reconciles payment-provider events with local state.
// Every accepted event is acknowledged with 200 even when a downstream
// update fails; the provider retries on non-2xx and the handlers here
// are written to absorb redelivery.
type WebhookHandler struct {
	Gateway       PaymentGateway
	Users         UserStore
	Videos        VideoCatalog
	Creators      CreatorStore
	Purchases     PurchaseStore
	Subscriptions SubscriptionStore

	LicenseFeeRate float64
	TipFeeRate     float64
}

// Handle processes POST /api/v1/webhooks/stripe.
func (h WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		logger.Warn("read webhook body failed", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "unable to read payload")
		return
	}

	event, err := h.Gateway.ConstructEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		logger.Warn("webhook signature verification failed", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid signature")
		return
	}

	logger = logger.With("event_id", event.ID, "event_type", event.Type)
	ctx = logging.WithLogger(ctx, logger)

	switch event.Type {
	case payments.EventPaymentIntentSucceeded:
		h.paymentSucceeded(ctx, event)
	case payments.EventPaymentIntentFailed:
		h.paymentFailed(ctx, event)
	case payments.EventCheckoutCompleted:
		h.checkoutCompleted(ctx, event)
	case payments.EventSubscriptionCreated:
		h.subscriptionCreated(ctx, event)
	case payments.EventSubscriptionUpdated:
		h.subscriptionUpdated(ctx, event)
	case payments.EventSubscriptionDeleted:
		h.subscriptionDeleted(ctx, event)
	case payments.EventInvoicePaymentSucceeded:
		h.invoiceSettled(ctx, event, models.SubscriptionActive)
	case payments.EventInvoicePaymentFailed:
		h.invoiceSettled(ctx, event, models.SubscriptionPastDue)
	default:
		logger.Debug("ignoring webhook event")
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"received": true})
}

func (h WebhookHandler) paymentSucceeded(ctx context.Context, event payments.Event) {
	logger := logging.FromContext(ctx)

	intent, err := event.PaymentIntent()
	if err != nil {
		logger.Error("decode payment intent failed", "error", err)
		return
	}

	switch intent.Metadata["type"] {
	case payments.ProductVideoLicense:
		h.licensePaid(ctx, intent)
	case payments.ProductTip:
		h.tipPaid(ctx, intent)
	default:
		logger.Debug("payment intent without product type", "paymentIntentId", intent.ID)
	}
}

// licensePaid completes the purchase and feeds the denormalized sales
// counters. The purchase completion is idempotent on the intent id; the
// counter updates are not, so a provider redelivery inflates them.
func (h WebhookHandler) licensePaid(ctx context.Context, intent payments.PaymentIntentEvent) {
	logger := logging.FromContext(ctx)
	amount := intent.AmountDollars()

	meta := intent.Metadata
	now := time.Now().UTC()
	purchase := models.Purchase{
		ID:              uuid.NewString(),
		UserID:          meta["userId"],
		VideoID:         meta["videoId"],
		LicenseType:     models.LicenseType(strings.ToUpper(meta["licenseType"])),
		Amount:          amount,
		Currency:        intent.Currency,
		StripePaymentID: intent.ID,
		Status:          models.PurchaseCompleted,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := h.Purchases.CompleteByPaymentID(ctx, purchase); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			logger.Warn("license already granted by another payment",
				"paymentIntentId", intent.ID, "videoId", purchase.VideoID)
		} else {
			logger.Error("complete purchase failed", "paymentIntentId", intent.ID, "error", err)
			return
		}
	}

	if err := h.Videos.RecordPurchase(ctx, purchase.VideoID, amount); err != nil {
		logger.Error("record video purchase failed", "videoId", purchase.VideoID, "error", err)
	}

	_, net := payments.SplitAmount(amount, h.LicenseFeeRate)
	if err := h.Creators.AddEarnings(ctx, meta["creatorId"], net, true); err != nil {
		logger.Error("credit creator earnings failed", "creatorId", meta["creatorId"], "error", err)
	}

	logger.Info("license purchase completed",
		"paymentIntentId", intent.ID,
		"videoId", purchase.VideoID,
		"amount", amount)
}

func (h WebhookHandler) tipPaid(ctx context.Context, intent payments.PaymentIntentEvent) {
	logger := logging.FromContext(ctx)
	amount := intent.AmountDollars()
	creatorID := intent.Metadata["creatorId"]

	_, net := payments.SplitAmount(amount, h.TipFeeRate)
	if err := h.Creators.AddEarnings(ctx, creatorID, net, false); err != nil {
		logger.Error("credit tip failed", "creatorId", creatorID, "error", err)
		return
	}

	logger.Info("tip completed", "paymentIntentId", intent.ID, "creatorId", creatorID, "amount", amount)
}

func (h WebhookHandler) paymentFailed(ctx context.Context, event payments.Event) {
	logger := logging.FromContext(ctx)

	intent, err := event.PaymentIntent()
	if err != nil {
		logger.Error("decode payment intent failed", "error", err)
		return
	}

	if err := h.Purchases.FailByPaymentID(ctx, intent.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Tips have no purchase row to fail.
			logger.Debug("no purchase for failed payment", "paymentIntentId", intent.ID)
			return
		}
		logger.Error("mark purchase failed errored", "paymentIntentId", intent.ID, "error", err)
	}
}

func (h WebhookHandler) checkoutCompleted(ctx context.Context, event payments.Event) {
	logger := logging.FromContext(ctx)

	session, err := event.CheckoutSession()
	if err != nil {
		logger.Error("decode checkout session failed", "error", err)
		return
	}

	if session.Metadata["type"] != payments.ProductSubscription {
		return
	}

	userID := session.Metadata["userId"]
	tier := models.SubscriptionTier(strings.ToUpper(session.Metadata["tier"]))
	if userID == "" || (tier != models.TierPremium && tier != models.TierPro) {
		logger.Warn("checkout session missing subscription metadata", "sessionId", session.ID)
		return
	}

	if err := h.Users.SetSubscriptionTier(ctx, userID, tier); err != nil {
		logger.Error("set subscription tier failed", "userId", userID, "error", err)
		return
	}

	logger.Info("subscription checkout completed", "userId", userID, "tier", tier)
}

func (h WebhookHandler) subscriptionCreated(ctx context.Context, event payments.Event) {
	logger := logging.FromContext(ctx)

	sub, err := event.Subscription()
	if err != nil {
		logger.Error("decode subscription failed", "error", err)
		return
	}

	user, err := h.Users.FindByStripeCustomerID(ctx, sub.CustomerID)
	if err != nil {
		logger.Error("resolve subscription customer failed", "customerId", sub.CustomerID, "error", err)
		return
	}

	tier := tierFromLookupKey(sub.PriceLookupKey)
	now := time.Now().UTC()
	record := models.Subscription{
		ID:                   uuid.NewString(),
		UserID:               user.ID,
		Tier:                 tier,
		Status:               subscriptionStatusFrom(sub.Status),
		StripeSubscriptionID: sub.ID,
		CurrentPeriodStart:   sub.PeriodStart,
		CurrentPeriodEnd:     sub.PeriodEnd,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	if err := h.Subscriptions.Create(ctx, record); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			// Redelivery; the row already exists.
			logger.Debug("subscription already recorded", "subscriptionId", sub.ID)
		} else {
			logger.Error("persist subscription failed", "subscriptionId", sub.ID, "error", err)
			return
		}
	}

	if err := h.Users.SetSubscriptionTier(ctx, user.ID, tier); err != nil {
		logger.Error("set subscription tier failed", "userId", user.ID, "error", err)
	}

	logger.Info("subscription created", "subscriptionId", sub.ID, "userId", user.ID, "tier", tier)
}

func (h WebhookHandler) subscriptionUpdated(ctx context.Context, event payments.Event) {
	logger := logging.FromContext(ctx)

	sub, err := event.Subscription()
	if err != nil {
		logger.Error("decode subscription failed", "error", err)
		return
	}

	status := subscriptionStatusFrom(sub.Status)
	if err := h.Subscriptions.UpdateByProviderID(ctx, sub.ID, status, sub.PeriodStart, sub.PeriodEnd); err != nil {
		logger.Error("update subscription failed", "subscriptionId", sub.ID, "error", err)
		return
	}

	if status == models.SubscriptionActive && sub.PriceLookupKey != "" {
		record, err := h.Subscriptions.FindByProviderID(ctx, sub.ID)
		if err != nil {
			logger.Error("load subscription failed", "subscriptionId", sub.ID, "error", err)
			return
		}
		if err := h.Users.SetSubscriptionTier(ctx, record.UserID, tierFromLookupKey(sub.PriceLookupKey)); err != nil {
			logger.Error("set subscription tier failed", "userId", record.UserID, "error", err)
		}
	}
}

func (h WebhookHandler) subscriptionDeleted(ctx context.Context, event payments.Event) {
	logger := logging.FromContext(ctx)

	sub, err := event.Subscription()
	if err != nil {
		logger.Error("decode subscription failed", "error", err)
		return
	}

	record, err := h.Subscriptions.FindByProviderID(ctx, sub.ID)
	if err != nil {
		logger.Error("load subscription failed", "subscriptionId", sub.ID, "error", err)
		return
	}

	if err := h.Subscriptions.UpdateByProviderID(ctx, sub.ID, models.SubscriptionCanceled, time.Time{}, time.Time{}); err != nil {
		logger.Error("cancel subscription failed", "subscriptionId", sub.ID, "error", err)
		return
	}

	if err := h.Users.SetSubscriptionTier(ctx, record.UserID, models.TierFree); err != nil {
		logger.Error("reset subscription tier failed", "userId", record.UserID, "error", err)
	}

	logger.Info("subscription canceled", "subscriptionId", sub.ID, "userId", record.UserID)
}

func (h WebhookHandler) invoiceSettled(ctx context.Context, event payments.Event, status models.SubscriptionStatus) {
	logger := logging.FromContext(ctx)

	invoice, err := event.Invoice()
	if err != nil {
		logger.Error("decode invoice failed", "error", err)
		return
	}
	if invoice.SubscriptionID == "" {
		return
	}

	if err := h.Subscriptions.UpdateByProviderID(ctx, invoice.SubscriptionID, status, time.Time{}, time.Time{}); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			logger.Warn("invoice for unknown subscription", "subscriptionId", invoice.SubscriptionID)
			return
		}
		logger.Error("update subscription from invoice failed", "subscriptionId", invoice.SubscriptionID, "error", err)
	}
}

// tierFromLookupKey maps a provider price lookup key onto a tier. Keys
// containing "pro" select PRO; anything else is PREMIUM.
func tierFromLookupKey(key string) models.SubscriptionTier {
	if strings.Contains(strings.ToLower(key), "pro") {
		return models.TierPro
	}
	return models.TierPremium
}

func subscriptionStatusFrom(providerStatus string) models.SubscriptionStatus {
	switch providerStatus {
	case "past_due", "unpaid":
		return models.SubscriptionPastDue
	case "canceled", "incomplete_expired":
		return models.SubscriptionCanceled
	default:
		return models.SubscriptionActive
	}
}
