package handlers

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/synthera/backend/internal/logging"
	"github.com/synthera/backend/internal/models"
	"github.com/synthera/backend/internal/payments"
	"github.com/synthera/backend/internal/repositories"
)

// priceTolerance is the maximum difference allowed between the price on
// record and the amount the client claims to pay.
const priceTolerance = 0.01

// SubscriptionPriceTable maps tier and billing interval onto the
// provider price ids configured for checkout.
type SubscriptionPriceTable struct {
	PremiumMonthly string
	PremiumYearly  string
	ProMonthly     string
	ProYearly      string
}

func (t SubscriptionPriceTable) lookup(tier models.SubscriptionTier, billing string) string {
	switch {
	case tier == models.TierPremium && billing == "monthly":
		return t.PremiumMonthly
	case tier == models.TierPremium && billing == "yearly":
		return t.PremiumYearly
	case tier == models.TierPro && billing == "monthly":
		return t.ProMonthly
	case tier == models.TierPro && billing == "yearly":
		return t.ProYearly
	default:
		return ""
	}
}

// PaymentHandler implements license purchase, tip and subscription
// checkout endpoints.
type PaymentHandler struct {
	Gateway       PaymentGateway
	Users         UserStore
	Videos        VideoCatalog
	Purchases     PurchaseStore
	Subscriptions SubscriptionStore
	Sessions      SessionManager
	Limiter       RateLimiter
	Prices        SubscriptionPriceTable
}

// CreateLicenseIntent handles POST /api/v1/payments/intent: it verifies
// the quoted price against the catalog and opens a payment intent plus
// a PENDING purchase awaiting webhook confirmation.
func (h PaymentHandler) CreateLicenseIntent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "payments") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many requests, try again later")
		return
	}

	user, ok := authenticate(w, r, h.Sessions, h.Users)
	if !ok {
		return
	}

	var req licenseIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	license := models.LicenseType(strings.ToUpper(strings.TrimSpace(req.LicenseType)))
	if req.VideoID == "" || !models.ValidLicenseType(license) {
		respondError(ctx, w, http.StatusBadRequest, "videoId and a valid licenseType are required")
		return
	}

	video, err := h.Videos.FindByID(ctx, req.VideoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Video not found")
			return
		}
		logger.Error("load video failed", "videoId", req.VideoID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load video")
		return
	}

	price := video.LicensePrice(license)
	if !video.IsAvailableForSale || price <= 0 {
		respondError(ctx, w, http.StatusBadRequest, "This license type is not available for this video")
		return
	}

	if math.Abs(price-req.Amount) > priceTolerance {
		logger.Warn("license price mismatch",
			"videoId", video.ID, "license", license,
			"quoted", req.Amount, "actual", price)
		respondError(ctx, w, http.StatusBadRequest, "Price mismatch")
		return
	}

	if _, err := h.Purchases.FindCompleted(ctx, user.ID, video.ID, license); err == nil {
		respondError(ctx, w, http.StatusBadRequest, "You already own this license")
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("purchase lookup failed", "videoId", video.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to verify existing purchases")
		return
	}

	customerID, err := h.ensureCustomer(r, w, user)
	if err != nil {
		return
	}

	intent, err := h.Gateway.CreateLicenseIntent(ctx, payments.LicenseIntentParams{
		VideoID:     video.ID,
		VideoTitle:  video.Title,
		LicenseType: string(license),
		CreatorID:   video.CreatorID,
		UserID:      user.ID,
		Amount:      price,
		CustomerID:  customerID,
	})
	if err != nil {
		logger.Error("create payment intent failed", "videoId", video.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to create payment intent")
		return
	}

	now := time.Now().UTC()
	purchase := models.Purchase{
		ID:              uuid.NewString(),
		UserID:          user.ID,
		VideoID:         video.ID,
		LicenseType:     license,
		Amount:          price,
		Currency:        "usd",
		StripePaymentID: intent.ID,
		Status:          models.PurchasePending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := h.Purchases.Create(ctx, purchase); err != nil {
		logger.Error("persist pending purchase failed", "paymentIntentId", intent.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to record purchase")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{
		"clientSecret":    intent.ClientSecret,
		"paymentIntentId": intent.ID,
	})
}

// CreateTip handles POST /api/v1/payments/tip.
func (h PaymentHandler) CreateTip(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "payments") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many requests, try again later")
		return
	}

	user, ok := authenticate(w, r, h.Sessions, h.Users)
	if !ok {
		return
	}

	var req tipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CreatorID == "" || req.Amount <= 0 {
		respondError(ctx, w, http.StatusBadRequest, "creatorId and a positive amount are required")
		return
	}

	if req.CreatorID == user.ID {
		respondError(ctx, w, http.StatusBadRequest, "Cannot tip yourself")
		return
	}

	if _, err := h.Users.FindByID(ctx, req.CreatorID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Creator not found")
			return
		}
		logger.Error("load creator failed", "creatorId", req.CreatorID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load creator")
		return
	}

	customerID, err := h.ensureCustomer(r, w, user)
	if err != nil {
		return
	}

	intent, err := h.Gateway.CreateTipIntent(ctx, payments.TipIntentParams{
		CreatorID:  req.CreatorID,
		UserID:     user.ID,
		Amount:     req.Amount,
		CustomerID: customerID,
		Message:    strings.TrimSpace(req.Message),
	})
	if err != nil {
		logger.Error("create tip intent failed", "creatorId", req.CreatorID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to create payment intent")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{
		"clientSecret":    intent.ClientSecret,
		"paymentIntentId": intent.ID,
	})
}

// HandleSubscriptions dispatches /api/v1/subscriptions by method.
func (h PaymentHandler) HandleSubscriptions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createSubscription(w, r)
	case http.MethodGet:
		h.getSubscription(w, r)
	case http.MethodDelete:
		h.cancelSubscription(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h PaymentHandler) createSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := authenticate(w, r, h.Sessions, h.Users)
	if !ok {
		return
	}

	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	tier := models.SubscriptionTier(strings.ToUpper(strings.TrimSpace(req.Tier)))
	billing := strings.ToLower(strings.TrimSpace(req.Billing))
	if billing == "" {
		billing = "monthly"
	}

	priceID := h.Prices.lookup(tier, billing)
	if priceID == "" {
		respondError(ctx, w, http.StatusBadRequest, "tier must be PREMIUM or PRO with monthly or yearly billing")
		return
	}

	if _, err := h.Subscriptions.FindCurrentForUser(ctx, user.ID); err == nil {
		respondError(ctx, w, http.StatusBadRequest, "You already have an active subscription")
		return
	} else if !errors.Is(err, repositories.ErrNotFound) {
		logger.Error("subscription lookup failed", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to verify existing subscriptions")
		return
	}

	customerID, err := h.ensureCustomer(r, w, user)
	if err != nil {
		return
	}

	session, err := h.Gateway.CreateSubscriptionCheckout(ctx, payments.SubscriptionCheckoutParams{
		CustomerID: customerID,
		PriceID:    priceID,
		UserID:     user.ID,
		Tier:       string(tier),
		Billing:    billing,
	})
	if err != nil {
		logger.Error("create checkout session failed", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to create checkout session")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{
		"checkoutUrl": session.URL,
		"sessionId":   session.ID,
	})
}

func (h PaymentHandler) getSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := authenticate(w, r, h.Sessions, h.Users)
	if !ok {
		return
	}

	subscription, err := h.Subscriptions.FindCurrentForUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondJSON(ctx, w, http.StatusOK, map[string]any{"subscription": nil})
			return
		}
		logger.Error("subscription lookup failed", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load subscription")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"subscription": subscriptionPayloadFrom(subscription)})
}

func (h PaymentHandler) cancelSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, ok := authenticate(w, r, h.Sessions, h.Users)
	if !ok {
		return
	}

	subscription, err := h.Subscriptions.FindCurrentForUser(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "no active subscription")
			return
		}
		logger.Error("subscription lookup failed", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load subscription")
		return
	}

	if err := h.Gateway.CancelSubscription(ctx, subscription.StripeSubscriptionID); err != nil {
		logger.Error("cancel provider subscription failed",
			"subscriptionId", subscription.StripeSubscriptionID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to cancel subscription")
		return
	}

	// The provider will also emit customer.subscription.deleted; the
	// local update keeps reads consistent in the meantime.
	if err := h.Subscriptions.UpdateByProviderID(ctx, subscription.StripeSubscriptionID, models.SubscriptionCanceled, time.Time{}, time.Time{}); err != nil {
		logger.Error("mark subscription canceled failed",
			"subscriptionId", subscription.StripeSubscriptionID, "error", err)
	}
	if err := h.Users.SetSubscriptionTier(ctx, user.ID, models.TierFree); err != nil {
		logger.Error("reset subscription tier failed", "userId", user.ID, "error", err)
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "canceled"})
}

// ensureCustomer returns the user's provider customer id, creating and
// persisting one on first use. On failure it writes the error response
// and returns a non-nil error.
func (h PaymentHandler) ensureCustomer(r *http.Request, w http.ResponseWriter, user models.User) (string, error) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if user.StripeCustomerID != "" {
		return user.StripeCustomerID, nil
	}

	customerID, err := h.Gateway.CreateCustomer(ctx, user.Email, user.DisplayName, user.ID)
	if err != nil {
		logger.Error("create provider customer failed", "userId", user.ID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "Failed to create payment profile")
		return "", err
	}

	if err := h.Users.SetStripeCustomerID(ctx, user.ID, customerID); err != nil {
		logger.Error("persist customer id failed", "userId", user.ID, "error", err)
	}

	return customerID, nil
}

type licenseIntentRequest struct {
	VideoID     string  `json:"videoId"`
	LicenseType string  `json:"licenseType"`
	Amount      float64 `json:"amount"`
}

type tipRequest struct {
	CreatorID string  `json:"creatorId"`
	Amount    float64 `json:"amount"`
	Message   string  `json:"message"`
}

type subscriptionRequest struct {
	Tier    string `json:"tier"`
	Billing string `json:"billing"`
}

type subscriptionPayload struct {
	ID                 string    `json:"id"`
	Tier               string    `json:"tier"`
	Status             string    `json:"status"`
	CurrentPeriodStart time.Time `json:"currentPeriodStart"`
	CurrentPeriodEnd   time.Time `json:"currentPeriodEnd"`
}

func subscriptionPayloadFrom(s models.Subscription) subscriptionPayload {
	return subscriptionPayload{
		ID:                 s.ID,
		Tier:               string(s.Tier),
		Status:             string(s.Status),
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
	}
}
