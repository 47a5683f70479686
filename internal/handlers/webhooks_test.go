package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/synthera/backend/internal/models"
	"github.com/synthera/backend/internal/payments"
)

type webhookFixture struct {
	handler  WebhookHandler
	users    *memUserStore
	videos   *memVideoCatalog
	creators *stubCreatorStore
	buys     *memPurchaseStore
	subs     *memSubscriptionStore
	gateway  *stubGateway
}

func newWebhookFixture(users ...models.User) *webhookFixture {
	f := &webhookFixture{
		users:    newMemUserStore(users...),
		videos:   newMemVideoCatalog(),
		creators: newStubCreatorStore(),
		buys:     newMemPurchaseStore(),
		subs:     newMemSubscriptionStore(),
		gateway:  &stubGateway{},
	}
	f.handler = WebhookHandler{
		Gateway:        f.gateway,
		Users:          f.users,
		Videos:         f.videos,
		Creators:       f.creators,
		Purchases:      f.buys,
		Subscriptions:  f.subs,
		LicenseFeeRate: 0.10,
		TipFeeRate:     0.05,
	}
	return f
}

// deliver posts a webhook whose signature check yields the given event.
func (f *webhookFixture) deliver(t *testing.T, event payments.Event) *httptest.ResponseRecorder {
	t.Helper()
	f.gateway.ConstructEventFunc = func([]byte, string) (payments.Event, error) {
		return event, nil
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(`{}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=test")
	rec := httptest.NewRecorder()

	f.handler.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp map[string]bool
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp["received"] {
		t.Fatal("expected received acknowledgment")
	}
	return rec
}

func licensePaidEvent(paymentID string) payments.Event {
	return payments.Event{
		ID:   "evt_" + paymentID,
		Type: payments.EventPaymentIntentSucceeded,
		Data: json.RawMessage(`{
			"id": "` + paymentID + `",
			"amount": 4999,
			"currency": "usd",
			"metadata": {
				"type": "video_license",
				"userId": "buyer-1",
				"videoId": "vid-1",
				"creatorId": "creator-1",
				"licenseType": "personal"
			}
		}`),
	}
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	f := newWebhookFixture()
	f.gateway.ConstructEventFunc = func([]byte, string) (payments.Event, error) {
		return payments.Event{}, errors.New("signature mismatch")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	f.handler.Handle(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestWebhookLicensePaymentSucceeded(t *testing.T) {
	f := newWebhookFixture()
	f.buys.byPaymentID["pi_1"] = models.Purchase{
		ID:              "p1",
		UserID:          "buyer-1",
		VideoID:         "vid-1",
		LicenseType:     models.LicensePersonal,
		StripePaymentID: "pi_1",
		Status:          models.PurchasePending,
	}

	f.deliver(t, licensePaidEvent("pi_1"))

	purchase := f.buys.byPaymentID["pi_1"]
	if purchase.Status != models.PurchaseCompleted {
		t.Errorf("purchase status = %q, want COMPLETED", purchase.Status)
	}
	if len(f.videos.purchasesRecorded) != 1 || f.videos.purchasesRecorded[0] != "vid-1" {
		t.Errorf("recorded purchases = %v, want [vid-1]", f.videos.purchasesRecorded)
	}
	if len(f.creators.credits) != 1 {
		t.Fatalf("credits = %d, want 1", len(f.creators.credits))
	}
	credit := f.creators.credits[0]
	if credit.userID != "creator-1" || !credit.countPurchase {
		t.Errorf("unexpected credit: %+v", credit)
	}
	// 49.99 gross at a 10% fee rounded to whole dollars nets 44.99.
	if credit.net != 44.99 {
		t.Errorf("net = %f, want 44.99", credit.net)
	}
}

// A redelivered success event must not duplicate the purchase row. The
// sales counters are updated per delivery, so they double; this pins the
// current reconciliation behavior.
func TestWebhookLicensePaymentRedelivery(t *testing.T) {
	f := newWebhookFixture()
	f.buys.byPaymentID["pi_1"] = models.Purchase{
		ID:              "p1",
		UserID:          "buyer-1",
		VideoID:         "vid-1",
		LicenseType:     models.LicensePersonal,
		StripePaymentID: "pi_1",
		Status:          models.PurchasePending,
	}

	f.deliver(t, licensePaidEvent("pi_1"))
	f.deliver(t, licensePaidEvent("pi_1"))

	if len(f.buys.byPaymentID) != 1 {
		t.Errorf("purchase rows = %d, want 1", len(f.buys.byPaymentID))
	}
	if f.buys.byPaymentID["pi_1"].Status != models.PurchaseCompleted {
		t.Errorf("purchase status = %q, want COMPLETED", f.buys.byPaymentID["pi_1"].Status)
	}
	if len(f.videos.purchasesRecorded) != 2 {
		t.Errorf("recorded purchases = %d, want 2", len(f.videos.purchasesRecorded))
	}
	if len(f.creators.credits) != 2 {
		t.Errorf("credits = %d, want 2", len(f.creators.credits))
	}
}

func TestWebhookLicensePaidWithoutPendingRow(t *testing.T) {
	f := newWebhookFixture()

	f.deliver(t, licensePaidEvent("pi_9"))

	purchase, ok := f.buys.byPaymentID["pi_9"]
	if !ok {
		t.Fatal("expected a completed purchase row to be inserted")
	}
	if purchase.Status != models.PurchaseCompleted {
		t.Errorf("purchase status = %q, want COMPLETED", purchase.Status)
	}
	if purchase.LicenseType != models.LicensePersonal {
		t.Errorf("license = %q, want PERSONAL", purchase.LicenseType)
	}
}

func TestWebhookTipPaymentSucceeded(t *testing.T) {
	f := newWebhookFixture()

	f.deliver(t, payments.Event{
		Type: payments.EventPaymentIntentSucceeded,
		Data: json.RawMessage(`{
			"id": "pi_tip",
			"amount": 2000,
			"currency": "usd",
			"metadata": {"type": "tip", "creatorId": "creator-1", "userId": "fan-1"}
		}`),
	})

	if len(f.creators.credits) != 1 {
		t.Fatalf("credits = %d, want 1", len(f.creators.credits))
	}
	credit := f.creators.credits[0]
	if credit.userID != "creator-1" || credit.countPurchase {
		t.Errorf("unexpected credit: %+v", credit)
	}
	// 20.00 gross at a 5% fee rounded to whole dollars nets 19.00.
	if credit.net != 19 {
		t.Errorf("net = %f, want 19", credit.net)
	}
	if len(f.buys.byPaymentID) != 0 {
		t.Error("tips must not create purchase rows")
	}
}

func TestWebhookPaymentFailed(t *testing.T) {
	f := newWebhookFixture()
	f.buys.byPaymentID["pi_1"] = models.Purchase{
		ID:              "p1",
		StripePaymentID: "pi_1",
		Status:          models.PurchasePending,
	}

	f.deliver(t, payments.Event{
		Type: payments.EventPaymentIntentFailed,
		Data: json.RawMessage(`{"id": "pi_1", "amount": 4999, "metadata": {"type": "video_license"}}`),
	})

	if f.buys.byPaymentID["pi_1"].Status != models.PurchaseFailed {
		t.Errorf("purchase status = %q, want FAILED", f.buys.byPaymentID["pi_1"].Status)
	}
}

func TestWebhookPaymentFailedForTipIsIgnored(t *testing.T) {
	f := newWebhookFixture()

	// No purchase row exists for tips; the event is acknowledged anyway.
	f.deliver(t, payments.Event{
		Type: payments.EventPaymentIntentFailed,
		Data: json.RawMessage(`{"id": "pi_tip", "metadata": {"type": "tip"}}`),
	})
}

func TestWebhookCheckoutCompleted(t *testing.T) {
	f := newWebhookFixture(models.User{ID: "u1", Email: "u1@example.com"})

	f.deliver(t, payments.Event{
		Type: payments.EventCheckoutCompleted,
		Data: json.RawMessage(`{"id": "cs_1", "metadata": {"type": "subscription", "userId": "u1", "tier": "PRO"}}`),
	})

	if f.users.tiers["u1"] != models.TierPro {
		t.Errorf("tier = %q, want PRO", f.users.tiers["u1"])
	}
}

func TestWebhookCheckoutCompletedIgnoresOtherProducts(t *testing.T) {
	f := newWebhookFixture(models.User{ID: "u1", Email: "u1@example.com"})

	f.deliver(t, payments.Event{
		Type: payments.EventCheckoutCompleted,
		Data: json.RawMessage(`{"id": "cs_1", "metadata": {"type": "video_license", "userId": "u1"}}`),
	})

	if _, ok := f.users.tiers["u1"]; ok {
		t.Error("non-subscription checkouts must not change the tier")
	}
}

func subscriptionEvent(eventType, status, lookupKey string) payments.Event {
	return payments.Event{
		Type: eventType,
		Data: json.RawMessage(`{
			"id": "sub_1",
			"customer": "cus_1",
			"status": "` + status + `",
			"items": {
				"data": [{
					"current_period_start": 1735689600,
					"current_period_end": 1738368000,
					"price": {"lookup_key": "` + lookupKey + `"}
				}]
			}
		}`),
	}
}

func TestWebhookSubscriptionCreated(t *testing.T) {
	f := newWebhookFixture(models.User{ID: "u1", Email: "u1@example.com", StripeCustomerID: "cus_1"})

	f.deliver(t, subscriptionEvent(payments.EventSubscriptionCreated, "active", "pro_monthly"))

	record, ok := f.subs.byProviderID["sub_1"]
	if !ok {
		t.Fatal("expected subscription row")
	}
	if record.UserID != "u1" {
		t.Errorf("userId = %q, want u1", record.UserID)
	}
	if record.Tier != models.TierPro {
		t.Errorf("tier = %q, want PRO", record.Tier)
	}
	if record.Status != models.SubscriptionActive {
		t.Errorf("status = %q, want ACTIVE", record.Status)
	}
	wantStart := time.Unix(1735689600, 0).UTC()
	if !record.CurrentPeriodStart.Equal(wantStart) {
		t.Errorf("period start = %v, want %v", record.CurrentPeriodStart, wantStart)
	}
	if f.users.tiers["u1"] != models.TierPro {
		t.Errorf("user tier = %q, want PRO", f.users.tiers["u1"])
	}

	// Redelivery hits the unique provider id and is absorbed.
	f.deliver(t, subscriptionEvent(payments.EventSubscriptionCreated, "active", "pro_monthly"))
	if len(f.subs.byProviderID) != 1 {
		t.Errorf("subscription rows = %d, want 1", len(f.subs.byProviderID))
	}
}

func TestWebhookSubscriptionUpdated(t *testing.T) {
	f := newWebhookFixture(models.User{ID: "u1", Email: "u1@example.com"})
	f.subs.byProviderID["sub_1"] = models.Subscription{
		ID:                   "s1",
		UserID:               "u1",
		Tier:                 models.TierPremium,
		Status:               models.SubscriptionActive,
		StripeSubscriptionID: "sub_1",
	}

	f.deliver(t, subscriptionEvent(payments.EventSubscriptionUpdated, "active", "pro_yearly"))

	record := f.subs.byProviderID["sub_1"]
	if record.Status != models.SubscriptionActive {
		t.Errorf("status = %q, want ACTIVE", record.Status)
	}
	if f.users.tiers["u1"] != models.TierPro {
		t.Errorf("user tier = %q, want PRO after plan change", f.users.tiers["u1"])
	}

	f.deliver(t, subscriptionEvent(payments.EventSubscriptionUpdated, "past_due", "pro_yearly"))
	if f.subs.byProviderID["sub_1"].Status != models.SubscriptionPastDue {
		t.Errorf("status = %q, want PAST_DUE", f.subs.byProviderID["sub_1"].Status)
	}
}

func TestWebhookSubscriptionDeleted(t *testing.T) {
	f := newWebhookFixture(models.User{ID: "u1", Email: "u1@example.com", SubscriptionTier: models.TierPro})
	f.subs.byProviderID["sub_1"] = models.Subscription{
		ID:                   "s1",
		UserID:               "u1",
		Tier:                 models.TierPro,
		Status:               models.SubscriptionActive,
		StripeSubscriptionID: "sub_1",
	}

	f.deliver(t, subscriptionEvent(payments.EventSubscriptionDeleted, "canceled", "pro_monthly"))

	if f.subs.byProviderID["sub_1"].Status != models.SubscriptionCanceled {
		t.Errorf("status = %q, want CANCELED", f.subs.byProviderID["sub_1"].Status)
	}
	if f.users.tiers["u1"] != models.TierFree {
		t.Errorf("user tier = %q, want FREE", f.users.tiers["u1"])
	}
}

func TestWebhookInvoicePaymentFailed(t *testing.T) {
	f := newWebhookFixture()
	f.subs.byProviderID["sub_1"] = models.Subscription{
		ID:                   "s1",
		UserID:               "u1",
		Status:               models.SubscriptionActive,
		StripeSubscriptionID: "sub_1",
	}

	f.deliver(t, payments.Event{
		Type: payments.EventInvoicePaymentFailed,
		Data: json.RawMessage(`{"id": "in_1", "subscription": "sub_1"}`),
	})

	if f.subs.byProviderID["sub_1"].Status != models.SubscriptionPastDue {
		t.Errorf("status = %q, want PAST_DUE", f.subs.byProviderID["sub_1"].Status)
	}
}

func TestWebhookIgnoresUnknownEvents(t *testing.T) {
	f := newWebhookFixture()

	f.deliver(t, payments.Event{Type: "charge.refunded", Data: json.RawMessage(`{}`)})
}

func TestWebhookRejectsNonPost(t *testing.T) {
	f := newWebhookFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/webhooks/stripe", nil)
	rec := httptest.NewRecorder()

	f.handler.Handle(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}
