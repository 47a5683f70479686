package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/synthera/backend/internal/models"
	"github.com/synthera/backend/internal/payments"
	"github.com/synthera/backend/internal/repositories"
)

// memUserStore is an in-memory UserStore for handler tests.
type memUserStore struct {
	users map[string]models.User

	tiers       map[string]models.SubscriptionTier
	customerIDs map[string]string
}

func newMemUserStore(users ...models.User) *memUserStore {
	s := &memUserStore{
		users:       map[string]models.User{},
		tiers:       map[string]models.SubscriptionTier{},
		customerIDs: map[string]string{},
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memUserStore) Create(_ context.Context, user models.User) error {
	for _, existing := range s.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return repositories.ErrConflict
		}
	}
	s.users[user.ID] = user
	return nil
}

func (s *memUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *memUserStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *memUserStore) FindByStripeCustomerID(_ context.Context, customerID string) (models.User, error) {
	for _, user := range s.users {
		if user.StripeCustomerID == customerID {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *memUserStore) SetStripeCustomerID(_ context.Context, userID, customerID string) error {
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.StripeCustomerID = customerID
	s.users[userID] = user
	s.customerIDs[userID] = customerID
	return nil
}

func (s *memUserStore) SetSubscriptionTier(_ context.Context, userID string, tier models.SubscriptionTier) error {
	user, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	user.SubscriptionTier = tier
	s.users[userID] = user
	s.tiers[userID] = tier
	return nil
}

// memVideoCatalog backs VideoCatalog with a map, tracking counter calls.
type memVideoCatalog struct {
	videos map[string]models.Video

	purchasesRecorded []string
	viewsIncremented  []string
	suggestions       []string
}

func newMemVideoCatalog(videos ...models.Video) *memVideoCatalog {
	s := &memVideoCatalog{videos: map[string]models.Video{}}
	for _, v := range videos {
		s.videos[v.ID] = v
	}
	return s
}

func (s *memVideoCatalog) FindByID(_ context.Context, id string) (models.Video, error) {
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *memVideoCatalog) List(_ context.Context, filter repositories.VideoFilter) ([]models.Video, int64, error) {
	var out []models.Video
	for _, v := range s.videos {
		if filter.CreatorID != "" && v.CreatorID != filter.CreatorID {
			continue
		}
		out = append(out, v)
	}
	return out, int64(len(out)), nil
}

func (s *memVideoCatalog) Delete(_ context.Context, id string) error {
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

func (s *memVideoCatalog) IncrementViews(_ context.Context, id string) error {
	s.viewsIncremented = append(s.viewsIncremented, id)
	return nil
}

func (s *memVideoCatalog) RecordPurchase(_ context.Context, id string, _ float64) error {
	s.purchasesRecorded = append(s.purchasesRecorded, id)
	return nil
}

func (s *memVideoCatalog) SuggestTitles(context.Context, string, int) ([]string, error) {
	return s.suggestions, nil
}

// earningsCredit is one AddEarnings call observed by stubCreatorStore.
type earningsCredit struct {
	userID        string
	net           float64
	countPurchase bool
}

type stubCreatorStore struct {
	creators map[string]models.Creator
	credits  []earningsCredit
	profiles []repositories.CreatorProfile
}

func newStubCreatorStore() *stubCreatorStore {
	return &stubCreatorStore{creators: map[string]models.Creator{}}
}

func (s *stubCreatorStore) FindByUserID(_ context.Context, userID string) (models.Creator, error) {
	creator, ok := s.creators[userID]
	if !ok {
		return models.Creator{}, repositories.ErrNotFound
	}
	return creator, nil
}

func (s *stubCreatorStore) AddEarnings(_ context.Context, userID string, net float64, countPurchase bool) error {
	s.credits = append(s.credits, earningsCredit{userID: userID, net: net, countPurchase: countPurchase})
	return nil
}

func (s *stubCreatorStore) Search(context.Context, string, int, int) ([]repositories.CreatorProfile, int64, error) {
	return s.profiles, int64(len(s.profiles)), nil
}

// memPurchaseStore mirrors the Postgres purchase semantics in memory:
// completion upserts on the payment id, and a second completed purchase
// of the same license triple fails with ErrConflict.
type memPurchaseStore struct {
	byPaymentID map[string]models.Purchase
	libraryRows []repositories.LibraryPurchase
}

func newMemPurchaseStore() *memPurchaseStore {
	return &memPurchaseStore{byPaymentID: map[string]models.Purchase{}}
}

func (s *memPurchaseStore) Create(_ context.Context, purchase models.Purchase) error {
	if _, ok := s.byPaymentID[purchase.StripePaymentID]; ok {
		return repositories.ErrConflict
	}
	s.byPaymentID[purchase.StripePaymentID] = purchase
	return nil
}

func (s *memPurchaseStore) CompleteByPaymentID(_ context.Context, purchase models.Purchase) error {
	if existing, ok := s.byPaymentID[purchase.StripePaymentID]; ok {
		existing.Status = models.PurchaseCompleted
		existing.UpdatedAt = purchase.UpdatedAt
		s.byPaymentID[purchase.StripePaymentID] = existing
		return nil
	}
	for _, existing := range s.byPaymentID {
		if existing.Status == models.PurchaseCompleted &&
			existing.UserID == purchase.UserID &&
			existing.VideoID == purchase.VideoID &&
			existing.LicenseType == purchase.LicenseType {
			return repositories.ErrConflict
		}
	}
	s.byPaymentID[purchase.StripePaymentID] = purchase
	return nil
}

func (s *memPurchaseStore) FailByPaymentID(_ context.Context, stripePaymentID string) error {
	purchase, ok := s.byPaymentID[stripePaymentID]
	if !ok {
		return repositories.ErrNotFound
	}
	purchase.Status = models.PurchaseFailed
	s.byPaymentID[stripePaymentID] = purchase
	return nil
}

func (s *memPurchaseStore) FindByPaymentID(_ context.Context, stripePaymentID string) (models.Purchase, error) {
	purchase, ok := s.byPaymentID[stripePaymentID]
	if !ok {
		return models.Purchase{}, repositories.ErrNotFound
	}
	return purchase, nil
}

func (s *memPurchaseStore) FindCompleted(_ context.Context, userID, videoID string, license models.LicenseType) (models.Purchase, error) {
	for _, purchase := range s.byPaymentID {
		if purchase.Status == models.PurchaseCompleted &&
			purchase.UserID == userID && purchase.VideoID == videoID && purchase.LicenseType == license {
			return purchase, nil
		}
	}
	return models.Purchase{}, repositories.ErrNotFound
}

func (s *memPurchaseStore) ListForUser(context.Context, string) ([]repositories.LibraryPurchase, error) {
	return s.libraryRows, nil
}

// memSubscriptionStore backs SubscriptionStore with a map keyed by the
// provider subscription id.
type memSubscriptionStore struct {
	byProviderID map[string]models.Subscription
}

func newMemSubscriptionStore() *memSubscriptionStore {
	return &memSubscriptionStore{byProviderID: map[string]models.Subscription{}}
}

func (s *memSubscriptionStore) Create(_ context.Context, subscription models.Subscription) error {
	if _, ok := s.byProviderID[subscription.StripeSubscriptionID]; ok {
		return repositories.ErrConflict
	}
	s.byProviderID[subscription.StripeSubscriptionID] = subscription
	return nil
}

func (s *memSubscriptionStore) FindByProviderID(_ context.Context, stripeSubscriptionID string) (models.Subscription, error) {
	subscription, ok := s.byProviderID[stripeSubscriptionID]
	if !ok {
		return models.Subscription{}, repositories.ErrNotFound
	}
	return subscription, nil
}

func (s *memSubscriptionStore) FindCurrentForUser(_ context.Context, userID string) (models.Subscription, error) {
	for _, subscription := range s.byProviderID {
		if subscription.UserID == userID && subscription.Status != models.SubscriptionCanceled {
			return subscription, nil
		}
	}
	return models.Subscription{}, repositories.ErrNotFound
}

func (s *memSubscriptionStore) UpdateByProviderID(_ context.Context, stripeSubscriptionID string, status models.SubscriptionStatus, periodStart, periodEnd time.Time) error {
	subscription, ok := s.byProviderID[stripeSubscriptionID]
	if !ok {
		return repositories.ErrNotFound
	}
	subscription.Status = status
	if !periodStart.IsZero() {
		subscription.CurrentPeriodStart = periodStart
	}
	if !periodEnd.IsZero() {
		subscription.CurrentPeriodEnd = periodEnd
	}
	s.byProviderID[stripeSubscriptionID] = subscription
	return nil
}

// stubGateway is a canned PaymentGateway. ConstructEventFunc lets
// webhook tests inject decoded events without real signatures.
type stubGateway struct {
	customers          int
	licenseIntents     []payments.LicenseIntentParams
	tipIntents         []payments.TipIntentParams
	checkouts          []payments.SubscriptionCheckoutParams
	canceled           []string
	createCustomerErr  error
	ConstructEventFunc func(payload []byte, sigHeader string) (payments.Event, error)
}

func (s *stubGateway) CreateCustomer(_ context.Context, _, _, _ string) (string, error) {
	if s.createCustomerErr != nil {
		return "", s.createCustomerErr
	}
	s.customers++
	return fmt.Sprintf("cus_%d", s.customers), nil
}

func (s *stubGateway) CreateLicenseIntent(_ context.Context, p payments.LicenseIntentParams) (payments.Intent, error) {
	s.licenseIntents = append(s.licenseIntents, p)
	return payments.Intent{ID: fmt.Sprintf("pi_%d", len(s.licenseIntents)), ClientSecret: "secret_license"}, nil
}

func (s *stubGateway) CreateTipIntent(_ context.Context, p payments.TipIntentParams) (payments.Intent, error) {
	s.tipIntents = append(s.tipIntents, p)
	return payments.Intent{ID: fmt.Sprintf("pi_tip_%d", len(s.tipIntents)), ClientSecret: "secret_tip"}, nil
}

func (s *stubGateway) CreateSubscriptionCheckout(_ context.Context, p payments.SubscriptionCheckoutParams) (payments.CheckoutSession, error) {
	s.checkouts = append(s.checkouts, p)
	return payments.CheckoutSession{ID: "cs_1", URL: "https://checkout.example.com/cs_1"}, nil
}

func (s *stubGateway) CancelSubscription(_ context.Context, subscriptionID string) error {
	s.canceled = append(s.canceled, subscriptionID)
	return nil
}

func (s *stubGateway) ConstructEvent(payload []byte, sigHeader string) (payments.Event, error) {
	if s.ConstructEventFunc != nil {
		return s.ConstructEventFunc(payload, sigHeader)
	}
	return payments.Event{}, fmt.Errorf("no event constructor configured")
}

// stubStatsStore returns canned aggregates.
type stubStatsStore struct {
	dashboard repositories.DashboardStats
	trending  repositories.TrendingStats
}

func (s *stubStatsStore) Dashboard(context.Context, string, time.Time, time.Time) (repositories.DashboardStats, error) {
	return s.dashboard, nil
}

func (s *stubStatsStore) Trending(context.Context, time.Time) (repositories.TrendingStats, error) {
	return s.trending, nil
}

// denyLimiter rejects every request.
type denyLimiter struct{}

func (denyLimiter) Allow(string) bool { return false }
