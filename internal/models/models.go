package models

import "time"

// UserType distinguishes accounts that can upload and monetize from
// accounts that only browse or collect.
type UserType string

const (
	UserTypeCreator   UserType = "CREATOR"
	UserTypeCollector UserType = "COLLECTOR"
	UserTypeBrowser   UserType = "BROWSER"
)

// SubscriptionTier is the billing tier currently attached to a user.
type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "FREE"
	TierPremium SubscriptionTier = "PREMIUM"
	TierPro     SubscriptionTier = "PRO"
)

// LicenseType is the usage-rights tier purchasable per video.
type LicenseType string

const (
	LicensePersonal   LicenseType = "PERSONAL"
	LicenseCommercial LicenseType = "COMMERCIAL"
	LicenseExtended   LicenseType = "EXTENDED"
	LicenseExclusive  LicenseType = "EXCLUSIVE"
)

// PurchaseStatus tracks a single license grant attempt. Transitions are
// driven by payment-provider webhook events.
type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "PENDING"
	PurchaseCompleted PurchaseStatus = "COMPLETED"
	PurchaseFailed    PurchaseStatus = "FAILED"
	PurchaseCanceled  PurchaseStatus = "CANCELED"
)

// SubscriptionStatus mirrors the provider-side subscription lifecycle.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "ACTIVE"
	SubscriptionPastDue  SubscriptionStatus = "PAST_DUE"
	SubscriptionCanceled SubscriptionStatus = "CANCELED"
)

// User represents an account on the Synthera marketplace.
type User struct {
	ID               string
	Email            string
	Username         string
	DisplayName      string
	Password         string
	Avatar           string
	Bio              string
	Type             UserType
	SubscriptionTier SubscriptionTier
	IsVerified       bool
	StripeCustomerID string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Creator is the 1:1 extension of a User who uploads and monetizes
// videos. Earnings counters are denormalized and incremented inline by
// the webhook reconciliation flow.
type Creator struct {
	ID              string
	UserID          string
	Specialties     []string
	TotalEarnings   float64
	MonthlyEarnings float64
	LifetimeRevenue float64
	TotalPurchases  int64
	TotalVideos     int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Video is a generated media asset with per-license pricing. A zero
// license price means that tier is not offered. CreatorID refers to the
// owning user's id.
type Video struct {
	ID                 string
	CreatorID          string
	Title              string
	Description        string
	ThumbnailURL       string
	VideoURL           string
	Duration           int
	FileSize           int64
	Resolution         string
	AspectRatio        string
	FPS                int
	AIModel            string
	Prompts            []string
	Tags               []string
	Category           string
	Style              string
	PersonalLicense    float64
	CommercialLicense  float64
	ExtendedLicense    float64
	ExclusiveRights    float64
	IsAvailableForSale bool
	IsPublic           bool
	IsFeatured         bool
	Views              int64
	Purchases          int64
	Revenue            float64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// LicensePrice returns the stored price for a license tier. Unknown
// tiers report zero, which callers treat as "not offered".
func (v Video) LicensePrice(license LicenseType) float64 {
	switch license {
	case LicensePersonal:
		return v.PersonalLicense
	case LicenseCommercial:
		return v.CommercialLicense
	case LicenseExtended:
		return v.ExtendedLicense
	case LicenseExclusive:
		return v.ExclusiveRights
	default:
		return 0
	}
}

// Purchase is one license grant attempt, identified externally by the
// payment intent id which doubles as the reconciliation idempotency key.
type Purchase struct {
	ID              string
	UserID          string
	VideoID         string
	LicenseType     LicenseType
	Amount          float64
	Currency        string
	StripePaymentID string
	Status          PurchaseStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Subscription is a billing relationship between a user and the payment
// provider. At most one is intended to be ACTIVE per user.
type Subscription struct {
	ID                   string
	UserID               string
	Tier                 SubscriptionTier
	Status               SubscriptionStatus
	StripeSubscriptionID string
	CurrentPeriodStart   time.Time
	CurrentPeriodEnd     time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Collection is a user-curated named set of videos.
type Collection struct {
	ID          string
	UserID      string
	Name        string
	Description string
	IsPublic    bool
	VideoCount  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Like is a join-table toggle: existence means liked.
type Like struct {
	ID        string
	UserID    string
	VideoID   string
	CreatedAt time.Time
}

// Follow records one user following another.
type Follow struct {
	ID          string
	FollowerID  string
	FollowingID string
	CreatedAt   time.Time
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

// ValidCategories enumerates the accepted video categories.
var ValidCategories = []string{
	"CINEMATIC", "ABSTRACT", "PHOTOREALISTIC", "ANIMATION", "MOTION_GRAPHICS",
	"EXPERIMENTAL", "NATURE", "ARCHITECTURE", "FASHION", "TECHNOLOGY",
}

// ValidStyles enumerates the accepted video styles.
var ValidStyles = []string{
	"CINEMATIC", "MINIMALIST", "SURREAL", "RETRO", "FUTURISTIC",
	"ARTISTIC", "COMMERCIAL", "DOCUMENTARY",
}

// ValidLicenseType reports whether the provided license tier is known.
func ValidLicenseType(license LicenseType) bool {
	switch license {
	case LicensePersonal, LicenseCommercial, LicenseExtended, LicenseExclusive:
		return true
	}
	return false
}
