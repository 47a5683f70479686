package handlers

import "net/http"

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Videos        VideoCatalog
	Creators      CreatorStore
	Purchases     PurchaseStore
	Subscriptions SubscriptionStore
	Library       LibraryStore
	Stats         StatsStore
	Gateway       PaymentGateway
	Uploader      VideoUploader
	AuthLimiter   RateLimiter
	Prices        SubscriptionPriceTable

	LicenseFeeRate float64
	TipFeeRate     float64
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Limiter: deps.AuthLimiter}
	videos := VideoHandler{
		Videos:   deps.Videos,
		Users:    deps.Users,
		Creators: deps.Creators,
		Library:  deps.Library,
		Sessions: deps.Sessions,
	}
	upload := UploadHandler{
		Uploader: deps.Uploader,
		Users:    deps.Users,
		Sessions: deps.Sessions,
		Limiter:  deps.AuthLimiter,
	}
	payments := PaymentHandler{
		Gateway:       deps.Gateway,
		Users:         deps.Users,
		Videos:        deps.Videos,
		Purchases:     deps.Purchases,
		Subscriptions: deps.Subscriptions,
		Sessions:      deps.Sessions,
		Limiter:       deps.AuthLimiter,
		Prices:        deps.Prices,
	}
	webhooks := WebhookHandler{
		Gateway:        deps.Gateway,
		Users:          deps.Users,
		Videos:         deps.Videos,
		Creators:       deps.Creators,
		Purchases:      deps.Purchases,
		Subscriptions:  deps.Subscriptions,
		LicenseFeeRate: deps.LicenseFeeRate,
		TipFeeRate:     deps.TipFeeRate,
	}
	library := LibraryHandler{
		Purchases: deps.Purchases,
		Library:   deps.Library,
		Users:     deps.Users,
		Sessions:  deps.Sessions,
	}
	search := SearchHandler{Videos: deps.Videos, Creators: deps.Creators}
	dashboard := DashboardHandler{Stats: deps.Stats, Users: deps.Users, Sessions: deps.Sessions}
	trending := TrendingHandler{Videos: deps.Videos, Stats: deps.Stats}

	mux.HandleFunc("/healthz", health.Handle)

	mux.HandleFunc("/api/v1/auth/login", auth.Login)
	mux.HandleFunc("/api/v1/auth/signup", auth.SignUp)
	mux.HandleFunc("/api/v1/auth/refresh", auth.Refresh)
	mux.HandleFunc("/api/v1/auth/logout", auth.Logout)

	mux.HandleFunc("/api/v1/videos", videos.List)
	mux.HandleFunc("/api/v1/videos/upload", upload.Handle)
	mux.HandleFunc("/api/v1/videos/", videos.ByID)
	mux.HandleFunc("/api/v1/creators/", videos.CreatorProfile)

	mux.HandleFunc("/api/v1/payments/intent", payments.CreateLicenseIntent)
	mux.HandleFunc("/api/v1/payments/tip", payments.CreateTip)
	mux.HandleFunc("/api/v1/subscriptions", payments.HandleSubscriptions)
	mux.HandleFunc("/api/v1/webhooks/stripe", webhooks.Handle)

	mux.HandleFunc("/api/v1/library/purchases", library.ListPurchases)
	mux.HandleFunc("/api/v1/library/likes", library.Likes)
	mux.HandleFunc("/api/v1/library/collections", library.Collections)
	mux.HandleFunc("/api/v1/library/collections/videos", library.CollectionVideos)

	mux.HandleFunc("/api/v1/search/videos", search.SearchVideos)
	mux.HandleFunc("/api/v1/search/creators", search.SearchCreators)
	mux.HandleFunc("/api/v1/search/suggestions", search.Suggestions)

	mux.HandleFunc("/api/v1/dashboard", dashboard.Handle)
	mux.HandleFunc("/api/v1/trending", trending.Handle)
}
