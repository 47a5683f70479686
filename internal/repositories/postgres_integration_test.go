package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/synthera/backend/internal/auth"
	"github.com/synthera/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateFindAndConflict(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)

	user := models.User{
		ID:               uuid.NewString(),
		Email:            "ada@example.com",
		Username:         "ada_l",
		DisplayName:      "Ada",
		Password:         "secret-hash",
		Type:             models.UserTypeCreator,
		SubscriptionTier: models.TierFree,
		CreatedAt:        time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt:        time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	dup := user
	dup.ID = uuid.NewString()
	dup.Username = "other"
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate email, got %v", err)
	}

	fetched, err := repo.FindByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if fetched.ID != user.ID || fetched.Username != user.Username || fetched.Password != user.Password {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}

	if err := repo.SetStripeCustomerID(ctx, user.ID, "cus_123"); err != nil {
		t.Fatalf("set customer id: %v", err)
	}
	byCustomer, err := repo.FindByStripeCustomerID(ctx, "cus_123")
	if err != nil {
		t.Fatalf("find by customer id: %v", err)
	}
	if byCustomer.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, byCustomer.ID)
	}

	if err := repo.SetSubscriptionTier(ctx, user.ID, models.TierPro); err != nil {
		t.Fatalf("set tier: %v", err)
	}
	fetched, err = repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if fetched.SubscriptionTier != models.TierPro {
		t.Fatalf("expected tier PRO, got %s", fetched.SubscriptionTier)
	}

	if err := repo.SetSubscriptionTier(ctx, uuid.NewString(), models.TierPro); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestPostgresPurchaseRepository_CompleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	buyer := createTestUser(t, userRepo, "buyer@example.com", "buyer")
	creator := createTestUser(t, userRepo, "creator@example.com", "creator")
	video := createTestVideo(t, creator.ID, "Neon City")

	repo := NewPostgresPurchaseRepository(testPool)

	pending := models.Purchase{
		ID:              uuid.NewString(),
		UserID:          buyer.ID,
		VideoID:         video.ID,
		LicenseType:     models.LicensePersonal,
		Amount:          49.99,
		Currency:        "usd",
		StripePaymentID: "pi_1",
		Status:          models.PurchasePending,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
	if err := repo.Create(ctx, pending); err != nil {
		t.Fatalf("create pending purchase: %v", err)
	}

	completed := pending
	completed.ID = uuid.NewString()
	completed.Status = models.PurchaseCompleted
	completed.UpdatedAt = time.Now().UTC()

	// Replaying the same payment intent must land on the same row.
	if err := repo.CompleteByPaymentID(ctx, completed); err != nil {
		t.Fatalf("complete purchase: %v", err)
	}
	if err := repo.CompleteByPaymentID(ctx, completed); err != nil {
		t.Fatalf("complete purchase again: %v", err)
	}

	stored, err := repo.FindByPaymentID(ctx, "pi_1")
	if err != nil {
		t.Fatalf("find by payment id: %v", err)
	}
	if stored.ID != pending.ID {
		t.Fatalf("expected original pending row %s, got %s", pending.ID, stored.ID)
	}
	if stored.Status != models.PurchaseCompleted {
		t.Fatalf("expected COMPLETED, got %s", stored.Status)
	}

	if _, err := repo.FindCompleted(ctx, buyer.ID, video.ID, models.LicensePersonal); err != nil {
		t.Fatalf("find completed: %v", err)
	}

	// A different payment intent for the same license grant trips the
	// partial unique index.
	other := completed
	other.ID = uuid.NewString()
	other.StripePaymentID = "pi_2"
	if err := repo.CompleteByPaymentID(ctx, other); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate license grant, got %v", err)
	}

	// The same buyer may still complete a different license type.
	commercial := completed
	commercial.ID = uuid.NewString()
	commercial.StripePaymentID = "pi_3"
	commercial.LicenseType = models.LicenseCommercial
	if err := repo.CompleteByPaymentID(ctx, commercial); err != nil {
		t.Fatalf("complete commercial purchase: %v", err)
	}
}

func TestPostgresPurchaseRepository_FailByPaymentID(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	buyer := createTestUser(t, userRepo, "buyer@example.com", "buyer")
	creator := createTestUser(t, userRepo, "creator@example.com", "creator")
	video := createTestVideo(t, creator.ID, "Neon City")

	repo := NewPostgresPurchaseRepository(testPool)

	pending := models.Purchase{
		ID:              uuid.NewString(),
		UserID:          buyer.ID,
		VideoID:         video.ID,
		LicenseType:     models.LicensePersonal,
		Amount:          49.99,
		Currency:        "usd",
		StripePaymentID: "pi_fail",
		Status:          models.PurchasePending,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
	if err := repo.Create(ctx, pending); err != nil {
		t.Fatalf("create pending purchase: %v", err)
	}

	if err := repo.FailByPaymentID(ctx, "pi_fail"); err != nil {
		t.Fatalf("fail purchase: %v", err)
	}
	stored, err := repo.FindByPaymentID(ctx, "pi_fail")
	if err != nil {
		t.Fatalf("find by payment id: %v", err)
	}
	if stored.Status != models.PurchaseFailed {
		t.Fatalf("expected FAILED, got %s", stored.Status)
	}

	if err := repo.FailByPaymentID(ctx, "pi_unknown"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown intent, got %v", err)
	}
}

func TestPostgresVideoRepository_ListFilters(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	creator := createTestUser(t, userRepo, "creator@example.com", "creator")

	repo := NewPostgresVideoRepository(testPool)

	public := createTestVideo(t, creator.ID, "Neon City")
	private := testVideo(creator.ID, "Hidden Draft")
	private.IsPublic = false
	if err := repo.Create(ctx, private); err != nil {
		t.Fatalf("create private video: %v", err)
	}
	abstract := testVideo(creator.ID, "Liquid Shapes")
	abstract.Category = "ABSTRACT"
	if err := repo.Create(ctx, abstract); err != nil {
		t.Fatalf("create abstract video: %v", err)
	}

	videos, total, err := repo.List(ctx, VideoFilter{Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("list videos: %v", err)
	}
	if total != 2 || len(videos) != 2 {
		t.Fatalf("expected 2 public videos, got %d (total %d)", len(videos), total)
	}
	for _, v := range videos {
		if v.ID == private.ID {
			t.Fatal("private video leaked into the public listing")
		}
	}

	videos, total, err = repo.List(ctx, VideoFilter{Category: "ABSTRACT", Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if total != 1 || videos[0].ID != abstract.ID {
		t.Fatalf("expected only the abstract video, got %+v", videos)
	}

	videos, _, err = repo.List(ctx, VideoFilter{Query: "neon", Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("list by query: %v", err)
	}
	if len(videos) != 1 || videos[0].ID != public.ID {
		t.Fatalf("expected title search to match Neon City, got %+v", videos)
	}

	videos, total, err = repo.List(ctx, VideoFilter{CreatorID: creator.ID, IncludePrivate: true, Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("list for creator: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 videos including private, got %d", total)
	}

	if err := repo.IncrementViews(ctx, public.ID); err != nil {
		t.Fatalf("increment views: %v", err)
	}
	if err := repo.RecordPurchase(ctx, public.ID, 49.99); err != nil {
		t.Fatalf("record purchase: %v", err)
	}
	fetched, err := repo.FindByID(ctx, public.ID)
	if err != nil {
		t.Fatalf("find video: %v", err)
	}
	if fetched.Views != 1 || fetched.Purchases != 1 || fetched.Revenue != 49.99 {
		t.Fatalf("unexpected counters: views=%d purchases=%d revenue=%f",
			fetched.Views, fetched.Purchases, fetched.Revenue)
	}
}

func TestPostgresLibraryRepository_ToggleLike(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	fan := createTestUser(t, userRepo, "fan@example.com", "fan")
	creator := createTestUser(t, userRepo, "creator@example.com", "creator")
	video := createTestVideo(t, creator.ID, "Neon City")

	repo := NewPostgresLibraryRepository(testPool)

	liked, err := repo.ToggleLike(ctx, fan.ID, video.ID)
	if err != nil {
		t.Fatalf("toggle like: %v", err)
	}
	if !liked {
		t.Fatal("expected first toggle to like")
	}

	likes, err := repo.ListLikes(ctx, fan.ID)
	if err != nil {
		t.Fatalf("list likes: %v", err)
	}
	if len(likes) != 1 || likes[0].VideoID != video.ID {
		t.Fatalf("unexpected likes: %+v", likes)
	}

	liked, err = repo.ToggleLike(ctx, fan.ID, video.ID)
	if err != nil {
		t.Fatalf("toggle like off: %v", err)
	}
	if liked {
		t.Fatal("expected second toggle to unlike")
	}

	likes, err = repo.ListLikes(ctx, fan.ID)
	if err != nil {
		t.Fatalf("list likes after unlike: %v", err)
	}
	if len(likes) != 0 {
		t.Fatalf("expected no likes, got %d", len(likes))
	}

	if _, err := repo.ToggleLike(ctx, fan.ID, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown video, got %v", err)
	}
}

func TestPostgresSubscriptionRepository_UpdatePreservesPeriods(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, userRepo, "sub@example.com", "subuser")

	repo := NewPostgresSubscriptionRepository(testPool)

	periodStart := time.Now().UTC().Truncate(time.Second)
	periodEnd := periodStart.AddDate(0, 1, 0)
	sub := models.Subscription{
		ID:                   uuid.NewString(),
		UserID:               user.ID,
		Tier:                 models.TierPremium,
		Status:               models.SubscriptionActive,
		StripeSubscriptionID: "sub_1",
		CurrentPeriodStart:   periodStart,
		CurrentPeriodEnd:     periodEnd,
		CreatedAt:            time.Now().UTC(),
		UpdatedAt:            time.Now().UTC(),
	}
	if err := repo.Create(ctx, sub); err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	dup := sub
	dup.ID = uuid.NewString()
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate provider id, got %v", err)
	}

	current, err := repo.FindCurrentForUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("find current: %v", err)
	}
	if current.StripeSubscriptionID != "sub_1" {
		t.Fatalf("unexpected subscription: %+v", current)
	}

	// Zero period values leave the stored periods untouched.
	if err := repo.UpdateByProviderID(ctx, "sub_1", models.SubscriptionPastDue, time.Time{}, time.Time{}); err != nil {
		t.Fatalf("update status: %v", err)
	}
	updated, err := repo.FindByProviderID(ctx, "sub_1")
	if err != nil {
		t.Fatalf("find by provider id: %v", err)
	}
	if updated.Status != models.SubscriptionPastDue {
		t.Fatalf("expected PAST_DUE, got %s", updated.Status)
	}
	if !timesClose(updated.CurrentPeriodStart, periodStart, time.Millisecond) ||
		!timesClose(updated.CurrentPeriodEnd, periodEnd, time.Millisecond) {
		t.Fatalf("periods changed: %v to %v", updated.CurrentPeriodStart, updated.CurrentPeriodEnd)
	}

	// Provided periods replace the stored ones.
	newStart := periodEnd
	newEnd := periodEnd.AddDate(0, 1, 0)
	if err := repo.UpdateByProviderID(ctx, "sub_1", models.SubscriptionActive, newStart, newEnd); err != nil {
		t.Fatalf("update periods: %v", err)
	}
	updated, err = repo.FindByProviderID(ctx, "sub_1")
	if err != nil {
		t.Fatalf("find after period update: %v", err)
	}
	if !timesClose(updated.CurrentPeriodStart, newStart, time.Millisecond) ||
		!timesClose(updated.CurrentPeriodEnd, newEnd, time.Millisecond) {
		t.Fatalf("expected new periods, got %v to %v", updated.CurrentPeriodStart, updated.CurrentPeriodEnd)
	}

	if err := repo.UpdateByProviderID(ctx, "sub_unknown", models.SubscriptionActive, time.Time{}, time.Time{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown provider id, got %v", err)
	}
}

func TestPostgresVideoRepository_DurationFilter(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	creator := createTestUser(t, userRepo, "creator@example.com", "creator")

	repo := NewPostgresVideoRepository(testPool)

	short := testVideo(creator.ID, "Quick Loop")
	short.Duration = 12
	medium := testVideo(creator.ID, "Story Beat")
	medium.Duration = 60
	long := testVideo(creator.ID, "Full Scene")
	long.Duration = 300
	for _, v := range []models.Video{short, medium, long} {
		if err := repo.Create(ctx, v); err != nil {
			t.Fatalf("create video %s: %v", v.Title, err)
		}
	}

	tests := []struct {
		name   string
		bucket DurationBucket
		want   string
	}{
		{"short under 30s", DurationShort, short.ID},
		{"medium 30 to 120s", DurationMedium, medium.ID},
		{"long over 120s", DurationLong, long.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			videos, total, err := repo.List(ctx, VideoFilter{Duration: tt.bucket, Page: 1, Limit: 20})
			if err != nil {
				t.Fatalf("list videos: %v", err)
			}
			if total != 1 || len(videos) != 1 || videos[0].ID != tt.want {
				t.Fatalf("expected only video %s, got %+v (total %d)", tt.want, videos, total)
			}
		})
	}

	videos, total, err := repo.List(ctx, VideoFilter{Page: 1, Limit: 20})
	if err != nil {
		t.Fatalf("list without bucket: %v", err)
	}
	if total != 3 || len(videos) != 3 {
		t.Fatalf("expected all 3 videos without a bucket, got %d (total %d)", len(videos), total)
	}
}

func TestPostgresStatsRepository_Trending(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	alice := createTestUser(t, userRepo, "alice@example.com", "alice")
	bob := createTestUser(t, userRepo, "bob@example.com", "bob")
	fan := createTestUser(t, userRepo, "fan@example.com", "fan")
	other := createTestUser(t, userRepo, "other@example.com", "other_fan")
	createTestCreator(t, alice.ID)
	createTestCreator(t, bob.ID)

	videoRepo := NewPostgresVideoRepository(testPool)
	now := time.Now().UTC()

	hot := testVideo(alice.ID, "Neon Rush")
	hot.Views = 250
	quiet := testVideo(alice.ID, "Slow Burn")
	quiet.Views = 40
	hidden := testVideo(alice.ID, "Private Hit")
	hidden.Views = 500
	hidden.IsPublic = false
	older := testVideo(bob.ID, "Last Tuesday")
	older.Views = 900
	older.Category = "ABSTRACT"
	older.CreatedAt = now.Add(-3 * 24 * time.Hour)
	older.UpdatedAt = older.CreatedAt
	for _, v := range []models.Video{hot, quiet, hidden, older} {
		if err := videoRepo.Create(ctx, v); err != nil {
			t.Fatalf("create video %s: %v", v.Title, err)
		}
	}

	followUser(t, fan.ID, alice.ID)
	followUser(t, fan.ID, bob.ID)
	followUser(t, other.ID, bob.ID)

	stats, err := NewPostgresStatsRepository(testPool).Trending(ctx, now)
	if err != nil {
		t.Fatalf("trending stats: %v", err)
	}

	// Only Neon Rush is a day-old public video past the view threshold;
	// the older video has the views but not the recency, and the private
	// one never counts.
	if stats.HotVideos != 1 {
		t.Fatalf("hot videos = %d, want 1", stats.HotVideos)
	}
	if stats.WeeklyUploads != 4 {
		t.Fatalf("weekly uploads = %d, want 4", stats.WeeklyUploads)
	}
	if stats.TopCategory != "CINEMATIC" {
		t.Fatalf("top category = %q, want CINEMATIC", stats.TopCategory)
	}
	if stats.RisingCreator != "bob" {
		t.Fatalf("rising creator = %q, want bob", stats.RisingCreator)
	}
}

func TestPostgresStatsRepository_DashboardCountsLikes(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	creator := createTestUser(t, userRepo, "creator@example.com", "creator")
	rival := createTestUser(t, userRepo, "rival@example.com", "rival")
	fan := createTestUser(t, userRepo, "fan@example.com", "fan")
	other := createTestUser(t, userRepo, "other@example.com", "other_fan")
	createTestCreator(t, creator.ID)
	createTestCreator(t, rival.ID)

	video := createTestVideo(t, creator.ID, "Neon City")
	rivalVideo := createTestVideo(t, rival.ID, "Other Work")

	libraryRepo := NewPostgresLibraryRepository(testPool)
	for _, like := range []struct{ userID, videoID string }{
		{fan.ID, video.ID},
		{other.ID, video.ID},
		{fan.ID, rivalVideo.ID},
	} {
		if _, err := libraryRepo.ToggleLike(ctx, like.userID, like.videoID); err != nil {
			t.Fatalf("toggle like: %v", err)
		}
	}
	followUser(t, fan.ID, creator.ID)

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prevMonthStart := monthStart.AddDate(0, -1, 0)

	stats, err := NewPostgresStatsRepository(testPool).Dashboard(ctx, creator.ID, monthStart, prevMonthStart)
	if err != nil {
		t.Fatalf("dashboard stats: %v", err)
	}

	// Likes on the rival's video must not leak into this creator's count.
	if stats.TotalLikes != 2 {
		t.Fatalf("total likes = %d, want 2", stats.TotalLikes)
	}
	if stats.Followers != 1 {
		t.Fatalf("followers = %d, want 1", stats.Followers)
	}
}

func TestPostgresSessionStore_SaveFindAndDelete(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, userRepo, "owner@example.com", "owner")

	store := NewPostgresSessionStore(testPool)
	now := time.Now().UTC()
	session := auth.Session{
		AccessToken:      uuid.NewString(),
		RefreshToken:     uuid.NewString(),
		UserID:           user.ID,
		AccessExpiresAt:  now.Add(15 * time.Minute),
		RefreshExpiresAt: now.Add(24 * time.Hour),
	}

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save session: %v", err)
	}

	loaded, err := store.FindByAccessToken(ctx, session.AccessToken)
	if err != nil {
		t.Fatalf("find by access token: %v", err)
	}
	if loaded.UserID != user.ID || loaded.RefreshToken != session.RefreshToken {
		t.Fatalf("unexpected session: %+v", loaded)
	}

	rotated := session
	rotated.AccessToken = uuid.NewString()
	rotated.AccessExpiresAt = now.Add(30 * time.Minute)
	if err := store.Save(ctx, rotated); err != nil {
		t.Fatalf("rotate session: %v", err)
	}

	if _, err := store.FindByAccessToken(ctx, session.AccessToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected old access token to be replaced, got %v", err)
	}
	loaded, err = store.FindByRefreshToken(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("find by refresh token: %v", err)
	}
	if loaded.AccessToken != rotated.AccessToken {
		t.Fatalf("expected rotated access token, got %s", loaded.AccessToken)
	}

	if err := store.Delete(ctx, session.RefreshToken); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if err := store.Delete(ctx, session.RefreshToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound deleting twice, got %v", err)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        TRUNCATE TABLE collection_videos, collections, likes, follows,
                       purchases, subscriptions, videos, creators,
                       sessions, users CASCADE
    `); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, email, username string) models.User {
	t.Helper()
	user := models.User{
		ID:               uuid.NewString(),
		Email:            email,
		Username:         username,
		DisplayName:      username,
		Password:         "password-hash",
		Type:             models.UserTypeCreator,
		SubscriptionTier: models.TierFree,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func createTestCreator(t *testing.T, userID string) {
	t.Helper()
	creator := models.Creator{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := NewPostgresCreatorRepository(testPool).Upsert(context.Background(), creator); err != nil {
		t.Fatalf("create test creator: %v", err)
	}
}

func followUser(t *testing.T, followerID, followingID string) {
	t.Helper()
	_, err := testPool.Exec(context.Background(), `
        INSERT INTO follows (id, follower_id, following_id) VALUES ($1, $2, $3)
    `, uuid.NewString(), followerID, followingID)
	if err != nil {
		t.Fatalf("insert follow: %v", err)
	}
}

func testVideo(creatorID, title string) models.Video {
	now := time.Now().UTC()
	return models.Video{
		ID:                 uuid.NewString(),
		CreatorID:          creatorID,
		Title:              title,
		Description:        "test video",
		VideoURL:           "https://assets.example.com/videos/" + uuid.NewString(),
		Duration:           12,
		FileSize:           1024,
		Resolution:         "1920x1080",
		AspectRatio:        "16:9",
		FPS:                30,
		AIModel:            "runway-gen3",
		Category:           "CINEMATIC",
		Style:              "FUTURISTIC",
		PersonalLicense:    49.99,
		IsAvailableForSale: true,
		IsPublic:           true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func createTestVideo(t *testing.T, creatorID, title string) models.Video {
	t.Helper()
	video := testVideo(creatorID, title)
	if err := NewPostgresVideoRepository(testPool).Create(context.Background(), video); err != nil {
		t.Fatalf("create test video: %v", err)
	}
	return video
}

func timesClose(a, b time.Time, delta time.Duration) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= delta
}
