package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/synthera/backend/internal/auth"
	"github.com/synthera/backend/internal/logging"
	"github.com/synthera/backend/internal/models"
	"github.com/synthera/backend/internal/repositories"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

// AuthHandler implements user authentication endpoints.
type AuthHandler struct {
	Users    UserStore
	Sessions SessionManager
	Limiter  RateLimiter
	NowFunc  func() time.Time
}

// Login handles POST /api/v1/auth/login requests.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many attempts, try again later")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		logger.Warn("login missing credentials", "email", req.Email)
		respondError(ctx, w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		logger.Warn("login user lookup failed", "email", req.Email, "error", err)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	respondJSON(ctx, w, http.StatusOK, authResponse{Tokens: tokens, User: publicUser(user)})
}

// SignUp handles POST /api/v1/auth/signup requests.
func (h AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "signup") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many attempts, try again later")
		return
	}

	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	if req.Email == "" || req.Password == "" || req.Username == "" {
		logger.Warn("signup missing fields", "email", req.Email)
		respondError(ctx, w, http.StatusBadRequest, "email, username and password are required")
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		logger.Warn("signup invalid email", "email", req.Email, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	if !usernamePattern.MatchString(req.Username) {
		logger.Warn("signup invalid username", "username", req.Username)
		respondError(ctx, w, http.StatusBadRequest, "username must be 3-30 lowercase letters, digits or underscores")
		return
	}

	if len(req.Password) < 8 {
		logger.Warn("signup password too short", "email", req.Email)
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	userType := models.UserType(strings.ToUpper(strings.TrimSpace(req.UserType)))
	switch userType {
	case "":
		userType = models.UserTypeBrowser
	case models.UserTypeCreator, models.UserTypeCollector, models.UserTypeBrowser:
	default:
		respondError(ctx, w, http.StatusBadRequest, "userType must be CREATOR, COLLECTOR or BROWSER")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("signup failed to hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = req.Username
	}

	now := h.now()
	user := models.User{
		ID:               uuid.NewString(),
		Email:            req.Email,
		Username:         req.Username,
		DisplayName:      displayName,
		Password:         string(hashed),
		Type:             userType,
		SubscriptionTier: models.TierFree,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			logger.Warn("signup conflict", "email", req.Email, "username", req.Username)
			respondError(ctx, w, http.StatusConflict, "an account with that email or username already exists")
			return
		}
		logger.Error("signup failed to create user", "error", err, "email", req.Email)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		logger.Error("signup failed to issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, authResponse{Tokens: tokens, User: publicUser(user)})
}

// Refresh exchanges a refresh token for a new session.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid refresh payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.RefreshToken = strings.TrimSpace(req.RefreshToken)
	if req.RefreshToken == "" {
		logger.Warn("missing refresh token")
		respondError(ctx, w, http.StatusBadRequest, "refresh token is required")
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, auth.ErrRefreshTokenExpired) || errors.Is(err, auth.ErrSessionNotFound) {
			status = http.StatusUnauthorized
		}
		logger.Warn("refresh failed", "error", err, "status", status)
		respondError(ctx, w, status, "unable to refresh session")
		return
	}

	respondJSON(ctx, w, http.StatusOK, authResponse{Tokens: tokens})
}

// Logout revokes the caller's refresh token.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.Sessions.Revoke(ctx, strings.TrimSpace(req.RefreshToken))
	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "logged out"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
	UserType    string `json:"userType"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	Tokens models.SessionTokens `json:"tokens"`
	User   *userPayload         `json:"user,omitempty"`
}

// userPayload is the public projection of an account, shared by auth
// and profile responses.
type userPayload struct {
	ID               string `json:"id"`
	Email            string `json:"email,omitempty"`
	Username         string `json:"username"`
	DisplayName      string `json:"displayName"`
	Avatar           string `json:"avatar,omitempty"`
	Bio              string `json:"bio,omitempty"`
	UserType         string `json:"userType"`
	SubscriptionTier string `json:"subscriptionTier"`
	IsVerified       bool   `json:"isVerified"`
}

func publicUser(user models.User) *userPayload {
	return &userPayload{
		ID:               user.ID,
		Email:            user.Email,
		Username:         user.Username,
		DisplayName:      user.DisplayName,
		Avatar:           user.Avatar,
		Bio:              user.Bio,
		UserType:         string(user.Type),
		SubscriptionTier: string(user.SubscriptionTier),
		IsVerified:       user.IsVerified,
	}
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
