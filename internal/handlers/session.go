package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/synthera/backend/internal/auth"
	"github.com/synthera/backend/internal/logging"
	"github.com/synthera/backend/internal/models"
)

// authenticate resolves the bearer token on a request to the owning
// user. On failure it writes the 401 response and returns false.
func authenticate(w http.ResponseWriter, r *http.Request, sessions SessionManager, users UserStore) (models.User, bool) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	token := bearerToken(r)
	if token == "" {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return models.User{}, false
	}

	userID, err := sessions.Validate(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrSessionNotFound) || errors.Is(err, auth.ErrAccessTokenExpired) {
			respondError(ctx, w, http.StatusUnauthorized, "invalid or expired session")
			return models.User{}, false
		}
		logger.Error("session validation failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to verify session")
		return models.User{}, false
	}

	user, err := users.FindByID(ctx, userID)
	if err != nil {
		logger.Error("session user lookup failed", "userId", userID, "error", err)
		respondError(ctx, w, http.StatusUnauthorized, "invalid or expired session")
		return models.User{}, false
	}

	return user, true
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
