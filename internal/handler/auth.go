package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/prismai/prismai/internal/auth"
	"github.com/prismai/prismai/internal/metrics"
	"github.com/prismai/prismai/internal/model"
	"github.com/prismai/prismai/internal/repository"
	"github.com/prismai/prismai/internal/token"
)

// UserStore is the subset of the repository used by auth handlers.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	SetLastLogin(ctx context.Context, id string, at time.Time) error
	CountUsers(ctx context.Context) (int, error)
}

// UsageReader reads today's usage counts for the profile endpoint.
type UsageReader interface {
	CountUsageTodayAll(ctx context.Context, userID string) (map[string]int, error)
}

// TokenIssuer mints and verifies token pairs.
type TokenIssuer interface {
	IssueAccessToken(userID, tier string) (string, error)
	IssueRefreshToken(userID string) (string, error)
	DecodeRefresh(tokenStr string) (*token.RefreshClaims, error)
}

// AuthHandler handles registration, login, token refresh, and the profile.
type AuthHandler struct {
	users   UserStore
	usage   UsageReader
	tokens  TokenIssuer
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users UserStore, usage UsageReader, tokens TokenIssuer, rec metrics.Recorder, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:   users,
		usage:   usage,
		tokens:  tokens,
		metrics: rec,
		logger:  logger,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /auth/register.
// The first account ever created becomes the admin.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if len(req.Name) < 2 {
		writeError(w, http.StatusBadRequest, "INVALID_NAME", "Name must be at least 2 characters")
		return
	}
	if !isValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "INVALID_EMAIL", "A valid email address is required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "INVALID_PASSWORD", "Password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("password hashing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Registration failed")
		return
	}

	role := model.RoleUser
	count, err := h.users.CountUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Service temporarily unavailable")
		return
	}
	if count == 0 {
		role = model.RoleAdmin
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         role,
		Tier:         model.TierFree,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := h.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			writeError(w, http.StatusBadRequest, "EMAIL_EXISTS", "Email already registered")
			return
		}
		h.logger.Error("user creation failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Service temporarily unavailable")
		return
	}

	h.logger.Info("user registered",
		"user_id", user.ID,
		"role", user.Role,
	)

	tokens, err := h.issueTokenPair(user)
	if err != nil {
		h.logger.Error("token issuance failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"token_type":    tokens.TokenType,
		"user":          user.ToResponse(),
	})
}

// Login handles POST /auth/login. The body is form-encoded with username
// and password fields, OAuth2 password-flow style; username carries the email.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Invalid form body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.PostFormValue("username")))
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		h.loginRejected(w, r, "missing credentials")
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			h.loginRejected(w, r, "unknown email")
			return
		}
		writeError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Service temporarily unavailable")
		return
	}

	match, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !match {
		h.loginRejected(w, r, "wrong password")
		return
	}
	if !user.IsActive {
		h.loginRejected(w, r, "inactive account")
		return
	}

	if err := h.users.SetLastLogin(r.Context(), user.ID, time.Now().UTC()); err != nil {
		h.logger.Warn("last login update failed", "user_id", user.ID, "error", err)
	}

	tokens, err := h.issueTokenPair(user)
	if err != nil {
		h.logger.Error("token issuance failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Login failed")
		return
	}

	h.metrics.IncAuthAttempt("success")
	h.logger.Info("user logged in", "user_id", user.ID, "tier", user.Tier)

	writeJSON(w, http.StatusOK, tokens)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /auth/refresh. A valid refresh token yields a fresh
// pair; the new access token carries the user's current tier, which is how
// admin tier changes take effect.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	claims, err := h.tokens.DecodeRefresh(req.RefreshToken)
	if err != nil {
		h.loginRejected(w, r, "invalid refresh token")
		return
	}

	user, err := h.users.GetUserByID(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			h.loginRejected(w, r, "unknown user on refresh")
			return
		}
		writeError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Service temporarily unavailable")
		return
	}
	if !user.IsActive {
		h.loginRejected(w, r, "inactive account on refresh")
		return
	}

	tokens, err := h.issueTokenPair(user)
	if err != nil {
		h.logger.Error("token issuance failed", "user_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Refresh failed")
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

// Me handles GET /auth/me. Usage counts are best-effort: a ledger outage
// degrades the profile to zero counts instead of failing the read.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Could not validate credentials")
		return
	}

	user, err := h.users.GetUserByID(r.Context(), authCtx.UserID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Service temporarily unavailable")
		return
	}

	counts, err := h.usage.CountUsageTodayAll(r.Context(), user.ID)
	if err != nil {
		h.logger.Warn("usage lookup failed, reporting zero counts", "user_id", user.ID, "error", err)
		counts = map[string]int{}
	}

	limits := model.LimitsForTier(authCtx.Tier)
	stats := model.UsageStats{
		Blogs: model.EndpointUsage{
			Generated: counts[model.EndpointBlog],
			Limit:     limits.DailyLimits[model.EndpointBlog],
		},
		VideoScripts: model.EndpointUsage{
			Generated: counts[model.EndpointVideoScript],
			Limit:     limits.DailyLimits[model.EndpointVideoScript],
		},
		Images: model.EndpointUsage{
			Generated: counts[model.EndpointImage],
			Limit:     limits.DailyLimits[model.EndpointImage],
		},
		Watermark: limits.Watermark,
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":  user.ToResponse(),
		"usage": stats,
	})
}

func (h *AuthHandler) issueTokenPair(user *model.User) (*tokenResponse, error) {
	access, err := h.tokens.IssueAccessToken(user.ID, user.Tier)
	if err != nil {
		return nil, err
	}
	refresh, err := h.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &tokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

// loginRejected writes the uniform credential failure response. The body
// never says which check failed.
func (h *AuthHandler) loginRejected(w http.ResponseWriter, r *http.Request, reason string) {
	h.metrics.IncAuthAttempt("failed")
	h.logger.Info("login rejected",
		"reason", reason,
		"path", r.URL.Path,
	)
	writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Incorrect email or password")
}

func isValidEmail(email string) bool {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}
