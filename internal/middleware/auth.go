package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prismai/prismai/internal/auth"
	"github.com/prismai/prismai/internal/model"
	"github.com/prismai/prismai/internal/repository"
	"github.com/prismai/prismai/internal/token"
)

// TokenDecoder verifies an access token and returns its claims.
type TokenDecoder interface {
	DecodeAccess(tokenStr string) (*token.AccessClaims, error)
}

// UserLoader resolves a user record by ID.
type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger *slog.Logger
	Tokens TokenDecoder
	Users  UserLoader
}

// Auth returns a middleware that authenticates API requests.
// It extracts the bearer token from the Authorization header, verifies its
// signature and expiry, confirms the subject still exists and is active,
// and injects the auth context into the request.
//
// Every failure mode - missing token, bad signature, expiry, unknown or
// deactivated user - produces the same 401 body so callers cannot probe
// which case occurred. The tier placed in the auth context is the token's
// claim, not the current database value.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := extractBearerToken(r)
			if tokenStr == "" {
				logAuthFailure(cfg.Logger, r, "missing_token")
				writeAuthError(w)
				return
			}

			claims, err := cfg.Tokens.DecodeAccess(tokenStr)
			if err != nil {
				logAuthFailure(cfg.Logger, r, "invalid_token")
				writeAuthError(w)
				return
			}

			user, err := cfg.Users.GetUserByID(r.Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					logAuthFailure(cfg.Logger, r, "unknown_user")
					writeAuthError(w)
					return
				}
				cfg.Logger.Error("store error during auth",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeStoreError(w)
				return
			}

			if !user.IsActive {
				logAuthFailure(cfg.Logger, r, "inactive_user")
				writeAuthError(w)
				return
			}

			authCtx := &model.AuthContext{
				UserID: user.ID,
				Email:  user.Email,
				Role:   user.Role,
				Tier:   claims.Tier,
			}

			cfg.Logger.Info("authentication successful",
				slog.String("user_id", authCtx.UserID),
				slog.String("tier", authCtx.Tier),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken extracts the bearer token from the Authorization header.
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Could not validate credentials"}}`))
}

// writeStoreError writes a 503 response for persistence-layer failures.
func writeStoreError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte(`{"error":{"code":"STORE_UNAVAILABLE","message":"Service temporarily unavailable"}}`))
}
