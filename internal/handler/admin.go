package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prismai/prismai/internal/model"
	"github.com/prismai/prismai/internal/repository"
)

// AdminStore is the subset of the repository used by admin handlers.
type AdminStore interface {
	ListUsers(ctx context.Context) ([]*model.User, error)
	UpdateUser(ctx context.Context, id, tier, role string, isActive bool) error
	CountUsers(ctx context.Context) (int, error)
	CountUsageTotals(ctx context.Context) (map[string]int, error)
}

// AdminHandler handles the admin-only management endpoints. Route-level
// role enforcement happens in middleware; these handlers assume an admin.
type AdminHandler struct {
	store  AdminStore
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(store AdminStore, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		store:  store,
		logger: logger,
	}
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("user listing failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Service temporarily unavailable")
		return
	}

	responses := make([]model.AdminUserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, u.ToAdminResponse())
	}
	writeJSON(w, http.StatusOK, responses)
}

// Stats handles GET /admin/stats with platform-wide all-time totals.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userCount, err := h.store.CountUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Service temporarily unavailable")
		return
	}
	totals, err := h.store.CountUsageTotals(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Service temporarily unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"total_users":  userCount,
		"total_blogs":  totals[model.EndpointBlog],
		"total_videos": totals[model.EndpointVideoScript],
		"total_images": totals[model.EndpointImage],
	})
}

type updateUserRequest struct {
	Tier     string `json:"tier"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// UpdateUser handles PUT /admin/users/{id}. A tier change does not touch
// outstanding access tokens; the user picks it up on their next login or
// refresh.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "User ID is required")
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if !model.IsValidTier(req.Tier) {
		writeError(w, http.StatusBadRequest, "INVALID_TIER", "Invalid tier")
		return
	}
	if !model.IsValidRole(req.Role) {
		writeError(w, http.StatusBadRequest, "INVALID_ROLE", "Invalid role")
		return
	}

	if err := h.store.UpdateUser(r.Context(), id, req.Tier, req.Role, req.IsActive); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
			return
		}
		h.logger.Error("user update failed", "user_id", id, "error", err)
		writeError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Service temporarily unavailable")
		return
	}

	h.logger.Info("user updated",
		"user_id", id,
		"tier", req.Tier,
		"role", req.Role,
		"is_active", req.IsActive,
	)

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "User updated successfully",
	})
}
