package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/prismai/prismai/internal/auth"
	"github.com/prismai/prismai/internal/generation"
	"github.com/prismai/prismai/internal/metrics"
	"github.com/prismai/prismai/internal/model"
)

// Generator is the content-generation collaborator. It is only invoked
// after the admission middleware has admitted the request.
type Generator interface {
	GenerateBlog(ctx context.Context, productName, tone string, wordCount int) (*generation.BlogResult, error)
	GenerateVideoScript(ctx context.Context, productName, tone string, durationMins int) (*generation.VideoScriptResult, error)
	GenerateImages(ctx context.Context, productName, style, platform string, seed int64, count int, watermark bool) (*generation.ImageResult, error)
}

// UsageWriter appends usage events and stored generation records.
type UsageWriter interface {
	RecordUsage(ctx context.Context, id, userID, endpoint string) error
	CreateGeneration(ctx context.Context, gen *model.Generation) error
}

// GenerateHandler handles the gated generation endpoints.
type GenerateHandler struct {
	generator Generator
	usage     UsageWriter
	metrics   metrics.Recorder
	logger    *slog.Logger
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(generator Generator, usage UsageWriter, rec metrics.Recorder, logger *slog.Logger) *GenerateHandler {
	return &GenerateHandler{
		generator: generator,
		usage:     usage,
		metrics:   rec,
		logger:    logger,
	}
}

type blogRequest struct {
	ProductName string `json:"product_name"`
	Tone        string `json:"tone"`
	WordCount   int    `json:"word_count"`
}

// Blog handles POST /generate-blog.
func (h *GenerateHandler) Blog(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Could not validate credentials")
		return
	}

	var req blogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if msg := validateProductName(req.ProductName); msg != "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", msg)
		return
	}
	if msg := validateTone(req.Tone); msg != "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", msg)
		return
	}
	if req.WordCount < 100 || req.WordCount > 5000 {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Word count must be between 100 and 5000")
		return
	}

	start := time.Now()
	result, err := h.generator.GenerateBlog(r.Context(), req.ProductName, req.Tone, req.WordCount)
	h.metrics.ObserveGenerationDuration(model.EndpointBlog, time.Since(start))
	if err != nil {
		h.generationFailed(w, model.EndpointBlog, authCtx.UserID, err)
		return
	}

	h.recordSuccess(r.Context(), authCtx.UserID, model.EndpointBlog, nil)
	writeJSON(w, http.StatusOK, result)
}

type videoRequest struct {
	ProductName string `json:"product_name"`
	Tone        string `json:"tone"`
	Duration    int    `json:"duration"`
}

// VideoScript handles POST /generate-video-script.
func (h *GenerateHandler) VideoScript(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Could not validate credentials")
		return
	}

	var req videoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if msg := validateProductName(req.ProductName); msg != "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", msg)
		return
	}
	if msg := validateTone(req.Tone); msg != "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", msg)
		return
	}
	if req.Duration < 1 || req.Duration > 30 {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Duration must be between 1 and 30 minutes")
		return
	}

	start := time.Now()
	result, err := h.generator.GenerateVideoScript(r.Context(), req.ProductName, req.Tone, req.Duration)
	h.metrics.ObserveGenerationDuration(model.EndpointVideoScript, time.Since(start))
	if err != nil {
		h.generationFailed(w, model.EndpointVideoScript, authCtx.UserID, err)
		return
	}

	h.recordSuccess(r.Context(), authCtx.UserID, model.EndpointVideoScript, nil)
	writeJSON(w, http.StatusOK, result)
}

type imageRequest struct {
	ProductName string `json:"product_name"`
	Style       string `json:"style"`
	Platform    string `json:"platform"`
	Seed        int64  `json:"seed"`
	N           int    `json:"n"`
}

// Image handles POST /generate-image. The batch size is capped by the
// caller's tier and the watermark flag is forced from the tier, never
// from the request.
func (h *GenerateHandler) Image(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Could not validate credentials")
		return
	}

	var req imageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if msg := validateProductName(req.ProductName); msg != "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", msg)
		return
	}
	if !generation.IsValidStyle(req.Style) {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Unknown visual style")
		return
	}
	if !generation.IsValidPlatform(req.Platform) {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Unknown target platform")
		return
	}
	if req.N < 0 || req.N > 4 {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Image count must be between 1 and 4")
		return
	}
	if req.N == 0 {
		req.N = 1
	}

	limits := model.LimitsForTier(authCtx.Tier)
	count := req.N
	if count > limits.ImageBatchMax {
		count = limits.ImageBatchMax
	}

	start := time.Now()
	result, err := h.generator.GenerateImages(
		r.Context(),
		req.ProductName,
		strings.ToLower(req.Style),
		strings.ToLower(req.Platform),
		req.Seed,
		count,
		limits.Watermark,
	)
	h.metrics.ObserveGenerationDuration(model.EndpointImage, time.Since(start))
	if err != nil {
		h.generationFailed(w, model.EndpointImage, authCtx.UserID, err)
		return
	}

	h.recordSuccess(r.Context(), authCtx.UserID, model.EndpointImage, result.URLs)
	writeJSON(w, http.StatusOK, result)
}

// recordSuccess appends the usage event after a successful generation.
// A ledger write failure is logged and the response still succeeds; the
// user gets the content they paid the quota slot for.
func (h *GenerateHandler) recordSuccess(ctx context.Context, userID, endpoint string, imageURLs []string) {
	h.metrics.IncGeneration(endpoint, "success")

	id := ulid.Make().String()
	if err := h.usage.RecordUsage(ctx, id, userID, endpoint); err != nil {
		h.metrics.IncUsageRecorded("dropped")
		h.logger.Error("usage record dropped",
			"user_id", userID,
			"endpoint", endpoint,
			"error", err,
		)
	} else {
		h.metrics.IncUsageRecorded("success")
	}

	if len(imageURLs) > 0 {
		gen := &model.Generation{
			ID:        ulid.Make().String(),
			UserID:    userID,
			Endpoint:  endpoint,
			ImageURLs: imageURLs,
			CreatedAt: time.Now().UTC(),
		}
		if err := h.usage.CreateGeneration(ctx, gen); err != nil {
			h.logger.Warn("generation record dropped", "user_id", userID, "error", err)
		}
	}
}

func (h *GenerateHandler) generationFailed(w http.ResponseWriter, endpoint, userID string, err error) {
	h.metrics.IncGeneration(endpoint, "failed")
	h.logger.Error("generation failed",
		"endpoint", endpoint,
		"user_id", userID,
		"error", err,
	)
	writeError(w, http.StatusBadGateway, "GENERATION_FAILED", "Content generation failed, no quota was consumed")
}

func validateProductName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Product name is required"
	}
	if len(name) > 100 {
		return "Product name must be at most 100 characters"
	}
	return ""
}

func validateTone(tone string) string {
	tone = strings.TrimSpace(tone)
	if tone == "" {
		return "Tone is required"
	}
	if len(tone) > 50 {
		return "Tone must be at most 50 characters"
	}
	return ""
}
