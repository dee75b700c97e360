package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	imageTimeout = 120 * time.Second
	// maxImageBytes caps a single rendered image download.
	maxImageBytes = 24 << 20
)

// ImageClient calls a text-to-image inference API that returns raw image
// bytes on success and a JSON error body on failure.
type ImageClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewImageClient creates an ImageClient for the given inference endpoint.
func NewImageClient(apiKey, baseURL, model string, logger *slog.Logger) *ImageClient {
	return &ImageClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: imageTimeout,
		},
		logger: logger.With("component", "generation.image"),
	}
}

type imageParameters struct {
	Width     int   `json:"width"`
	Height    int   `json:"height"`
	Seed      int64 `json:"seed,omitempty"`
	Watermark bool  `json:"watermark"`
}

type imageRequest struct {
	Inputs     string          `json:"inputs"`
	Parameters imageParameters `json:"parameters"`
}

// Render generates a single image for the prompt and returns the PNG bytes.
// A seed of zero lets the backend pick one.
func (c *ImageClient) Render(ctx context.Context, prompt string, width, height int, seed int64, watermark bool) ([]byte, error) {
	payload := imageRequest{
		Inputs: prompt,
		Parameters: imageParameters{
			Width:     width,
			Height:    height,
			Seed:      seed,
			Watermark: watermark,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal image request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/models/"+c.model, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image render call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("image render failed",
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(snippet)),
		)
		return nil, fmt.Errorf("image render returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image bytes: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image render returned empty body")
	}

	c.logger.Info("image rendered",
		slog.String("model", c.model),
		slog.Int("bytes", len(data)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return data, nil
}
