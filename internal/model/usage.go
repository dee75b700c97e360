package model

import "time"

// UsageEvent records one successful call to a gated generation endpoint.
// Events are append-only; the count of a user's events for an endpoint on
// the current calendar day is the authoritative usage for quota checks.
type UsageEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	CreatedAt time.Time `json:"created_at"`
}

// Generation records the stored output references of one successful
// image generation call.
type Generation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	ImageURLs []string  `json:"image_urls"`
	CreatedAt time.Time `json:"created_at"`
}

// EndpointUsage pairs today's usage with the tier limit for one endpoint.
// Limit is Unlimited (-1) when no quota applies.
type EndpointUsage struct {
	Generated int `json:"generated"`
	Limit     int `json:"limit"`
}

// UsageStats enumerates per-endpoint usage for the /auth/me response.
type UsageStats struct {
	Blogs        EndpointUsage `json:"blogs"`
	VideoScripts EndpointUsage `json:"video_scripts"`
	Images       EndpointUsage `json:"images"`
	Watermark    bool          `json:"watermark"`
}
