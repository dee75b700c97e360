package model

import "slices"

// Tier constants for subscription levels.
const (
	TierFree     = "free"
	TierPro      = "pro"
	TierBusiness = "business"
)

// ValidTiers contains all valid tier values.
var ValidTiers = []string{TierFree, TierPro, TierBusiness}

// Gated generation endpoint names. These double as usage ledger keys.
const (
	EndpointBlog        = "generate-blog"
	EndpointVideoScript = "generate-video-script"
	EndpointImage       = "generate-image"
)

// GatedEndpoints lists every quota-gated endpoint.
var GatedEndpoints = []string{EndpointBlog, EndpointVideoScript, EndpointImage}

// Unlimited is the sentinel daily limit meaning no quota applies.
const Unlimited = -1

// TierLimits defines daily quotas and feature flags for a tier.
type TierLimits struct {
	DailyLimits   map[string]int // endpoint name -> calls per calendar day
	ImageBatchMax int            // max images per single request
	Watermark     bool           // watermark forced on generated images
}

// tierTable maps tier names to their limits. Every tier defines an entry
// for every gated endpoint.
var tierTable = map[string]TierLimits{
	TierFree: {
		DailyLimits: map[string]int{
			EndpointBlog:        3,
			EndpointVideoScript: 3,
			EndpointImage:       2,
		},
		ImageBatchMax: 1,
		Watermark:     true,
	},
	TierPro: {
		DailyLimits: map[string]int{
			EndpointBlog:        50,
			EndpointVideoScript: 50,
			EndpointImage:       30,
		},
		ImageBatchMax: 4,
		Watermark:     false,
	},
	TierBusiness: {
		DailyLimits: map[string]int{
			EndpointBlog:        Unlimited,
			EndpointVideoScript: Unlimited,
			EndpointImage:       Unlimited,
		},
		ImageBatchMax: 4,
		Watermark:     false,
	},
}

// LimitsForTier returns the limit row for a tier.
// Unrecognized tiers fall back to the free row.
func LimitsForTier(tier string) TierLimits {
	if limits, ok := tierTable[tier]; ok {
		return limits
	}
	return tierTable[TierFree]
}

// DailyLimit returns the daily quota for an endpoint under a tier.
// Returns Unlimited when no quota applies.
func DailyLimit(tier, endpoint string) int {
	limits := LimitsForTier(tier)
	if limit, ok := limits.DailyLimits[endpoint]; ok {
		return limit
	}
	return Unlimited
}

// IsGatedEndpoint reports whether name is a known quota-gated endpoint.
func IsGatedEndpoint(name string) bool {
	return slices.Contains(GatedEndpoints, name)
}

// IsValidTier reports whether tier is a known subscription level.
func IsValidTier(tier string) bool {
	return slices.Contains(ValidTiers, tier)
}

// IsValidRole reports whether role is a known role.
func IsValidRole(role string) bool {
	return slices.Contains(ValidRoles, role)
}
