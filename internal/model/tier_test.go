package model

import "testing"

func TestLimitsForTier(t *testing.T) {
	testCases := []struct {
		name          string
		tier          string
		wantBlogLimit int
		wantBatchMax  int
		wantWatermark bool
	}{
		{
			name:          "free tier",
			tier:          TierFree,
			wantBlogLimit: 3,
			wantBatchMax:  1,
			wantWatermark: true,
		},
		{
			name:          "pro tier",
			tier:          TierPro,
			wantBlogLimit: 50,
			wantBatchMax:  4,
			wantWatermark: false,
		},
		{
			name:          "business tier is unlimited",
			tier:          TierBusiness,
			wantBlogLimit: Unlimited,
			wantBatchMax:  4,
			wantWatermark: false,
		},
		{
			name:          "unknown tier falls back to free",
			tier:          "enterprise",
			wantBlogLimit: 3,
			wantBatchMax:  1,
			wantWatermark: true,
		},
		{
			name:          "empty tier falls back to free",
			tier:          "",
			wantBlogLimit: 3,
			wantBatchMax:  1,
			wantWatermark: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			limits := LimitsForTier(tc.tier)
			if got := limits.DailyLimits[EndpointBlog]; got != tc.wantBlogLimit {
				t.Errorf("blog limit = %d, want %d", got, tc.wantBlogLimit)
			}
			if limits.ImageBatchMax != tc.wantBatchMax {
				t.Errorf("ImageBatchMax = %d, want %d", limits.ImageBatchMax, tc.wantBatchMax)
			}
			if limits.Watermark != tc.wantWatermark {
				t.Errorf("Watermark = %v, want %v", limits.Watermark, tc.wantWatermark)
			}
		})
	}
}

func TestDailyLimit(t *testing.T) {
	if got := DailyLimit(TierFree, EndpointImage); got != 2 {
		t.Errorf("free image limit = %d, want 2", got)
	}
	if got := DailyLimit(TierBusiness, EndpointVideoScript); got != Unlimited {
		t.Errorf("business video limit = %d, want Unlimited", got)
	}
	if got := DailyLimit("bogus", EndpointBlog); got != 3 {
		t.Errorf("unknown tier blog limit = %d, want 3", got)
	}
}

func TestEveryTierCoversEveryGatedEndpoint(t *testing.T) {
	for _, tier := range ValidTiers {
		limits := LimitsForTier(tier)
		for _, endpoint := range GatedEndpoints {
			if _, ok := limits.DailyLimits[endpoint]; !ok {
				t.Errorf("tier %s has no limit entry for %s", tier, endpoint)
			}
		}
	}
}

func TestIsGatedEndpoint(t *testing.T) {
	if !IsGatedEndpoint(EndpointBlog) {
		t.Error("generate-blog should be gated")
	}
	if IsGatedEndpoint("auth/login") {
		t.Error("auth/login should not be gated")
	}
}
