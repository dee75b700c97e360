package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prismai/prismai/internal/auth"
	"github.com/prismai/prismai/internal/metrics"
	"github.com/prismai/prismai/internal/model"
)

func newGenerateHandler(store *fakeStore, gen *fakeGenerator) *GenerateHandler {
	return NewGenerateHandler(gen, store, metrics.NewNoop(), testLogger())
}

func authedRequest(method, path, body string, authCtx *model.AuthContext) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if authCtx != nil {
		req = req.WithContext(auth.ContextWithAuth(req.Context(), authCtx))
	}
	return req
}

func freeUser() *model.AuthContext {
	return &model.AuthContext{UserID: "user-1", Role: model.RoleUser, Tier: model.TierFree}
}

func TestBlog_SuccessRecordsUsage(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{}
	h := newGenerateHandler(store, gen)

	req := authedRequest(http.MethodPost, "/generate-blog",
		`{"product_name":"Gadget","tone":"Professional","word_count":500}`, freeUser())
	rec := httptest.NewRecorder()
	h.Blog(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	if got := store.usageCount("user-1", model.EndpointBlog); got != 1 {
		t.Errorf("usage events: want 1, got %d", got)
	}
}

func TestBlog_FailureConsumesNoQuota(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{err: errors.New("upstream down")}
	h := newGenerateHandler(store, gen)

	req := authedRequest(http.MethodPost, "/generate-blog",
		`{"product_name":"Gadget","tone":"Professional","word_count":500}`, freeUser())
	rec := httptest.NewRecorder()
	h.Blog(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("want 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "GENERATION_FAILED") {
		t.Errorf("missing error code: %s", rec.Body.String())
	}
	if got := store.usageCount("user-1", model.EndpointBlog); got != 0 {
		t.Errorf("failed generation recorded usage: %d", got)
	}
}

// A ledger write failure after a successful generation still returns the
// content to the caller.
func TestBlog_RecordFailureStillSucceeds(t *testing.T) {
	store := newFakeStore()
	store.recordErr = errors.New("ledger down")
	gen := &fakeGenerator{}
	h := newGenerateHandler(store, gen)

	req := authedRequest(http.MethodPost, "/generate-blog",
		`{"product_name":"Gadget","tone":"Casual","word_count":300}`, freeUser())
	rec := httptest.NewRecorder()
	h.Blog(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 despite ledger failure, got %d", rec.Code)
	}
}

func TestBlog_Validation(t *testing.T) {
	store := newFakeStore()
	h := newGenerateHandler(store, &fakeGenerator{})

	bodies := []string{
		`{"tone":"Casual","word_count":500}`,
		`{"product_name":"Gadget","word_count":500}`,
		`{"product_name":"Gadget","tone":"Casual","word_count":50}`,
		`{"product_name":"Gadget","tone":"Casual","word_count":9000}`,
		`not json`,
	}
	for _, body := range bodies {
		req := authedRequest(http.MethodPost, "/generate-blog", body, freeUser())
		rec := httptest.NewRecorder()
		h.Blog(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: want 400, got %d", body, rec.Code)
		}
	}
}

func TestVideoScript(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{}
	h := newGenerateHandler(store, gen)

	req := authedRequest(http.MethodPost, "/generate-video-script",
		`{"product_name":"Gadget","tone":"Energetic","duration":5}`, freeUser())
	rec := httptest.NewRecorder()
	h.VideoScript(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	if got := store.usageCount("user-1", model.EndpointVideoScript); got != 1 {
		t.Errorf("usage events: want 1, got %d", got)
	}

	req = authedRequest(http.MethodPost, "/generate-video-script",
		`{"product_name":"Gadget","tone":"Energetic","duration":31}`, freeUser())
	rec = httptest.NewRecorder()
	h.VideoScript(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duration 31: want 400, got %d", rec.Code)
	}
}

func TestImage_BatchCappedByTier(t *testing.T) {
	tests := []struct {
		tier      string
		requested int
		wantCount int
		wantMark  bool
	}{
		{model.TierFree, 4, 1, true},
		{model.TierPro, 4, 4, false},
		{model.TierBusiness, 3, 3, false},
		{"unknown-tier", 4, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.tier, func(t *testing.T) {
			store := newFakeStore()
			gen := &fakeGenerator{}
			h := newGenerateHandler(store, gen)

			authCtx := &model.AuthContext{UserID: "user-1", Role: model.RoleUser, Tier: tt.tier}
			body := fmt.Sprintf(`{"product_name":"Gadget","style":"neon","platform":"instagram","n":%d}`, tt.requested)
			req := authedRequest(http.MethodPost, "/generate-image", body, authCtx)
			rec := httptest.NewRecorder()
			h.Image(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
			}
			if gen.lastImageCall.count != tt.wantCount {
				t.Errorf("batch size: want %d, got %d", tt.wantCount, gen.lastImageCall.count)
			}
			if gen.lastImageCall.watermark != tt.wantMark {
				t.Errorf("watermark: want %v, got %v", tt.wantMark, gen.lastImageCall.watermark)
			}
		})
	}
}

func TestImage_WatermarkCannotBeDisabledByRequest(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{}
	h := newGenerateHandler(store, gen)

	// The request has no watermark field; even if a client sends one it is
	// ignored by the decoder.
	body := `{"product_name":"Gadget","style":"neon","platform":"twitter","n":1,"watermark":false}`
	req := authedRequest(http.MethodPost, "/generate-image", body, freeUser())
	rec := httptest.NewRecorder()
	h.Image(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !gen.lastImageCall.watermark {
		t.Error("free tier watermark was disabled by request body")
	}
}

func TestImage_StoresGenerationRecord(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGenerator{}
	h := newGenerateHandler(store, gen)

	req := authedRequest(http.MethodPost, "/generate-image",
		`{"product_name":"Gadget","style":"retro","platform":"youtube","n":1}`, freeUser())
	rec := httptest.NewRecorder()
	h.Image(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if len(store.generations) != 1 {
		t.Fatalf("generation records: want 1, got %d", len(store.generations))
	}
	if len(store.generations[0].ImageURLs) != 1 {
		t.Errorf("stored URLs: %v", store.generations[0].ImageURLs)
	}

	var resp struct {
		URLs []string `json:"image_urls"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.URLs) != 1 {
		t.Errorf("response URLs: %v", resp.URLs)
	}
}

func TestImage_Validation(t *testing.T) {
	store := newFakeStore()
	h := newGenerateHandler(store, &fakeGenerator{})

	bodies := []string{
		`{"product_name":"Gadget","style":"cubist","platform":"instagram","n":1}`,
		`{"product_name":"Gadget","style":"neon","platform":"myspace","n":1}`,
		`{"product_name":"Gadget","style":"neon","platform":"instagram","n":5}`,
		`{"style":"neon","platform":"instagram","n":1}`,
	}
	for _, body := range bodies {
		req := authedRequest(http.MethodPost, "/generate-image", body, freeUser())
		rec := httptest.NewRecorder()
		h.Image(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: want 400, got %d", body, rec.Code)
		}
	}
}

func TestGenerate_NoAuthContext(t *testing.T) {
	store := newFakeStore()
	h := newGenerateHandler(store, &fakeGenerator{})

	req := authedRequest(http.MethodPost, "/generate-blog",
		`{"product_name":"Gadget","tone":"Casual","word_count":500}`, nil)
	rec := httptest.NewRecorder()
	h.Blog(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("want 401, got %d", rec.Code)
	}
}
