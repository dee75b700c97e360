package handler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prismai/prismai/internal/generation"
	"github.com/prismai/prismai/internal/model"
	"github.com/prismai/prismai/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore is an in-memory stand-in for the repository.
type fakeStore struct {
	mu          sync.Mutex
	users       map[string]*model.User // by ID
	usage       map[string]int         // "userID/endpoint" today
	usageErr    error
	countErr    error
	generations []*model.Generation
	recordErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[string]*model.User),
		usage: make(map[string]int),
	}
}

func (s *fakeStore) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (s *fakeStore) SetLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (s *fakeStore) CountUsers(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), nil
}

func (s *fakeStore) ListUsers(_ context.Context) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (s *fakeStore) UpdateUser(_ context.Context, id, tier, role string, isActive bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Tier = tier
	u.Role = role
	u.IsActive = isActive
	return nil
}

func (s *fakeStore) RecordUsage(_ context.Context, _, userID, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr != nil {
		return s.recordErr
	}
	s.usage[userID+"/"+endpoint]++
	return nil
}

func (s *fakeStore) CountUsageToday(_ context.Context, userID, endpoint string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countErr != nil {
		return 0, s.countErr
	}
	return s.usage[userID+"/"+endpoint], nil
}

func (s *fakeStore) CountUsageTodayAll(_ context.Context, userID string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usageErr != nil {
		return nil, s.usageErr
	}
	out := make(map[string]int)
	for _, ep := range model.GatedEndpoints {
		if n := s.usage[userID+"/"+ep]; n > 0 {
			out[ep] = n
		}
	}
	return out, nil
}

func (s *fakeStore) CountUsageTotals(_ context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int)
	for key, n := range s.usage {
		for _, ep := range model.GatedEndpoints {
			if strings.HasSuffix(key, "/"+ep) {
				out[ep] += n
			}
		}
	}
	return out, nil
}

func (s *fakeStore) CreateGeneration(_ context.Context, gen *model.Generation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations = append(s.generations, gen)
	return nil
}

func (s *fakeStore) usageCount(userID, endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage[userID+"/"+endpoint]
}

func (s *fakeStore) mustUser(t *testing.T, id string) *model.User {
	t.Helper()
	u, err := s.GetUserByID(context.Background(), id)
	if err != nil {
		t.Fatalf("user %s: %v", id, err)
	}
	return u
}

// fakeGenerator returns canned results or a configured error.
type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	err   error
	// lastImageCall captures the arguments of the most recent image request.
	lastImageCall struct {
		count     int
		watermark bool
	}
}

func (g *fakeGenerator) GenerateBlog(_ context.Context, productName, tone string, wordCount int) (*generation.BlogResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &generation.BlogResult{
		Content:     "Title:\n" + productName,
		ProductName: productName,
		Tone:        tone,
		WordCount:   wordCount,
	}, nil
}

func (g *fakeGenerator) GenerateVideoScript(_ context.Context, productName, tone string, durationMins int) (*generation.VideoScriptResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &generation.VideoScriptResult{
		Script:       "Hook: " + productName,
		ProductName:  productName,
		Tone:         tone,
		DurationMins: durationMins,
	}, nil
}

func (g *fakeGenerator) GenerateImages(_ context.Context, productName, style, platform string, _ int64, count int, watermark bool) (*generation.ImageResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastImageCall.count = count
	g.lastImageCall.watermark = watermark
	if g.err != nil {
		return nil, g.err
	}
	urls := make([]string, count)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://cdn.example.com/%d.png", i)
	}
	return &generation.ImageResult{
		URLs:        urls,
		ImagePrompt: "prompt",
		ProductName: productName,
		Style:       style,
		Platform:    platform,
		Watermark:   watermark,
	}, nil
}
