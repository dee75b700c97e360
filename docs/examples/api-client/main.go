// Prism AI API Client Example
//
// This is a minimal example of authenticating against a Prism AI
// instance and generating a blog post.
//
// Usage:
//   export PRISM_BASE_URL="http://localhost:8000"
//   export PRISM_EMAIL="you@example.com"
//   export PRISM_PASSWORD="your-password"
//   go run main.go

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// TokenPair is the response from /auth/login and /auth/refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// BlogResult is the response from /generate-blog
type BlogResult struct {
	Content     string `json:"content"`
	ProductName string `json:"product_name"`
	Tone        string `json:"tone"`
	WordCount   int    `json:"word_count"`
	Model       string `json:"model"`
}

// APIError is the uniform error envelope
type APIError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Tier    string `json:"tier,omitempty"`
		Limit   int    `json:"limit,omitempty"`
	} `json:"error"`
}

func main() {
	baseURL := envOrDefault("PRISM_BASE_URL", "http://localhost:8000")
	email := os.Getenv("PRISM_EMAIL")
	password := os.Getenv("PRISM_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("PRISM_EMAIL and PRISM_PASSWORD environment variables are required")
	}

	client := &http.Client{Timeout: 60 * time.Second}

	tokens, err := login(client, baseURL, email, password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	log.Println("✓ Authenticated")

	blog, err := generateBlog(client, baseURL, tokens.AccessToken, "Aurora Standing Desk", "enthusiastic", 600)
	if err != nil {
		log.Fatalf("generation failed: %v", err)
	}

	log.Printf("✓ Generated %d-word blog post with %s", blog.WordCount, blog.Model)
	fmt.Println()
	fmt.Println(blog.Content)
}

func login(client *http.Client, baseURL, email, password string) (*TokenPair, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	resp, err := client.Post(baseURL+"/auth/login", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var tokens TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

func generateBlog(client *http.Client, baseURL, accessToken, productName, tone string, wordCount int) (*BlogResult, error) {
	payload, err := json.Marshal(map[string]any{
		"product_name": productName,
		"tone":         tone,
		"word_count":   wordCount,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/generate-blog", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		apiErr := decodeError(resp)
		return nil, fmt.Errorf("daily quota exhausted, resets at midnight UTC: %w", apiErr)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var blog BlogResult
	if err := json.NewDecoder(resp.Body).Decode(&blog); err != nil {
		return nil, err
	}
	return &blog, nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Code != "" {
		return fmt.Errorf("%s: %s (HTTP %d)", apiErr.Error.Code, apiErr.Error.Message, resp.StatusCode)
	}
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
