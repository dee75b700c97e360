package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/prismai/prismai/internal/auth"
	"github.com/prismai/prismai/internal/model"
	"github.com/prismai/prismai/internal/repository"
)

type output struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Tier     string `json:"tier"`
}

// Seeds an admin account directly in the database, for deployments where
// the first-registered-user-becomes-admin rule is not convenient.
func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		email       = flag.String("email", "admin@prism.local", "Admin email")
		name        = flag.String("name", "Administrator", "Admin display name")
		password    = flag.String("password", "", "Admin password (generated if empty)")
		tier        = flag.String("tier", model.TierBusiness, "Subscription tier (free, pro, business)")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if !model.IsValidTier(*tier) {
		fmt.Fprintln(os.Stderr, "invalid tier; use free, pro, or business")
		os.Exit(1)
	}

	pw := *password
	generated := false
	if pw == "" {
		var err error
		pw, err = randomPassword()
		if err != nil {
			fmt.Fprintln(os.Stderr, "generate password:", err)
			os.Exit(1)
		}
		generated = true
	}

	hash, err := auth.HashPassword(pw)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash password:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        strings.ToLower(strings.TrimSpace(*email)),
		Name:         *name,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		Tier:         *tier,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := repo.CreateUser(ctx, user); err != nil {
		fmt.Fprintln(os.Stderr, "create admin user:", err)
		os.Exit(1)
	}

	out := output{
		UserID: user.ID,
		Email:  user.Email,
		Tier:   user.Tier,
	}
	if generated {
		out.Password = pw
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println("created admin", out.Email, "id", out.UserID)
		if generated {
			fmt.Println("password:", out.Password)
		}
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

func randomPassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
