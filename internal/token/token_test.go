package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-signing-secret"

func newTestMaker() *Maker {
	return NewMaker(testSecret, 30*time.Minute, 7*24*time.Hour)
}

func TestMaker_AccessRoundTrip(t *testing.T) {
	m := newTestMaker()

	tokenStr, err := m.IssueAccessToken("user-123", "pro")
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}

	claims, err := m.DecodeAccess(tokenStr)
	if err != nil {
		t.Fatalf("decode access token: %v", err)
	}

	if claims.Subject != "user-123" {
		t.Errorf("subject = %s, want user-123", claims.Subject)
	}
	if claims.Tier != "pro" {
		t.Errorf("tier = %s, want pro", claims.Tier)
	}
}

func TestMaker_RefreshRoundTrip(t *testing.T) {
	m := newTestMaker()

	tokenStr, err := m.IssueRefreshToken("user-123")
	if err != nil {
		t.Fatalf("issue refresh token: %v", err)
	}

	claims, err := m.DecodeRefresh(tokenStr)
	if err != nil {
		t.Fatalf("decode refresh token: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Errorf("subject = %s, want user-123", claims.Subject)
	}
}

func TestMaker_RefreshTokenRejectedAsAccess(t *testing.T) {
	m := newTestMaker()

	tokenStr, err := m.IssueRefreshToken("user-123")
	if err != nil {
		t.Fatalf("issue refresh token: %v", err)
	}

	if _, err := m.DecodeAccess(tokenStr); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestMaker_ExpiredToken(t *testing.T) {
	m := NewMaker(testSecret, -time.Minute, 7*24*time.Hour)

	tokenStr, err := m.IssueAccessToken("user-123", "free")
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}

	if _, err := m.DecodeAccess(tokenStr); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestMaker_TamperedSignature(t *testing.T) {
	m := newTestMaker()

	tokenStr, err := m.IssueAccessToken("user-123", "free")
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}

	// Flip a character in the signature segment.
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token format")
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := m.DecodeAccess(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestMaker_WrongSecret(t *testing.T) {
	m := newTestMaker()
	other := NewMaker("different-secret", 30*time.Minute, 7*24*time.Hour)

	tokenStr, err := m.IssueAccessToken("user-123", "free")
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}

	if _, err := other.DecodeAccess(tokenStr); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestMaker_Garbage(t *testing.T) {
	m := newTestMaker()

	for _, input := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.DecodeAccess(input); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("DecodeAccess(%q): expected ErrInvalidToken, got %v", input, err)
		}
	}
}
