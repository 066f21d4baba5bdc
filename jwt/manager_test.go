package jwt

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func newTestManager(t *testing.T, clock *fixedClock) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		Secret:     testSecret,
		AccessTTL:  time.Hour,
		RefreshTTL: 14 * 24 * time.Hour,
		Now:        clock.Now,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestNewManagerRejectsShortSecret(t *testing.T) {
	if _, err := NewManager(Config{Secret: []byte("short"), AccessTTL: time.Minute, RefreshTTL: time.Hour}); err == nil {
		t.Fatal("expected short secret to be rejected")
	}
	if _, err := NewManager(Config{Secret: testSecret}); err == nil {
		t.Fatal("expected zero TTLs to be rejected")
	}
}

func TestRefreshRoundTrip(t *testing.T) {
	clock := &fixedClock{now: time.Now()}
	m := newTestManager(t, clock)

	token, err := m.IssueRefresh("alice")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	sub, err := m.ParseRefresh(token)
	if err != nil {
		t.Fatalf("parse refresh: %v", err)
	}
	if sub != "alice" {
		t.Fatalf("expected subject alice, got %q", sub)
	}
}

func TestParseRefreshRejectsAccessToken(t *testing.T) {
	m := newTestManager(t, &fixedClock{now: time.Now()})

	access, err := m.IssueAccess("alice", []string{"ROLE_USER"})
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	if _, err := m.ParseRefresh(access); !errors.Is(err, ErrInvalidTokenType) {
		t.Fatalf("expected ErrInvalidTokenType, got %v", err)
	}
}

func TestParseAccessRejectsRefreshToken(t *testing.T) {
	m := newTestManager(t, &fixedClock{now: time.Now()})

	refresh, err := m.IssueRefresh("alice")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	if _, err := m.ParseAccess(refresh); !errors.Is(err, ErrInvalidTokenType) {
		t.Fatalf("expected ErrInvalidTokenType, got %v", err)
	}
}

func TestParseAccessClaims(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	m := newTestManager(t, &fixedClock{now: now})

	access, err := m.IssueAccess("alice", []string{"ROLE_USER", "ROLE_ADMIN"})
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	claims, err := m.ParseAccess(access)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.Subject != "alice" || claims.Type != TypeAccess {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if len(claims.Roles) != 2 || claims.Roles[0] != "ROLE_USER" {
		t.Fatalf("unexpected roles %v", claims.Roles)
	}
	if !claims.ExpiresAt.Time.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", claims.ExpiresAt.Time)
	}
}

func TestExpiredTokenIsInvalid(t *testing.T) {
	clock := &fixedClock{now: time.Now()}
	m := newTestManager(t, clock)

	refresh, err := m.IssueRefresh("alice")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	clock.now = clock.now.Add(15 * 24 * time.Hour)
	if _, err := m.ParseRefresh(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTamperedAndForeignTokensAreInvalid(t *testing.T) {
	m := newTestManager(t, &fixedClock{now: time.Now()})

	refresh, err := m.IssueRefresh("alice")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	parts := strings.Split(refresh, ".")
	payload, _ := base64.RawURLEncoding.DecodeString(parts[1])
	forged := strings.Replace(string(payload), "alice", "mallo", 1)
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))
	if _, err := m.ParseRefresh(strings.Join(parts, ".")); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected tampered token to be invalid, got %v", err)
	}

	other, err := NewManager(Config{
		Secret:     []byte("ffffffffffffffffffffffffffffffff"),
		AccessTTL:  time.Hour,
		RefreshTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	foreign, err := other.IssueRefresh("alice")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	if _, err := m.ParseRefresh(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected foreign token to be invalid, got %v", err)
	}

	if _, err := m.ParseRefresh("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected garbage to be invalid, got %v", err)
	}
}

func TestParseRejectsWrongAlgorithm(t *testing.T) {
	m := newTestManager(t, &fixedClock{now: time.Now()})

	claims := Claims{
		Type: TypeRefresh,
		RegisteredClaims: gjwt.RegisteredClaims{
			Subject:   "alice",
			IssuedAt:  gjwt.NewNumericDate(time.Now()),
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS512, claims)
	signed, err := tok.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := m.ParseRefresh(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected HS512 token to be rejected, got %v", err)
	}
}

func TestMalformedRolesFailClosed(t *testing.T) {
	m := newTestManager(t, &fixedClock{now: time.Now()})

	raw := gjwt.MapClaims{
		"sub":   "alice",
		"typ":   TypeAccess,
		"roles": "ROLE_ADMIN",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Minute).Unix(),
	}
	signed, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, raw).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	claims, err := m.ParseAccess(signed)
	if err != nil {
		t.Fatalf("expected token to parse: %v", err)
	}
	if len(claims.Roles) != 0 {
		t.Fatalf("expected no roles from malformed claim, got %v", claims.Roles)
	}
}

func TestIssuerEnforced(t *testing.T) {
	a, err := NewManager(Config{Secret: testSecret, AccessTTL: time.Hour, RefreshTTL: time.Hour, Issuer: "authcore"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	b, err := NewManager(Config{Secret: testSecret, AccessTTL: time.Hour, RefreshTTL: time.Hour, Issuer: "other"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, err := b.IssueRefresh("alice")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	if _, err := a.ParseRefresh(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected issuer mismatch to be invalid, got %v", err)
	}
}
