package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domain "github.com/example/taskflow/domain/task"
)

func testConfig() TokenConfig {
	return TokenConfig{
		SecretKey:           "test-secret-key",
		Issuer:              "test-issuer",
		AccessTokenDuration: 15 * time.Minute,
	}
}

func TestVerifier_IssueAndResolve(t *testing.T) {
	v := NewVerifier(testConfig())

	token, err := v.IssueAccessToken("alice")
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	claims, err := v.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken() error = %v", err)
	}
	if claims.Subject != "alice" {
		t.Errorf("claims.Subject = %v, want alice", claims.Subject)
	}

	p, err := v.Resolve(token)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !p.IsAuthenticated() || p.ID != "alice" {
		t.Errorf("Resolve() = %+v, want authenticated alice", p)
	}
}

func TestVerifier_Resolve_EmptyTokenIsAnonymous(t *testing.T) {
	p, err := NewVerifier(testConfig()).Resolve("")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if p.IsAuthenticated() {
		t.Errorf("expected anonymous principal, got %+v", p)
	}
}

func TestVerifier_RejectsExpiredToken(t *testing.T) {
	v := NewVerifier(testConfig())
	v.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := v.IssueAccessToken("alice")
	if err != nil {
		t.Fatalf("IssueAccessToken() error = %v", err)
	}

	v.now = time.Now
	if _, err := v.ValidateAccessToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestVerifier_RejectsWrongSecretAndIssuer(t *testing.T) {
	other := testConfig()
	other.SecretKey = "other-secret"
	token, _ := NewVerifier(other).IssueAccessToken("alice")
	if _, err := NewVerifier(testConfig()).ValidateAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for wrong secret, got %v", err)
	}

	other = testConfig()
	other.Issuer = "someone-else"
	token, _ = NewVerifier(other).IssueAccessToken("alice")
	if _, err := NewVerifier(testConfig()).ValidateAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for wrong issuer, got %v", err)
	}
}

func TestVerifier_RejectsNonAccessToken(t *testing.T) {
	cfg := testConfig()
	claims := Claims{
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.SecretKey))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	if _, err := NewVerifier(cfg).ValidateAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifier_RejectsGarbage(t *testing.T) {
	if _, err := NewVerifier(testConfig()).Resolve("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestLocalPort_MapsRejectionToUnauthenticated(t *testing.T) {
	port := LocalPort{Verifier: NewVerifier(testConfig())}
	_, err := port.ResolvePrincipal(context.Background(), "garbage")
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestIdentityModule_resolvePrincipal(t *testing.T) {
	m := NewModule(testConfig())
	token, _ := m.Verifier().IssueAccessToken("bob")

	resp, err := m.resolvePrincipal(context.Background(), ResolvePrincipalRequest{Token: token}, nil)
	if err != nil {
		t.Fatalf("resolvePrincipal() error = %v", err)
	}
	if !resp.Valid || resp.Principal.ID != "bob" {
		t.Errorf("unexpected response %+v", resp)
	}

	resp, _ = m.resolvePrincipal(context.Background(), ResolvePrincipalRequest{Token: "bad"}, nil)
	if resp.Valid || resp.Error == "" {
		t.Errorf("expected rejected token, got %+v", resp)
	}
}

func TestIdentityModule_StartRequiresSecret(t *testing.T) {
	if err := NewModule(TokenConfig{}).Start(context.Background()); err == nil {
		t.Error("expected error for empty secret")
	}
	if !NewModule(testConfig()).Health(context.Background()).Healthy {
		t.Error("expected healthy module")
	}
}
