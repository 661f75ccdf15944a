package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	domain "github.com/example/taskflow/domain/task"
)

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

const tokenTypeAccess = "access"

// TokenConfig holds the settings shared with the token issuer.
type TokenConfig struct {
	SecretKey           string
	Issuer              string
	AccessTokenDuration time.Duration
}

// Claims are the claims carried by an access token. The subject is the
// principal id.
type Claims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Verifier validates access tokens and resolves them to principals.
type Verifier struct {
	config TokenConfig
	now    func() time.Time
}

// NewVerifier creates a Verifier with the given configuration.
func NewVerifier(config TokenConfig) *Verifier {
	return &Verifier{config: config, now: time.Now}
}

// IssueAccessToken signs an access token for principalID. Tokens are normally
// minted by the auth service; this exists for tooling and tests.
func (v *Verifier) IssueAccessToken(principalID string) (string, error) {
	now := v.now()
	claims := Claims{
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.config.Issuer,
			Subject:   principalID,
			ExpiresAt: jwt.NewNumericDate(now.Add(v.config.AccessTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(v.config.SecretKey))
}

// ValidateAccessToken validates the token and returns its claims.
func (v *Verifier) ValidateAccessToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(v.now)}
	if v.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(v.config.SecretKey), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != tokenTypeAccess || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Resolve turns a bearer token into the acting principal. An empty token is
// the anonymous principal; a bad token is an error.
func (v *Verifier) Resolve(tokenString string) (domain.Principal, error) {
	if tokenString == "" {
		return domain.Anonymous(), nil
	}
	claims, err := v.ValidateAccessToken(tokenString)
	if err != nil {
		return domain.Anonymous(), err
	}
	return domain.User(claims.Subject), nil
}
