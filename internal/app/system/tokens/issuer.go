// Package tokens issues and verifies the signed JWTs the API uses for
// authentication. It is the underlying credential mechanism the login guard
// wraps; it knows nothing about attempt tracking or lockout.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/alexb007/munaz-backend/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the token_type claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Default lifetimes.
const (
	DefaultAccessTTL  = 5 * time.Minute
	DefaultRefreshTTL = 24 * time.Hour
)

// Config configures an Issuer.
type Config struct {
	Secret     string        // HMAC signing key
	Issuer     string        // iss claim
	AccessTTL  time.Duration // access token lifetime
	RefreshTTL time.Duration // refresh token lifetime
}

// Claims are the JWT claims of both token types. Subject holds the user's hex ObjectID.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
	Role      string `json:"role,omitempty"`
}

// Pair is an access/refresh token pair as returned by the token endpoint.
type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Issuer signs and parses HS256 tokens.
type Issuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewIssuer returns an Issuer. Zero TTLs fall back to the defaults.
func NewIssuer(cfg Config) *Issuer {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &Issuer{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
}

// IssuePair signs a fresh access and refresh token for u.
func (i *Issuer) IssuePair(u *models.User) (Pair, error) {
	access, err := i.issue(u, TypeAccess, i.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := i.issue(u, TypeRefresh, i.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

// IssueAccess signs an access token for u.
func (i *Issuer) IssueAccess(u *models.User) (string, error) {
	return i.issue(u, TypeAccess, i.accessTTL)
}

// IssueRefresh signs a refresh token for u.
func (i *Issuer) IssueRefresh(u *models.User) (string, error) {
	return i.issue(u, TypeRefresh, i.refreshTTL)
}

func (i *Issuer) issue(u *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			Subject:   u.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: tokenType,
		Role:      u.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

var errWrongTokenType = errors.New("wrong token type")

// Parse validates signature, issuer and expiry and checks the token type.
func (i *Issuer) Parse(tokenString, wantType string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.TokenType != wantType {
		return nil, errWrongTokenType
	}
	return claims, nil
}
