package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"

	"github.com/adeolu/marketplace/internal/model"
)

const issuer = "marketplace"

// ErrInvalidToken covers every verification failure: bad signature, expiry
// in the past, malformed structure, wrong issuer. Callers map it to the
// Unauthorized error kind; the distinction from infrastructure errors is
// what matters, not which check failed.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims is the fixed JWT payload for both token kinds.
//
// Subject carries the user's email, UserID and IsSuperuser mirror the
// account row at issuance time. Tokens are immutable once issued and there
// is no revocation: a token stays valid until expiry regardless of later
// account changes.
type Claims struct {
	UserID      int64 `json:"user_id"`
	IsSuperuser bool  `json:"is_superuser"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed, time-limited tokens.
//
// Access and refresh tokens share the same claim set and secret; only the
// lifetime differs (30 minutes vs 30 days by default).
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates a TokenService with the given HMAC secret and
// lifetimes. The secret should be at least 32 bytes of random data in
// production; anything under 16 characters is rejected outright.
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if accessTTL <= 0 {
		accessTTL = 30 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// IssueAccess signs a short-lived access token for the user.
func (s *TokenService) IssueAccess(user *model.User) (string, error) {
	return s.issue(user, s.accessTTL)
}

// IssueRefresh signs a long-lived refresh token for the user. Same claim
// set as the access token; the refresh operation accepts it as an explicit
// payload rather than a bearer credential.
func (s *TokenService) IssueRefresh(user *model.User) (string, error) {
	return s.issue(user, s.refreshTTL)
}

func (s *TokenService) issue(user *model.User, ttl time.Duration) (string, error) {
	now := time.Now()

	c := Claims{
		UserID:      user.ID,
		IsSuperuser: user.IsSuperuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
			ID:        xid.New().String(), // jti, for log correlation
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a token string and returns its claims.
//
// Checks: HS256 signature (method allowlist prevents algorithm-confusion
// tricks), expiry, issuer, and a non-empty subject. Every failure wraps
// ErrInvalidToken so callers can distinguish "invalid/expired" from
// infrastructure errors with errors.Is.
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: bad claims", ErrInvalidToken)
	}
	if c.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return c, nil
}
