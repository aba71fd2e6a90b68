package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ayush/partners-api/internal/models"
)

// Token errors. Handlers report all of them as 401 without detail.
var (
	ErrMalformedToken = errors.New("malformed token")
	ErrExpiredToken   = errors.New("token expired")
)

// Principal is the identity carried by a validated bearer token.
type Principal struct {
	UserID   int64  `json:"id"`
	Username string `json:"username"`
}

// Claims is the payload of an access token: sub (username), id (user id), exp.
// iat and jti make two tokens for the same subject distinct.
type Claims struct {
	UserID *int64 `json:"id,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and validates HS256 access tokens with a single
// secret fixed at construction.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

// NewTokenManager creates a TokenManager signing with secret.
func NewTokenManager(secret []byte) *TokenManager {
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenManager{secret: key, now: time.Now}
}

// Issue mints a token for user that expires ttl from now.
func (m *TokenManager) Issue(user *models.User, ttl time.Duration) (string, error) {
	now := m.now()
	id := user.ID
	claims := Claims{
		UserID: &id,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate checks the signature and expiry of tokenString and returns the
// principal it names. It does not consult the credential store, so a token
// stays valid until exp even if its user is deactivated.
func (m *TokenManager) Validate(tokenString string) (*Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	// exp is exclusive: a token is dead at the instant it expires.
	if !m.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrExpiredToken
	}
	if claims.Subject == "" || claims.UserID == nil {
		return nil, fmt.Errorf("%w: missing sub or id", ErrMalformedToken)
	}

	return &Principal{UserID: *claims.UserID, Username: claims.Subject}, nil
}
