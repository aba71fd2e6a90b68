package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayush/partners-api/internal/models"
	"github.com/ayush/partners-api/internal/store"
)

// ErrInvalidCredentials covers both an unknown username and a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserStore is the credential store read by the Gate.
type UserStore interface {
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Gate authenticates username/password pairs and resolves bearer tokens
// into principals.
type Gate struct {
	users     UserStore
	tokens    *TokenManager
	ttl       time.Duration
	dummyHash string
}

// NewGate creates a Gate that issues tokens valid for ttl.
func NewGate(users UserStore, tokens *TokenManager, ttl time.Duration) (*Gate, error) {
	// Compared against when the username is unknown so both failures cost one bcrypt run.
	dummy, err := HashPassword(uuid.NewString())
	if err != nil {
		return nil, err
	}
	return &Gate{users: users, tokens: tokens, ttl: ttl, dummyHash: dummy}, nil
}

// Authenticate returns the user whose password matches, or ErrInvalidCredentials.
// It performs exactly one store read and never writes.
func (g *Gate) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := g.users.FindUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		VerifyPassword(password, g.dummyHash)
		return nil, ErrInvalidCredentials
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and mints an access token for the user.
func (g *Gate) Login(ctx context.Context, username, password string) (string, error) {
	user, err := g.Authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	return g.tokens.Issue(user, g.ttl)
}

// CurrentPrincipal validates a bearer token. Any error means the request
// must be rejected.
func (g *Gate) CurrentPrincipal(token string) (*Principal, error) {
	return g.tokens.Validate(token)
}
