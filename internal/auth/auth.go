// Package auth verifies API credentials against stored bcrypt hashes and
// creates users.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"cashly/internal/cache"
	"cashly/internal/core"
)

const (
	MinPasswordLength = 8
	cacheSize         = 1024
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// Authenticator resolves email and password to a user. Successful checks
// are cached so bcrypt runs once per credential pair per ttl.
type Authenticator struct {
	store core.Store
	cache *cache.LRUCache[core.User]
}

func NewAuthenticator(store core.Store, ttl time.Duration) *Authenticator {
	return &Authenticator{
		store: store,
		cache: cache.NewLRUCache[core.User](cacheSize, ttl),
	}
}

// Cache exposes the credential cache for registration with a cache.Manager.
func (a *Authenticator) Cache() *cache.LRUCache[core.User] {
	return a.cache
}

func cacheKey(email, password string) string {
	sum := sha256.Sum256([]byte(password))
	return email + "|" + hex.EncodeToString(sum[:])
}

func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (core.User, error) {
	email, err := core.NormalizeEmail(email)
	if err != nil || password == "" {
		return core.User{}, ErrInvalidCredentials
	}

	key := cacheKey(email, password)
	if u, ok := a.cache.Get(key); ok {
		return u, nil
	}

	var user *core.User
	err = a.store.WithinTx(ctx, func(r core.Repositories) error {
		var err error
		user, err = r.Users().GetByEmail(ctx, email)
		return err
	})
	if err != nil {
		return core.User{}, fmt.Errorf("load user: %w", err)
	}
	if user == nil || CheckPassword(user.PasswordHash, password) != nil {
		return core.User{}, ErrInvalidCredentials
	}

	a.cache.Set(key, *user)
	return *user, nil
}

// CreateUser stores a new user with a hashed password.
func CreateUser(ctx context.Context, store core.Store, email, password string) (core.User, error) {
	email, err := core.NormalizeEmail(email)
	if err != nil {
		return core.User{}, core.NewValidationError("email", err)
	}
	if len(password) < MinPasswordLength {
		return core.User{}, core.NewValidationError("password", ErrWeakPassword)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return core.User{}, err
	}
	user := core.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	err = store.WithinTx(ctx, func(r core.Repositories) error {
		return r.Users().Add(ctx, &user)
	})
	if err != nil {
		return core.User{}, err
	}
	return user, nil
}
