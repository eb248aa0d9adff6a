package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/solarview/solarview/internal/user"
)

// APIKeyLength is the number of characters in a generated API key.
const APIKeyLength = 32

const apiKeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var (
	// ErrUnauthenticated is returned when no credential was presented.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrInvalidCredentials is returned for a wrong email, password or API key.
	// The message is identical for every cause.
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// ErrInactiveUser is returned when the account is deactivated.
	ErrInactiveUser = errors.New("inactive user")

	// ErrForbidden is returned when an authenticated caller lacks permission.
	ErrForbidden = errors.New("not enough permissions")
)

// UserFinder is the part of the credential store the Service reads from.
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByAPIKey(ctx context.Context, key string) (user.User, error)
}

// Service resolves credentials to users and owns password and key material.
type Service struct {
	users      UserFinder
	bcryptCost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewService creates a new auth Service.
func NewService(users UserFinder, bcryptCost int) *Service {
	return &Service{
		users:      users,
		bcryptCost: bcryptCost,
	}
}

// GenerateAPIKey returns a fresh opaque key of APIKeyLength alphanumeric characters.
func (s *Service) GenerateAPIKey() (string, error) {
	size := big.NewInt(int64(len(apiKeyAlphabet)))
	b := make([]byte, APIKeyLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("generating random index: %w", err)
		}
		b[i] = apiKeyAlphabet[n.Int64()]
	}
	return string(b), nil
}

// HashPassword returns the bcrypt hash of password.
func (s *Service) HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(h), nil
}

// VerifyPassword reports whether password matches the bcrypt hash.
func (s *Service) VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// AuthenticateByCredentials resolves an email and password pair to an active user.
// Unknown email, inactive account and wrong password all yield ErrInvalidCredentials.
func (s *Service) AuthenticateByCredentials(ctx context.Context, email, password string) (user.User, error) {
	u, err := s.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Spend the same bcrypt work as a real comparison.
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return user.User{}, ErrInvalidCredentials
		}
		return user.User{}, fmt.Errorf("looking up user by email: %w", err)
	}

	if !s.VerifyPassword(u.PasswordHash, password) {
		return user.User{}, ErrInvalidCredentials
	}
	if err := RequireActive(u); err != nil {
		return user.User{}, ErrInvalidCredentials
	}

	return u, nil
}

// AuthenticateByAPIKey resolves an X-API-Key value to an active user.
func (s *Service) AuthenticateByAPIKey(ctx context.Context, key string) (user.User, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return user.User{}, ErrUnauthenticated
	}

	u, err := s.users.GetByAPIKey(ctx, key)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.User{}, ErrInvalidCredentials
		}
		return user.User{}, fmt.Errorf("looking up user by api key: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(u.APIKey), []byte(key)) != 1 {
		return user.User{}, ErrInvalidCredentials
	}
	if err := RequireActive(u); err != nil {
		return user.User{}, ErrInvalidCredentials
	}

	return u, nil
}

// RequireActive fails with ErrInactiveUser when u is deactivated.
func RequireActive(u user.User) error {
	if !u.IsActive {
		return ErrInactiveUser
	}
	return nil
}

// RequireAdmin fails with ErrForbidden when u is not an admin.
func RequireAdmin(u user.User) error {
	if !u.IsAdmin {
		return ErrForbidden
	}
	return nil
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("solarview-dummy-password"), s.bcryptCost)
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
