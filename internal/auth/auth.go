// Package auth guards the host-facing actions: a bcrypt password stored with
// the relay settings, exchanged at login for a short-lived HS256 token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"

	"github.com/okian/quizlive/internal/adapters/repository"
)

// Sentinel errors. Neither is fatal; callers answer with a failure flag.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrWeakPassword       = errors.New("password too short")
)

const (
	defaultTTL     = 12 * time.Hour
	minPasswordLen = 4
	hostRole       = "host"
	issuer         = "quizlive"
)

// Claims carried by a session token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service issues and checks host credentials.
type Service struct {
	store  repository.Store
	secret []byte
	ttl    time.Duration
	cost   int
	clock  clockwork.Clock
}

// NewService creates an auth service signing tokens with secret.
func NewService(store repository.Store, secret string, opts ...Option) *Service {
	s := &Service{
		store:  store,
		secret: []byte(secret),
		ttl:    defaultTTL,
		cost:   bcrypt.DefaultCost,
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bootstrap stores initialPassword and joinURL when no password was ever
// set. An existing password is left alone.
func (s *Service) Bootstrap(ctx context.Context, initialPassword, joinURL string) error {
	settings, err := s.store.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if settings.PasswordHash != "" {
		return nil
	}
	hash, err := s.HashPassword(initialPassword)
	if err != nil {
		return err
	}
	settings.PasswordHash = hash
	if settings.JoinURL == "" {
		settings.JoinURL = joinURL
	}
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Login checks password and returns a token plus the join URL.
func (s *Service) Login(ctx context.Context, password string) (token, joinURL string, err error) {
	settings, err := s.store.LoadSettings(ctx)
	if err != nil {
		return "", "", fmt.Errorf("load settings: %w", err)
	}
	if settings.PasswordHash == "" || !CheckPassword(password, settings.PasswordHash) {
		return "", "", ErrInvalidCredentials
	}
	token, err = s.Generate()
	if err != nil {
		return "", "", err
	}
	return token, settings.JoinURL, nil
}

// UpdateSettings replaces the join URL and, if newPassword is set, the
// password. The token must be valid.
func (s *Service) UpdateSettings(ctx context.Context, token, joinURL, newPassword string) error {
	if _, err := s.Validate(token); err != nil {
		return err
	}
	settings, err := s.store.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	settings.JoinURL = strings.TrimSpace(joinURL)
	if newPassword != "" {
		hash, err := s.HashPassword(newPassword)
		if err != nil {
			return err
		}
		settings.PasswordHash = hash
	}
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// JoinURL returns the public join URL.
func (s *Service) JoinURL(ctx context.Context) (string, error) {
	settings, err := s.store.LoadSettings(ctx)
	if err != nil {
		return "", fmt.Errorf("load settings: %w", err)
	}
	return settings.JoinURL, nil
}

// Generate issues a host token.
func (s *Service) Generate() (string, error) {
	now := s.clock.Now()
	claims := Claims{
		Role: hostRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate parses a token and checks signature, expiry and role.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Role != hostRole {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashPassword hashes a plain password with the configured bcrypt cost.
func (s *Service) HashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", ErrWeakPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// CheckPassword compares a plain password with a bcrypt hash.
func CheckPassword(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
