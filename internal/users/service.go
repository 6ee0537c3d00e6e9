package users

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"outdial-platform/internal/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidEmail       = errors.New("a valid email is required")
)

type Service struct {
	store  Store
	tokens *auth.Manager
	now    func() time.Time
}

func NewService(store Store, tokens *auth.Manager) *Service {
	return &Service{store: store, tokens: tokens, now: time.Now}
}

// Session is what a successful register or login returns.
type Session struct {
	User   User           `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

func (s *Service) Register(ctx context.Context, email, name, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if !strings.Contains(email, "@") {
		return Session{}, ErrInvalidEmail
	}
	if len(password) < 8 {
		return Session{}, ErrWeakPassword
	}
	if name == "" {
		name = email
	}

	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hashPassword(password),
		CreatedAt:    s.now(),
	}
	created, err := s.store.Create(ctx, u)
	if err != nil {
		return Session{}, err
	}
	return s.session(created)
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	u, err := s.store.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if subtle.ConstantTimeCompare([]byte(u.PasswordHash), []byte(hashPassword(password))) != 1 {
		return Session{}, ErrInvalidCredentials
	}
	return s.session(u)
}

func (s *Service) session(u User) (Session, error) {
	pair, err := s.tokens.IssuePair(s.now(), u.ID, u.Email)
	if err != nil {
		return Session{}, fmt.Errorf("issue tokens: %w", err)
	}
	return Session{User: u, Tokens: pair}, nil
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
