package services

import (
	"context"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

type AuthStore interface {
	FindUserByUsername(ctx context.Context, username string) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	AddUser(ctx context.Context, u *User) error
}

type TokenSigner func(uid, username string, ttl time.Duration) (string, error)

type AuthService struct {
	store     AuthStore
	now       func() time.Time
	idGen     func(prefix string, n int) string
	signToken TokenSigner
	tokenTTL  time.Duration
}

type AuthResult struct {
	Token string
	User  *User
}

const minPasswordLen = 8

func NewAuthService(store AuthStore, signer TokenSigner, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &AuthService{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     func(prefix string, n int) string { return prefix + shortID(n) },
		signToken: signer,
		tokenTTL:  ttl,
	}
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("username, email and password required")
	}
	if n := utf8.RuneCountInString(username); n < 3 || n > 50 {
		return nil, NewInvalidError("username must be 3-50 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, NewInvalidError("invalid email")
	}
	if len(password) < minPasswordLen {
		return nil, NewInvalidError("password must be at least 8 characters")
	}
	if existing, err := s.store.FindUserByUsername(ctx, username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, NewConflictError("Username already exists")
	}
	if existing, err := s.store.FindUserByEmail(ctx, email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, NewConflictError("Email already exists")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &User{ID: s.idGen("u", 12), Username: username, Email: email, PassHash: hash, CreatedAt: s.now()}
	if err := s.store.AddUser(ctx, u); err != nil {
		return nil, err
	}
	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("username/password required")
	}
	u, err := s.store.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewUnauthorizedError("Incorrect username or password")
	}
	if err := bcrypt.CompareHashAndPassword(u.PassHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError("Incorrect username or password")
	}
	return s.issue(u)
}

func (s *AuthService) issue(u *User) (*AuthResult, error) {
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	token, err := s.signToken(u.ID, u.Username, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u}, nil
}

// Me loads the user a token was issued for.
func (s *AuthService) Me(ctx context.Context, userID string) (*User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewNotFoundError("User not found")
	}
	return u, nil
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}
