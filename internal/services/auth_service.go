package services

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/terramo-esg/terramo/internal/models"
	"github.com/terramo-esg/terramo/internal/session"
)

type AuthStore interface {
	FindUserByEmail(email string) (*User, error)
	AddUser(u *User) error
}

type TokenSigner func(c session.Claims, ttl time.Duration) (string, error)

type AuthService struct {
	store     AuthStore
	now       func() time.Time
	idGen     func(prefix string, n int) string
	signToken TokenSigner
	tokenTTL  time.Duration
}

func NewAuthService(store AuthStore, signer TokenSigner) *AuthService {
	return &AuthService{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		idGen:     func(prefix string, n int) string { return prefix + shortID(n) },
		signToken: signer,
		tokenTTL:  7 * 24 * time.Hour,
	}
}

// HashPassword returns the bcrypt hash stored for a password.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// CreateUser stores a new account. Used for seeding the development backend.
func (s *AuthService) CreateUser(email, password, clientID string, role session.Role, groupID string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	existing, err := s.store.FindUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewConflictError("email exists")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &User{ID: s.idGen("u", 7), Email: email, PassHash: hash, ClientID: clientID, Role: role, GroupID: groupID, CreatedAt: s.now()}
	if err := s.store.AddUser(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Login(email, password string) (*models.LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, NewInvalidError("email/password required")
	}
	u, err := s.store.FindUserByEmail(email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(u.PassHash, []byte(password)); err != nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if s.signToken == nil {
		return nil, NewInvalidError("token signer not configured")
	}
	token, err := s.signToken(session.Claims{UserID: u.ID, ClientID: u.ClientID, Email: u.Email, Role: u.Role}, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &models.LoginResult{Token: token, UserID: u.ID, Role: string(u.Role)}, nil
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.tokenTTL
}
