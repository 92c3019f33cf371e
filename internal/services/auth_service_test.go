package services

import (
	"errors"
	"testing"
	"time"

	"github.com/terramo-esg/terramo/internal/session"
)

type authStubStore struct {
	users map[string]*User
}

func newAuthStubStore() *authStubStore {
	return &authStubStore{users: map[string]*User{}}
}

func (s *authStubStore) FindUserByEmail(email string) (*User, error) {
	if u, ok := s.users[email]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, nil
}

func (s *authStubStore) AddUser(u *User) error {
	if _, ok := s.users[u.Email]; ok {
		return errors.New("duplicate user")
	}
	copy := *u
	s.users[u.Email] = &copy
	return nil
}

func TestAuthCreateUserAndLogin(t *testing.T) {
	store := newAuthStubStore()
	svc := NewAuthService(store, func(c session.Claims, ttl time.Duration) (string, error) {
		return "token:" + c.UserID + ":" + c.ClientID + ":" + string(c.Role), nil
	})
	svc.now = func() time.Time { return time.Unix(0, 0) }
	svc.idGen = func(prefix string, n int) string { return prefix + "1234567" }

	u, err := svc.CreateUser(" Admin@Example.com ", "Secret123", "c1", session.RoleClientAdmin, "")
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if u.Email != "admin@example.com" || u.ID != "u1234567" {
		t.Fatalf("unexpected user %+v", u)
	}
	if _, err := svc.CreateUser("admin@example.com", "x", "c1", session.RoleClientAdmin, ""); err == nil {
		t.Fatalf("expected conflict on duplicate email")
	} else if se, ok := AsServiceError(err); !ok || se.Code != ErrorConflict {
		t.Fatalf("duplicate error = %v, want conflict", err)
	}

	res, err := svc.Login("ADMIN@example.com", "Secret123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if res.Token != "token:u1234567:c1:client_admin" {
		t.Fatalf("unexpected token %q", res.Token)
	}
	if res.Role != "client_admin" || res.UserID != "u1234567" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestAuthLoginRejectsBadCredentials(t *testing.T) {
	store := newAuthStubStore()
	svc := NewAuthService(store, func(session.Claims, time.Duration) (string, error) { return "tok", nil })
	if _, err := svc.CreateUser("a@example.com", "right", "c1", session.RoleStakeholder, "g1"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	for _, tc := range []struct{ email, password string }{
		{"a@example.com", "wrong"},
		{"nobody@example.com", "right"},
	} {
		_, err := svc.Login(tc.email, tc.password)
		se, ok := AsServiceError(err)
		if !ok || se.Code != ErrorUnauthorized {
			t.Fatalf("Login(%q) error = %v, want unauthorized", tc.email, err)
		}
	}
	if _, err := svc.Login("", ""); err == nil {
		t.Fatalf("expected invalid error for empty credentials")
	}
}
