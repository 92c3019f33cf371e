package services

import (
	"strings"
	"time"

	"github.com/terramo-esg/terramo/internal/models"
)

type InvitationStore interface {
	FindGroupByInvitation(token string) (*Group, error)
	GetAdminInvite(token string) (*AdminInvite, error)
	UpdateAdminInvite(inv *AdminInvite) error
}

type InvitationService struct {
	store InvitationStore
	now   func() time.Time
}

func NewInvitationService(store InvitationStore) *InvitationService {
	return &InvitationService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// ValidateStakeholder reports whether token is a group invitation. Unknown
// tokens are not an error; the result carries Valid=false and a message.
func (s *InvitationService) ValidateStakeholder(token string) (*models.Invitation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, NewInvalidError("token required")
	}
	g, err := s.store.FindGroupByInvitation(token)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return &models.Invitation{Valid: false, Message: "invitation link is invalid or has expired"}, nil
	}
	return &models.Invitation{Valid: true, GroupID: g.ID, Redirect: "/register?group=" + g.ID}, nil
}

// AcceptClientAdmin redeems a client-admin invitation once.
func (s *InvitationService) AcceptClientAdmin(token string) (*models.Invitation, error) {
	inv, err := s.store.GetAdminInvite(strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, NewNotFoundError("invitation not found")
	}
	if inv.Accepted {
		return nil, NewConflictError("invitation already accepted")
	}
	if !inv.ExpiresAt.IsZero() && !s.now().Before(inv.ExpiresAt) {
		return nil, NewInvalidError("invitation has expired")
	}
	inv.Accepted = true
	if err := s.store.UpdateAdminInvite(inv); err != nil {
		return nil, err
	}
	return &models.Invitation{Valid: true, Email: inv.Email, Redirect: "/login"}, nil
}
