package api

import (
	"github.com/terramo-esg/terramo/internal/models"
	"github.com/terramo-esg/terramo/internal/services"
)

// Store is everything the development backend persists.
type Store interface {
	services.AuthStore
	services.ResponseStore
	services.DashboardStore
	services.GroupStore
	services.InvitationStore

	AddQuestion(q models.Question) error
	AddClient(c *services.Client) error
	AddGroup(g *services.Group) error
	AddAdminInvite(inv *services.AdminInvite) error
	Close() error
}

var _ Store = (*memoryStore)(nil)
