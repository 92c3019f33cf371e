package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/terramo-esg/terramo/internal/models"
	"github.com/terramo-esg/terramo/internal/services"
	"github.com/terramo-esg/terramo/internal/session"
)

// Demo accounts created by Seed.
const (
	DemoClientID         = "demo"
	DemoAdminEmail       = "admin@terramo.local"
	DemoStakeholderEmail = "stakeholder@terramo.local"
	DemoPassword         = "terramo"
	GlobalGroupID        = "all"
)

var catalogue = []struct{ code, measure string }{
	{"E-1", "Greenhouse gas emissions"},
	{"E-2", "Energy efficiency"},
	{"E-3", "Water and waste water"},
	{"E-4", "Biodiversity"},
	{"E-5", "Circular economy and waste"},
	{"S-1", "Occupational health and safety"},
	{"S-2", "Training and education"},
	{"S-3", "Diversity and equal opportunity"},
	{"S-4", "Human rights in the supply chain"},
	{"G-1", "Business ethics and anti-corruption"},
	{"G-2", "Data protection"},
	{"G-3", "Sustainable procurement"},
}

// QuestionID is the id Seed assigns to an index code.
func QuestionID(code string) string { return "q-" + strings.ToLower(code) }

// SeedResult reports the invitation tokens Seed created.
type SeedResult struct {
	GroupTokens map[string]string
	AdminInvite string
}

// Seed installs the question catalogue, one client with two groups, the
// global group, and the demo accounts. Running it twice is a no-op.
func Seed(store Store, auth *services.AuthService) (*SeedResult, error) {
	if u, err := store.FindUserByEmail(DemoAdminEmail); err != nil {
		return nil, err
	} else if u != nil {
		return &SeedResult{}, nil
	}
	for _, q := range catalogue {
		cat, _ := models.CategoryOf(q.code)
		if err := store.AddQuestion(models.Question{ID: QuestionID(q.code), IndexCode: q.code, Measure: q.measure, Category: cat}); err != nil {
			return nil, fmt.Errorf("seed question %s: %w", q.code, err)
		}
	}
	if err := store.AddClient(&services.Client{ID: DemoClientID, Name: "Demo GmbH"}); err != nil {
		return nil, fmt.Errorf("seed client: %w", err)
	}

	res := &SeedResult{GroupTokens: map[string]string{}}
	groups := []*services.Group{
		{ID: GlobalGroupID, Name: "all", DisplayName: "All stakeholders", IsGlobal: true, ShowInTable: true},
		{ID: "management", ClientID: DemoClientID, Name: "management", DisplayName: "Management", IsDefault: true, ShowInTable: true},
		{ID: "customers", ClientID: DemoClientID, Name: "customers", DisplayName: "Customers"},
		{ID: "suppliers", ClientID: DemoClientID, Name: "suppliers", DisplayName: "Suppliers"},
	}
	for _, g := range groups {
		if !g.IsGlobal {
			g.InvitationToken = uuid.NewString()
			res.GroupTokens[g.ID] = g.InvitationToken
		}
		if err := store.AddGroup(g); err != nil {
			return nil, fmt.Errorf("seed group %s: %w", g.ID, err)
		}
	}

	if _, err := auth.CreateUser(DemoAdminEmail, DemoPassword, DemoClientID, session.RoleClientAdmin, ""); err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	sh, err := auth.CreateUser(DemoStakeholderEmail, DemoPassword, DemoClientID, session.RoleStakeholder, "customers")
	if err != nil {
		return nil, fmt.Errorf("seed stakeholder: %w", err)
	}
	if err := store.AddStakeholder(&services.Stakeholder{
		ID: "s-" + sh.ID, GroupID: "customers", Email: sh.Email, FirstName: "Demo", LastName: "Stakeholder",
		Status: models.StakeholderApproved, UserID: sh.ID,
	}); err != nil {
		return nil, fmt.Errorf("seed stakeholder membership: %w", err)
	}

	res.AdminInvite = uuid.NewString()
	if err := store.AddAdminInvite(&services.AdminInvite{
		Token: res.AdminInvite, ClientID: DemoClientID, Email: "new-admin@terramo.local",
		ExpiresAt: time.Now().UTC().Add(14 * 24 * time.Hour),
	}); err != nil {
		return nil, fmt.Errorf("seed admin invite: %w", err)
	}
	return res, nil
}
