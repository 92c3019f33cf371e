package services

import (
	"strings"

	"github.com/terramo-esg/terramo/internal/models"
	"github.com/terramo-esg/terramo/internal/session"
)

type GroupStore interface {
	ListGroups(clientID string) ([]*Group, error)
	GetGroup(id string) (*Group, error)
	UpdateGroup(g *Group) error
	ListStakeholders(groupID string) ([]*Stakeholder, error)
	GetStakeholder(id string) (*Stakeholder, error)
	AddStakeholder(st *Stakeholder) error
	UpdateStakeholder(st *Stakeholder) error
	CountResponsesByGroup(clientID string) (map[string]int, error)
}

type GroupService struct {
	store GroupStore
	// inviteBase prefixes invitation tokens to build shareable links.
	inviteBase string
	idGen      func() string
}

func NewGroupService(store GroupStore, inviteBase string) *GroupService {
	return &GroupService{store: store, inviteBase: strings.TrimRight(inviteBase, "/"), idGen: func() string { return "s" + shortID(11) }}
}

func requireAdmin(actor Actor) error {
	if actor.Role != session.RoleClientAdmin && actor.Role != session.RolePlatformAdmin {
		return NewForbiddenError("client admin access required")
	}
	return nil
}

// ownedGroup loads a group and checks it belongs to the caller's client.
func (s *GroupService) ownedGroup(actor Actor, id string) (*Group, error) {
	g, err := s.store.GetGroup(id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, NewNotFoundError("group not found")
	}
	if !g.IsGlobal && g.ClientID != actor.ClientID {
		return nil, NewForbiddenError("forbidden")
	}
	return g, nil
}

func (s *GroupService) List(actor Actor) ([]models.StakeholderGroup, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	groups, err := s.store.ListGroups(actor.ClientID)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.CountResponsesByGroup(actor.ClientID)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	out := make([]models.StakeholderGroup, 0, len(groups))
	for _, g := range groups {
		members, err := s.store.ListStakeholders(g.ID)
		if err != nil {
			return nil, err
		}
		sg := s.toModel(g)
		sg.StakeholderCount = len(members)
		if g.IsGlobal {
			sg.HasResponses = total > 0
		} else {
			sg.HasResponses = counts[g.ID] > 0
		}
		out = append(out, sg)
	}
	return out, nil
}

func (s *GroupService) toModel(g *Group) models.StakeholderGroup {
	sg := models.StakeholderGroup{
		ID:          g.ID,
		Name:        g.Name,
		DisplayName: g.DisplayName,
		IsDefault:   g.IsDefault,
		IsGlobal:    g.IsGlobal,
		ShowInTable: g.ShowInTable || g.IsDefault || g.IsGlobal,
	}
	if g.InvitationToken != "" {
		sg.InvitationToken = g.InvitationToken
		sg.InvitationLink = s.inviteBase + "/invite/" + g.InvitationToken
	}
	return sg
}

// SetVisibility updates show_in_table. Default and global groups cannot be hidden.
func (s *GroupService) SetVisibility(actor Actor, groupID string, show bool) (*models.StakeholderGroup, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	g, err := s.ownedGroup(actor, groupID)
	if err != nil {
		return nil, err
	}
	if (g.IsDefault || g.IsGlobal) && !show {
		return nil, NewInvalidError("default groups are always shown")
	}
	g.ShowInTable = show
	if err := s.store.UpdateGroup(g); err != nil {
		return nil, err
	}
	sg := s.toModel(g)
	return &sg, nil
}

func (s *GroupService) Stakeholders(actor Actor, groupID string) ([]models.Stakeholder, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if _, err := s.ownedGroup(actor, groupID); err != nil {
		return nil, err
	}
	list, err := s.store.ListStakeholders(groupID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Stakeholder, 0, len(list))
	for _, st := range list {
		out = append(out, toModelStakeholder(st))
	}
	return out, nil
}

func (s *GroupService) AddStakeholder(actor Actor, groupID string, in models.NewStakeholder) (*models.Stakeholder, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	g, err := s.ownedGroup(actor, groupID)
	if err != nil {
		return nil, err
	}
	if g.IsGlobal {
		return nil, NewInvalidError("stakeholders cannot be added to the global group")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, NewInvalidError("a valid email is required")
	}
	existing, err := s.store.ListStakeholders(groupID)
	if err != nil {
		return nil, err
	}
	for _, st := range existing {
		if st.Email == email {
			return nil, NewConflictError("stakeholder already in group")
		}
	}
	st := &Stakeholder{
		ID:        s.idGen(),
		GroupID:   groupID,
		Email:     email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Status:    models.StakeholderPending,
	}
	if err := s.store.AddStakeholder(st); err != nil {
		return nil, err
	}
	out := toModelStakeholder(st)
	return &out, nil
}

func (s *GroupService) UpdateStakeholderStatus(actor Actor, groupID, stakeholderID string, status models.StakeholderStatus) (*models.Stakeholder, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	switch status {
	case models.StakeholderPending, models.StakeholderApproved, models.StakeholderRejected:
	default:
		return nil, NewInvalidError("status must be pending, approved or rejected")
	}
	if _, err := s.ownedGroup(actor, groupID); err != nil {
		return nil, err
	}
	st, err := s.store.GetStakeholder(stakeholderID)
	if err != nil {
		return nil, err
	}
	if st == nil || st.GroupID != groupID {
		return nil, NewNotFoundError("stakeholder not found")
	}
	st.Status = status
	if err := s.store.UpdateStakeholder(st); err != nil {
		return nil, err
	}
	out := toModelStakeholder(st)
	return &out, nil
}

func toModelStakeholder(st *Stakeholder) models.Stakeholder {
	return models.Stakeholder{
		ID:           st.ID,
		Email:        st.Email,
		FirstName:    st.FirstName,
		LastName:     st.LastName,
		GroupID:      st.GroupID,
		Status:       st.Status,
		IsRegistered: st.UserID != "",
	}
}
