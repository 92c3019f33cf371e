package services

import (
	"fmt"
	"sort"

	"github.com/terramo-esg/terramo/internal/models"
)

// stubStore is a map-backed store covering every service interface.
type stubStore struct {
	questions    map[string]models.Question
	users        map[string]*User
	responses    map[string]*ResponseRecord
	submitted    map[string]bool
	groups       map[string]*Group
	stakeholders map[string]*Stakeholder
	invites      map[string]*AdminInvite
	upserts      int
}

func newStubStore() *stubStore {
	return &stubStore{
		questions: map[string]models.Question{
			"q1": {ID: "q1", IndexCode: "E-1", Measure: "Emissions"},
			"q2": {ID: "q2", IndexCode: "S-1", Measure: "Safety"},
			"q3": {ID: "q3", IndexCode: "G-1", Measure: "Ethics"},
		},
		users: map[string]*User{
			"admin": {ID: "admin", Email: "admin@example.com", ClientID: "c1", Role: "client_admin"},
			"sh1":   {ID: "sh1", Email: "sh1@example.com", ClientID: "c1", Role: "stakeholder", GroupID: "mgmt"},
		},
		responses: map[string]*ResponseRecord{},
		submitted: map[string]bool{},
		groups: map[string]*Group{
			"all":  {ID: "all", Name: "All stakeholders", IsGlobal: true, ShowInTable: true},
			"mgmt": {ID: "mgmt", ClientID: "c1", Name: "management", DisplayName: "Management", ShowInTable: true, InvitationToken: "tok-mgmt"},
			"cust": {ID: "cust", ClientID: "c1", Name: "customers"},
			"x":    {ID: "x", ClientID: "c2", Name: "other client"},
		},
		stakeholders: map[string]*Stakeholder{},
		invites:      map[string]*AdminInvite{},
	}
}

func responseKey(userID, questionID string, year int) string {
	return fmt.Sprintf("%s|%s|%d", userID, questionID, year)
}

func (s *stubStore) GetQuestion(id string) (*models.Question, error) {
	if q, ok := s.questions[id]; ok {
		return &q, nil
	}
	return nil, nil
}

func (s *stubStore) ListQuestions() ([]models.Question, error) {
	out := make([]models.Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubStore) GetUser(id string) (*User, error) {
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *stubStore) IsSubmitted(userID string, year int) (bool, error) {
	return s.submitted[responseKey(userID, "", year)], nil
}

func (s *stubStore) MarkSubmitted(userID string, year int) error {
	s.submitted[responseKey(userID, "", year)] = true
	return nil
}

func (s *stubStore) UpsertResponses(rs []*ResponseRecord) error {
	s.upserts++
	for _, r := range rs {
		cp := *r
		s.responses[responseKey(r.UserID, r.QuestionID, r.Year)] = &cp
	}
	return nil
}

func (s *stubStore) ListResponses(clientID string, year int) ([]*ResponseRecord, error) {
	var out []*ResponseRecord
	for _, r := range s.responses {
		if r.ClientID == clientID && r.Year == year {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID+out[i].UserID < out[j].QuestionID+out[j].UserID })
	return out, nil
}

func (s *stubStore) ListGroups(clientID string) ([]*Group, error) {
	var out []*Group
	for _, g := range s.groups {
		if g.IsGlobal || g.ClientID == clientID {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubStore) GetGroup(id string) (*Group, error) {
	if g, ok := s.groups[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, nil
}

func (s *stubStore) UpdateGroup(g *Group) error {
	cp := *g
	s.groups[g.ID] = &cp
	return nil
}

func (s *stubStore) FindGroupByInvitation(token string) (*Group, error) {
	for _, g := range s.groups {
		if g.InvitationToken != "" && g.InvitationToken == token {
			cp := *g
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubStore) ListStakeholders(groupID string) ([]*Stakeholder, error) {
	var out []*Stakeholder
	for _, st := range s.stakeholders {
		if st.GroupID == groupID {
			cp := *st
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *stubStore) GetStakeholder(id string) (*Stakeholder, error) {
	if st, ok := s.stakeholders[id]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, nil
}

func (s *stubStore) AddStakeholder(st *Stakeholder) error {
	cp := *st
	s.stakeholders[st.ID] = &cp
	return nil
}

func (s *stubStore) UpdateStakeholder(st *Stakeholder) error { return s.AddStakeholder(st) }

func (s *stubStore) CountResponsesByGroup(clientID string) (map[string]int, error) {
	out := map[string]int{}
	for _, r := range s.responses {
		if r.ClientID == clientID {
			out[r.GroupID]++
		}
	}
	return out, nil
}

func (s *stubStore) GetAdminInvite(token string) (*AdminInvite, error) {
	if inv, ok := s.invites[token]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, nil
}

func (s *stubStore) UpdateAdminInvite(inv *AdminInvite) error {
	cp := *inv
	s.invites[inv.Token] = &cp
	return nil
}
