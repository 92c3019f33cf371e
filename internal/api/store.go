package api

import (
	"sort"
	"strconv"
	"sync"

	"github.com/terramo-esg/terramo/internal/models"
	"github.com/terramo-esg/terramo/internal/services"
)

type memoryStore struct {
	mu           sync.RWMutex
	questions    map[string]models.Question
	clients      map[string]*services.Client
	users        map[string]*services.User
	usersByEmail map[string]*services.User
	responses    map[string]*services.ResponseRecord
	submitted    map[string]bool
	groups       map[string]*services.Group
	stakeholders map[string]*services.Stakeholder
	invites      map[string]*services.AdminInvite
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() Store {
	return &memoryStore{
		questions:    map[string]models.Question{},
		clients:      map[string]*services.Client{},
		users:        map[string]*services.User{},
		usersByEmail: map[string]*services.User{},
		responses:    map[string]*services.ResponseRecord{},
		submitted:    map[string]bool{},
		groups:       map[string]*services.Group{},
		stakeholders: map[string]*services.Stakeholder{},
		invites:      map[string]*services.AdminInvite{},
	}
}

func yearKey(userID, questionID string, year int) string {
	return userID + "|" + questionID + "|" + strconv.Itoa(year)
}

func (s *memoryStore) Close() error { return nil }

func (s *memoryStore) AddQuestion(q models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[q.ID] = q
	return nil
}

func (s *memoryStore) GetQuestion(id string) (*models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if q, ok := s.questions[id]; ok {
		return &q, nil
	}
	return nil, nil
}

func (s *memoryStore) ListQuestions() ([]models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, q)
	}
	models.SortQuestions(out)
	return out, nil
}

func (s *memoryStore) AddClient(c *services.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.clients[c.ID] = &cp
	return nil
}

func (s *memoryStore) AddUser(u *services.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
	s.usersByEmail[u.Email] = &cp
	return nil
}

func (s *memoryStore) FindUserByEmail(email string) (*services.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.usersByEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) GetUser(id string) (*services.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

// UpsertResponses keeps the original response id for an existing
// (user, question, year) row.
func (s *memoryStore) UpsertResponses(rs []*services.ResponseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rs {
		key := yearKey(r.UserID, r.QuestionID, r.Year)
		cp := *r
		if old, ok := s.responses[key]; ok {
			cp.ID = old.ID
		}
		s.responses[key] = &cp
	}
	return nil
}

func (s *memoryStore) ListResponses(clientID string, year int) ([]*services.ResponseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*services.ResponseRecord
	for _, r := range s.responses {
		if r.ClientID == clientID && r.Year == year {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QuestionID != out[j].QuestionID {
			return out[i].QuestionID < out[j].QuestionID
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (s *memoryStore) CountResponsesByGroup(clientID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]int{}
	for _, r := range s.responses {
		if r.ClientID == clientID {
			out[r.GroupID]++
		}
	}
	return out, nil
}

func (s *memoryStore) IsSubmitted(userID string, year int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.submitted[yearKey(userID, "", year)], nil
}

func (s *memoryStore) MarkSubmitted(userID string, year int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitted[yearKey(userID, "", year)] = true
	return nil
}

func (s *memoryStore) AddGroup(g *services.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *g
	s.groups[g.ID] = &cp
	return nil
}

func (s *memoryStore) UpdateGroup(g *services.Group) error { return s.AddGroup(g) }

func (s *memoryStore) GetGroup(id string) (*services.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if g, ok := s.groups[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, nil
}

// ListGroups returns global groups first, then the client's groups by name.
func (s *memoryStore) ListGroups(clientID string) ([]*services.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*services.Group
	for _, g := range s.groups {
		if g.IsGlobal || g.ClientID == clientID {
			cp := *g
			out = append(out, &cp)
		}
	}
	sortGroups(out)
	return out, nil
}

func sortGroups(gs []*services.Group) {
	sort.Slice(gs, func(i, j int) bool {
		if gs[i].IsGlobal != gs[j].IsGlobal {
			return gs[i].IsGlobal
		}
		if gs[i].Name != gs[j].Name {
			return gs[i].Name < gs[j].Name
		}
		return gs[i].ID < gs[j].ID
	})
}

func (s *memoryStore) FindGroupByInvitation(token string) (*services.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if token == "" {
		return nil, nil
	}
	for _, g := range s.groups {
		if g.InvitationToken == token {
			cp := *g
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memoryStore) ListStakeholders(groupID string) ([]*services.Stakeholder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*services.Stakeholder
	for _, st := range s.stakeholders {
		if st.GroupID == groupID {
			cp := *st
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *memoryStore) GetStakeholder(id string) (*services.Stakeholder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.stakeholders[id]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) AddStakeholder(st *services.Stakeholder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *st
	s.stakeholders[st.ID] = &cp
	return nil
}

func (s *memoryStore) UpdateStakeholder(st *services.Stakeholder) error { return s.AddStakeholder(st) }

func (s *memoryStore) AddAdminInvite(inv *services.AdminInvite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *inv
	s.invites[inv.Token] = &cp
	return nil
}

func (s *memoryStore) GetAdminInvite(token string) (*services.AdminInvite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if inv, ok := s.invites[token]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, nil
}

func (s *memoryStore) UpdateAdminInvite(inv *services.AdminInvite) error { return s.AddAdminInvite(inv) }
