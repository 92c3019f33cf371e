package groups

import (
	"sync"

	"github.com/terramo-esg/terramo/internal/models"
)

// Selection is the set of groups compared in charts. Pinned groups are always
// part of it regardless of what was stored.
type Selection struct {
	mu       sync.Mutex
	selected map[string]bool
}

// NewSelection starts with the given group ids selected.
func NewSelection(ids ...string) *Selection {
	s := &Selection{selected: map[string]bool{}}
	for _, id := range ids {
		s.selected[id] = true
	}
	return s
}

// Toggle flips g in the selection. Pinned groups and groups without responses
// cannot be toggled; the selection is left as it was.
func (s *Selection) Toggle(g models.StakeholderGroup) (bool, error) {
	if g.Pinned() {
		return true, ErrPinned
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.selected[g.ID] && !g.HasResponses {
		return false, ErrNoResponses
	}
	s.selected[g.ID] = !s.selected[g.ID]
	if !s.selected[g.ID] {
		delete(s.selected, g.ID)
	}
	return s.selected[g.ID], nil
}

// Checked reports whether g is included.
func (s *Selection) Checked(g models.StakeholderGroup) bool {
	if g.Pinned() {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected[g.ID]
}

// Selected filters groups down to those included, keeping their order.
func (s *Selection) Selected(groups []models.StakeholderGroup) []models.StakeholderGroup {
	out := make([]models.StakeholderGroup, 0, len(groups))
	for _, g := range groups {
		if s.Checked(g) {
			out = append(out, g)
		}
	}
	return out
}
