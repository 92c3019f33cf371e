// Package groups manages which stakeholder groups are shown in tables and
// compared in charts.
package groups

import (
	"errors"
	"sort"
	"sync"

	"github.com/terramo-esg/terramo/internal/models"
)

var (
	// ErrPinned is returned when toggling a default or global group.
	ErrPinned = errors.New("group is always included")
	// ErrNoResponses is returned when selecting a group that has no responses.
	ErrNoResponses = errors.New("group has no responses")
	// ErrUnknownGroup is returned for ids not in the current group list.
	ErrUnknownGroup = errors.New("unknown group")
)

// Visibility holds unsaved show_in_table toggles on top of the server list.
type Visibility struct {
	mu     sync.Mutex
	server map[string]models.StakeholderGroup
	order  []string
	draft  map[string]bool
}

// NewVisibility returns an empty visibility draft.
func NewVisibility() *Visibility {
	return &Visibility{server: map[string]models.StakeholderGroup{}, draft: map[string]bool{}}
}

// Load replaces the server list. Drafts for groups that no longer exist or
// that now match the server value are dropped.
func (v *Visibility) Load(groups []models.StakeholderGroup) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.server = make(map[string]models.StakeholderGroup, len(groups))
	v.order = v.order[:0]
	for _, g := range groups {
		v.server[g.ID] = g
		v.order = append(v.order, g.ID)
	}
	for id, show := range v.draft {
		g, ok := v.server[id]
		if !ok || g.ShowInTable == show {
			delete(v.draft, id)
		}
	}
}

// Set records a toggle. Pinned groups cannot be hidden.
func (v *Visibility) Set(id string, show bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	g, ok := v.server[id]
	if !ok {
		return ErrUnknownGroup
	}
	if g.Pinned() && !show {
		return ErrPinned
	}
	if g.ShowInTable == show {
		delete(v.draft, id)
		return nil
	}
	v.draft[id] = show
	return nil
}

// Shown returns the effective flag: pinned, then draft, then server.
func (v *Visibility) Shown(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.shown(id)
}

func (v *Visibility) shown(id string) bool {
	g := v.server[id]
	if g.Pinned() {
		return true
	}
	if show, ok := v.draft[id]; ok {
		return show
	}
	return g.ShowInTable
}

// Groups returns the server list with effective flags applied, in server order.
func (v *Visibility) Groups() []models.StakeholderGroup {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.StakeholderGroup, 0, len(v.order))
	for _, id := range v.order {
		g := v.server[id]
		g.ShowInTable = v.shown(id)
		out = append(out, g)
	}
	return out
}

// Changed returns the drafted toggles, sorted by group id.
func (v *Visibility) Changed() []Toggle {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Toggle, 0, len(v.draft))
	for id, show := range v.draft {
		out = append(out, Toggle{GroupID: id, Show: show})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupID < out[j].GroupID })
	return out
}

// Dirty reports whether there are unsaved toggles.
func (v *Visibility) Dirty() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.draft) > 0
}

// Clear commits the draft for one group into the server copy after it was
// saved, so the effective flag holds until the next Load.
func (v *Visibility) Clear(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	show, ok := v.draft[id]
	if !ok {
		return
	}
	if g, known := v.server[id]; known {
		g.ShowInTable = show
		v.server[id] = g
	}
	delete(v.draft, id)
}

// Reset drops all drafts.
func (v *Visibility) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.draft = map[string]bool{}
}

// Toggle is one pending visibility change.
type Toggle struct {
	GroupID string
	Show    bool
}
