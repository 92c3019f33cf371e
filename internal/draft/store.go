// Package draft holds unsaved questionnaire edits, tracks whether there is
// anything to save, and reconciles edits with the last server snapshot.
package draft

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/terramo-esg/terramo/internal/models"
)

// Field names an editable response field.
type Field string

const (
	FieldPriority  Field = "priority"
	FieldStatusQuo Field = "status_quo"
	FieldComment   Field = "comment"
)

// ErrUnknownField is returned by ParseField and SetField.
var ErrUnknownField = errors.New("unknown field")

// ParseField accepts the wire names plus a few CLI spellings.
func ParseField(name string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "priority", "prio", "p":
		return FieldPriority, nil
	case "status_quo", "status-quo", "statusquo", "sq":
		return FieldStatusQuo, nil
	case "comment", "c":
		return FieldComment, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownField, name)
}

// Store is the state container for one editing session. It is safe for
// concurrent use; subscribers run synchronously after each dispatch.
type Store struct {
	mu    sync.Mutex
	state State
	subs  map[int]func(State)
	next  int
}

// NewStore starts an empty session for year.
func NewStore(year int) *Store {
	return &Store{state: State{Year: year}, subs: map[int]func(State){}}
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a and returns the resulting state.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	st := s.state
	fns := make([]func(State), 0, len(s.subs))
	for id := 0; id < s.next; id++ {
		if fn, ok := s.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
	return st
}

// Subscribe registers fn to observe every new state.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// SetField parses raw for field and records the edit. Scores accept 0..4 or
// "-" for unanswered.
func (s *Store) SetField(questionID string, field Field, raw string) (State, error) {
	switch field {
	case FieldPriority, FieldStatusQuo:
		score, err := models.ParseScore(strings.TrimSpace(raw))
		if err != nil {
			return s.State(), err
		}
		if field == FieldPriority {
			return s.Dispatch(SetPriority{QuestionID: questionID, Value: score}), nil
		}
		return s.Dispatch(SetStatusQuo{QuestionID: questionID, Value: score}), nil
	case FieldComment:
		return s.Dispatch(SetComment{QuestionID: questionID, Value: raw}), nil
	}
	return s.State(), fmt.Errorf("%w %q", ErrUnknownField, field)
}

// InitializeFromServer seeds the baseline from a dashboard snapshot. A
// snapshot version already seeded is ignored, and edits are never touched.
func (s *Store) InitializeFromServer(version uint64, d models.Dashboard) State {
	return s.Dispatch(SeedFromServer{Version: version, Values: ServerValues(d.Responses), Locked: d.Locked})
}

// Reset discards all edits.
func (s *Store) Reset() State { return s.Dispatch(Reset{}) }
