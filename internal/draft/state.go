package draft

import (
	"sort"

	"github.com/terramo-esg/terramo/internal/models"
)

// State is the questionnaire editing state for one reporting year.
// Treat it as immutable: Reduce returns a new State and never modifies its input.
type State struct {
	Year int
	// Edits holds only fields the user touched since the last successful save.
	Edits map[string]Fields
	// Server mirrors the last seeded dashboard snapshot.
	Server        map[string]Value
	SeededVersion uint64
	// Dirty is set by any edit and cleared by a successful save or a reset.
	Dirty  bool
	Saving bool
	// Locked is set when the server reports the year as submitted.
	Locked bool
}

// HasChanges reports whether there is anything to save.
func (s State) HasChanges() bool { return s.Dirty && len(s.Edits) > 0 }

// Effective returns the value to display for a question.
func (s State) Effective(questionID string) Value {
	return EffectiveFor(s.Server, s.Edits, questionID)
}

// Pending returns one bulk row per edited question, carrying the effective
// values, ordered by question id. Untouched questions are never included.
func (s State) Pending() []models.BulkResponse {
	ids := make([]string, 0, len(s.Edits))
	for id, f := range s.Edits {
		if !f.Empty() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	rows := make([]models.BulkResponse, 0, len(ids))
	for _, id := range ids {
		v := s.Effective(id)
		rows = append(rows, models.BulkResponse{
			QuestionID: id,
			Priority:   v.Priority,
			StatusQuo:  v.StatusQuo,
			Comment:    v.Comment,
		})
	}
	return rows
}

// Action is a state transition handled by Reduce.
type Action interface{ isAction() }

type (
	// SetPriority edits a question's priority.
	SetPriority struct {
		QuestionID string
		Value      models.Score
	}
	// SetStatusQuo edits a question's status quo.
	SetStatusQuo struct {
		QuestionID string
		Value      models.Score
	}
	// SetComment edits a question's comment.
	SetComment struct {
		QuestionID string
		Value      string
	}
	// Reset discards all edits.
	Reset struct{}
	// SelectYear switches the reporting year; edits do not carry over.
	SelectYear struct{ Year int }
	// SeedFromServer installs a dashboard snapshot as the server baseline.
	SeedFromServer struct {
		Version uint64
		Values  map[string]Value
		Locked  bool
	}
	SaveStarted struct{}
	// SaveSucceeded clears the edits that were sent. Edits made while the
	// save was in flight survive. A nil Sent clears everything.
	SaveSucceeded struct{ Sent map[string]Fields }
	SaveFailed    struct{}
)

func (SetPriority) isAction()    {}
func (SetStatusQuo) isAction()   {}
func (SetComment) isAction()     {}
func (Reset) isAction()          {}
func (SelectYear) isAction()     {}
func (SeedFromServer) isAction() {}
func (SaveStarted) isAction()    {}
func (SaveSucceeded) isAction()  {}
func (SaveFailed) isAction()     {}

// Reduce is the pure transition function of the draft store.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetPriority:
		v := a.Value
		return s.edit(a.QuestionID, func(f *Fields) { f.Priority = &v })
	case SetStatusQuo:
		v := a.Value
		return s.edit(a.QuestionID, func(f *Fields) { f.StatusQuo = &v })
	case SetComment:
		v := a.Value
		return s.edit(a.QuestionID, func(f *Fields) { f.Comment = &v })
	case Reset:
		s.Edits = nil
		s.Dirty = false
		return s
	case SelectYear:
		if a.Year == s.Year {
			return s
		}
		// A new year starts from an empty baseline; the next snapshot seeds it.
		return State{Year: a.Year}
	case SeedFromServer:
		if a.Version != 0 && a.Version <= s.SeededVersion {
			return s
		}
		s.Server = copyValues(a.Values)
		s.SeededVersion = a.Version
		s.Locked = a.Locked
		return s
	case SaveStarted:
		s.Saving = true
		return s
	case SaveSucceeded:
		s.Saving = false
		if a.Sent == nil {
			s.Edits = nil
			s.Dirty = false
			return s
		}
		var left map[string]Fields
		for id, f := range s.Edits {
			if rest := f.without(a.Sent[id]); !rest.Empty() {
				if left == nil {
					left = map[string]Fields{}
				}
				left[id] = rest
			}
		}
		s.Edits = left
		s.Dirty = len(left) > 0
		return s
	case SaveFailed:
		s.Saving = false
		return s
	}
	return s
}

func (s State) edit(questionID string, set func(*Fields)) State {
	edits := make(map[string]Fields, len(s.Edits)+1)
	for id, f := range s.Edits {
		edits[id] = f
	}
	f := edits[questionID]
	set(&f)
	edits[questionID] = f
	s.Edits = edits
	s.Dirty = true
	return s
}

// without drops the fields of f that are the very same edits as in sent.
// Every edit allocates a new pointer, so identity means "not touched since".
func (f Fields) without(sent Fields) Fields {
	if f.Priority != nil && f.Priority == sent.Priority {
		f.Priority = nil
	}
	if f.StatusQuo != nil && f.StatusQuo == sent.StatusQuo {
		f.StatusQuo = nil
	}
	if f.Comment != nil && f.Comment == sent.Comment {
		f.Comment = nil
	}
	return f
}

func copyValues(in map[string]Value) map[string]Value {
	out := make(map[string]Value, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
