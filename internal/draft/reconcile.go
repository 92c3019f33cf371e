package draft

import "github.com/terramo-esg/terramo/internal/models"

// Value is the effective answer shown for one question.
type Value struct {
	Priority  models.Score
	StatusQuo models.Score
	Comment   string
}

// Fields is a partial edit. A nil field was not touched and inherits the
// server value.
type Fields struct {
	Priority  *models.Score
	StatusQuo *models.Score
	Comment   *string
}

// Empty reports whether no field was edited.
func (f Fields) Empty() bool {
	return f.Priority == nil && f.StatusQuo == nil && f.Comment == nil
}

// Apply overlays f on base.
func (f Fields) Apply(base Value) Value {
	if f.Priority != nil {
		base.Priority = *f.Priority
	}
	if f.StatusQuo != nil {
		base.StatusQuo = *f.StatusQuo
	}
	if f.Comment != nil {
		base.Comment = *f.Comment
	}
	return base
}

// EffectiveFor resolves one question: edit, then server value, then
// unanswered. Neither map is modified.
func EffectiveFor(server map[string]Value, edits map[string]Fields, questionID string) Value {
	return edits[questionID].Apply(server[questionID])
}

// Effective merges server values and edits for every question present in
// either map. With no edits the result equals server.
func Effective(server map[string]Value, edits map[string]Fields) map[string]Value {
	out := make(map[string]Value, len(server)+len(edits))
	for id, v := range server {
		out[id] = v
	}
	for id, f := range edits {
		out[id] = f.Apply(out[id])
	}
	return out
}

// ServerValues indexes a dashboard's responses by question id.
func ServerValues(responses []models.Response) map[string]Value {
	out := make(map[string]Value, len(responses))
	for _, r := range responses {
		if r.QuestionID == "" {
			continue
		}
		out[r.QuestionID] = Value{Priority: r.Priority, StatusQuo: r.StatusQuo, Comment: r.Comment}
	}
	return out
}
