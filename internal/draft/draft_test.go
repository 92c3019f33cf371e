package draft

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terramo-esg/terramo/internal/models"
)

func score(v int) *models.Score {
	s := models.NewScore(v)
	return &s
}

func text(s string) *string { return &s }

var serverSnapshot = map[string]Value{
	"q1": {Priority: models.NewScore(2), StatusQuo: models.NewScore(1), Comment: "ok"},
	"q2": {Priority: models.NewScore(4)},
}

func TestEffectiveWithoutEditsEqualsServer(t *testing.T) {
	got := Effective(serverSnapshot, nil)
	if diff := cmp.Diff(serverSnapshot, got); diff != "" {
		t.Fatalf("effective differs from server (-want +got):\n%s", diff)
	}
	got = Effective(serverSnapshot, map[string]Fields{})
	assert.Empty(t, cmp.Diff(serverSnapshot, got))
}

func TestEffectiveDraftTakesPrecedence(t *testing.T) {
	edits := map[string]Fields{
		"q1": {Priority: score(0), Comment: text("")},
		"q3": {StatusQuo: score(3)},
	}
	got := Effective(serverSnapshot, edits)
	want := map[string]Value{
		"q1": {Priority: models.NewScore(0), StatusQuo: models.NewScore(1), Comment: ""},
		"q2": {Priority: models.NewScore(4)},
		"q3": {StatusQuo: models.NewScore(3)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("effective mismatch (-want +got):\n%s", diff)
	}
	// Server map untouched.
	assert.Equal(t, models.NewScore(2), serverSnapshot["q1"].Priority)
}

func TestEffectiveForMissingServerEntryIsUnanswered(t *testing.T) {
	v := EffectiveFor(nil, nil, "nope")
	assert.Equal(t, Value{}, v)
	assert.False(t, v.Priority.Set)
	assert.Equal(t, "", v.Comment)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s0 := State{Year: 2024, Edits: map[string]Fields{"q1": {Comment: text("a")}}}
	s1 := Reduce(s0, SetPriority{QuestionID: "q1", Value: models.NewScore(3)})

	assert.Nil(t, s0.Edits["q1"].Priority)
	assert.False(t, s0.Dirty)
	require.NotNil(t, s1.Edits["q1"].Priority)
	assert.Equal(t, 3, s1.Edits["q1"].Priority.Value)
	assert.Equal(t, "a", *s1.Edits["q1"].Comment)
	assert.True(t, s1.Dirty)
}

func TestSeedRunsOncePerSnapshotAndKeepsEdits(t *testing.T) {
	st := NewStore(2024)
	st.Dispatch(SeedFromServer{Version: 1, Values: serverSnapshot})
	st.Dispatch(SetComment{QuestionID: "q1", Value: "mine"})

	// A background refetch of the same snapshot is ignored.
	s := st.Dispatch(SeedFromServer{Version: 1, Values: map[string]Value{}})
	assert.Equal(t, serverSnapshot["q1"], s.Server["q1"])

	// A newer snapshot replaces the baseline but not the edit.
	s = st.Dispatch(SeedFromServer{Version: 2, Values: map[string]Value{
		"q1": {Priority: models.NewScore(1), Comment: "theirs"},
	}})
	v := s.Effective("q1")
	assert.Equal(t, "mine", v.Comment)
	assert.Equal(t, models.NewScore(1), v.Priority)
	assert.True(t, s.HasChanges())

	// Older versions arriving late are ignored.
	s = st.Dispatch(SeedFromServer{Version: 1, Values: serverSnapshot})
	assert.Equal(t, uint64(2), s.SeededVersion)
}

func TestPendingOnlyEditedQuestions(t *testing.T) {
	st := NewStore(2024)
	st.Dispatch(SeedFromServer{Version: 1, Values: serverSnapshot})
	assert.Empty(t, st.State().Pending())
	assert.False(t, st.State().HasChanges())

	st.Dispatch(SetComment{QuestionID: "q2", Value: "later"})
	st.Dispatch(SetPriority{QuestionID: "q9", Value: models.NewScore(1)})
	got := st.State().Pending()
	want := []models.BulkResponse{
		{QuestionID: "q2", Priority: models.NewScore(4), Comment: "later"},
		{QuestionID: "q9", Priority: models.NewScore(1)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("pending mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectYearDropsEdits(t *testing.T) {
	st := NewStore(2024)
	st.Dispatch(SeedFromServer{Version: 3, Values: serverSnapshot})
	st.Dispatch(SetPriority{QuestionID: "q1", Value: models.NewScore(4)})

	s := st.Dispatch(SelectYear{Year: 2024})
	assert.True(t, s.Dirty, "same year keeps edits")

	s = st.Dispatch(SelectYear{Year: 2025})
	assert.Equal(t, 2025, s.Year)
	assert.Empty(t, s.Edits)
	assert.Empty(t, s.Server)
	assert.False(t, s.Dirty)
	assert.Zero(t, s.SeededVersion)
}

func TestSaveLifecycle(t *testing.T) {
	st := NewStore(2024)
	st.Dispatch(SetPriority{QuestionID: "q1", Value: models.NewScore(3)})
	sent := st.State().Edits

	s := st.Dispatch(SaveStarted{})
	assert.True(t, s.Saving)

	s = st.Dispatch(SaveFailed{})
	assert.False(t, s.Saving)
	assert.True(t, s.Dirty)
	assert.Len(t, s.Pending(), 1)

	st.Dispatch(SaveStarted{})
	s = st.Dispatch(SaveSucceeded{Sent: sent})
	assert.False(t, s.Dirty)
	assert.Empty(t, s.Edits)
}

func TestSaveSucceededKeepsEditsMadeInFlight(t *testing.T) {
	st := NewStore(2024)
	st.Dispatch(SetPriority{QuestionID: "q1", Value: models.NewScore(3)})
	st.Dispatch(SetComment{QuestionID: "q2", Value: "a"})
	sent := st.Dispatch(SaveStarted{}).Edits

	// The user keeps typing while the request is out.
	st.Dispatch(SetComment{QuestionID: "q2", Value: "ab"})
	st.Dispatch(SetStatusQuo{QuestionID: "q1", Value: models.NewScore(2)})

	s := st.Dispatch(SaveSucceeded{Sent: sent})
	assert.True(t, s.Dirty)
	require.Contains(t, s.Edits, "q1")
	assert.Nil(t, s.Edits["q1"].Priority, "sent priority cleared")
	assert.NotNil(t, s.Edits["q1"].StatusQuo)
	assert.Equal(t, "ab", *s.Edits["q2"].Comment)
}

func TestStoreSetFieldAndSubscribe(t *testing.T) {
	st := NewStore(2024)
	var seen []bool
	unsubscribe := st.Subscribe(func(s State) { seen = append(seen, s.Dirty) })

	_, err := st.SetField("q1", FieldPriority, "3")
	require.NoError(t, err)
	_, err = st.SetField("q1", FieldStatusQuo, "9")
	assert.Error(t, err)
	_, err = st.SetField("q1", Field("colour"), "red")
	assert.ErrorIs(t, err, ErrUnknownField)
	st.Reset()
	unsubscribe()
	st.Reset()

	assert.Equal(t, []bool{true, false}, seen)
}

func TestParseField(t *testing.T) {
	f, err := ParseField("SQ")
	require.NoError(t, err)
	assert.Equal(t, FieldStatusQuo, f)
	_, err = ParseField("x")
	assert.ErrorIs(t, err, ErrUnknownField)
}
