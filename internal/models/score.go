package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// MaxScore is the top of the 0..4 rating range used for priority and status quo.
const MaxScore = 4

// maxDecodedScore caps decoded magnitudes well below int overflow.
const maxDecodedScore = 1 << 20

// Score is a nullable rating. The zero value is unanswered.
type Score struct {
	Value int
	Set   bool
}

// NewScore returns an answered score.
func NewScore(v int) Score { return Score{Value: v, Set: true} }

// Unanswered is the null score.
var Unanswered = Score{}

// InRange reports whether an answered score is within 0..MaxScore.
// Unanswered scores are always in range.
func (s Score) InRange() bool {
	return !s.Set || (s.Value >= 0 && s.Value <= MaxScore)
}

func (s Score) String() string {
	if !s.Set {
		return "-"
	}
	return strconv.Itoa(s.Value)
}

func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Set {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(s.Value)), nil
}

func (s *Score) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = Score{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("score: %w", err)
	}
	// Integral values only; out-of-range integers decode and fail InRange.
	if f != math.Trunc(f) {
		return fmt.Errorf("score %s is not a whole number", b)
	}
	if math.Abs(f) > maxDecodedScore {
		return fmt.Errorf("score %s is out of range", b)
	}
	*s = Score{Value: int(f), Set: true}
	return nil
}

// ParseScore parses CLI input: an integer, or "-"/"null"/"" for unanswered.
func ParseScore(in string) (Score, error) {
	switch in {
	case "", "-", "null", "none":
		return Unanswered, nil
	}
	n, err := strconv.Atoi(in)
	if err != nil {
		return Score{}, fmt.Errorf("invalid score %q", in)
	}
	s := NewScore(n)
	if !s.InRange() {
		return Score{}, fmt.Errorf("score %d outside 0..%d", n, MaxScore)
	}
	return s, nil
}
