package services

import (
	"fmt"
	"time"

	"github.com/terramo-esg/terramo/internal/models"
)

// ResponseStore abstracts persistence operations required by ResponseService.
type ResponseStore interface {
	GetQuestion(id string) (*models.Question, error)
	GetUser(id string) (*User, error)
	IsSubmitted(userID string, year int) (bool, error)
	UpsertResponses(rs []*ResponseRecord) error
	MarkSubmitted(userID string, year int) error
}

// ResponseService hosts the questionnaire bulk update workflow.
type ResponseService struct {
	store ResponseStore
	now   func() time.Time
	idGen func() string
}

func NewResponseService(store ResponseStore) *ResponseService {
	return &ResponseService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		idGen: func() string { return "r" + shortID(11) },
	}
}

// BulkUpdate validates every row before writing any of them. Rows are a set
// keyed by question id; a repeated id keeps its last occurrence. Submitting
// locks the year for the caller.
func (s *ResponseService) BulkUpdate(actor Actor, req models.BulkUpdateRequest) (*models.BulkUpdateResult, error) {
	if !req.Status.Valid() {
		return nil, NewInvalidError("status must be draft or submitted")
	}
	if len(req.Responses) == 0 {
		return nil, NewInvalidError("responses must not be empty")
	}
	year := req.Year
	if year <= 0 {
		year = s.now().Year()
	}
	user, err := s.store.GetUser(actor.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, NewUnauthorizedError("unknown user")
	}
	submitted, err := s.store.IsSubmitted(user.ID, year)
	if err != nil {
		return nil, err
	}
	if submitted {
		return nil, NewForbiddenError(fmt.Sprintf("responses for %d have already been submitted", year))
	}

	now := s.now()
	byQuestion := map[string]int{}
	records := make([]*ResponseRecord, 0, len(req.Responses))
	for _, row := range req.Responses {
		q, err := s.store.GetQuestion(row.QuestionID)
		if err != nil {
			return nil, err
		}
		if q == nil {
			return nil, NewInvalidError(fmt.Sprintf("invalid question_id: %s", row.QuestionID))
		}
		if !row.Priority.InRange() {
			return nil, NewInvalidError(fmt.Sprintf("%s: priority must be between 0 and %d", q.IndexCode, models.MaxScore))
		}
		if !row.StatusQuo.InRange() {
			return nil, NewInvalidError(fmt.Sprintf("%s: status quo must be between 0 and %d", q.IndexCode, models.MaxScore))
		}
		rec := &ResponseRecord{
			ID:         s.idGen(),
			UserID:     user.ID,
			ClientID:   user.ClientID,
			GroupID:    user.GroupID,
			QuestionID: q.ID,
			Year:       year,
			Priority:   row.Priority,
			StatusQuo:  row.StatusQuo,
			Comment:    row.Comment,
			Status:     req.Status,
			UpdatedAt:  now,
		}
		if i, dup := byQuestion[q.ID]; dup {
			records[i] = rec
			continue
		}
		byQuestion[q.ID] = len(records)
		records = append(records, rec)
	}

	if err := s.store.UpsertResponses(records); err != nil {
		return nil, err
	}
	if req.Status == models.StatusSubmitted {
		if err := s.store.MarkSubmitted(user.ID, year); err != nil {
			return nil, err
		}
	}
	return &models.BulkUpdateResult{Status: req.Status, Updated: len(records), Year: year}, nil
}
