package services

import (
	"time"

	"github.com/terramo-esg/terramo/internal/models"
)

type DashboardStore interface {
	ListQuestions() ([]models.Question, error)
	ListResponses(clientID string, year int) ([]*ResponseRecord, error)
	IsSubmitted(userID string, year int) (bool, error)
	ListGroups(clientID string) ([]*Group, error)
}

type DashboardService struct {
	store DashboardStore
	now   func() time.Time
}

func NewDashboardService(store DashboardStore) *DashboardService {
	return &DashboardService{store: store, now: func() time.Time { return time.Now().UTC() }}
}

func (s *DashboardService) year(y int) int {
	if y <= 0 {
		return s.now().Year()
	}
	return y
}

// ClientAdmin returns the catalogue with client-wide averages, the caller's
// own responses, and whether the caller already submitted the year.
func (s *DashboardService) ClientAdmin(actor Actor, year int) (*models.Dashboard, error) {
	year = s.year(year)
	questions, err := s.store.ListQuestions()
	if err != nil {
		return nil, err
	}
	responses, err := s.store.ListResponses(actor.ClientID, year)
	if err != nil {
		return nil, err
	}
	locked, err := s.store.IsSubmitted(actor.UserID, year)
	if err != nil {
		return nil, err
	}
	models.SortQuestions(questions)

	acc := accumulate(responses)
	out := &models.Dashboard{Year: year, Questions: make([]models.DashboardQuestion, 0, len(questions)), Responses: []models.Response{}, Locked: locked}
	for _, q := range questions {
		if q.Category == "" {
			q.Category, _ = models.CategoryOf(q.IndexCode)
		}
		dq := models.DashboardQuestion{Question: q}
		if a, ok := acc[q.ID]; ok {
			dq.AvgPriority, dq.AvgStatusQuo, dq.Responses = a.priority.mean(), a.statusQuo.mean(), a.count
		}
		out.Questions = append(out.Questions, dq)
	}
	for _, r := range responses {
		if r.UserID == actor.UserID {
			out.Responses = append(out.Responses, toModelResponse(r))
		}
	}
	return out, nil
}

// StakeholderAnalysis returns per-group averages. The global group covers
// every response of the client; other groups cover their members' responses.
// Questions nobody rated are left out of a group.
func (s *DashboardService) StakeholderAnalysis(actor Actor, year int) (*models.StakeholderAnalysis, error) {
	year = s.year(year)
	questions, err := s.store.ListQuestions()
	if err != nil {
		return nil, err
	}
	groups, err := s.store.ListGroups(actor.ClientID)
	if err != nil {
		return nil, err
	}
	responses, err := s.store.ListResponses(actor.ClientID, year)
	if err != nil {
		return nil, err
	}
	models.SortQuestions(questions)

	out := &models.StakeholderAnalysis{Year: year, Groups: make([]models.GroupAnalysis, 0, len(groups))}
	for _, g := range groups {
		var members []*ResponseRecord
		for _, r := range responses {
			if g.IsGlobal || r.GroupID == g.ID {
				members = append(members, r)
			}
		}
		acc := accumulate(members)
		ga := models.GroupAnalysis{GroupID: g.ID, Questions: []models.QuestionAverage{}}
		for _, q := range questions {
			a, ok := acc[q.ID]
			if !ok {
				continue
			}
			p, sq := a.priority.mean(), a.statusQuo.mean()
			if p == nil && sq == nil {
				continue
			}
			qa := models.QuestionAverage{QuestionID: q.ID, IndexCode: q.IndexCode}
			if p != nil {
				qa.Priority = *p
			}
			if sq != nil {
				qa.StatusQuo = *sq
			}
			ga.Questions = append(ga.Questions, qa)
		}
		out.Groups = append(out.Groups, ga)
	}
	return out, nil
}

type runningMean struct {
	sum float64
	n   int
}

func (m *runningMean) add(s models.Score) {
	if s.Set {
		m.sum += float64(s.Value)
		m.n++
	}
}

func (m runningMean) mean() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.sum / float64(m.n)
	return &v
}

type questionStats struct {
	priority, statusQuo runningMean
	count               int
}

func accumulate(rs []*ResponseRecord) map[string]*questionStats {
	out := map[string]*questionStats{}
	for _, r := range rs {
		st := out[r.QuestionID]
		if st == nil {
			st = &questionStats{}
			out[r.QuestionID] = st
		}
		st.priority.add(r.Priority)
		st.statusQuo.add(r.StatusQuo)
		st.count++
	}
	return out
}
