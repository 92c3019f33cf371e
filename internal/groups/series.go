package groups

import "github.com/terramo-esg/terramo/internal/models"

// Point is one question's averages within a series.
type Point struct {
	IndexCode string
	Priority  float64
	StatusQuo float64
	Missing   bool
}

// Series is one group's line in the comparison chart.
type Series struct {
	GroupID string
	Label   string
	Points  []Point
}

// ComparisonSeries builds one series per selected group with one point per
// question, in index-code order. Questions a group has no averages for are
// marked Missing.
func ComparisonSeries(analysis models.StakeholderAnalysis, questions []models.Question, selected []models.StakeholderGroup) []Series {
	qs := append([]models.Question(nil), questions...)
	models.SortQuestions(qs)

	byGroup := make(map[string]map[string]models.QuestionAverage, len(analysis.Groups))
	for _, ga := range analysis.Groups {
		m := make(map[string]models.QuestionAverage, len(ga.Questions))
		for _, qa := range ga.Questions {
			m[qa.QuestionID] = qa
		}
		byGroup[ga.GroupID] = m
	}

	out := make([]Series, 0, len(selected))
	for _, g := range selected {
		avgs := byGroup[g.ID]
		s := Series{GroupID: g.ID, Label: g.Label(), Points: make([]Point, 0, len(qs))}
		for _, q := range qs {
			qa, ok := avgs[q.ID]
			s.Points = append(s.Points, Point{
				IndexCode: q.IndexCode,
				Priority:  qa.Priority,
				StatusQuo: qa.StatusQuo,
				Missing:   !ok,
			})
		}
		out = append(out, s)
	}
	return out
}
