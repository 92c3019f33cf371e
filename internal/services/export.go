package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"

	"github.com/terramo-esg/terramo/internal/models"
)

// ExportDashboardCSV renders one row per question with the client-wide
// averages, in index code order.
func ExportDashboardCSV(d *models.Dashboard) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"index_code", "category", "measure", "avg_priority", "avg_status_quo", "responses"})
	for _, q := range d.Questions {
		rec := []string{
			q.IndexCode,
			string(q.Category),
			q.Measure,
			formatAvg(q.AvgPriority),
			formatAvg(q.AvgStatusQuo),
			strconv.Itoa(q.Responses),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportAnalysisCSV renders a wide table: one row per group, one column
// pair per index code. Cells for questions a group did not rate stay empty.
func ExportAnalysisCSV(a *models.StakeholderAnalysis, questions []models.Question, labels map[string]string) ([]byte, error) {
	qs := append([]models.Question(nil), questions...)
	models.SortQuestions(qs)

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"group"}
	for _, q := range qs {
		header = append(header, q.IndexCode+" priority", q.IndexCode+" status_quo")
	}
	_ = w.Write(header)
	for _, g := range a.Groups {
		byQuestion := make(map[string]models.QuestionAverage, len(g.Questions))
		for _, qa := range g.Questions {
			byQuestion[qa.QuestionID] = qa
		}
		label := labels[g.GroupID]
		if label == "" {
			label = g.GroupID
		}
		row := make([]string, 0, 1+2*len(qs))
		row = append(row, label)
		for _, q := range qs {
			qa, ok := byQuestion[q.ID]
			if !ok {
				row = append(row, "", "")
				continue
			}
			row = append(row, formatFloat(qa.Priority), formatFloat(qa.StatusQuo))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ExportResponsesCSV renders the caller's own responses in long format.
func ExportResponsesCSV(d *models.Dashboard) ([]byte, error) {
	codes := make(map[string]string, len(d.Questions))
	for _, q := range d.Questions {
		codes[q.ID] = q.IndexCode
	}
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"index_code", "priority", "status_quo", "comment", "status", "updated_at"})
	for _, r := range d.Responses {
		updated := ""
		if !r.UpdatedAt.IsZero() {
			updated = r.UpdatedAt.UTC().Format(time.RFC3339)
		}
		rec := []string{codes[r.QuestionID], scoreCell(r.Priority), scoreCell(r.StatusQuo), r.Comment, string(r.Status), updated}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func scoreCell(s models.Score) string {
	if !s.Set {
		return ""
	}
	return strconv.Itoa(s.Value)
}

func formatAvg(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
