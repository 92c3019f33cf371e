package services

import (
	"strings"
	"testing"
	"time"

	"github.com/terramo-esg/terramo/internal/models"
)

func seedResponses(t *testing.T, store *stubStore) {
	t.Helper()
	svc := newTestResponseService(store)
	write := func(actor Actor, rows ...models.BulkResponse) {
		if _, err := svc.BulkUpdate(actor, models.BulkUpdateRequest{Status: models.StatusDraft, Year: 2024, Responses: rows}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	write(admin,
		models.BulkResponse{QuestionID: "q1", Priority: models.NewScore(4), StatusQuo: models.NewScore(1)},
		models.BulkResponse{QuestionID: "q2", Priority: models.Unanswered, StatusQuo: models.NewScore(2)},
	)
	write(Actor{UserID: "sh1", ClientID: "c1"},
		models.BulkResponse{QuestionID: "q1", Priority: models.NewScore(2), StatusQuo: models.NewScore(3)},
	)
}

func TestClientAdminDashboard(t *testing.T) {
	store := newStubStore()
	seedResponses(t, store)
	svc := NewDashboardService(store)

	d, err := svc.ClientAdmin(admin, 2024)
	if err != nil {
		t.Fatalf("ClientAdmin returned error: %v", err)
	}
	codes := []string{}
	for _, q := range d.Questions {
		codes = append(codes, q.IndexCode)
	}
	if want := "E-1,S-1,G-1"; strings.Join(codes, ",") != want {
		t.Fatalf("question order = %v, want %s", codes, want)
	}
	q1 := d.Questions[0]
	if q1.AvgPriority == nil || *q1.AvgPriority != 3 || *q1.AvgStatusQuo != 2 || q1.Responses != 2 {
		t.Fatalf("q1 averages = %+v", q1)
	}
	if q1.Category != models.CategoryEnvironment {
		t.Fatalf("q1 category = %q", q1.Category)
	}
	q2 := d.Questions[1]
	if q2.AvgPriority != nil || q2.AvgStatusQuo == nil || *q2.AvgStatusQuo != 2 {
		t.Fatalf("q2 averages = %+v", q2)
	}
	if d.Questions[2].AvgPriority != nil || d.Questions[2].Responses != 0 {
		t.Fatalf("unanswered question has averages: %+v", d.Questions[2])
	}
	if len(d.Responses) != 2 {
		t.Fatalf("own responses = %d, want 2", len(d.Responses))
	}
	if d.Locked {
		t.Fatalf("draft year reported locked")
	}
}

func TestClientAdminDashboardDefaultsToCurrentYear(t *testing.T) {
	svc := NewDashboardService(newStubStore())
	svc.now = func() time.Time { return time.Date(2031, 1, 2, 0, 0, 0, 0, time.UTC) }
	d, err := svc.ClientAdmin(admin, 0)
	if err != nil {
		t.Fatalf("ClientAdmin: %v", err)
	}
	if d.Year != 2031 || d.Responses == nil {
		t.Fatalf("dashboard = %+v", d)
	}
}

func TestStakeholderAnalysisPerGroup(t *testing.T) {
	store := newStubStore()
	seedResponses(t, store)

	a, err := NewDashboardService(store).StakeholderAnalysis(admin, 2024)
	if err != nil {
		t.Fatalf("StakeholderAnalysis returned error: %v", err)
	}
	byGroup := map[string]models.GroupAnalysis{}
	for _, g := range a.Groups {
		byGroup[g.GroupID] = g
	}
	if _, ok := byGroup["x"]; ok {
		t.Fatalf("other client's group leaked into analysis")
	}
	all := byGroup["all"]
	if len(all.Questions) != 2 || all.Questions[0].IndexCode != "E-1" || all.Questions[0].Priority != 3 {
		t.Fatalf("global group = %+v", all)
	}
	mgmt := byGroup["mgmt"]
	if len(mgmt.Questions) != 1 || mgmt.Questions[0].Priority != 2 || mgmt.Questions[0].StatusQuo != 3 {
		t.Fatalf("management group = %+v", mgmt)
	}
	if len(byGroup["cust"].Questions) != 0 {
		t.Fatalf("customers group should be empty: %+v", byGroup["cust"])
	}
}
