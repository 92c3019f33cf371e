package models

import "time"

// Category is one of the three ESG questionnaire sections.
type Category string

const (
	CategoryEnvironment Category = "Environment"
	CategorySocial      Category = "Social"
	CategoryGovernance  Category = "Corporate Governance"
)

// ResponseStatus records whether a response was saved as a draft or submitted.
type ResponseStatus string

const (
	StatusDraft     ResponseStatus = "draft"
	StatusSubmitted ResponseStatus = "submitted"
)

// Valid reports whether s is a status the bulk update endpoint accepts.
func (s ResponseStatus) Valid() bool {
	return s == StatusDraft || s == StatusSubmitted
}

// Question is an immutable catalogue entry served by the API.
type Question struct {
	ID        string   `json:"question_id"`
	IndexCode string   `json:"index_code"`
	Measure   string   `json:"measure"`
	Category  Category `json:"category"`
}

// Response is one respondent's answer to one question.
type Response struct {
	ID         string         `json:"response_id,omitempty"`
	QuestionID string         `json:"question_id"`
	Priority   Score          `json:"priority"`
	StatusQuo  Score          `json:"status_quo"`
	Comment    string         `json:"comment"`
	Status     ResponseStatus `json:"status,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at,omitempty"`
}

// DashboardQuestion is a catalogue entry with aggregated ratings.
type DashboardQuestion struct {
	Question
	AvgPriority  *float64 `json:"avg_priority"`
	AvgStatusQuo *float64 `json:"avg_status_quo"`
	Responses    int      `json:"response_count"`
}

// Dashboard is the client-admin dashboard snapshot for one reporting year.
type Dashboard struct {
	Year      int                 `json:"year"`
	Questions []DashboardQuestion `json:"questions"`
	Responses []Response          `json:"responses"`
	// Locked is set once the year has been submitted.
	Locked bool `json:"locked"`
}

// StakeholderGroup is a cohort of respondents that can be compared in charts.
type StakeholderGroup struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	DisplayName      string `json:"display_name"`
	StakeholderCount int    `json:"stakeholder_count"`
	IsDefault        bool   `json:"is_default"`
	IsGlobal         bool   `json:"is_global"`
	HasResponses     bool   `json:"has_responses"`
	ShowInTable      bool   `json:"show_in_table"`
	InvitationLink   string `json:"invitation_link,omitempty"`
	InvitationToken  string `json:"invitation_token,omitempty"`
}

// Pinned reports whether the group is always included and cannot be toggled.
func (g StakeholderGroup) Pinned() bool { return g.IsDefault || g.IsGlobal }

// Label returns the display name, falling back to the name.
func (g StakeholderGroup) Label() string {
	if g.DisplayName != "" {
		return g.DisplayName
	}
	return g.Name
}

// StakeholderStatus is the approval state of a stakeholder.
type StakeholderStatus string

const (
	StakeholderPending  StakeholderStatus = "pending"
	StakeholderApproved StakeholderStatus = "approved"
	StakeholderRejected StakeholderStatus = "rejected"
)

// Stakeholder is a respondent belonging to exactly one group.
type Stakeholder struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	FirstName    string            `json:"first_name"`
	LastName     string            `json:"last_name"`
	GroupID      string            `json:"group_id"`
	Status       StakeholderStatus `json:"status"`
	IsRegistered bool              `json:"is_registered"`
}

// QuestionAverage is one group's mean ratings for one question.
type QuestionAverage struct {
	QuestionID string  `json:"question_id"`
	IndexCode  string  `json:"index_code"`
	Priority   float64 `json:"priority"`
	StatusQuo  float64 `json:"status_quo"`
}

// GroupAnalysis collects a group's averages.
type GroupAnalysis struct {
	GroupID   string            `json:"group_id"`
	Questions []QuestionAverage `json:"questions"`
}

// StakeholderAnalysis is the per-group comparison snapshot for one year.
type StakeholderAnalysis struct {
	Year   int             `json:"year"`
	Groups []GroupAnalysis `json:"groups"`
}

// Invitation describes the outcome of validating an invitation token.
type Invitation struct {
	Valid    bool   `json:"valid"`
	GroupID  string `json:"group_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Redirect string `json:"redirect,omitempty"`
	Message  string `json:"message,omitempty"`
}
