package services

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/terramo-esg/terramo/internal/models"
	"github.com/terramo-esg/terramo/internal/session"
)

// Client is a customer organisation.
type Client struct {
	ID   string
	Name string
}

// User is an account that can log in.
type User struct {
	ID        string
	Email     string
	PassHash  []byte
	ClientID  string
	Role      session.Role
	GroupID   string
	CreatedAt time.Time
}

// Group is a stakeholder group as stored.
type Group struct {
	ID              string
	ClientID        string
	Name            string
	DisplayName     string
	IsDefault       bool
	IsGlobal        bool
	ShowInTable     bool
	InvitationToken string
}

// Stakeholder is a group member as stored.
type Stakeholder struct {
	ID        string
	GroupID   string
	Email     string
	FirstName string
	LastName  string
	Status    models.StakeholderStatus
	UserID    string
}

// ResponseRecord is one user's answer to one question for one year.
type ResponseRecord struct {
	ID         string
	UserID     string
	ClientID   string
	GroupID    string
	QuestionID string
	Year       int
	Priority   models.Score
	StatusQuo  models.Score
	Comment    string
	Status     models.ResponseStatus
	UpdatedAt  time.Time
}

// AdminInvite is a pending client-admin invitation.
type AdminInvite struct {
	Token     string
	ClientID  string
	Email     string
	Accepted  bool
	ExpiresAt time.Time
}

// Actor is the authenticated caller of a service method.
type Actor struct {
	UserID   string
	ClientID string
	Role     session.Role
}

func shortID(n int) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > len(id) {
		n = len(id)
	}
	return id[:n]
}

func toModelResponse(r *ResponseRecord) models.Response {
	return models.Response{
		ID:         r.ID,
		QuestionID: r.QuestionID,
		Priority:   r.Priority,
		StatusQuo:  r.StatusQuo,
		Comment:    r.Comment,
		Status:     r.Status,
		UpdatedAt:  r.UpdatedAt,
	}
}
