package models

// BulkResponse is one row of a bulk update.
type BulkResponse struct {
	QuestionID string `json:"question_id"`
	Priority   Score  `json:"priority"`
	StatusQuo  Score  `json:"status_quo"`
	Comment    string `json:"comment"`
}

// BulkUpdateRequest is the body of POST /esg/dashboard/bulk-update/.
// The server treats Responses as a set.
type BulkUpdateRequest struct {
	Status    ResponseStatus `json:"status"`
	Responses []BulkResponse `json:"responses"`
	Year      int            `json:"year,omitempty"`
}

// BulkUpdateResult is the server acknowledgement of a bulk update.
type BulkUpdateResult struct {
	Status  ResponseStatus `json:"status"`
	Updated int            `json:"updated"`
	Year    int            `json:"year"`
}

// NewStakeholder is the body for adding a stakeholder to a group.
type NewStakeholder struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LoginResult carries the bearer token issued by the login endpoint.
type LoginResult struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}
