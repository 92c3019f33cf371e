package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/terramo-esg/terramo/internal/models"
)

// Result is a decoded read together with its snapshot identity.
type Result[T any] struct {
	Data      T
	Version   uint64
	FetchedAt time.Time
}

func read[T any](ctx context.Context, g *Gateway, q Query, fresh bool) (Result[T], error) {
	var (
		out  T
		snap Snapshot
		err  error
	)
	if fresh {
		snap, err = g.Refetch(ctx, q, &out)
	} else {
		snap, err = g.Fetch(ctx, q, &out)
	}
	if err != nil {
		return Result[T]{}, err
	}
	return Result[T]{Data: out, Version: snap.Version, FetchedAt: snap.FetchedAt}, nil
}

// Client exposes the API endpoints the application uses.
type Client struct {
	gw *Gateway
}

// NewClient wraps gw.
func NewClient(gw *Gateway) *Client { return &Client{gw: gw} }

// Gateway returns the underlying gateway for subscriptions and invalidation.
func (c *Client) Gateway() *Gateway { return c.gw }

func yearParams(year int) url.Values {
	v := url.Values{}
	if year > 0 {
		v.Set("year", strconv.Itoa(year))
	}
	return v
}

func dashboardQuery(year int) Query {
	return Query{Tag: TagClientAdminDashboard, Path: "/esg/dashboard/client-admin/", Params: yearParams(year)}
}

// Questions returns the catalogue sorted by index code.
func (c *Client) Questions(ctx context.Context) (Result[[]models.Question], error) {
	res, err := read[[]models.Question](ctx, c.gw, Query{Tag: TagQuestions, Path: "/esg/questions/"}, false)
	if err != nil {
		return res, err
	}
	for i := range res.Data {
		if res.Data[i].Category == "" {
			res.Data[i].Category, _ = models.CategoryOf(res.Data[i].IndexCode)
		}
	}
	models.SortQuestions(res.Data)
	return res, nil
}

// Dashboard reads the client-admin dashboard for year (0 = current year).
func (c *Client) Dashboard(ctx context.Context, year int) (Result[models.Dashboard], error) {
	return read[models.Dashboard](ctx, c.gw, dashboardQuery(year), false)
}

// RefetchDashboard reads the dashboard bypassing the cache.
func (c *Client) RefetchDashboard(ctx context.Context, year int) (Result[models.Dashboard], error) {
	return read[models.Dashboard](ctx, c.gw, dashboardQuery(year), true)
}

// BulkUpdate writes all rows in one request. An empty batch is rejected with
// ErrEmptyBatch before any request is made.
func (c *Client) BulkUpdate(ctx context.Context, req models.BulkUpdateRequest) (models.BulkUpdateResult, error) {
	var out models.BulkUpdateResult
	if len(req.Responses) == 0 {
		return out, ErrEmptyBatch
	}
	err := c.gw.Mutate(ctx, Mutation{
		Method:      http.MethodPost,
		Path:        "/esg/dashboard/bulk-update/",
		Body:        req,
		Invalidates: []Tag{TagClientAdminDashboard, TagStakeholderAnalysis},
	}, &out)
	return out, err
}

// StakeholderGroups lists the client's groups.
func (c *Client) StakeholderGroups(ctx context.Context) (Result[[]models.StakeholderGroup], error) {
	return read[[]models.StakeholderGroup](ctx, c.gw, Query{Tag: TagStakeholderGroups, Path: "/authentication/groups/"}, false)
}

// SetGroupVisibility persists a group's show_in_table flag.
func (c *Client) SetGroupVisibility(ctx context.Context, groupID string, show bool) (models.StakeholderGroup, error) {
	var out models.StakeholderGroup
	err := c.gw.Mutate(ctx, Mutation{
		Method:      http.MethodPatch,
		Path:        "/authentication/groups/" + url.PathEscape(groupID) + "/",
		Body:        map[string]bool{"show_in_table": show},
		Invalidates: []Tag{TagStakeholderGroups, TagStakeholderAnalysis},
	}, &out)
	return out, err
}

// Stakeholders lists the members of a group.
func (c *Client) Stakeholders(ctx context.Context, groupID string) (Result[[]models.Stakeholder], error) {
	return read[[]models.Stakeholder](ctx, c.gw, Query{
		Tag:  TagStakeholder,
		Path: "/authentication/groups/" + url.PathEscape(groupID) + "/stakeholders/",
	}, false)
}

// CreateStakeholder adds a stakeholder to a group.
func (c *Client) CreateStakeholder(ctx context.Context, groupID string, in models.NewStakeholder) (models.Stakeholder, error) {
	var out models.Stakeholder
	err := c.gw.Mutate(ctx, Mutation{
		Method:      http.MethodPost,
		Path:        "/authentication/groups/" + url.PathEscape(groupID) + "/stakeholders/",
		Body:        in,
		Invalidates: []Tag{TagStakeholder, TagStakeholderGroups},
	}, &out)
	return out, err
}

// UpdateStakeholderStatus approves or rejects a stakeholder.
func (c *Client) UpdateStakeholderStatus(ctx context.Context, groupID, stakeholderID string, status models.StakeholderStatus) (models.Stakeholder, error) {
	var out models.Stakeholder
	err := c.gw.Mutate(ctx, Mutation{
		Method:      http.MethodPatch,
		Path:        "/authentication/groups/" + url.PathEscape(groupID) + "/stakeholders/" + url.PathEscape(stakeholderID) + "/",
		Body:        map[string]models.StakeholderStatus{"status": status},
		Invalidates: []Tag{TagStakeholder, TagStakeholderGroups},
	}, &out)
	return out, err
}

// StakeholderAnalysis reads per-group averages for year.
func (c *Client) StakeholderAnalysis(ctx context.Context, year int) (Result[models.StakeholderAnalysis], error) {
	return read[models.StakeholderAnalysis](ctx, c.gw, Query{
		Tag:    TagStakeholderAnalysis,
		Path:   "/esg/dashboard/stakeholder-analysis/",
		Params: yearParams(year),
	}, false)
}

// ValidateInvitation checks a stakeholder invitation token.
func (c *Client) ValidateInvitation(ctx context.Context, token string) (models.Invitation, error) {
	var out models.Invitation
	err := c.gw.Mutate(ctx, Mutation{
		Method: http.MethodPost,
		Path:   "/authentication/stakeholder/validate-invitation/",
		Body:   map[string]string{"token": token},
	}, &out)
	return out, err
}

// AcceptClientAdminInvite redeems a client-admin invitation.
func (c *Client) AcceptClientAdminInvite(ctx context.Context, token string) (models.Invitation, error) {
	var out models.Invitation
	err := c.gw.Mutate(ctx, Mutation{
		Method: http.MethodPost,
		Path:   "/clients/client-admin/accept-invite/" + url.PathEscape(token) + "/",
	}, &out)
	return out, err
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (models.LoginResult, error) {
	var out models.LoginResult
	err := c.gw.Mutate(ctx, Mutation{
		Method: http.MethodPost,
		Path:   "/authentication/login/",
		Body:   map[string]string{"email": email, "password": password},
	}, &out)
	return out, err
}
