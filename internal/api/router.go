// Package api is the development backend: an in-repo implementation of the
// ESG REST contract used for local runs and end-to-end tests.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/terramo-esg/terramo/internal/logging"
	"github.com/terramo-esg/terramo/internal/middleware"
	"github.com/terramo-esg/terramo/internal/models"
	"github.com/terramo-esg/terramo/internal/services"
	"github.com/terramo-esg/terramo/internal/session"
	"github.com/terramo-esg/terramo/internal/utils"
)

const maxBody = 1 << 20

type Options struct {
	Secret     []byte
	InviteBase string
	Logger     *zap.Logger
	// Version is reported by /health.
	Version string
	// AllowedOrigins limits CORS; empty allows any origin.
	AllowedOrigins []string
	// Locale is used when a request names no supported language.
	Locale string
}

type Router struct {
	store      Store
	auth       *services.AuthService
	responses  *services.ResponseService
	dashboards *services.DashboardService
	groups     *services.GroupService
	invites    *services.InvitationService
	opts       Options
	logger     *zap.Logger
}

func NewRouter(store Store, opts Options) *Router {
	secret := opts.Secret
	signer := func(c session.Claims, ttl time.Duration) (string, error) {
		return session.Sign(secret, c, ttl, time.Now())
	}
	return &Router{
		store:      store,
		auth:       services.NewAuthService(store, signer),
		responses:  services.NewResponseService(store),
		dashboards: services.NewDashboardService(store),
		groups:     services.NewGroupService(store, opts.InviteBase),
		invites:    services.NewInvitationService(store),
		opts:       opts,
		logger:     logging.OrNop(opts.Logger),
	}
}

// Auth exposes the auth service for seeding.
func (rt *Router) Auth() *services.AuthService { return rt.auth }

func (rt *Router) Register(mux *http.ServeMux) {
	authed := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }

	mux.HandleFunc("GET /health", rt.handleHealth)
	mux.HandleFunc("POST /api/authentication/login/{$}", rt.handleLogin)
	mux.HandleFunc("POST /api/authentication/stakeholder/validate-invitation/{$}", rt.handleValidateInvitation)
	mux.HandleFunc("POST /api/clients/client-admin/accept-invite/{token}/{$}", rt.handleAcceptInvite)

	mux.Handle("GET /api/esg/questions/{$}", authed(rt.handleQuestions))
	mux.Handle("GET /api/esg/dashboard/client-admin/{$}", authed(rt.handleDashboard))
	mux.Handle("GET /api/esg/dashboard/client-admin/export/{$}", authed(rt.handleDashboardExport))
	mux.Handle("POST /api/esg/dashboard/bulk-update/{$}", authed(rt.handleBulkUpdate))
	mux.Handle("GET /api/esg/dashboard/stakeholder-analysis/{$}", authed(rt.handleAnalysis))
	mux.Handle("GET /api/esg/dashboard/stakeholder-analysis/export/{$}", authed(rt.handleAnalysisExport))

	mux.Handle("GET /api/authentication/groups/{$}", authed(rt.handleGroups))
	mux.Handle("PATCH /api/authentication/groups/{id}/{$}", authed(rt.handleGroupVisibility))
	mux.Handle("GET /api/authentication/groups/{id}/stakeholders/{$}", authed(rt.handleStakeholders))
	mux.Handle("POST /api/authentication/groups/{id}/stakeholders/{$}", authed(rt.handleCreateStakeholder))
	mux.Handle("PATCH /api/authentication/groups/{id}/stakeholders/{sid}/{$}", authed(rt.handleStakeholderStatus))
}

// Handler returns the routes wrapped in the standard middleware chain.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	rt.Register(mux)
	return middleware.Chain(mux,
		middleware.RequestLogger(rt.logger),
		middleware.CORS(rt.opts.AllowedOrigins),
		middleware.NoStore,
		middleware.SecureHeaders,
		middleware.Locale(rt.opts.Locale),
		middleware.WithAuth(rt.opts.Secret),
	)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeCSV(w http.ResponseWriter, name string, b []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	_, _ = w.Write(b)
}

// writeServiceError maps service errors to HTTP status codes.
func (rt *Router) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	se, ok := services.AsServiceError(err)
	if !ok {
		rt.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	status := http.StatusBadRequest
	switch se.Code {
	case services.ErrorForbidden:
		status = http.StatusForbidden
	case services.ErrorNotFound:
		status = http.StatusNotFound
	case services.ErrorConflict:
		status = http.StatusConflict
	case services.ErrorUnauthorized:
		status = http.StatusUnauthorized
	}
	writeError(w, status, se.Message)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "request body required")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func actorFrom(r *http.Request) services.Actor {
	c, _ := middleware.ClaimsFromContext(r.Context())
	return services.Actor{UserID: c.UserID, ClientID: c.ClientID, Role: c.Role}
}

// yearParam reads ?year=, 0 when absent.
func yearParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return 0, true
	}
	y, err := strconv.Atoi(raw)
	if err != nil || y < 1900 || y > 9999 {
		writeError(w, http.StatusBadRequest, "year must be a four digit number")
		return 0, false
	}
	return y, true
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"name":    "Terramo development API",
		"locale":  locale,
		"msg":     utils.T(locale, "health.ok"),
		"version": rt.opts.Version,
	})
}

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (rt *Router) handleValidateInvitation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	inv, err := rt.invites.ValidateStakeholder(req.Token)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (rt *Router) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	inv, err := rt.invites.AcceptClientAdmin(r.PathValue("token"))
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (rt *Router) handleQuestions(w http.ResponseWriter, r *http.Request) {
	qs, err := rt.store.ListQuestions()
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	models.SortQuestions(qs)
	writeJSON(w, http.StatusOK, qs)
}

func (rt *Router) handleDashboard(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	d, err := rt.dashboards.ClientAdmin(actorFrom(r), year)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// GET ...?year=&format=averages|responses
func (rt *Router) handleDashboardExport(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	d, err := rt.dashboards.ClientAdmin(actorFrom(r), year)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	var b []byte
	switch format := r.URL.Query().Get("format"); format {
	case "", "averages":
		b, err = services.ExportDashboardCSV(d)
	case "responses":
		b, err = services.ExportResponsesCSV(d)
	default:
		writeError(w, http.StatusBadRequest, "unsupported format")
		return
	}
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeCSV(w, "dashboard-"+strconv.Itoa(d.Year)+".csv", b)
}

func (rt *Router) handleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req models.BulkUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	actor := actorFrom(r)
	res, err := rt.responses.BulkUpdate(actor, req)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	rt.logger.Info("bulk update",
		zap.String("user_id", actor.UserID),
		zap.Int("year", res.Year),
		zap.String("status", string(res.Status)),
		zap.Int("updated", res.Updated))
	writeJSON(w, http.StatusOK, res)
}

func (rt *Router) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	a, err := rt.dashboards.StakeholderAnalysis(actorFrom(r), year)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (rt *Router) handleAnalysisExport(w http.ResponseWriter, r *http.Request) {
	year, ok := yearParam(w, r)
	if !ok {
		return
	}
	actor := actorFrom(r)
	a, err := rt.dashboards.StakeholderAnalysis(actor, year)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	qs, err := rt.store.ListQuestions()
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	gs, err := rt.store.ListGroups(actor.ClientID)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	labels := make(map[string]string, len(gs))
	for _, g := range gs {
		labels[g.ID] = g.DisplayName
	}
	b, err := services.ExportAnalysisCSV(a, qs, labels)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeCSV(w, "stakeholder-analysis-"+strconv.Itoa(a.Year)+".csv", b)
}

func (rt *Router) handleGroups(w http.ResponseWriter, r *http.Request) {
	gs, err := rt.groups.List(actorFrom(r))
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gs)
}

func (rt *Router) handleGroupVisibility(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShowInTable *bool `json:"show_in_table"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ShowInTable == nil {
		writeError(w, http.StatusBadRequest, "show_in_table is required")
		return
	}
	g, err := rt.groups.SetVisibility(actorFrom(r), r.PathValue("id"), *req.ShowInTable)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (rt *Router) handleStakeholders(w http.ResponseWriter, r *http.Request) {
	list, err := rt.groups.Stakeholders(actorFrom(r), r.PathValue("id"))
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (rt *Router) handleCreateStakeholder(w http.ResponseWriter, r *http.Request) {
	var req models.NewStakeholder
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := rt.groups.AddStakeholder(actorFrom(r), r.PathValue("id"), req)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (rt *Router) handleStakeholderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status models.StakeholderStatus `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	st, err := rt.groups.UpdateStakeholderStatus(actorFrom(r), r.PathValue("id"), r.PathValue("sid"), req.Status)
	if err != nil {
		rt.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
