// Package submission sends the draft store to the API as one bulk update and
// turns every outcome into a notice.
package submission

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/terramo-esg/terramo/internal/draft"
	"github.com/terramo-esg/terramo/internal/gateway"
	"github.com/terramo-esg/terramo/internal/logging"
	"github.com/terramo-esg/terramo/internal/models"
)

// ErrInvalidStatus is reported for statuses other than draft and submitted.
var ErrInvalidStatus = errors.New("invalid response status")

// ResponsesAPI is the part of the gateway client the coordinator needs.
type ResponsesAPI interface {
	BulkUpdate(ctx context.Context, req models.BulkUpdateRequest) (models.BulkUpdateResult, error)
	RefetchDashboard(ctx context.Context, year int) (gateway.Result[models.Dashboard], error)
}

// Coordinator saves a draft store. At most one save runs at a time; a second
// call while one is in flight returns immediately with an info notice.
type Coordinator struct {
	api      ResponsesAPI
	drafts   *draft.Store
	locale   string
	logger   *zap.Logger
	inFlight atomic.Bool
}

// NewCoordinator binds a coordinator to a draft store.
func NewCoordinator(api ResponsesAPI, drafts *draft.Store, locale string, logger *zap.Logger) *Coordinator {
	return &Coordinator{api: api, drafts: drafts, locale: locale, logger: logging.OrNop(logger)}
}

// Saving reports whether a save is in flight, for disabling triggers.
func (c *Coordinator) Saving() bool { return c.inFlight.Load() }

// Save sends every edited question with the given status. It never returns
// an error: failures become error notices and leave the edits in place.
func (c *Coordinator) Save(ctx context.Context, status models.ResponseStatus) Notice {
	if !status.Valid() {
		n := notice(c.locale, LevelError, "save.failed")
		n.Err = ErrInvalidStatus
		return n
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return notice(c.locale, LevelInfo, "save.in_progress")
	}
	defer c.inFlight.Store(false)

	if cur := c.drafts.State(); cur.Locked {
		return notice(c.locale, LevelWarning, "save.locked")
	} else if !cur.HasChanges() {
		return notice(c.locale, LevelInfo, "save.nothing")
	}

	st := c.drafts.Dispatch(draft.SaveStarted{})
	rows := st.Pending()
	if len(rows) == 0 {
		c.drafts.Dispatch(draft.SaveFailed{})
		return notice(c.locale, LevelInfo, "save.nothing")
	}

	log := c.logger.With(zap.Int("year", st.Year), zap.String("status", string(status)), zap.Int("rows", len(rows)))
	res, err := c.api.BulkUpdate(ctx, models.BulkUpdateRequest{Status: status, Responses: rows, Year: st.Year})
	if err != nil {
		c.drafts.Dispatch(draft.SaveFailed{})
		if errors.Is(err, gateway.ErrEmptyBatch) {
			return notice(c.locale, LevelInfo, "save.nothing")
		}
		log.Warn("bulk update failed", zap.Error(err))
		return failureNotice(c.locale, err)
	}
	log.Info("bulk update saved", zap.Int("updated", res.Updated))
	c.drafts.Dispatch(draft.SaveSucceeded{Sent: st.Edits})
	c.resync(ctx, st, rows, status)

	if status == models.StatusSubmitted {
		return notice(c.locale, LevelSuccess, "save.submit_ok")
	}
	return notice(c.locale, LevelSuccess, "save.draft_ok")
}

// resync makes the server side of the draft store authoritative again. If
// the refetch fails the saved rows are folded into the baseline so the
// display does not fall back to pre-save values; the next snapshot replaces it.
func (c *Coordinator) resync(ctx context.Context, sent draft.State, rows []models.BulkResponse, status models.ResponseStatus) {
	dash, err := c.api.RefetchDashboard(ctx, sent.Year)
	if c.drafts.State().Year != sent.Year {
		return
	}
	if err == nil {
		c.drafts.InitializeFromServer(dash.Version, dash.Data)
		return
	}
	c.logger.Warn("dashboard refetch after save failed", zap.Int("year", sent.Year), zap.Error(err))
	values := make(map[string]draft.Value, len(sent.Server)+len(rows))
	for id, v := range sent.Server {
		values[id] = v
	}
	for _, r := range rows {
		values[r.QuestionID] = draft.Value{Priority: r.Priority, StatusQuo: r.StatusQuo, Comment: r.Comment}
	}
	c.drafts.Dispatch(draft.SeedFromServer{Values: values, Locked: sent.Locked || status == models.StatusSubmitted})
}
