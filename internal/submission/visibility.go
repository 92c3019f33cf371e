package submission

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/terramo-esg/terramo/internal/groups"
	"github.com/terramo-esg/terramo/internal/logging"
	"github.com/terramo-esg/terramo/internal/models"
)

// GroupsAPI is the part of the gateway client the visibility saver needs.
type GroupsAPI interface {
	SetGroupVisibility(ctx context.Context, groupID string, show bool) (models.StakeholderGroup, error)
}

// VisibilitySaver persists pending show-in-table toggles, one request per
// group, stopping at the first failure. Toggles already saved are cleared
// from the draft so a retry only sends what is left.
type VisibilitySaver struct {
	api      GroupsAPI
	vis      *groups.Visibility
	locale   string
	logger   *zap.Logger
	inFlight atomic.Bool
}

func NewVisibilitySaver(api GroupsAPI, vis *groups.Visibility, locale string, logger *zap.Logger) *VisibilitySaver {
	return &VisibilitySaver{api: api, vis: vis, locale: locale, logger: logging.OrNop(logger)}
}

func (s *VisibilitySaver) Save(ctx context.Context) Notice {
	if !s.inFlight.CompareAndSwap(false, true) {
		return notice(s.locale, LevelInfo, "save.in_progress")
	}
	defer s.inFlight.Store(false)

	changes := s.vis.Changed()
	if len(changes) == 0 {
		return notice(s.locale, LevelInfo, "groups.nothing")
	}
	for _, t := range changes {
		if _, err := s.api.SetGroupVisibility(ctx, t.GroupID, t.Show); err != nil {
			s.logger.Warn("group visibility update failed", zap.String("group_id", t.GroupID), zap.Error(err))
			return failureNotice(s.locale, err)
		}
		s.vis.Clear(t.GroupID)
	}
	s.logger.Info("group visibility saved", zap.Int("groups", len(changes)))
	return notice(s.locale, LevelSuccess, "groups.saved")
}
