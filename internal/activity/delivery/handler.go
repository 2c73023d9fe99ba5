package delivery

import (
	"net/http"
	"strconv"
	"time"

	"ticktask-backend/internal/activity/domain"
	"ticktask-backend/internal/activity/usecase"
	authdelivery "ticktask-backend/internal/auth/delivery"
	"ticktask-backend/internal/visibility"
	"ticktask-backend/pkg/apperror"
	"ticktask-backend/pkg/httpx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// ActivityHandler serves the activity feed
type ActivityHandler struct {
	activityUsecase usecase.ActivityUsecase
	logger          *zap.Logger
}

func NewActivityHandler(activityUsecase usecase.ActivityUsecase, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{activityUsecase: activityUsecase, logger: logger.Named("http.activity")}
}

// GetActivities lists activities newest first
// GET /api/activities?all=true&view=team&action_icontains=task&username=ann&date_from=2026-01-01&date_to=2026-01-31
func (h *ActivityHandler) GetActivities(c *gin.Context) {
	page, err := httpx.ParsePagination(c)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}

	view := visibility.ActivityView{Team: c.Query("view") == "team"}
	if raw := c.Query("all"); raw != "" {
		all, err := strconv.ParseBool(raw)
		if err != nil {
			httpx.Error(c, h.logger, apperror.Validation("invalid all %q", raw))
			return
		}
		view.All = all
	}

	filter := domain.ListFilter{
		ActionContains: c.Query("action_icontains"),
		Username:       c.Query("username"),
		Limit:          page.PageSize,
		Offset:         page.Offset(),
	}
	if filter.DateFrom, err = parseDate(c.Query("date_from"), false); err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	if filter.DateTo, err = parseDate(c.Query("date_to"), true); err != nil {
		httpx.Error(c, h.logger, err)
		return
	}

	activities, total, err := h.activityUsecase.List(c.Request.Context(), authdelivery.CurrentUser(c), view, filter)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, httpx.NewPage(page, total, activities))
}

// parseDate accepts a calendar day or an RFC 3339 timestamp. A day used as
// an upper bound covers the whole day.
func parseDate(raw string, upper bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, apperror.Validation("invalid date %q", raw)
	}
	if upper {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}
