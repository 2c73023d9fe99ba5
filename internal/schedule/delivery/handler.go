package delivery

import (
	"net/http"

	authdelivery "ticktask-backend/internal/auth/delivery"
	"ticktask-backend/internal/schedule/usecase"
	"ticktask-backend/pkg/httpx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ScheduleHandler serves personal notes, calendar entries and the dashboard counters
type ScheduleHandler struct {
	scheduleUsecase usecase.ScheduleUsecase
	logger          *zap.Logger
}

func NewScheduleHandler(scheduleUsecase usecase.ScheduleUsecase, logger *zap.Logger) *ScheduleHandler {
	return &ScheduleHandler{scheduleUsecase: scheduleUsecase, logger: logger.Named("http.schedule")}
}

// GET /api/notes
func (h *ScheduleHandler) ListNotes(c *gin.Context) {
	notes, err := h.scheduleUsecase.ListNotes(c.Request.Context(), authdelivery.CurrentUser(c))
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

// POST /api/notes
func (h *ScheduleHandler) CreateNote(c *gin.Context) {
	var req usecase.NoteInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}
	note, err := h.scheduleUsecase.CreateNote(c.Request.Context(), authdelivery.CurrentUser(c), req)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

// DELETE /api/notes/delete/:id
func (h *ScheduleHandler) DeleteNote(c *gin.Context) {
	if err := h.scheduleUsecase.DeleteNote(c.Request.Context(), authdelivery.CurrentUser(c), c.Param("id")); err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/schedules
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	items, err := h.scheduleUsecase.ListSchedules(c.Request.Context(), authdelivery.CurrentUser(c))
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GET /api/schedules/:id
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	item, err := h.scheduleUsecase.GetSchedule(c.Request.Context(), authdelivery.CurrentUser(c), c.Param("id"))
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// POST /api/schedules
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var req usecase.ScheduleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}
	item, err := h.scheduleUsecase.CreateSchedule(c.Request.Context(), authdelivery.CurrentUser(c), req)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateSchedule handles both PUT and PATCH; absent fields are kept.
// PUT/PATCH /api/schedules/:id
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	var req usecase.SchedulePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}
	item, err := h.scheduleUsecase.UpdateSchedule(c.Request.Context(), authdelivery.CurrentUser(c), c.Param("id"), req)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// DELETE /api/schedules/:id
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	if err := h.scheduleUsecase.DeleteSchedule(c.Request.Context(), authdelivery.CurrentUser(c), c.Param("id")); err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/dashboard-stats
func (h *ScheduleHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.scheduleUsecase.DashboardStats(c.Request.Context(), authdelivery.CurrentUser(c))
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
