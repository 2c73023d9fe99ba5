package delivery

import (
	"net/http"

	authdelivery "ticktask-backend/internal/auth/delivery"
	"ticktask-backend/internal/task/usecase"
	"ticktask-backend/pkg/apperror"
	"ticktask-backend/pkg/httpx"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxAttachmentSize bounds multipart uploads
const MaxAttachmentSize = 20 << 20

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskUsecase usecase.TaskUsecase
	logger      *zap.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(taskUsecase usecase.TaskUsecase, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		taskUsecase: taskUsecase,
		logger:      logger.Named("http.task"),
	}
}

// GetTasks returns the tasks visible to the authenticated user
// GET /api/tasks?status=upcoming&priority=High&ordering=-deadline&page=1&page_size=10
func (h *TaskHandler) GetTasks(c *gin.Context) {
	page, err := httpx.ParsePagination(c)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}

	tasks, total, err := h.taskUsecase.List(c.Request.Context(), authdelivery.CurrentUser(c), usecase.ListFilter{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Ordering: c.Query("ordering"),
		Page:     page.Page,
		PageSize: page.PageSize,
	})
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, httpx.NewPage(page, total, tasks))
}

// GetTaskByID returns a specific task
// GET /api/tasks/:id
func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	task, err := h.taskUsecase.Get(c.Request.Context(), authdelivery.CurrentUser(c), c.Param("id"))
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// CreateTask creates one task per assignee
// POST /api/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req usecase.CreateTaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	result, err := h.taskUsecase.Create(c.Request.Context(), authdelivery.CurrentUser(c), req)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// UpdateTask updates an existing task
// PUT /api/tasks/:id, PATCH /api/tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	var req usecase.UpdateTaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	task, err := h.taskUsecase.Update(c.Request.Context(), authdelivery.CurrentUser(c), c.Param("id"), req)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// UpdateTaskStatus is a convenience endpoint to just update status
// PATCH /api/tasks/:id/status
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	task, err := h.taskUsecase.Update(c.Request.Context(), authdelivery.CurrentUser(c), c.Param("id"), usecase.UpdateTaskInput{
		Status: &req.Status,
	})
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// DeleteTask deletes a task
// DELETE /api/tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.taskUsecase.Delete(c.Request.Context(), authdelivery.CurrentUser(c), c.Param("id")); err != nil {
		httpx.Error(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UploadAttachment stores the multipart "file" field as the task attachment
// PUT /api/tasks/:id/attachment
func (h *TaskHandler) UploadAttachment(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxAttachmentSize)
	header, err := c.FormFile("file")
	if err != nil {
		httpx.Error(c, h.logger, apperror.Validation("file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	task, err := h.taskUsecase.UploadAttachment(c.Request.Context(), authdelivery.CurrentUser(c), c.Param("id"), header.Filename, contentType, file)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// RemoveAttachment clears the task attachment
// DELETE /api/tasks/:id/attachment
func (h *TaskHandler) RemoveAttachment(c *gin.Context) {
	task, err := h.taskUsecase.RemoveAttachment(c.Request.Context(), authdelivery.CurrentUser(c), c.Param("id"))
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// GetComments lists the comments of a task, oldest first
// GET /api/tasks/:id/comments
func (h *TaskHandler) GetComments(c *gin.Context) {
	comments, err := h.taskUsecase.ListComments(c.Request.Context(), authdelivery.CurrentUser(c), c.Param("id"))
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, comments)
}

// AddComment
// POST /api/tasks/:id/comments
func (h *TaskHandler) AddComment(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BindError(c, err)
		return
	}

	comment, err := h.taskUsecase.AddComment(c.Request.Context(), authdelivery.CurrentUser(c), c.Param("id"), req.Content)
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// GetStats returns the status and priority histogram of the user's tasks
// GET /api/tasks-stats
func (h *TaskHandler) GetStats(c *gin.Context) {
	stats, err := h.taskUsecase.Stats(c.Request.Context(), authdelivery.CurrentUser(c))
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetSummary returns per-user task counts for the visible users
// GET /api/summary-tasks?user_id=...
func (h *TaskHandler) GetSummary(c *gin.Context) {
	summaries, err := h.taskUsecase.Summary(c.Request.Context(), authdelivery.CurrentUser(c), c.Query("user_id"))
	if err != nil {
		httpx.Error(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, summaries)
}
