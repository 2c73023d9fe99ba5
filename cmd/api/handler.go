package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	activitydelivery "ticktask-backend/internal/activity/delivery"
	authdelivery "ticktask-backend/internal/auth/delivery"
	chatdelivery "ticktask-backend/internal/chat/delivery"
	identitydelivery "ticktask-backend/internal/identity/delivery"
	scheduledelivery "ticktask-backend/internal/schedule/delivery"
	taskdelivery "ticktask-backend/internal/task/delivery"
	"ticktask-backend/pkg/httpx"
	"ticktask-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	app             *App
	logger          *zap.Logger
	authHandler     *authdelivery.AuthHandler
	identityHandler *identitydelivery.IdentityHandler
	taskHandler     *taskdelivery.TaskHandler
	activityHandler *activitydelivery.ActivityHandler
	chatHandler     *chatdelivery.ChatHandler
	scheduleHandler *scheduledelivery.ScheduleHandler
}

func NewHandler(app *App) *Handler {
	return &Handler{
		app:             app,
		logger:          app.Logger.Named("http"),
		authHandler:     authdelivery.NewAuthHandler(app.Auth, app.Logger),
		identityHandler: identitydelivery.NewIdentityHandler(app.Identity, app.Logger),
		taskHandler:     taskdelivery.NewTaskHandler(app.Tasks, app.Logger),
		activityHandler: activitydelivery.NewActivityHandler(app.Activities, app.Logger),
		chatHandler:     chatdelivery.NewChatHandler(app.Chat, app.Logger),
		scheduleHandler: scheduledelivery.NewScheduleHandler(app.Schedules, app.Logger),
	}
}

// Engine builds the gin engine with middleware and routes.
func (h *Handler) Engine() *gin.Engine {
	if h.app.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), h.requestLogger())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, "+httpx.RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h)
	return r
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.FromContext(c.Request.Context(), h.logger).Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
func (h *Handler) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	h.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
