package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	activityrepo "ticktask-backend/internal/activity/repository"
	activityusecase "ticktask-backend/internal/activity/usecase"
	authrepo "ticktask-backend/internal/auth/repository"
	authusecase "ticktask-backend/internal/auth/usecase"
	chatrepo "ticktask-backend/internal/chat/repository"
	chatusecase "ticktask-backend/internal/chat/usecase"
	identityrepo "ticktask-backend/internal/identity/repository"
	identityusecase "ticktask-backend/internal/identity/usecase"
	"ticktask-backend/internal/notification"
	schedulerepo "ticktask-backend/internal/schedule/repository"
	scheduleusecase "ticktask-backend/internal/schedule/usecase"
	"ticktask-backend/internal/task/scheduler"
	taskrepo "ticktask-backend/internal/task/repository"
	taskusecase "ticktask-backend/internal/task/usecase"
	"ticktask-backend/internal/visibility"
	"ticktask-backend/pkg/config"
	"ticktask-backend/pkg/database"
	"ticktask-backend/pkg/fcm"
	"ticktask-backend/pkg/mailer"
	"ticktask-backend/pkg/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App holds the wired application. Optional integrations that fail to
// initialize are logged and disabled.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *gorm.DB

	Auth       authusecase.AuthUsecase
	Identity   identityusecase.IdentityUsecase
	Tasks      taskusecase.TaskUsecase
	Activities activityusecase.ActivityUsecase
	Chat       chatusecase.ChatUsecase
	Schedules  scheduleusecase.ScheduleUsecase

	Deliverer  *notification.Deliverer
	Outbox     *notification.Outbox
	Dispatcher *notification.Dispatcher
	Reminder   *scheduler.TaskReminderScheduler

	publisher notification.Publisher
}

// Options select how notifications are delivered
type Options struct {
	// Direct sends notifications inline instead of through the outbox
	Direct bool
}

// NewApp connects the database and builds every usecase.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*App, error) {
	db, err := database.New(cfg)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Logger: logger, DB: db}

	userRepo := authrepo.NewUserRepository(db)
	fcmTokenRepo := authrepo.NewFCMTokenRepository(db)
	taskRepository := taskrepo.NewGormTaskRepository(db)

	var scopeCache identityrepo.ScopeCache
	if cfg.RedisURL != "" {
		scopeCache, err = identityrepo.NewRedisScopeCache(ctx, cfg.RedisURL, cfg.ScopeCacheTTL, logger)
		if err != nil {
			logger.Warn("redis unavailable, leader scope cache disabled", zap.Error(err))
			scopeCache = nil
		}
	}
	app.Identity = identityusecase.NewIdentityUsecase(identityrepo.NewGormGroupRepository(db), userRepo, scopeCache, logger)
	resolver := visibility.NewResolver(app.Identity)

	var sender mailer.Sender = mailer.NewLogSender(logger)
	if cfg.GmailRefreshToken != "" {
		sender = mailer.NewGmailSender(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GmailRefreshToken, cfg.MailFrom)
	} else {
		logger.Info("gmail not configured, e-mail is logged only")
	}

	var push notification.PushClient
	if cfg.FirebaseCredentials != "" {
		client, err := fcm.NewClient(ctx, cfg.FirebaseCredentials, logger)
		if err != nil {
			logger.Warn("failed to initialize FCM client, push notifications disabled", zap.Error(err))
		} else {
			push = client
		}
	}
	app.Deliverer = notification.NewDeliverer(sender, push, fcmTokenRepo, logger)

	var notifier notification.Notifier
	if opts.Direct {
		notifier = notification.NewDirectNotifier(app.Deliverer, logger)
	} else {
		app.Outbox, err = notification.OpenOutbox(cfg.OutboxPath, logger)
		if err != nil {
			return nil, fmt.Errorf("open outbox: %w", err)
		}
		notifier = notification.NewOutboxNotifier(app.Outbox, logger)
		app.Dispatcher = notification.NewDispatcher(app.Outbox, app.Deliverer, logger, notification.DispatcherConfig{
			Interval:   cfg.OutboxInterval,
			MaxRetries: cfg.NotifyMaxRetries,
			Workers:    cfg.OutboxWorkers,
		})
	}

	if cfg.GoogleProjectID != "" && cfg.ActivityPubSubTopic != "" {
		// Accept either the short name or projects/<p>/topics/<name>.
		topicName := cfg.ActivityPubSubTopic
		if parts := strings.Split(topicName, "/"); len(parts) > 1 {
			topicName = parts[len(parts)-1]
		}
		pub, err := notification.NewPubSubPublisher(ctx, cfg.GoogleProjectID, topicName, cfg.GoogleCredentials, logger)
		if err != nil {
			logger.Warn("activity stream disabled", zap.Error(err))
		} else {
			app.publisher = pub
		}
	}
	if app.publisher == nil {
		app.publisher = notification.NewNoopPublisher()
	}

	var store storage.Store
	if s, err := storage.New(ctx, cfg); err != nil {
		logger.Warn("attachment storage unavailable", zap.Error(err))
	} else {
		store = s
	}

	app.Activities = activityusecase.NewActivityUsecase(activityrepo.NewGormActivityRepository(db), resolver, app.publisher, notifier, logger)
	app.Auth = authusecase.NewAuthUsecase(userRepo, fcmTokenRepo, app.Identity, resolver, cfg, logger)
	app.Tasks = taskusecase.NewTaskUsecase(taskusecase.Deps{
		Tasks:         taskRepository,
		Users:         userRepo,
		Access:        resolver,
		Activities:    app.Activities,
		Notifier:      notifier,
		Storage:       store,
		StoragePrefix: cfg.StoragePrefix,
		Logger:        logger,
	})
	app.Chat = chatusecase.NewChatUsecase(chatrepo.NewGormChatRepository(db), userRepo, notifier, logger)
	app.Schedules = scheduleusecase.NewScheduleUsecase(schedulerepo.NewGormScheduleRepository(db), logger)
	app.Reminder = scheduler.NewTaskReminderScheduler(taskRepository, userRepo, notifier, cfg.ReminderDaysAhead, logger)

	return app, nil
}

// StartBackground starts the outbox dispatcher and the reminder cron.
func (a *App) StartBackground() error {
	if a.Dispatcher != nil {
		a.Dispatcher.Start()
	}
	if a.Config.ReminderCron != "" {
		if err := a.Reminder.Start(a.Config.ReminderCron); err != nil {
			return err
		}
	}
	return nil
}

// Close stops background work and releases connections.
func (a *App) Close(ctx context.Context) error {
	if a.Dispatcher != nil {
		a.Dispatcher.Stop(ctx)
	}
	if a.Config.ReminderCron != "" {
		a.Reminder.Stop(ctx)
	}

	var errs []error
	if err := a.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if a.Outbox != nil {
		if err := a.Outbox.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close outbox: %w", err))
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
