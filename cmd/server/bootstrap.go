package main

import (
	"fmt"
	"os"

	"github.com/huangang/feedback360/internal/config"
	"github.com/huangang/feedback360/internal/models"
	"github.com/huangang/feedback360/internal/repository"
	"github.com/huangang/feedback360/internal/services"
	"github.com/huangang/feedback360/pkg/logger"
	"gorm.io/gorm"
)

// appServices holds all initialized services needed by the application.
type appServices struct {
	cfg        *config.Config
	db         *gorm.DB
	repo       repository.AssessmentRepository
	assessment *services.AssessmentService
	views      *services.ViewRouter
	hub        *services.SSEHub
	taskQueue  services.TaskQueue
	worker     *services.Worker
	reminders  *services.ReminderScheduler
}

// bootstrap initializes all application dependencies: storage, agent, queue, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	app := &appServices{cfg: cfg, hub: services.GetSSEHub()}

	// Storage
	if cfg.Database.Driver == "memory" {
		logger.Warn().Msg("Using in-memory storage; assessments are lost on restart")
		app.repo = repository.NewMemoryRepository()
	} else {
		if err := models.InitDB(&cfg.Database); err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		if err := models.AutoMigrate(models.GetDB()); err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}
		app.db = models.GetDB()
		app.repo = repository.NewGormRepository(app.db)
		logger.Info().Str("driver", cfg.Database.Driver).Msg("Database ready")
	}

	if len(cfg.Agent.Providers) == 0 {
		logger.Warn().Msg("No agent providers configured; invitations and analysis will fail")
	}
	agent := services.NewAgentService(&cfg.Agent)

	app.assessment = services.NewAssessmentService(app.repo, agent, cfg.App.Origin)
	app.assessment.SetEventHub(app.hub)
	app.views = services.NewViewRouter(app.repo)

	// Task queue (uses Redis if enabled, otherwise sync mode)
	app.taskQueue = services.InitTaskQueue(cfg)
	app.assessment.SetTaskQueue(app.taskQueue)
	if syncQueue, ok := app.taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(app.assessment.ProcessAnalysisTask)
	}

	// Async worker only when the queue actually went to Redis
	if app.taskQueue.IsAsync() {
		app.worker = services.NewWorker(&cfg.Redis)
		if app.worker != nil {
			app.worker.SetProcessor(app.assessment.ProcessAnalysisTask)
			if err := app.worker.Start(); err != nil {
				logger.Errorf("Failed to start worker: %v", err)
			}
		}
	}

	// Reminder scheduler
	if cfg.Reminder.Enabled {
		app.reminders = services.NewReminderScheduler(app.assessment, &cfg.Reminder, services.NewHolidayCalendar())
		if app.db != nil {
			app.reminders.SetLocker(repository.NewGormLocker(app.db, instanceName()))
		}
		if err := app.reminders.Start(); err != nil {
			logger.Errorf("Failed to start reminder scheduler: %v", err)
			app.reminders = nil
		}
	}

	return app
}

// instanceName identifies this process in scheduler lock rows.
func instanceName() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	if s.reminders != nil {
		s.reminders.Stop()
		logger.Info().Msg("Reminder scheduler stopped")
	}
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Close(); err != nil {
			logger.Warnf("Failed to close task queue: %v", err)
		}
	}
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
