package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/fypdesk/fyp-api/internal/config"
	"github.com/fypdesk/fyp-api/internal/database"
	"github.com/fypdesk/fyp-api/internal/handler"
	"github.com/fypdesk/fyp-api/internal/middleware"
	"github.com/fypdesk/fyp-api/internal/models"
	"github.com/fypdesk/fyp-api/internal/repository"
	"github.com/fypdesk/fyp-api/internal/router"
	"github.com/fypdesk/fyp-api/internal/service"
	"github.com/fypdesk/fyp-api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{}, &models.Department{}, &models.Student{}, &models.Staff{},
		&models.FYPGroup{}, &models.GroupMember{},
		&models.Proposal{}, &models.StudentFormSubmission{},
		&models.StudentDocument{}, &models.DocumentWindow{},
		&models.Defense{}, &models.DefenseEvaluator{}, &models.DefenseMark{},
		&models.ProjectEvaluation{}, &models.Notification{}, &models.AuditLog{},
		&models.ExternalToken{}, &models.SystemSetting{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	store, err := storage.NewLocalStore(cfg.UploadDir, cfg.UploadMaxBytes)
	if err != nil {
		log.Fatalf("failed to initialise document storage: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := service.RegisterValidators(validate); err != nil {
		log.Fatalf("failed to register validators: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	proposalRepo := repository.NewProposalRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	defenseRepo := repository.NewDefenseRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	tx := repository.NewTransactor(db)

	auditService := service.NewAuditService(auditRepo, logger)
	notifier := service.NewNotifier(notificationRepo, redisClient, natsConn, logger)
	settingsService := service.NewSettingsService(settingRepo, auditService, logger)

	authService := service.NewAuthService(userRepo, validate, cfg.JWTSecret, cfg.TokenTTL, logger)
	departmentService := service.NewDepartmentService(departmentRepo, validate, auditService, logger)
	studentService := service.NewStudentService(studentRepo, userRepo, tx, validate, auditService, logger)
	staffService := service.NewStaffService(staffRepo, userRepo, tx, validate, auditService, logger)
	groupService := service.NewGroupService(groupRepo, studentRepo, staffRepo, settingsService, tx, validate, notifier, auditService, logger)
	proposalService := service.NewProposalService(proposalRepo, groupRepo, studentRepo, tx, validate, notifier, auditService, logger)
	documentService := service.NewDocumentService(documentRepo, groupRepo, studentRepo, store, validate, notifier, auditService, logger)
	defenseService := service.NewDefenseService(defenseRepo, groupRepo, staffRepo, tx, validate, notifier, auditService, logger)
	evaluationService := service.NewEvaluationService(evaluationRepo, groupRepo, defenseRepo, staffRepo, validate, auditService, logger)
	resultsService := service.NewResultsService(groupRepo, defenseRepo, tx, validate, notifier, auditService, logger)
	notificationService := service.NewNotificationService(notificationRepo, groupRepo, studentRepo, redisClient, cfg.NotificationCacheTTL, validate, notifier, auditService, logger)
	tokenService := service.NewTokenService(tokenRepo, defenseRepo, validate, cfg.ExternalTokenTTL, auditService, logger)
	dashboardService := service.NewDashboardService(studentRepo, groupRepo, documentRepo, defenseRepo, redisClient, cfg.DashboardCacheTTL, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(authService, logger),
		DepartmentHandler:   handler.NewDepartmentHandler(departmentService, logger),
		StudentHandler:      handler.NewStudentHandler(studentService, logger),
		StaffHandler:        handler.NewStaffHandler(staffService, logger),
		GroupHandler:        handler.NewGroupHandler(groupService, logger),
		ProposalHandler:     handler.NewProposalHandler(proposalService, logger),
		DocumentHandler:     handler.NewDocumentHandler(documentService, logger),
		DefenseHandler:      handler.NewDefenseHandler(defenseService, logger),
		ResultsHandler:      handler.NewResultsHandler(resultsService, evaluationService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger),
		TokenHandler:        handler.NewTokenHandler(tokenService, logger),
		DashboardHandler:    handler.NewDashboardHandler(dashboardService, logger),
		AuditHandler:        handler.NewAuditHandler(auditService, logger),
		SettingsHandler:     handler.NewSettingsHandler(settingsService, logger),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
