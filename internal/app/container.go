package app

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/nekogravitycat/mentorship-backend/internal/api"
	"github.com/nekogravitycat/mentorship-backend/internal/application"
	"github.com/nekogravitycat/mentorship-backend/internal/auth"
	"github.com/nekogravitycat/mentorship-backend/internal/availability"
	"github.com/nekogravitycat/mentorship-backend/internal/category"
	"github.com/nekogravitycat/mentorship-backend/internal/config"
	"github.com/nekogravitycat/mentorship-backend/internal/course"
	"github.com/nekogravitycat/mentorship-backend/internal/dashboard"
	"github.com/nekogravitycat/mentorship-backend/internal/file"
	"github.com/nekogravitycat/mentorship-backend/internal/jobs"
	"github.com/nekogravitycat/mentorship-backend/internal/mail"
	"github.com/nekogravitycat/mentorship-backend/internal/message"
	"github.com/nekogravitycat/mentorship-backend/internal/pkg/storage"
	"github.com/nekogravitycat/mentorship-backend/internal/resource"
	"github.com/nekogravitycat/mentorship-backend/internal/session"
	"github.com/nekogravitycat/mentorship-backend/internal/user"
)

// messageBuffer is how many undelivered live messages a subscriber may queue.
const messageBuffer = 16

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	DBPool       *pgxpool.Pool
	Logger       *zap.Logger
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int
	StoragePath  string

	MailProvider    string
	SendGridAPIKey  string
	MailFromAddress string
	MailFromName    string

	JobInterval      time.Duration
	ReminderLeadTime time.Duration
}

// ConfigFrom maps the environment configuration onto the container settings.
func ConfigFrom(cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) Config {
	return Config{
		IsProduction:     cfg.IsProduction,
		ProdOrigins:      cfg.ProdOrigins,
		DBPool:           pool,
		Logger:           logger,
		JWTSecret:        cfg.JWTSecret,
		JWTTTL:           cfg.JWTAccessTokenTTL,
		BcryptCost:       cfg.BcryptCost,
		StoragePath:      cfg.StoragePath,
		MailProvider:     cfg.MailProvider,
		SendGridAPIKey:   cfg.SendGridAPIKey,
		MailFromAddress:  cfg.MailFromAddress,
		MailFromName:     cfg.MailFromName,
		JobInterval:      cfg.JobInterval,
		ReminderLeadTime: cfg.ReminderLeadTime,
	}
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
	Jobs       *jobs.Runner
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) (*Container, error) {
	logger := cfg.Logger

	// Init Components
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		return nil, err
	}

	mailer, err := newMailer(cfg)
	if err != nil {
		return nil, err
	}

	// User Module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher, logger.Named("user"))

	// File Module
	fileRepo := file.NewPgxRepository(cfg.DBPool)
	fileService := file.NewService(fileRepo, store, logger.Named("file"))

	// Category Module
	categoryService := category.NewService(category.NewPgxRepository(cfg.DBPool))

	// Course Module
	courseRepo := course.NewPgxRepository(cfg.DBPool)
	courseService := course.NewService(courseRepo, userService, categoryService)

	// Resource Module
	resourceRepo := resource.NewPgxRepository(cfg.DBPool)
	resourceService := resource.NewService(resourceRepo, courseService)

	// Availability Module
	availabilityRepo := availability.NewPgxRepository(cfg.DBPool)
	availabilityService := availability.NewService(availabilityRepo, logger.Named("availability"))

	// Session Module
	sessionRepo := session.NewPgxRepository(cfg.DBPool)
	sessionService := session.NewService(sessionRepo, availabilityService, courseService, logger.Named("session"))

	// Application Module
	applicationRepo := application.NewPgxRepository(cfg.DBPool)
	applicationService := application.NewService(applicationRepo, mailer, logger.Named("application"))

	// Message Module
	messageRepo := message.NewPgxRepository(cfg.DBPool)
	messageService := message.NewService(messageRepo, userService, message.NewHub(messageBuffer), logger.Named("message"))

	// Dashboard Module
	dashboardRepo := dashboard.NewPgxRepository(cfg.DBPool)
	dashboardService := dashboard.NewService(dashboardRepo, sessionService, logger.Named("dashboard"))

	// Background Jobs
	jobLogger := logger.Named("jobs")
	runner := jobs.NewRunner(cfg.JobInterval, logger,
		jobs.NewAutoComplete(sessionService, jobLogger),
		jobs.NewReminders(sessionService, mailer, cfg.ReminderLeadTime, jobLogger),
		jobs.NewSlotSweep(availabilityService, jobLogger),
	)

	// Router
	router, err := api.NewRouter(api.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		Logger:              logger,
		UserService:         userService,
		FileService:         fileService,
		CategoryService:     categoryService,
		CourseService:       courseService,
		ResourceService:     resourceService,
		AvailabilityService: availabilityService,
		SessionService:      sessionService,
		ApplicationService:  applicationService,
		MessageService:      messageService,
		DashboardService:    dashboardService,
		JWTManager:          jwtManager,
	})
	if err != nil {
		return nil, err
	}

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
		Jobs:       runner,
	}, nil
}

func newMailer(cfg Config) (*mail.Mailer, error) {
	var sender mail.Sender
	switch cfg.MailProvider {
	case config.MailProviderSendGrid:
		sender = mail.NewSendGridSender(cfg.SendGridAPIKey, cfg.MailFromName, cfg.MailFromAddress)
	case config.MailProviderLog, "":
		sender = mail.NewLogSender(cfg.Logger)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.MailProvider)
	}
	return mail.NewMailer(sender)
}
