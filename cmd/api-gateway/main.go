package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/Rabea25/SISAPI/api/swagger"
	"github.com/Rabea25/SISAPI/internal/handler"
	"github.com/Rabea25/SISAPI/internal/middleware"
	"github.com/Rabea25/SISAPI/internal/models"
	"github.com/Rabea25/SISAPI/internal/repository"
	"github.com/Rabea25/SISAPI/internal/service"
	"github.com/Rabea25/SISAPI/pkg/cache"
	"github.com/Rabea25/SISAPI/pkg/config"
	"github.com/Rabea25/SISAPI/pkg/database"
	"github.com/Rabea25/SISAPI/pkg/logger"
	corsmiddleware "github.com/Rabea25/SISAPI/pkg/middleware/cors"
	reqidmiddleware "github.com/Rabea25/SISAPI/pkg/middleware/requestid"
)

// @title Course Registration & Grading API
// @version 1.0.0
// @description Eligibility, section allocation, term ledger and GPA engine
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, eligibility cache disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	studentRepo := repository.NewStudentRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	offeringRepo := repository.NewOfferingRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	termRepo := repository.NewTermRepository(db)
	termClockRepo := repository.NewTermClockRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Registration.EligibilityCacheTTL, logr, redisClient != nil)
	termClockSvc := service.NewTermClockService(termClockRepo, cfg.TermClock, validate, logr)
	eligibilitySvc := service.NewEligibilityService(studentRepo, catalogRepo, offeringRepo, enrollmentRepo, cacheSvc,
		service.EligibilityConfig{
			GeneralDepartmentCode: cfg.Registration.GeneralDepartmentCode,
			CacheTTL:              cfg.Registration.EligibilityCacheTTL,
		}, logr)

	allocationCfg := service.AllocationConfig{
		DefaultCourseworkMax: cfg.Grading.DefaultCourseworkMax,
		DefaultExamMax:       cfg.Grading.DefaultExamMax,
	}
	ledger := service.NewTermLedger(logr)
	var allocationSvc *service.AllocationService
	if cfg.Registration.EnforceEligibility {
		allocationSvc = service.NewAllocationService(registrationRepo, ledger, eligibilitySvc, allocationCfg, logr)
	} else {
		allocationSvc = service.NewAllocationService(registrationRepo, ledger, nil, allocationCfg, logr)
	}

	registrationSvc := service.NewRegistrationService(termClockSvc, allocationSvc, studentRepo, eligibilitySvc, metrics, validate, logr)
	gradeSvc := service.NewGradeService(service.GradeServiceParams{
		DB:          db,
		Enrollments: enrollmentRepo,
		Terms:       termRepo,
		Students:    studentRepo,
		Sections:    offeringRepo,
		Clock:       termClockSvc,
		Eligibility: eligibilitySvc,
		Metrics:     metrics,
		Validator:   validate,
		Logger:      logr,
		Concurrency: cfg.Grading.FinalizeConcurrency,
	})
	sectionSvc := service.NewSectionService(db, offeringRepo, eligibilitySvc, validate, logr)
	authSvc := service.NewAuthService(logr, service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	registrationHandler := handler.NewRegistrationHandler(eligibilitySvc, registrationSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	termClockHandler := handler.NewTermClockHandler(termClockSvc)
	sectionHandler := handler.NewSectionHandler(sectionSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, map[string]handler.Pinger{
		"postgres": db,
		"redis":    handler.PingFunc(cacheRepo.Ping),
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))

	students := api.Group("/students/:id", middleware.RBAC(string(models.RoleAdmin), middleware.RoleSelf))
	students.GET("/eligible-offerings", registrationHandler.EligibleOfferings)
	students.POST("/registrations", registrationHandler.Submit)

	api.PUT("/enrollments/:id/scores", middleware.RequireRoles(models.RoleEducator, models.RoleAdmin), gradeHandler.RecordScores)

	terms := api.Group("/terms", middleware.RequireRoles(models.RoleAdmin))
	terms.POST("/finalize", gradeHandler.FinalizeTerm)
	terms.POST("/:id/finalize", gradeHandler.FinalizeStudentTerm)

	api.GET("/term-clock", termClockHandler.Get)
	api.POST("/term-clock", middleware.RequireRoles(models.RoleAdmin), termClockHandler.Create)
	api.PUT("/term-clock", middleware.RequireRoles(models.RoleAdmin), termClockHandler.Update)

	api.POST("/offerings/:id/sections", middleware.RequireRoles(models.RoleAdmin), sectionHandler.Create)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
