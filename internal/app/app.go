package app

import (
	"cbme_survey_backend/internal/config"
	"cbme_survey_backend/internal/controller"
	"cbme_survey_backend/internal/repository"
	"cbme_survey_backend/internal/service"
	"cbme_survey_backend/internal/util"
	"cbme_survey_backend/pkg/configwatcher"
	"cbme_survey_backend/pkg/database"
	"cbme_survey_backend/pkg/logger"
	"cbme_survey_backend/pkg/monitoring"
	"cbme_survey_backend/pkg/security"
	"cbme_survey_backend/pkg/tracing"
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/gorm"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	DB       *gorm.DB
	Redis    *redis.Client
	Location *time.Location

	// ctx 贯穿应用生命周期，Run 退出时取消，后台协程随之结束
	ctx             context.Context
	cancel          context.CancelFunc
	tracer          *sdktrace.TracerProvider
	cfgMu           sync.RWMutex
	configCallbacks []func(*config.Config)
}

type repositories struct {
	surveyResponse *repository.SurveyResponseRepository
	summaryCache   *repository.RedisSummaryCache
}

type services struct {
	survey *service.SurveyService
	export *service.ExportService
}

type controllers struct {
	survey *controller.SurveyController
	health *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// currentConfig 返回最新加载的配置
func (a *App) currentConfig() *config.Config {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return a.Config
}

func (a *App) jwtSecret() string {
	return a.currentConfig().JWT.Secret
}

func (a *App) applyConfig(cfg *config.Config) {
	a.cfgMu.Lock()
	a.Config = cfg
	a.cfgMu.Unlock()

	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *repositories {
	repos := &repositories{
		surveyResponse: repository.NewSurveyResponseRepository(db),
	}
	if rdb != nil {
		repos.summaryCache = repository.NewRedisSummaryCache(rdb, cfg.Redis.SummaryTTL())
	}
	return repos
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	var notifier service.Notifier = service.LogNotifier{Location: a.Location}
	if cfg.Mail.Enabled {
		email := service.NewEmailNotifier(cfg.Mail, a.Location)
		a.RegisterConfigCallback(func(c *config.Config) {
			email.SetRecipients(c.Mail.From, c.Mail.To)
		})
		notifier = email
	}

	// 接口变量不能直接持有 nil 指针
	var cache service.SummaryCache
	if repos.summaryCache != nil {
		cache = repos.summaryCache
	}

	validator := service.NewSurveyValidator(cfg.Survey.OptionPolicy)
	survey := service.NewSurveyService(repos.surveyResponse, validator, notifier, cache)
	a.RegisterConfigCallback(func(c *config.Config) {
		if c.Survey.OptionPolicy != validator.Policy() {
			survey.SetOptionPolicy(c.Survey.OptionPolicy)
		}
	})

	storage := service.NewStorageProvider(&cfg.Storage)

	return &services{
		survey: survey,
		export: service.NewExportService(repos.surveyResponse, storage, a.Location),
	}
}

func (a *App) initControllers(s *services, repos *repositories) *controllers {
	return &controllers{
		survey: controller.NewSurveyController(s.survey, s.export, a.Location),
		health: controller.NewHealthController(repos.surveyResponse),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.RequestID(util.RequestIDKey))
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(a.ctx, cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	loc, err := time.LoadLocation(cfg.Survey.Timezone)
	if err != nil {
		logger.Log.Warn("Unknown survey timezone, using local time", zap.String("timezone", cfg.Survey.Timezone), zap.Error(err))
		loc = time.Local
	}

	db, err := database.InitDB(&cfg.Database, cfg.ForceMigrate || cfg.Server.Mode != gin.ReleaseMode, cfg.Server.Mode == gin.DebugMode)
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		if cfg.MigrateOnly {
			log.Fatalf("Cannot migrate: %v", err)
		}
		// 未配置数据库时服务仍可启动，存储操作返回 StorageUnavailable
		logger.Log.Warn("Database is not configured, submissions will be rejected as unavailable")
	case err != nil:
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	app := &App{
		Config:   cfg,
		DB:       db,
		Location: loc,
	}
	app.ctx, app.cancel = context.WithCancel(context.Background())
	if cfg.JWT.Secret == "" {
		logger.Log.Warn("JWT secret is not set, admin endpoints will reject every request")
	}
	if cfg.MigrateOnly {
		return app
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Warn("Redis unavailable, summary cache disabled", zap.Error(err))
		} else {
			app.Redis = rdb
		}
	}

	repos := app.initRepositories(db, app.Redis, cfg)
	services := app.initServices(repos, cfg)
	controllers := app.initControllers(services, repos)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("cbme-survey", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers, cfg)

	return app
}

func (a *App) Run() {
	cfg := a.currentConfig()
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	defer a.cancel()
	ctx, stop := signal.NotifyContext(a.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Server.WatchConfig {
		go func() {
			if err := configwatcher.Watch(ctx, cfg.Path, a.applyConfig); err != nil {
				logger.Log.Error("Config watcher stopped", zap.Error(err))
			}
		}()
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}

	logger.Log.Info("Server exiting")
}
