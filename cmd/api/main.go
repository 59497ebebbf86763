package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/quillcms/quill-backend/internal/config"
	"github.com/quillcms/quill-backend/internal/handler"
	"github.com/quillcms/quill-backend/internal/hook"
	"github.com/quillcms/quill-backend/internal/middleware"
	"github.com/quillcms/quill-backend/internal/repository"
	"github.com/quillcms/quill-backend/internal/routes"
	"github.com/quillcms/quill-backend/internal/service"
	"github.com/quillcms/quill-backend/pkg/flash"
	"github.com/quillcms/quill-backend/pkg/i18n"
	"github.com/quillcms/quill-backend/pkg/jwt"
	pkglogger "github.com/quillcms/quill-backend/pkg/logger"
	pkgredis "github.com/quillcms/quill-backend/pkg/redis"
	"github.com/quillcms/quill-backend/pkg/urlgen"
)

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	zlog := pkglogger.GetLogger()
	zlog.Info().Str("env", env).Strs("dotenv", dotenvFiles).Msg("starting quill-backend")

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 콘텐츠 타입 스키마 로드
	contentTypes, err := config.LoadContentTypes(cfg.Content.TypesPath)
	if err != nil {
		log.Fatalf("Failed to load content types from %s: %v", cfg.Content.TypesPath, err)
	}
	zlog.Info().Strs("contenttypes", contentTypes.Slugs()).Msg("content types loaded")

	// MySQL 연결
	db, err := initDB(cfg)
	if err != nil {
		zlog.Warn().Err(err).Msg("failed to connect to database, continuing without DB")
		db = nil
	} else {
		zlog.Info().Msg("connected to MySQL")
	}

	// Redis 연결 (flash 알림 큐)
	var flashQueue flash.Queue
	redisClient, err := pkgredis.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
	)
	if err != nil {
		zlog.Warn().Err(err).Msg("failed to connect to Redis, using in-memory flash queue")
		flashQueue = flash.NewMemoryQueue()
	} else {
		zlog.Info().Msg("connected to Redis")
		flashQueue = flash.NewRedisQueue(redisClient)
	}

	// JWT Manager
	jwtManager := jwt.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiresIn,
		cfg.JWT.RefreshIn,
	)

	// Gin 라우터 생성
	router := gin.Default()

	// CORS 설정
	allowOrigins := cfg.CORS.AllowOrigins
	if allowOrigins == "" {
		allowOrigins = "http://localhost:3000"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     splitAndTrim(allowOrigins, ","),
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID"},
		MaxAge:           86400,
	}))

	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "quill-backend",
			"time":    time.Now().Unix(),
		})
	})

	// Content API (only if DB is connected)
	if db != nil {
		contentRepo := repository.NewContentRepository(db)
		auditRepo := repository.NewAuditRepository(db)
		perms := service.NewLevelPermissionChecker(contentTypes)
		urls := urlgen.New(cfg.Content.BaseURL)
		hooks := hook.NewManager()

		contentService := service.NewContentService(
			contentRepo,
			auditRepo,
			perms,
			flashQueue,
			urls,
			hooks,
			i18n.Locale(cfg.App.Locale),
		)
		contentHandler := handler.NewContentHandler(contentService, contentTypes)

		routes.Setup(router, contentHandler, jwtManager)
	} else {
		zlog.Warn().Msg("content API disabled: no database connection")
	}

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	zlog.Info().Str("addr", addr).Msg("server listening")
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// initDB opens the GORM MySQL connection and migrates the content tables
func initDB(cfg *config.Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{}
	if cfg.IsDevelopment() {
		gormConfig.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(mysql.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := repository.AutoMigrate(db); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Msg("auto-migration failed")
	}

	return db, nil
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
