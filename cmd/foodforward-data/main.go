package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foodforward-data/internal/config"
	"foodforward-data/internal/database"
	"foodforward-data/internal/domain"
	"foodforward-data/internal/events"
	"foodforward-data/internal/geocode"
	httpapi "foodforward-data/internal/http"
	"foodforward-data/internal/logger"
	"foodforward-data/internal/media"
	"foodforward-data/internal/notify"
	"foodforward-data/internal/repository"
	"foodforward-data/internal/service"
	"foodforward-data/internal/store"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "foodforward-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Redis 不可用时退化为内存 KV（会话与地理编码缓存仅进程内有效，事件流禁用）
	var kv store.KV
	redisOK := redisClient.Ping(ctx).Err() == nil
	if redisOK {
		kv = store.NewRedisKV(redisClient)
	} else {
		log.Warn("Redis unavailable, falling back to in-memory KV")
		kv = store.NewMemoryKV()
	}

	// DB 未就绪时退化为内存 repo，保证 `go run` 即可联调
	var (
		db            *sql.DB
		donationsRepo repository.DonationsRepository
		claimsRepo    repository.ClaimsRepository
		usersRepo     repository.UsersRepository
		notifRepo     repository.NotificationsRepository
	)
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("DB enabled for foodforward-data")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory repositories", zap.Error(err))
		}
	}
	if db != nil {
		pg := repository.NewPostgresDonationsRepository(db)
		donationsRepo = pg
		claimsRepo = repository.NewPostgresClaimsRepository(db)
		usersRepo = repository.NewPostgresUsersRepository(db)
		notifRepo = repository.NewPostgresNotificationsRepository(db)
	} else {
		mem := repository.NewMemoryDonationsRepo()
		donationsRepo = mem
		claimsRepo = mem
		usersRepo = repository.NewMemoryUsersRepo()
		notifRepo = repository.NewMemoryNotificationsRepo()
	}

	// Dev bootstrap: seed an admin account so the admin pages are reachable out of the box.
	if os.Getenv("SEED_ADMIN") != "false" {
		seedAdmin(ctx, usersRepo, log)
	}

	// 变更事件发布（Redis Streams，必要时外加 MQTT 推送）
	var publisher *events.Publisher
	if redisOK {
		var mqttClient *events.MQTTClient
		if cfg.MQTT.Enabled {
			if mc, err := events.NewMQTTClient(&cfg.MQTT); err == nil {
				mqttClient = mc
			} else {
				log.Warn("MQTT connect failed, dashboard push disabled", zap.Error(err))
			}
		}
		publisher = events.NewPublisher(redisClient, cfg.Events.Stream, cfg.Events.MaxLen, mqttClient, log)
	}

	// 邮件通知（默认禁用，失败只记日志）
	var mailer *notify.Mailer
	if cfg.Mailgun.Enabled {
		mailer = notify.NewMailer(&cfg.Mailgun, log)
	}
	notifier := notify.NewService(notifRepo, mailer, log)

	// 图片存储（默认禁用）
	var mediaStore *media.Store
	if cfg.Media.Enabled {
		if ms, err := media.NewStore(ctx, &cfg.Media, log); err == nil {
			mediaStore = ms
		} else {
			log.Warn("Media store init failed, image handling disabled", zap.Error(err))
		}
	}

	geocoder := geocode.NewClient(&cfg.Geocode, kv, log)

	var sink events.Sink
	if publisher != nil {
		sink = publisher
	}
	var mediaDeleter service.MediaStore
	if mediaStore != nil {
		mediaDeleter = mediaStore
	}
	donationService := service.NewDonationService(donationsRepo, claimsRepo, sink, notifier, mediaDeleter, log)
	authService := service.NewAuthService(usersRepo, kv, log)

	authHandler := httpapi.NewAuthHandler(authService, log)
	donationHandler := httpapi.NewDonationHandler(donationService, notifRepo, log)
	projectionHandler := httpapi.NewProjectionHandler(donationService, geocoder.Resolve, log)
	feedHandler := httpapi.NewFeedHandler(publisher, log)
	mediaHandler := httpapi.NewMediaHandler(mediaStore, log)
	adminHandler := httpapi.NewAdminHandler(donationService, usersRepo, log)

	router := httpapi.NewRouter(log)
	router.RegisterHealthRoutes()
	router.RegisterAuthRoutes(authHandler)
	router.RegisterDonationRoutes(authHandler, donationHandler)
	router.RegisterProjectionRoutes(authHandler, projectionHandler)
	router.RegisterFeedRoutes(feedHandler)
	router.RegisterMediaRoutes(authHandler, mediaHandler)
	router.RegisterAdminRoutes(authHandler, adminHandler)

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	_ = redisClient.Close()
	if db != nil {
		_ = db.Close()
	}
}

// seedAdmin 确保存在可登录的管理员账号（email: admin@foodforward.local / ChangeMe123!）
func seedAdmin(ctx context.Context, users repository.UsersRepository, log *zap.Logger) {
	if _, err := users.GetUserByEmail(ctx, "admin@foodforward.local"); err == nil {
		return
	}
	now := time.Now()
	err := users.CreateUser(ctx, &domain.User{
		UserID:       uuid.New().String(),
		Email:        "admin@foodforward.local",
		PasswordHash: service.HashPassword("ChangeMe123!"),
		Name:         "Admin",
		Role:         domain.RoleAdmin,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		log.Warn("Failed to seed admin user", zap.Error(err))
	}
}
