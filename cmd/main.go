package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"issue-tracker/internal/config"
	"issue-tracker/internal/infrastructure/database/postgres"
	"issue-tracker/internal/infrastructure/events"
	"issue-tracker/internal/infrastructure/lock"
	"issue-tracker/internal/infrastructure/smtp"
	"issue-tracker/internal/logger"
	"issue-tracker/internal/middleware"
	"issue-tracker/internal/routes"
	"issue-tracker/internal/usecase/account"
	"issue-tracker/internal/usecase/auth"
	"issue-tracker/internal/usecase/mailconfig"
	"issue-tracker/pkg/mqtt"
	"issue-tracker/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", env),
	)

	if cfg.Database.Host == "" || cfg.Database.DBName == "" {
		logger.Fatal("Database configuration is missing. Please set DB_HOST and DB_NAME environment variables.")
	}
	if cfg.JWT.Secret == "" {
		logger.Fatal("JWT secret is missing. Please set JWT_SECRET environment variable.")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := postgres.NewDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if cfg.Database.RunMigrations {
		if err := db.RunMigrations(ctx); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	users := postgres.NewUserRepository(db)
	roles := postgres.NewRoleRepository(db)
	attempts := postgres.NewResetAttemptRepository(db)
	smtpConfigs := postgres.NewSMTPConfigurationRepository(db)

	hasher := utils.NewArgon2()
	mailer := smtp.NewRetryingSender(
		smtp.NewSender(cfg.Mail.Timeout),
		cfg.Mail.MaxAttempts,
		cfg.Mail.InitialBackoff,
		cfg.Mail.MaxBackoff,
	)

	authOpts := []auth.Option{auth.WithHasher(hasher)}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}

		authOpts = append(authOpts, auth.WithLocker(lock.NewRedisLocker(client, "issue-tracker:lock", cfg.Redis.LockTTL)))
		logger.Info("Using Redis account locks", zap.String("addr", cfg.Redis.Addr))
	}

	if cfg.MQTT.Broker != "" {
		client := mqtt.NewClient(&mqtt.Config{
			Broker:               cfg.MQTT.Broker,
			ClientID:             cfg.MQTT.ClientID,
			Username:             cfg.MQTT.Username,
			Password:             cfg.MQTT.Password,
			CleanSession:         true,
			KeepAlive:            30,
			ConnectTimeout:       10,
			PublishTimeout:       5 * time.Second,
			AutoReconnect:        true,
			MaxReconnectInterval: time.Minute,
		})
		if err := client.Connect(); err != nil {
			logger.Fatal("Failed to connect to MQTT broker", zap.Error(err))
		}
		defer client.Disconnect()

		authOpts = append(authOpts, auth.WithEventPublisher(events.NewMQTTPublisher(client, cfg.MQTT.TopicPrefix)))
	} else {
		authOpts = append(authOpts, auth.WithEventPublisher(events.NewLogPublisher()))
	}

	authService := auth.NewService(users, attempts, smtpConfigs, mailer, cfg, authOpts...)
	accountService := account.NewService(users, roles, hasher)
	mailConfigService := mailconfig.NewService(smtpConfigs)

	if err := accountService.EnsureAdmin(ctx, cfg.Bootstrap); err != nil {
		logger.Fatal("Failed to bootstrap admin account", zap.Error(err))
	}

	go authService.StartResetCleanupJob(ctx, cfg.Reset.CleanupInterval)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst)
	go limiter.Run(ctx)

	router := routes.SetupRoutes(cfg, db, &routes.Services{
		Auth:        authService,
		Accounts:    accountService,
		MailConfigs: mailConfigService,
	}, limiter)

	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	addr := net.JoinHostPort(host, port)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", zap.Error(err))
		return
	}

	logger.Info("Server exited properly")
}
