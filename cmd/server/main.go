package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"twitter-clone/internal/auth"
	"twitter-clone/internal/config"
	apphttp "twitter-clone/internal/http"
	"twitter-clone/internal/mail"
	"twitter-clone/internal/repository/sqlite"
	"twitter-clone/internal/service"
	"twitter-clone/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	postRepo := sqlite.NewPostRepository(db)

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := postRepo.Init(ctx); err != nil {
		logger.Fatalf("init post repository: %v", err)
	}

	mailer, err := buildMailer(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup mailer: %v", err)
	}

	tokens, err := auth.NewTokenIssuer(cfg.Auth.Secret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	if err != nil {
		logger.Fatalf("setup tokens: %v", err)
	}

	userService := service.NewUserService(userRepo, postRepo, mailer, service.UserServiceConfig{
		Secret:    cfg.Auth.Secret,
		PublicURL: cfg.Server.PublicURL,
		MailFrom:  cfg.Mail.From,
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(userService, tokens, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func buildMailer(ctx context.Context, cfg config.Config, logger *logrus.Logger) (mail.Mailer, error) {
	switch cfg.Mail.Transport {
	case "smtp":
		logger.Infof("sending mail via smtp %s:%d", cfg.Mail.SMTP.Host, cfg.Mail.SMTP.Port)
		return mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.Mail.SMTP.Host,
			Port:     cfg.Mail.SMTP.Port,
			Username: cfg.Mail.SMTP.Username,
			Password: cfg.Mail.SMTP.Password,
		})
	case "s3":
		store, err := buildStorage(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return mail.NewOutboxMailer(store, cfg.Storage.Bucket, cfg.Storage.KeyPrefix, logger), nil
	case "log":
		logger.Warn("mail transport is log, verification emails are not delivered")
		return mail.NewLogMailer(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Mail.Transport)
	}
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 outbox bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
