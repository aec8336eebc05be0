package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"planhub/api/internal/app"
	"planhub/api/internal/auth"
	"planhub/api/internal/config"
	"planhub/api/internal/otp"
	"planhub/api/internal/ratelimit"
	"planhub/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)

	var sender otp.Sender = otp.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioVerifySID)
	if len(cfg.TestEmails) > 0 {
		sender = &otp.TestSender{
			Next:   sender,
			Emails: cfg.TestEmails,
			SID:    cfg.TestSID,
			Code:   cfg.TestOTP,
		}
	}

	var otpLimiter ratelimit.Limiter
	if strings.TrimSpace(cfg.RedisURL) != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid redis url: %v", err)
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		log.Printf("Using Redis for OTP rate limiting")
		otpLimiter = ratelimit.NewRedisLimiter(redisClient, 5, time.Minute)
	} else {
		log.Printf("Using in-process OTP rate limiting")
		otpLimiter = ratelimit.NewLocalLimiter(5, time.Minute)
	}

	service := app.NewService(dataStore, tokens, sender, app.Limits{
		PlansPerType:   cfg.MaxPlansPerType,
		TasksPerPlan:   cfg.MaxTasksPerPlan,
		SharedPlans:    cfg.MaxSharedPlans,
		MembersPerPlan: cfg.MaxMembersPerPlan,
		DevicesPerUser: cfg.MaxDevicesPerUser,
	})

	httpServer := app.NewHTTPServer(service, otpLimiter, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("PlanHub API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
