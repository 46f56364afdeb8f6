package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/intake-api/internal/config"
	"github.com/intake-api/internal/infrastructure/dynamo"
	"github.com/intake-api/internal/infrastructure/sns"
	"github.com/intake-api/internal/infrastructure/telegram"
	"github.com/intake-api/internal/metrics"
	"github.com/intake-api/internal/pkg/crypt"
	transporthttp "github.com/intake-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	cipher, err := crypt.NewCipher(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("encryption key rejected: %v", err)
	}

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	bot := telegram.NewClient(cfg)
	if cfg.TelegramBotToken == "" {
		log.Println("WARN: TELEGRAM_BOT_TOKEN not set - handle-channel codes will be stored but not delivered")
	}

	// SNS sender is optional; phone-channel codes stay stored-only without it.
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		log.Printf("WARN: SNS sender not available: %v", err)
	}

	deps := &transporthttp.Deps{
		OTPRepo:     dynamo.NewOTPRepo(dynamoClient, cfg.DynamoTables.OneTimeCodes),
		BindingRepo: dynamo.NewBindingRepo(dynamoClient, cfg.DynamoTables.ChannelBindings),
		SessionRepo: dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.SessionTokens),
		RecordRepo:  dynamo.NewRecordRepo(dynamoClient, cfg.DynamoTables.Questionnaires),
		Bot:         bot,
		SMSSender:   smsSender,
		Cipher:      cipher,
		Metrics:     metrics.New(),
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
