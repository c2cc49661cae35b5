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

	"templatestore-backend/internal/client"
	"templatestore-backend/internal/config"
	"templatestore-backend/internal/handler"
	"templatestore-backend/internal/mailer"
	appmw "templatestore-backend/internal/middleware"
	"templatestore-backend/internal/model"
	"templatestore-backend/internal/repository"
	"templatestore-backend/internal/server"
	"templatestore-backend/internal/service"
	"templatestore-backend/internal/webhook"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	db, err := client.InitDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to init database: ", err)
	}

	orderRepo := repository.NewOrderRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	userRepo := repository.NewUserRepository(db)
	licenseRepo := repository.NewLicenseRepository(db)

	if cfg.Environment.Name == "development" {
		if err := templateRepo.Seed(context.Background(), devTemplates()); err != nil {
			log.Fatal("failed to seed templates: ", err)
		}
	}

	verifier := webhook.NewVerifier(&cfg.Payment)
	licenseService := service.NewLicenseService(licenseRepo, cfg.License)
	webhookService := service.NewWebhookService(
		db, verifier,
		orderRepo, templateRepo, userRepo, licenseRepo,
		licenseService,
		mailer.NewLogMailer(),
		cfg.Payment.WebhookTimeout,
	)

	webhookHandler := handler.NewWebhookHandler(webhookService)
	licenseHandler := handler.NewLicenseHandler(licenseService, orderRepo)
	adminAuth := appmw.NewAdminAuth(cfg.Admin.JWTSecret)

	srv := server.NewServer(webhookHandler, licenseHandler, adminAuth)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Println("Starting HTTP server on", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Println("Signal received, starting graceful shutdown...")

	_, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(); err != nil {
		log.Fatal("HTTP server shutdown error")
	}
}

func devTemplates() []model.Template {
	return []model.Template{
		{ID: "tpl_landing", Name: "Landing Page Kit", ProcessorProductID: "42", ProcessorVariantID: "4201", Price: 2900, Currency: "USD"},
		{ID: "tpl_portfolio", Name: "Portfolio Theme", ProcessorProductID: "43", ProcessorVariantID: "4301", Price: 4900, Currency: "USD"},
		{ID: "tpl_shop", Name: "Storefront Theme", ProcessorProductID: "44", ProcessorVariantID: "4401", Price: 7900, Currency: "USD"},
	}
}
