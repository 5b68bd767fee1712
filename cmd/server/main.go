package main

import (
	"context"

	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/linemk/food-delivery/internal/app"
	"github.com/linemk/food-delivery/internal/clients/razorpay"
	"github.com/linemk/food-delivery/internal/config"
	"github.com/linemk/food-delivery/internal/lib/logger"
	"github.com/linemk/food-delivery/internal/service"
	"github.com/linemk/food-delivery/internal/storage"
	"github.com/pkg/errors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.Close()

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	restaurantRepo := storage.NewRestaurantRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)

	// без ключей клиент провайдера не создаем, сервис сам уйдет в mock-режим
	var provider service.PaymentProvider
	if cfg.Payment.KeyID != "" && cfg.Payment.KeySecret != "" {
		provider = razorpay.NewClient(cfg.Payment.BaseURL, cfg.Payment.KeyID, cfg.Payment.KeySecret, cfg.Payment.Timeout)
	}

	authService := service.NewAuthService(log, userRepo, cfg.JWT.Secret, time.Duration(cfg.JWT.TokenTTL)*time.Minute)
	paymentService := service.NewPaymentService(log, cfg.Payment, provider)
	orderService := service.NewOrderService(log, application.DB, orderRepo, restaurantRepo,
		paymentService, application.Publisher, cfg.Orders)

	if !cfg.Orders.RequireAuthOnPlace {
		log.Warn("orders can be placed without authentication")
	}

	router := app.NewRouter(log, cfg.JWT.Secret, app.Services{
		Auth:     authService,
		Orders:   orderService,
		Payments: paymentService,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
