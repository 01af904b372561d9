package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/flashdeck/internal/gateway"
	"github.com/example/flashdeck/internal/history"
	"github.com/example/flashdeck/internal/notify"
	"github.com/example/flashdeck/internal/scheduler"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env необязателен: переменные могут прийти из окружения
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	gatewayURL := os.Getenv("GATEWAY_URL")
	if gatewayURL == "" {
		logger.Fatal("GATEWAY_URL environment variable is not set")
	}

	// Подключаемся к локальной базе истории
	if err := history.Connect(); err != nil {
		logger.Fatal("failed to connect to history database", zap.Error(err))
	}
	defer history.Close()

	gw := gateway.New(gatewayURL, os.Getenv("GATEWAY_TOKEN"), logger)

	notifier, err := notify.NewTelegram()
	if err != nil {
		logger.Fatal("failed to create notifier", zap.Error(err))
	}

	// Запускаем планировщик напоминаний
	s := scheduler.New(gw, notifier, logger)
	s.Start()
	defer s.Stop()

	logger.Info("reminder daemon started")

	// Ждем сигнала завершения
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
