package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrPunder/qr-generator/internal/client"
	"github.com/MrPunder/qr-generator/internal/config"
	"github.com/MrPunder/qr-generator/internal/logger"
	"github.com/MrPunder/qr-generator/internal/storage"
	"github.com/MrPunder/qr-generator/internal/telegrambot"
)

func main() {
	var (
		configPath string
		token      string
		serverURL  string
	)

	flag.StringVar(&configPath, "c", "cmd/qrserver/config.yaml", "config path")
	flag.StringVar(&token, "token", "", "telegram bot token")
	flag.StringVar(&serverURL, "server", "", "QR service URL")
	flag.Parse()

	conf, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}
	if token == "" {
		token = conf.Telegram.Token
	}
	if serverURL == "" {
		serverURL = conf.Client.ServiceURL
	}

	zapLogger, err := logger.NewZapLogger(conf.Log)
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	zapLogger.Info("Инициализирован логгер")

	if token == "" {
		zapLogger.Error("Не указан токен бота. Используйте флаг -token или QR_TELEGRAM_TOKEN")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := storage.New(ctx, conf.Storage)
	cancel()
	if err != nil {
		zapLogger.Errorf("Ошибка инициализации хранилища: %v", err)
		os.Exit(1)
	}
	defer store.Close()
	zapLogger.Info("Хранилище инициализировано успешно")

	apiClient := client.NewAPIClient(serverURL, conf.API.Token, conf.Client.Timeout, zapLogger)
	generator := client.NewGenerator(apiClient, zapLogger)

	bot, err := telegrambot.NewQRBot(telegrambot.Config{
		Token:    token,
		Settings: telegrambot.DefaultSettings(),
	}, generator, store, zapLogger)
	if err != nil {
		zapLogger.Errorf("Ошибка создания бота: %v", err)
		os.Exit(1)
	}

	if err := bot.Start(); err != nil {
		zapLogger.Errorf("Ошибка запуска бота: %v", err)
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	if err := bot.Stop(); err != nil {
		zapLogger.Errorf("Ошибка остановки бота: %v", err)
	}
	zapLogger.Close()
}
