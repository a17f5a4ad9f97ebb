package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrPunder/qr-generator/internal/auth"
	"github.com/MrPunder/qr-generator/internal/config"
	"github.com/MrPunder/qr-generator/internal/handlers"
	"github.com/MrPunder/qr-generator/internal/logger"
	"github.com/MrPunder/qr-generator/internal/middleware"
	"github.com/MrPunder/qr-generator/internal/qrcode"
	"github.com/MrPunder/qr-generator/internal/qrserver"
	"github.com/MrPunder/qr-generator/internal/storage"
)

func main() {
	configPath := flag.String("c", "cmd/qrserver/config.yaml", "config path")
	flag.Parse()

	conf, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}
	log, err := logger.NewZapLogger(conf.Log)
	if err != nil {
		panic(err)
	}
	log.Info("Initialized logger")
	log.Debugf("Config parametrs: %+v", conf.Server)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	log.Infof("Initializing %s storage", conf.Storage.Type)
	store, err := storage.New(ctx, conf.Storage)
	cancel()
	if err != nil {
		log.Errorf("Failed to initialize storage: %v", err)
		panic(err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Errorf("Failed to close storage: %v", err)
		}
	}()
	log.Info("Storage initialized successfully")

	encoder, err := qrcode.NewEncoder(conf.QR.Encoder)
	if err != nil {
		log.Errorf("Failed to initialize encoder: %v", err)
		panic(err)
	}
	log.Infof("Using %s encoder", conf.QR.Encoder)

	h := handlers.NewHandler(log, store, qrcode.NewService(encoder), conf.QR)
	if conf.Admin.JWTSecret != "" {
		h.WithAdmin(auth.NewPasswordManager(conf.Admin.DataPath), auth.NewJWTManager(conf.Admin.JWTSecret))
		log.Info("Admin handlers initialized")
	} else {
		log.Info("JWT secret is not set, history clearing is disabled")
	}
	router := handlers.NewRouter(h)

	qrsrv := qrserver.NewQRServer(conf.Server.RunAddress, router, log)
	qrsrv.SetTimeouts(conf.Server.ReadTimeout, conf.Server.WriteTimeout)

	accessLog := middleware.NewAccessLog(log)
	compressor := middleware.NewGzipCompressor(log)
	tokenAuth := middleware.NewTokenAuth(middleware.TokenAuthConfig{
		APIToken:     conf.API.Token,
		Logger:       log,
		SkipPrefixes: []string{"/ping", "/api/status", "/api/admin/login"},
	})
	log.Info("Initialized middleware functions")

	// последний добавленный выполняется первым
	qrsrv.AddMidleware(tokenAuth.Middleware, compressor.CompressHandler, middleware.CORS, accessLog.Handler)

	go qrsrv.RunServer()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Initialized shutdown")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := qrsrv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Cann't stop server %s", err)
	}

	if err := log.Close(); err != nil {
		panic(err)
	}
}
