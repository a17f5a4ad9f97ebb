package qrserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/MrPunder/qr-generator/internal/logger"
)

type middlewareFunc func(next http.Handler) http.Handler

// QRServer обертка над http.Server с цепочкой middleware
type QRServer struct {
	Log          logger.Logger
	middlwares   []middlewareFunc
	mux          http.Handler
	address      string
	server       *http.Server
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewQRServer(address string, mux http.Handler, log logger.Logger) *QRServer {
	return &QRServer{
		address: address,
		mux:     mux,
		Log:     log,
	}
}

// SetTimeouts задает таймауты чтения и записи; ноль означает без таймаута
func (s *QRServer) SetTimeouts(read, write time.Duration) {
	s.readTimeout = read
	s.writeTimeout = write
}

// AddMidleware добавляет middleware; последний добавленный оказывается внешним
func (s *QRServer) AddMidleware(funcs ...middlewareFunc) {
	s.middlwares = append(s.middlwares, funcs...)
}

// Handler возвращает обработчик со всеми middleware
func (s *QRServer) Handler() http.Handler {
	handler := s.mux
	for _, f := range s.middlwares {
		handler = f(handler)
	}
	return handler
}

func (s *QRServer) newServer() {
	s.server = &http.Server{
		Addr:         s.address,
		Handler:      s.Handler(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}
}

// RunServer запускает сервер и блокируется до его остановки
func (s *QRServer) RunServer() {
	s.newServer()
	s.Log.Infof("Starting server on %s", s.address)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.Log.Errorf("starting server on %s error: %s", s.address, err)
	}
}

// Serve обслуживает уже открытый listener
func (s *QRServer) Serve(l net.Listener) error {
	s.newServer()
	s.Log.Infof("Starting server on %s", l.Addr())
	if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *QRServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
