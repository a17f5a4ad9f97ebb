package logger

import (
	"os"
	"time"

	"github.com/MrPunder/qr-generator/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type zapLogger struct {
	logZap *zap.SugaredLogger
	logger *zap.Logger // нужен для Sync()
}

// NewZapLogger создает логгер с двумя ядрами: общий журнал и журнал ошибок.
// Пустой путь означает вывод в stderr.
func NewZapLogger(conf config.LogConfig) (*zapLogger, error) {
	logLevel, err := zap.ParseAtomicLevel(conf.Level)
	if err != nil {
		return nil, err
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, writerFor(conf.Path, conf), logLevel),
	}

	// Отдельный файл для ошибок имеет смысл только при записи в файл
	if conf.ErrorPath != "" {
		cores = append(cores, zapcore.NewCore(encoder, writerFor(conf.ErrorPath, conf), zap.ErrorLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))

	return &zapLogger{
		logZap: logger.Sugar(),
		logger: logger,
	}, nil
}

func writerFor(path string, conf config.LogConfig) zapcore.WriteSyncer {
	if path == "" {
		return zapcore.Lock(os.Stderr)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    conf.MaxSize,    // МБ
		MaxBackups: conf.MaxBackups,
		MaxAge:     conf.MaxAge,     // дни
		Compress:   conf.Compress,
	})
}

// RequestLog makes request log
func (logger *zapLogger) RequestLog(method string, path string) {
	logger.logZap.Infow("incoming request",
		"method", method,
		"path", path,
	)
}

// ResponseLog makes response log
func (logger *zapLogger) ResponseLog(status int, size int, duration time.Duration) {
	logger.logZap.Infow("Send response with",
		"status", status,
		"size", size,
		"time", duration.String(),
	)
}

// Info logs message at info level
func (logger *zapLogger) Info(mes string) {
	logger.logZap.Info(mes)
}

func (logger *zapLogger) Infof(str string, arg ...any) {
	logger.logZap.Infof(str, arg...)
}

// Error logs message at error level
func (logger *zapLogger) Error(mes string) {
	logger.logZap.Error(mes)
}

func (logger *zapLogger) Errorf(str string, arg ...any) {
	logger.logZap.Errorf(str, arg...)
}

// Debug logs message at debug level
func (logger *zapLogger) Debug(mes string) {
	logger.logZap.Debug(mes)
}

// Debugf logs formatted message at debug level
func (logger *zapLogger) Debugf(str string, arg ...any) {
	logger.logZap.Debugf(str, arg...)
}

// Close сбрасывает буферизованные записи
func (logger *zapLogger) Close() error {
	return logger.logger.Sync()
}
