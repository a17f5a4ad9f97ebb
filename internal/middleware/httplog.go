package middleware

import (
	"net/http"
	"time"

	"github.com/MrPunder/qr-generator/internal/logger"
	"github.com/MrPunder/qr-generator/internal/models"
)

// accessLogger логгер с методами для строки запроса и строки ответа
type accessLogger interface {
	logger.Logger
	RequestLog(method string, path string)
	ResponseLog(status int, size int, duration time.Duration)
}

// AccessLog пишет в лог каждый запрос к генератору и отмечает ответы,
// построенные запасным генератором
type AccessLog struct {
	log accessLogger
}

func NewAccessLog(log accessLogger) *AccessLog {
	return &AccessLog{log: log}
}

// recordingWriter запоминает код ответа и число отданных байт
type recordingWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *recordingWriter) WriteHeader(status int) {
	if rw.status == 0 {
		rw.status = status
	}
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *recordingWriter) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

func (a *AccessLog) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.log.RequestLog(r.Method, r.RequestURI)

		start := time.Now()
		rw := &recordingWriter{ResponseWriter: w}
		next.ServeHTTP(rw, r)

		a.log.ResponseLog(rw.status, rw.size, time.Since(start))

		h := rw.Header()
		if h.Get(models.FallbackHeader) == "true" {
			a.log.Infof("fallback pattern served for %s (%s, %d bytes)", r.RequestURI, h.Get("Content-Type"), rw.size)
		}
	})
}
