package middleware

import (
	"net/http"
	"strings"

	"github.com/MrPunder/qr-generator/internal/gzipcomp"
	"github.com/MrPunder/qr-generator/internal/logger"
)

// compressibleTypes типы ответа, которые имеет смысл сжимать; PNG уже сжат
var compressibleTypes = []string{
	"application/json",
	"image/svg+xml",
	"text/html",
	"text/plain",
}

// GzipCompressor is middleware compressor
type GzipCompressor struct {
	log logger.Logger
}

func NewGzipCompressor(log logger.Logger) *GzipCompressor {
	return &GzipCompressor{
		log: log,
	}
}

func isCompressible(contentType string) bool {
	for _, t := range compressibleTypes {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}

func (c *GzipCompressor) CompressHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
			c.log.Debug("Detected gzip request body")

			body, err := gzipcomp.NewGzipCompressReader(r.Body)
			if err != nil {
				c.log.Errorf("Error setting read buffer for gzip compressor: %v", err)
				http.Error(w, `{"error":"invalid gzip body"}`, http.StatusBadRequest)
				return
			}
			r.Body = body
			defer body.Close()
		}

		supportGzip := false
		for _, value := range r.Header.Values("Accept-Encoding") {
			if strings.Contains(value, "gzip") {
				supportGzip = true
				break
			}
		}

		if !supportGzip {
			next.ServeHTTP(w, r)
			return
		}

		rw := gzipcomp.NewGzipResponseWriter(w)
		next.ServeHTTP(rw, r)

		if rw.Status() >= 300 || !isCompressible(rw.Header().Get("Content-Type")) {
			rw.WriteTo(w)
			return
		}

		cw := gzipcomp.NewGzipCompressWriter(w)
		defer cw.Close()
		if _, err := rw.WriteTo(cw); err != nil {
			c.log.Errorf("Error writing compressed response: %v", err)
		}
		c.log.Debug("response compressed with gzip")
	})
}
