package middleware

import (
	"net/http"
	"strings"

	"github.com/MrPunder/qr-generator/internal/logger"
)

// TokenAuthConfig содержит конфигурацию для TokenAuth
type TokenAuthConfig struct {
	APIToken string
	Logger   logger.Logger
	// SkipPrefixes пути, которые не требуют токена
	SkipPrefixes []string
}

// TokenAuth проверяет статический токен API. Пустой токен отключает проверку.
type TokenAuth struct {
	config TokenAuthConfig
}

func NewTokenAuth(config TokenAuthConfig) *TokenAuth {
	return &TokenAuth{
		config: config,
	}
}

func (ta *TokenAuth) skip(path string) bool {
	for _, prefix := range ta.config.SkipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Middleware создает middleware для проверки токена API
func (ta *TokenAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ta.config.APIToken == "" || r.Method == http.MethodOptions || ta.skip(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			ta.config.Logger.Errorf("Request without token: %s %s", r.Method, r.URL.Path)
			http.Error(w, "Unauthorized: Token required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			ta.config.Logger.Errorf("Invalid token format: %s %s", r.Method, r.URL.Path)
			http.Error(w, "Unauthorized: Invalid token format", http.StatusUnauthorized)
			return
		}

		if parts[1] != ta.config.APIToken {
			ta.config.Logger.Errorf("Invalid token: %s %s", r.Method, r.URL.Path)
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
