package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MrPunder/qr-generator/internal/logger"
)

// AuthMiddleware пропускает только запросы с действующим токеном администратора
type AuthMiddleware struct {
	jwtManager *JWTManager
	logger     logger.Logger
}

func NewAuthMiddleware(jwtManager *JWTManager, logger logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// Middleware проверяет JWT из cookie admin_token или заголовка Authorization.
// Cookie проверяется первой: заголовок может быть занят токеном API.
func (am *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if cookie, err := r.Cookie("admin_token"); err == nil && cookie.Value != "" {
			authHeader = "Bearer " + cookie.Value
		}
		if authHeader == "" {
			writeError(w, "authentication required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, "invalid token format", http.StatusUnauthorized)
			return
		}

		if _, err := am.jwtManager.ValidateToken(parts[1]); err != nil {
			am.logger.Errorf("admin token rejected for %s %s: %v", r.Method, r.URL.Path, err)
			if errors.Is(err, ErrExpiredToken) {
				writeError(w, "token expired", http.StatusUnauthorized)
			} else {
				writeError(w, "invalid token", http.StatusUnauthorized)
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + msg + `"}`))
}
