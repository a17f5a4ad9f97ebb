package middleware

import (
	"net/http"

	"github.com/MrPunder/qr-generator/internal/models"
)

// CORS разрешает запросы с любого источника, как это делала форма генератора.
// Preflight-запросы OPTIONS завершаются здесь же.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Content-Encoding")
		h.Set("Access-Control-Expose-Headers", models.FallbackHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
