package middleware

import (
	"net/http"
	"time"

	"zcrm/pkg/logger"

	"github.com/go-chi/chi/v5/middleware"
)

// NewLoggingMiddleware cria um middleware de logging usando o logger centralizado
func NewLoggingMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Usar o wrapper de response writer do chi para capturar status code
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				duration := time.Since(start)
				status := ww.Status()

				fields := map[string]interface{}{
					"method":     r.Method,
					"path":       r.URL.Path,
					"status":     status,
					"ms":         duration.Milliseconds(),
					"request_id": middleware.GetReqID(r.Context()),
				}

				// Erros e requests lentos sempre; o resto só em debug.
				// Inicialização de sessão e geração de QR podem passar de 3s
				// legitimamente, por isso warning e não error.
				switch {
				case status >= 400:
					log.WithFields(fields).Error().Msg("HTTP error")
				case duration > 3*time.Second:
					log.WithFields(fields).Warn().Msg("Slow request")
				default:
					log.WithFields(fields).Debug().Msg("HTTP")
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
