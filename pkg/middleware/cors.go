package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/collegematch/collegematch-engine/pkg/config"
)

// CORS returns middleware allowing the configured web frontends to call the
// API with credentials.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
		MaxAge:           cfg.MaxAge,
	})
}
