package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/rematter-io/rematter-backend/pkg/config"
)

// CORS allows the web frontends to call the API from the browser. Dev mode
// additionally allows the local Next.js origin.
func CORS(cfg config.AppConfig) func(http.Handler) http.Handler {
	origins := []string{
		"https://rematter.io",
		"https://app.rematter.io",
	}
	if cfg.IsDev() {
		origins = append(origins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
