package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS returns middleware for the public read endpoints: the leaderboard and
// team directory are consumed directly from donor-facing pages, so any origin
// may read them. Credentials stay disabled.
func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler
}
