package main

import (
	"slices"

	"github.com/benbeisheim/chesscore-backend/internal/config"
)

// allowedOrigins returns the CORS origins and whether credentials may be
// sent. A missing or wildcard list falls back to "*" without credentials.
func allowedOrigins(cfg config.Config) ([]string, bool) {
	origins := cfg.Origins()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return []string{"*"}, false
	}
	return origins, true
}
