package server

import (
	"strings"

	"github.com/faciam-dev/gcrb/pkg/util"
)

// allowedOrigins returns the list of origins allowed for CORS.
func allowedOrigins() []string {
	allowed := util.GetEnv("ALLOWED_ORIGINS", "http://localhost:5173")
	origins := strings.Split(allowed, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}
