package mw

import (
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/MrSnakeDoc/patientshare/internal/logger"
	"github.com/MrSnakeDoc/patientshare/internal/utils"
)

// errorBody matches the handlers' error envelope.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func forbid(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusForbidden)
	render.JSON(w, r, errorBody{Error: "forbidden", Code: "FORBIDDEN"})
}

func passthrough(next http.Handler) http.Handler { return next }

// AllowOnlyCIDRS restricts a route to the given IPs/CIDRs. An empty list
// disables the check. trustProxy should be true when running behind a
// trusted reverse proxy/tunnel (e.g., cloudflared).
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		log.Debug("admin IP filter disabled")
		return passthrough
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Warn("admin request rejected",
					logger.String("reason", "ip"),
					logger.String("remote_ip", ip),
					logger.String("method", r.Method))
				forbid(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// EnforceHost restricts a route to requests whose Host matches one of
// hosts. Ports are ignored and "*.example.com" matches any subdomain
// (but not example.com itself). An empty list disables the check.
func EnforceHost(hosts []string, log logger.Logger) func(http.Handler) http.Handler {
	patterns := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			patterns = append(patterns, h)
		}
	}
	if len(patterns) == 0 {
		log.Debug("admin host filter disabled")
		return passthrough
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := strings.ToLower(utils.ParseHostNoPort(r.Host))
			for _, p := range patterns {
				if matchHost(host, p) {
					next.ServeHTTP(w, r)
					return
				}
			}
			log.Warn("admin request rejected",
				logger.String("reason", "host"),
				logger.String("host", host))
			forbid(w, r)
		})
	}
}

func matchHost(host, pattern string) bool {
	if suffix, ok := strings.CutPrefix(pattern, "*"); ok {
		return strings.HasPrefix(suffix, ".") && strings.HasSuffix(host, suffix) && len(host) > len(suffix)
	}
	return host == pattern
}
