package service

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// hostGuard rejects requests whose Host or Origin is not loopback or an
// explicitly allowed host. It protects local servers from DNS rebinding.
type hostGuard struct {
	allowed map[string]struct{}
}

func newHostGuard(hosts []string) hostGuard {
	allowed := make(map[string]struct{}, len(hosts))
	for _, entry := range hosts {
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}
		allowed[strings.ToLower(trimmed)] = struct{}{}
	}
	return hostGuard{allowed: allowed}
}

func (g hostGuard) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.allowHost(r.Host) {
			http.Error(w, "invalid host", http.StatusForbidden)
			return
		}
		if origin := strings.TrimSpace(r.Header.Get("Origin")); origin != "" {
			parsed, err := url.Parse(origin)
			if err != nil || parsed.Host == "" || !g.allowHost(parsed.Host) {
				http.Error(w, "invalid origin", http.StatusForbidden)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (g hostGuard) allowHost(host string) bool {
	name, ok := normalizeHost(host)
	if !ok {
		return false
	}
	if isLoopbackHost(name) {
		return true
	}
	_, ok = g.allowed[name]
	return ok
}

func isLoopbackHost(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}

// normalizeHost extracts the lowercase hostname from a Host or Origin value.
func normalizeHost(host string) (string, bool) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", false
	}
	if strings.HasPrefix(host, "[") {
		if name, _, err := net.SplitHostPort(host); err == nil {
			return strings.ToLower(name), true
		}
		if strings.HasSuffix(host, "]") {
			return strings.ToLower(strings.Trim(host, "[]")), true
		}
		return "", false
	}
	if strings.Count(host, ":") > 1 {
		return strings.ToLower(host), true
	}
	if strings.Contains(host, ":") {
		name, _, err := net.SplitHostPort(host)
		if err != nil {
			return "", false
		}
		return strings.ToLower(name), true
	}
	return strings.ToLower(host), true
}
