package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// pruneThreshold caps the tracked-client map before expired windows are
// swept out.
const pruneThreshold = 4096

type rateWindow struct {
	count   int
	resetAt time.Time
}

// RateLimit applies a fixed-window per-IP request limit. Submission bursts
// beyond the window limit get 429 with a Retry-After hint before reaching
// quota admission.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	var mu sync.Mutex
	windows := make(map[string]*rateWindow)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := throttleKey(r)
			now := time.Now()

			mu.Lock()
			if len(windows) >= pruneThreshold {
				for key, win := range windows {
					if now.After(win.resetAt) {
						delete(windows, key)
					}
				}
			}
			win, ok := windows[ip]
			if !ok || now.After(win.resetAt) {
				win = &rateWindow{resetAt: now.Add(per)}
				windows[ip] = win
			}
			if win.count >= limit {
				resetAt := win.resetAt
				mu.Unlock()
				retryAfter := int(time.Until(resetAt).Seconds()) + 1
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			win.count++
			mu.Unlock()

			next.ServeHTTP(w, r)
		})
	}
}

// throttleKey picks the bucket key for a request: the first parseable
// forwarded address, the remote host otherwise. Unparseable forwarded values
// never become keys, so a client cannot spoof its way into a fresh window.
func throttleKey(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		if net.ParseIP(host) != nil {
			return host
		}
	} else if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}

	return r.RemoteAddr
}
