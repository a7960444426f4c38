// Package ratelimit provides a per-IP fixed-window limiter for abuse-prone
// routes (registration, uploads). Single-instance only; state is in memory.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"vidshare/httputil"
)

// Limiter tracks request counts per client IP over a sliding window.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    int           // requests per window
	window  time.Duration // reset interval
	sweepAt time.Time
}

type bucket struct {
	remaining int
	resetAt   time.Time
}

// New creates a Limiter allowing rate requests per window per IP.
func New(rate int, window time.Duration) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		window:  window,
		sweepAt: time.Now().Add(5 * time.Minute),
	}
}

// Allow reports whether the given IP is still within its budget. Stale
// buckets are swept opportunistically so the map stays bounded.
func (l *Limiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.After(l.sweepAt) {
		for k, b := range l.buckets {
			if now.After(b.resetAt) {
				delete(l.buckets, k)
			}
		}
		l.sweepAt = now.Add(5 * time.Minute)
	}

	b, ok := l.buckets[ip]
	if !ok || now.After(b.resetAt) {
		l.buckets[ip] = &bucket{remaining: l.rate - 1, resetAt: now.Add(l.window)}
		return true
	}
	if b.remaining <= 0 {
		return false
	}
	b.remaining--
	return true
}

// trustedCIDRs are proxy networks whose forwarding headers we trust.
var trustedCIDRs = func() []*net.IPNet {
	var nets []*net.IPNet
	for _, c := range []string{
		"127.0.0.0/8",
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"::1/128",
		"fc00::/7",
	} {
		_, n, _ := net.ParseCIDR(c)
		nets = append(nets, n)
	}
	return nets
}()

func fromTrustedProxy(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, cidr := range trustedCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

// ClientIP extracts the client IP, honoring proxy headers only for requests
// arriving from a trusted proxy network so they cannot be spoofed directly.
func ClientIP(r *http.Request) string {
	if fromTrustedProxy(r.RemoteAddr) {
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			return strings.TrimSpace(realIP)
		}
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			if idx := strings.IndexByte(forwarded, ','); idx != -1 {
				return strings.TrimSpace(forwarded[:idx])
			}
			return strings.TrimSpace(forwarded)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Middleware returns HTTP 429 when the per-IP rate is exceeded.
func Middleware(l *Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(ClientIP(r)) {
				w.Header().Set("Retry-After", "60")
				httputil.WriteJSON(w, 429, map[string]string{"error": "too many requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
