// Package ratelimit provides a per-client-IP token bucket middleware.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxClients caps the tracked bucket count so hostile traffic cannot grow
// the map without bound.
const maxClients = 10000

// Limiter hands out one token bucket per client IP. Buckets idle for twice
// the sweep interval are dropped.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	rate    rate.Limit
	burst   int
	sweep   time.Duration
	proxies []*net.IPNet
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New builds a limiter allowing r requests per second with the given burst.
// trustedProxies lists CIDRs (or bare IPs) whose X-Forwarded-For headers are
// believed; when empty, forwarding headers are trusted from anyone.
func New(r rate.Limit, burst int, sweep time.Duration, trustedProxies []string) *Limiter {
	l := &Limiter{
		buckets: make(map[string]*bucket),
		rate:    r,
		burst:   burst,
		sweep:   sweep,
		proxies: parseProxies(trustedProxies),
	}
	go l.sweepIdle()
	return l
}

func parseProxies(cidrs []string) []*net.IPNet {
	var out []*net.IPNet
	for _, cidr := range cidrs {
		if _, ipnet, err := net.ParseCIDR(cidr); err == nil {
			out = append(out, ipnet)
			continue
		}
		// Bare IPs become host routes.
		if ip := net.ParseIP(cidr); ip != nil {
			bits := 128
			if ip.To4() != nil {
				bits = 32
			}
			out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
		}
	}
	return out
}

// Middleware rejects requests over the per-IP budget with 429.
func (l *Limiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(l.clientIP(r)) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (l *Limiter) allow(ip string) bool {
	l.mu.Lock()
	b, ok := l.buckets[ip]
	if !ok {
		if len(l.buckets) >= maxClients {
			l.evictOldest()
		}
		b = &bucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = time.Now()
	l.mu.Unlock()

	return b.limiter.Allow()
}

// evictOldest runs with l.mu held.
func (l *Limiter) evictOldest() {
	var victim string
	var oldest time.Time
	for ip, b := range l.buckets {
		if victim == "" || b.lastSeen.Before(oldest) {
			victim, oldest = ip, b.lastSeen
		}
	}
	if victim != "" {
		delete(l.buckets, victim)
	}
}

func (l *Limiter) sweepIdle() {
	ticker := time.NewTicker(l.sweep)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-2 * l.sweep)
		l.mu.Lock()
		for ip, b := range l.buckets {
			if b.lastSeen.Before(cutoff) {
				delete(l.buckets, ip)
			}
		}
		l.mu.Unlock()
	}
}

// clientIP resolves the address to rate-limit on. Forwarding headers are
// only honored when the direct peer is a trusted proxy (or when no proxy
// list is configured).
func (l *Limiter) clientIP(r *http.Request) string {
	peer := parseAddr(r.RemoteAddr)

	if len(l.proxies) > 0 && !l.trusted(peer) {
		return peer.String()
	}

	// X-Forwarded-For: client, proxy1, proxy2 — leftmost is the origin.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip.String()
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(xri); ip != nil {
			return ip.String()
		}
	}
	return peer.String()
}

func (l *Limiter) trusted(ip net.IP) bool {
	for _, ipnet := range l.proxies {
		if ipnet.Contains(ip) {
			return true
		}
	}
	return false
}

func parseAddr(addr string) net.IP {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return net.ParseIP(host)
	}
	return net.ParseIP(addr)
}
