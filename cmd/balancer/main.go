// Command balancer is a sticky HTTP load balancer for a pool of game servers.
// Rooms live in server memory, so every request from one client must keep
// hitting the same backend. New clients go to the backend currently filling a
// room; after four distinct clients the balancer moves on, so a foursome
// lands in the same process.
package main

import (
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/arfandy/coup-server/internal/logger"
)

// roomSize is how many clients fill one backend before rotation advances.
const roomSize = 4

type backend struct {
	target  *url.URL
	proxy   *httputil.ReverseProxy
	counter int
}

// pool pins client IPs to backends and rotates the fill target.
type pool struct {
	mu       sync.Mutex
	backends []*backend
	current  int
	clients  map[string]*backend // client IP -> pinned backend
}

func newPool(targets []*url.URL) *pool {
	p := &pool{clients: make(map[string]*backend)}
	for _, t := range targets {
		p.backends = append(p.backends, &backend{
			target: t,
			proxy:  httputil.NewSingleHostReverseProxy(t),
		})
	}
	return p
}

// pick returns the backend for a client IP, pinning new clients to the
// backend currently being filled.
func (p *pool) pick(clientIP string) *backend {
	p.mu.Lock()
	defer p.mu.Unlock()

	if b, ok := p.clients[clientIP]; ok {
		return b
	}

	b := p.backends[p.current]
	p.clients[clientIP] = b
	b.counter++
	log.Info().Str("clientIp", clientIP).Str("backend", b.target.Host).
		Int("counter", b.counter).Msg("Pinned new client")

	if b.counter >= roomSize {
		p.current++
		if p.current >= len(p.backends) {
			// Every backend has taken a full room; start the cycle over.
			p.current = 0
			for _, bb := range p.backends {
				bb.counter = 0
			}
		}
	}
	return b
}

func (p *pool) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	p.pick(ip).proxy.ServeHTTP(w, r)
}

func main() {
	logger.Init()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8003"
	}
	backends := os.Getenv("BACKENDS")
	if backends == "" {
		backends = "127.0.0.1:8000,127.0.0.1:8001,127.0.0.1:8002"
	}

	var targets []*url.URL
	for _, host := range strings.Split(backends, ",") {
		host = strings.TrimSpace(host)
		if host == "" {
			continue
		}
		u, err := url.Parse("http://" + host)
		if err != nil {
			log.Fatal().Err(err).Str("backend", host).Msg("Invalid backend address")
		}
		targets = append(targets, u)
	}
	if len(targets) == 0 {
		log.Fatal().Msg("No backends configured")
	}

	p := newPool(targets)
	srv := &http.Server{Addr: ":" + port, Handler: p}

	go func() {
		log.Info().Str("port", port).Int("backends", len(targets)).Msg("Load balancer listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Load balancer error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Load balancer stopped")
}
