// Package core implements the proxy itself: the listener, the
// per-connection handler, the origin client, the cache store façade
// and the CONNECT tunnel relay.
package core

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/daryl-03/caching-proxy/cache"
	"github.com/daryl-03/caching-proxy/obs"
	codec "github.com/daryl-03/caching-proxy/pkg/entry-codec"
	parser "github.com/daryl-03/caching-proxy/pkg/request-parser"
)

type Config struct {
	// Port to listen on.
	Port int
	// Origin is the fixed backend every request is redirected to.
	// Ignored in full-proxy mode.
	Origin string
	// FullProxy honors the client's stated Host instead of rewriting
	// it to Origin.
	FullProxy bool
	// Cache is the storage backend for response records.
	Cache cache.Provider
	// Metrics may be nil, in which case nothing is recorded.
	Metrics *obs.Metrics
}

// Server accepts client connections and dispatches each one to its
// own handler goroutine. Connections are isolated failure domains: a
// failing connection never affects the listener or other connections.
type Server struct {
	port    int
	store   Store
	origin  *OriginClient
	parser  parser.Parser
	metrics *obs.Metrics
}

func NewServer(cfg Config) *Server {
	s := &Server{
		port:    cfg.Port,
		store:   NewStore(cfg.Cache),
		origin:  NewOriginClient(),
		metrics: cfg.Metrics,
	}
	if !cfg.FullProxy {
		s.parser.FixedOrigin = cfg.Origin
	}
	return s
}

// Run listens on the configured port and serves until the listener
// fails. Failing to bind is the only fatal condition.
func (s *Server) Run() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return err
	}
	defer listener.Close()

	log.Info().Int("port", s.port).Msg("Caching proxy server started")
	if s.parser.FixedOrigin != "" {
		log.Info().Str("origin", s.parser.FixedOrigin).Msg("Forwarding requests to fixed origin")
	} else {
		log.Info().Msg("Full proxy mode, honoring client Host headers")
	}

	return s.Serve(listener)
}

// Serve accepts connections from an existing listener. It is split out
// from Run so tests can listen on an ephemeral port.
func (s *Server) Serve(listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			return err
		}
		go s.handleConnection(conn)
	}
}

// handleConnection runs one connection through its lifecycle:
// parse, branch on CONNECT, consult the cache, fetch and persist on a
// miss, respond, close. Any error closes the connection without a
// partial response.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	start := time.Now()
	log := log.With().Str("client", conn.RemoteAddr().String()).Logger()

	req, err := s.parser.Parse(bufio.NewReader(conn))
	if errors.Is(err, parser.ErrNoRequest) {
		log.Trace().Msg("Client sent no request")
		return
	}
	if err != nil {
		log.Warn().Err(err).Msg("Could not parse request")
		s.metrics.Failure("parse")
		return
	}

	if req.Method == "CONNECT" {
		s.metrics.Tunnel()
		if err := tunnel(conn, req.Target); err != nil {
			log.Warn().Err(err).Msg("Tunnel failed")
			s.metrics.Failure("tunnel")
		}
		return
	}

	host, ok := req.Header.Get("Host")
	if !ok {
		log.Warn().Str("target", req.Target).Err(ErrMissingHost).Msg("Dropping request")
		s.metrics.Failure("missing-host")
		return
	}

	key := s.store.Key(req.Method, host, req.Target)
	log = log.With().Str("key", key).Logger()

	entry, hit, err := s.store.Get(key)
	if err != nil {
		log.Error().Err(err).Msg("Could not read cache entry")
		s.metrics.Failure("store")
		return
	}
	if !hit {
		if entry, err = s.origin.Fetch(req); err != nil {
			log.Error().Err(err).Msg("Could not fetch from origin")
			s.metrics.Failure("forward")
			return
		}
		if err := s.store.Put(key, entry); err != nil {
			log.Error().Err(err).Msg("Could not write cache entry")
			s.metrics.Failure("store")
			return
		}
	}

	if err := respond(conn, entry, hit); err != nil {
		log.Warn().Err(err).Msg("Could not write response to client")
		return
	}
	s.metrics.Request(hit, time.Since(start))
	log.Debug().Bool("hit", hit).Str("method", req.Method).Str("target", req.Target).Msg("Response sent")
}

// respond writes the entry back to the client with the proxy's two
// added headers. A stored Connection header is skipped so the forced
// Connection: close cannot be contradicted.
func respond(conn net.Conn, entry *codec.Entry, hit bool) error {
	w := bufio.NewWriter(conn)

	w.WriteString(entry.StatusLine)
	w.WriteString("\r\n")
	entry.Header.Each(func(name string, values []string) {
		if strings.EqualFold(name, "Connection") {
			return
		}
		w.WriteString(name)
		w.WriteString(": ")
		w.WriteString(strings.Join(values, ", "))
		w.WriteString("\r\n")
	})

	cacheStatus := "MISS"
	if hit {
		cacheStatus = "HIT"
	}
	w.WriteString("X-CACHE: " + cacheStatus + "\r\n")
	w.WriteString("Connection: close\r\n\r\n")

	if len(entry.Body) > 0 {
		w.Write(entry.Body)
	}
	return w.Flush()
}
