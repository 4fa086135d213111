package core

import (
	"net"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// relay chunk size for each tunnel direction
	relayBufferSize = 8192

	proxyAgent = "caching-proxy"

	connectionEstablished = "HTTP/1.1 200 Connection Established\r\n" +
		"Proxy-Agent: " + proxyAgent + "\r\n\r\n"
)

// tunnel services one CONNECT request: it acknowledges the client,
// dials the target, and pumps bytes in both directions until either
// side closes. The proxy never inspects the tunneled traffic.
func tunnel(clientConn net.Conn, target string) error {
	host, port := splitTarget(target)

	// the client is acknowledged before the target is dialed; whatever
	// handshake follows is opaque to the proxy
	if _, err := clientConn.Write([]byte(connectionEstablished)); err != nil {
		return &TunnelError{Target: target, Err: err}
	}

	targetConn, err := net.Dial("tcp", net.JoinHostPort(host, port))
	if err != nil {
		return &TunnelError{Target: target, Err: err}
	}

	log.Debug().Str("target", target).Msg("Tunnel established")

	var group errgroup.Group
	group.Go(func() error {
		relay(clientConn, targetConn)
		return nil
	})
	group.Go(func() error {
		relay(targetConn, clientConn)
		return nil
	})
	group.Wait()

	return targetConn.Close()
}

// splitTarget parses a CONNECT target of the form host[:port],
// defaulting the port to 443 when omitted.
func splitTarget(target string) (string, string) {
	if host, port, err := net.SplitHostPort(target); err == nil {
		return host, port
	}
	return target, "443"
}

// relay copies bytes from src to dst in fixed-size chunks until src
// reports end-of-stream or either side fails. Each chunk is written
// out immediately; net.Conn writes are unbuffered. A finished
// direction is not an error, it is how tunnels end.
func relay(dst, src net.Conn) {
	buf := make([]byte, relayBufferSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}
