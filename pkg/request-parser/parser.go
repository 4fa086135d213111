// Package parser reads HTTP/1.x requests off a raw client connection.
// It deliberately implements the same line-oriented parsing the proxy
// has always done (first-colon name/value split, ", " value lists,
// last duplicate header wins) instead of delegating to net/http.
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNoRequest signals that the connection yielded no request line at
// all, e.g. the client connected and closed without sending anything.
// It is a terminal condition, not a protocol error.
var ErrNoRequest = errors.New("no request on connection")

// ParseError is returned for a request line that cannot be split into
// method, target and version.
type ParseError struct {
	Line string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed request line %q", e.Line)
}

// Request is one parsed client request.
type Request struct {
	Method  string
	Target  string
	// Version is echoed verbatim into the response status line.
	Version string
	Header  Header
	Body    []byte
}

// Parser turns a line-oriented byte stream into Requests.
type Parser struct {
	// FixedOrigin, when non-empty, overwrites the Host header of every
	// parsed request. This is how fixed-origin mode redirects all
	// traffic to the one configured backend.
	FixedOrigin string
}

// Parse consumes exactly one request from rd, including a
// Content-Length body for POST and PUT requests.
func (p Parser) Parse(rd *bufio.Reader) (*Request, error) {
	line, err := rd.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil && err != io.EOF {
			return nil, err
		}
		return nil, ErrNoRequest
	}

	parts := strings.Split(line, " ")
	if len(parts) < 3 {
		return nil, &ParseError{Line: line}
	}

	req := &Request{
		Method:  parts[0],
		Target:  parts[1],
		Version: parts[2],
	}

	for {
		line, err := rd.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if err != nil && err != io.EOF {
				return nil, err
			}
			break
		}
		if name, value, found := strings.Cut(line, ":"); found {
			// a field value may itself be a ", "-joined list
			req.Header.Set(strings.TrimSpace(name), strings.Split(strings.TrimSpace(value), ", ")...)
		}
	}

	if p.FixedOrigin != "" {
		req.Header.Set("Host", p.FixedOrigin)
	}

	if err := p.readBody(rd, req); err != nil {
		return nil, err
	}

	return req, nil
}

// readBody reads exactly Content-Length bytes for POST and PUT
// requests, leaving the reader positioned after the body.
func (p Parser) readBody(rd *bufio.Reader, req *Request) error {
	if !strings.EqualFold(req.Method, "POST") && !strings.EqualFold(req.Method, "PUT") {
		return nil
	}
	lengthValue, ok := req.Header.Get("Content-Length")
	if !ok {
		return nil
	}
	length, err := strconv.Atoi(lengthValue)
	if err != nil {
		return fmt.Errorf("invalid Content-Length %q: %w", lengthValue, err)
	}
	if length <= 0 {
		return nil
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(rd, body); err != nil {
		return fmt.Errorf("reading request body: %w", err)
	}
	req.Body = body
	return nil
}
