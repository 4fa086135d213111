// Package codec serializes cached response records to a stable,
// self-describing byte format.
//
// A record is a sequence of length-prefixed fields, in order: the
// status line, a field count, then for each header field a name and a
// value (multi-value fields are written as repeated name/value pairs),
// and finally the body. All prefixes and counts are big-endian
// uint32. The body length may be zero.
package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	parser "github.com/daryl-03/caching-proxy/pkg/request-parser"
)

// ErrCorrupt is wrapped into every decode failure caused by a
// truncated or otherwise malformed record.
var ErrCorrupt = errors.New("corrupt cache record")

// Entry is one persisted response: the status line as forwarded to the
// client, the response headers in forwarding order, and the body.
type Entry struct {
	StatusLine string
	Header     parser.Header
	Body       []byte
}

// Encode serializes the entry.
func Encode(e *Entry) []byte {
	var buf bytes.Buffer
	writeChunk(&buf, []byte(e.StatusLine))

	var count uint32
	e.Header.Each(func(name string, values []string) {
		count += uint32(len(values))
	})
	writeUint32(&buf, count)
	e.Header.Each(func(name string, values []string) {
		for _, value := range values {
			writeChunk(&buf, []byte(name))
			writeChunk(&buf, []byte(value))
		}
	})

	writeChunk(&buf, e.Body)
	return buf.Bytes()
}

// Decode parses a record previously produced by Encode.
func Decode(b []byte) (*Entry, error) {
	rd := bytes.NewReader(b)

	statusLine, err := readChunk(rd)
	if err != nil {
		return nil, fmt.Errorf("%w: status line: %v", ErrCorrupt, err)
	}
	entry := &Entry{StatusLine: string(statusLine)}

	count, err := readUint32(rd)
	if err != nil {
		return nil, fmt.Errorf("%w: header count: %v", ErrCorrupt, err)
	}
	for i := uint32(0); i < count; i++ {
		name, err := readChunk(rd)
		if err != nil {
			return nil, fmt.Errorf("%w: header name: %v", ErrCorrupt, err)
		}
		value, err := readChunk(rd)
		if err != nil {
			return nil, fmt.Errorf("%w: header value: %v", ErrCorrupt, err)
		}
		entry.Header.Add(string(name), string(value))
	}

	body, err := readChunk(rd)
	if err != nil {
		return nil, fmt.Errorf("%w: body: %v", ErrCorrupt, err)
	}
	if len(body) > 0 {
		entry.Body = body
	}

	if rd.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, rd.Len())
	}
	return entry, nil
}

func writeUint32(buf *bytes.Buffer, n uint32) {
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], n)
	buf.Write(prefix[:])
}

func writeChunk(buf *bytes.Buffer, b []byte) {
	writeUint32(buf, uint32(len(b)))
	buf.Write(b)
}

func readUint32(rd *bytes.Reader) (uint32, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(rd, prefix[:]); err != nil {
		return 0, errors.New("short read")
	}
	return binary.BigEndian.Uint32(prefix[:]), nil
}

func readChunk(rd *bytes.Reader) ([]byte, error) {
	length, err := readUint32(rd)
	if err != nil {
		return nil, err
	}
	if int(length) > rd.Len() {
		return nil, fmt.Errorf("field length %d exceeds remaining %d bytes", length, rd.Len())
	}
	chunk := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(rd, chunk); err != nil {
			return nil, err
		}
	}
	return chunk, nil
}
