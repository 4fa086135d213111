package core

import (
	"bytes"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	codec "github.com/daryl-03/caching-proxy/pkg/entry-codec"
	parser "github.com/daryl-03/caching-proxy/pkg/request-parser"
)

// Headers that are hop-specific and must never be forwarded to the
// origin verbatim.
var excludedHeaders = []string{"Host", "Connection", "Proxy-Connection"}

// OriginClient forwards one parsed request to its origin and captures
// the response as a cacheable entry.
type OriginClient struct {
	client http.Client
}

func NewOriginClient() *OriginClient {
	return &OriginClient{
		client: http.Client{
			// do not follow redirects; the cached response must be
			// exactly what the origin returned for this target
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Fetch resolves the request's absolute URL from its Host header,
// performs a single attempt against the origin, and returns the
// complete response record. The status line is rebuilt with the
// client's declared protocol version, not the origin's.
func (o *OriginClient) Fetch(req *parser.Request) (*codec.Entry, error) {
	host, _ := req.Header.Get("Host")
	uri := host + req.Target
	if !strings.HasPrefix(host, "http") {
		uri = "http://" + uri
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	originReq, err := http.NewRequest(req.Method, uri, body)
	if err != nil {
		return nil, &ForwardError{URL: uri, Err: err}
	}
	req.Header.Each(func(name string, values []string) {
		for _, excluded := range excludedHeaders {
			if strings.EqualFold(name, excluded) {
				return
			}
		}
		originReq.Header.Set(name, strings.Join(values, ", "))
	})

	log.Trace().Str("url", uri).Str("method", req.Method).Msg("Forwarding to origin")
	res, err := o.client.Do(originReq)
	if err != nil {
		return nil, &ForwardError{URL: uri, Err: err}
	}
	defer res.Body.Close()

	entry := &codec.Entry{
		StatusLine: req.Version + " " + statusWithReason(res),
	}
	for _, name := range sortedHeaderNames(res.Header) {
		for _, value := range res.Header[name] {
			entry.Header.Add(name, value)
		}
	}

	// origins that only populate an error body for 4xx/5xx statuses
	// still surface it here: the client exposes both through Body
	entry.Body, err = io.ReadAll(res.Body)
	if err != nil {
		return nil, &ForwardError{URL: uri, Err: err}
	}

	return entry, nil
}

// statusWithReason returns "<code> <reason>", e.g. "200 OK".
func statusWithReason(res *http.Response) string {
	if res.Status != "" {
		return res.Status
	}
	return strconv.Itoa(res.StatusCode) + " " + http.StatusText(res.StatusCode)
}

func sortedHeaderNames(header http.Header) []string {
	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
