package httpproxy

import (
	"fmt"
	"io"
	"sort"
)

// hopByHopHeaders are stripped from the request before it is forwarded
// upstream, per RFC 7230 §6.1 and this proxy's own Proxy-Authorization
// gate (the credential must never reach the origin server).
var hopByHopHeaders = map[string]bool{
	"proxy-connection":   true,
	"proxy-authorization": true,
}

// WriteForwardedRequest re-serializes the request line and every header
// except the hop-by-hop set, for absolute-URI forwarding to the
// upstream. The request body, if any, is left for the caller's relay to
// carry verbatim.
func WriteForwardedRequest(w io.Writer, req *Request) error {
	if _, err := fmt.Fprintf(w, "%s %s %s\r\n", req.Method, req.URI, req.Version); err != nil {
		return err
	}

	names := make([]string, 0, len(req.Headers))
	for name := range req.Headers {
		if !hopByHopHeaders[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := fmt.Fprintf(w, "%s: %s\r\n", name, req.Headers[name]); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}
