package httpproxy

import (
	"fmt"
	"io"
)

// WriteConnectEstablished writes the literal CONNECT-tunnel success line.
func WriteConnectEstablished(w io.Writer) error {
	_, err := io.WriteString(w, "HTTP/1.1 200 Connection Established\r\n\r\n")
	return err
}

// WriteError writes an RFC 7230-shaped error response: status line,
// Content-Length, Connection: close, and extraHeaders, then the message
// as the body.
func WriteError(w io.Writer, status int, reason, message string, extraHeaders map[string]string) error {
	resp := fmt.Sprintf("HTTP/1.1 %d %s\r\n", status, reason)
	for name, value := range extraHeaders {
		resp += fmt.Sprintf("%s: %s\r\n", name, value)
	}
	resp += fmt.Sprintf("Content-Length: %d\r\nConnection: close\r\n\r\n%s", len(message), message)
	_, err := io.WriteString(w, resp)
	return err
}

// WriteProxyAuthRequired writes the 407 challenge per RFC 7235.
func WriteProxyAuthRequired(w io.Writer) error {
	return WriteError(w, 407, "Proxy Authentication Required", "Proxy Authentication Required",
		map[string]string{"Proxy-Authenticate": `Basic realm="Proxy"`})
}

// WriteBadGateway writes a 502-class error for an unreachable or
// unresolvable upstream.
func WriteBadGateway(w io.Writer, message string) error {
	return WriteError(w, 502, "Bad Gateway", message, nil)
}

// WriteRequestTooLarge writes a 400-class error for a request preface
// that exceeded security.max_request_size.
func WriteRequestTooLarge(w io.Writer) error {
	return WriteError(w, 400, "Bad Request", "Request Too Large", nil)
}

// WriteBadRequest writes a generic 400-class error.
func WriteBadRequest(w io.Writer, message string) error {
	return WriteError(w, 400, "Bad Request", message, nil)
}
