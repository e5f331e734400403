package httpproxy

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Authenticator verifies a username/password pair extracted from the
// Proxy-Authorization header. Implementations live in internal/auth.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) bool
}

// Dialer opens an outbound connection to the request's resolved target.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Relayer copies bytes bidirectionally between the client and the
// upstream connection, returning byte counts in each direction.
type Relayer func(ctx context.Context, client, upstream net.Conn) (clientToUpstream, upstreamToClient int64, err error)

// Handler drives the per-connection HTTP forward-proxy state machine.
type Handler struct {
	AuthEnabled    bool
	Authenticator  Authenticator // nil iff AuthEnabled is false
	Dialer         Dialer
	Relay          Relayer
	MaxRequestSize int64
	OnAuthOutcome  func(ok bool)
	OnRequest      func(method, uri string)
	OnRelayBytes   func(clientToUpstream, upstreamToClient int64)
}

// Serve runs the HTTP proxy state machine to completion on conn. It
// always closes conn before returning.
func (h *Handler) Serve(ctx context.Context, conn net.Conn) error {
	defer conn.Close()

	br := bufio.NewReader(conn)

	req, err := ReadRequest(br, h.MaxRequestSize)
	if err == ErrRequestTooLarge {
		WriteRequestTooLarge(conn)
		return err
	}
	if err != nil {
		WriteBadRequest(conn, "Malformed Request")
		return err
	}
	if h.OnRequest != nil {
		h.OnRequest(req.Method, req.URI)
	}

	if h.AuthEnabled {
		ok, authErr := h.authenticate(ctx, req)
		if h.OnAuthOutcome != nil {
			h.OnAuthOutcome(ok)
		}
		if !ok {
			WriteProxyAuthRequired(conn)
			if authErr != nil {
				return authErr
			}
			return fmt.Errorf("httpproxy: proxy authentication failed")
		}
	}

	if req.IsConnect() {
		return h.handleConnect(ctx, conn, req)
	}
	return h.handleForward(ctx, conn, req)
}

func (h *Handler) authenticate(ctx context.Context, req *Request) (bool, error) {
	header, ok := req.Headers["proxy-authorization"]
	if !ok {
		return false, nil
	}
	const prefix = "basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return false, fmt.Errorf("httpproxy: unsupported Proxy-Authorization scheme")
	}

	raw, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return false, fmt.Errorf("httpproxy: malformed Proxy-Authorization base64: %w", err)
	}

	user, pass, found := strings.Cut(string(raw), ":")
	if !found {
		return false, fmt.Errorf("httpproxy: malformed Proxy-Authorization credentials")
	}

	if h.Authenticator == nil {
		return false, nil
	}
	return h.Authenticator.Authenticate(ctx, user, pass), nil
}

func (h *Handler) handleConnect(ctx context.Context, conn net.Conn, req *Request) error {
	host, port, err := req.GetHostPort()
	if err != nil {
		WriteBadRequest(conn, "Invalid CONNECT Target")
		return err
	}

	upstream, err := h.Dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		WriteBadGateway(conn, "Failed To Connect To Target")
		return fmt.Errorf("httpproxy: dialing %s:%d: %w", host, port, err)
	}
	defer upstream.Close()

	if err := WriteConnectEstablished(conn); err != nil {
		return fmt.Errorf("httpproxy: writing CONNECT response: %w", err)
	}

	clientToUpstream, upstreamToClient, err := h.Relay(ctx, conn, upstream)
	if h.OnRelayBytes != nil {
		h.OnRelayBytes(clientToUpstream, upstreamToClient)
	}
	return err
}

func (h *Handler) handleForward(ctx context.Context, conn net.Conn, req *Request) error {
	host, port, err := req.GetHostPort()
	if err != nil {
		WriteBadRequest(conn, "Invalid Request Target")
		return err
	}

	upstream, err := h.Dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		WriteBadGateway(conn, "Failed To Connect To Target")
		return fmt.Errorf("httpproxy: dialing %s:%d: %w", host, port, err)
	}
	defer upstream.Close()

	if err := WriteForwardedRequest(upstream, req); err != nil {
		return fmt.Errorf("httpproxy: forwarding request: %w", err)
	}

	clientToUpstream, upstreamToClient, err := h.Relay(ctx, conn, upstream)
	if h.OnRelayBytes != nil {
		h.OnRelayBytes(clientToUpstream, upstreamToClient)
	}
	return err
}
