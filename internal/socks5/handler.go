package socks5

import (
	"bufio"
	"context"
	"fmt"
	"net"
)

// Authenticator verifies a username/password pair for the UserPass
// sub-negotiation. Implementations live in internal/auth.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) bool
}

// Dialer opens an outbound connection to an address already resolved by
// the Resolver. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Resolver resolves a request's Address to a dialable address, kept as
// a step distinct from dialing so DNS failures can be reported with
// their own reply code rather than being folded into a connect failure.
// Implemented by internal/resolver.
type Resolver interface {
	Resolve(ctx context.Context, addr Address, port uint16) (*net.TCPAddr, error)
}

// Relayer copies bytes bidirectionally between the client and the
// outbound connection once a CONNECT tunnel is established, returning
// byte counts in each direction. Implemented by internal/relay.
type Relayer func(ctx context.Context, client, upstream net.Conn) (clientToUpstream, upstreamToClient int64, err error)

// Handler drives the per-connection SOCKS5 state machine: greeting,
// optional UserPass sub-negotiation, request, dispatch, relay.
type Handler struct {
	AuthEnabled   bool
	Authenticator Authenticator // nil iff AuthEnabled is false
	Resolver      Resolver
	Dialer        Dialer
	Relay         Relayer
	OnAuthOutcome func(ok bool)
	OnCommand     func(cmd Command, addr Address, port uint16)
	OnRelayBytes  func(clientToUpstream, upstreamToClient int64)
}

// Serve runs the SOCKS5 state machine to completion on conn. It always
// closes conn before returning.
func (h *Handler) Serve(ctx context.Context, conn net.Conn) error {
	defer conn.Close()

	br := bufio.NewReader(conn)

	greeting, err := ReadGreeting(br)
	if err != nil {
		return fmt.Errorf("socks5: greeting: %w", err)
	}

	method := h.selectMethod(greeting.Methods)
	if err := WriteMethodSelection(conn, method); err != nil {
		return fmt.Errorf("socks5: writing method selection: %w", err)
	}
	if method == AuthNoAcceptable {
		return fmt.Errorf("socks5: no acceptable authentication method")
	}

	if method == AuthUserPass {
		ok, err := h.handleUserPass(br, conn)
		if h.OnAuthOutcome != nil {
			h.OnAuthOutcome(ok)
		}
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("socks5: authentication failed")
		}
	}

	req, err := ReadRequest(br)
	if err != nil {
		return fmt.Errorf("socks5: request: %w", err)
	}
	if h.OnCommand != nil {
		h.OnCommand(req.Command, req.Address, req.Port)
	}

	if req.Command != CmdConnect {
		WriteResponse(conn, NewErrorResponse(ReplyCommandNotSupported))
		return fmt.Errorf("socks5: unsupported command 0x%02x", req.Command)
	}

	return h.handleConnect(ctx, conn, req)
}

// selectMethod picks a single method from the client's offered list
// according to whether authentication is configured. If auth is
// disabled, no-auth is selected whenever offered; user-pass is never
// selected. If auth is enabled, user-pass is selected whenever offered,
// regardless of whether no-auth was also offered.
func (h *Handler) selectMethod(offered []AuthMethod) AuthMethod {
	hasNoAuth := false
	hasUserPass := false
	for _, m := range offered {
		switch m {
		case AuthNoAuth:
			hasNoAuth = true
		case AuthUserPass:
			hasUserPass = true
		}
	}

	if h.AuthEnabled {
		if hasUserPass {
			return AuthUserPass
		}
		return AuthNoAcceptable
	}
	if hasNoAuth {
		return AuthNoAuth
	}
	return AuthNoAcceptable
}

func (h *Handler) handleUserPass(br *bufio.Reader, conn net.Conn) (bool, error) {
	sub, err := ReadUserPassRequest(br)
	if err != nil {
		return false, fmt.Errorf("socks5: sub-negotiation: %w", err)
	}

	ok := h.Authenticator != nil && h.Authenticator.Authenticate(context.Background(), sub.Username, sub.Password)

	status := byte(0x01)
	if ok {
		status = 0x00
	}
	if err := WriteUserPassResponse(conn, status); err != nil {
		return false, fmt.Errorf("socks5: writing sub-negotiation response: %w", err)
	}
	return ok, nil
}

func (h *Handler) handleConnect(ctx context.Context, conn net.Conn, req *Request) error {
	resolved, err := h.Resolver.Resolve(ctx, req.Address, req.Port)
	if err != nil {
		WriteResponse(conn, NewErrorResponse(ReplyHostUnreachable))
		return fmt.Errorf("socks5: resolving %s: %w", req.Address, err)
	}

	upstream, err := h.Dialer.DialContext(ctx, "tcp", resolved.String())
	if err != nil {
		WriteResponse(conn, NewErrorResponse(ReplyConnRefused))
		return fmt.Errorf("socks5: dialing %s: %w", resolved, err)
	}
	defer upstream.Close()

	bound, _ := upstream.LocalAddr().(*net.TCPAddr)
	if bound == nil {
		bound = &net.TCPAddr{IP: net.IPv4zero, Port: 0}
	}
	if err := WriteResponse(conn, NewSuccessResponse(bound)); err != nil {
		return fmt.Errorf("socks5: writing success response: %w", err)
	}

	clientToUpstream, upstreamToClient, err := h.Relay(ctx, conn, upstream)
	if h.OnRelayBytes != nil {
		h.OnRelayBytes(clientToUpstream, upstreamToClient)
	}
	return err
}

