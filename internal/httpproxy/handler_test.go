package httpproxy

import (
	"context"
	"net"
	"testing"
)

type stubDialer struct {
	conn net.Conn
	err  error
}

func (d *stubDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return d.conn, d.err
}

func noopRelay(ctx context.Context, client, upstream net.Conn) (int64, int64, error) {
	return 3, 5, nil
}

func TestHandleConnectReportsRelayBytes(t *testing.T) {
	upstream, upstreamPeer := net.Pipe()
	defer upstreamPeer.Close()

	var reported [2]int64
	h := &Handler{
		Dialer: &stubDialer{conn: upstream},
		Relay:  noopRelay,
		OnRelayBytes: func(clientToUpstream, upstreamToClient int64) {
			reported = [2]int64{clientToUpstream, upstreamToClient}
		},
	}

	req := &Request{Method: "CONNECT", URI: "example.com:443"}

	clientConn, clientPeer := net.Pipe()
	defer clientPeer.Close()

	done := make(chan error, 1)
	go func() { done <- h.handleConnect(context.Background(), clientConn, req) }()

	buf := make([]byte, 64)
	clientPeer.Read(buf)

	if err := <-done; err != nil {
		t.Fatalf("handleConnect returned error: %v", err)
	}
	if reported != ([2]int64{3, 5}) {
		t.Errorf("expected relay byte callback (3, 5), got %v", reported)
	}
}

func TestHandleConnectDialFailureRepliesBadGateway(t *testing.T) {
	h := &Handler{
		Dialer: &stubDialer{err: errDialFailed},
	}
	req := &Request{Method: "CONNECT", URI: "example.com:443"}

	clientConn, clientPeer := net.Pipe()
	defer clientPeer.Close()

	done := make(chan error, 1)
	go func() { done <- h.handleConnect(context.Background(), clientConn, req) }()

	buf := make([]byte, 128)
	n, err := clientPeer.Read(buf)
	if err != nil {
		t.Fatalf("reading response: %v", err)
	}
	if got := string(buf[:n]); got[:12] != "HTTP/1.1 502" {
		t.Errorf("expected 502 response, got %q", got)
	}
	<-done
}

var errDialFailed = &net.OpError{Op: "dial", Err: errUnreachable{}}

type errUnreachable struct{}

func (errUnreachable) Error() string { return "connection refused" }
