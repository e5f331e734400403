package httpproxy

import (
	"bufio"
	"strings"
	"testing"
)

func TestReadRequestConnect(t *testing.T) {
	raw := "CONNECT example.com:443 HTTP/1.1\r\nHost: example.com:443\r\nProxy-Authorization: Basic YWxpY2U6c2Vj\r\n\r\n"
	req, err := ReadRequest(bufio.NewReader(strings.NewReader(raw)), 0)
	if err != nil {
		t.Fatalf("ReadRequest failed: %v", err)
	}
	if !req.IsConnect() {
		t.Error("expected CONNECT request")
	}
	if req.Headers["proxy-authorization"] != "Basic YWxpY2U6c2Vj" {
		t.Errorf("header not preserved: %+v", req.Headers)
	}
	host, port, err := req.GetHostPort()
	if err != nil {
		t.Fatalf("GetHostPort failed: %v", err)
	}
	if host != "example.com" || port != 443 {
		t.Errorf("got %s:%d", host, port)
	}
}

func TestReadRequestAbsoluteURIDefaultPort(t *testing.T) {
	raw := "GET http://example.com/ HTTP/1.1\r\n\r\n"
	req, err := ReadRequest(bufio.NewReader(strings.NewReader(raw)), 0)
	if err != nil {
		t.Fatalf("ReadRequest failed: %v", err)
	}
	host, port, err := req.GetHostPort()
	if err != nil {
		t.Fatalf("GetHostPort failed: %v", err)
	}
	if host != "example.com" || port != 80 {
		t.Errorf("got %s:%d", host, port)
	}
}

func TestReadRequestAbsoluteURIHTTPSDefaultPort(t *testing.T) {
	raw := "GET https://example.com/secure HTTP/1.1\r\n\r\n"
	req, _ := ReadRequest(bufio.NewReader(strings.NewReader(raw)), 0)
	host, port, err := req.GetHostPort()
	if err != nil {
		t.Fatalf("GetHostPort failed: %v", err)
	}
	if host != "example.com" || port != 443 {
		t.Errorf("got %s:%d", host, port)
	}
}

func TestReadRequestMalformedLine(t *testing.T) {
	raw := "GET ONLY_ONE_TOKEN\r\n\r\n"
	_, err := ReadRequest(bufio.NewReader(strings.NewReader(raw)), 0)
	if err != ErrMalformedRequestLine {
		t.Errorf("expected ErrMalformedRequestLine, got %v", err)
	}
}

func TestReadRequestHeaderNameCaseFolded(t *testing.T) {
	raw := "GET / HTTP/1.1\r\nHOST: example.com\r\n\r\n"
	req, err := ReadRequest(bufio.NewReader(strings.NewReader(raw)), 0)
	if err != nil {
		t.Fatalf("ReadRequest failed: %v", err)
	}
	if req.Headers["host"] != "example.com" {
		t.Errorf("expected case-folded header, got %+v", req.Headers)
	}
}

func TestReadRequestOversizeRejected(t *testing.T) {
	raw := "GET / HTTP/1.1\r\n" + strings.Repeat("X-Pad: aaaaaaaaaa\r\n", 50) + "\r\n"
	_, err := ReadRequest(bufio.NewReader(strings.NewReader(raw)), 64)
	if err != ErrRequestTooLarge {
		t.Errorf("expected ErrRequestTooLarge, got %v", err)
	}
}

func TestParseProxyURIInvalidPort(t *testing.T) {
	req := &Request{Method: "GET", URI: "http://example.com:notaport/"}
	if _, _, err := req.GetHostPort(); err == nil {
		t.Error("expected error for invalid port")
	}
}

func TestParseConnectURIMissingColon(t *testing.T) {
	req := &Request{Method: "CONNECT", URI: "example.com"}
	if _, _, err := req.GetHostPort(); err == nil {
		t.Error("expected error for CONNECT URI missing port")
	}
}
