package httpproxy

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteForwardedRequestStripsHopByHop(t *testing.T) {
	req := &Request{
		Method:  "GET",
		URI:     "http://example.com/",
		Version: "HTTP/1.1",
		Headers: map[string]string{
			"host":                 "example.com",
			"proxy-connection":     "keep-alive",
			"proxy-authorization":  "Basic xyz",
			"accept":               "*/*",
		},
	}
	var buf bytes.Buffer
	if err := WriteForwardedRequest(&buf, req); err != nil {
		t.Fatalf("WriteForwardedRequest failed: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "GET http://example.com/ HTTP/1.1\r\n") {
		t.Errorf("unexpected request line: %q", out)
	}
	if strings.Contains(out, "proxy-connection") {
		t.Error("proxy-connection header should be stripped")
	}
	if strings.Contains(out, "proxy-authorization") {
		t.Error("proxy-authorization header should be stripped")
	}
	if !strings.Contains(out, "host: example.com\r\n") {
		t.Errorf("expected host header preserved: %q", out)
	}
	if !strings.HasSuffix(out, "\r\n\r\n") {
		t.Errorf("expected trailing blank line: %q", out)
	}
}
