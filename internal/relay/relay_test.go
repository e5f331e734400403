package relay

import (
	"context"
	"io"
	"net"
	"testing"
	"time"
)

func TestCopyBidirectionalByteCounts(t *testing.T) {
	aClient, aServer := net.Pipe()
	bClient, bServer := net.Pipe()
	defer aServer.Close()
	defer bServer.Close()

	done := make(chan struct{})
	var aToB, bToA int64
	go func() {
		aToB, bToA, _ = Copy(context.Background(), aServer, bServer)
		close(done)
	}()

	go func() {
		io.WriteString(aClient, "hello-from-a")
		buf := make([]byte, 12)
		io.ReadFull(aClient, buf)
		aClient.Close()
	}()
	go func() {
		buf := make([]byte, 12)
		io.ReadFull(bClient, buf)
		io.WriteString(bClient, "hi-from-b!!!")
		bClient.Close()
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Copy did not return in time")
	}

	if aToB != int64(len("hello-from-a")) {
		t.Errorf("aToB = %d, want %d", aToB, len("hello-from-a"))
	}
	if bToA != int64(len("hi-from-b!!!")) {
		t.Errorf("bToA = %d, want %d", bToA, len("hi-from-b!!!"))
	}
}

func TestCopyStopsOnContextCancel(t *testing.T) {
	aClient, aServer := net.Pipe()
	bClient, bServer := net.Pipe()
	defer aClient.Close()
	defer bClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := Copy(ctx, aServer, bServer)
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected context-cancellation error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Copy did not return after context cancellation")
	}
}
