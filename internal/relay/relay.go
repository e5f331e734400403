// Package relay copies bytes bidirectionally between two established
// connections, used once a SOCKS5 or HTTP CONNECT tunnel is up.
package relay

import (
	"context"
	"io"
	"net"
	"sync"
)

// Copy copies bytes bidirectionally between a and b until both
// directions have ended (EOF or an error), or ctx is cancelled, which
// closes both connections. It returns the byte count copied in each
// direction: aToB is what was read from a and written to b, bToA the
// reverse. err is ctx's error on cancellation, otherwise the non-EOF
// error of whichever direction ended first.
//
// Each direction half-closes its destination's write side on EOF (via
// net.TCPConn.CloseWrite) so a client that has finished sending can
// still read a trailing response, rather than forcing a hard close the
// moment one side goes quiet.
func Copy(ctx context.Context, a, b net.Conn) (aToB, bToA int64, err error) {
	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		n, copyErr := io.Copy(b, a)
		aToB = n
		errCh <- copyErr
		closeWrite(b)
	}()
	go func() {
		defer wg.Done()
		n, copyErr := io.Copy(a, b)
		bToA = n
		errCh <- copyErr
		closeWrite(a)
	}()

	select {
	case <-ctx.Done():
		a.Close()
		b.Close()
		err = ctx.Err()
	case copyErr := <-errCh:
		if copyErr != nil && copyErr != io.EOF {
			err = copyErr
		}
	}

	wg.Wait()
	return aToB, bToA, err
}

func closeWrite(conn net.Conn) {
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.CloseWrite()
	}
}
