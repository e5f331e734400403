package auth

import (
	"context"
	"log/slog"

	"github.com/msteinert/pam"
)

// PAM authenticates against a named PAM service. Each call runs the PAM
// conversation on its own goroutine: a blocking cgo call parks its
// carrier OS thread, and the Go scheduler spins up another one to keep
// other goroutines running, the same offload Rust gets from
// spawn_blocking without needing an explicit worker pool.
type PAM struct {
	service string
}

// NewPAM returns an Authenticator bound to the given PAM service name.
func NewPAM(service string) *PAM {
	return &PAM{service: service}
}

func (a *PAM) Authenticate(ctx context.Context, username, password string) bool {
	resultCh := make(chan bool, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("pam worker panicked", "username", username, "panic", r)
				resultCh <- false
			}
		}()
		resultCh <- a.authenticateBlocking(username, password)
	}()

	select {
	case ok := <-resultCh:
		return ok
	case <-ctx.Done():
		slog.Warn("pam authentication cancelled", "username", username, "err", ctx.Err())
		return false
	}
}

func (a *PAM) authenticateBlocking(username, password string) bool {
	tx, err := pam.StartFunc(a.service, username, func(style pam.Style, _ string) (string, error) {
		switch style {
		case pam.PromptEchoOff, pam.PromptEchoOn:
			return password, nil
		default:
			return "", nil
		}
	})
	if err != nil {
		slog.Error("pam init failed", "service", a.service, "err", err)
		return false
	}

	if err := tx.Authenticate(0); err != nil {
		slog.Debug("pam authentication failed", "username", username, "err", err)
		return false
	}
	return true
}
