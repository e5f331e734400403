// Package resolver resolves a SOCKS5 Address to a dialable net.TCPAddr.
package resolver

import (
	"context"
	"fmt"
	"net"

	"github.com/quintusl/socksd/internal/socks5"
)

// Resolver resolves addresses for outbound dialing. The default
// Resolver wraps net.Resolver, which already does "whatever the
// system's resolver configuration says" — the sensible-defaults DNS
// behavior this proxy asks for, without needing a dedicated DNS client
// library.
type Resolver struct {
	netResolver *net.Resolver
}

// New returns a Resolver using the system's default resolver
// configuration.
func New() *Resolver {
	return &Resolver{netResolver: net.DefaultResolver}
}

// Resolve turns addr into a connectable net.TCPAddr. IPv4/IPv6
// addresses pass through literally. Domain names are looked up and the
// first result is used; an empty result set is an error.
func (r *Resolver) Resolve(ctx context.Context, addr socks5.Address, port uint16) (*net.TCPAddr, error) {
	switch addr.Type {
	case socks5.ATYPIPv4, socks5.ATYPIPv6:
		return &net.TCPAddr{IP: addr.IP, Port: int(port)}, nil

	case socks5.ATYPDomainName:
		ips, err := r.netResolver.LookupIPAddr(ctx, addr.Domain)
		if err != nil {
			return nil, fmt.Errorf("resolver: lookup %s: %w", addr.Domain, err)
		}
		if len(ips) == 0 {
			return nil, fmt.Errorf("resolver: no addresses found for %s", addr.Domain)
		}
		return &net.TCPAddr{IP: ips[0].IP, Port: int(port)}, nil

	default:
		return nil, fmt.Errorf("resolver: unknown address type %v", addr.Type)
	}
}
