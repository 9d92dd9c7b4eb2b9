// Package dialer builds the connection dialers used for DoH bootstrap and
// application traffic, with optional SOCKS5 tunnelling.
//
// Only IP literals are ever passed to these dialers: name resolution has
// already happened through DoH, so a SOCKS5 proxy never sees a hostname and
// an HTTP proxy (which would resolve the target itself) is not supported.
package dialer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

const (
	dialTimeout = 30 * time.Second
	keepAlive   = 30 * time.Second
)

// ErrUnsupportedProxy is returned for proxy URLs whose scheme is not socks5.
var ErrUnsupportedProxy = errors.New("proxy scheme must be socks5://")

// ContextDialer dials a network address honouring ctx.
type ContextDialer = proxy.ContextDialer

// New returns a direct dialer when proxyURL is empty, or a dialer tunnelling
// through the SOCKS5 proxy at proxyURL (credentials taken from the URL
// userinfo, if any).
func New(proxyURL string) (ContextDialer, error) {
	direct := &net.Dialer{Timeout: dialTimeout, KeepAlive: keepAlive}
	if proxyURL == "" {
		return direct, nil
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL %q: %w", proxyURL, err)
	}
	if u.Scheme != "socks5" || u.Host == "" {
		return nil, fmt.Errorf("invalid proxy URL %q: %w", proxyURL, ErrUnsupportedProxy)
	}

	d, err := proxy.FromURL(u, direct)
	if err != nil {
		return nil, fmt.Errorf("creating SOCKS5 dialer: %w", err)
	}
	ctxDialer, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("SOCKS5 dialer does not implement ContextDialer")
	}
	return ctxDialer, nil
}

// DialFirst dials addrs in order on port and returns the first connection
// that succeeds. When all attempts fail the joined errors are returned.
func DialFirst(ctx context.Context, d ContextDialer, network string, addrs []netip.Addr, port string) (net.Conn, error) {
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no addresses to dial")
	}
	var errs []error
	for _, a := range addrs {
		conn, err := d.DialContext(ctx, network, net.JoinHostPort(a.String(), port))
		if err == nil {
			return conn, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.Join(errs...)
}
