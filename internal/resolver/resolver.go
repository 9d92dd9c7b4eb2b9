package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/netip"
	"slices"
	"strings"
	"time"

	"github.com/ReneKroon/ttlcache"
	"github.com/imroc/req/v3"
	"github.com/miekg/dns"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/shalmon/dohapi/internal/dialer"
	"github.com/shalmon/dohapi/internal/doh"
	"github.com/shalmon/dohapi/internal/provider"
	"github.com/shalmon/dohapi/internal/ratelimit"
)

const (
	// DefaultLookupTimeout bounds one lookup when Options.Timeout is zero.
	DefaultLookupTimeout = 10 * time.Second
	// DefaultCacheTTL caps how long answers are reused.
	DefaultCacheTTL = 5 * time.Minute
	// minCacheTTL is the floor applied to zero-TTL answers.
	minCacheTTL = time.Second
)

// ErrNoAddress is returned when the provider has no A/AAAA record for a host.
var ErrNoAddress = errors.New("no such host")

// Options configures a Resolver and its bootstrap client.
type Options struct {
	// UserAgent is sent on DoH queries. Empty keeps req's default.
	UserAgent string
	// Timeout bounds one lookup (both record types). Zero means DefaultLookupTimeout.
	Timeout time.Duration
	// QueryRPS and QueryBurst rate-limit DoH queries. QueryRPS <= 0 disables limiting.
	QueryRPS   float64
	QueryBurst int
	// CacheTTL caps answer reuse; answers live for min(record TTL, CacheTTL).
	// Zero disables the cache.
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// NewBootstrapClient returns the HTTP client used for DoH queries to p.
// Its dialer maps the endpoint host onto p.Bootstrap and refuses any other
// host, so a redirect can never fall back to system DNS. TLS still verifies
// the endpoint hostname.
func NewBootstrapClient(p provider.Config, d dialer.ContextDialer, opts Options) *req.Client {
	host := p.Host()
	client := req.NewClient().
		SetProxy(nil).
		SetCommonHeader("Accept", p.Format.Accept()).
		SetDial(func(ctx context.Context, network, addr string) (net.Conn, error) {
			h, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			if !strings.EqualFold(h, host) {
				return nil, fmt.Errorf("bootstrap dialer for %s refuses host %q", p.ID, h)
			}
			return dialer.DialFirst(ctx, d, network, p.Bootstrap, port)
		})
	if opts.UserAgent != "" {
		client.SetUserAgent(opts.UserAgent)
	}
	return client
}

// Resolver resolves hostnames through one DoH provider.
// It is safe for concurrent use.
type Resolver struct {
	provider provider.Config
	client   *req.Client
	limiter  *ratelimit.Limiter
	timeout  time.Duration
	cache    *ttlcache.Cache
	maxTTL   time.Duration
	group    singleflight.Group
	logger   *slog.Logger
}

// New returns a Resolver sending DoH queries for p over client.
// No network activity happens until the first lookup.
func New(p provider.Config, client *req.Client, opts Options) *Resolver {
	r := &Resolver{
		provider: p,
		client:   client,
		limiter:  ratelimit.New(opts.QueryRPS, opts.QueryBurst),
		timeout:  opts.Timeout,
		maxTTL:   opts.CacheTTL,
		logger:   opts.Logger,
	}
	if r.timeout <= 0 {
		r.timeout = DefaultLookupTimeout
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.CacheTTL > 0 {
		r.cache = ttlcache.NewCache()
		r.cache.SkipTtlExtensionOnHit(true)
	}
	return r
}

// Provider returns the provider this resolver queries.
func (r *Resolver) Provider() provider.Config { return r.provider }

// Close releases the answer cache.
func (r *Resolver) Close() {
	if r.cache != nil {
		r.cache.Close()
	}
}

// LookupNetIP returns the addresses of host, IPv4 first. IP literals are
// returned as-is without any query.
func (r *Resolver) LookupNetIP(ctx context.Context, host string) ([]netip.Addr, error) {
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return nil, fmt.Errorf("empty host")
	}
	if a, err := netip.ParseAddr(host); err == nil {
		return []netip.Addr{a.Unmap()}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := strings.ToLower(host)
	if r.cache != nil {
		if v, ok := r.cache.Get(key); ok {
			r.logger.Debug("doh cache hit", "provider", r.provider.ID, "host", key)
			return slices.Clone(v.([]netip.Addr)), nil
		}
	}

	// Shared lookups must not die with the first caller's context.
	ch := r.group.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.resolve(lctx, key)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]netip.Addr)), nil
	}
}

// resolve queries A and AAAA concurrently and caches the union.
func (r *Resolver) resolve(ctx context.Context, host string) ([]netip.Addr, error) {
	var (
		g          errgroup.Group
		v4, v6     []netip.Addr
		ttl4, ttl6 uint32
		err4, err6 error
	)
	g.Go(func() error {
		v4, ttl4, err4 = r.query(ctx, host, dns.TypeA)
		return nil
	})
	g.Go(func() error {
		v6, ttl6, err6 = r.query(ctx, host, dns.TypeAAAA)
		return nil
	})
	_ = g.Wait()

	addrs := append(v4, v6...)
	if len(addrs) == 0 {
		if err := errors.Join(err4, err6); err != nil {
			return nil, fmt.Errorf("doh lookup of %s via %s: %w", host, r.provider.ID, err)
		}
		return nil, fmt.Errorf("doh lookup of %s via %s: %w", host, r.provider.ID, ErrNoAddress)
	}

	// Only families that answered contribute; a TTL of 0 is kept.
	ttl := uint32(math.MaxUint32)
	if len(v4) > 0 {
		ttl = min(ttl, ttl4)
	}
	if len(v6) > 0 {
		ttl = min(ttl, ttl6)
	}
	r.logger.Debug("doh lookup",
		"provider", r.provider.ID,
		"host", host,
		"addrs", len(addrs),
		"ttl", ttl,
	)
	if r.cache != nil {
		d := min(max(time.Duration(ttl)*time.Second, minCacheTTL), r.maxTTL)
		r.cache.SetWithTTL(host, addrs, d)
	}
	return addrs, nil
}

// query sends one DoH query, treating NXDOMAIN as an empty answer.
func (r *Resolver) query(ctx context.Context, host string, qtype uint16) ([]netip.Addr, uint32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}
	resp, err := doh.Query(ctx, r.client, r.provider.Endpoint, r.provider.Format, host, qtype)
	if err != nil {
		return nil, 0, err
	}
	switch resp.Rcode {
	case dns.RcodeSuccess, dns.RcodeNameError:
	default:
		return nil, 0, fmt.Errorf("%w: %s answered %s", doh.ErrServerMisbehaving, r.provider.ID, dns.RcodeToString[resp.Rcode])
	}
	addrs, ttl := resp.Addrs(qtype)
	return addrs, ttl, nil
}
