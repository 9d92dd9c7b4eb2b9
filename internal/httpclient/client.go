package httpclient

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"slices"
	"strings"
	"time"

	"github.com/imroc/req/v3"

	"github.com/shalmon/dohapi/internal/dialer"
	"github.com/shalmon/dohapi/internal/provider"
	"github.com/shalmon/dohapi/internal/resolver"
	"github.com/shalmon/dohapi/internal/version"
)

// DefaultUserAgent is the User-Agent sent when no explicit value is configured.
// var (not const) because version.Version is a link-time variable.
var DefaultUserAgent = "dohapi/" + version.Version

// Options configures clients built by New and Factory.
type Options struct {
	// Timeout bounds one application request. Zero keeps req's default.
	Timeout time.Duration
	// UserAgent overrides DefaultUserAgent on application requests.
	UserAgent string
	// Proxy is an optional socks5:// URL used for both DoH and application traffic.
	Proxy string
	Logger *slog.Logger
	// Debug logs every application response at DEBUG level.
	Debug bool

	// Catalog maps provider ids to configs for Factory. Nil means provider.Lookup.
	Catalog func(id string) provider.Config

	// DoH resolver tuning, passed through to resolver.Options.
	LookupTimeout time.Duration
	QueryRPS      float64
	QueryBurst    int
	CacheTTL      time.Duration
}

// ResolveUserAgent returns the User-Agent that application requests will carry.
func ResolveUserAgent(userAgent string) string {
	if userAgent != "" {
		return userAgent
	}
	return DefaultUserAgent
}

// Client is an HTTP client whose hostname lookups go through one DoH provider.
// It is safe for concurrent use.
type Client struct {
	provider provider.Config
	http     *req.Client
	resolver *resolver.Resolver
}

// New builds a resolving client for p. Nothing touches the network until the
// first request.
func New(p provider.Config, opts Options) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	d, err := dialer.New(opts.Proxy)
	if err != nil {
		return nil, err
	}

	ropts := resolver.Options{
		UserAgent:  ResolveUserAgent(opts.UserAgent),
		Timeout:    opts.LookupTimeout,
		QueryRPS:   opts.QueryRPS,
		QueryBurst: opts.QueryBurst,
		CacheTTL:   opts.CacheTTL,
		Logger:     logger.With("provider", p.ID),
	}
	r := resolver.New(p, resolver.NewBootstrapClient(p, d, ropts), ropts)

	client := req.NewClient().
		SetProxy(nil).
		DisableAutoDecode().
		SetUserAgent(ResolveUserAgent(opts.UserAgent)).
		SetDial(func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			addrs, err := r.LookupNetIP(ctx, host)
			if err != nil {
				return nil, err
			}
			return dialer.DialFirst(ctx, d, network, filterNetwork(network, addrs), port)
		})
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.Debug {
		attachDebugHook(client, logger)
	}

	return &Client{provider: p, http: client, resolver: r}, nil
}

// Provider returns the provider this client resolves through.
func (c *Client) Provider() provider.Config { return c.provider }

// HTTP returns the underlying request client.
func (c *Client) HTTP() *req.Client { return c.http }

// Resolver returns the DoH resolver backing the client's dialer.
func (c *Client) Resolver() *resolver.Resolver { return c.resolver }

// Close drops idle connections and the resolver cache.
func (c *Client) Close() {
	c.http.GetTransport().CloseIdleConnections()
	c.resolver.Close()
}

// filterNetwork keeps only the address family a tcp4/tcp6 dial asks for.
func filterNetwork(network string, addrs []netip.Addr) []netip.Addr {
	switch {
	case strings.HasSuffix(network, "4"):
		return slices.DeleteFunc(slices.Clone(addrs), func(a netip.Addr) bool { return !a.Is4() })
	case strings.HasSuffix(network, "6"):
		return slices.DeleteFunc(slices.Clone(addrs), func(a netip.Addr) bool { return !a.Is6() })
	default:
		return addrs
	}
}

// attachDebugHook registers an OnAfterResponse hook that logs the HTTP method,
// URL, and status code at DEBUG level, and logs a body snippet on non-2xx responses.
func attachDebugHook(client *req.Client, logger *slog.Logger) {
	client.OnAfterResponse(func(_ *req.Client, resp *req.Response) error {
		if resp.Response == nil || resp.Request == nil || resp.Request.RawRequest == nil {
			return nil
		}
		logger.Debug("http response",
			"method", resp.Request.RawRequest.Method,
			"url", resp.Request.RawRequest.URL.String(),
			"status", resp.StatusCode,
		)
		if !resp.IsSuccessState() {
			body := resp.String()
			if len(body) > 512 {
				body = body[:512]
			}
			logger.Debug("http error body",
				"status", resp.StatusCode,
				"body", body,
			)
		}
		return nil
	})
}
