// Package testutil provides shared test helpers: a discarding logger and an
// in-memory DoH server that answers both JSON API and RFC 8484 queries.
package testutil

import (
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"

	"github.com/shalmon/dohapi/internal/provider"
)

// NopLogger returns a logger that discards all output.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// DefaultTTL is the TTL attached to every answer of a DoHServer.
const DefaultTTL = 60

// DoHServer is a fake DoH endpoint backed by a static host table.
// Hosts missing from the table are answered with NXDOMAIN.
type DoHServer struct {
	mu    sync.Mutex
	hosts map[string][]netip.Addr

	queries atomic.Int64
	// Status, when non-zero, is returned as the HTTP status of every query.
	Status int
}

// NewDoHServer returns a DoHServer answering for hosts (name → IP literals).
func NewDoHServer(t *testing.T, hosts map[string][]string) *DoHServer {
	t.Helper()
	s := &DoHServer{hosts: make(map[string][]netip.Addr, len(hosts))}
	for name, ips := range hosts {
		for _, ip := range ips {
			s.hosts[name] = append(s.hosts[name], netip.MustParseAddr(ip))
		}
	}
	return s
}

// Queries returns how many DoH queries the server has received.
func (s *DoHServer) Queries() int {
	return int(s.queries.Load())
}

func (s *DoHServer) lookup(name string, qtype uint16) ([]netip.Addr, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all, ok := s.hosts[strings.TrimSuffix(name, ".")]
	var out []netip.Addr
	for _, a := range all {
		if (qtype == dns.TypeA) == a.Is4() {
			out = append(out, a)
		}
	}
	return out, ok
}

// Responder returns an httpmock responder implementing the fake endpoint.
func (s *DoHServer) Responder() httpmock.Responder {
	return func(r *http.Request) (*http.Response, error) {
		s.queries.Add(1)
		if s.Status != 0 {
			return httpmock.NewStringResponse(s.Status, "doh unavailable"), nil
		}
		if enc := r.URL.Query().Get("dns"); enc != "" {
			return s.answerWire(enc)
		}
		return s.answerJSON(r.URL.Query().Get("name"), r.URL.Query().Get("type"))
	}
}

func (s *DoHServer) answerWire(enc string) (*http.Response, error) {
	raw, err := base64.RawURLEncoding.DecodeString(enc)
	if err != nil {
		return nil, fmt.Errorf("decode base64url: %w", err)
	}
	query := new(dns.Msg)
	if err := query.Unpack(raw); err != nil {
		return nil, fmt.Errorf("unpack query: %w", err)
	}
	q := query.Question[0]
	reply := new(dns.Msg)
	reply.SetReply(query)
	addrs, ok := s.lookup(q.Name, q.Qtype)
	if !ok {
		reply.Rcode = dns.RcodeNameError
	}
	for _, a := range addrs {
		hdr := dns.RR_Header{Name: q.Name, Rrtype: q.Qtype, Class: dns.ClassINET, Ttl: DefaultTTL}
		if a.Is4() {
			reply.Answer = append(reply.Answer, &dns.A{Hdr: hdr, A: net.IP(a.AsSlice())})
		} else {
			reply.Answer = append(reply.Answer, &dns.AAAA{Hdr: hdr, AAAA: net.IP(a.AsSlice())})
		}
	}
	data, err := reply.Pack()
	if err != nil {
		return nil, err
	}
	resp := httpmock.NewBytesResponse(http.StatusOK, data)
	resp.Header.Set("Content-Type", "application/dns-message")
	return resp, nil
}

type jsonAnswer struct {
	Name string `json:"name"`
	Type uint16 `json:"type"`
	TTL  uint32 `json:"TTL"`
	Data string `json:"data"`
}

func (s *DoHServer) answerJSON(name, typ string) (*http.Response, error) {
	qtype, ok := dns.StringToType[typ]
	if !ok {
		return httpmock.NewStringResponse(http.StatusBadRequest, "bad type"), nil
	}
	addrs, found := s.lookup(name, qtype)
	body := struct {
		Status int          `json:"Status"`
		Answer []jsonAnswer `json:"Answer,omitempty"`
	}{}
	if !found {
		body.Status = dns.RcodeNameError
	}
	for _, a := range addrs {
		body.Answer = append(body.Answer, jsonAnswer{Name: dns.Fqdn(name), Type: qtype, TTL: DefaultTTL, Data: a.String()})
	}
	resp, err := httpmock.NewJsonResponse(http.StatusOK, body)
	if err != nil {
		return nil, err
	}
	resp.Header.Set("Content-Type", "application/dns-json")
	return resp, nil
}

// ServeHTTP lets a DoHServer back an httptest.Server for end-to-end tests.
func (s *DoHServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp, err := s.Responder()(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer resp.Body.Close()
	for k, v := range resp.Header {
		w.Header()[k] = v
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

// Start serves s on a loopback listener for the duration of the test and
// returns a provider for it. The endpoint host "doh.invalid" only resolves
// through the provider's bootstrap address, so a lookup that leaked to the
// system resolver would fail.
func (s *DoHServer) Start(t *testing.T, format provider.Format) provider.Config {
	t.Helper()
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return provider.Config{
		ID:        "Local",
		Endpoint:  HostURL(t, srv, "doh.invalid") + "/dns-query",
		Bootstrap: []netip.Addr{netip.MustParseAddr("127.0.0.1")},
		Format:    format,
	}
}

// HostURL returns srv's base URL with its loopback address replaced by host.
func HostURL(t *testing.T, srv *httptest.Server, host string) string {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	u.Host = net.JoinHostPort(host, u.Port())
	return u.String()
}

// WireResponse packs a DNS response with the given rcode and answers.
func WireResponse(t *testing.T, rcode int, answers ...dns.RR) []byte {
	t.Helper()
	m := new(dns.Msg)
	m.Response = true
	m.Rcode = rcode
	m.Answer = answers
	data, err := m.Pack()
	require.NoError(t, err)
	return data
}
