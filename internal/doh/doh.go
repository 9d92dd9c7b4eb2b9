// Package doh performs single DNS-over-HTTPS queries against a provider
// endpoint, in either the JSON API format or RFC 8484 wire format.
package doh

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"strings"

	"github.com/imroc/req/v3"
	"github.com/miekg/dns"
	"github.com/tidwall/gjson"

	"github.com/shalmon/dohapi/internal/provider"
)

// maxMessageSize caps the size of a DoH response body.
const maxMessageSize = 65535

// ErrServerMisbehaving is returned when the DoH server answers with something
// that is not a usable DNS response.
var ErrServerMisbehaving = errors.New("doh: server misbehaving")

// Response holds the parts of a DNS response the resolver consumes.
type Response struct {
	// Rcode is the DNS response code (the JSON API "Status" field).
	Rcode  int
	Answer []Answer
}

// Answer holds a single resource record from a DoH response.
type Answer struct {
	Name string
	Type uint16
	TTL  uint32
	Data string
}

// Addrs returns the A/AAAA answers of type qtype as addresses, plus the
// smallest TTL among them. A TTL of 0 is a real value and wins.
func (r *Response) Addrs(qtype uint16) ([]netip.Addr, uint32) {
	var (
		addrs  []netip.Addr
		minTTL uint32
		seen   bool
	)
	for _, a := range r.Answer {
		if a.Type != qtype {
			continue
		}
		addr, err := netip.ParseAddr(a.Data)
		if err != nil {
			continue
		}
		addrs = append(addrs, addr.Unmap())
		if !seen || a.TTL < minTTL {
			minTTL, seen = a.TTL, true
		}
	}
	return addrs, minTTL
}

// buildWireQuery encodes a recursive query for name/qtype. The ID is left at
// zero as RFC 8484 recommends for cache friendliness.
func buildWireQuery(name string, qtype uint16) ([]byte, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	m.Id = 0
	return m.Pack()
}

// parseWireResponse decodes a DNS wire-format response.
func parseWireResponse(data []byte) (*Response, error) {
	m := new(dns.Msg)
	if err := m.Unpack(data); err != nil {
		return nil, fmt.Errorf("failed to parse DNS response: %w", err)
	}
	resp := &Response{Rcode: m.Rcode}
	for _, rr := range m.Answer {
		h := rr.Header()
		ans := Answer{Name: h.Name, Type: h.Rrtype, TTL: h.Ttl}
		switch v := rr.(type) {
		case *dns.A:
			ans.Data = v.A.String()
		case *dns.AAAA:
			ans.Data = v.AAAA.String()
		case *dns.CNAME:
			ans.Data = v.Target
		default:
			continue
		}
		resp.Answer = append(resp.Answer, ans)
	}
	return resp, nil
}

// parseJSONResponse decodes a JSON API response
// ({"Status":0,"Answer":[{"name":..,"type":1,"TTL":300,"data":".."}]}).
func parseJSONResponse(data []byte) (*Response, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON answer", ErrServerMisbehaving)
	}
	doc := gjson.ParseBytes(data)
	status := doc.Get("Status")
	if !status.Exists() {
		return nil, fmt.Errorf("%w: JSON answer has no Status", ErrServerMisbehaving)
	}
	resp := &Response{Rcode: int(status.Int())}
	doc.Get("Answer").ForEach(func(_, a gjson.Result) bool {
		resp.Answer = append(resp.Answer, Answer{
			Name: a.Get("name").String(),
			Type: uint16(a.Get("type").Uint()),
			TTL:  uint32(a.Get("TTL").Uint()),
			Data: a.Get("data").String(),
		})
		return true
	})
	return resp, nil
}

// Query sends one DoH query for name/qtype to endpoint using format and
// returns the decoded response. Context errors are returned unwrapped.
func Query(ctx context.Context, client *req.Client, endpoint string, format provider.Format, name string, qtype uint16) (*Response, error) {
	r := client.R().
		SetContext(ctx).
		SetHeader("Accept", format.Accept()).
		DisableAutoReadResponse()

	switch format {
	case provider.FormatJSON:
		typ, ok := dns.TypeToString[qtype]
		if !ok {
			return nil, fmt.Errorf("unknown DNS record type: %d", qtype)
		}
		r.SetQueryParam("name", strings.TrimSuffix(name, ".")).
			SetQueryParam("type", typ)
	default:
		query, err := buildWireQuery(name, qtype)
		if err != nil {
			return nil, fmt.Errorf("failed to build DNS query for %q type %d: %w", name, qtype, err)
		}
		r.SetQueryParam("dns", base64.RawURLEncoding.EncodeToString(query))
	}

	httpResp, err := r.Get(endpoint)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("doh request to %s for %q failed: %w", endpoint, name, err)
	}
	defer httpResp.Body.Close() //nolint:errcheck // read-only body

	if httpResp.StatusCode != 200 {
		return nil, fmt.Errorf("%w: %s returned HTTP %d for %q", ErrServerMisbehaving, endpoint, httpResp.StatusCode, name)
	}
	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxMessageSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading doh response from %s: %w", endpoint, err)
	}
	if len(body) > maxMessageSize {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrServerMisbehaving, maxMessageSize)
	}

	if format == provider.FormatJSON {
		return parseJSONResponse(body)
	}
	if ct := httpResp.GetContentType(); !strings.HasPrefix(ct, "application/dns-message") {
		return nil, fmt.Errorf("%w: unexpected content type %q", ErrServerMisbehaving, ct)
	}
	return parseWireResponse(body)
}
