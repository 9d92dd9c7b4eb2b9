package provider

import (
	"fmt"
	"net/netip"
	"net/url"
	"slices"
)

// Format is the DoH message encoding a provider's endpoint speaks.
type Format string

const (
	// FormatJSON is the JSON API (GET ?name=&type=, Accept: application/dns-json).
	FormatJSON Format = "json"
	// FormatWire is RFC 8484 (GET ?dns=<base64url>, Accept: application/dns-message).
	FormatWire Format = "wire"
)

// Accept returns the Accept header value for DoH queries in format f.
func (f Format) Accept() string {
	if f == FormatJSON {
		return "application/dns-json"
	}
	return "application/dns-message"
}

// Provider identifiers accepted by Lookup. They are case-sensitive.
const (
	CloudFlare = "CloudFlare"
	Google     = "Google"
	AdGuard    = "AdGuard"
	Quad9      = "Quad9"
	AliDNS     = "AliDNS"
	DNSPod     = "DNSPod"
	ThreeSixty = "threeSixty"
	Quad101    = "Quad101"
	Mullvad    = "Mullvad"
	ControlD   = "ControlD"
	Najalla    = "Najalla"
	SheCan     = "SheCan"

	// Default is returned for unknown identifiers.
	Default = CloudFlare
)

// Config describes one DoH provider.
type Config struct {
	ID       string
	Endpoint string
	// Bootstrap are the addresses used to reach Endpoint without system DNS.
	Bootstrap []netip.Addr
	Format    Format
}

// Host returns the hostname of the provider's endpoint.
func (c Config) Host() string {
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

type entry struct {
	id        string
	endpoint  string
	bootstrap []string
	format    Format
}

// table is the source of truth; order is the display order of IDs.
var table = []entry{
	{CloudFlare, "https://cloudflare-dns.com/dns-query", []string{
		"162.159.36.1", "162.159.46.1", "1.1.1.1", "1.0.0.1", "162.159.132.53",
		"2606:4700:4700::1111", "2606:4700:4700::1001", "2606:4700:4700::0064", "2606:4700:4700::6400",
	}, FormatJSON},
	{Google, "https://dns.google/resolve", []string{
		"8.8.8.8", "8.8.4.4", "2001:4860:4860::8888", "2001:4860:4860::8844",
	}, FormatJSON},
	{AdGuard, "https://dns.adguard.com/dns-query", []string{
		"94.140.14.140", "94.140.14.141", "2a10:50c0::1:ff", "2a10:50c0::2:ff",
	}, FormatWire},
	{Quad9, "https://dns.quad9.net/dns-query", []string{
		"9.9.9.9", "149.112.112.112", "2620:fe::fe", "2620:fe::9",
	}, FormatWire},
	{AliDNS, "https://dns.alidns.com/resolve", []string{
		"223.5.5.5", "223.6.6.6", "2400:3200::1", "2400:3200:baba::1",
	}, FormatJSON},
	{DNSPod, "https://doh.pub/dns-query", []string{
		"1.12.12.12", "120.53.53.53",
	}, FormatWire},
	{ThreeSixty, "https://doh.360.cn/dns-query", []string{
		"101.226.4.6", "218.30.118.6", "123.125.81.6", "140.207.198.6",
		"180.163.249.75", "101.199.113.208", "36.99.170.86",
	}, FormatWire},
	{Quad101, "https://dns.101.net/dns-query", []string{
		"101.101.101.101", "2001:de4::101", "2001:de4::102",
	}, FormatWire},
	{Mullvad, "https://doh.mullvad.net/dns-query", []string{
		"194.242.2.2", "193.19.108.2", "2a07:e340::2",
	}, FormatWire},
	{ControlD, "https://dns.controld.com/dns-query", []string{
		"76.76.2.0", "76.76.10.0", "2606:1a40::", "2606:1a40:1::",
	}, FormatWire},
	{Najalla, "https://dns.najalla.net/dns-query", []string{
		"95.215.19.53", "2001:67c:2354:2::53",
	}, FormatWire},
	{SheCan, "https://shecan.ir/dns-query", []string{
		"178.22.122.100", "185.51.200.2",
	}, FormatWire},
}

var (
	catalog map[string]Config
	ids     []string
)

func init() {
	catalog, ids = mustBuild(table)
}

// mustBuild converts entries into configs, panicking on malformed data.
func mustBuild(entries []entry) (map[string]Config, []string) {
	m := make(map[string]Config, len(entries))
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		c, err := build(e)
		if err != nil {
			panic(fmt.Sprintf("provider catalog: %v", err))
		}
		if _, dup := m[c.ID]; dup {
			panic(fmt.Sprintf("provider catalog: duplicate id %q", c.ID))
		}
		m[c.ID] = c
		order = append(order, c.ID)
	}
	if _, ok := m[Default]; !ok {
		panic("provider catalog: default provider " + Default + " missing")
	}
	return m, order
}

func build(e entry) (Config, error) {
	if e.id == "" {
		return Config{}, fmt.Errorf("empty provider id")
	}
	u, err := url.Parse(e.endpoint)
	if err != nil {
		return Config{}, fmt.Errorf("%s: invalid endpoint %q: %w", e.id, e.endpoint, err)
	}
	if u.Scheme != "https" || u.Hostname() == "" {
		return Config{}, fmt.Errorf("%s: endpoint %q must be an https URL with a host", e.id, e.endpoint)
	}
	if len(e.bootstrap) == 0 {
		return Config{}, fmt.Errorf("%s: empty bootstrap host list", e.id)
	}
	addrs := make([]netip.Addr, 0, len(e.bootstrap))
	for _, h := range e.bootstrap {
		a, err := netip.ParseAddr(h)
		if err != nil {
			return Config{}, fmt.Errorf("%s: bootstrap host %q is not an IP literal: %w", e.id, h, err)
		}
		addrs = append(addrs, a)
	}
	switch e.format {
	case FormatJSON, FormatWire:
	default:
		return Config{}, fmt.Errorf("%s: unknown format %q", e.id, e.format)
	}
	return Config{ID: e.id, Endpoint: e.endpoint, Bootstrap: addrs, Format: e.format}, nil
}

// Lookup returns the provider registered under id.
// Unknown identifiers, including the empty string, resolve to Default.
func Lookup(id string) Config {
	c, ok := catalog[id]
	if !ok {
		c = catalog[Default]
	}
	c.Bootstrap = slices.Clone(c.Bootstrap)
	return c
}

// Known reports whether id is a catalog identifier.
func Known(id string) bool {
	_, ok := catalog[id]
	return ok
}

// IDs returns all provider identifiers in catalog order.
func IDs() []string {
	return slices.Clone(ids)
}

// All returns every provider in catalog order.
func All() []Config {
	out := make([]Config, 0, len(ids))
	for _, id := range ids {
		out = append(out, Lookup(id))
	}
	return out
}
