// Package httpclient builds HTTP clients that resolve every hostname through
// a DNS-over-HTTPS provider instead of the system resolver.
//
// A Client owns two req clients: a bootstrap client that reaches the
// provider's endpoint through its fixed bootstrap addresses, and the
// application client whose dialer asks the provider for each target host.
// Environment proxies are ignored on both; an explicit socks5:// proxy is
// honoured and only ever sees IP addresses.
package httpclient
