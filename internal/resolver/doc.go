// Package resolver answers hostname lookups through a provider's
// DNS-over-HTTPS endpoint. The endpoint itself is reached through a
// bootstrap client that dials the provider's static IP addresses, so
// resolving the resolver never touches system DNS.
package resolver
