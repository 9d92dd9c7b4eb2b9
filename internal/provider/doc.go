// Package provider holds the static catalog of public DNS-over-HTTPS
// providers. The catalog is built and validated once at package init and is
// read-only afterwards, so lookups need no synchronization.
package provider
