package httpclient

import (
	"sync"

	"github.com/shalmon/dohapi/internal/provider"
)

// Factory hands out one Client per provider, built on first use.
// It is safe for concurrent use.
type Factory struct {
	opts Options

	mu      sync.Mutex
	clients map[string]*Client
}

// NewFactory returns a Factory building clients with opts.
func NewFactory(opts Options) *Factory {
	return &Factory{opts: opts, clients: make(map[string]*Client)}
}

// Get returns the client for the provider id. Unknown ids fall back to the
// default provider and share its client.
func (f *Factory) Get(id string) (*Client, error) {
	p := f.lookup(id)

	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.clients[p.ID]; ok {
		return c, nil
	}
	c, err := New(p, f.opts)
	if err != nil {
		return nil, err
	}
	f.clients[p.ID] = c
	return c, nil
}

// Build returns a fresh client for id that the factory does not track.
// The caller owns it and must Close it.
func (f *Factory) Build(id string) (*Client, error) {
	return New(f.lookup(id), f.opts)
}

func (f *Factory) lookup(id string) provider.Config {
	if f.opts.Catalog != nil {
		return f.opts.Catalog(id)
	}
	return provider.Lookup(id)
}

// Len reports how many clients the factory currently holds.
func (f *Factory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// Close closes every client the factory has built.
func (f *Factory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, c := range f.clients {
		c.Close()
		delete(f.clients, id)
	}
}
