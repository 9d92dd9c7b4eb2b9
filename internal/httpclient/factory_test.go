package httpclient_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shalmon/dohapi/internal/httpclient"
	"github.com/shalmon/dohapi/internal/provider"
)

func TestFactory_ReusesClientPerProvider(t *testing.T) {
	f := httpclient.NewFactory(httpclient.Options{})
	t.Cleanup(f.Close)

	a, err := f.Get(provider.Quad9)
	require.NoError(t, err)
	b, err := f.Get(provider.Quad9)
	require.NoError(t, err)
	assert.Same(t, a, b)

	c, err := f.Get(provider.Mullvad)
	require.NoError(t, err)
	assert.NotSame(t, a, c)
	assert.Equal(t, provider.Mullvad, c.Provider().ID)
	assert.Equal(t, 2, f.Len())

	f.Close()
	assert.Zero(t, f.Len())
}

func TestFactory_UnknownFallsBackToDefault(t *testing.T) {
	f := httpclient.NewFactory(httpclient.Options{})
	t.Cleanup(f.Close)

	def, err := f.Get(provider.Default)
	require.NoError(t, err)
	for _, id := range []string{"", "NotAProvider", "cloudflare"} {
		c, err := f.Get(id)
		require.NoError(t, err)
		assert.Same(t, def, c, "id=%q", id)
	}
}

func TestFactory_BuildIsUntracked(t *testing.T) {
	f := httpclient.NewFactory(httpclient.Options{})
	t.Cleanup(f.Close)

	shared, err := f.Get(provider.Google)
	require.NoError(t, err)
	fresh, err := f.Build(provider.Google)
	require.NoError(t, err)
	t.Cleanup(fresh.Close)
	assert.NotSame(t, shared, fresh)
}

func TestFactory_ConcurrentGet(t *testing.T) {
	f := httpclient.NewFactory(httpclient.Options{})
	t.Cleanup(f.Close)

	ids := provider.IDs()
	got := make([]*httpclient.Client, 4*len(ids))
	var wg sync.WaitGroup
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := f.Get(ids[i%len(ids)])
			assert.NoError(t, err)
			got[i] = c
		}()
	}
	wg.Wait()

	for i, c := range got {
		assert.Same(t, got[i%len(ids)], c)
		assert.Equal(t, ids[i%len(ids)], c.Provider().ID)
	}
}

func TestFactory_ProxyError(t *testing.T) {
	f := httpclient.NewFactory(httpclient.Options{Proxy: "http://proxy.example.com:8080"})
	_, err := f.Get(provider.Quad9)
	assert.Error(t, err)
}
