package poolsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nova-labs/poolsentinel/internal/httpclient"
)

func newTestHTTPClient(t *testing.T, body string) *httpclient.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return httpclient.New(httpclient.Options{
		Name:         "poolsource-test",
		BaseURL:      srv.URL,
		MaxTokens:    100,
		RefillPerSec: 100,
	}, zerolog.Nop())
}

func TestFetchPumpfunNewPoolsMapsBondingCurve(t *testing.T) {
	hc := newTestHTTPClient(t, `[
		{"mint": "MintA", "bondingCurve": "Curve1"},
		{"mint": "", "bondingCurve": "Curve2"}
	]`)

	events, err := FetchPumpfunNewPools(context.Background(), hc)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "MintA", events[0].TokenMint)
	assert.Equal(t, "Curve1", events[0].PoolAddress)
}

func TestFetchJupiterNewPoolsMapsFields(t *testing.T) {
	hc := newTestHTTPClient(t, `[
		{"id": "Pool1", "baseMint": "MintA", "quoteMint": "So11111111111111111111111111111111111111112"}
	]`)

	events, err := FetchJupiterNewPools(context.Background(), hc)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Pool1", events[0].PoolAddress)
	assert.Equal(t, "MintA", events[0].TokenMint)
}
