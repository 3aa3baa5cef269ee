package currency_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/itinerary-core/backend/internal/budget"
	"github.com/pkordes/itinerary-core/backend/internal/currency"
)

// Compile-time checks: both converters plug into the analyzer.
var (
	_ budget.Converter = (*currency.StaticTable)(nil)
	_ budget.Converter = (*currency.RemoteRates)(nil)
)

func TestStaticTable_Convert(t *testing.T) {
	table := currency.NewStaticTable("usd", map[string]float64{"eur": 1.1})

	got, err := table.Convert(context.Background(), 100, "EUR")
	require.NoError(t, err)
	assert.InDelta(t, 110.0, got, 1e-9)

	got, err = table.Convert(context.Background(), 42, "USD")
	require.NoError(t, err)
	assert.Equal(t, 42.0, got)

	_, err = table.Convert(context.Background(), 1, "XYZ")
	assert.ErrorIs(t, err, currency.ErrUnknownCurrency)
}

func TestParseRates(t *testing.T) {
	got, err := currency.ParseRates(" eur=1.10, GBP = 1.27 ,,")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"EUR": 1.10, "GBP": 1.27}, got)

	empty, err := currency.ParseRates("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = currency.ParseRates("EUR")
	assert.Error(t, err)
	_, err = currency.ParseRates("EUR=abc")
	assert.Error(t, err)
	_, err = currency.ParseRates("EUR=-1")
	assert.Error(t, err)
}

// ratesServer serves /latest from a fixed table and counts hits per base.
func ratesServer(t *testing.T, table map[string]float64) (*httptest.Server, *sync.Map, *atomic.Int32) {
	t.Helper()
	var total atomic.Int32
	perBase := &sync.Map{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		total.Add(1)
		if r.URL.Path != "/latest" {
			http.NotFound(w, r)
			return
		}
		base := r.URL.Query().Get("base")
		n, _ := perBase.LoadOrStore(base, new(atomic.Int32))
		n.(*atomic.Int32).Add(1)

		rate, ok := table[base]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"base":  base,
			"rates": map[string]float64{r.URL.Query().Get("symbols"): rate},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, perBase, &total
}

func TestRemoteRates_ConvertsAndMemoizes(t *testing.T) {
	srv, _, total := ratesServer(t, map[string]float64{"EUR": 1.1})
	conv := currency.NewRemoteRates(currency.RemoteConfig{BaseURL: srv.URL, Reporting: "USD"}, nil)

	got, err := conv.Convert(context.Background(), 100, "eur")
	require.NoError(t, err)
	assert.InDelta(t, 110.0, got, 1e-9)

	_, err = conv.Convert(context.Background(), 5, "EUR")
	require.NoError(t, err)
	assert.Equal(t, int32(1), total.Load())
}

func TestRemoteRates_ReportingCurrencySkipsNetwork(t *testing.T) {
	srv, _, total := ratesServer(t, nil)
	conv := currency.NewRemoteRates(currency.RemoteConfig{BaseURL: srv.URL, Reporting: "USD"}, nil)

	got, err := conv.Convert(context.Background(), 12.5, "usd")
	require.NoError(t, err)
	assert.Equal(t, 12.5, got)
	assert.Equal(t, int32(0), total.Load())
}

func TestRemoteRates_UnknownCurrency(t *testing.T) {
	srv, _, _ := ratesServer(t, map[string]float64{"EUR": 1.1})
	conv := currency.NewRemoteRates(currency.RemoteConfig{BaseURL: srv.URL, Reporting: "USD"}, nil)

	_, err := conv.Convert(context.Background(), 1, "XYZ")
	assert.ErrorIs(t, err, currency.ErrUnknownCurrency)
}

func TestRemoteRates_ServerErrorIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	conv := currency.NewRemoteRates(currency.RemoteConfig{BaseURL: srv.URL, Reporting: "USD"}, nil)

	_, err := conv.Convert(context.Background(), 1, "EUR")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestRemoteRates_ConcurrentCallsShareOneFetch(t *testing.T) {
	srv, perBase, _ := ratesServer(t, map[string]float64{"EUR": 1.1, "GBP": 1.27})
	conv := currency.NewRemoteRates(currency.RemoteConfig{BaseURL: srv.URL, Reporting: "USD", RatePerSecond: 100}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		code := "EUR"
		if i%2 == 1 {
			code = "GBP"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := conv.Convert(context.Background(), float64(i), code)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	for _, code := range []string{"EUR", "GBP"} {
		n, ok := perBase.Load(code)
		require.True(t, ok, code)
		assert.Equal(t, int32(1), n.(*atomic.Int32).Load(), code)
	}
}

func TestRemoteRates_CancelledContext(t *testing.T) {
	srv, _, total := ratesServer(t, map[string]float64{"EUR": 1.1})
	conv := currency.NewRemoteRates(currency.RemoteConfig{BaseURL: srv.URL, Reporting: "USD"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := conv.Convert(ctx, 1, "EUR")
	assert.Error(t, err)
	assert.Equal(t, int32(0), total.Load())
}
