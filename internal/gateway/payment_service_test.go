package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CEXDirect/pkg/interfaces"
)

func newTestPaymentService(t *testing.T, handler http.Handler) *PaymentService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := interfaces.APIConfig{BaseURL: server.URL, RequestTimeout: 5 * time.Second}
	return NewPaymentService(cfg, nil, "placement-1")
}

func testConversion(t *testing.T, a, b, c string) CurrencyConversion {
	t.Helper()
	return CurrencyConversion{
		Fiat:   "USD",
		Crypto: "BTC",
		A:      decimal.RequireFromString(a),
		B:      decimal.RequireFromString(b),
		C:      decimal.RequireFromString(c),
	}
}

func TestConvertToCrypto(t *testing.T) {
	conversion := testConversion(t, "1", "0.1", "2")

	// (1*10 - 0.1) / 2 = 4.95
	result, err := conversion.ConvertToCrypto("10", 4, false)
	require.NoError(t, err)
	assert.Equal(t, "4.9500", result)
}

func TestConvertToFiat(t *testing.T) {
	conversion := testConversion(t, "1", "0.1", "2")

	// (2*4.95 + 0.1) / 1 = 10
	result, err := conversion.ConvertToFiat("4.95", 2, false)
	require.NoError(t, err)
	assert.Equal(t, "10.00", result)
}

func TestConvertRoundRule(t *testing.T) {
	conversion := testConversion(t, "1", "0", "3")

	// 10/3 = 3.3333... — усечение против округления
	truncated, err := conversion.ConvertToCrypto("10", 2, true)
	require.NoError(t, err)
	assert.Equal(t, "3.33", truncated)

	conversion = testConversion(t, "1", "0.004", "1")
	rounded, err := conversion.ConvertToCrypto("10", 2, false)
	require.NoError(t, err)
	assert.Equal(t, "10.00", rounded)

	down, err := conversion.ConvertToCrypto("10", 2, true)
	require.NoError(t, err)
	assert.Equal(t, "9.99", down)
}

func TestConvertZeroRate(t *testing.T) {
	conversion := testConversion(t, "0", "0", "0")

	_, err := conversion.ConvertToCrypto("10", 2, false)
	assert.ErrorIs(t, err, ErrNoConversionRate)

	_, err = conversion.ConvertToFiat("10", 2, false)
	assert.ErrorIs(t, err, ErrNoConversionRate)
}

func TestLoadCurrencies(t *testing.T) {
	service := newTestPaymentService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/payments/currencies/placement-1", r.URL.Path)
		w.Write([]byte(`{"data": {"currencies": [
			{"fiat": "USD", "crypto": "BTC", "a": 0.000041, "b": 0.0002, "c": 1, "fiatPopularValues": ["100", "200"]}
		]}}`))
	}))

	currencies, err := service.LoadCurrencies(context.Background())
	require.NoError(t, err)
	require.Len(t, currencies, 1)
	assert.Equal(t, "USD", currencies[0].Fiat)
	assert.Equal(t, "BTC", currencies[0].Crypto)
	assert.True(t, currencies[0].A.Equal(decimal.RequireFromString("0.000041")))
	assert.Equal(t, []string{"100", "200"}, currencies[0].FiatPopularValues)
}

func TestLoadCountries(t *testing.T) {
	service := newTestPaymentService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/countries", r.URL.Path)
		w.Write([]byte(`{"data": [
			{"name": "United States", "code": "US", "states": [{"name": "California", "code": "CA"}]},
			{"name": "Ukraine", "code": "UA"}
		]}`))
	}))

	countries, err := service.LoadCountries(context.Background())
	require.NoError(t, err)
	require.Len(t, countries, 2)
	assert.Equal(t, "US", countries[0].Code)
	require.Len(t, countries[0].States, 1)
	assert.Equal(t, "CA", countries[0].States[0].Code)
	assert.Empty(t, countries[1].States)
}

func TestSubscribeCurrencies(t *testing.T) {
	socket := &fakeSocketManager{}
	service := NewPaymentService(interfaces.APIConfig{BaseURL: "http://127.0.0.1:0"}, socket, "placement-1")

	updates, cancel := service.SubscribeCurrencies()
	defer cancel()

	assert.Equal(t, currenciesEvent, socket.event)
	message := socket.build()
	assert.Equal(t, "placement-1", message.Data)

	socket.subscription.messages <- interfaces.SocketMessage{
		Event: currenciesEvent,
		Data: map[string]interface{}{"currencies": []interface{}{
			map[string]interface{}{"fiat": "EUR", "crypto": "ETH", "a": 0.001, "b": 0, "c": 1},
		}},
	}

	select {
	case conversions := <-updates:
		require.Len(t, conversions, 1)
		assert.Equal(t, "EUR", conversions[0].Fiat)
	case <-time.After(time.Second):
		t.Fatal("обновление курсов не доставлено")
	}
}
