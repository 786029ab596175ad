package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CEXDirect/internal/gateway"
	"CEXDirect/pkg/interfaces"
)

// newTestBackend поднимает заглушку API с обязательными для запуска
// сессии справочниками
func newTestBackend(t *testing.T, activated bool) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/merchant/placement/check/placement-1", func(w http.ResponseWriter, r *http.Request) {
		if activated {
			w.Write([]byte(`{"data": {"id": "placement-1", "activated": true, "rulesIds": ["1", "2"]}}`))
		} else {
			w.Write([]byte(`{"data": {"id": "placement-1", "activated": false}}`))
		}
	})
	mux.HandleFunc("/merchant/rules/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/merchant/rules/")
		w.Write([]byte(`{"data": {"id": "` + id + `", "name": "rule-` + id + `", "value": "text-` + id + `"}}`))
	})
	mux.HandleFunc("/payments/currencies/placement-1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"currencies": [{"fiat": "USD", "crypto": "BTC", "a": 1, "b": 0, "c": 2}]}}`))
	})
	mux.HandleFunc("/merchant/precisions/placement-1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"precisions": [
			{"type": "crypto", "currency": "BTC", "visiblePrecision": 8, "visibleRoundRule": "trunk"},
			{"type": "fiat", "currency": "USD", "visiblePrecision": 2}
		]}}`))
	})
	mux.HandleFunc("/payments/countries", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [{"name": "United States", "code": "US", "states": [{"name": "California", "code": "CA"}]}]}`))
	})
	mux.HandleFunc("/orders/opened", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {}}`))
	})
	mux.HandleFunc("/orders/buy", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {}}`))
	})
	mux.HandleFunc("/orders/new", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"orderId": "order-1", "orderStatus": "new"}}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestCheckout(t *testing.T, server *httptest.Server) CheckoutAPI {
	t.Helper()

	checkout, err := NewCheckoutAPI(CheckoutConfig{
		PlacementID:     "placement-1",
		PlacementSecret: "secret-1",
		Email:           "user@example.com",
		Country:         "US",
		Config: &interfaces.Config{
			API:    interfaces.APIConfig{BaseURL: server.URL, RequestTimeout: 5 * time.Second},
			Socket: interfaces.SocketConfig{URL: "ws://127.0.0.1:1", ReconnectInterval: time.Hour, PingInterval: time.Hour, PongTimeout: time.Second},
			Log:    interfaces.LogConfig{Level: "error"},
		},
	})
	require.NoError(t, err)
	return checkout
}

func TestNewCheckoutAPIRequiresPlacement(t *testing.T) {
	_, err := NewCheckoutAPI(CheckoutConfig{PlacementID: "placement-1"})
	require.Error(t, err)

	_, err = NewCheckoutAPI(CheckoutConfig{PlacementSecret: "secret-1"})
	require.Error(t, err)
}

func TestStartLoadsPlacementDirectories(t *testing.T) {
	checkout := newTestCheckout(t, newTestBackend(t, true))
	require.NoError(t, checkout.Start())
	defer checkout.Stop()

	rates := checkout.Rates()
	require.Len(t, rates, 1)
	assert.Equal(t, "USD", rates[0].Fiat)
	assert.Equal(t, "BTC", rates[0].Crypto)

	countries := checkout.Countries()
	require.Len(t, countries, 1)
	assert.Equal(t, "US", countries[0].Code)
	assert.Equal(t, []string{"CA"}, countries[0].States)

	// (1*10 - 0) / 2 с точностью 8 и усечением
	amount, err := checkout.ConvertToCrypto("10", "USD", "BTC")
	require.NoError(t, err)
	assert.Equal(t, "5.00000000", amount)

	fiat, err := checkout.ConvertToFiat("5", "USD", "BTC")
	require.NoError(t, err)
	assert.Equal(t, "10.00", fiat)
}

func TestStartRejectsInactivePlacement(t *testing.T) {
	checkout := newTestCheckout(t, newTestBackend(t, false))
	err := checkout.Start()
	assert.ErrorIs(t, err, ErrPlacementNotActivated)
}

func TestPlaceOrderRequiresStart(t *testing.T) {
	checkout := newTestCheckout(t, newTestBackend(t, true))
	_, err := checkout.PlaceOrder(PlaceOrderRequest{})
	require.Error(t, err)
}

func TestPlaceOrderStartsLifecycle(t *testing.T) {
	checkout := newTestCheckout(t, newTestBackend(t, true))
	require.NoError(t, checkout.Start())
	defer checkout.Stop()

	summary, err := checkout.PlaceOrder(PlaceOrderRequest{
		Email:          "user@example.com",
		Country:        "US",
		FiatAmount:     "100",
		FiatCurrency:   "USD",
		CryptoAmount:   "0.002",
		CryptoCurrency: "BTC",
	})
	require.NoError(t, err)
	assert.Equal(t, "order-1", summary.OrderID)
	assert.Equal(t, "new", summary.Status)

	// повторное создание до завершения сессии запрещено
	_, err = checkout.PlaceOrder(PlaceOrderRequest{})
	require.Error(t, err)

	order := checkout.GetOrder()
	assert.Equal(t, "order-1", order.OrderID)
}

type stubSubscription struct {
	messages chan interfaces.SocketMessage
	once     sync.Once
}

func (s *stubSubscription) Messages() <-chan interfaces.SocketMessage { return s.messages }
func (s *stubSubscription) Close()                                    { s.once.Do(func() { close(s.messages) }) }

func (s *stubSubscription) isClosed() bool {
	select {
	case _, ok := <-s.messages:
		return !ok
	default:
		return false
	}
}

type stubSocketManager struct {
	mutex        sync.Mutex
	subscription *stubSubscription
}

func (m *stubSocketManager) Start() error                                { return nil }
func (m *stubSocketManager) Stop()                                       {}
func (m *stubSocketManager) IsConnected() bool                           { return true }
func (m *stubSocketManager) Send(message interfaces.SocketMessage) error { return nil }

func (m *stubSocketManager) Subscribe(event string, build interfaces.BuildSubscriptionMessage) interfaces.ISubscription {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.subscription = &stubSubscription{messages: make(chan interfaces.SocketMessage, 4)}
	return m.subscription
}

func (m *stubSocketManager) last() *stubSubscription {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.subscription
}

func (m *stubSocketManager) push(message interfaces.SocketMessage) {
	m.last().messages <- message
}

func TestPlaceOrderAfterTerminalReplacesController(t *testing.T) {
	server := newTestBackend(t, true)
	checkout := newTestCheckout(t, server)
	impl := checkout.(*checkoutAPI)

	// подменяем сокет-канал шлюза заказов, чтобы управлять пушами
	// статусов из теста
	socket := &stubSocketManager{}
	impl.socket = socket
	impl.orderService = gateway.NewOrderService(interfaces.APIConfig{BaseURL: server.URL, RequestTimeout: 5 * time.Second}, socket, "placement-1", "secret-1")

	require.NoError(t, checkout.Start())
	defer checkout.Stop()

	request := PlaceOrderRequest{
		Email:        "user@example.com",
		Country:      "US",
		FiatAmount:   "100",
		FiatCurrency: "USD",
	}
	_, err := checkout.PlaceOrder(request)
	require.NoError(t, err)

	first := socket.last()
	socket.push(interfaces.SocketMessage{
		Event: "orderInfo",
		Data:  map[string]interface{}{"orderId": "order-1", "orderStatus": "rejected"},
	})

	require.Eventually(t, func() bool { return impl.controller.Done() }, 2*time.Second, 10*time.Millisecond)

	// прошлая машина дошла до поглощающего состояния: новый заказ
	// останавливает ее и ставит свежую
	summary, err := checkout.PlaceOrder(request)
	require.NoError(t, err)
	assert.Equal(t, "order-1", summary.OrderID)

	require.Eventually(t, first.isClosed, 2*time.Second, 10*time.Millisecond)
	assert.NotSame(t, first, socket.last())
}

func TestRulesLoadsPlacementDocuments(t *testing.T) {
	checkout := newTestCheckout(t, newTestBackend(t, true))
	require.NoError(t, checkout.Start())
	defer checkout.Stop()

	rules, err := checkout.Rules()
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "1", rules[0].ID)
	assert.Equal(t, "rule-1", rules[0].Name)
	assert.Equal(t, "text-2", rules[1].Content)
}

func TestRulesRequireStart(t *testing.T) {
	checkout := newTestCheckout(t, newTestBackend(t, true))
	_, err := checkout.Rules()
	require.Error(t, err)
}

func TestStopIsIdempotent(t *testing.T) {
	checkout := newTestCheckout(t, newTestBackend(t, true))
	require.NoError(t, checkout.Start())
	require.NoError(t, checkout.Stop())
	require.NoError(t, checkout.Stop())
}
