package api

import (
	"time"

	"CEXDirect/pkg/interfaces"
)

// CheckoutConfig представляет собой конфигурацию сессии покупки
type CheckoutConfig struct {
	// PlacementID идентификатор размещения мерчанта
	PlacementID string `json:"placement_id"`

	// PlacementSecret секрет размещения для подписи запросов
	PlacementSecret string `json:"placement_secret"`

	// Предзаполнение заказа со стороны мерчанта
	Email          string `json:"email,omitempty"`
	Country        string `json:"country,omitempty"`
	State          string `json:"state,omitempty"`
	FiatAmount     string `json:"fiat_amount,omitempty"`
	FiatCurrency   string `json:"fiat_currency,omitempty"`
	CryptoAmount   string `json:"crypto_amount,omitempty"`
	CryptoCurrency string `json:"crypto_currency,omitempty"`

	// Config окружение SDK: адреса, сокет, хранилище, логи.
	// nil — значения по умолчанию.
	Config *interfaces.Config `json:"config,omitempty"`
}

// ScreenEvent представляет собой событие навигации для слоя представления
type ScreenEvent struct {
	// Screen экран сценария покупки: "payment-info", "additional-info",
	// "payment-confirmation", "email-confirmation", "purchase-success"
	Screen string `json:"screen,omitempty"`

	// Terminal вид терминального экрана, после него сессия завершена
	Terminal string `json:"terminal,omitempty"`

	OrderID   string    `json:"order_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// IsTerminal сообщает, что событие завершает сессию
func (e ScreenEvent) IsTerminal() bool {
	return e.Terminal != ""
}

// PlaceOrderRequest представляет собой запрос на создание заказа
type PlaceOrderRequest struct {
	Email          string `json:"email"`
	Country        string `json:"country"`
	State          string `json:"state,omitempty"`
	FiatAmount     string `json:"fiat_amount"`
	FiatCurrency   string `json:"fiat_currency"`
	CryptoAmount   string `json:"crypto_amount"`
	CryptoCurrency string `json:"crypto_currency"`
}

// PaymentInfoRequest представляет собой данные с экрана оплаты.
// Номер карты и CVV не покидают процесс в открытом виде.
type PaymentInfoRequest struct {
	CardNumber     string `json:"card_number"`
	CardExpiryDate string `json:"card_expiry_date"`
	CardCVV        string `json:"card_cvv"`
	WalletAddress  string `json:"wallet_address"`
	WalletTag      string `json:"wallet_tag,omitempty"`
	SSN            string `json:"ssn,omitempty"`
}

// OrderSummary представляет собой снапшот заказа для внешних клиентов
type OrderSummary struct {
	OrderID         string `json:"order_id"`
	MerchantOrderID string `json:"merchant_order_id,omitempty"`
	Status          string `json:"status"`

	FiatAmount     string `json:"fiat_amount"`
	FiatCurrency   string `json:"fiat_currency"`
	CryptoAmount   string `json:"crypto_amount"`
	CryptoCurrency string `json:"crypto_currency"`

	WalletAddress string `json:"wallet_address,omitempty"`
	Email         string `json:"email,omitempty"`
	Country       string `json:"country,omitempty"`

	// RequiredFields имена дополнительных полей KYC, которые сервер
	// ждет от пользователя
	RequiredFields []string `json:"required_fields,omitempty"`
}

// Rate представляет собой курс одной пары фиат-крипто
type Rate struct {
	Fiat                string   `json:"fiat"`
	Crypto              string   `json:"crypto"`
	FiatPopularValues   []string `json:"fiat_popular_values,omitempty"`
	CryptoPopularValues []string `json:"crypto_popular_values,omitempty"`
}

// Country представляет собой страну из справочника
type Country struct {
	Name   string   `json:"name"`
	Code   string   `json:"code"`
	States []string `json:"states,omitempty"`
}

// Rule представляет собой юридический документ размещения
type Rule struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Transition представляет собой запись журнала переходов статусов
type Transition struct {
	OrderID    string    `json:"order_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	CreatedAt  time.Time `json:"created_at"`
}
