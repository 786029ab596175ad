package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"CEXDirect/internal/core"
	"CEXDirect/pkg/interfaces"
)

// currenciesEvent — сокет-событие обновлений курсов
const currenciesEvent = "currencies"

// ErrNoConversionRate — для пары нет коэффициентов конвертации
var ErrNoConversionRate = errors.New("нет курса для этой пары валют")

// CurrencyConversion содержит коэффициенты пересчета одной пары
// фиат-крипто. Формула сервера линейная: a, b и c приходят готовыми,
// клиент только подставляет суммы.
type CurrencyConversion struct {
	Fiat   string          `json:"fiat"`
	Crypto string          `json:"crypto"`
	A      decimal.Decimal `json:"a"`
	B      decimal.Decimal `json:"b"`
	C      decimal.Decimal `json:"c"`

	FiatPopularValues   []string `json:"fiatPopularValues"`
	CryptoPopularValues []string `json:"cryptoPopularValues"`
}

// ConvertToCrypto пересчитывает сумму фиата в крипто: (a*fiat - b) / c.
// roundDown усекает результат вместо округления к ближайшему.
func (c CurrencyConversion) ConvertToCrypto(fiatAmount string, precision int, roundDown bool) (string, error) {
	amount, err := decimal.NewFromString(fiatAmount)
	if err != nil {
		return "", err
	}
	if c.C.IsZero() {
		return "", ErrNoConversionRate
	}

	result := c.A.Mul(amount).Sub(c.B).Div(c.C)
	return renderAmount(result, precision, roundDown), nil
}

// ConvertToFiat пересчитывает сумму крипто в фиат: (c*crypto + b) / a
func (c CurrencyConversion) ConvertToFiat(cryptoAmount string, precision int, roundDown bool) (string, error) {
	amount, err := decimal.NewFromString(cryptoAmount)
	if err != nil {
		return "", err
	}
	if c.A.IsZero() {
		return "", ErrNoConversionRate
	}

	result := c.C.Mul(amount).Add(c.B).Div(c.A)
	return renderAmount(result, precision, roundDown), nil
}

func renderAmount(value decimal.Decimal, precision int, roundDown bool) string {
	if roundDown {
		return value.Truncate(int32(precision)).StringFixed(int32(precision))
	}
	return value.Round(int32(precision)).StringFixed(int32(precision))
}

// CountryState — регион страны, где он требуется для платежа
type CountryState struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Country — страна из справочника обслуживаемых стран
type Country struct {
	Name   string         `json:"name"`
	Code   string         `json:"code"`
	States []CountryState `json:"states"`
}

// PaymentService загружает справочники курсов и стран и раздает
// обновления курсов через сокет
type PaymentService struct {
	client      *httpClient
	socket      interfaces.ISocketManager
	placementID string
}

// NewPaymentService создает платежный сервис
func NewPaymentService(cfg interfaces.APIConfig, socket interfaces.ISocketManager, placementID string) *PaymentService {
	return &PaymentService{
		client:      newHTTPClient(cfg),
		socket:      socket,
		placementID: placementID,
	}
}

// LoadCurrencies загружает коэффициенты конвертации всех пар размещения
func (s *PaymentService) LoadCurrencies(ctx context.Context) ([]CurrencyConversion, error) {
	var response struct {
		Currencies []CurrencyConversion `json:"currencies"`
	}
	if err := s.client.doData(ctx, http.MethodGet, "payments/currencies/"+s.placementID, nil, &response); err != nil {
		return nil, err
	}
	return response.Currencies, nil
}

// LoadCountries загружает справочник обслуживаемых стран
func (s *PaymentService) LoadCountries(ctx context.Context) ([]Country, error) {
	var countries []Country
	if err := s.client.doData(ctx, http.MethodGet, "payments/countries", nil, &countries); err != nil {
		return nil, err
	}
	return countries, nil
}

// SubscribeCurrencies подписывается на обновления курсов. Канал
// закрывается отменой подписки.
func (s *PaymentService) SubscribeCurrencies() (<-chan []CurrencyConversion, func()) {
	subscription := s.socket.Subscribe(currenciesEvent, func() interfaces.SocketMessage {
		return interfaces.NewSocketMessage(currenciesEvent, s.placementID)
	})

	updates := make(chan []CurrencyConversion, 4)
	go func() {
		defer close(updates)
		for message := range subscription.Messages() {
			conversions, err := decodeCurrencies(message)
			if err != nil {
				core.Warn("не удалось разобрать пуш курсов: %v", err)
				continue
			}
			updates <- conversions
		}
	}()

	return updates, subscription.Close
}

func decodeCurrencies(message interfaces.SocketMessage) ([]CurrencyConversion, error) {
	raw, err := json.Marshal(message.Data)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Currencies []CurrencyConversion `json:"currencies"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return payload.Currencies, nil
}
