package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"

	"CEXDirect/internal/core"
)

// flexAmount принимает сумму и как JSON-число, и как строку:
// сервер исторически отдает оба варианта в зависимости от эндпоинта
type flexAmount string

func (a *flexAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*a = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = flexAmount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("некорректная сумма %s: %w", data, err)
	}
	*a = flexAmount(n.String())
	return nil
}

type amountDTO struct {
	Amount   flexAmount `json:"amount"`
	Currency string     `json:"currency"`
}

type walletDTO struct {
	Address string `json:"address"`
	Tag     string `json:"tag,omitempty"`
}

type imagesDTO struct {
	IdentityDocumentsRequired *bool `json:"isIdentityDocumentsRequired"`
	SelfieRequired            *bool `json:"isSelfieRequired"`
}

type basicDTO struct {
	Fiat   *amountDTO `json:"fiat"`
	Crypto *amountDTO `json:"crypto"`
	Wallet *walletDTO `json:"wallet"`
	Images *imagesDTO `json:"images"`
}

type threeDSDTO struct {
	TxID string            `json:"txId"`
	URL  string            `json:"url"`
	Data map[string]string `json:"data"`
}

type paymentInfoDTO struct {
	TxID string `json:"txId"`
}

type additionalFieldDTO struct {
	Value    string `json:"value"`
	Required bool   `json:"req"`
	Editable bool   `json:"editable"`
}

// orderDTO повторяет серверное JSON-представление заказа. Внутренняя
// модель плоская, поэтому вложенность сервера остается только тут.
type orderDTO struct {
	OrderID         string `json:"orderId"`
	MerchantOrderID string `json:"merchOrderId"`
	Status          string `json:"orderStatus"`

	Email   string `json:"userEmail"`
	Country string `json:"country"`
	State   string `json:"state"`
	SSN     string `json:"ssn"`

	Basic *basicDTO `json:"basic"`

	Additional map[string]additionalFieldDTO `json:"additional"`

	ThreeDS     *threeDSDTO     `json:"threeDS"`
	PaymentInfo *paymentInfoDTO `json:"paymentInfo"`
}

// toOrder конвертирует серверное представление во внутренний снапшот.
// Отсутствующие у сервера поля остаются пустыми и при Merge не
// затирают локальное состояние.
func (d orderDTO) toOrder() core.Order {
	order := core.Order{
		OrderID:         d.OrderID,
		MerchantOrderID: d.MerchantOrderID,
		Status:          core.Status(d.Status),
		Email:           d.Email,
		Country:         d.Country,
		State:           d.State,
		SSN:             d.SSN,
	}

	if d.Basic != nil {
		if d.Basic.Fiat != nil {
			order.FiatAmount = string(d.Basic.Fiat.Amount)
			order.FiatCurrency = d.Basic.Fiat.Currency
		}
		if d.Basic.Crypto != nil {
			order.CryptoAmount = string(d.Basic.Crypto.Amount)
			order.CryptoCurrency = d.Basic.Crypto.Currency
		}
		if d.Basic.Wallet != nil {
			order.WalletAddress = d.Basic.Wallet.Address
			order.WalletTag = d.Basic.Wallet.Tag
		}
		if d.Basic.Images != nil {
			order.IdentityDocumentsRequired = d.Basic.Images.IdentityDocumentsRequired
			order.SelfieRequired = d.Basic.Images.SelfieRequired
		}
	}

	if len(d.Additional) > 0 {
		order.Additional = make(map[string]core.AdditionalField, len(d.Additional))
		for name, field := range d.Additional {
			order.Additional[name] = core.AdditionalField{
				Value:    field.Value,
				Required: field.Required,
				Editable: field.Editable,
			}
		}
	}

	if d.ThreeDS != nil {
		order.PaymentConfirmationTxID = d.ThreeDS.TxID
		order.PaymentConfirmationURL = d.ThreeDS.URL
		order.PaymentConfirmationBody = d.ThreeDS.Data
	}
	if d.PaymentInfo != nil {
		order.TxID = d.PaymentInfo.TxID
	}

	return order
}
