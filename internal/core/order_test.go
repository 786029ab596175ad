package core

import "testing"

func TestCardBin(t *testing.T) {
	order := Order{CardNumber: "4111111111111111"}
	if bin := order.CardBin(); bin != "1111" {
		t.Fatalf("неверный BIN: %q", bin)
	}

	short := Order{CardNumber: "41"}
	if bin := short.CardBin(); bin != "41" {
		t.Fatalf("неверный BIN короткого номера: %q", bin)
	}
}

func TestOrderMergeKeepsExistingFields(t *testing.T) {
	base := Order{
		OrderID:      "order-1",
		Status:       StatusNew,
		FiatAmount:   "100",
		FiatCurrency: "USD",
		Email:        "user@example.com",
	}

	merged := base.Merge(Order{Status: StatusVerificationReady, CryptoAmount: "0.002"})

	if merged.Status != StatusVerificationReady {
		t.Fatalf("статус не обновился: %q", merged.Status)
	}
	if merged.CryptoAmount != "0.002" {
		t.Fatalf("новое поле не влилось: %q", merged.CryptoAmount)
	}
	if merged.OrderID != "order-1" || merged.FiatAmount != "100" || merged.Email != "user@example.com" {
		t.Fatalf("пустые поля обновления затерли существующие: %+v", merged)
	}
}

func TestOrderResetPreservesCommercialTerms(t *testing.T) {
	order := Order{
		OrderID:                "order-1",
		MerchantOrderID:        "merch-1",
		Status:                 StatusFinished,
		FiatAmount:             "100",
		FiatCurrency:           "USD",
		CryptoAmount:           "0.002",
		CryptoCurrency:         "BTC",
		Email:                  "user@example.com",
		Country:                "US",
		State:                  "CA",
		SSN:                    "123-45-6789",
		Additional:             map[string]AdditionalField{"userFirstName": {Value: "Ada"}},
		PaymentConfirmationURL: "https://acs.example.com",
		TxID:                   "tx-1",
	}

	reset := order.Reset()

	if reset.OrderID != "" || reset.Status != "" || reset.TxID != "" {
		t.Fatalf("идентификаторы заказа не очищены: %+v", reset)
	}
	if reset.SSN != "" || reset.Additional != nil || reset.PaymentConfirmationURL != "" || reset.State != "" {
		t.Fatalf("артефакты прошлой покупки не очищены: %+v", reset)
	}
	if reset.FiatAmount != "100" || reset.CryptoCurrency != "BTC" || reset.Email != "user@example.com" || reset.Country != "US" {
		t.Fatalf("коммерческие условия должны сохраняться: %+v", reset)
	}
}
