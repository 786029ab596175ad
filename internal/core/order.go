package core

// Status — статус заказа, назначаемый сервером. Перечисление закрытое,
// но незнакомые статусы не ошибка: новые значения сервера для клиента
// просто no-op (совместимость вперед).
type Status string

const (
	StatusNew Status = "new"
	// историческое написание на сервере, не исправлять
	StatusUncompleted Status = "uncomplited"

	StatusVerificationReady      Status = "verification-ready"
	StatusVerificationInProgress Status = "verification-in-progress"
	StatusVerificationSuccess    Status = "verification-success"
	StatusVerificationRejected   Status = "verification-rejected"
	StatusVerificationFailed     Status = "verification-failed"

	StatusProcessingAcknowledge Status = "processing-acknowledge"
	StatusProcessingReady       Status = "processing-ready"
	StatusProcessingInProgress  Status = "processing-in-progress"
	StatusProcessing3DS         Status = "processing-3ds"
	StatusProcessing3DSPending  Status = "processing-3ds-pending"
	StatusProcessingSuccess     Status = "processing-success"
	StatusProcessingRejected    Status = "processing-rejected"
	StatusProcessingFailed      Status = "processing-failed"

	StatusRefundInProgress  Status = "refund-in-progress"
	StatusRefunded          Status = "refunded"
	StatusEmailConfirmation Status = "email-confirmation"
	StatusCompleted         Status = "completed"
	StatusCryptoSending     Status = "crypto-sending"
	StatusCryptoSent        Status = "crypto-sent"
	StatusSettled           Status = "settled"
	StatusFinished          Status = "finished"
	StatusCrashed           Status = "crashed"
	StatusRejected          Status = "rejected"

	// легаси-имена тех же статусов со старых стендов
	StatusIVSReady            Status = "ivs-ready"
	StatusIVSPending          Status = "ivs-pending"
	StatusIVSSuccess          Status = "ivs-success"
	StatusIVSFailed           Status = "ivs-failed"
	StatusIVSRejected         Status = "ivs-rejected"
	StatusPSSWaitData         Status = "pss-waitdata"
	StatusPSSReady            Status = "pss-ready"
	StatusPSSPending          Status = "pss-pending"
	StatusPSSSuccess          Status = "pss-success"
	StatusPSSFailed           Status = "pss-failed"
	StatusPSSRejected         Status = "pss-rejected"
	StatusPSS3DSRequired      Status = "pss-3ds-required"
	StatusPSS3DSPending       Status = "pss-3ds-pending"
	StatusWaitForConfirmation Status = "waiting-for-confirmation"
)

// AdditionalField — одно дополнительное поле KYC. Флаги выставляет сервер.
type AdditionalField struct {
	Value    string `json:"value"`
	Required bool   `json:"req"`
	Editable bool   `json:"editable"`
}

// Order представляет одну попытку покупки. Карточные поля транзиентные:
// живут ровно до шифрования и никогда не пишутся на диск.
type Order struct {
	OrderID         string
	MerchantOrderID string
	Status          Status

	FiatAmount     string
	FiatCurrency   string
	CryptoAmount   string
	CryptoCurrency string

	WalletAddress string
	WalletTag     string

	CardNumber     string
	CardExpiryDate string
	CardCVV        string

	Email   string
	Country string
	State   string
	SSN     string

	IdentityDocumentsRequired *bool
	SelfieRequired            *bool

	Additional map[string]AdditionalField

	PaymentConfirmationTxID string
	PaymentConfirmationURL  string
	PaymentConfirmationBody map[string]string

	TxID string
}

// CardBin возвращает открытую часть номера карты (последние 4 цифры),
// уходящую в нешифрованный запрос payment
func (o Order) CardBin() string {
	if len(o.CardNumber) < 4 {
		return o.CardNumber
	}
	return o.CardNumber[len(o.CardNumber)-4:]
}

// Merge вливает в заказ непустые поля из upd и возвращает новый снапшот
func (o Order) Merge(upd Order) Order {
	result := o

	if upd.OrderID != "" {
		result.OrderID = upd.OrderID
	}
	if upd.MerchantOrderID != "" {
		result.MerchantOrderID = upd.MerchantOrderID
	}
	if upd.Status != "" {
		result.Status = upd.Status
	}
	if upd.FiatAmount != "" {
		result.FiatAmount = upd.FiatAmount
	}
	if upd.FiatCurrency != "" {
		result.FiatCurrency = upd.FiatCurrency
	}
	if upd.CryptoAmount != "" {
		result.CryptoAmount = upd.CryptoAmount
	}
	if upd.CryptoCurrency != "" {
		result.CryptoCurrency = upd.CryptoCurrency
	}
	if upd.WalletAddress != "" {
		result.WalletAddress = upd.WalletAddress
	}
	if upd.WalletTag != "" {
		result.WalletTag = upd.WalletTag
	}
	if upd.CardNumber != "" {
		result.CardNumber = upd.CardNumber
	}
	if upd.CardExpiryDate != "" {
		result.CardExpiryDate = upd.CardExpiryDate
	}
	if upd.CardCVV != "" {
		result.CardCVV = upd.CardCVV
	}
	if upd.Email != "" {
		result.Email = upd.Email
	}
	if upd.Country != "" {
		result.Country = upd.Country
	}
	if upd.State != "" {
		result.State = upd.State
	}
	if upd.SSN != "" {
		result.SSN = upd.SSN
	}
	if upd.IdentityDocumentsRequired != nil {
		result.IdentityDocumentsRequired = upd.IdentityDocumentsRequired
	}
	if upd.SelfieRequired != nil {
		result.SelfieRequired = upd.SelfieRequired
	}
	if upd.Additional != nil {
		result.Additional = upd.Additional
	}
	if upd.PaymentConfirmationTxID != "" {
		result.PaymentConfirmationTxID = upd.PaymentConfirmationTxID
	}
	if upd.PaymentConfirmationURL != "" {
		result.PaymentConfirmationURL = upd.PaymentConfirmationURL
	}
	if upd.PaymentConfirmationBody != nil {
		result.PaymentConfirmationBody = upd.PaymentConfirmationBody
	}
	if upd.TxID != "" {
		result.TxID = upd.TxID
	}

	return result
}

// Reset очищает заказ для повторной покупки, сохраняя коммерческие
// условия и контактные данные
func (o Order) Reset() Order {
	result := o

	result.OrderID = ""
	result.MerchantOrderID = ""
	result.Status = ""
	result.State = ""
	result.SSN = ""
	result.IdentityDocumentsRequired = nil
	result.SelfieRequired = nil
	result.Additional = nil
	result.PaymentConfirmationTxID = ""
	result.PaymentConfirmationURL = ""
	result.PaymentConfirmationBody = nil
	result.TxID = ""

	return result
}
