package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"CEXDirect/internal/core"
	"CEXDirect/internal/crypto"
	"CEXDirect/pkg/interfaces"
)

// имя канала в запросах передачи карточных данных
const cardDataChannel = "go"

// orderUpdatesEvent — сокет-событие пушей статуса заказа
const orderUpdatesEvent = "orderInfo"

// OrderService выполняет операции над заказом: REST-запросы к разделу
// orders и подписку на пуши статусов через сокет. Реализует
// core.IOrderGateway.
type OrderService struct {
	client *httpClient
	socket interfaces.ISocketManager
	signer *requestSigner
}

// NewOrderService создает сервис заказов
func NewOrderService(cfg interfaces.APIConfig, socket interfaces.ISocketManager, placementID, secret string) *OrderService {
	return &OrderService{
		client: newHTTPClient(cfg),
		socket: socket,
		signer: newRequestSigner(placementID, secret),
	}
}

// signedBody собирает стандартное тело запроса: служебный блок с
// подписью плюс полезная нагрузка
func (s *OrderService) signedBody(nonce int64, data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"serviceData": s.signer.serviceData(nonce),
		"data":        data,
	}
}

// CreateOrder создает заказ на сервере и возвращает его с заполненными
// идентификатором и начальным статусом
func (s *OrderService) CreateOrder(ctx context.Context, order core.Order) (core.Order, error) {
	if order.Email == "" || order.Country == "" || order.FiatAmount == "" || order.FiatCurrency == "" ||
		order.CryptoAmount == "" || order.CryptoCurrency == "" {
		return core.Order{}, ErrIncompleteOrder
	}

	data := map[string]interface{}{
		"sourceUri":  s.signer.sourceURI,
		"userEmail":  order.Email,
		"country":    order.Country,
		"fiat":       map[string]string{"amount": order.FiatAmount, "currency": order.FiatCurrency},
		"crypto":     map[string]string{"amount": order.CryptoAmount, "currency": order.CryptoCurrency},
		"skipVerify": false,
	}
	if order.State != "" {
		data["state"] = order.State
	}

	var dto orderDTO
	if err := s.client.doData(ctx, http.MethodPut, "orders/new", s.signedBody(s.signer.nonce(), data), &dto); err != nil {
		return core.Order{}, err
	}

	order.OrderID = dto.OrderID
	order.Status = core.Status(dto.Status)
	return order, nil
}

// LoadOrderInfo запрашивает актуальное состояние заказа
func (s *OrderService) LoadOrderInfo(ctx context.Context, order core.Order) (core.Order, error) {
	if order.OrderID == "" || order.Email == "" {
		return core.Order{}, ErrIncompleteOrder
	}

	nonce := s.signer.nonce()
	data := map[string]interface{}{
		"orderId":     order.OrderID,
		"orderSecret": s.signer.orderSecret(order.Email, order.OrderID, nonce),
	}

	var dto orderDTO
	if err := s.client.doData(ctx, http.MethodPost, "orders/info", s.signedBody(nonce, data), &dto); err != nil {
		return core.Order{}, err
	}
	return dto.toOrder(), nil
}

// SendPaymentData отправляет открытую часть платежных данных: BIN карты,
// срок действия и криптокошелек. Полный номер карты этим запросом не
// передается.
func (s *OrderService) SendPaymentData(ctx context.Context, order core.Order) (core.Order, error) {
	if order.OrderID == "" || order.Email == "" || order.CardNumber == "" ||
		order.CardExpiryDate == "" || order.WalletAddress == "" {
		return core.Order{}, ErrIncompleteOrder
	}

	nonce := s.signer.nonce()

	wallet := map[string]string{"address": order.WalletAddress}
	if order.WalletTag != "" {
		wallet["tag"] = order.WalletTag
	}

	data := map[string]interface{}{
		"orderId":     order.OrderID,
		"orderSecret": s.signer.orderSecret(order.Email, order.OrderID, nonce),
		"termUrl":     s.client.baseURL,
		"paymentData": map[string]interface{}{
			"cardBin":      order.CardBin(),
			"cardExpired":  order.CardExpiryDate,
			"cryptoWallet": wallet,
		},
	}
	if order.SSN != "" {
		data["additional"] = map[string]string{"billingSsn": order.SSN}
	}

	var dto orderDTO
	if err := s.client.doData(ctx, http.MethodPut, "orders/payment", s.signedBody(nonce, data), &dto); err != nil {
		return core.Order{}, err
	}

	update := dto.toOrder()
	order.Status = update.Status
	order.Additional = update.Additional
	order.PaymentConfirmationURL = update.PaymentConfirmationURL
	return order, nil
}

// UpdatePaymentData отправляет значения дополнительных полей KYC
func (s *OrderService) UpdatePaymentData(ctx context.Context, order core.Order) (core.Order, error) {
	if order.OrderID == "" || order.Email == "" || order.Additional == nil {
		return core.Order{}, ErrIncompleteOrder
	}

	nonce := s.signer.nonce()
	additional := make(map[string]string, len(order.Additional))
	for name, field := range order.Additional {
		if field.Value != "" {
			additional[name] = field.Value
		}
	}

	data := map[string]interface{}{
		"orderId":     order.OrderID,
		"orderSecret": s.signer.orderSecret(order.Email, order.OrderID, nonce),
		"additional":  additional,
	}

	var dto orderDTO
	if err := s.client.doData(ctx, http.MethodPost, "orders/payment", s.signedBody(nonce, data), &dto); err != nil {
		return core.Order{}, err
	}

	update := dto.toOrder()
	order.Status = update.Status
	order.PaymentConfirmationURL = update.PaymentConfirmationURL
	return order, nil
}

// SendCardDataToVerification шифрует и отправляет номер карты и срок
// действия в сервис верификации
func (s *OrderService) SendCardDataToVerification(ctx context.Context, order core.Order) error {
	if order.CardNumber == "" || order.CardExpiryDate == "" {
		return ErrIncompleteOrder
	}
	fields := map[string]string{
		"cardNumber":     order.CardNumber,
		"expirationDate": order.CardExpiryDate,
	}
	return s.sendEncryptedCardData(ctx, order, fields, "crypto/verification", "send2verification")
}

// SendCardDataToProcessing шифрует и отправляет номер карты и CVV
// в сервис процессинга
func (s *OrderService) SendCardDataToProcessing(ctx context.Context, order core.Order) error {
	if order.CardNumber == "" || order.CardCVV == "" {
		return ErrIncompleteOrder
	}
	fields := map[string]string{
		"cardNumber": order.CardNumber,
		"cvv":        order.CardCVV,
	}
	return s.sendEncryptedCardData(ctx, order, fields, "crypto/processing", "send2processing")
}

// sendEncryptedCardData выполняет двухшаговую передачу карточных данных:
// обмен ключами по пути keyPath, затем отправка шифртекста по пути
// sendPath. Пара ключей эфемерная: живет ровно один вызов.
func (s *OrderService) sendEncryptedCardData(ctx context.Context, order core.Order, fields map[string]string, keyPath, sendPath string) error {
	if order.OrderID == "" || order.Email == "" {
		return ErrIncompleteOrder
	}

	keyPair, err := crypto.NewKeyPair(crypto.Group14())
	if err != nil {
		return fmt.Errorf("не удалось сгенерировать пару ключей: %w", err)
	}

	serverPublicKey, secretID, err := s.exchangePublicKeys(ctx, order, keyPath, keyPair.PublicKey)
	if err != nil {
		return err
	}

	sharedSecret, err := keyPair.SharedSecret(serverPublicKey)
	if err != nil {
		return fmt.Errorf("не удалось вычислить общий секрет: %w", err)
	}

	encrypted, err := crypto.Encrypt(fields, sharedSecret, secretID)
	if err != nil {
		return fmt.Errorf("не удалось зашифровать карточные данные: %w", err)
	}

	nonce := s.signer.nonce()
	data := map[string]interface{}{
		"orderId":     order.OrderID,
		"orderSecret": s.signer.orderSecret(order.Email, order.OrderID, nonce),
		"cardData": map[string]string{
			"chash": encrypted.EncryptedValue,
			"rcid":  encrypted.InitialVector,
		},
		"channel":  cardDataChannel,
		"secretId": secretID,
	}

	if _, err := s.client.do(ctx, http.MethodPost, "orders/"+sendPath, s.signedBody(nonce, data)); err != nil {
		return err
	}
	return nil
}

// exchangePublicKeys отправляет серверу наш публичный ключ и получает
// серверный вместе с идентификатором сессии ключей
func (s *OrderService) exchangePublicKeys(ctx context.Context, order core.Order, path, publicKey string) (string, string, error) {
	nonce := s.signer.nonce()
	data := map[string]interface{}{
		"orderId":     order.OrderID,
		"orderSecret": s.signer.orderSecret(order.Email, order.OrderID, nonce),
		"publicKey":   publicKey,
	}

	var response struct {
		PublicKey string `json:"publicKey"`
		SecretID  string `json:"secretId"`
	}
	if err := s.client.doData(ctx, http.MethodPost, "orders/"+path, s.signedBody(nonce, data), &response); err != nil {
		return "", "", err
	}
	if response.PublicKey == "" || response.SecretID == "" {
		return "", "", ErrBadResponse
	}
	return response.PublicKey, response.SecretID, nil
}

// CheckConfirmationCode проверяет код подтверждения из письма
func (s *OrderService) CheckConfirmationCode(ctx context.Context, code string, order core.Order) error {
	if order.OrderID == "" {
		return ErrIncompleteOrder
	}

	data := map[string]interface{}{
		"orderId":          order.OrderID,
		"confirmationCode": code,
	}
	_, err := s.client.do(ctx, http.MethodPost, "orders/check", s.signedBody(s.signer.nonce(), data))
	return err
}

// UpdateEmail меняет email заказа. Код подтверждения после смены
// отправляется на новый адрес.
func (s *OrderService) UpdateEmail(ctx context.Context, newEmail string, order core.Order) (core.Order, error) {
	if order.OrderID == "" || order.Email == "" {
		return core.Order{}, ErrIncompleteOrder
	}

	nonce := s.signer.nonce()
	data := map[string]interface{}{
		"orderId":     order.OrderID,
		"orderSecret": s.signer.orderSecret(order.Email, order.OrderID, nonce),
		"newEmail":    newEmail,
	}
	if _, err := s.client.do(ctx, http.MethodPut, "orders/email", s.signedBody(nonce, data)); err != nil {
		return core.Order{}, err
	}

	order.Email = newEmail
	return order, nil
}

// ResendConfirmationCode просит сервер отправить код подтверждения заново
func (s *OrderService) ResendConfirmationCode(ctx context.Context, order core.Order) error {
	if order.OrderID == "" || order.Email == "" {
		return ErrIncompleteOrder
	}

	nonce := s.signer.nonce()
	data := map[string]interface{}{
		"orderId":     order.OrderID,
		"orderSecret": s.signer.orderSecret(order.Email, order.OrderID, nonce),
	}
	_, err := s.client.do(ctx, http.MethodPost, "orders/resend-check-code", s.signedBody(nonce, data))
	return err
}

// UploadImages загружает фотографии документов. Каждое изображение
// передается как base64 с порядковым индексом.
func (s *OrderService) UploadImages(ctx context.Context, images [][]byte, documentType string, order core.Order) error {
	if order.OrderID == "" || order.Email == "" || len(images) == 0 {
		return ErrIncompleteOrder
	}

	encoded := make([]map[string]interface{}, 0, len(images))
	for i, image := range images {
		encoded = append(encoded, map[string]interface{}{
			"index":   i,
			"content": base64.StdEncoding.EncodeToString(image),
		})
	}

	nonce := s.signer.nonce()
	data := map[string]interface{}{
		"orderId":      order.OrderID,
		"orderSecret":  s.signer.orderSecret(order.Email, order.OrderID, nonce),
		"documentType": documentType,
		"base64image":  encoded,
	}
	_, err := s.client.do(ctx, http.MethodPut, "orders/image", s.signedBody(nonce, data))
	return err
}

// SendOpenedEvent сообщает серверу об открытии виджета. Событие
// аналитическое, суммы передаются если уже известны.
func (s *OrderService) SendOpenedEvent(ctx context.Context, order core.Order) error {
	data := map[string]interface{}{"sourceUri": s.signer.sourceURI}
	if order.FiatAmount != "" && order.FiatCurrency != "" {
		data["fiat"] = map[string]string{"amount": order.FiatAmount, "currency": order.FiatCurrency}
	}
	if order.CryptoAmount != "" && order.CryptoCurrency != "" {
		data["crypto"] = map[string]string{"amount": order.CryptoAmount, "currency": order.CryptoCurrency}
	}

	_, err := s.client.do(ctx, http.MethodPut, "orders/opened", s.signedBody(s.signer.nonce(), data))
	return err
}

// SendBuyEvent сообщает серверу о нажатии кнопки покупки
func (s *OrderService) SendBuyEvent(ctx context.Context, order core.Order) error {
	if order.FiatAmount == "" || order.FiatCurrency == "" || order.CryptoAmount == "" || order.CryptoCurrency == "" {
		return ErrIncompleteOrder
	}

	data := map[string]interface{}{
		"sourceUri": s.signer.sourceURI,
		"fiat":      map[string]string{"amount": order.FiatAmount, "currency": order.FiatCurrency},
		"crypto":    map[string]string{"amount": order.CryptoAmount, "currency": order.CryptoCurrency},
	}
	_, err := s.client.do(ctx, http.MethodPut, "orders/buy", s.signedBody(s.signer.nonce(), data))
	return err
}

// ComposePaymentConfirmationRequest собирает запрос 3DS-подтверждения
// для встроенного браузера: форма из тела 3DS с подставленным адресом
// возврата
func (s *OrderService) ComposePaymentConfirmationRequest(order core.Order) (*http.Request, error) {
	if order.PaymentConfirmationURL == "" || order.PaymentConfirmationBody == nil {
		return nil, ErrIncompleteOrder
	}

	form := url.Values{}
	for key, value := range order.PaymentConfirmationBody {
		form.Set(key, value)
	}
	if order.OrderID != "" && order.PaymentConfirmationTxID != "" {
		form.Set("TermUrl", fmt.Sprintf("%s/orders/3ds-check/%s/tx/%s", s.client.baseURL, order.OrderID, order.PaymentConfirmationTxID))
	}

	request, err := http.NewRequest(http.MethodPost, order.PaymentConfirmationURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("не удалось создать запрос подтверждения: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return request, nil
}

// SubscribeOrderUpdates подписывается на пуши статусов заказа.
// Сообщение подписки собирается заново при каждом переподключении:
// nonce и orderSecret должны быть свежими.
func (s *OrderService) SubscribeOrderUpdates(order core.Order) (<-chan core.Order, func(), error) {
	if order.OrderID == "" || order.Email == "" {
		return nil, nil, ErrIncompleteOrder
	}

	subscription := s.socket.Subscribe(orderUpdatesEvent, func() interfaces.SocketMessage {
		nonce := s.signer.nonce()
		return interfaces.NewSocketMessage(orderUpdatesEvent, map[string]interface{}{
			"serviceData": s.signer.serviceData(nonce),
			"data": map[string]interface{}{
				"orderId":     order.OrderID,
				"orderSecret": s.signer.orderSecret(order.Email, order.OrderID, nonce),
			},
		})
	})

	updates := make(chan core.Order, 16)
	go func() {
		defer close(updates)
		for message := range subscription.Messages() {
			update, err := decodeOrderUpdate(message)
			if err != nil {
				core.Warn("не удалось разобрать пуш заказа: %v", err)
				continue
			}
			// потребитель мог уже выйти из цикла обработки: отправка
			// не блокирующая, как и в разветвлении сокет-менеджера
			select {
			case updates <- update:
			default:
				core.Warn("потребитель не читает пуши заказа %s, снапшот отброшен", update.OrderID)
			}
		}
	}()

	return updates, subscription.Close, nil
}

// decodeOrderUpdate конвертирует полезную нагрузку сокет-сообщения
// в снапшот заказа
func decodeOrderUpdate(message interfaces.SocketMessage) (core.Order, error) {
	raw, err := json.Marshal(message.Data)
	if err != nil {
		return core.Order{}, err
	}

	var dto orderDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return core.Order{}, err
	}
	return dto.toOrder(), nil
}
