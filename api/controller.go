package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"CEXDirect/internal/core"
	"CEXDirect/internal/gateway"
	"CEXDirect/internal/storage"
	"CEXDirect/internal/storage/sqlite"
	"CEXDirect/internal/transport"
	"CEXDirect/pkg/config"
	"CEXDirect/pkg/interfaces"
)

// ErrPlacementNotActivated — размещение мерчанта выключено на сервере
var ErrPlacementNotActivated = errors.New("размещение не активировано")

// CheckoutAPI определяет главный интерфейс SDK: одна сессия покупки
// криптовалюты за фиат
type CheckoutAPI interface {
	// Start подключает сокет и загружает справочники размещения
	Start() error

	// Stop останавливает сессию и освобождает ресурсы
	Stop() error

	// PlaceOrder создает заказ и запускает машину состояний покупки
	PlaceOrder(request PlaceOrderRequest) (OrderSummary, error)

	// SubmitPaymentInfo отправляет данные с экрана оплаты
	SubmitPaymentInfo(request PaymentInfoRequest) error

	// SubmitAdditionalInfo отправляет значения дополнительных полей KYC
	SubmitAdditionalInfo(fields map[string]string) error

	// ConfirmEmailCode проверяет код подтверждения из письма
	ConfirmEmailCode(code string) error

	// ResendConfirmationCode просит сервер отправить код заново
	ResendConfirmationCode() error

	// UpdateEmail меняет email заказа
	UpdateEmail(newEmail string) error

	// UploadDocuments загружает фотографии документов KYC
	UploadDocuments(images [][]byte, documentType string) error

	// PaymentConfirmationRequest собирает запрос 3DS-подтверждения
	// для встроенного браузера
	PaymentConfirmationRequest() (*http.Request, error)

	// RefreshOrder запрашивает актуальное состояние заказа у сервера
	RefreshOrder() (OrderSummary, error)

	// Restart готовит сессию к повторной покупке, сохраняя введенные
	// пользователем данные
	Restart() error

	// GetOrder возвращает текущий снапшот заказа
	GetOrder() OrderSummary

	// ScreenChannel возвращает канал событий навигации
	ScreenChannel() <-chan ScreenEvent

	// RatesChannel возвращает канал обновлений курсов
	RatesChannel() <-chan []Rate

	// Rates возвращает последние известные курсы
	Rates() []Rate

	// Countries возвращает справочник обслуживаемых стран
	Countries() []Country

	// Rules возвращает юридические документы размещения: условия
	// использования, политику конфиденциальности
	Rules() ([]Rule, error)

	// ConvertToCrypto пересчитывает сумму фиата в крипто по текущему курсу
	ConvertToCrypto(fiatAmount, fiat, crypto string) (string, error)

	// ConvertToFiat пересчитывает сумму крипто в фиат по текущему курсу
	ConvertToFiat(cryptoAmount, fiat, crypto string) (string, error)

	// TransitionHistory возвращает журнал переходов текущего заказа
	TransitionHistory(limit int) ([]Transition, error)
}

// checkoutAPI реализует CheckoutAPI
type checkoutAPI struct {
	// Внутренние сервисы
	socket          interfaces.ISocketManager
	orderService    *gateway.OrderService
	paymentService  *gateway.PaymentService
	merchantService *gateway.MerchantService
	store           *core.OrderStore
	controller      *core.LifecycleController
	journal         storage.ITransitionJournal

	// Конфигурация
	checkoutConfig CheckoutConfig
	envConfig      *interfaces.Config

	// Каналы для клиентов
	screenChan chan ScreenEvent
	ratesChan  chan []Rate

	// Кэш справочников размещения
	placement   gateway.Placement
	conversions []gateway.CurrencyConversion
	precisions  []gateway.CurrencyPrecision
	countries   []gateway.Country
	rules       []Rule

	// Контекст и состояние
	ctx         context.Context
	cancel      context.CancelFunc
	ratesCancel func()
	isRunning   bool
	mutex       sync.RWMutex
}

// NewCheckoutAPI создает новую сессию покупки
func NewCheckoutAPI(checkoutConfig CheckoutConfig) (CheckoutAPI, error) {
	if checkoutConfig.PlacementID == "" || checkoutConfig.PlacementSecret == "" {
		return nil, errors.New("не заданы идентификатор и секрет размещения")
	}

	envConfig := checkoutConfig.Config
	if envConfig == nil {
		envConfig = config.DefaultConfig()
	}

	if err := core.InitGlobalLogger(envConfig.Log.Level); err != nil {
		return nil, fmt.Errorf("не удалось создать логгер: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Создаем сокет-канал
	socket := transport.NewSocketManager(envConfig.Socket)

	// Создаем сервисы API
	orderService := gateway.NewOrderService(envConfig.API, socket, checkoutConfig.PlacementID, checkoutConfig.PlacementSecret)
	paymentService := gateway.NewPaymentService(envConfig.API, socket, checkoutConfig.PlacementID)
	merchantService := gateway.NewMerchantService(envConfig.API, checkoutConfig.PlacementID)

	// Создаем хранилище заказа с предзаполнением от мерчанта
	store := core.NewOrderStore(core.Order{
		Email:          checkoutConfig.Email,
		Country:        checkoutConfig.Country,
		State:          checkoutConfig.State,
		FiatAmount:     checkoutConfig.FiatAmount,
		FiatCurrency:   checkoutConfig.FiatCurrency,
		CryptoAmount:   checkoutConfig.CryptoAmount,
		CryptoCurrency: checkoutConfig.CryptoCurrency,
	})

	// Создаем журнал переходов, если он включен
	var journal storage.ITransitionJournal
	if envConfig.Storage.JournalPath != "" {
		var err error
		journal, err = sqlite.NewTransitionJournal(envConfig.Storage.JournalPath)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("не удалось создать журнал переходов: %w", err)
		}
	}

	api := &checkoutAPI{
		socket:          socket,
		orderService:    orderService,
		paymentService:  paymentService,
		merchantService: merchantService,
		store:           store,
		journal:         journal,
		checkoutConfig:  checkoutConfig,
		envConfig:       envConfig,
		screenChan:      make(chan ScreenEvent, 16),
		ratesChan:       make(chan []Rate, 4),
		ctx:             ctx,
		cancel:          cancel,
	}

	return api, nil
}

// Start подключает сокет и загружает справочники размещения
func (api *checkoutAPI) Start() error {
	api.mutex.Lock()
	defer api.mutex.Unlock()

	if api.isRunning {
		return errors.New("сессия уже запущена")
	}

	core.Info("запуск сессии покупки для размещения %s", api.checkoutConfig.PlacementID)

	if err := api.socket.Start(); err != nil {
		return fmt.Errorf("не удалось запустить сокет-канал: %w", err)
	}

	// Справочники независимы, грузим параллельно
	group, ctx := errgroup.WithContext(api.ctx)

	var placement gateway.Placement
	group.Go(func() error {
		var err error
		placement, err = api.merchantService.LoadPlacementInfo(ctx)
		return err
	})

	var conversions []gateway.CurrencyConversion
	group.Go(func() error {
		var err error
		conversions, err = api.paymentService.LoadCurrencies(ctx)
		return err
	})

	var precisions []gateway.CurrencyPrecision
	group.Go(func() error {
		var err error
		precisions, err = api.merchantService.LoadCurrencyPrecisions(ctx)
		return err
	})

	var countries []gateway.Country
	group.Go(func() error {
		var err error
		countries, err = api.paymentService.LoadCountries(ctx)
		return err
	})

	if err := group.Wait(); err != nil {
		api.socket.Stop()
		return fmt.Errorf("не удалось загрузить справочники размещения: %w", err)
	}

	if !placement.Activated {
		api.socket.Stop()
		return ErrPlacementNotActivated
	}

	api.placement = placement
	api.conversions = conversions
	api.precisions = precisions
	api.countries = countries

	// Курсы живые: сервер пушит обновления через сокет
	ratesUpdates, ratesCancel := api.paymentService.SubscribeCurrencies()
	api.ratesCancel = ratesCancel
	go api.forwardRates(ratesUpdates)

	// Аналитическое событие, на сценарий не влияет
	if err := api.orderService.SendOpenedEvent(api.ctx, api.store.Get()); err != nil {
		core.Warn("не удалось отправить событие открытия: %v", err)
	}

	api.isRunning = true
	return nil
}

// Stop останавливает сессию и освобождает ресурсы
func (api *checkoutAPI) Stop() error {
	api.mutex.Lock()
	if !api.isRunning {
		api.mutex.Unlock()
		return nil
	}
	api.isRunning = false
	controller := api.controller
	ratesCancel := api.ratesCancel
	api.ratesCancel = nil
	api.mutex.Unlock()

	core.Info("остановка сессии покупки")

	if controller != nil {
		controller.Stop()
	}
	if ratesCancel != nil {
		ratesCancel()
	}
	api.socket.Stop()
	api.cancel()

	if api.journal != nil {
		if err := api.journal.Close(); err != nil {
			core.Warn("не удалось закрыть журнал переходов: %v", err)
		}
	}
	return nil
}

// forwardRates транслирует обновления курсов клиенту и обновляет кэш
func (api *checkoutAPI) forwardRates(updates <-chan []gateway.CurrencyConversion) {
	for conversions := range updates {
		api.mutex.Lock()
		api.conversions = conversions
		api.mutex.Unlock()

		rates := make([]Rate, 0, len(conversions))
		for _, conversion := range conversions {
			rates = append(rates, rateFromConversion(conversion))
		}

		select {
		case api.ratesChan <- rates:
		default:
			// клиент не читает, следующее обновление все равно заменит это
		}
	}
}

// PlaceOrder создает заказ и запускает машину состояний покупки
func (api *checkoutAPI) PlaceOrder(request PlaceOrderRequest) (OrderSummary, error) {
	api.mutex.Lock()
	defer api.mutex.Unlock()

	if !api.isRunning {
		return OrderSummary{}, errors.New("сессия не запущена")
	}
	if api.controller != nil {
		if !api.controller.Done() {
			return OrderSummary{}, errors.New("заказ уже создан")
		}
		// прошлая машина дошла до поглощающего состояния, освобождаем
		// ее контекст перед установкой новой
		api.controller.Stop()
		api.controller = nil
	}

	order := api.store.Get().Merge(core.Order{
		Email:          request.Email,
		Country:        request.Country,
		State:          request.State,
		FiatAmount:     request.FiatAmount,
		FiatCurrency:   request.FiatCurrency,
		CryptoAmount:   request.CryptoAmount,
		CryptoCurrency: request.CryptoCurrency,
	})

	// Аналитика нажатия кнопки покупки, сбой не мешает заказу
	if err := api.orderService.SendBuyEvent(api.ctx, order); err != nil {
		core.Warn("не удалось отправить событие покупки: %v", err)
	}

	created, err := api.orderService.CreateOrder(api.ctx, order)
	if err != nil {
		if errors.Is(err, gateway.ErrLocationNotSupported) {
			api.pushScreenEvent(core.NewTerminalEvent(interfaces.TerminalLocationUnsupported, ""))
		}
		return OrderSummary{}, err
	}

	api.store.Set(created)
	core.Info("заказ %s создан", created.OrderID)

	controller := core.NewLifecycleController(api.store, api.orderService, &screenPresenter{api: api}, api.journal)
	if err := controller.Start(api.ctx); err != nil {
		return OrderSummary{}, fmt.Errorf("не удалось запустить машину состояний: %w", err)
	}
	api.controller = controller

	return summaryFromOrder(created), nil
}

// SubmitPaymentInfo отправляет данные с экрана оплаты. Полный номер
// карты остается в памяти процесса до запроса шифрования.
func (api *checkoutAPI) SubmitPaymentInfo(request PaymentInfoRequest) error {
	order := api.store.Update(core.Order{
		CardNumber:     request.CardNumber,
		CardExpiryDate: request.CardExpiryDate,
		CardCVV:        request.CardCVV,
		WalletAddress:  request.WalletAddress,
		WalletTag:      request.WalletTag,
		SSN:            request.SSN,
	})

	updated, err := api.orderService.SendPaymentData(api.ctx, order)
	if err != nil {
		return err
	}

	api.store.Set(updated)
	return nil
}

// SubmitAdditionalInfo отправляет значения дополнительных полей KYC
func (api *checkoutAPI) SubmitAdditionalInfo(fields map[string]string) error {
	order := api.store.Get()

	additional := make(map[string]core.AdditionalField, len(order.Additional))
	for name, field := range order.Additional {
		additional[name] = field
	}
	for name, value := range fields {
		field := additional[name]
		field.Value = value
		additional[name] = field
	}
	order = api.store.Update(core.Order{Additional: additional})

	updated, err := api.orderService.UpdatePaymentData(api.ctx, order)
	if err != nil {
		return err
	}

	api.store.Set(updated)
	return nil
}

// ConfirmEmailCode проверяет код подтверждения из письма
func (api *checkoutAPI) ConfirmEmailCode(code string) error {
	return api.orderService.CheckConfirmationCode(api.ctx, code, api.store.Get())
}

// ResendConfirmationCode просит сервер отправить код заново
func (api *checkoutAPI) ResendConfirmationCode() error {
	return api.orderService.ResendConfirmationCode(api.ctx, api.store.Get())
}

// UpdateEmail меняет email заказа
func (api *checkoutAPI) UpdateEmail(newEmail string) error {
	updated, err := api.orderService.UpdateEmail(api.ctx, newEmail, api.store.Get())
	if err != nil {
		return err
	}
	api.store.Set(updated)
	return nil
}

// UploadDocuments загружает фотографии документов KYC
func (api *checkoutAPI) UploadDocuments(images [][]byte, documentType string) error {
	return api.orderService.UploadImages(api.ctx, images, documentType, api.store.Get())
}

// PaymentConfirmationRequest собирает запрос 3DS-подтверждения
func (api *checkoutAPI) PaymentConfirmationRequest() (*http.Request, error) {
	return api.orderService.ComposePaymentConfirmationRequest(api.store.Get())
}

// RefreshOrder запрашивает актуальное состояние заказа у сервера.
// Запасной путь на случай потери сокет-пушей.
func (api *checkoutAPI) RefreshOrder() (OrderSummary, error) {
	refreshed, err := api.orderService.LoadOrderInfo(api.ctx, api.store.Get())
	if err != nil {
		return OrderSummary{}, err
	}

	merged := api.store.Update(refreshed)
	return summaryFromOrder(merged), nil
}

// Restart готовит сессию к повторной покупке
func (api *checkoutAPI) Restart() error {
	api.mutex.Lock()
	controller := api.controller
	api.controller = nil
	api.mutex.Unlock()

	if controller != nil {
		controller.Stop()
	}
	api.store.Reset()
	return nil
}

// GetOrder возвращает текущий снапшот заказа
func (api *checkoutAPI) GetOrder() OrderSummary {
	return summaryFromOrder(api.store.Get())
}

// ScreenChannel возвращает канал событий навигации
func (api *checkoutAPI) ScreenChannel() <-chan ScreenEvent {
	return api.screenChan
}

// RatesChannel возвращает канал обновлений курсов
func (api *checkoutAPI) RatesChannel() <-chan []Rate {
	return api.ratesChan
}

// Rates возвращает последние известные курсы
func (api *checkoutAPI) Rates() []Rate {
	api.mutex.RLock()
	defer api.mutex.RUnlock()

	rates := make([]Rate, 0, len(api.conversions))
	for _, conversion := range api.conversions {
		rates = append(rates, rateFromConversion(conversion))
	}
	return rates
}

// Countries возвращает справочник обслуживаемых стран
func (api *checkoutAPI) Countries() []Country {
	api.mutex.RLock()
	defer api.mutex.RUnlock()

	countries := make([]Country, 0, len(api.countries))
	for _, country := range api.countries {
		states := make([]string, 0, len(country.States))
		for _, state := range country.States {
			states = append(states, state.Code)
		}
		countries = append(countries, Country{Name: country.Name, Code: country.Code, States: states})
	}
	return countries
}

// Rules возвращает юридические документы размещения. Тексты грузятся
// лениво при первом обращении и кэшируются до конца сессии.
func (api *checkoutAPI) Rules() ([]Rule, error) {
	api.mutex.Lock()
	defer api.mutex.Unlock()

	if !api.isRunning {
		return nil, errors.New("сессия не запущена")
	}
	if api.rules != nil {
		return api.rules, nil
	}

	rules := make([]Rule, 0, len(api.placement.RuleIDs))
	for _, id := range api.placement.RuleIDs {
		rule, err := api.merchantService.LoadRule(api.ctx, id)
		if err != nil {
			return nil, fmt.Errorf("не удалось загрузить документ %s: %w", id, err)
		}
		rules = append(rules, Rule{ID: rule.ID, Name: rule.Name, Content: rule.Value})
	}
	api.rules = rules
	return rules, nil
}

// ConvertToCrypto пересчитывает сумму фиата в крипто по текущему курсу
func (api *checkoutAPI) ConvertToCrypto(fiatAmount, fiat, crypto string) (string, error) {
	conversion, precision, roundDown, err := api.conversionFor(fiat, crypto, "crypto", crypto)
	if err != nil {
		return "", err
	}
	return conversion.ConvertToCrypto(fiatAmount, precision, roundDown)
}

// ConvertToFiat пересчитывает сумму крипто в фиат по текущему курсу
func (api *checkoutAPI) ConvertToFiat(cryptoAmount, fiat, crypto string) (string, error) {
	conversion, precision, roundDown, err := api.conversionFor(fiat, crypto, "fiat", fiat)
	if err != nil {
		return "", err
	}
	return conversion.ConvertToFiat(cryptoAmount, precision, roundDown)
}

// conversionFor ищет курс пары и точность валюты результата
func (api *checkoutAPI) conversionFor(fiat, crypto, resultType, resultCurrency string) (gateway.CurrencyConversion, int, bool, error) {
	api.mutex.RLock()
	defer api.mutex.RUnlock()

	for _, conversion := range api.conversions {
		if conversion.Fiat != fiat || conversion.Crypto != crypto {
			continue
		}

		precision := 2
		roundDown := false
		for _, p := range api.precisions {
			if p.Type == resultType && p.Currency == resultCurrency {
				precision = p.VisiblePrecision
				roundDown = p.VisibleRoundRule == "trunk"
				break
			}
		}
		return conversion, precision, roundDown, nil
	}

	return gateway.CurrencyConversion{}, 0, false, gateway.ErrNoConversionRate
}

// TransitionHistory возвращает журнал переходов текущего заказа
func (api *checkoutAPI) TransitionHistory(limit int) ([]Transition, error) {
	if api.journal == nil {
		return nil, errors.New("журнал переходов отключен")
	}

	order := api.store.Get()
	if order.OrderID == "" {
		return nil, errors.New("заказ еще не создан")
	}

	stored, err := api.journal.History(order.OrderID, limit)
	if err != nil {
		return nil, err
	}

	transitions := make([]Transition, 0, len(stored))
	for _, t := range stored {
		transitions = append(transitions, Transition{
			OrderID:    t.OrderID,
			FromStatus: t.FromStatus,
			ToStatus:   t.ToStatus,
			CreatedAt:  t.CreatedAt,
		})
	}
	return transitions, nil
}

// pushScreenEvent доставляет событие навигации без блокировки
func (api *checkoutAPI) pushScreenEvent(event core.ScreenEvent) {
	external := ScreenEvent{
		Screen:    string(event.Screen),
		Terminal:  string(event.Terminal),
		OrderID:   event.OrderID,
		Timestamp: time.Unix(event.Timestamp, 0),
	}

	select {
	case api.screenChan <- external:
	default:
		core.Warn("клиент не читает события навигации, событие %+v потеряно", external)
	}
}

// screenPresenter транслирует команды машины состояний в канал событий
type screenPresenter struct {
	api *checkoutAPI
}

func (p *screenPresenter) ShowScreen(screen interfaces.Screen) {
	p.api.pushScreenEvent(core.NewScreenEvent(screen, p.api.store.Get().OrderID))
}

func (p *screenPresenter) ShowTerminalError(kind interfaces.TerminalKind) {
	p.api.pushScreenEvent(core.NewTerminalEvent(kind, p.api.store.Get().OrderID))
}

// summaryFromOrder конвертирует внутренний снапшот во внешнее представление
func summaryFromOrder(order core.Order) OrderSummary {
	summary := OrderSummary{
		OrderID:         order.OrderID,
		MerchantOrderID: order.MerchantOrderID,
		Status:          string(order.Status),
		FiatAmount:      order.FiatAmount,
		FiatCurrency:    order.FiatCurrency,
		CryptoAmount:    order.CryptoAmount,
		CryptoCurrency:  order.CryptoCurrency,
		WalletAddress:   order.WalletAddress,
		Email:           order.Email,
		Country:         order.Country,
	}

	for name, field := range order.Additional {
		if field.Required && field.Value == "" {
			summary.RequiredFields = append(summary.RequiredFields, name)
		}
	}
	return summary
}

// rateFromConversion конвертирует курс во внешнее представление
func rateFromConversion(conversion gateway.CurrencyConversion) Rate {
	return Rate{
		Fiat:                conversion.Fiat,
		Crypto:              conversion.Crypto,
		FiatPopularValues:   conversion.FiatPopularValues,
		CryptoPopularValues: conversion.CryptoPopularValues,
	}
}
