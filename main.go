package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"CEXDirect/api"
	"CEXDirect/pkg/config"
)

// Демонстрационный клиент SDK: создает заказ и печатает события
// навигации. Карточные данные в демо не отправляются.
func main() {
	// Парсим флаги командной строки
	configPath := flag.String("config", "", "Путь к файлу конфигурации")
	placementID := flag.String("placement", "", "Идентификатор размещения")
	placementSecret := flag.String("secret", "", "Секрет размещения")
	email := flag.String("email", "", "Email покупателя")
	country := flag.String("country", "US", "Страна покупателя")
	fiatAmount := flag.String("fiat", "100", "Сумма в фиате")
	fiatCurrency := flag.String("fiat-currency", "USD", "Фиатная валюта")
	cryptoCurrency := flag.String("crypto-currency", "BTC", "Криптовалюта")
	flag.Parse()

	if *placementID == "" || *placementSecret == "" {
		log.Fatal("нужны флаги -placement и -secret")
	}

	// Загружаем конфигурацию окружения
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Printf("не удалось загрузить конфигурацию: %v, используем значения по умолчанию", err)
		cfg = config.DefaultConfig()
	}

	checkout, err := api.NewCheckoutAPI(api.CheckoutConfig{
		PlacementID:     *placementID,
		PlacementSecret: *placementSecret,
		Email:           *email,
		Country:         *country,
		Config:          cfg,
	})
	if err != nil {
		log.Fatalf("не удалось создать сессию: %v", err)
	}

	if err := checkout.Start(); err != nil {
		log.Fatalf("не удалось запустить сессию: %v", err)
	}
	defer checkout.Stop()

	log.Printf("доступные курсы:")
	for _, rate := range checkout.Rates() {
		log.Printf("  %s -> %s", rate.Fiat, rate.Crypto)
	}

	cryptoAmount, err := checkout.ConvertToCrypto(*fiatAmount, *fiatCurrency, *cryptoCurrency)
	if err != nil {
		log.Fatalf("не удалось пересчитать сумму: %v", err)
	}
	log.Printf("%s %s = %s %s", *fiatAmount, *fiatCurrency, cryptoAmount, *cryptoCurrency)

	summary, err := checkout.PlaceOrder(api.PlaceOrderRequest{
		Email:          *email,
		Country:        *country,
		FiatAmount:     *fiatAmount,
		FiatCurrency:   *fiatCurrency,
		CryptoAmount:   cryptoAmount,
		CryptoCurrency: *cryptoCurrency,
	})
	if err != nil {
		log.Fatalf("не удалось создать заказ: %v", err)
	}
	log.Printf("заказ %s создан, статус %s", summary.OrderID, summary.Status)

	// Печатаем события навигации до терминального экрана или Ctrl+C
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case event := <-checkout.ScreenChannel():
			if event.IsTerminal() {
				log.Printf("сессия завершена: %s", event.Terminal)
				return
			}
			log.Printf("экран: %s", event.Screen)
		case rates := <-checkout.RatesChannel():
			log.Printf("обновление курсов: %d пар", len(rates))
		case <-interrupt:
			log.Printf("остановка по сигналу")
			return
		}
	}
}
