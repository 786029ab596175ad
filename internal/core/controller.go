package core

import (
	"context"
	"errors"
	"sync"

	"CEXDirect/internal/storage"
	"CEXDirect/pkg/interfaces"
)

// IOrderGateway — подмножество операций шлюза, нужное машине состояний
type IOrderGateway interface {
	// SendCardDataToVerification шифрует и отправляет карточные данные
	// в сервис верификации (свежая пара ключей на каждый вызов)
	SendCardDataToVerification(ctx context.Context, order Order) error

	// SendCardDataToProcessing шифрует и отправляет карточные данные
	// в сервис процессинга
	SendCardDataToProcessing(ctx context.Context, order Order) error

	// SubscribeOrderUpdates подписывается на пуш статусов заказа.
	// Возвращает канал снапшотов и функцию отписки.
	SubscribeOrderUpdates(order Order) (<-chan Order, func(), error)
}

// LifecycleController — машина состояний жизненного цикла заказа.
//
// Контроллер потребляет снапшоты заказа из сокет-подписки строго по
// порядку, отбрасывает события без смены статуса (доставка minimum
// один раз, единица работы — именно смена статуса), выполняет требуемый
// побочный эффект и сигналит слою представления какой экран показать.
// После терминального статуса подписка снимается: у машины один
// поглощающий класс выхода.
type LifecycleController struct {
	store     *OrderStore
	gateway   IOrderGateway
	presenter interfaces.IScreenPresenter
	journal   storage.ITransitionJournal // может быть nil

	mutex       sync.Mutex
	lastStatus  Status
	done        bool
	running     bool
	unsubscribe func()
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewLifecycleController создает контроллер. journal опционален.
func NewLifecycleController(store *OrderStore, gateway IOrderGateway, presenter interfaces.IScreenPresenter, journal storage.ITransitionJournal) *LifecycleController {
	return &LifecycleController{
		store:     store,
		gateway:   gateway,
		presenter: presenter,
		journal:   journal,
	}
}

// Start подписывается на статусы заказа и запускает цикл обработки.
// Заказ к этому моменту должен быть создан.
func (c *LifecycleController) Start(ctx context.Context) error {
	order := c.store.Get()
	if order.OrderID == "" {
		return errors.New("заказ еще не создан")
	}

	c.mutex.Lock()
	if c.running {
		c.mutex.Unlock()
		return errors.New("контроллер уже запущен")
	}

	updates, unsubscribe, err := c.gateway.SubscribeOrderUpdates(order)
	if err != nil {
		c.mutex.Unlock()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	c.running = true
	c.done = false
	c.lastStatus = ""
	c.unsubscribe = unsubscribe
	c.cancel = cancel
	c.mutex.Unlock()

	c.wg.Add(1)
	go c.run(ctx, updates)
	return nil
}

// Stop снимает подписку и останавливает цикл обработки
func (c *LifecycleController) Stop() {
	c.mutex.Lock()
	if !c.running {
		c.mutex.Unlock()
		return
	}
	c.running = false
	cancel := c.cancel
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mutex.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	cancel()
	c.wg.Wait()
}

// Done сообщает, достигнуто ли поглощающее состояние
func (c *LifecycleController) Done() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.done
}

// run обрабатывает снапшоты последовательно: FIFO в пределах подписки,
// не больше одного действия в полете на переход
func (c *LifecycleController) run(ctx context.Context, updates <-chan Order) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-updates:
			if !ok {
				return
			}
			if c.handle(ctx, snapshot) {
				return
			}
		}
	}
}

// handle обрабатывает один снапшот. Возвращает true когда достигнуто
// поглощающее состояние.
func (c *LifecycleController) handle(ctx context.Context, snapshot Order) bool {
	status := snapshot.Status

	c.mutex.Lock()
	if c.done {
		c.mutex.Unlock()
		return true
	}
	// distinct-until-changed: повторная доставка того же статуса — no-op,
	// это и делает at-least-once доставку безопасной
	if status == "" || status == c.lastStatus {
		c.mutex.Unlock()
		return false
	}
	previous := c.lastStatus
	c.lastStatus = status
	c.mutex.Unlock()

	decision := Decide(status)

	Debug("переход статуса заказа %s: %q -> %q", snapshot.OrderID, previous, status)
	if c.journal != nil {
		if err := c.journal.RecordTransition(snapshot.OrderID, string(previous), string(status)); err != nil {
			Warn("не удалось записать переход в журнал: %v", err)
		}
	}

	if decision.UpdateStore {
		c.store.Update(snapshot)
	}

	switch decision.Action {
	case ActionSendCardToVerification:
		if err := c.gateway.SendCardDataToVerification(ctx, c.store.Get()); err != nil {
			Error("не удалось отправить данные в верификацию: %v", err)
			return c.finish(interfaces.TerminalServiceDown)
		}
		// успех экран не меняет: ждем следующий пуш статуса
	case ActionSendCardToProcessing:
		if err := c.gateway.SendCardDataToProcessing(ctx, c.store.Get()); err != nil {
			Error("не удалось отправить данные в процессинг: %v", err)
			return c.finish(interfaces.TerminalServiceDown)
		}
	}

	if decision.Terminal != interfaces.TerminalNone {
		return c.finish(decision.Terminal)
	}

	if decision.Screen != interfaces.ScreenNone {
		c.presenter.ShowScreen(decision.Screen)
	}

	if decision.Done {
		return c.finish(interfaces.TerminalNone)
	}
	return false
}

// finish переводит машину в поглощающее состояние: показывает
// терминальный экран (если есть) и снимает подписку
func (c *LifecycleController) finish(kind interfaces.TerminalKind) bool {
	if kind != interfaces.TerminalNone {
		c.presenter.ShowTerminalError(kind)
	}

	c.mutex.Lock()
	c.done = true
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mutex.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	return true
}
