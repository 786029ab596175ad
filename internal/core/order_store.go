package core

import "sync"

// OrderStore — единственная разделяемая ячейка состояния заказа на сессию.
// К ней одновременно ходят поток пользовательского ввода и фоновый поток
// доставки сокет-событий, поэтому весь доступ сериализован мьютексом.
// Подписчики получают снапшоты, не живую ссылку.
type OrderStore struct {
	mutex       sync.RWMutex
	order       Order
	subscribers []chan Order
}

// NewOrderStore создает хранилище с начальным заказом
func NewOrderStore(order Order) *OrderStore {
	return &OrderStore{order: order}
}

// Get возвращает снапшот заказа
func (s *OrderStore) Get() Order {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.order
}

// Set заменяет заказ целиком
func (s *OrderStore) Set(order Order) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.order = order
	s.notifyLocked()
}

// Update вливает непустые поля upd в текущий заказ. Чтение-изменение-запись
// атомарно относительно конкурентных обновлений.
func (s *OrderStore) Update(upd Order) Order {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.order = s.order.Merge(upd)
	s.notifyLocked()
	return s.order
}

// Reset очищает заказ для повторной покупки
func (s *OrderStore) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.order = s.order.Reset()
	s.notifyLocked()
}

// Subscribe возвращает канал снапшотов заказа после каждого изменения
// и функцию отписки
func (s *OrderStore) Subscribe() (<-chan Order, func()) {
	ch := make(chan Order, 16)

	s.mutex.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mutex.Unlock()

	cancel := func() {
		s.mutex.Lock()
		defer s.mutex.Unlock()
		for i, sub := range s.subscribers {
			if sub == ch {
				s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// notifyLocked рассылает снапшот без блокировки: медленный подписчик
// теряет промежуточные состояния, но не тормозит запись. Вызывается
// только под мьютексом, поэтому отписка не может закрыть канал во время
// отправки.
func (s *OrderStore) notifyLocked() {
	for _, ch := range s.subscribers {
		select {
		case ch <- s.order:
		default:
		}
	}
}
