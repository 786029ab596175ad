package storage

import "time"

// StoredTransition — одна запись журнала: принятый машиной состояний
// переход статуса заказа. В журнал попадают только статусы, никаких
// платежных данных.
type StoredTransition struct {
	OrderID    string
	FromStatus string
	ToStatus   string
	CreatedAt  time.Time
}

// ITransitionJournal определяет журнал переходов статусов
type ITransitionJournal interface {
	// RecordTransition записывает принятый переход статуса
	RecordTransition(orderID, fromStatus, toStatus string) error

	// History возвращает переходы заказа, новые первыми
	History(orderID string, limit int) ([]StoredTransition, error)

	// Close закрывает журнал
	Close() error
}
