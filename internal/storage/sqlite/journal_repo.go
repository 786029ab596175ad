package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"CEXDirect/internal/storage"
)

// TransitionJournal реализует ITransitionJournal для SQLite
type TransitionJournal struct {
	db *sql.DB
}

// NewTransitionJournal создает новый журнал переходов
func NewTransitionJournal(dbPath string) (*TransitionJournal, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть базу данных: %w", err)
	}

	journal := &TransitionJournal{db: db}

	if err := journal.createTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}

	return journal, nil
}

// createTable создает таблицу переходов
func (j *TransitionJournal) createTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS order_transitions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id TEXT NOT NULL,
		from_status TEXT NOT NULL,
		to_status TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transitions_order_id ON order_transitions(order_id);
	CREATE INDEX IF NOT EXISTS idx_transitions_created_at ON order_transitions(created_at);
	`

	_, err := j.db.Exec(query)
	return err
}

// RecordTransition записывает принятый переход статуса
func (j *TransitionJournal) RecordTransition(orderID, fromStatus, toStatus string) error {
	query := `
	INSERT INTO order_transitions (order_id, from_status, to_status, created_at)
	VALUES (?, ?, ?, ?)
	`

	if _, err := j.db.Exec(query, orderID, fromStatus, toStatus, time.Now().UTC()); err != nil {
		return fmt.Errorf("не удалось записать переход: %w", err)
	}
	return nil
}

// History возвращает переходы заказа, новые первыми
func (j *TransitionJournal) History(orderID string, limit int) ([]storage.StoredTransition, error) {
	query := `
	SELECT order_id, from_status, to_status, created_at
	FROM order_transitions
	WHERE order_id = ?
	ORDER BY id DESC
	LIMIT ?
	`

	rows, err := j.db.Query(query, orderID, limit)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить историю: %w", err)
	}
	defer rows.Close()

	var transitions []storage.StoredTransition
	for rows.Next() {
		var t storage.StoredTransition
		if err := rows.Scan(&t.OrderID, &t.FromStatus, &t.ToStatus, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("не удалось прочитать переход: %w", err)
		}
		transitions = append(transitions, t)
	}

	return transitions, rows.Err()
}

// Close закрывает журнал
func (j *TransitionJournal) Close() error {
	return j.db.Close()
}
