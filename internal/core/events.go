package core

import (
	"time"

	"CEXDirect/pkg/interfaces"
)

// ScreenEvent — нормализованный сигнал слою представления: либо очередной
// экран сценария, либо терминальный экран
type ScreenEvent struct {
	Screen    interfaces.Screen       `json:"screen,omitempty"`
	Terminal  interfaces.TerminalKind `json:"terminal,omitempty"`
	OrderID   string                  `json:"orderId,omitempty"`
	Timestamp int64                   `json:"timestamp"` // Unix timestamp
}

// IsTerminal сообщает, что событие терминальное
func (e ScreenEvent) IsTerminal() bool {
	return e.Terminal != interfaces.TerminalNone
}

// NewScreenEvent создает событие показа экрана
func NewScreenEvent(screen interfaces.Screen, orderID string) ScreenEvent {
	return ScreenEvent{
		Screen:    screen,
		OrderID:   orderID,
		Timestamp: time.Now().Unix(),
	}
}

// NewTerminalEvent создает терминальное событие
func NewTerminalEvent(kind interfaces.TerminalKind, orderID string) ScreenEvent {
	return ScreenEvent{
		Terminal:  kind,
		OrderID:   orderID,
		Timestamp: time.Now().Unix(),
	}
}
