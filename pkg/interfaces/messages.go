package interfaces

// SocketMessage представляет сообщение сокет-канала в конверте {event, data}
type SocketMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// NewSocketMessage создает новое сообщение для отправки на сервер
func NewSocketMessage(event string, data interface{}) SocketMessage {
	return SocketMessage{
		Event: event,
		Data:  data,
	}
}
