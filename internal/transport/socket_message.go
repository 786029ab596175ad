package transport

import (
	"encoding/json"

	"CEXDirect/pkg/interfaces"
)

// EncodeSocketMessage сериализует сообщение в конверт {event, data}
func EncodeSocketMessage(message interfaces.SocketMessage) ([]byte, error) {
	envelope := map[string]interface{}{"event": message.Event}
	if message.Data != nil {
		envelope["data"] = message.Data
	}
	return json.Marshal(envelope)
}

// ParseSocketMessage разбирает входящий кадр. Сервер заворачивает полезную
// нагрузку во вложенный data.data. Кадры без ключа event и кривой JSON
// молча отбрасываются (ok=false): падать из-за временного серверного бага
// сессия не должна.
func ParseSocketMessage(raw []byte) (interfaces.SocketMessage, bool) {
	var envelope struct {
		Event string `json:"event"`
		Data  struct {
			Data interface{} `json:"data"`
		} `json:"data"`
	}

	if err := json.Unmarshal(raw, &envelope); err != nil {
		return interfaces.SocketMessage{}, false
	}
	if envelope.Event == "" {
		return interfaces.SocketMessage{}, false
	}

	return interfaces.SocketMessage{
		Event: envelope.Event,
		Data:  envelope.Data.Data,
	}, true
}
