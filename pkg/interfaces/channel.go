package interfaces

// BuildSubscriptionMessage создает сообщение подписки. Вызывается заново при
// каждом переподключении, потому что сервер не хранит подписки между сессиями.
type BuildSubscriptionMessage func() SocketMessage

// ISubscription определяет одну логическую подписку на события сокета
type ISubscription interface {
	// Messages возвращает канал входящих сообщений подписки
	Messages() <-chan SocketMessage

	// Close снимает подписку. Общее соединение при этом не закрывается.
	Close()
}

// ISocketManager определяет постоянное дуплексное соединение с сервером.
// Соединение одно на процесс и разделяется всеми подписчиками.
type ISocketManager interface {
	// Start запускает цикл подключения и сторожевой таймер
	Start() error

	// Stop останавливает соединение и все подписки
	Stop()

	// Subscribe подписывается на события с именем event
	Subscribe(event string, build BuildSubscriptionMessage) ISubscription

	// Send отправляет сообщение без гарантии доставки
	Send(message SocketMessage) error

	// IsConnected возвращает текущий статус соединения
	IsConnected() bool
}
