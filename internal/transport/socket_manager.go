package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"CEXDirect/internal/core"
	"CEXDirect/pkg/interfaces"
)

const subscriptionBufferSize = 16

// SocketManager поддерживает одно постоянное сокет-соединение с сервером
// и мультиплексирует через него логические подписки. Соединение общее
// для всего процесса: подписчики им не владеют, снятие подписки никогда
// не закрывает сокет.
//
// Жизненный цикл: пока соединения нет, попытка подключения повторяется
// каждые ReconnectInterval. На живом соединении каждые PingInterval
// уходит ping; если pong не пришел за PongTimeout, соединение принудительно
// закрывается и цикл переподключения начинает заново. Это сторожевой
// механизм живости, а не корректности: гарантий доставки канал не дает.
type SocketManager struct {
	cfg    interfaces.SocketConfig
	dialer *websocket.Dialer

	mutex     sync.RWMutex
	conn      *websocket.Conn
	connected bool
	subs      map[int]*subscription
	nextSubID int

	// у gorilla может писать только одна горутина
	writeMutex sync.Mutex

	pong chan struct{}

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

type subscription struct {
	id      int
	event   string
	build   interfaces.BuildSubscriptionMessage
	ch      chan interfaces.SocketMessage
	manager *SocketManager
}

// NewSocketManager создает новый менеджер соединения
func NewSocketManager(cfg interfaces.SocketConfig) *SocketManager {
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = 5 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = time.Second
	}

	dialer := &websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if cfg.DisableCertificateEvaluation {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &SocketManager{
		cfg:    cfg,
		dialer: dialer,
		subs:   make(map[int]*subscription),
		pong:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start запускает цикл подключения
func (m *SocketManager) Start() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.started {
		return errors.New("менеджер соединения уже запущен")
	}
	m.started = true

	m.wg.Add(1)
	go m.connectLoop()
	return nil
}

// Stop останавливает соединение и все подписки
func (m *SocketManager) Stop() {
	m.cancel()

	m.mutex.Lock()
	conn := m.conn
	m.conn = nil
	m.connected = false
	m.mutex.Unlock()

	if conn != nil {
		conn.Close()
	}
	m.wg.Wait()

	m.mutex.Lock()
	for id, sub := range m.subs {
		delete(m.subs, id)
		close(sub.ch)
	}
	m.mutex.Unlock()
}

// IsConnected возвращает текущий статус соединения
func (m *SocketManager) IsConnected() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.connected
}

// Subscribe подписывается на события с именем event. Сообщение подписки
// отправляется сразу (если соединение живо) и заново при каждом
// переподключении — сервер не хранит подписки между сессиями.
func (m *SocketManager) Subscribe(event string, build interfaces.BuildSubscriptionMessage) interfaces.ISubscription {
	m.mutex.Lock()
	m.nextSubID++
	sub := &subscription{
		id:      m.nextSubID,
		event:   event,
		build:   build,
		ch:      make(chan interfaces.SocketMessage, subscriptionBufferSize),
		manager: m,
	}
	m.subs[sub.id] = sub
	connected := m.connected
	m.mutex.Unlock()

	if connected {
		// отправка лучшая из возможных, переподключение все равно повторит
		_ = m.Send(build())
	}

	return sub
}

// Send отправляет сообщение без гарантии доставки. Ошибки сети здесь не
// фатальны — восстановлением занимается цикл переподключения.
func (m *SocketManager) Send(message interfaces.SocketMessage) error {
	data, err := EncodeSocketMessage(message)
	if err != nil {
		return err
	}

	m.mutex.RLock()
	conn := m.conn
	m.mutex.RUnlock()

	if conn == nil {
		return errors.New("нет соединения")
	}

	m.writeMutex.Lock()
	defer m.writeMutex.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Messages возвращает канал входящих сообщений подписки
func (s *subscription) Messages() <-chan interfaces.SocketMessage {
	return s.ch
}

// Close снимает подписку, не трогая общее соединение
func (s *subscription) Close() {
	m := s.manager
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.subs[s.id]; ok {
		delete(m.subs, s.id)
		close(s.ch)
	}
}

// connectLoop пытается подключиться каждые ReconnectInterval пока
// соединения нет
func (m *SocketManager) connectLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.ReconnectInterval)
	defer ticker.Stop()

	for {
		if !m.IsConnected() {
			m.connect()
		}

		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (m *SocketManager) connect() {
	conn, _, err := m.dialer.DialContext(m.ctx, m.cfg.URL, nil)
	if err != nil {
		core.Debug("не удалось подключиться к %s: %v", m.cfg.URL, err)
		return
	}

	conn.SetPongHandler(func(string) error {
		select {
		case m.pong <- struct{}{}:
		default:
		}
		return nil
	})

	m.mutex.Lock()
	m.conn = conn
	m.connected = true
	resubscribe := make([]interfaces.BuildSubscriptionMessage, 0, len(m.subs))
	for _, sub := range m.subs {
		resubscribe = append(resubscribe, sub.build)
	}
	m.mutex.Unlock()

	core.Info("сокет-соединение установлено: %s", m.cfg.URL)

	// сервер push-ориентированный: после каждого подключения подписки
	// обязаны представиться заново
	for _, build := range resubscribe {
		if err := m.Send(build()); err != nil {
			core.Warn("не удалось отправить сообщение подписки: %v", err)
		}
	}

	m.wg.Add(2)
	go m.readLoop(conn)
	go m.pingLoop(conn)
}

// markDisconnected помечает соединение потерянным. Следующая попытка
// подключения — за connectLoop'ом.
func (m *SocketManager) markDisconnected(conn *websocket.Conn) {
	m.mutex.Lock()
	if m.conn == conn {
		m.conn = nil
		m.connected = false
	}
	m.mutex.Unlock()

	conn.Close()
}

func (m *SocketManager) readLoop(conn *websocket.Conn) {
	defer m.wg.Done()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			core.Debug("сокет-соединение потеряно: %v", err)
			m.markDisconnected(conn)
			return
		}

		message, ok := ParseSocketMessage(raw)
		if !ok {
			core.Warn("отброшен некорректный кадр сокета")
			continue
		}

		m.dispatch(message)
	}
}

func (m *SocketManager) dispatch(message interfaces.SocketMessage) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, sub := range m.subs {
		if sub.event != message.Event {
			continue
		}

		select {
		case sub.ch <- message:
		default:
			core.Warn("подписчик %q не успевает читать, сообщение отброшено", sub.event)
		}
	}
}

// pingLoop шлет ping каждые PingInterval и ждет pong не дольше
// PongTimeout, иначе принудительно рвет соединение
func (m *SocketManager) pingLoop(conn *websocket.Conn) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.PingInterval)
	defer ticker.Stop()

	for {
		// стираем возможный запоздавший pong прошлого цикла
		select {
		case <-m.pong:
		default:
		}

		m.writeMutex.Lock()
		err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(m.cfg.PongTimeout))
		m.writeMutex.Unlock()
		if err != nil {
			m.markDisconnected(conn)
			return
		}

		select {
		case <-m.pong:
		case <-time.After(m.cfg.PongTimeout):
			core.Warn("pong не пришел за %v, принудительное переподключение", m.cfg.PongTimeout)
			m.markDisconnected(conn)
			return
		case <-m.ctx.Done():
			return
		}

		select {
		case <-ticker.C:
		case <-m.ctx.Done():
			return
		}
	}
}
