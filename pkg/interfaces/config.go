package interfaces

import "time"

// Config содержит конфигурацию SDK
type Config struct {
	// API настройки HTTP API
	API APIConfig `yaml:"api" json:"api"`

	// Socket настройки сокет-канала
	Socket SocketConfig `yaml:"socket" json:"socket"`

	// Storage настройки локального хранилища
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Log настройки логирования
	Log LogConfig `yaml:"log" json:"log"`
}

// APIConfig настройки HTTP API
type APIConfig struct {
	BaseURL string `yaml:"baseURL" json:"baseURL"`

	// DisableCertificateEvaluation отключает проверку TLS сертификата.
	// Только для тестовых стендов.
	DisableCertificateEvaluation bool `yaml:"disableCertificateEvaluation" json:"disableCertificateEvaluation"`

	RequestTimeout time.Duration `yaml:"requestTimeout" json:"requestTimeout"`
}

// SocketConfig настройки сокет-канала. Интервалы — часть протокола
// с сервером, менять их стоит только для тестов.
type SocketConfig struct {
	URL               string        `yaml:"url" json:"url"`
	ReconnectInterval time.Duration `yaml:"reconnectInterval" json:"reconnectInterval"`
	PingInterval      time.Duration `yaml:"pingInterval" json:"pingInterval"`
	PongTimeout       time.Duration `yaml:"pongTimeout" json:"pongTimeout"`

	// DisableCertificateEvaluation отключает проверку TLS сертификата
	// на сокет-соединении. Только для тестовых стендов.
	DisableCertificateEvaluation bool `yaml:"disableCertificateEvaluation" json:"disableCertificateEvaluation"`
}

// StorageConfig настройки локального хранилища
type StorageConfig struct {
	// JournalPath путь к базе журнала переходов. Пустая строка отключает журнал.
	JournalPath string `yaml:"journalPath" json:"journalPath"`
}

// LogConfig настройки логирования
type LogConfig struct {
	Level string `yaml:"level" json:"level"` // "debug", "info", "warn", "error"
}
