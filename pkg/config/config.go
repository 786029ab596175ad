package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"CEXDirect/pkg/interfaces"
)

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *interfaces.Config {
	return &interfaces.Config{
		API: interfaces.APIConfig{
			BaseURL:        "https://api.cexdirect.com/api/v1",
			RequestTimeout: 30 * time.Second,
		},
		Socket: interfaces.SocketConfig{
			URL:               "wss://ws.cexdirect.com",
			ReconnectInterval: 5 * time.Second,
			PingInterval:      30 * time.Second,
			PongTimeout:       time.Second,
		},
		Storage: interfaces.StorageConfig{
			JournalPath: "",
		},
		Log: interfaces.LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig загружает конфигурацию из YAML файла. Не заданные в файле
// поля остаются значениями по умолчанию.
func LoadConfig(path string) (*interfaces.Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		applyEnv(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать файл конфигурации: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("не удалось разобрать конфигурацию: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv переопределяет адреса стендов из переменных окружения
func applyEnv(cfg *interfaces.Config) {
	if v := os.Getenv("CEXDIRECT_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("CEXDIRECT_WS_URL"); v != "" {
		cfg.Socket.URL = v
	}
	if v := os.Getenv("CEXDIRECT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
