package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.BaseURL == "" || cfg.Socket.URL == "" {
		t.Fatalf("адреса по умолчанию не заданы: %+v", cfg)
	}
	if cfg.Socket.ReconnectInterval != 5*time.Second || cfg.Socket.PingInterval != 30*time.Second || cfg.Socket.PongTimeout != time.Second {
		t.Fatalf("интервалы сокета не совпадают с протоколом: %+v", cfg.Socket)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("api:\n  baseURL: https://staging.example.com\nlog:\n  level: debug\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("не удалось записать файл: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("не удалось загрузить конфигурацию: %v", err)
	}

	if cfg.API.BaseURL != "https://staging.example.com" {
		t.Fatalf("значение из файла не применилось: %q", cfg.API.BaseURL)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("уровень логирования не применился: %q", cfg.Log.Level)
	}
	// не заданные в файле поля остаются значениями по умолчанию
	if cfg.Socket.ReconnectInterval != 5*time.Second {
		t.Fatalf("значение по умолчанию потеряно: %v", cfg.Socket.ReconnectInterval)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "нет.yaml")); err == nil {
		t.Fatal("ожидалась ошибка для отсутствующего файла")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CEXDIRECT_API_URL", "https://env.example.com")
	t.Setenv("CEXDIRECT_LOG_LEVEL", "warn")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("не удалось загрузить конфигурацию: %v", err)
	}
	if cfg.API.BaseURL != "https://env.example.com" {
		t.Fatalf("переменная окружения не применилась: %q", cfg.API.BaseURL)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("переменная окружения не применилась: %q", cfg.Log.Level)
	}
}
