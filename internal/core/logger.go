package core

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger оборачивает zap и дает простой printf-style интерфейс
type Logger struct {
	sugar *zap.SugaredLogger
}

// NewLogger создает новый логгер с уровнем level ("debug", "info", "warn", "error")
func NewLogger(level string) (*Logger, error) {
	zapLevel := zapcore.InfoLevel
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.DisableStacktrace = true

	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{sugar: base.Sugar()}, nil
}

// Debug логирует отладочное сообщение
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info логирует информационное сообщение
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn логирует предупреждение
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error логирует ошибку
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// Close сбрасывает буферы логгера
func (l *Logger) Close() error {
	return l.sugar.Sync()
}

var (
	globalLogger *Logger
	globalMu     sync.RWMutex
)

// InitGlobalLogger инициализирует глобальный логгер
func InitGlobalLogger(level string) error {
	logger, err := NewLogger(level)
	if err != nil {
		return err
	}

	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
	return nil
}

// GetGlobalLogger возвращает глобальный логгер
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	logger := globalLogger
	globalMu.RUnlock()

	if logger == nil {
		globalMu.Lock()
		if globalLogger == nil {
			globalLogger, _ = NewLogger("info")
		}
		logger = globalLogger
		globalMu.Unlock()
	}
	return logger
}

// Глобальные функции для удобства

func Debug(format string, args ...interface{}) {
	GetGlobalLogger().Debug(format, args...)
}

func Info(format string, args ...interface{}) {
	GetGlobalLogger().Info(format, args...)
}

func Warn(format string, args ...interface{}) {
	GetGlobalLogger().Warn(format, args...)
}

func Error(format string, args ...interface{}) {
	GetGlobalLogger().Error(format, args...)
}
