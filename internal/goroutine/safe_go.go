package goroutine

import (
	"context"
	"runtime/debug"
	"time"
)

// Logger интерфейс для логирования ошибок
type Logger interface {
	Errorf(format string, args ...interface{})
}

// RecoveryHandler обрабатывает panic в горутинах
type RecoveryHandler struct {
	logger Logger
}

// NewRecoveryHandler создает новый обработчик
func NewRecoveryHandler(logger Logger) *RecoveryHandler {
	return &RecoveryHandler{logger: logger}
}

// SafeGo запускает горутину с обработкой panic
func (rh *RecoveryHandler) SafeGo(fn func()) {
	go rh.run(fn)
}

// Every запускает fn раз в interval до отмены ctx.
// Panic в одном запуске не останавливает следующие. Возвращаемый канал закрывается после выхода.
func (rh *RecoveryHandler) Every(ctx context.Context, interval time.Duration, fn func(context.Context)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rh.run(func() { fn(ctx) })
			}
		}
	}()
	return done
}

func (rh *RecoveryHandler) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			rh.logger.Errorf("panic in goroutine: %v\nstack trace:\n%s", r, debug.Stack())
		}
	}()
	fn()
}
