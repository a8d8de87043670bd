package goroutine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *recordingLogger) Errorf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}

func TestSafeGo_RecoversPanic(t *testing.T) {
	log := &recordingLogger{}
	rh := NewRecoveryHandler(log)

	rh.SafeGo(func() { panic("boom") })

	require.Eventually(t, func() bool { return log.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Contains(t, log.msgs[0], "boom")
}

func TestSafeGo_RunsAfterCancel(t *testing.T) {
	log := &recordingLogger{}
	rh := NewRecoveryHandler(log)
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	rh.SafeGo(func() {
		<-ctx.Done()
		close(stopped)
	})

	select {
	case <-stopped:
		t.Fatal("горутина завершилась до отмены контекста")
	case <-time.After(10 * time.Millisecond):
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("горутина не завершилась после отмены контекста")
	}
	assert.Zero(t, log.count())
}

func TestEvery_RunsUntilCancelled(t *testing.T) {
	log := &recordingLogger{}
	rh := NewRecoveryHandler(log)
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	done := rh.Every(ctx, time.Millisecond, func(context.Context) {
		if calls.Add(1) == 1 {
			panic("first run")
		}
	})

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Every не завершился после отмены контекста")
	}
	assert.Equal(t, 1, log.count())
}
