package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/DRSN-tech/medical-ann/pkg/e"
)

// LocalLocker - блокировки по ключу внутри одного процесса.
// Записи удаляются, когда ключ больше никто не держит и не ждёт.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		slots: make(map[string]*slot),
	}
}

// Lock захватывает ключ или возвращает e.ErrLockTimeout при отмене ctx.
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	const op = "LocalLocker.Lock"

	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, s)
		return nil, e.Wrap(op, fmt.Errorf("%w: %v", e.ErrLockTimeout, ctx.Err()))
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.release(key, s)
		})
	}, nil
}

// Len возвращает число ключей, которые сейчас держат или ждут.
func (l *LocalLocker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func (l *LocalLocker) release(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
