// Package lock — блокировки по ключу для сериализации бронирований одного объявления.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrNotHeld — блокировка уже снята или перехвачена после истечения TTL.
var ErrNotHeld = errors.New("lock not held")

// Locker захватывает блокировку по ключу. Возвращённый unlock снимает её.
// Lock блокируется до захвата или до отмены ctx.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func() error, err error)
}

// KeyedMutex — блокировка по ключу в памяти процесса.
// Запись о ключе удаляется, когда её больше никто не ждёт.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	sem  chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedEntry)}
}

func (k *KeyedMutex) Lock(ctx context.Context, key string) (func() error, error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{sem: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		k.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	unlock := func() error {
		err := ErrNotHeld
		once.Do(func() {
			<-e.sem
			k.release(key, e)
			err = nil
		})
		return err
	}
	return unlock, nil
}

func (k *KeyedMutex) release(key string, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}

// Len — количество ключей с активными или ожидающими блокировками.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
