package ledger

import (
	"context"
	"sort"
	"sync"
)

// KeyedMutex serializes work per key. Multiple keys are always acquired in
// sorted order so two callers locking overlapping sets cannot deadlock.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

type heldKeysCtxKey struct{}

// NewKeyedMutex returns an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyLock)}
}

// Lock blocks until key is held and returns its release func.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Exclusive runs fn while holding every key. Keys already held by an
// enclosing Exclusive on ctx are not locked again, so fn may call back into
// code that locks the same keys.
func (k *KeyedMutex) Exclusive(ctx context.Context, fn func(ctx context.Context) error, keys ...string) error {
	held, _ := ctx.Value(heldKeysCtxKey{}).(map[string]struct{})

	var pending []string
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, ok := held[key]; ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		pending = append(pending, key)
	}
	if len(pending) == 0 {
		return fn(ctx)
	}
	sort.Strings(pending)

	releases := make([]func(), 0, len(pending))
	defer func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}()
	for _, key := range pending {
		releases = append(releases, k.Lock(key))
	}

	next := make(map[string]struct{}, len(held)+len(pending))
	for key := range held {
		next[key] = struct{}{}
	}
	for _, key := range pending {
		next[key] = struct{}{}
	}
	return fn(context.WithValue(ctx, heldKeysCtxKey{}, next))
}

func (k *KeyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
