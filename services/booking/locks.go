package booking

import (
	"context"
	"sync"
)

// providerLocks serializes work per provider ID. The zero value is ready to use.
// Entries are dropped once nobody holds or waits on them.
type providerLocks struct {
	mu   sync.Mutex
	held map[string]*providerLock
}

type providerLock struct {
	sem  chan struct{}
	refs int
}

// acquire blocks until the provider's lock is free or ctx is done.
func (l *providerLocks) acquire(ctx context.Context, providerID string) (func(), error) {
	l.mu.Lock()
	if l.held == nil {
		l.held = make(map[string]*providerLock)
	}
	pl, ok := l.held[providerID]
	if !ok {
		pl = &providerLock{sem: make(chan struct{}, 1)}
		l.held[providerID] = pl
	}
	pl.refs++
	l.mu.Unlock()

	select {
	case pl.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-pl.sem
				l.unref(providerID, pl)
			})
		}, nil
	case <-ctx.Done():
		l.unref(providerID, pl)
		return nil, ctx.Err()
	}
}

func (l *providerLocks) unref(providerID string, pl *providerLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	pl.refs--
	if pl.refs == 0 {
		delete(l.held, providerID)
	}
}

// size is the number of providers currently tracked.
func (l *providerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}
