package course

import "context"

// Locker serializes the duplicate check and insert of concurrent publishes.
type Locker interface {
	// Lock blocks until the lock is held or ctx is done.
	Lock(ctx context.Context) (unlock func(), err error)
}

// MutexLocker serializes publishes within one process.
type MutexLocker struct {
	sem chan struct{}
}

// NewMutexLocker creates an in-process Locker.
func NewMutexLocker() *MutexLocker {
	return &MutexLocker{sem: make(chan struct{}, 1)}
}

func (l *MutexLocker) Lock(ctx context.Context) (func(), error) {
	select {
	case l.sem <- struct{}{}:
		return func() { <-l.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
