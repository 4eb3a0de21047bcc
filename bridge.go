package asyncssh

import (
	"context"
	"errors"
	"sync"
)

// blockDirectioner is the connection-wide direction query the bridge needs
// from the session-level engine.
type blockDirectioner interface {
	BlockDirection() BlockDirection
}

// bridge converts single-attempt engine operations into suspending ones.
//
// Each handle owns one bridge over its narrower engine object. The RWMutex
// enforces the access policy: exclusive (mutating) operations hold the
// write lock for their whole suspend/retry span, shared (read-only)
// operations hold the read lock and may overlap each other. Operations on
// different handles never contend here; serialization is per engine
// object.
type bridge struct {
	sock *socket
	sess blockDirectioner
	mu   sync.RWMutex
}

// exclusive runs op to completion under the handle's write lock.
func (b *bridge) exclusive(ctx context.Context, op func() error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.await(ctx, op)
}

// shared runs op to completion under the handle's read lock.
func (b *bridge) shared(ctx context.Context, op func() error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.await(ctx, op)
}

// await retries op until it yields a definitive outcome. A would-block
// result suspends on the reactor in the direction the session reports;
// everything else is final. There is no retry bound: deadlines are the
// caller's responsibility, imposed through ctx. Cancellation is safe at
// any point because the engine commits nothing before reporting
// would-block.
func (b *bridge) await(ctx context.Context, op func() error) error {
	for {
		err := op()
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrWouldBlock) {
			return err
		}

		dir := b.sess.BlockDirection()
		interest, ok := interestFor(dir)
		if !ok {
			return &DirectionError{Direction: dir}
		}

		if err := b.sock.reactor.Wait(ctx, interest); err != nil {
			return err
		}
	}
}

// exclusiveResult is the value-returning form of bridge.exclusive.
func exclusiveResult[T any](ctx context.Context, b *bridge, op func() (T, error)) (T, error) {
	var v T
	err := b.exclusive(ctx, func() error {
		r, err := op()
		if err != nil {
			return err
		}
		v = r
		return nil
	})
	return v, err
}

// sharedResult is the value-returning form of bridge.shared.
func sharedResult[T any](ctx context.Context, b *bridge, op func() (T, error)) (T, error) {
	var v T
	err := b.shared(ctx, func() error {
		r, err := op()
		if err != nil {
			return err
		}
		v = r
		return nil
	})
	return v, err
}
