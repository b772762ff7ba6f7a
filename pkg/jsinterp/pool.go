package jsinterp

import (
	"context"
	"sync"
	"time"
)

// acquireTimeout bounds how long Acquire waits for a free instance when ctx
// has no deadline of its own.
const acquireTimeout = 5 * time.Second

// Pool keeps independent interpreters of one source for concurrent use.
// The source is parsed once and the syntax tree shared.
type Pool struct {
	instances chan *Interpreter
	done      chan struct{}
	size      int
	mu        sync.Mutex
	closed    bool
}

// NewPool parses source and creates size interpreters over it.
func NewPool(source string, size int, opts ...Option) (*Pool, error) {
	if size <= 0 {
		size = 4
	}
	o := newOptions(opts)
	prog, err := parse(source, o)
	if err != nil {
		return nil, err
	}

	pool := &Pool{
		instances: make(chan *Interpreter, size),
		done:      make(chan struct{}),
		size:      size,
	}
	for range size {
		pool.instances <- newInterpreter(source, prog, o)
	}
	return pool, nil
}

// Acquire takes an interpreter out of the pool, waiting until one is free.
// A Close while waiting makes it return ErrPoolClosed.
func (p *Pool) Acquire(ctx context.Context) (*Interpreter, error) {
	select {
	case <-p.done:
		return nil, ErrPoolClosed
	default:
	}

	timer := time.NewTimer(acquireTimeout)
	defer timer.Stop()

	select {
	case in := <-p.instances:
		return in, nil
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrAcquireTimeout
	}
}

// Release returns an interpreter to the pool, or drops it once the pool is
// closed.
func (p *Pool) Release(in *Interpreter) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	select {
	case p.instances <- in:
	default:
		// pool full: in did not come from it
	}
}

// Call runs the named function on a pooled interpreter.
func (p *Pool) Call(ctx context.Context, name string, args ...any) (any, error) {
	in, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(in)

	return in.CallFunctionContext(ctx, name, args...)
}

// Close drops all idle interpreters. Interpreters still acquired keep
// working but are not taken back.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	close(p.done)
	for {
		select {
		case <-p.instances:
		default:
			return nil
		}
	}
}

// Stats returns pool statistics
func (p *Pool) Stats() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()

	return map[string]any{
		"size":      p.size,
		"available": len(p.instances),
		"in_use":    p.size - len(p.instances),
		"closed":    p.closed,
	}
}
