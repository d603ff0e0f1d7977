package catalog

import (
	"context"
	"sync"

	"github.com/xeptore/reactordj/result"
)

type State int

const (
	StateLoading State = iota
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Status struct {
	State   State
	Catalog *Catalog
	Err     error
}

// Lifecycle tracks a single catalog load. It starts in StateLoading and ends
// in StateReady or StateError; both are terminal.
type Lifecycle struct {
	once   sync.Once
	mu     sync.RWMutex
	status Status
	done   chan struct{}
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{
		once:   sync.Once{},
		mu:     sync.RWMutex{},
		status: Status{State: StateLoading, Catalog: nil, Err: nil},
		done:   make(chan struct{}),
	}
}

// Run performs the load the first time it is called. Later calls wait for
// and return the terminal outcome without loading again.
func (l *Lifecycle) Run(ctx context.Context, src Source) (*Catalog, error) {
	l.once.Do(func() {
		c, err := src.Load(ctx)

		l.mu.Lock()
		if nil != err {
			l.status = Status{State: StateError, Catalog: nil, Err: err}
		} else {
			l.status = Status{State: StateReady, Catalog: c, Err: nil}
		}
		l.mu.Unlock()
		close(l.done)
	})

	st := l.Status()
	return st.Catalog, st.Err
}

func (l *Lifecycle) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}

func (l *Lifecycle) Done() <-chan struct{} {
	return l.done
}

// LoadAsync runs lc in its own goroutine and delivers the outcome on the
// returned channel, which is closed afterwards.
func LoadAsync(ctx context.Context, lc *Lifecycle, src Source) <-chan result.Of[Catalog] {
	out := make(chan result.Of[Catalog], 1)
	go func() {
		defer close(out)
		c, err := lc.Run(ctx, src)
		if nil != err {
			out <- result.Err[Catalog](err)
			return
		}
		out <- result.Ok(c)
	}()
	return out
}

// Tracker runs a fresh Lifecycle for every load of src and reports the status
// of the latest one.
type Tracker struct {
	src     Source
	mu      sync.Mutex
	current *Lifecycle
	started bool
}

func NewTracker(src Source) *Tracker {
	return &Tracker{
		src:     src,
		mu:      sync.Mutex{},
		current: NewLifecycle(),
		started: false,
	}
}

// Load runs the pending lifecycle on first use and a new one afterwards.
func (t *Tracker) Load(ctx context.Context) (*Catalog, error) {
	t.mu.Lock()
	if t.started {
		t.current = NewLifecycle()
	}
	t.started = true
	lc := t.current
	t.mu.Unlock()

	return lc.Run(ctx, t.src)
}

func (t *Tracker) Status() Status {
	t.mu.Lock()
	lc := t.current
	t.mu.Unlock()
	return lc.Status()
}
