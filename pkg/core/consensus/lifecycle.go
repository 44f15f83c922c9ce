package consensus

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// Initializer runs a one-time setup function before first engine use.
// Unlike sync.Once, a failed setup leaves it uninitialized so a later call
// can retry.
type Initializer struct {
	mu    sync.Mutex
	done  atomic.Bool
	setup func() error
}

// NewInitializer returns an Initializer that runs setup on first use.
func NewInitializer(setup func() error) *Initializer {
	return &Initializer{setup: setup}
}

// EnsureInitialized runs setup if no earlier call has completed it.
// Concurrent callers block until setup finishes; all callers that get a
// nil error observe a fully initialized engine.
func (i *Initializer) EnsureInitialized() error {
	if i.done.Load() {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.done.Load() {
		return nil
	}
	if i.setup != nil {
		if err := i.setup(); err != nil {
			return errors.Wrapf(ErrInitializationFailed, "%v", err)
		}
	}
	i.done.Store(true)
	return nil
}

// Initialized reports whether setup has completed.
func (i *Initializer) Initialized() bool {
	return i.done.Load()
}

// shared holds one Initializer per engine value so that every hasher over
// the same engine runs its global setup at most once.
var shared sync.Map

// initializerFor returns the Initializer shared by all hashers over engine.
// Engines whose dynamic type is not comparable cannot be keyed and get a
// private Initializer.
func initializerFor(engine Engine) *Initializer {
	if !reflect.TypeOf(engine).Comparable() {
		return NewInitializer(engine.Init)
	}
	if guard, ok := shared.Load(engine); ok {
		return guard.(*Initializer)
	}
	guard, _ := shared.LoadOrStore(engine, NewInitializer(engine.Init))
	return guard.(*Initializer)
}
