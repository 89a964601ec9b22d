// Package component provides a counted payload type for exercising arenas.
// Instance counting and uid generation are owned by a Registry instead of
// package globals, so every test or program gets its own bookkeeping.
package component

import (
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"go.uber.org/atomic"

	"github.com/pavanmanishd/slotarena"
)

// Counted is an 8-byte, pointer-free value. Its UID is non-zero while it is
// alive; destroying it zeroes the UID and sets Deleted.
type Counted struct {
	Value   int32
	UID     uint16
	Deleted bool
}

// Registry hands out uids and tracks how many Counted values are alive.
// Counters are atomic so they can be read from any goroutine, such as a
// metrics scrape.
type Registry struct {
	logger log.Logger

	nextUID     atomic.Uint32
	live        atomic.Int64
	constructed atomic.Int64
	destroyed   atomic.Int64
}

// NewRegistry returns an empty registry. Construction and destruction are
// traced at debug level on logger; a nil logger disables tracing.
func NewRegistry(logger log.Logger) *Registry {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Registry{logger: logger}
}

// Bind binds a to Counted with this registry's lifecycle callbacks.
func (r *Registry) Bind(a *slotarena.Arena, capacity int) {
	slotarena.InitFor[Counted](a, capacity, r.Options()...)
}

// Options returns the InitFor options wiring Counted to this registry.
func (r *Registry) Options() []slotarena.Option {
	return []slotarena.Option{
		slotarena.ConstructWith(func(c *Counted) { r.construct(c, 0) }),
		slotarena.DestroyWith(r.Destroy),
	}
}

// New returns an initializer for slotarena.EmplaceBack that builds a
// Counted holding value.
func (r *Registry) New(value int32) func(*Counted) {
	return func(c *Counted) { r.construct(c, value) }
}

// Destroy tears down c.
func (r *Registry) Destroy(c *Counted) {
	live := r.live.Dec()
	r.destroyed.Inc()
	level.Debug(r.logger).Log("msg", "destroyed component", "uid", c.UID, "value", c.Value, "live", live)
	if live < 0 {
		level.Error(r.logger).Log("msg", "more components destroyed than constructed", "live", live)
	}
	c.UID = 0
	c.Deleted = true
}

// Live returns the number of constructed and not yet destroyed values.
func (r *Registry) Live() int64 { return r.live.Load() }

// Constructed returns the number of values ever constructed.
func (r *Registry) Constructed() int64 { return r.constructed.Load() }

// Destroyed returns the number of values ever destroyed.
func (r *Registry) Destroyed() int64 { return r.destroyed.Load() }

func (r *Registry) construct(c *Counted, value int32) {
	c.Value = value
	c.UID = r.uid()
	c.Deleted = false
	live := r.live.Inc()
	r.constructed.Inc()
	level.Debug(r.logger).Log("msg", "constructed component", "uid", c.UID, "value", c.Value, "live", live)
}

// uid returns the next non-zero uid, wrapping around.
func (r *Registry) uid() uint16 {
	for {
		if u := uint16(r.nextUID.Inc()); u != 0 {
			return u
		}
	}
}
