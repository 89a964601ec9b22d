// Package slotarena implements a type-erased slot arena.
// An Arena is created unbound, bound once to an element type with InitFor,
// and from then on stores values of that type back to back in a single
// byte buffer, constructing and destroying them in place.
package slotarena

import (
	"math"
	"reflect"
	"unsafe"
)

const wordSize = int(unsafe.Sizeof(uint64(0)))

type state uint8

const (
	stateUninitialized state = iota
	stateInitialized
	stateReleased
)

// Constructor writes a valid default value at p and returns the address of
// the constructed value, normally p itself.
type Constructor func(p unsafe.Pointer) unsafe.Pointer

// Destructor runs teardown logic for the value at p. The slot is not read
// again until something is constructed into it.
type Destructor func(p unsafe.Pointer)

// Arena is a growable, contiguous sequence of fixed-size slots holding values
// of one runtime-bound type. Not goroutine-safe.
//
// Pointers returned by EmplaceBack, PushBack, At and friends borrow the
// arena's storage. They stay valid until the slot is destroyed, until a
// Reserve, Resize, EmplaceBack or PushBack relocates the buffer, until an
// erase moves the slot, or until the arena is released. Whichever comes first.
type Arena struct {
	buf      []byte // len(buf) == Size() * elemSize
	occupied []bool // parallel to buf, one entry per slot

	elemSize  uintptr
	typ       reflect.Type
	construct Constructor
	destroy   Destructor

	state      state
	inCallback bool
}

// NewArena returns an unbound arena. A zero Arena is equally ready to use.
//
// Values are only destroyed by the arena's own operations: an arena that is
// dropped without Release never runs its destructor. Always call Release.
func NewArena() *Arena {
	return &Arena{}
}

// Reserve ensures the arena can hold at least n slots without relocating.
func (a *Arena) Reserve(n int) {
	a.checkMutable("Reserve")
	a.checkSlotCount("Reserve", n)
	a.reserve(n)
}

// Resize sets the slot count to n. New slots are built with the bound
// constructor and marked occupied. Dropped slots that are occupied are
// destroyed first, from the highest index down.
func (a *Arena) Resize(n int) {
	a.checkMutable("Resize")
	a.checkSlotCount("Resize", n)
	old := a.Size()
	switch {
	case n > old:
		a.extend(n)
		for i := old; i < n; i++ {
			a.constructAt(i)
		}
	case n < old:
		for i := old - 1; i >= n; i-- {
			a.destroyAt(i)
		}
		a.truncate(n)
	}
}

// EmplaceBack appends a slot, builds a value in it with the bound constructor
// and returns the constructor's result.
func (a *Arena) EmplaceBack() unsafe.Pointer {
	a.checkMutable("EmplaceBack")
	return a.constructAt(a.pushSlot())
}

// At returns the address of slot i. Occupancy is not checked: the caller
// must not read a slot that holds no value.
func (a *Arena) At(i int) unsafe.Pointer {
	a.checkLive("At")
	a.checkIndex("At", i)
	return a.slot(i)
}

// Bytes returns the raw bytes of slot i. Same precondition as At.
func (a *Arena) Bytes(i int) []byte {
	a.checkLive("Bytes")
	a.checkIndex("Bytes", i)
	off := i * int(a.elemSize)
	return a.buf[off : off+int(a.elemSize) : off+int(a.elemSize)]
}

// EraseAt destroys slot i if it is occupied and removes it, shifting every
// later slot down by one. Pointers to slots at or after i are invalidated.
func (a *Arena) EraseAt(i int) {
	a.checkMutable("EraseAt")
	a.checkIndex("EraseAt", i)
	a.destroyAt(i)

	n := a.Size()
	es := int(a.elemSize)
	copy(a.buf[i*es:], a.buf[(i+1)*es:])
	copy(a.occupied[i:], a.occupied[i+1:])
	a.truncate(n - 1)
}

// SwapEraseAt destroys slot i if it is occupied and moves the last slot into
// its place. It runs in constant time but does not keep order. Pointers to
// slot i and to the former last slot are invalidated.
func (a *Arena) SwapEraseAt(i int) {
	a.checkMutable("SwapEraseAt")
	a.checkIndex("SwapEraseAt", i)
	a.destroyAt(i)

	last := a.Size() - 1
	if i != last {
		es := int(a.elemSize)
		copy(a.buf[i*es:(i+1)*es], a.buf[last*es:])
		a.occupied[i] = a.occupied[last]
	}
	a.truncate(last)
}

// Clear destroys every occupied slot and drops all slots. Capacity and the
// type binding are kept.
func (a *Arena) Clear() {
	a.checkMutable("Clear")
	a.clearSlots()
}

// Release clears the arena and drops its storage. Any later operation other
// than Release and the read-only size queries panics.
func (a *Arena) Release() {
	if a.state == stateReleased {
		return
	}
	if a.inCallback {
		violation(ErrReentrantCall, "Release")
	}
	if a.state == stateInitialized {
		a.clearSlots()
	}
	a.buf = nil
	a.occupied = nil
	a.state = stateReleased
}

// Size returns the number of allocated slots, occupied or not.
func (a *Arena) Size() int {
	if a.elemSize == 0 {
		return 0
	}
	return len(a.buf) / int(a.elemSize)
}

// SlotCount is an alias of Size.
func (a *Arena) SlotCount() int {
	return a.Size()
}

// Capacity returns the number of whole slots the current allocation holds.
func (a *Arena) Capacity() int {
	if a.elemSize == 0 {
		return 0
	}
	return cap(a.buf) / int(a.elemSize)
}

// BufferSize returns the number of bytes covered by allocated slots.
func (a *Arena) BufferSize() int {
	return len(a.buf)
}

// OccupiedCount returns the number of slots holding a live value.
func (a *Arena) OccupiedCount() int {
	n := 0
	for _, used := range a.occupied {
		if used {
			n++
		}
	}
	return n
}

// Occupied reports whether slot i holds a live value.
func (a *Arena) Occupied(i int) bool {
	a.checkLive("Occupied")
	a.checkIndex("Occupied", i)
	return a.occupied[i]
}

// Type returns the bound element type, or nil before InitFor.
func (a *Arena) Type() reflect.Type {
	return a.typ
}

// ElemSize returns the size of one slot in bytes.
func (a *Arena) ElemSize() int {
	return int(a.elemSize)
}

// Initialized reports whether the arena is bound and not released.
func (a *Arena) Initialized() bool {
	return a.state == stateInitialized
}

// Released reports whether Release has been called.
func (a *Arena) Released() bool {
	return a.state == stateReleased
}

func (a *Arena) clearSlots() {
	for i := range a.occupied {
		a.destroyAt(i)
	}
	a.truncate(0)
}

// reserve grows the backing storage to exactly n slots if it is smaller.
func (a *Arena) reserve(n int) {
	if n <= a.Capacity() {
		return
	}
	buf := alignedBytes(n * int(a.elemSize))[:len(a.buf)]
	copy(buf, a.buf)
	a.buf = buf

	// Word rounding can leave room for more than n slots.
	occupied := make([]bool, len(a.occupied), a.Capacity())
	copy(occupied, a.occupied)
	a.occupied = occupied
}

// extend grows the slot count to n, doubling capacity when it runs out.
// The new slots are zeroed and unoccupied.
func (a *Arena) extend(n int) {
	if n > a.Capacity() {
		a.reserve(min(max(n, 2*a.Capacity()), a.maxSlots()))
	}
	old := len(a.buf)
	a.buf = a.buf[:n*int(a.elemSize)]
	clear(a.buf[old:])
	a.occupied = a.occupied[:n]
}

// truncate drops every slot from n on. Dropped slots must already be destroyed.
func (a *Arena) truncate(n int) {
	clear(a.occupied[n:])
	a.buf = a.buf[:n*int(a.elemSize)]
	a.occupied = a.occupied[:n]
}

// pushSlot appends one slot and returns its index. A stale occupied mark on
// the new slot is destroyed before the slot is handed out.
func (a *Arena) pushSlot() int {
	i := a.Size()
	a.checkSlotCount("append", i+1)
	a.extend(i + 1)
	// Defensive: truncate clears marks past the end, so this only fires if
	// that invariant has been broken.
	if a.occupied[i] {
		a.destroyAt(i)
	}
	return i
}

func (a *Arena) slot(i int) unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(unsafe.SliceData(a.buf)), uintptr(i)*a.elemSize)
}

func (a *Arena) constructAt(i int) unsafe.Pointer {
	p := a.slot(i)
	var out unsafe.Pointer
	a.callback(func() { out = a.construct(p) })
	a.occupied[i] = true
	if out == nil {
		return p
	}
	return out
}

func (a *Arena) destroyAt(i int) {
	if !a.occupied[i] {
		return
	}
	p := a.slot(i)
	a.callback(func() { a.destroy(p) })
	a.occupied[i] = false
}

// callback runs caller-supplied code with mutations of a locked out.
func (a *Arena) callback(fn func()) {
	a.inCallback = true
	defer func() { a.inCallback = false }()
	fn()
}

func (a *Arena) checkLive(op string) {
	switch a.state {
	case stateUninitialized:
		violation(ErrUninitialized, "%s: call InitFor first", op)
	case stateReleased:
		violation(ErrReleased, "%s", op)
	}
}

func (a *Arena) checkMutable(op string) {
	a.checkLive(op)
	if a.inCallback {
		violation(ErrReentrantCall, "%s", op)
	}
}

// maxSlots is the largest slot count whose byte size fits in an int.
func (a *Arena) maxSlots() int {
	return math.MaxInt / int(a.elemSize)
}

func (a *Arena) checkSlotCount(op string, n int) {
	if n < 0 {
		violation(ErrNegativeSize, "%s(%d)", op, n)
	}
	if n > a.maxSlots() {
		violation(ErrTooLarge, "%s(%d): at most %d slots of %d bytes", op, n, a.maxSlots(), a.elemSize)
	}
}

func (a *Arena) checkIndex(op string, i int) {
	if i < 0 || i >= a.Size() {
		violation(ErrIndexOutOfRange, "%s(%d) with %d slots", op, i, a.Size())
	}
}

// alignedBytes returns an empty byte slice with room for n bytes whose
// backing array is 8-byte aligned. The memory is not scanned by the GC.
func alignedBytes(n int) []byte {
	if n <= 0 {
		return nil
	}
	words := make([]uint64, n/wordSize+min(n%wordSize, 1))
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), len(words)*wordSize)[:0]
}
