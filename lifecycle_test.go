package slotarena_test

import (
	"fmt"
	"testing"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavanmanishd/slotarena"
	"github.com/pavanmanishd/slotarena/internal/component"
)

func TestCountedScenario(t *testing.T) {
	reg := component.NewRegistry(nil)
	require.Equal(t, uintptr(8), unsafe.Sizeof(component.Counted{}))

	a := slotarena.NewArena()
	reg.Bind(a, 0)

	c := slotarena.EmplaceBack(a, reg.New(42))
	assert.Equal(t, int32(42), c.Value)
	assert.False(t, c.Deleted)
	assert.NotZero(t, c.UID)
	assert.Equal(t, int64(1), reg.Live())

	a.EraseAt(0)
	assert.True(t, c.Deleted, "erased value not torn down")
	assert.Equal(t, int64(0), reg.Live())
	assert.Equal(t, 0, a.Size())

	a.Resize(4)
	assert.Equal(t, 4, a.Size())
	assert.Equal(t, 32, a.BufferSize())
	assert.Equal(t, 4, a.OccupiedCount())
	assert.Equal(t, int64(4), reg.Live())

	a.Release()
	assert.Equal(t, int64(0), reg.Live())
}

func TestReferenceDriverScenario(t *testing.T) {
	reg := component.NewRegistry(nil)
	a := slotarena.NewArena()
	reg.Bind(a, 0)

	require.Equal(t, 0, a.Capacity())
	require.Equal(t, 0, a.Size())
	require.Equal(t, 0, a.BufferSize())

	first := slotarena.EmplaceBack(a, reg.New(42))
	require.Equal(t, int32(42), first.Value)
	require.Equal(t, 1, a.Size())

	second := (*component.Counted)(a.EmplaceBack())
	second.Value = 2023
	require.Equal(t, int32(2023), slotarena.At[component.Counted](a, 1).Value)
	require.Equal(t, 2, a.Size())
	require.Equal(t, int64(2), reg.Live())

	a.EraseAt(0)
	require.Equal(t, 1, a.Size())
	require.Equal(t, int32(2023), slotarena.At[component.Counted](a, 0).Value)

	a.Resize(4)
	require.Equal(t, 4, a.Size())
	require.Equal(t, 4*a.ElemSize(), a.BufferSize())
	require.Equal(t, 4, a.Capacity())

	a.Release()
	require.Equal(t, int64(0), reg.Live())
}

func TestResizeConstructsEverySlot(t *testing.T) {
	reg := component.NewRegistry(nil)
	a := slotarena.NewArena()
	defer a.Release()
	reg.Bind(a, 0)

	for _, n := range []int{1, 2, 5, 9, 17} {
		a.Resize(n)
		require.Equal(t, n, a.Size())
		require.Equal(t, n, a.OccupiedCount())
		for i := 0; i < n; i++ {
			v := slotarena.At[component.Counted](a, i)
			assert.True(t, a.Occupied(i), "slot %d", i)
			assert.NotZero(t, v.UID, "slot %d", i)
			assert.Zero(t, v.Value, "slot %d", i)
			assert.False(t, v.Deleted, "slot %d", i)
		}
	}
	assert.Equal(t, int64(17), reg.Live())
}

func TestEmplaceBackGrowsByOne(t *testing.T) {
	reg := component.NewRegistry(nil)
	a := slotarena.NewArena()
	defer a.Release()
	reg.Bind(a, 2)

	for i := int32(0); i < 10; i++ {
		before := a.Size()
		v := slotarena.EmplaceBack(a, reg.New(i))
		require.Equal(t, before+1, a.Size())
		require.Equal(t, i, v.Value)
	}
}

func TestEraseAtDestroysOnce(t *testing.T) {
	var destroyed []int32
	a := slotarena.NewArena()
	defer a.Release()
	slotarena.InitFor[component.Counted](a, 0,
		slotarena.DestroyWith(func(c *component.Counted) { destroyed = append(destroyed, c.Value) }),
	)

	for i := int32(0); i < 5; i++ {
		slotarena.PushBack(a, component.Counted{Value: i})
	}

	a.EraseAt(2)
	assert.Equal(t, []int32{2}, destroyed)
	require.Equal(t, 4, a.Size())

	var values []int32
	for _, c := range slotarena.Values[component.Counted](a) {
		values = append(values, c.Value)
	}
	assert.Equal(t, []int32{0, 1, 3, 4}, values)
}

func TestReleaseDestroysEveryValue(t *testing.T) {
	for _, n := range []int{0, 1, 7, 64, 1000} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			reg := component.NewRegistry(nil)
			a := slotarena.NewArena()
			reg.Bind(a, 0)

			for i := 0; i < n; i++ {
				if i%2 == 0 {
					slotarena.EmplaceBack(a, reg.New(int32(i)))
				} else {
					a.EmplaceBack()
				}
			}
			require.Equal(t, int64(n), reg.Live())

			a.Release()
			assert.Equal(t, int64(0), reg.Live())
			assert.Equal(t, int64(n), reg.Destroyed())
			assert.Equal(t, reg.Constructed(), reg.Destroyed())
		})
	}
}

func TestTypedAccessRejectsOtherTypes(t *testing.T) {
	reg := component.NewRegistry(nil)
	a := slotarena.NewArena()
	defer a.Release()
	reg.Bind(a, 0)
	a.Resize(1)

	assertViolation(t, slotarena.ErrTypeMismatch, func() { slotarena.At[int64](a, 0) })
	assertViolation(t, slotarena.ErrTypeMismatch, func() { slotarena.PushBack(a, [2]int32{}) })
	assertViolation(t, slotarena.ErrSizeMismatch, func() { slotarena.At[int32](a, 0) })
	assertViolation(t, slotarena.ErrSizeMismatch, func() { slotarena.EmplaceBack[[3]int32](a, nil) })

	// Nothing was written by the rejected calls.
	assert.Equal(t, 1, a.Size())
	assert.Equal(t, int64(1), reg.Live())
}

func assertViolation(t *testing.T, want error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic wrapping %q", want)
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.True(t, errors.Is(err, want), "panic %q does not wrap %q", err, want)
	}()
	fn()
}
