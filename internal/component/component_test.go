package component

import (
	"bytes"
	"strings"
	"testing"
	"unsafe"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavanmanishd/slotarena"
)

func TestCountedLayout(t *testing.T) {
	assert.Equal(t, uintptr(8), unsafe.Sizeof(Counted{}))
}

func TestRegistryCounts(t *testing.T) {
	reg := NewRegistry(nil)
	a := slotarena.NewArena()
	reg.Bind(a, 4)

	a.Resize(3)
	slotarena.EmplaceBack(a, reg.New(5))
	require.Equal(t, int64(4), reg.Live())
	require.Equal(t, int64(4), reg.Constructed())

	a.EraseAt(1)
	require.Equal(t, int64(3), reg.Live())
	require.Equal(t, int64(1), reg.Destroyed())

	a.Release()
	assert.Equal(t, int64(0), reg.Live())
	assert.Equal(t, int64(4), reg.Destroyed())
}

func TestRegistryUIDs(t *testing.T) {
	reg := NewRegistry(nil)
	a := slotarena.NewArena()
	defer a.Release()
	reg.Bind(a, 0)
	a.Resize(10)

	seen := map[uint16]bool{}
	for _, c := range slotarena.Values[Counted](a) {
		require.NotZero(t, c.UID)
		require.False(t, seen[c.UID], "uid %d handed out twice", c.UID)
		seen[c.UID] = true
	}
}

func TestRegistryUIDSkipsZero(t *testing.T) {
	reg := NewRegistry(nil)
	reg.nextUID.Store(1<<16 - 1)

	assert.Equal(t, uint16(1), reg.uid())
}

func TestRegistriesAreIndependent(t *testing.T) {
	first, second := NewRegistry(nil), NewRegistry(nil)

	a := slotarena.NewArena()
	first.Bind(a, 0)
	a.Resize(2)

	assert.Equal(t, int64(2), first.Live())
	assert.Equal(t, int64(0), second.Live())
	a.Release()
}

func TestDestroyMarksDeleted(t *testing.T) {
	reg := NewRegistry(nil)
	var c Counted
	reg.New(9)(&c)
	require.False(t, c.Deleted)

	reg.Destroy(&c)
	assert.True(t, c.Deleted)
	assert.Zero(t, c.UID)
	assert.Equal(t, int32(9), c.Value)
}

func TestRegistryTracing(t *testing.T) {
	var buf bytes.Buffer
	logger := level.NewFilter(log.NewLogfmtLogger(&buf), level.AllowDebug())
	reg := NewRegistry(logger)

	a := slotarena.NewArena()
	reg.Bind(a, 0)
	slotarena.EmplaceBack(a, reg.New(42))
	a.Release()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `msg="constructed component"`)
	assert.Contains(t, lines[0], "value=42")
	assert.Contains(t, lines[0], "live=1")
	assert.Contains(t, lines[1], `msg="destroyed component"`)
	assert.Contains(t, lines[1], "live=0")
}

func TestRegistryReportsNegativeLiveCount(t *testing.T) {
	var buf bytes.Buffer
	reg := NewRegistry(level.NewFilter(log.NewLogfmtLogger(&buf), level.AllowError()))

	reg.Destroy(&Counted{})
	assert.Contains(t, buf.String(), "more components destroyed than constructed")
	assert.Equal(t, int64(-1), reg.Live())
}
