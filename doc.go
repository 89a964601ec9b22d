// Package slotarena implements a type-erased slot arena for Go.
//
// # Overview
//
// An Arena keeps values of a single element type in one contiguous byte
// buffer split into fixed-size slots. The arena is not generic: the element
// type is bound at runtime, once, by InitFor. After that the arena grows,
// constructs values in place, hands out pointers and destroys values using
// the bound type's size and a pair of lifecycle callbacks. This is useful when:
//
//   - The element type is only known after the container exists
//   - Many containers of different element types are handled uniformly
//   - Values need explicit construct/destroy hooks rather than GC finalization
//
// # Basic Usage
//
//	a := slotarena.NewArena()
//	defer a.Release() // Destroys every live value
//
//	// Bind the element type, reserving room for 16 values
//	slotarena.InitFor[Point](a, 16)
//
//	// Construct values in place
//	p := slotarena.PushBack(a, Point{X: 1, Y: 2})
//	q := slotarena.EmplaceBack(a, func(p *Point) { p.X = 3 })
//
//	// Untyped operations use the bound callbacks
//	a.EmplaceBack()
//	a.Resize(8)
//
//	// Typed access
//	first := slotarena.At[Point](a, 0)
//
// # Lifecycle Callbacks
//
// By default a slot is constructed by zeroing it and calling ConstructDefault
// if *T implements DefaultConstructor, and destroyed by calling Destroy if *T
// implements Destroyer. Either callback can be replaced:
//
//	slotarena.InitFor[Point](a, 0,
//		slotarena.ConstructWith(func(p *Point) { p.X = -1 }),
//		slotarena.DestroyWith(func(p *Point) { log(p) }),
//	)
//
// # Occupancy
//
// Size counts allocated slots. A slot is occupied when it holds a value that
// was constructed and not yet destroyed; OccupiedCount and Occupied expose
// this. Resize, EraseAt, SwapEraseAt, Clear and Release destroy occupied
// slots exactly once before dropping them.
//
// # Contract Violations
//
// Binding twice, using an unbound or released arena, accessing with the
// wrong type, indexing out of range, and calling back into the arena from a
// lifecycle callback are programmer errors. They panic with an error
// wrapping one of the Err* sentinels.
//
// # Important Notes
//
//   - The element type must not contain Go pointers (strings, slices, maps,
//     interfaces, pointers...). Slots are invisible to the garbage collector.
//   - Values are moved as raw bytes when the buffer grows or slots shift
//   - Returned pointers are only valid until storage is relocated
//   - An Arena is not goroutine-safe
//
// # Metrics and Monitoring
//
//	m := a.Metrics()
//	fmt.Printf("Utilization: %.2f%%\n", m.Utilization*100)
//	fmt.Printf("Slots: %d (%d occupied)\n", m.Slots, m.Occupied)
//	fmt.Printf("Buffer: %d bytes\n", m.BufferBytes)
package slotarena
