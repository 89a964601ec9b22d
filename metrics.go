package slotarena

// CapacityBytes returns the size of the backing allocation in bytes.
func (a *Arena) CapacityBytes() int {
	return cap(a.buf)
}

// Utilization returns the ratio of occupied slots to allocated slots (0.0 to 1.0).
// Returns 0.0 if the arena has no slots.
func (a *Arena) Utilization() float64 {
	slots := a.Size()
	if slots == 0 {
		return 0
	}
	return float64(a.OccupiedCount()) / float64(slots)
}

// Metrics returns a snapshot of arena statistics.
func (a *Arena) Metrics() Metrics {
	return Metrics{
		Slots:         a.Size(),
		Occupied:      a.OccupiedCount(),
		Capacity:      a.Capacity(),
		BufferBytes:   a.BufferSize(),
		CapacityBytes: a.CapacityBytes(),
		ElemSize:      a.ElemSize(),
		Utilization:   a.Utilization(),
	}
}

// Metrics contains statistical information about an arena.
type Metrics struct {
	Slots         int     // Allocated slots
	Occupied      int     // Slots holding a live value
	Capacity      int     // Slots the allocation can hold
	BufferBytes   int     // Bytes covered by allocated slots
	CapacityBytes int     // Bytes in the backing allocation
	ElemSize      int     // Bytes per slot
	Utilization   float64 // Ratio of occupied to allocated slots (0.0-1.0)
}
