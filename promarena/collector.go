// Package promarena exports arena metrics to Prometheus.
//
// Arenas are not goroutine-safe, so the collector never reads an arena
// directly. The goroutine that owns an arena pushes snapshots with Observe,
// and a scrape reports the latest snapshot per arena name.
package promarena

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pavanmanishd/slotarena"
)

var _ prometheus.Collector = &Collector{}

var (
	slotsDesc = prometheus.NewDesc(
		"slotarena_slots",
		"Number of allocated slots, occupied or not.",
		[]string{"arena"}, nil,
	)
	occupiedDesc = prometheus.NewDesc(
		"slotarena_occupied_slots",
		"Number of slots holding a live value.",
		[]string{"arena"}, nil,
	)
	capacityDesc = prometheus.NewDesc(
		"slotarena_capacity_slots",
		"Number of slots the backing allocation can hold.",
		[]string{"arena"}, nil,
	)
	bufferDesc = prometheus.NewDesc(
		"slotarena_buffer_bytes",
		"Bytes covered by allocated slots.",
		[]string{"arena"}, nil,
	)
	elemDesc = prometheus.NewDesc(
		"slotarena_element_bytes",
		"Size of one slot in bytes.",
		[]string{"arena"}, nil,
	)
)

// Collector reports the latest observed metrics of named arenas.
type Collector struct {
	mtx       sync.RWMutex
	snapshots map[string]slotarena.Metrics
}

// NewCollector returns a collector with no observed arenas.
func NewCollector() *Collector {
	return &Collector{snapshots: map[string]slotarena.Metrics{}}
}

// Observe records m as the current state of the arena called name.
func (c *Collector) Observe(name string, m slotarena.Metrics) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.snapshots[name] = m
}

// ObserveArena snapshots a and records it under name. It must be called from
// the goroutine that owns a.
func (c *Collector) ObserveArena(name string, a *slotarena.Arena) {
	c.Observe(name, a.Metrics())
}

// Forget stops reporting the arena called name.
func (c *Collector) Forget(name string) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	delete(c.snapshots, name)
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	descs <- slotsDesc
	descs <- occupiedDesc
	descs <- capacityDesc
	descs <- bufferDesc
	descs <- elemDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(metrics chan<- prometheus.Metric) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	names := make([]string, 0, len(c.snapshots))
	for name := range c.snapshots {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m := c.snapshots[name]
		metrics <- prometheus.MustNewConstMetric(slotsDesc, prometheus.GaugeValue, float64(m.Slots), name)
		metrics <- prometheus.MustNewConstMetric(occupiedDesc, prometheus.GaugeValue, float64(m.Occupied), name)
		metrics <- prometheus.MustNewConstMetric(capacityDesc, prometheus.GaugeValue, float64(m.Capacity), name)
		metrics <- prometheus.MustNewConstMetric(bufferDesc, prometheus.GaugeValue, float64(m.BufferBytes), name)
		metrics <- prometheus.MustNewConstMetric(elemDesc, prometheus.GaugeValue, float64(m.ElemSize), name)
	}
}
