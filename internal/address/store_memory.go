package address

import (
	"context"
	"strings"
	"sync"
)

// MemoryGazetteer is the in-process reference table for tests and seeds.
type MemoryGazetteer struct {
	mu   sync.RWMutex
	rows []GazetteerRow
}

func NewMemoryGazetteer(rows ...GazetteerRow) *MemoryGazetteer {
	return &MemoryGazetteer{rows: rows}
}

func (g *MemoryGazetteer) Add(rows ...GazetteerRow) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rows = append(g.rows, rows...)
}

func (g *MemoryGazetteer) Match(_ context.Context, country, postalCode string, names ...string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, row := range g.rows {
		if !strings.EqualFold(row.Country, country) || !strings.EqualFold(row.PostalCode, postalCode) {
			continue
		}
		for _, name := range names {
			if name == "" {
				continue
			}
			if strings.EqualFold(row.City, name) ||
				strings.EqualFold(row.Admin1, name) ||
				strings.EqualFold(row.Admin2, name) {
				return true, nil
			}
		}
	}
	return false, nil
}

// MemoryBounds holds country envelopes keyed by ISO-2 code.
type MemoryBounds struct {
	mu    sync.RWMutex
	boxes map[string]BoundingBox
}

func NewMemoryBounds() *MemoryBounds {
	return &MemoryBounds{boxes: make(map[string]BoundingBox)}
}

// SeededBounds returns a MemoryBounds preloaded with a small set of
// countries, including the antimeridian-crossing Fiji box.
func SeededBounds() *MemoryBounds {
	b := NewMemoryBounds()
	b.Set("US", BoundingBox{MinLat: 18.9, MaxLat: 71.4, MinLng: -179.1, MaxLng: -66.9})
	b.Set("BR", BoundingBox{MinLat: -33.8, MaxLat: 5.3, MinLng: -73.9, MaxLng: -28.6})
	b.Set("AR", BoundingBox{MinLat: -55.1, MaxLat: -21.8, MinLng: -73.6, MaxLng: -53.6})
	b.Set("CL", BoundingBox{MinLat: -56.0, MaxLat: -17.5, MinLng: -109.5, MaxLng: -66.4})
	b.Set("ES", BoundingBox{MinLat: 27.6, MaxLat: 43.8, MinLng: -18.2, MaxLng: 4.3})
	b.Set("DE", BoundingBox{MinLat: 47.3, MaxLat: 55.1, MinLng: 5.9, MaxLng: 15.0})
	b.Set("GB", BoundingBox{MinLat: 49.9, MaxLat: 60.9, MinLng: -8.6, MaxLng: 1.8})
	b.Set("FJ", BoundingBox{MinLat: -21.0, MaxLat: -12.5, MinLng: 176.8, MaxLng: -178.2})
	return b
}

func (b *MemoryBounds) Set(country string, box BoundingBox) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.boxes[strings.ToUpper(country)] = box
}

func (b *MemoryBounds) Bounds(_ context.Context, country string) (BoundingBox, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	box, ok := b.boxes[strings.ToUpper(country)]
	return box, ok, nil
}
