package doctor

import (
	"context"
	"sort"
	"sync"
)

// MemoryDirectory is an in-process Directory for tests and local runs.
type MemoryDirectory struct {
	mu      sync.RWMutex
	doctors map[string]Doctor
}

func NewMemoryDirectory(doctors ...Doctor) *MemoryDirectory {
	d := &MemoryDirectory{doctors: make(map[string]Doctor, len(doctors))}
	for _, doc := range doctors {
		d.doctors[doc.DoctorID] = doc
	}
	return d
}

func (d *MemoryDirectory) Add(doc Doctor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doctors[doc.DoctorID] = doc
}

func (d *MemoryDirectory) GetByID(_ context.Context, doctorID string) (*Doctor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	doc, ok := d.doctors[doctorID]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return &doc, nil
}

func (d *MemoryDirectory) List(_ context.Context) ([]Doctor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]Doctor, 0, len(d.doctors))
	for _, doc := range d.doctors {
		result = append(result, doc)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DoctorID < result[j].DoctorID
	})
	return result, nil
}
