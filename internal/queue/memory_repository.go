package queue

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process Repository. It backs the tests and
// single-node runs that have no Postgres, and enforces the same
// (slot key, token number) uniqueness the database index does.
type MemoryRepository struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*Appointment
	bySlot map[string][]uuid.UUID
	events []EventLog
	nextEv int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:   make(map[uuid.UUID]*Appointment),
		bySlot: make(map[string][]uuid.UUID),
	}
}

func (r *MemoryRepository) InsertAppointment(_ context.Context, appt *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := appt.Key().String()
	for _, id := range r.bySlot[key] {
		if r.byID[id].TokenNumber == appt.TokenNumber {
			return ErrTokenTaken
		}
	}

	now := time.Now()
	appt.CreatedAt = now
	appt.UpdatedAt = now

	stored := *appt
	r.byID[appt.ID] = &stored
	r.bySlot[key] = append(r.bySlot[key], appt.ID)
	return nil
}

func (r *MemoryRepository) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	appt, ok := r.byID[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	copied := *appt
	return &copied, nil
}

func (r *MemoryRepository) ListBySlot(_ context.Context, key SlotKey) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.bySlot[key.String()]
	result := make([]Appointment, 0, len(ids))
	for _, id := range ids {
		result = append(result, *r.byID[id])
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TokenNumber < result[j].TokenNumber
	})
	return result, nil
}

func (r *MemoryRepository) CountInSlot(_ context.Context, key SlotKey) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.bySlot[key.String()]), nil
}

func (r *MemoryRepository) CountByStatus(_ context.Context, key SlotKey, status Status) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, id := range r.bySlot[key.String()] {
		if r.byID[id].Status == status {
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepository) NextPending(_ context.Context, key SlotKey) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var next *Appointment
	for _, id := range r.bySlot[key.String()] {
		a := r.byID[id]
		if a.Status != StatusPending {
			continue
		}
		if next == nil || a.TokenNumber < next.TokenNumber {
			next = a
		}
	}
	if next == nil {
		return nil, ErrAppointmentNotFound
	}
	copied := *next
	return &copied, nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	appt, ok := r.byID[id]
	if !ok || appt.Status != from {
		return nil, ErrAppointmentNotFound
	}

	appt.Status = to
	appt.UpdatedAt = time.Now()
	copied := *appt
	return &copied, nil
}

func (r *MemoryRepository) ActiveCountByDoctor(_ context.Context, day time.Time) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	day = TruncateToDay(day)
	counts := make(map[string]int)
	for _, appt := range r.byID {
		if !appt.Date.Equal(day) {
			continue
		}
		if appt.Status == StatusPending || appt.Status == StatusCalled {
			counts[appt.DoctorID]++
		}
	}
	return counts, nil
}

func (r *MemoryRepository) InsertEvent(_ context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextEv++
	ev.ID = r.nextEv
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	r.events = append(r.events, ev)
	return nil
}

// Events returns a snapshot of the audit log, oldest first.
func (r *MemoryRepository) Events() []EventLog {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]EventLog, len(r.events))
	copy(out, r.events)
	return out
}
