package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrTokenTaken means an insert lost a race for its token number and
	// hit the (doctor, date, time slot, token) uniqueness constraint.
	// The whole booking attempt is safe to retry.
	ErrTokenTaken = errors.New("token number already taken for slot")
)

// Repository contains all store interactions needed by the service.
// Implementations must enforce uniqueness of (slot key, token number)
// on insert and must never mutate anything but an appointment's status.
type Repository interface {
	InsertAppointment(ctx context.Context, appt *Appointment) error
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// ListBySlot returns every appointment in the slot ordered by
	// ascending token number.
	ListBySlot(ctx context.Context, key SlotKey) ([]Appointment, error)

	// CountInSlot returns the total number of appointments ever booked
	// into the slot. Tokens are allocated from this count, so served
	// rows keep holding their token and their capacity.
	CountInSlot(ctx context.Context, key SlotKey) (int, error)

	// CountByStatus counts appointments in the slot with the given status.
	CountByStatus(ctx context.Context, key SlotKey, status Status) (int, error)

	// NextPending returns the lowest-token pending appointment in the
	// slot, or ErrAppointmentNotFound if none is waiting.
	NextPending(ctx context.Context, key SlotKey) (*Appointment, error)

	// UpdateStatus transitions an appointment from one status to another,
	// guarded: it fails with ErrAppointmentNotFound when no row matches
	// both the id and the expected current status.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// ActiveCountByDoctor returns, per doctor id, how many appointments
	// on the given day are still pending or called.
	ActiveCountByDoctor(ctx context.Context, day time.Time) (map[string]int, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
