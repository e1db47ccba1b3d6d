package queue

import (
	"time"

	"github.com/google/uuid"
)

// Status tracks an appointment through the serve order. Transitions only
// move forward: pending -> called -> served.
type Status string

const (
	StatusPending Status = "pending"
	StatusCalled  Status = "called"
	StatusServed  Status = "served"
)

// CanTransition reports whether moving from s to next is legal.
// pending -> served covers an operator advancing a late sole pending
// appointment directly; served is terminal.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusCalled || next == StatusServed
	case StatusCalled:
		return next == StatusServed
	default:
		return false
	}
}

// The clinic runs three fixed walk-in windows per day.
const (
	SlotMorning   = "9 AM - 11 AM"
	SlotMidday    = "12 PM - 2 PM"
	SlotAfternoon = "3 PM - 5 PM"
)

var timeSlots = map[string]bool{
	SlotMorning:   true,
	SlotMidday:    true,
	SlotAfternoon: true,
}

// ValidTimeSlot reports whether label names one of the clinic's windows.
func ValidTimeSlot(label string) bool {
	return timeSlots[label]
}

// TimeSlots returns the clinic's windows in day order.
func TimeSlots() []string {
	return []string{SlotMorning, SlotMidday, SlotAfternoon}
}

// SlotKey identifies one independent, bounded queue: a doctor, a calendar
// day, and a time window. Queues for different keys never interact.
type SlotKey struct {
	DoctorID string
	Date     time.Time
	TimeSlot string
}

// NewSlotKey builds a key with the date truncated to midnight UTC so that
// any timestamp on the same calendar day maps to the same queue.
func NewSlotKey(doctorID string, date time.Time, timeSlot string) SlotKey {
	return SlotKey{
		DoctorID: doctorID,
		Date:     TruncateToDay(date),
		TimeSlot: timeSlot,
	}
}

// TruncateToDay drops the time-of-day component, in UTC.
func TruncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// String renders the key as a lock/channel-friendly identifier.
func (k SlotKey) String() string {
	return k.DoctorID + ":" + k.Date.Format("2006-01-02") + ":" + k.TimeSlot
}

// Appointment is the engine's central record. SlotKey fields and
// TokenNumber are immutable after creation; only Status ever changes.
type Appointment struct {
	ID            uuid.UUID
	DoctorID      string
	Date          time.Time
	TimeSlot      string
	PatientName   string
	Age           int
	ContactNumber string
	Description   string
	DocName       string
	TokenNumber   int
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Key returns the slot this appointment belongs to.
func (a *Appointment) Key() SlotKey {
	return SlotKey{DoctorID: a.DoctorID, Date: a.Date, TimeSlot: a.TimeSlot}
}

// EventKind classifies queue-changed notifications sent to listeners.
type EventKind string

const (
	KindNewBooking EventKind = "new_booking"
	KindServed     EventKind = "served"
	KindCalled     EventKind = "called"
)

// EventLog is an audit row recording a queue-affecting change.
type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

// DoctorSummary is one row of the management dashboard aggregation:
// how many patients are still waiting (pending or called) for a doctor.
type DoctorSummary struct {
	DoctorID       string
	Name           string
	Specialization string
	Waiting        int
}
