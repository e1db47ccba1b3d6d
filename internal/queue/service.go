package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lekhanraj-ai/mediqueue/internal/doctor"
)

// DefaultSlotCapacity bounds how many appointments a slot ever accepts.
// Serving an appointment does not give its place back: a slot is
// single-use per day and window, not a rolling queue.
const DefaultSlotCapacity = 10

// Audit event types written to the event log.
const (
	EventAppointmentBooked = "APPOINTMENT_BOOKED"
	EventAppointmentCalled = "APPOINTMENT_CALLED"
	EventAppointmentServed = "APPOINTMENT_SERVED"
)

var (
	ErrValidation = errors.New("validation failed")

	// ErrSlotFull is a business-rule rejection, not a bug: the slot has
	// handed out all of its tokens.
	ErrSlotFull = errors.New("time slot is full for the selected doctor")

	// ErrSlotBusy means the slot's lock could not be acquired. Locker
	// implementations return it (possibly wrapped) when the critical
	// section is contended; the booking is safe to retry.
	ErrSlotBusy = errors.New("slot is busy, please retry")

	// ErrAlreadyServed rejects advancing a served appointment. Served is
	// terminal, and failing here is what keeps concurrent advance calls
	// from promoting two different next appointments.
	ErrAlreadyServed = errors.New("appointment already served")
)

// BookingRequest carries everything needed to reserve a token.
type BookingRequest struct {
	PatientName   string
	Age           int
	ContactNumber string
	Description   string
	DoctorID      string
	Date          time.Time
	TimeSlot      string
}

// Validate checks required fields. A zero Date is allowed and means
// today.
func (r *BookingRequest) Validate() error {
	switch {
	case r.PatientName == "":
		return fmt.Errorf("%w: patient_name is required", ErrValidation)
	case r.Age <= 0:
		return fmt.Errorf("%w: age must be positive", ErrValidation)
	case r.ContactNumber == "":
		return fmt.Errorf("%w: contact_number is required", ErrValidation)
	case r.Description == "":
		return fmt.Errorf("%w: description is required", ErrValidation)
	case r.DoctorID == "":
		return fmt.Errorf("%w: doctor_id is required", ErrValidation)
	case !ValidTimeSlot(r.TimeSlot):
		return fmt.Errorf("%w: time_slot must be one of %v", ErrValidation, TimeSlots())
	}
	return nil
}

// Service is the appointment queue engine: token allocation, the serve
// order state machine, and the read queries over them.
type Service struct {
	repo     Repository
	doctors  doctor.Directory
	locker   Locker
	notifier Notifier
	log      *zap.Logger
	capacity int
}

func NewService(repo Repository, doctors doctor.Directory, locker Locker, notifier Notifier, log *zap.Logger, capacity int) *Service {
	if capacity <= 0 {
		capacity = DefaultSlotCapacity
	}
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		doctors:  doctors,
		locker:   locker,
		notifier: notifier,
		log:      log,
		capacity: capacity,
	}
}

// Book reserves the next token in the request's slot and persists the
// appointment. Token allocation and the insert happen inside one
// critical section per slot key, so two concurrent bookings can never
// observe the same count; the unique token index in the store is the
// backstop that turns any residual race into ErrTokenTaken instead of
// a duplicate.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	doc, err := s.doctors.GetByID(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, doctor.ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}
	key := NewSlotKey(req.DoctorID, date, req.TimeSlot)

	var created *Appointment

	err = s.locker.WithSlotLock(ctx, key, func(lockCtx context.Context) error {
		total, err := s.repo.CountInSlot(lockCtx, key)
		if err != nil {
			return fmt.Errorf("count slot reservations: %w", err)
		}
		if total >= s.capacity {
			return ErrSlotFull
		}

		token := total + 1
		status := StatusPending
		if token == 1 {
			// Nobody is ahead of the first token, so it starts ready
			// to be seen.
			status = StatusCalled
		}

		appt := &Appointment{
			ID:            uuid.New(),
			DoctorID:      key.DoctorID,
			Date:          key.Date,
			TimeSlot:      key.TimeSlot,
			PatientName:   req.PatientName,
			Age:           req.Age,
			ContactNumber: req.ContactNumber,
			Description:   req.Description,
			DocName:       doc.Name,
			TokenNumber:   token,
			Status:        status,
		}

		if err := s.repo.InsertAppointment(lockCtx, appt); err != nil {
			return err
		}

		created = appt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.QueueChanged(ctx, key, KindNewBooking, created)
	s.logEvent(ctx, created.ID, EventAppointmentBooked, map[string]any{
		"doctor_id":    created.DoctorID,
		"date":         created.Date.Format("2006-01-02"),
		"time_slot":    created.TimeSlot,
		"token_number": created.TokenNumber,
		"status":       created.Status,
	})

	return created, nil
}

// Advance marks the given appointment served and, when the slot is left
// without a called head, promotes the lowest pending token to called.
// The whole step runs under the slot lock so that concurrent advances
// resolve to exactly one promotion: the loser finds the target already
// served and fails with ErrAlreadyServed.
func (s *Service) Advance(ctx context.Context, id uuid.UUID) (served, next *Appointment, err error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	key := appt.Key()

	err = s.locker.WithSlotLock(ctx, key, func(lockCtx context.Context) error {
		// Re-read inside the critical section; the status may have moved
		// between the point lookup and lock acquisition.
		current, err := s.repo.GetAppointmentByID(lockCtx, id)
		if err != nil {
			return err
		}
		if current.Status == StatusServed {
			return ErrAlreadyServed
		}

		served, err = s.repo.UpdateStatus(lockCtx, id, current.Status, StatusServed)
		if err != nil {
			return fmt.Errorf("mark served: %w", err)
		}

		// Promote only when no head of line remains, so the slot never
		// observably holds two called appointments.
		calledCount, err := s.repo.CountByStatus(lockCtx, key, StatusCalled)
		if err != nil {
			return fmt.Errorf("count called: %w", err)
		}
		if calledCount > 0 {
			return nil
		}

		candidate, err := s.repo.NextPending(lockCtx, key)
		if err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				// Nothing waiting; the slot has no active head until the
				// next booking or an explicit advance.
				return nil
			}
			return fmt.Errorf("find next pending: %w", err)
		}

		next, err = s.repo.UpdateStatus(lockCtx, candidate.ID, StatusPending, StatusCalled)
		if err != nil {
			return fmt.Errorf("promote next: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.notifier.QueueChanged(ctx, key, KindServed, served)
	s.logEvent(ctx, served.ID, EventAppointmentServed, map[string]any{
		"token_number": served.TokenNumber,
	})

	if next != nil {
		s.notifier.QueueChanged(ctx, key, KindCalled, next)
		s.logEvent(ctx, next.ID, EventAppointmentCalled, map[string]any{
			"token_number": next.TokenNumber,
		})
	}

	return served, next, nil
}

// ListQueue returns the slot's appointments ordered by token number.
func (s *Service) ListQueue(ctx context.Context, doctorID string, date time.Time, timeSlot string) ([]Appointment, error) {
	if doctorID == "" {
		return nil, fmt.Errorf("%w: doctor_id is required", ErrValidation)
	}
	if !ValidTimeSlot(timeSlot) {
		return nil, fmt.Errorf("%w: time_slot must be one of %v", ErrValidation, TimeSlots())
	}
	if date.IsZero() {
		date = time.Now()
	}

	key := NewSlotKey(doctorID, date, timeSlot)
	list, err := s.repo.ListBySlot(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	return list, nil
}

// GetAppointment retrieves one appointment by id.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

// GetPosition returns the appointment and how many unserved
// appointments precede it. The value is derived from a snapshot read,
// so a caller racing an advance may briefly see a stale count; the next
// poll corrects it.
func (s *Service) GetPosition(ctx context.Context, id uuid.UUID) (*Appointment, int, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	slot, err := s.repo.ListBySlot(ctx, appt.Key())
	if err != nil {
		return nil, 0, fmt.Errorf("list slot: %w", err)
	}

	return appt, Position(slot, appt), nil
}

// SummaryByDoctor reports, for every doctor in the directory, how many
// of today's appointments are still waiting (pending or called).
// Doctors with an empty queue appear with a zero count.
func (s *Service) SummaryByDoctor(ctx context.Context) ([]DoctorSummary, error) {
	doctors, err := s.doctors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}

	counts, err := s.repo.ActiveCountByDoctor(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("count active appointments: %w", err)
	}

	summary := make([]DoctorSummary, 0, len(doctors))
	for _, d := range doctors {
		summary = append(summary, DoctorSummary{
			DoctorID:       d.DoctorID,
			Name:           d.Name,
			Specialization: d.Specialization,
			Waiting:        counts[d.DoctorID],
		})
	}
	return summary, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("marshal event payload", zap.String("event_type", eventType), zap.Error(err))
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Warn("insert event log",
			zap.String("event_type", eventType),
			zap.String("appointment_id", appointmentID.String()),
			zap.Error(err),
		)
	}
}
