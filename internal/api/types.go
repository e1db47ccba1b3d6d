package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/lekhanraj-ai/mediqueue/internal/queue"
)

type BookAppointmentRequest struct {
	PatientName   string `json:"patient_name"`
	Age           int    `json:"age"`
	ContactNumber string `json:"contact_number"`
	Description   string `json:"description"`
	DoctorID      string `json:"doctor_id"`
	Date          string `json:"date,omitempty"`      // YYYY-MM-DD, defaults to today
	TimeSlot      string `json:"time_slot"`
}

type AppointmentResponse struct {
	ID          uuid.UUID `json:"id"`
	DoctorID    string    `json:"doctor_id"`
	DocName     string    `json:"doc_name"`
	Date        string    `json:"date"`
	TimeSlot    string    `json:"time_slot"`
	PatientName string    `json:"patient_name"`
	TokenNumber int       `json:"token_number"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func toAppointmentResponse(a *queue.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		DoctorID:    a.DoctorID,
		DocName:     a.DocName,
		Date:        a.Date.Format("2006-01-02"),
		TimeSlot:    a.TimeSlot,
		PatientName: a.PatientName,
		TokenNumber: a.TokenNumber,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt,
	}
}

type QueueResponse struct {
	DoctorID string                `json:"doctor_id"`
	Date     string                `json:"date"`
	TimeSlot string                `json:"time_slot"`
	Queue    []AppointmentResponse `json:"queue"`
}

type PositionResponse struct {
	Appointment AppointmentResponse `json:"appointment"`
	Position    int                 `json:"position"`
}

type AdvanceResponse struct {
	Served AppointmentResponse  `json:"served"`
	Next   *AppointmentResponse `json:"next,omitempty"`
}

type DoctorSummaryResponse struct {
	DoctorID       string `json:"doctor_id"`
	Name           string `json:"name"`
	Specialization string `json:"specialization"`
	Waiting        int    `json:"waiting"`
}

type DoctorResponse struct {
	DoctorID        string `json:"doctor_id"`
	Name            string `json:"name"`
	Specialization  string `json:"specialization"`
	ExperienceYears int    `json:"experience_years"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
