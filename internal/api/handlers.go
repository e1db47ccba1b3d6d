package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lekhanraj-ai/mediqueue/internal/doctor"
	"github.com/lekhanraj-ai/mediqueue/internal/queue"
)

func bookAppointmentHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BookAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		var date time.Time
		if req.Date != "" {
			parsed, err := time.Parse("2006-01-02", req.Date)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
			date = parsed
		}

		appt, err := svc.Book(r.Context(), queue.BookingRequest{
			PatientName:   req.PatientName,
			Age:           req.Age,
			ContactNumber: req.ContactNumber,
			Description:   req.Description,
			DoctorID:      req.DoctorID,
			Date:          date,
			TimeSlot:      req.TimeSlot,
		})
		if err != nil {
			handleBookError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getQueueHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID := chi.URLParam(r, "doctorID")
		timeSlot := r.URL.Query().Get("time_slot")

		var date time.Time
		if raw := r.URL.Query().Get("date"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
			date = parsed
		}

		list, err := svc.ListQueue(r.Context(), doctorID, date, timeSlot)
		if err != nil {
			if errors.Is(err, queue.ErrValidation) {
				writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		queueDate := date
		if queueDate.IsZero() {
			queueDate = time.Now()
		}

		resp := QueueResponse{
			DoctorID: doctorID,
			Date:     queue.TruncateToDay(queueDate).Format("2006-01-02"),
			TimeSlot: timeSlot,
			Queue:    make([]AppointmentResponse, 0, len(list)),
		}
		for i := range list {
			resp.Queue = append(resp.Queue, toAppointmentResponse(&list[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func getAppointmentHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseAppointmentID(w, r)
		if !ok {
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleLookupError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func getPositionHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseAppointmentID(w, r)
		if !ok {
			return
		}

		appt, pos, err := svc.GetPosition(r.Context(), id)
		if err != nil {
			handleLookupError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, PositionResponse{
			Appointment: toAppointmentResponse(appt),
			Position:    pos,
		})
	}
}

func advanceAppointmentHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseAppointmentID(w, r)
		if !ok {
			return
		}

		served, next, err := svc.Advance(r.Context(), id)
		if err != nil {
			handleAdvanceError(w, err)
			return
		}

		resp := AdvanceResponse{Served: toAppointmentResponse(served)}
		if next != nil {
			nextResp := toAppointmentResponse(next)
			resp.Next = &nextResp
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func queuesSummaryHandler(svc *queue.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.SummaryByDoctor(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]DoctorSummaryResponse, 0, len(summary))
		for _, s := range summary {
			resp = append(resp, DoctorSummaryResponse{
				DoctorID:       s.DoctorID,
				Name:           s.Name,
				Specialization: s.Specialization,
				Waiting:        s.Waiting,
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func listDoctorsHandler(directory doctor.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := directory.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		resp := make([]DoctorResponse, 0, len(doctors))
		for _, d := range doctors {
			resp = append(resp, DoctorResponse{
				DoctorID:        d.DoctorID,
				Name:            d.Name,
				Specialization:  d.Specialization,
				ExperienceYears: d.ExperienceYears,
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func parseAppointmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func handleBookError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, queue.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, doctor.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, queue.ErrSlotFull):
		writeError(w, http.StatusConflict, "slot_full", err.Error())
	case errors.Is(err, queue.ErrTokenTaken):
		writeError(w, http.StatusConflict, "token_conflict", "token assignment conflict, please try booking again")
	case errors.Is(err, queue.ErrSlotBusy):
		writeError(w, http.StatusConflict, "slot_busy", "slot is currently being booked, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleAdvanceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, queue.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, queue.ErrAlreadyServed):
		writeError(w, http.StatusConflict, "already_served", err.Error())
	case errors.Is(err, queue.ErrSlotBusy):
		writeError(w, http.StatusConflict, "slot_busy", "queue is being updated, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, queue.ErrAppointmentNotFound) {
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
}
