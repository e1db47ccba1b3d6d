package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lekhanraj-ai/mediqueue/internal/doctor"
	"github.com/lekhanraj-ai/mediqueue/internal/queue"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	repo := queue.NewMemoryRepository()
	directory := doctor.NewMemoryDirectory(
		doctor.Doctor{DoctorID: "DOC001", Name: "Dr. Asha Rao", Specialization: "General Practice", ExperienceYears: 12},
		doctor.Doctor{DoctorID: "DOC002", Name: "Dr. Benoy Kurian", Specialization: "Cardiology", ExperienceYears: 8},
	)
	svc := queue.NewService(repo, directory, queue.NewKeyedMutex(), queue.NoopNotifier{}, nil, queue.DefaultSlotCapacity)

	return NewRouter(RouterConfig{
		Service:   svc,
		Directory: directory,
		Env:       "test",
		Version:   "test",
	})
}

func bookBody(patient string) []byte {
	body, _ := json.Marshal(BookAppointmentRequest{
		PatientName:   patient,
		Age:           34,
		ContactNumber: "9876543210",
		Description:   "persistent cough",
		DoctorID:      "DOC001",
		TimeSlot:      queue.SlotMorning,
	})
	return body
}

func doBook(t *testing.T, router http.Handler, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/appointments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeAppointment(t *testing.T, rec *httptest.ResponseRecorder) AppointmentResponse {
	t.Helper()

	var resp AppointmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestBookEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doBook(t, router, bookBody("First Patient"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeAppointment(t, rec)
	assert.Equal(t, 1, resp.TokenNumber)
	assert.Equal(t, "called", resp.Status)
	assert.Equal(t, "Dr. Asha Rao", resp.DocName)
	assert.NotEqual(t, uuid.Nil, resp.ID)

	rec = doBook(t, router, bookBody("Second Patient"))
	require.Equal(t, http.StatusCreated, rec.Code)
	resp = decodeAppointment(t, rec)
	assert.Equal(t, 2, resp.TokenNumber)
	assert.Equal(t, "pending", resp.Status)
}

func TestBookEndpoint_BadRequests(t *testing.T) {
	router := newTestRouter(t)

	rec := doBook(t, router, []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, _ := json.Marshal(BookAppointmentRequest{
		Age:      30,
		DoctorID: "DOC001",
		TimeSlot: queue.SlotMorning,
	})
	rec = doBook(t, router, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "validation_failed", errResp.Error)
}

func TestBookEndpoint_UnknownDoctor(t *testing.T) {
	router := newTestRouter(t)

	body, _ := json.Marshal(BookAppointmentRequest{
		PatientName:   "Stray Patient",
		Age:           30,
		ContactNumber: "9876543210",
		Description:   "checkup",
		DoctorID:      "DOC404",
		TimeSlot:      queue.SlotMorning,
	})
	rec := doBook(t, router, body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookEndpoint_SlotFull(t *testing.T) {
	router := newTestRouter(t)

	for i := 0; i < queue.DefaultSlotCapacity; i++ {
		rec := doBook(t, router, bookBody(fmt.Sprintf("Patient %d", i+1)))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doBook(t, router, bookBody("One Too Many"))
	require.Equal(t, http.StatusConflict, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, "slot_full", errResp.Error)
}

func TestQueueEndpoint(t *testing.T) {
	router := newTestRouter(t)

	for i := 0; i < 3; i++ {
		rec := doBook(t, router, bookBody(fmt.Sprintf("Patient %d", i+1)))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	target := "/api/doctors/DOC001/queue?time_slot=" + url.QueryEscape(queue.SlotMorning)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp QueueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Queue, 3)
	for i, appt := range resp.Queue {
		assert.Equal(t, i+1, appt.TokenNumber)
	}
}

func TestQueueEndpoint_BadTimeSlot(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/doctors/DOC001/queue?time_slot=never", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAppointmentEndpoint(t *testing.T) {
	router := newTestRouter(t)

	created := decodeAppointment(t, doBook(t, router, bookBody("Lookup Patient")))

	req := httptest.NewRequest(http.MethodGet, "/api/appointments/"+created.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeAppointment(t, rec)
	assert.Equal(t, created.ID, resp.ID)
	assert.Equal(t, "Lookup Patient", resp.PatientName)
}

func TestGetAppointmentEndpoint_Missing(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/appointments/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/appointments/not-a-uuid", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdvanceEndpoint(t *testing.T) {
	router := newTestRouter(t)

	first := decodeAppointment(t, doBook(t, router, bookBody("Head Patient")))
	second := decodeAppointment(t, doBook(t, router, bookBody("Waiting Patient")))

	req := httptest.NewRequest(http.MethodPost, "/api/appointments/"+first.ID.String()+"/advance", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AdvanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "served", resp.Served.Status)
	require.NotNil(t, resp.Next)
	assert.Equal(t, second.ID, resp.Next.ID)
	assert.Equal(t, "called", resp.Next.Status)

	// Advancing the same appointment again is rejected.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/appointments/"+first.ID.String()+"/advance", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdvanceEndpoint_LastInQueue(t *testing.T) {
	router := newTestRouter(t)

	only := decodeAppointment(t, doBook(t, router, bookBody("Solo Patient")))

	req := httptest.NewRequest(http.MethodPost, "/api/appointments/"+only.ID.String()+"/advance", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp AdvanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Next)
}

func TestPositionEndpoint(t *testing.T) {
	router := newTestRouter(t)

	var appts []AppointmentResponse
	for i := 0; i < 4; i++ {
		appts = append(appts, decodeAppointment(t, doBook(t, router, bookBody(fmt.Sprintf("Patient %d", i+1)))))
	}

	// Serve the head so the slot is 1 served, 2 called, 3-4 pending.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/appointments/"+appts[0].ID.String()+"/advance", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/appointments/"+appts[3].ID.String()+"/position", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp PositionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Position)
	assert.Equal(t, 4, resp.Appointment.TokenNumber)
}

func TestSummaryEndpoint(t *testing.T) {
	router := newTestRouter(t)

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusCreated, doBook(t, router, bookBody(fmt.Sprintf("Patient %d", i+1))).Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/queues/summary", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []DoctorSummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "DOC001", resp[0].DoctorID)
	assert.Equal(t, 2, resp[0].Waiting)
	assert.Equal(t, 0, resp[1].Waiting)
}

func TestListDoctorsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/doctors", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []DoctorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "DOC001", resp[0].DoctorID)
	assert.Equal(t, "Dr. Asha Rao", resp[0].Name)
}
