// Package notify fans queue changes out to interested listeners over
// Redis pub/sub. Delivery is best effort: the queue engine's
// correctness never depends on a message arriving.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lekhanraj-ai/mediqueue/internal/queue"
)

// Message is the wire shape published on queue channels.
type Message struct {
	Kind        queue.EventKind `json:"kind"`
	DoctorID    string          `json:"doctor_id"`
	Date        string          `json:"date"`
	TimeSlot    string          `json:"time_slot"`
	Appointment Appointment     `json:"appointment"`
}

type Appointment struct {
	ID          string       `json:"id"`
	PatientName string       `json:"patient_name"`
	TokenNumber int          `json:"token_number"`
	Status      queue.Status `json:"status"`
}

// Publisher implements queue.Notifier over Redis pub/sub. Every change
// goes to the doctor's channel so dashboards tracking one doctor's
// queue can react; a called promotion additionally goes to the
// appointment's own channel so the patient waiting on that token hears
// it directly.
type Publisher struct {
	client *redis.Client
	log    *zap.Logger
}

func NewPublisher(client *redis.Client, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{client: client, log: log}
}

func DoctorChannel(doctorID string) string {
	return fmt.Sprintf("queue:doctor:%s", doctorID)
}

func AppointmentChannel(id string) string {
	return fmt.Sprintf("queue:appointment:%s", id)
}

func (p *Publisher) QueueChanged(ctx context.Context, key queue.SlotKey, kind queue.EventKind, appt *queue.Appointment) {
	msg := Message{
		Kind:     kind,
		DoctorID: key.DoctorID,
		Date:     key.Date.Format("2006-01-02"),
		TimeSlot: key.TimeSlot,
		Appointment: Appointment{
			ID:          appt.ID.String(),
			PatientName: appt.PatientName,
			TokenNumber: appt.TokenNumber,
			Status:      appt.Status,
		},
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		p.log.Warn("marshal queue message", zap.Error(err))
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	p.publish(pubCtx, DoctorChannel(key.DoctorID), payload)
	if kind == queue.KindCalled {
		p.publish(pubCtx, AppointmentChannel(appt.ID.String()), payload)
	}
}

func (p *Publisher) publish(ctx context.Context, channel string, payload []byte) {
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		p.log.Warn("publish queue change", zap.String("channel", channel), zap.Error(err))
	}
}
