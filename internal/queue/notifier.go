package queue

import "context"

// Notifier receives queue-affecting changes for fan-out to connected
// clients. Delivery is fire-and-forget: the engine never waits on or
// retries it, and implementations must not return delivery failures as
// operation failures.
type Notifier interface {
	QueueChanged(ctx context.Context, key SlotKey, kind EventKind, appt *Appointment)
}

// NoopNotifier drops all notifications. Used when no realtime transport
// is wired, and by tests that don't assert on events.
type NoopNotifier struct{}

func (NoopNotifier) QueueChanged(context.Context, SlotKey, EventKind, *Appointment) {}
