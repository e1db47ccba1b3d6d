package queue

// Position returns how many unserved appointments precede target in its
// slot: entries with a lower token number whose status is not served.
// It is a pure computation over a snapshot of the slot's queue; callers
// re-read and recompute rather than cache.
func Position(slot []Appointment, target *Appointment) int {
	ahead := 0
	for i := range slot {
		a := &slot[i]
		if a.TokenNumber < target.TokenNumber && a.Status != StatusServed {
			ahead++
		}
	}
	return ahead
}
