package events

import "strconv"

// TypeActiveSetPublished is emitted each time the tabulator recomputes and
// publishes the active producer set.
const TypeActiveSetPublished = "election.activeSetPublished"

// ActiveSetPublished captures the outcome of one tabulation pass.
type ActiveSetPublished struct {
	Producers []uint64
}

// EventType implements Event.
func (ActiveSetPublished) EventType() string { return TypeActiveSetPublished }

// Attributes renders the event as a flat attribute map.
func (e ActiveSetPublished) Attributes() map[string]string {
	return map[string]string{"count": strconv.Itoa(len(e.Producers))}
}
