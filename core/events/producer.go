package events

import "strconv"

const (
	// TypeProducerRegistered is emitted when a new producer record is created.
	TypeProducerRegistered = "producer.registered"
	// TypeProducerPreferencesChanged is emitted when a producer updates its
	// resource/block policy preferences.
	TypeProducerPreferencesChanged = "producer.preferencesChanged"
)

// ProducerRegistered captures a successful register_producer action.
type ProducerRegistered struct {
	Owner uint64
}

// EventType implements Event.
func (ProducerRegistered) EventType() string { return TypeProducerRegistered }

// Attributes renders the event as a flat attribute map for logging or
// indexer consumption.
func (e ProducerRegistered) Attributes() map[string]string {
	return map[string]string{"owner": strconv.FormatUint(e.Owner, 10)}
}

// ProducerPreferencesChanged captures a successful
// change_producer_preferences action.
type ProducerPreferencesChanged struct {
	Owner uint64
}

// EventType implements Event.
func (ProducerPreferencesChanged) EventType() string { return TypeProducerPreferencesChanged }

// Attributes renders the event as a flat attribute map.
func (e ProducerPreferencesChanged) Attributes() map[string]string {
	return map[string]string{"owner": strconv.FormatUint(e.Owner, 10)}
}
