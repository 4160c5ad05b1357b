// Package metrics records per-turn events. Observers compose: the
// engine chains sampling and an async buffer in front of a sink so a
// slow writer never blocks a turn.
package metrics

import "time"

// Event is one recorded measurement.
type Event struct {
	Name   string
	Time   time.Time
	Value  float64
	Tags   map[string]string
	Fields map[string]any
}

type Observer interface {
	RecordEvent(ev Event)
}

type NoopObserver struct{}

func (NoopObserver) RecordEvent(Event) {}

// TurnEvent builds the standard per-exchange event. Value is the turn
// latency in milliseconds.
func TurnEvent(traceID string, degraded, giftRecorded, nameLearned bool, latency time.Duration) Event {
	return Event{
		Name:  "turn",
		Time:  time.Now(),
		Value: float64(latency.Milliseconds()),
		Tags: map[string]string{
			"degraded": boolTag(degraded),
		},
		Fields: map[string]any{
			"trace_id":      traceID,
			"gift_recorded": giftRecorded,
			"name_learned":  nameLearned,
		},
	}
}

func boolTag(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
