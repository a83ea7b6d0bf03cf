package models

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// LearningPhase represents where an item sits in the learner's acquisition
// cycle. It is recomputed from the review counters after every review; the
// stored value is a cache, not authoritative state.
type LearningPhase int

const (
	PhaseAcquisition   LearningPhase = iota + 1 // fewer than the acquisition review count
	PhaseConsolidation                          // stability building, no recent failures
	PhaseMaintenance                            // stable recall, long intervals
	PhaseRelearning                             // repeated failures, back to short intervals
)

var (
	phaseNames = [...]string{
		PhaseAcquisition:   "acquisition",
		PhaseConsolidation: "consolidation",
		PhaseMaintenance:   "maintenance",
		PhaseRelearning:    "relearning",
	}
	phaseByName = map[string]LearningPhase{
		"acquisition":   PhaseAcquisition,
		"consolidation": PhaseConsolidation,
		"maintenance":   PhaseMaintenance,
		"relearning":    PhaseRelearning,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = LearningPhase(0)
	_ json.Marshaler           = LearningPhase(0)
	_ json.Unmarshaler         = (*LearningPhase)(nil)
	_ encoding.TextMarshaler   = LearningPhase(0)
	_ encoding.TextUnmarshaler = (*LearningPhase)(nil)
)

// IsValid reports whether p is one of the four defined phases.
func (p LearningPhase) IsValid() bool {
	return p >= PhaseAcquisition && p <= PhaseRelearning
}

// String returns the phase name ("acquisition", "consolidation",
// "maintenance", "relearning"). For invalid values it returns "LearningPhase(n)".
func (p LearningPhase) String() string {
	if p.IsValid() {
		return phaseNames[p]
	}
	return fmt.Sprintf("LearningPhase(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p LearningPhase) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("models: invalid learning phase: %d", int(p))
	}
	return []byte(phaseNames[p]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *LearningPhase) UnmarshalText(text []byte) error {
	v, ok := phaseByName[string(text)]
	if !ok {
		return fmt.Errorf("models: invalid learning phase: %q", text)
	}
	*p = v
	return nil
}

// MarshalJSON implements json.Marshaler. The phase serializes as a JSON string.
func (p LearningPhase) MarshalJSON() ([]byte, error) {
	text, err := p.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (p *LearningPhase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("models: invalid learning phase: %s", data)
	}
	return p.UnmarshalText([]byte(s))
}
