package engine

import (
	"fmt"
	"sync"
)

// Mode identifies one of the operator-toggled stress-mutation flags.
type Mode string

const (
	ModeHighLoad      Mode = "high_load"
	ModeStaffShortage Mode = "staff_shortage"
)

// ModeSnapshot is a point-in-time copy of the mutation flags. Ordering
// consumes snapshots rather than the live cell so a reorder stays a pure
// function of its inputs.
type ModeSnapshot struct {
	HighLoad      bool `json:"high_load"`
	StaffShortage bool `json:"staff_shortage"`
}

// Modes holds the process-wide mutation flags. Both default to false.
type Modes struct {
	mu      sync.RWMutex
	current ModeSnapshot
}

func NewModes() *Modes {
	return &Modes{}
}

// Set flips one flag and returns the resulting snapshot.
func (m *Modes) Set(mode Mode, active bool) (ModeSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch mode {
	case ModeHighLoad:
		m.current.HighLoad = active
	case ModeStaffShortage:
		m.current.StaffShortage = active
	default:
		return m.current, fmt.Errorf("unknown mutation mode: %s", mode)
	}
	return m.current, nil
}

func (m *Modes) Snapshot() ModeSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}
