package session

import "fmt"

// Mode selects the prompt shape of a session and which transitions it allows.
type Mode string

const (
	ModeReview     Mode = "review"
	ModeDebug      Mode = "debug"
	ModeComparison Mode = "comparison"
	ModeAudit      Mode = "audit"
	ModeWorkbench  Mode = "workbench"
)

// Modes lists every mode in display order.
func Modes() []Mode {
	return []Mode{ModeReview, ModeDebug, ModeComparison, ModeAudit, ModeWorkbench}
}

// ParseMode converts s to a Mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown mode %q", s)
	}
	return m, nil
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeReview, ModeDebug, ModeComparison, ModeAudit, ModeWorkbench:
		return true
	}
	return false
}

func (m Mode) String() string { return string(m) }
