package session

import "fmt"

type Status uint8

const (
	StatusPending Status = iota
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// State is a snapshot of where a session is in its preparation.
type State struct {
	Status   Status
	Message  string
	Progress float64
}

func (s State) String() string {
	return fmt.Sprintf("%s: %s (%.0f%%)", s.Status, s.Message, s.Progress*100)
}

func clampProgress(p float64) float64 {
	switch {
	case p != p, p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
