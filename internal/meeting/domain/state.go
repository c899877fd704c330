package domain

import "fmt"

// State is the processing stage of a meeting record.
type State string

const (
	Raw         State = "RAW"
	Transcribed State = "TRANSCRIBED"
	Summarized  State = "SUMMARIZED"
	Failed      State = "FAILED"
)

// ParseState validates a persisted or user supplied state value.
func ParseState(s string) (State, error) {
	switch st := State(s); st {
	case Raw, Transcribed, Summarized, Failed:
		return st, nil
	default:
		return "", fmt.Errorf("unknown state: %q", s)
	}
}

// Terminal reports whether no further automatic transitions leave s.
func (s State) Terminal() bool {
	return s == Summarized || s == Failed
}

func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	switch from {
	case Raw:
		return to == Transcribed || to == Failed
	case Transcribed:
		return to == Summarized || to == Failed
	default:
		return false
	}
}

func ValidateTransition(from, to State) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
