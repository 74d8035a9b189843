package model

import "fmt"

// Series tags a discounted row.
type Series int

const (
	AnnualValue Series = iota
	PresentValue
	AnnualizedValue
)

func (s Series) String() string {
	switch s {
	case AnnualValue:
		return "AnnualValue"
	case PresentValue:
		return "PresentValue"
	case AnnualizedValue:
		return "AnnualizedValue"
	default:
		return fmt.Sprintf("Series(%d)", int(s))
	}
}

// SessionPolicy names a session role in a batch.
type SessionPolicy string

const (
	PolicyContext  SessionPolicy = "context"
	PolicyNoAction SessionPolicy = "no_action"
)

// IsAction reports whether the policy is one of action_1..action_N.
func (p SessionPolicy) IsAction() bool {
	return len(p) > len("action_") && p[:len("action_")] == "action_"
}
