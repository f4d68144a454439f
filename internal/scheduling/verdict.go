package scheduling

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTime      = errors.New("invalid time of day")
	ErrOutsideSchedule  = errors.New("requested time is outside the worker schedule")
	ErrSlotOccupied     = errors.New("requested slot is already booked")
	ErrLocationOccupied = errors.New("location is occupied at the requested time")
)

type VerdictKind int

const (
	Available VerdictKind = iota
	OutsideSchedule
	SlotOccupied
	LocationOccupied
	InvalidTime
)

var verdictNames = map[VerdictKind]string{
	Available:        "available",
	OutsideSchedule:  "outside_schedule",
	SlotOccupied:     "slot_occupied",
	LocationOccupied: "location_occupied",
	InvalidTime:      "invalid_time",
}

func (k VerdictKind) String() string {
	if name, ok := verdictNames[k]; ok {
		return name
	}
	return fmt.Sprintf("verdict(%d)", int(k))
}

// Verdict is the outcome of a scheduling check.
// Detail is only set for InvalidTime and names the bound that failed.
type Verdict struct {
	Kind   VerdictKind
	Detail string
}

func Verdictf(kind VerdictKind, format string, args ...interface{}) Verdict {
	return Verdict{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func (v Verdict) Available() bool {
	return v.Kind == Available
}

func (v Verdict) String() string {
	if v.Detail == "" {
		return v.Kind.String()
	}
	return v.Kind.String() + ": " + v.Detail
}

// Err returns nil for Available and a sentinel-wrapped error otherwise.
func (v Verdict) Err() error {
	var base error
	switch v.Kind {
	case Available:
		return nil
	case OutsideSchedule:
		base = ErrOutsideSchedule
	case SlotOccupied:
		base = ErrSlotOccupied
	case LocationOccupied:
		base = ErrLocationOccupied
	case InvalidTime:
		base = ErrInvalidTime
	default:
		return fmt.Errorf("unknown verdict %d", int(v.Kind))
	}

	if v.Detail == "" {
		return base
	}
	return fmt.Errorf("%w: %s", base, v.Detail)
}

// KindOf maps an error produced by Verdict.Err back to its kind.
func KindOf(err error) (VerdictKind, bool) {
	switch {
	case err == nil:
		return Available, true
	case errors.Is(err, ErrInvalidTime):
		return InvalidTime, true
	case errors.Is(err, ErrOutsideSchedule):
		return OutsideSchedule, true
	case errors.Is(err, ErrSlotOccupied):
		return SlotOccupied, true
	case errors.Is(err, ErrLocationOccupied):
		return LocationOccupied, true
	default:
		return 0, false
	}
}
