// Package exportsinfo implements the exports-info engine (spec.md §4.3):
// per-module tracking of which exports are provided, which are used per
// runtime, and how they may be renamed or inlined.
package exportsinfo

// UsageState is the per-runtime usage lattice, written weakest to
// strongest exactly as spec.md §4.3 orders it:
// Unused < Unknown < NoInfo < OnlyPropertiesUsed < Used.
type UsageState int

const (
	Unused UsageState = iota
	Unknown
	NoInfo
	OnlyPropertiesUsed
	Used
)

// String implements fmt.Stringer.
func (u UsageState) String() string {
	switch u {
	case Unused:
		return "unused"
	case Unknown:
		return "unknown"
	case NoInfo:
		return "no-info"
	case OnlyPropertiesUsed:
		return "only-properties-used"
	case Used:
		return "used"
	default:
		return "invalid"
	}
}

// Join returns the least upper bound of two usage states (spec.md §4.3
// "Merging incoming connections from multiple consumers: join usage
// states by taking the max over the lattice"). The lattice is monotonic
// in the build: callers must never assign a Join result that is weaker
// than an export's current state (spec.md §8 property #4).
func Join(a, b UsageState) UsageState {
	if a > b {
		return a
	}
	return b
}

// ProvidedState classifies whether a module provides a given export
// (spec.md §4.3 "Provided" axis).
type ProvidedState int

const (
	ProvidedUnknown ProvidedState = iota
	Provided
	NotProvided
)

// String implements fmt.Stringer.
func (p ProvidedState) String() string {
	switch p {
	case Provided:
		return "provided"
	case NotProvided:
		return "not-provided"
	default:
		return "unknown"
	}
}
