package linmo

// Mode selects whether the trap epilogue drives switching (PREEMPTIVE) or
// switching happens only at explicit yield points (COOPERATIVE). Set once,
// before the first dispatch (spec §3.2).
type Mode int

const (
	Preemptive Mode = iota
	Cooperative
)

// Priority is one of the eight fixed urgency levels. Lower value is more
// urgent; CRIT is the highest, IDLE the lowest (spec §3.1).
type Priority int

const (
	PrioCrit Priority = iota
	PrioRealtime
	PrioHigh
	PrioAbove
	PrioNormal
	PrioBelow
	PrioLow
	PrioIdle
	numPriorityLevels = int(PrioIdle) + 1
)

func (p Priority) valid() bool {
	return p >= PrioCrit && p <= PrioIdle
}

// timeSliceTable is the per-level budget in ticks, refilled on election
// (spec §4.1).
var timeSliceTable = [numPriorityLevels]uint32{
	PrioCrit:     1,
	PrioRealtime: 2,
	PrioHigh:     3,
	PrioAbove:    4,
	PrioNormal:   5,
	PrioBelow:    7,
	PrioLow:      10,
	PrioIdle:     15,
}

// MinTaskStack is the smallest stack byte count spawn() accepts, matching
// the reference port's red-zone-plus-minimum-frame floor (spec §3.1). Go
// goroutines manage their own growable stacks, so this is enforced only as
// an API-level contract so callers porting C task sizes keep working.
const MinTaskStack = 512

// Config bundles the numeric constants spec.md pins per component. There is
// no configuration/flags library anywhere in the retrieved example pack
// (checked across every go.mod's require block), so this is a plain struct
// passed to New, in the teacher's own zero-configuration style.
type Config struct {
	// TickHz is the simulated timer interrupt frequency; Kernel.Run
	// paces its background ticker at this rate. Zero means "driven
	// manually via Kernel.Tick", useful for deterministic tests.
	TickHz uint32

	// SemMax is the saturation ceiling for counting semaphores (spec §3.3).
	SemMax int32

	// StackCanaries enables the guard-word check described in spec §3.1
	// and SPEC_FULL.md D.1. Off by default, matching a release build of
	// the reference.
	StackCanaries bool

	// TimerBatchBound caps how many software timers fire per tick handler
	// invocation (spec §4.6); reference value is 4.
	TimerBatchBound int

	// Mode is fixed once Run is first called (spec §6.1).
	Mode Mode
}

// DefaultConfig mirrors the reference port's defaults.
func DefaultConfig() Config {
	return Config{
		TickHz:          1000,
		SemMax:          1<<31 - 1,
		StackCanaries:   false,
		TimerBatchBound: 4,
		Mode:            Preemptive,
	}
}
