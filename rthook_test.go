package linmo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRTHookOverridesDefaultElection exercises SetRTHook end-to-end
// (spec §4.1, SPEC_FULL.md D.4): a PrioLow task is given no special
// standing by the default priority/FIFO scheduler (a PrioHigh task would
// always be elected first), but an installed RTHook that singles it out
// must still win the very first election. Once that task exits, the hook
// has nothing left to prefer and must return ok==false, falling back to
// the standard scheduler for the remaining task — proving both the
// override path and its fallback are wired, not just declared.
func TestRTHookOverridesDefaultElection(t *testing.T) {
	k := newTestKernel()
	var order []string

	k.Run(func(k *Kernel) bool {
		lowID, err := k.Spawn(func(tk *Task) {
			order = append(order, "low")
		}, 4096, PrioLow)
		require.NoError(t, err)

		_, err = k.Spawn(func(tk *Task) {
			order = append(order, "high")
			k.Shutdown()
		}, 4096, PrioHigh)
		require.NoError(t, err)

		k.SetRTHook(func(ready []TaskID, ticks uint32) (TaskID, bool) {
			for _, id := range ready {
				if id == lowID {
					return lowID, true
				}
			}
			return 0, false
		})
		return true
	})

	require.Equal(t, []string{"low", "high"}, order)
}

// TestRTHookNeverInstalledUsesStandardElection is the control case: with
// no hook set, standard priority order always wins regardless of spawn
// order, confirming the override in the test above actually changed
// something rather than coincidentally matching default behavior.
func TestRTHookNeverInstalledUsesStandardElection(t *testing.T) {
	k := newTestKernel()
	var order []string

	k.Run(func(k *Kernel) bool {
		k.Spawn(func(tk *Task) {
			order = append(order, "low")
			k.Shutdown()
		}, 4096, PrioLow)

		k.Spawn(func(tk *Task) {
			order = append(order, "high")
		}, 4096, PrioHigh)
		return true
	})

	require.Equal(t, []string{"high", "low"}, order)
}
