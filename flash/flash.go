// Package flash controls the flash access controller. The clock
// sequencer owns the wait-state setting during a clock switch; prefetch
// is left to the application.
package flash

import "stm32f3hal-go/mmio"

// ACR register bits.
const (
	acrLatencyMask = 0x7
	acrLatencyPos  = 0

	acrPrftbe = 1 << 4
	acrPrftbs = 1 << 5
)

// ACR is the access control register handle.
type ACR struct {
	reg mmio.Reg32
}

// NewACR wraps a register, simulated or real.
func NewACR(reg mmio.Reg32) *ACR { return &ACR{reg: reg} }

// WaitStates reads the programmed latency.
func (a *ACR) WaitStates() uint8 {
	return uint8(mmio.Field(a.reg.Get(), acrLatencyMask, acrLatencyPos))
}

// SetWaitStates programs the latency field. The sequencer only passes
// values from the variant table (0..2 on this family).
func (a *ACR) SetWaitStates(ws uint8) {
	a.reg.ReplaceBits(uint32(ws)&acrLatencyMask, acrLatencyMask, acrLatencyPos)
}

// EnablePrefetch turns the prefetch buffer on. Recommended whenever the
// latency is nonzero.
func (a *ACR) EnablePrefetch() { a.reg.SetBits(acrPrftbe) }

// DisablePrefetch turns the prefetch buffer off.
func (a *ACR) DisablePrefetch() { a.reg.ClearBits(acrPrftbe) }

// PrefetchEnabled reports the prefetch buffer status flag.
func (a *ACR) PrefetchEnabled() bool { return a.reg.HasBits(acrPrftbs) }
