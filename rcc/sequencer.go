package rcc

import (
	"stm32f3hal-go/errcode"
	"stm32f3hal-go/flash"
	"stm32f3hal-go/mmio"
)

// Poll bounds are iteration counts, not wall time; there is no usable
// timebase while the tree is being switched. The HSE bound matches the
// family's reference startup count.
const (
	hseStartupCycles = 0x0500
	hsiStartupCycles = 0x0500
	pllLockCycles    = 0x2000
	switchCycles     = 0x1000
)

func waitSet(reg mmio.Reg32, mask uint32, cycles int) bool {
	for i := 0; i < cycles; i++ {
		if reg.HasBits(mask) {
			return true
		}
	}
	return false
}

func waitClear(reg mmio.Reg32, mask uint32, cycles int) bool {
	for i := 0; i < cycles; i++ {
		if !reg.HasBits(mask) {
			return true
		}
	}
	return false
}

func waitSws(reg mmio.Reg32, want uint32, cycles int) bool {
	for i := 0; i < cycles; i++ {
		if mmio.Field(reg.Get(), cfgrSWSMask, cfgrSWSPos) == want {
			return true
		}
	}
	return false
}

// decodeStep maps a register encoding back to its divider. Encodings
// with the top bit clear all mean "not divided".
func decodeStep(table []PrescalerStep, bits uint32) uint32 {
	for _, s := range table {
		if s.bits == bits {
			return s.Div
		}
	}
	return 1
}

// commit drives the hardware into the validated configuration.
//
// Ordering rule: the window between "old tree" and "new tree" runs with
// the stricter of the two settings everywhere: the larger divider on
// each bus and the higher wait-state count. Whichever direction the
// switch moves, no intermediate state can overspeed a bus or underwait
// the flash. After the switch the strict settings relax to the target.
//
// A failed wait returns with the system clock source untouched. Partly
// configured oscillator or PLL state may remain enabled; nothing routes
// it anywhere.
func commit(regs *Registers, acr *flash.ACR, vp *ValidatedPlan) error {
	const op = "rcc.commit"
	lim := limitsForDecode()

	// The internal RC stays on throughout: it is the parking source
	// while an active source is reprogrammed, and the fallback the
	// hardware would pick on a clock security event.
	regs.CR.SetBits(crHSION)
	if !waitSet(regs.CR, crHSIRDY, hsiStartupCycles) {
		return &errcode.E{C: errcode.OscStartupTimeout, Op: op, Msg: "hsi not ready"}
	}

	// Park on HSI when the active source itself is being reprogrammed.
	sws := mmio.Field(regs.CFGR.Get(), cfgrSWSMask, cfgrSWSPos)
	bypassFlip := vp.usesHse && regs.CR.HasBits(crHSEBYP) != vp.hseBypass
	if (sws == swPLL && vp.usesPll) || (sws == swHSE && bypassFlip) {
		regs.CFGR.ReplaceBits(swHSI, cfgrSWMask, cfgrSWPos)
		if !waitSws(regs.CFGR, swHSI, switchCycles) {
			return &errcode.E{C: errcode.ClockSwitchTimeout, Op: op, Msg: "park on hsi"}
		}
	}

	// 1. External oscillator.
	if vp.usesHse {
		if bypassFlip {
			// BYP is writable only with the oscillator stopped.
			regs.CR.ClearBits(crHSEON)
			if !waitClear(regs.CR, crHSERDY, hseStartupCycles) {
				return &errcode.E{C: errcode.OscStartupTimeout, Op: op, Msg: "hse did not stop"}
			}
			if vp.hseBypass {
				regs.CR.SetBits(crHSEBYP)
			} else {
				regs.CR.ClearBits(crHSEBYP)
			}
		}
		regs.CR.SetBits(crHSEON)
		if !waitSet(regs.CR, crHSERDY, hseStartupCycles) {
			return &errcode.E{C: errcode.OscStartupTimeout, Op: op, Msg: "hse not ready"}
		}
	}

	// 2. PLL parameters change only while it is disabled.
	if vp.usesPll {
		regs.CR.ClearBits(crPLLON)
		if !waitClear(regs.CR, crPLLRDY, pllLockCycles) {
			return &errcode.E{C: errcode.PllLockTimeout, Op: op, Msg: "pll did not unlock"}
		}
		regs.CFGR.ReplaceBits(vp.pllsrc, cfgrPLLSRCMask, cfgrPLLSRCPos)
		regs.CFGR.ReplaceBits(vp.pllmul, cfgrPLLMULMask, cfgrPLLMULPos)
		if vp.writePrediv {
			regs.CFGR2.ReplaceBits(vp.prediv, cfgr2PREDIVMask, cfgr2PREDIVPos)
		}
		// USB prescaler rides along; it is inert until the USB
		// peripheral is clocked.
		if vp.usbpreDiv1 {
			regs.CFGR.SetBits(cfgrUSBPRE)
		} else {
			regs.CFGR.ClearBits(cfgrUSBPRE)
		}
		regs.CR.SetBits(crPLLON)
		if !waitSet(regs.CR, crPLLRDY, pllLockCycles) {
			return &errcode.E{C: errcode.PllLockTimeout, Op: op, Msg: "pll did not lock"}
		}
	}

	// 3. Strict window: higher wait states and larger dividers first.
	cfgr := regs.CFGR.Get()
	curAhb := decodeStep(lim.ahb, mmio.Field(cfgr, cfgrHPREMask, cfgrHPREPos))
	curApb1 := decodeStep(lim.apb, mmio.Field(cfgr, cfgrPPRE1Mask, cfgrPPRE1Pos))
	curApb2 := decodeStep(lim.apb, mmio.Field(cfgr, cfgrPPRE2Mask, cfgrPPRE2Pos))

	if ws := acr.WaitStates(); vp.WaitStates > ws {
		acr.SetWaitStates(vp.WaitStates)
	}
	if vp.ahbDiv > curAhb {
		regs.CFGR.ReplaceBits(vp.hpre, cfgrHPREMask, cfgrHPREPos)
	}
	if vp.apb1Div > curApb1 {
		regs.CFGR.ReplaceBits(vp.ppre1, cfgrPPRE1Mask, cfgrPPRE1Pos)
	}
	if vp.apb2Div > curApb2 {
		regs.CFGR.ReplaceBits(vp.ppre2, cfgrPPRE2Mask, cfgrPPRE2Pos)
	}

	// 4. Switch the system clock and confirm the mux took it.
	regs.CFGR.ReplaceBits(vp.sw, cfgrSWMask, cfgrSWPos)
	if !waitSws(regs.CFGR, vp.sw, switchCycles) {
		return &errcode.E{C: errcode.ClockSwitchTimeout, Op: op}
	}

	// 5. Relax to the target settings.
	regs.CFGR.ReplaceBits(vp.hpre, cfgrHPREMask, cfgrHPREPos)
	regs.CFGR.ReplaceBits(vp.ppre1, cfgrPPRE1Mask, cfgrPPRE1Pos)
	regs.CFGR.ReplaceBits(vp.ppre2, cfgrPPRE2Mask, cfgrPPRE2Pos)
	acr.SetWaitStates(vp.WaitStates)
	return nil
}

// limitsForDecode exposes only the family-fixed encoding tables; the
// sequencer never needs the electrical bounds.
type decodeTables struct {
	ahb []PrescalerStep
	apb []PrescalerStep
}

func limitsForDecode() decodeTables {
	return decodeTables{ahb: f3AhbDividers(), apb: f3ApbDividers()}
}
