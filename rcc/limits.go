package rcc

import "stm32f3hal-go/freq"

// PrescalerStep is one legal divider with its register encoding.
type PrescalerStep struct {
	Div  uint32
	bits uint32
}

// WaitStateStep maps a wait-state count to the highest system clock it
// is safe at. Tables are ordered by ascending frequency.
type WaitStateStep struct {
	MaxSysclk freq.Hertz
	WS        uint8
}

// Limits carries every per-variant electrical and structural bound the
// planner checks against. Values are plain data fixed at compile time;
// nothing here touches hardware.
type Limits struct {
	Variant string

	SysclkMax freq.Hertz
	AhbMax    freq.Hertz
	Apb1Max   freq.Hertz
	Apb2Max   freq.Hertz

	HseMin       freq.Hertz // crystal mode lower bound
	HseMax       freq.Hertz
	HseBypassMin freq.Hertz

	PllInMin  freq.Hertz
	PllInMax  freq.Hertz
	PllOutMin freq.Hertz
	PllOutMax freq.Hertz
	PllMulMin uint32
	PllMulMax uint32
	PredivMax uint32

	FlashWaitStates []WaitStateStep

	AhbDividers []PrescalerStep
	ApbDividers []PrescalerStep

	HasUsb       bool
	PllHsiPrediv bool // PLL may take HSI through PREDIV instead of the fixed /2
}

// findStep looks d up in an enumerated divider table.
func findStep(table []PrescalerStep, d uint32) (PrescalerStep, bool) {
	for _, s := range table {
		if s.Div == d {
			return s, true
		}
	}
	return PrescalerStep{}, false
}

// waitStatesFor picks the smallest latency whose ceiling covers sysclk.
func (l *Limits) waitStatesFor(sysclk freq.Hertz) (uint8, bool) {
	for _, s := range l.FlashWaitStates {
		if sysclk <= s.MaxSysclk {
			return s.WS, true
		}
	}
	return 0, false
}

// Shared F3 tables. The HPRE encoding skips /32; that gap is hardware,
// not a table typo.
func f3AhbDividers() []PrescalerStep {
	return []PrescalerStep{
		{1, 0x0}, {2, 0x8}, {4, 0x9}, {8, 0xA}, {16, 0xB},
		{64, 0xC}, {128, 0xD}, {256, 0xE}, {512, 0xF},
	}
}

func f3ApbDividers() []PrescalerStep {
	return []PrescalerStep{
		{1, 0x0}, {2, 0x4}, {4, 0x5}, {8, 0x6}, {16, 0x7},
	}
}

func f3WaitStates() []WaitStateStep {
	return []WaitStateStep{
		{freq.MHz(24), 0},
		{freq.MHz(48), 1},
		{freq.MHz(72), 2},
	}
}

// f3Limits is the family baseline; per-variant constructors adjust the
// capability flags.
func f3Limits(variant string) Limits {
	return Limits{
		Variant: variant,

		SysclkMax: freq.MHz(72),
		AhbMax:    freq.MHz(72),
		Apb1Max:   freq.MHz(36),
		Apb2Max:   freq.MHz(72),

		HseMin:       freq.MHz(4),
		HseMax:       freq.MHz(32),
		HseBypassMin: freq.MHz(1),

		PllInMin:  freq.MHz(1),
		PllInMax:  freq.MHz(24),
		PllOutMin: freq.MHz(16),
		PllOutMax: freq.MHz(72),
		PllMulMin: 2,
		PllMulMax: 16,
		PredivMax: 16,

		FlashWaitStates: f3WaitStates(),
		AhbDividers:     f3AhbDividers(),
		ApbDividers:     f3ApbDividers(),
	}
}
