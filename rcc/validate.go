package rcc

import (
	"stm32f3hal-go/errcode"
	"stm32f3hal-go/freq"
	"stm32f3hal-go/x/fmtx"
	"stm32f3hal-go/x/mathx"
)

// ValidatedPlan is the outcome of a successful validation: the full
// derived clock tree plus everything the sequencer needs to program the
// hardware. It is a pure value; building one touches no registers.
type ValidatedPlan struct {
	Clocks     Clocks
	WaitStates uint8
	UsbValid   bool

	// register encodings
	sw          uint32
	hpre        uint32
	ppre1       uint32
	ppre2       uint32
	usesHse     bool
	hseBypass   bool
	usesPll     bool
	pllsrc      uint32
	writePrediv bool
	prediv      uint32
	pllmul      uint32
	usbpreDiv1  bool

	// divider values, kept for the stricter-first ordering
	ahbDiv  uint32
	apb1Div uint32
	apb2Div uint32
}

// Validate derives the full clock tree from the plan and checks every
// electrical bound from the variant table. It performs no hardware
// access and does not consume the plan.
func (p *Plan) Validate() (*ValidatedPlan, error) {
	const op = "rcc.validate"
	if err := p.guard(op); err != nil {
		return nil, err
	}
	lim := &p.lim
	vp := &ValidatedPlan{
		ahbDiv:  p.ahbDiv,
		apb1Div: p.apb1Div,
		apb2Div: p.apb2Div,
	}

	// 1. External source declaration, when present.
	if p.hse != nil {
		lo := lim.HseMin
		if p.hse.bypass {
			lo = lim.HseBypassMin
		}
		if !mathx.Between(p.hse.freq, lo, lim.HseMax) {
			return nil, &errcode.E{C: errcode.FrequencyOutOfRange, Op: op,
				Msg: fmtx.Sprintf("hse %s outside %s..%s", p.hse.freq, lo, lim.HseMax)}
		}
		vp.usesHse = true
		vp.hseBypass = p.hse.bypass
	}

	// 2/3. PLL input and output.
	var pllOut freq.Hertz
	if p.pll != nil {
		var in freq.Hertz
		var err error
		switch p.pll.src {
		case PllSrcHSI:
			in, err = hsiFreq.DivExact(p.pll.prediv)
			if lim.PllHsiPrediv {
				vp.pllsrc = pllsrcHSIPrediv
				vp.writePrediv = true
			} else {
				vp.pllsrc = pllsrcHSIDiv2
			}
		case PllSrcHSE:
			if p.hse == nil {
				return nil, &errcode.E{C: errcode.MissingSource, Op: op,
					Msg: "pll takes hse but none is declared"}
			}
			in, err = p.hse.freq.DivExact(p.pll.prediv)
			vp.pllsrc = pllsrcHSEPrediv
			vp.writePrediv = true
		}
		if err != nil {
			return nil, err
		}
		if !mathx.Between(in, lim.PllInMin, lim.PllInMax) {
			return nil, &errcode.E{C: errcode.FrequencyOutOfRange, Op: op,
				Msg: fmtx.Sprintf("pll input %s outside %s..%s", in, lim.PllInMin, lim.PllInMax)}
		}
		pllOut, err = in.Mul(p.pll.mul)
		if err != nil {
			return nil, err
		}
		if !mathx.Between(pllOut, lim.PllOutMin, lim.PllOutMax) {
			return nil, &errcode.E{C: errcode.FrequencyOutOfRange, Op: op,
				Msg: fmtx.Sprintf("pll output %s outside %s..%s", pllOut, lim.PllOutMin, lim.PllOutMax)}
		}
		vp.usesPll = true
		vp.prediv = p.pll.prediv - 1
		vp.pllmul = p.pll.mul - 2
	}

	// 4. SYSCLK source resolution.
	var sysclk freq.Hertz
	switch p.src {
	case SourceHSI:
		sysclk = hsiFreq
	case SourceHSE:
		if p.hse == nil {
			return nil, &errcode.E{C: errcode.MissingSource, Op: op,
				Msg: "sysclk takes hse but none is declared"}
		}
		sysclk = p.hse.freq
	case SourcePLL:
		if p.pll == nil {
			return nil, &errcode.E{C: errcode.MissingSource, Op: op,
				Msg: "sysclk takes pll but none is configured"}
		}
		sysclk = pllOut
	}
	if sysclk > lim.SysclkMax {
		return nil, &errcode.E{C: errcode.FrequencyOutOfRange, Op: op,
			Msg: fmtx.Sprintf("sysclk %s exceeds %s", sysclk, lim.SysclkMax)}
	}
	vp.sw = p.src.swBits()

	// 5. Bus clocks. Each division must land on a whole Hz.
	ahbStep, _ := findStep(lim.AhbDividers, p.ahbDiv)
	apb1Step, _ := findStep(lim.ApbDividers, p.apb1Div)
	apb2Step, _ := findStep(lim.ApbDividers, p.apb2Div)
	vp.hpre = ahbStep.bits
	vp.ppre1 = apb1Step.bits
	vp.ppre2 = apb2Step.bits

	hclk, err := sysclk.DivExact(p.ahbDiv)
	if err != nil {
		return nil, err
	}
	if hclk > lim.AhbMax {
		return nil, &errcode.E{C: errcode.FrequencyOutOfRange, Op: op,
			Msg: fmtx.Sprintf("hclk %s exceeds %s", hclk, lim.AhbMax)}
	}
	pclk1, err := hclk.DivExact(p.apb1Div)
	if err != nil {
		return nil, err
	}
	if pclk1 > lim.Apb1Max {
		return nil, &errcode.E{C: errcode.FrequencyOutOfRange, Op: op,
			Msg: fmtx.Sprintf("pclk1 %s exceeds %s", pclk1, lim.Apb1Max)}
	}
	pclk2, err := hclk.DivExact(p.apb2Div)
	if err != nil {
		return nil, err
	}
	if pclk2 > lim.Apb2Max {
		return nil, &errcode.E{C: errcode.FrequencyOutOfRange, Op: op,
			Msg: fmtx.Sprintf("pclk2 %s exceeds %s", pclk2, lim.Apb2Max)}
	}

	// 6. Flash wait states for the final SYSCLK.
	ws, ok := lim.waitStatesFor(sysclk)
	if !ok {
		return nil, &errcode.E{C: errcode.FrequencyOutOfRange, Op: op,
			Msg: fmtx.Sprintf("no wait-state entry covers %s", sysclk)}
	}
	vp.WaitStates = ws

	// 7. USB clock. The peripheral only runs from the PLL, through /1
	// or /1.5, and only at exactly 48 MHz.
	var usbclk freq.Hertz
	if vp.usesPll {
		switch pllOut {
		case freq.MHz(48):
			usbclk = freq.MHz(48)
			vp.usbpreDiv1 = true
			vp.UsbValid = true
		case freq.MHz(72):
			usbclk = freq.MHz(48)
			vp.UsbValid = true
		}
	}
	if p.needUsb {
		if !lim.HasUsb {
			return nil, &errcode.E{C: errcode.UsbClockUnavailable, Op: op,
				Msg: "variant has no usb peripheral"}
		}
		if !vp.UsbValid {
			return nil, &errcode.E{C: errcode.UsbClockUnavailable, Op: op,
				Msg: "pll output cannot produce exactly 48 MHz"}
		}
	}

	// 8. Timer kernel clocks: doubled when the APB prescaler is not 1.
	tclk1, err := timerClock(pclk1, p.apb1Div)
	if err != nil {
		return nil, err
	}
	tclk2, err := timerClock(pclk2, p.apb2Div)
	if err != nil {
		return nil, err
	}

	var pllClk freq.Hertz
	if vp.usesPll {
		pllClk = pllOut
	}
	vp.Clocks = Clocks{
		src:    p.src,
		sysclk: sysclk,
		hclk:   hclk,
		pclk1:  pclk1,
		pclk2:  pclk2,
		tclk1:  tclk1,
		tclk2:  tclk2,
		pllclk: pllClk,
		usbclk: usbclk,
	}
	return vp, nil
}

func timerClock(pclk freq.Hertz, div uint32) (freq.Hertz, error) {
	if div == 1 {
		return pclk, nil
	}
	return pclk.Mul(2)
}
