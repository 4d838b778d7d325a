package rcc

import (
	"stm32f3hal-go/errcode"
	"stm32f3hal-go/flash"
	"stm32f3hal-go/freq"
	"stm32f3hal-go/x/fmtx"
)

// Plan is the mutable clock configuration builder. Zero knobs mean the
// reset configuration: HSI as SYSCLK, every divider at 1, no PLL.
//
// A plan bound to hardware (from (*RCC).Plan) can be frozen once; the
// commit consumes it whether the hardware sequence succeeds or not.
// Validation failures happen before any register write and leave the
// plan usable, so a rejected configuration can be corrected and
// resubmitted.
type Plan struct {
	lim Limits
	rcc *RCC // nil for detached planning

	consumed bool

	hse     *hseDecl
	pll     *pllDecl
	src     Source
	ahbDiv  uint32
	apb1Div uint32
	apb2Div uint32
	needUsb bool
}

// NewPlan builds a detached plan against a limits table. Detached plans
// validate but cannot freeze; they serve host tools and tests.
func NewPlan(lim Limits) *Plan {
	return &Plan{lim: lim, ahbDiv: 1, apb1Div: 1, apb2Div: 1}
}

func (p *Plan) guard(op string) error {
	if p.consumed {
		return &errcode.E{C: errcode.Consumed, Op: op}
	}
	return nil
}

// UseHSI drops any external source declaration and keeps the internal
// 8 MHz RC as the oscillator pool.
func (p *Plan) UseHSI() error {
	if err := p.guard("rcc.plan.hsi"); err != nil {
		return err
	}
	p.hse = nil
	return nil
}

// UseHSE declares an external crystal of the given frequency. The value
// is range-checked at validation; the hardware has no way to verify it.
func (p *Plan) UseHSE(f freq.Hertz) error {
	if err := p.guard("rcc.plan.hse"); err != nil {
		return err
	}
	p.hse = &hseDecl{freq: f}
	return nil
}

// UseHSEBypass declares an externally driven clock on the OSC_IN pin,
// skipping the crystal driver.
func (p *Plan) UseHSEBypass(f freq.Hertz) error {
	if err := p.guard("rcc.plan.hse"); err != nil {
		return err
	}
	p.hse = &hseDecl{freq: f, bypass: true}
	return nil
}

// PLL requests the PLL with the given input branch, input divider and
// multiplier. Divider and multiplier are enumerated hardware fields and
// are rejected here, before validation. On variants without the HSI
// prediv path the HSI input is fixed to /2 and prediv must be 2.
func (p *Plan) PLL(src PllSource, prediv, mul uint32) error {
	const op = "rcc.plan.pll"
	if err := p.guard(op); err != nil {
		return err
	}
	switch src {
	case PllSrcHSI, PllSrcHSE:
	default:
		return &errcode.E{C: errcode.BadConfig, Op: op, Msg: "unknown pll source"}
	}
	if prediv < 1 || prediv > p.lim.PredivMax {
		return &errcode.E{C: errcode.InvalidPrescaler, Op: op,
			Msg: fmtx.Sprintf("prediv %d outside 1..%d", prediv, p.lim.PredivMax)}
	}
	if src == PllSrcHSI && !p.lim.PllHsiPrediv && prediv != 2 {
		return &errcode.E{C: errcode.InvalidPrescaler, Op: op,
			Msg: "hsi pll input is fixed to /2 on this variant"}
	}
	if mul < p.lim.PllMulMin || mul > p.lim.PllMulMax {
		return &errcode.E{C: errcode.InvalidMultiplier, Op: op,
			Msg: fmtx.Sprintf("mul %d outside %d..%d", mul, p.lim.PllMulMin, p.lim.PllMulMax)}
	}
	p.pll = &pllDecl{src: src, prediv: prediv, mul: mul}
	return nil
}

// Sysclk selects the system clock source. The referenced oscillator or
// PLL must have been declared by freeze time.
func (p *Plan) Sysclk(src Source) error {
	const op = "rcc.plan.sysclk"
	if err := p.guard(op); err != nil {
		return err
	}
	switch src {
	case SourceHSI, SourceHSE, SourcePLL:
	default:
		return &errcode.E{C: errcode.BadConfig, Op: op, Msg: "unknown source"}
	}
	p.src = src
	return nil
}

// AHBDiv sets the SYSCLK to HCLK divider. Only values from the variant
// table are accepted.
func (p *Plan) AHBDiv(d uint32) error {
	const op = "rcc.plan.ahb"
	if err := p.guard(op); err != nil {
		return err
	}
	if _, ok := findStep(p.lim.AhbDividers, d); !ok {
		return &errcode.E{C: errcode.InvalidPrescaler, Op: op,
			Msg: fmtx.Sprintf("ahb divider %d not in table", d)}
	}
	p.ahbDiv = d
	return nil
}

// APB1Div sets the HCLK to PCLK1 divider.
func (p *Plan) APB1Div(d uint32) error {
	const op = "rcc.plan.apb1"
	if err := p.guard(op); err != nil {
		return err
	}
	if _, ok := findStep(p.lim.ApbDividers, d); !ok {
		return &errcode.E{C: errcode.InvalidPrescaler, Op: op,
			Msg: fmtx.Sprintf("apb1 divider %d not in table", d)}
	}
	p.apb1Div = d
	return nil
}

// APB2Div sets the HCLK to PCLK2 divider.
func (p *Plan) APB2Div(d uint32) error {
	const op = "rcc.plan.apb2"
	if err := p.guard(op); err != nil {
		return err
	}
	if _, ok := findStep(p.lim.ApbDividers, d); !ok {
		return &errcode.E{C: errcode.InvalidPrescaler, Op: op,
			Msg: fmtx.Sprintf("apb2 divider %d not in table", d)}
	}
	p.apb2Div = d
	return nil
}

// RequireUSB makes validation fail unless the plan yields an exact
// 48 MHz USB clock on a variant that has the peripheral.
func (p *Plan) RequireUSB() error {
	if err := p.guard("rcc.plan.usb"); err != nil {
		return err
	}
	p.needUsb = true
	return nil
}

// Freeze validates the plan and, when it holds, runs the hardware
// sequence and returns the resulting clock tree. Only plans obtained
// from a RCC handle can freeze.
func (p *Plan) Freeze(acr *flash.ACR) (Clocks, error) {
	const op = "rcc.freeze"
	if err := p.guard(op); err != nil {
		return Clocks{}, err
	}
	if p.rcc == nil {
		return Clocks{}, &errcode.E{C: errcode.Unavailable, Op: op, Msg: "plan not bound to hardware"}
	}
	if acr == nil {
		return Clocks{}, &errcode.E{C: errcode.BadConfig, Op: op, Msg: "nil flash handle"}
	}
	vp, err := p.Validate()
	if err != nil {
		return Clocks{}, err
	}
	p.consumed = true
	if err := commit(p.rcc.regs, acr, vp); err != nil {
		return Clocks{}, err
	}
	p.rcc.frozen = true
	p.rcc.clocks = vp.Clocks
	return vp.Clocks, nil
}
