package rcc

import (
	"testing"

	"stm32f3hal-go/errcode"
	"stm32f3hal-go/flash"
	"stm32f3hal-go/freq"
	"stm32f3hal-go/mmio"
)

// simBank models the reactive parts of the clock hardware: ready flags
// that follow their enable bits after a few polls, and a status field
// that follows the switch request. Every write is logged so tests can
// assert ordering.

type simWrite struct {
	reg string
	val uint32
}

type simBank struct {
	vals map[string]uint32
	log  []simWrite

	hseDelay int // polls until HSERDY after HSEON
	pllDelay int // polls until PLLRDY after PLLON
	swsDelay int // polls until SWS follows SW

	hseDead bool
	pllDead bool
	swsDead bool
}

func newSimBank() *simBank {
	b := &simBank{vals: map[string]uint32{}}
	b.vals["CR"] = crHSION | crHSIRDY | 0x80
	return b
}

func (b *simBank) read(name string) uint32 {
	v := b.vals[name]
	switch name {
	case "CR":
		if v&crHSION != 0 {
			v |= crHSIRDY
		} else {
			v &^= crHSIRDY
		}
		if v&crHSEON != 0 && !b.hseDead {
			if b.hseDelay > 0 {
				b.hseDelay--
			} else {
				v |= crHSERDY
			}
		} else {
			v &^= crHSERDY
		}
		if v&crPLLON != 0 && !b.pllDead {
			if b.pllDelay > 0 {
				b.pllDelay--
			} else {
				v |= crPLLRDY
			}
		} else {
			v &^= crPLLRDY
		}
	case "CFGR":
		if !b.swsDead {
			if b.swsDelay > 0 {
				b.swsDelay--
			} else {
				sw := mmio.Field(v, cfgrSWMask, cfgrSWPos)
				v = v&^(uint32(cfgrSWSMask)<<cfgrSWSPos) | sw<<cfgrSWSPos
			}
		}
	}
	b.vals[name] = v
	return v
}

func (b *simBank) write(name string, v uint32) {
	b.vals[name] = v
	b.log = append(b.log, simWrite{name, v})
}

// modelReg adapts one named register of the bank to mmio.Reg32.
type modelReg struct {
	b    *simBank
	name string
}

func (r modelReg) Get() uint32              { return r.b.read(r.name) }
func (r modelReg) Set(v uint32)             { r.b.write(r.name, v) }
func (r modelReg) SetBits(mask uint32)      { r.b.write(r.name, r.b.read(r.name)|mask) }
func (r modelReg) ClearBits(mask uint32)    { r.b.write(r.name, r.b.read(r.name)&^mask) }
func (r modelReg) HasBits(mask uint32) bool { return r.b.read(r.name)&mask != 0 }
func (r modelReg) ReplaceBits(value, mask uint32, pos uint8) {
	r.b.write(r.name, r.b.read(r.name)&^(mask<<pos)|value<<pos)
}

var _ mmio.Reg32 = modelReg{}

func (b *simBank) registers() *Registers {
	return &Registers{
		CR:       modelReg{b, "CR"},
		CFGR:     modelReg{b, "CFGR"},
		CIR:      modelReg{b, "CIR"},
		APB2RSTR: modelReg{b, "APB2RSTR"},
		APB1RSTR: modelReg{b, "APB1RSTR"},
		AHBENR:   modelReg{b, "AHBENR"},
		APB2ENR:  modelReg{b, "APB2ENR"},
		APB1ENR:  modelReg{b, "APB1ENR"},
		BDCR:     modelReg{b, "BDCR"},
		CSR:      modelReg{b, "CSR"},
		AHBRSTR:  modelReg{b, "AHBRSTR"},
		CFGR2:    modelReg{b, "CFGR2"},
		CFGR3:    modelReg{b, "CFGR3"},
	}
}

func (b *simBank) acr() *flash.ACR { return flash.NewACR(modelReg{b, "ACR"}) }

// firstWrite returns the log index of the first write matching the
// predicate, or -1.
func (b *simBank) firstWrite(match func(simWrite) bool) int {
	for i, w := range b.log {
		if match(w) {
			return i
		}
	}
	return -1
}

func swWriteTo(want uint32) func(simWrite) bool {
	return func(w simWrite) bool {
		return w.reg == "CFGR" && mmio.Field(w.val, cfgrSWMask, cfgrSWPos) == want
	}
}

func acrWriteTo(ws uint32) func(simWrite) bool {
	return func(w simWrite) bool {
		return w.reg == "ACR" && w.val&0x7 == ws
	}
}

func mustPlan(t *testing.T, r *RCC) *Plan {
	t.Helper()
	p, err := r.Plan()
	if err != nil {
		t.Fatalf("Plan error: %v", err)
	}
	return p
}

func TestCommit_HsiToPll72_StrictBeforeSwitch(t *testing.T) {
	b := newSimBank()
	b.hseDelay, b.pllDelay, b.swsDelay = 3, 5, 2
	r := Bind(b.registers(), LimitsSTM32F303xC())

	p := mustPlan(t, r)
	if err := p.UseHSE(freq.MHz(8)); err != nil {
		t.Fatalf("UseHSE: %v", err)
	}
	if err := p.PLL(PllSrcHSE, 1, 9); err != nil {
		t.Fatalf("PLL: %v", err)
	}
	if err := p.Sysclk(SourcePLL); err != nil {
		t.Fatalf("Sysclk: %v", err)
	}
	if err := p.APB1Div(2); err != nil {
		t.Fatalf("APB1Div: %v", err)
	}

	clocks, err := p.Freeze(b.acr())
	if err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	if clocks.Sysclk() != freq.MHz(72) {
		t.Fatalf("sysclk = %v, want 72 MHz", clocks.Sysclk())
	}
	if clocks.Pclk1() != freq.MHz(36) {
		t.Fatalf("pclk1 = %v, want 36 MHz", clocks.Pclk1())
	}
	if clocks.Tclk1() != freq.MHz(72) {
		t.Fatalf("tclk1 = %v, want 72 MHz (doubled)", clocks.Tclk1())
	}
	if usb, ok := clocks.UsbClk(); !ok || usb != freq.MHz(48) {
		t.Fatalf("usb = %v/%t, want 48 MHz", usb, ok)
	}

	// Final register picture.
	cfgr := b.vals["CFGR"]
	if got := mmio.Field(cfgr, cfgrSWSMask, cfgrSWSPos); got != swPLL {
		t.Fatalf("SWS = %d, want pll", got)
	}
	if got := mmio.Field(cfgr, cfgrPLLMULMask, cfgrPLLMULPos); got != 9-2 {
		t.Fatalf("PLLMUL = %d, want %d", got, 9-2)
	}
	if got := mmio.Field(cfgr, cfgrPLLSRCMask, cfgrPLLSRCPos); got != pllsrcHSEPrediv {
		t.Fatalf("PLLSRC = %d, want hse", got)
	}
	if cfgr&cfgrUSBPRE != 0 {
		t.Fatal("USBPRE set; 72 MHz PLL must use the /1.5 path")
	}
	if got := b.vals["ACR"] & 0x7; got != 2 {
		t.Fatalf("flash latency = %d, want 2", got)
	}

	// Ordering: wait states and the tighter APB1 divider precede the
	// switch; oscillator precedes PLL enable.
	swIdx := b.firstWrite(swWriteTo(swPLL))
	if swIdx < 0 {
		t.Fatal("no switch write logged")
	}
	if i := b.firstWrite(acrWriteTo(2)); i < 0 || i > swIdx {
		t.Fatalf("latency write at %d, switch at %d; want latency first", i, swIdx)
	}
	ppre1 := b.firstWrite(func(w simWrite) bool {
		return w.reg == "CFGR" && mmio.Field(w.val, cfgrPPRE1Mask, cfgrPPRE1Pos) == 0x4
	})
	if ppre1 < 0 || ppre1 > swIdx {
		t.Fatalf("ppre1 write at %d, switch at %d; want divider first", ppre1, swIdx)
	}
	hseOn := b.firstWrite(func(w simWrite) bool { return w.reg == "CR" && w.val&crHSEON != 0 })
	pllOn := b.firstWrite(func(w simWrite) bool { return w.reg == "CR" && w.val&crPLLON != 0 })
	if hseOn < 0 || pllOn < 0 || hseOn > pllOn {
		t.Fatalf("hse enable at %d, pll enable at %d; want oscillator first", hseOn, pllOn)
	}
}

func TestCommit_LoweringRelaxesAfterSwitch(t *testing.T) {
	b := newSimBank()
	// Device already running at 72 MHz from the PLL with 2 wait states.
	b.vals["CR"] = crHSION | crHSIRDY | crHSEON | crHSERDY | crPLLON | crPLLRDY
	b.vals["CFGR"] = swPLL<<cfgrSWPos | swPLL<<cfgrSWSPos | 0x4<<cfgrPPRE1Pos |
		(9-2)<<cfgrPLLMULPos | pllsrcHSEPrediv<<cfgrPLLSRCPos
	b.vals["ACR"] = 2
	r := Bind(b.registers(), LimitsSTM32F303xC())

	p := mustPlan(t, r)
	if err := p.Sysclk(SourceHSI); err != nil {
		t.Fatalf("Sysclk: %v", err)
	}
	clocks, err := p.Freeze(b.acr())
	if err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	if clocks.Sysclk() != freq.MHz(8) {
		t.Fatalf("sysclk = %v, want 8 MHz", clocks.Sysclk())
	}

	swIdx := b.firstWrite(swWriteTo(swHSI))
	wsIdx := b.firstWrite(acrWriteTo(0))
	if swIdx < 0 || wsIdx < 0 {
		t.Fatalf("missing writes: switch %d, latency %d", swIdx, wsIdx)
	}
	if wsIdx < swIdx {
		t.Fatalf("latency relaxed at %d before switch at %d", wsIdx, swIdx)
	}
	if got := b.vals["ACR"] & 0x7; got != 0 {
		t.Fatalf("final latency = %d, want 0", got)
	}
}

func TestCommit_DeadCrystalTimesOut(t *testing.T) {
	b := newSimBank()
	b.hseDead = true
	r := Bind(b.registers(), LimitsSTM32F303xC())

	p := mustPlan(t, r)
	if err := p.UseHSE(freq.MHz(8)); err != nil {
		t.Fatalf("UseHSE: %v", err)
	}
	if err := p.Sysclk(SourceHSE); err != nil {
		t.Fatalf("Sysclk: %v", err)
	}
	_, err := p.Freeze(b.acr())
	if errcode.Of(err) != errcode.OscStartupTimeout {
		t.Fatalf("err = %v, want osc startup timeout", err)
	}
	// The active clock was never touched.
	if i := b.firstWrite(swWriteTo(swHSE)); i >= 0 {
		t.Fatalf("switch write logged at %d despite dead crystal", i)
	}
	if got := mmio.Field(b.vals["CFGR"], cfgrSWSMask, cfgrSWSPos); got != swHSI {
		t.Fatalf("SWS = %d, want hsi", got)
	}
}

func TestCommit_PllNeverLocks(t *testing.T) {
	b := newSimBank()
	b.pllDead = true
	r := Bind(b.registers(), LimitsSTM32F303xC())

	p := mustPlan(t, r)
	if err := p.UseHSE(freq.MHz(8)); err != nil {
		t.Fatalf("UseHSE: %v", err)
	}
	if err := p.PLL(PllSrcHSE, 1, 9); err != nil {
		t.Fatalf("PLL: %v", err)
	}
	if err := p.Sysclk(SourcePLL); err != nil {
		t.Fatalf("Sysclk: %v", err)
	}
	_, err := p.Freeze(b.acr())
	if errcode.Of(err) != errcode.PllLockTimeout {
		t.Fatalf("err = %v, want pll lock timeout", err)
	}
	if i := b.firstWrite(swWriteTo(swPLL)); i >= 0 {
		t.Fatalf("switch write logged at %d despite unlocked pll", i)
	}
}

func TestCommit_SwitchNeverTakes(t *testing.T) {
	b := newSimBank()
	b.swsDead = true
	r := Bind(b.registers(), LimitsSTM32F303xC())

	p := mustPlan(t, r)
	if err := p.UseHSE(freq.MHz(8)); err != nil {
		t.Fatalf("UseHSE: %v", err)
	}
	if err := p.Sysclk(SourceHSE); err != nil {
		t.Fatalf("Sysclk: %v", err)
	}
	_, err := p.Freeze(b.acr())
	if errcode.Of(err) != errcode.ClockSwitchTimeout {
		t.Fatalf("err = %v, want clock switch timeout", err)
	}
	if got := mmio.Field(b.vals["CFGR"], cfgrSWSMask, cfgrSWSPos); got != swHSI {
		t.Fatalf("SWS = %d; device should still report the prior source", got)
	}
}

func TestCommit_ParksOnHsiBeforeReprogrammingActivePll(t *testing.T) {
	b := newSimBank()
	b.vals["CR"] = crHSION | crHSIRDY | crHSEON | crHSERDY | crPLLON | crPLLRDY
	b.vals["CFGR"] = swPLL<<cfgrSWPos | swPLL<<cfgrSWSPos | 0x4<<cfgrPPRE1Pos |
		(9-2)<<cfgrPLLMULPos | pllsrcHSEPrediv<<cfgrPLLSRCPos
	b.vals["ACR"] = 2
	r := Bind(b.registers(), LimitsSTM32F303xC())

	// Re-lock the PLL at 48 MHz from the same crystal.
	p := mustPlan(t, r)
	if err := p.UseHSE(freq.MHz(8)); err != nil {
		t.Fatalf("UseHSE: %v", err)
	}
	if err := p.PLL(PllSrcHSE, 1, 6); err != nil {
		t.Fatalf("PLL: %v", err)
	}
	if err := p.Sysclk(SourcePLL); err != nil {
		t.Fatalf("Sysclk: %v", err)
	}
	if err := p.APB1Div(2); err != nil {
		t.Fatalf("APB1Div: %v", err)
	}
	clocks, err := p.Freeze(b.acr())
	if err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	if clocks.Sysclk() != freq.MHz(48) {
		t.Fatalf("sysclk = %v, want 48 MHz", clocks.Sysclk())
	}

	park := b.firstWrite(swWriteTo(swHSI))
	pllOff := b.firstWrite(func(w simWrite) bool { return w.reg == "CR" && w.val&crPLLON == 0 })
	final := b.firstWrite(swWriteTo(swPLL))
	if park < 0 || pllOff < 0 || final < 0 {
		t.Fatalf("missing writes: park %d, pll off %d, final %d", park, pllOff, final)
	}
	if !(park < pllOff && pllOff < final) {
		t.Fatalf("order park=%d pllOff=%d final=%d; want park < pll off < switch", park, pllOff, final)
	}
	if got := b.vals["ACR"] & 0x7; got != 1 {
		t.Fatalf("final latency = %d, want 1 for 48 MHz", got)
	}
}

func TestCommit_BypassFlipStopsHseFirst(t *testing.T) {
	b := newSimBank()
	b.vals["CR"] = crHSION | crHSIRDY | crHSEON | crHSERDY // crystal mode, running
	r := Bind(b.registers(), LimitsSTM32F303xC())

	p := mustPlan(t, r)
	if err := p.UseHSEBypass(freq.MHz(16)); err != nil {
		t.Fatalf("UseHSEBypass: %v", err)
	}
	if err := p.Sysclk(SourceHSE); err != nil {
		t.Fatalf("Sysclk: %v", err)
	}
	if _, err := p.Freeze(b.acr()); err != nil {
		t.Fatalf("Freeze: %v", err)
	}

	off := b.firstWrite(func(w simWrite) bool { return w.reg == "CR" && w.val&crHSEON == 0 })
	byp := b.firstWrite(func(w simWrite) bool { return w.reg == "CR" && w.val&crHSEBYP != 0 })
	if off < 0 || byp < 0 || off > byp {
		t.Fatalf("hse stop at %d, bypass set at %d; want stop first", off, byp)
	}
	if b.vals["CR"]&crHSEBYP == 0 {
		t.Fatal("bypass bit not set")
	}
}

func TestCommit_Usb48SetsDiv1Prescaler(t *testing.T) {
	b := newSimBank()
	r := Bind(b.registers(), LimitsSTM32F303xC())

	p := mustPlan(t, r)
	if err := p.UseHSE(freq.MHz(8)); err != nil {
		t.Fatalf("UseHSE: %v", err)
	}
	if err := p.PLL(PllSrcHSE, 1, 6); err != nil {
		t.Fatalf("PLL: %v", err)
	}
	if err := p.Sysclk(SourcePLL); err != nil {
		t.Fatalf("Sysclk: %v", err)
	}
	if err := p.APB1Div(2); err != nil {
		t.Fatalf("APB1Div: %v", err)
	}
	if err := p.RequireUSB(); err != nil {
		t.Fatalf("RequireUSB: %v", err)
	}
	clocks, err := p.Freeze(b.acr())
	if err != nil {
		t.Fatalf("Freeze: %v", err)
	}
	if usb, ok := clocks.UsbClk(); !ok || usb != freq.MHz(48) {
		t.Fatalf("usb = %v/%t", usb, ok)
	}
	if b.vals["CFGR"]&cfgrUSBPRE == 0 {
		t.Fatal("USBPRE clear; 48 MHz PLL must use the /1 path")
	}
}
