// Package rcc configures the reset and clock control block: it plans a
// clock tree against per-variant limits, validates it without touching
// hardware, commits it through an ordered register sequence, and hands
// out the frozen tree plus the bus clock gates peripherals hang off.
package rcc

import (
	"sync"

	"stm32f3hal-go/errcode"
)

// RCC is the unique handle on the clock control block. Obtain it once
// via Take on device builds or Bind against a simulated bank.
type RCC struct {
	regs *Registers
	lim  Limits

	ahb  AHB
	apb1 APB1
	apb2 APB2

	frozen bool
	clocks Clocks
}

var (
	takeMu    sync.Mutex
	takenOnce bool
)

// take enforces single ownership of the hardware bank.
func take(regs *Registers, lim Limits) (*RCC, error) {
	takeMu.Lock()
	defer takeMu.Unlock()
	if takenOnce {
		return nil, &errcode.E{C: errcode.Taken, Op: "rcc.take"}
	}
	takenOnce = true
	return newRCC(regs, lim), nil
}

func newRCC(regs *Registers, lim Limits) *RCC {
	r := &RCC{regs: regs, lim: lim}
	r.ahb = AHB{gate{enr: regs.AHBENR, rstr: regs.AHBRSTR}}
	r.apb1 = APB1{gate{enr: regs.APB1ENR, rstr: regs.APB1RSTR}}
	r.apb2 = APB2{gate{enr: regs.APB2ENR, rstr: regs.APB2RSTR}}
	return r
}

// Bind wraps an arbitrary register bank, usually a simulated one from
// NewSimRegisters. Unlike Take it may be called freely; each bound bank
// is its own little device.
func Bind(regs *Registers, lim Limits) *RCC {
	return newRCC(regs, lim)
}

// Plan starts a clock configuration against this handle. The returned
// plan freezes into this device. Planning after a successful freeze is
// refused; the tree is configured once at startup.
func (r *RCC) Plan() (*Plan, error) {
	if r.frozen {
		return nil, &errcode.E{C: errcode.Consumed, Op: "rcc.plan", Msg: "clock tree already frozen"}
	}
	p := NewPlan(r.lim)
	p.rcc = r
	return p, nil
}

// Limits returns the variant table this handle was built with.
func (r *RCC) Limits() Limits { return r.lim }

// Clocks returns the frozen tree. The second result is false before a
// successful freeze.
func (r *RCC) Clocks() (Clocks, bool) { return r.clocks, r.frozen }

// AHBBus returns the AHB clock gate.
func (r *RCC) AHBBus() *AHB { return &r.ahb }

// APB1Bus returns the APB1 clock gate.
func (r *RCC) APB1Bus() *APB1 { return &r.apb1 }

// APB2Bus returns the APB2 clock gate.
func (r *RCC) APB2Bus() *APB2 { return &r.apb2 }

// I2CKernel selects the kernel clock for an I2C block: the fixed 8 MHz
// HSI (reset default) or SYSCLK. Index is 1..3; variants without the
// third block simply have no consumer for it.
type I2CKernel uint8

const (
	I2CKernelHSI I2CKernel = iota
	I2CKernelSysclk
)

// SetI2CKernel programs the CFGR3 source mux for the given I2C block.
func (r *RCC) SetI2CKernel(block int, k I2CKernel) error {
	const op = "rcc.i2c_kernel"
	var bit uint32
	switch block {
	case 1:
		bit = cfgr3I2C1SW
	case 2:
		bit = cfgr3I2C2SW
	case 3:
		bit = cfgr3I2C3SW
	default:
		return &errcode.E{C: errcode.BadConfig, Op: op, Msg: "i2c block index outside 1..3"}
	}
	switch k {
	case I2CKernelHSI:
		r.regs.CFGR3.ClearBits(bit)
	case I2CKernelSysclk:
		r.regs.CFGR3.SetBits(bit)
	default:
		return &errcode.E{C: errcode.BadConfig, Op: op, Msg: "unknown kernel selection"}
	}
	return nil
}
