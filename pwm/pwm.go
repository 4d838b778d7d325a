// Package pwm generates edge-aligned PWM on the general purpose and
// advanced timers. One Timer carries up to four channels that share a
// period and resolution but hold independent duty cycles:
//
//	tim := pwm.New(regs, pwm.Shape{Channels: 4}, bus, pwm.EnableTIM3)
//	err := tim.Configure(pwm.Config{
//		Tick:       clocks.Tclk1(),
//		Frequency:  freq.Hz(50),
//		Resolution: 9000,
//	})
//	ch, _ := tim.Channel(1)
//	ch.SetDuty(4500)
//	ch.Enable()
//
// Channel handles may be used from separate goroutines; writes to the
// shared register block go through the timer's lock.
package pwm

import (
	"sync"

	"stm32f3hal-go/errcode"
	"stm32f3hal-go/freq"
	"stm32f3hal-go/mmio"
	"stm32f3hal-go/x/mathx"
)

// Registers is the timer register block, reduced to the output-compare
// path.
type Registers struct {
	CR1   mmio.Reg32
	EGR   mmio.Reg32
	CCMR1 mmio.Reg32
	CCMR2 mmio.Reg32
	CCER  mmio.Reg32
	PSC   mmio.Reg32
	ARR   mmio.Reg32
	CCR1  mmio.Reg32
	CCR2  mmio.Reg32
	CCR3  mmio.Reg32
	CCR4  mmio.Reg32
	BDTR  mmio.Reg32
}

// NewSimRegisters builds a timer backed by plain memory.
func NewSimRegisters() *Registers {
	return &Registers{
		CR1:   &mmio.Reg{},
		EGR:   &mmio.Reg{},
		CCMR1: &mmio.Reg{},
		CCMR2: &mmio.Reg{},
		CCER:  &mmio.Reg{},
		PSC:   &mmio.Reg{},
		ARR:   &mmio.Reg{},
		CCR1:  &mmio.Reg{},
		CCR2:  &mmio.Reg{},
		CCR3:  &mmio.Reg{},
		CCR4:  &mmio.Reg{},
		BDTR:  &mmio.Reg{},
	}
}

const (
	cr1CEN  = 1 << 0
	cr1ARPE = 1 << 7

	egrUG = 1 << 0

	bdtrMOE = 1 << 15

	// OCxM value for PWM mode 1: active while the counter is below CCRx.
	ocModePwm1 = 0x6
)

// Peripheral clock enable and reset masks. TIM2/3/4 sit on APB1, the
// advanced and small timers on APB2.
const (
	EnableTIM2 = 1 << 0
	EnableTIM3 = 1 << 1
	EnableTIM4 = 1 << 2

	EnableTIM1  = 1 << 11
	EnableTIM8  = 1 << 13
	EnableTIM15 = 1 << 16
	EnableTIM16 = 1 << 17
	EnableTIM17 = 1 << 18
)

// Bus is the clock gate the timer hangs off, either of the APB gates.
type Bus interface {
	Enable(mask uint32)
	Reset(mask uint32)
}

// Shape describes the fixed hardware properties of one timer instance.
type Shape struct {
	Channels uint8 // output compare channels, 1, 2 or 4
	Break    bool  // advanced timer whose outputs sit behind the BDTR gate
	Wide     bool  // 32-bit counter
}

// Config sets the shared period for all channels of a timer.
type Config struct {
	// Tick is the timer kernel clock, Tclk1 or Tclk2 from the frozen
	// tree depending on the bus.
	Tick freq.Hertz
	// Frequency is the output period.
	Frequency freq.Hertz
	// Resolution is the number of duty steps per period and becomes
	// MaxDuty. 16-bit timers allow up to 65535.
	Resolution uint32
}

// Timer is one timer peripheral in PWM mode.
type Timer struct {
	mu    sync.Mutex
	regs  *Registers
	shape Shape
}

// New wraps a timer register block. When a bus gate is given the
// peripheral clock is enabled and the block is pulsed through reset, so
// it starts from a clean state.
func New(regs *Registers, shape Shape, bus Bus, en uint32) *Timer {
	if bus != nil {
		bus.Enable(en)
		bus.Reset(en)
	}
	return &Timer{regs: regs, shape: shape}
}

// Configure programs the prescaler and reload value for the requested
// period and starts the counter. The derivation is exact: Tick must be
// an integer multiple of Resolution times Frequency, and the resulting
// prescale factor must fit the 16-bit field.
func (t *Timer) Configure(cfg Config) error {
	const op = "pwm.configure"
	if cfg.Tick == 0 {
		return &errcode.E{C: errcode.MissingSource, Op: op, Msg: "timer kernel clock not given"}
	}
	if cfg.Frequency == 0 || cfg.Resolution == 0 {
		return &errcode.E{C: errcode.BadConfig, Op: op, Msg: "zero frequency or resolution"}
	}
	if !t.shape.Wide && cfg.Resolution > 0xFFFF {
		return &errcode.E{C: errcode.BadConfig, Op: op, Msg: "resolution exceeds the 16-bit counter"}
	}
	den := uint64(cfg.Resolution) * uint64(cfg.Frequency.Hz())
	num := uint64(cfg.Tick.Hz())
	if num%den != 0 {
		return &errcode.E{C: errcode.NonIntegerDivision, Op: op}
	}
	factor := num / den
	if factor < 1 || factor > 0x10000 {
		return &errcode.E{C: errcode.InvalidPrescaler, Op: op,
			Msg: "prescale factor outside 1..65536"}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.regs.CR1.SetBits(cr1ARPE)
	t.regs.ARR.Set(cfg.Resolution)
	t.regs.PSC.Set(uint32(factor - 1))
	t.regs.EGR.Set(egrUG)
	if t.shape.Break {
		t.regs.BDTR.SetBits(bdtrMOE)
	}
	t.regs.CR1.SetBits(cr1CEN)
	return nil
}

// Channel returns channel n of the timer, 1 through the shape's count,
// set up for PWM mode 1 with preloaded duty updates.
func (t *Timer) Channel(n uint8) (*Channel, error) {
	if n < 1 || n > t.shape.Channels || n > 4 {
		return nil, &errcode.E{C: errcode.BadConfig, Op: "pwm.channel", Msg: "no such channel on this timer"}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	reg, slot := t.regs.CCMR1, n-1
	if n > 2 {
		reg, slot = t.regs.CCMR2, n-3
	}
	pos := slot * 8
	reg.ReplaceBits(ocModePwm1, 0x7, pos+4)
	reg.SetBits(1 << (pos + 3)) // preload enable
	return &Channel{t: t, n: n}, nil
}

// Channel is one output compare channel.
type Channel struct {
	t *Timer
	n uint8
}

func (c *Channel) enableBit() uint32 { return 1 << ((c.n - 1) * 4) }

func (c *Channel) ccr() mmio.Reg32 {
	switch c.n {
	case 1:
		return c.t.regs.CCR1
	case 2:
		return c.t.regs.CCR2
	case 3:
		return c.t.regs.CCR3
	}
	return c.t.regs.CCR4
}

// Enable connects the channel output.
func (c *Channel) Enable() {
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	c.t.regs.CCER.SetBits(c.enableBit())
}

// Disable disconnects the channel output.
func (c *Channel) Disable() {
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	c.t.regs.CCER.ClearBits(c.enableBit())
}

// MaxDuty returns the duty value for a 100% cycle.
func (c *Channel) MaxDuty() uint32 { return c.t.regs.ARR.Get() }

// Duty returns the current duty value.
func (c *Channel) Duty() uint32 { return c.ccr().Get() }

// SetDuty sets the duty value, clamped to MaxDuty. With preload on, the
// new value takes effect at the next period boundary rather than
// mid-cycle.
func (c *Channel) SetDuty(d uint32) {
	d = mathx.Clamp(d, 0, c.MaxDuty())
	c.t.mu.Lock()
	defer c.t.mu.Unlock()
	c.ccr().Set(d)
}
