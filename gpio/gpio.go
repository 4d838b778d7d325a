// Package gpio drives the F3 general purpose I/O ports. A port wraps
// one register block; pins are cheap handles into it:
//
//	port := gpio.New(regs, rcc.AHBBus(), gpio.EnableA)
//	led, _ := port.Pin(5)
//	_ = led.ConfigureOutput(gpio.PushPull, gpio.SpeedLow)
//	led.High()
//
// Writes go through the set/reset register, so two pins on the same
// port can be driven from different goroutines without a lock.
package gpio

import (
	"stm32f3hal-go/errcode"
	"stm32f3hal-go/mmio"
	"stm32f3hal-go/rcc"
)

// Registers is one GPIO port register block.
type Registers struct {
	MODER   mmio.Reg32
	OTYPER  mmio.Reg32
	OSPEEDR mmio.Reg32
	PUPDR   mmio.Reg32
	IDR     mmio.Reg32
	ODR     mmio.Reg32
	BSRR    mmio.Reg32
	AFRL    mmio.Reg32
	AFRH    mmio.Reg32
}

// NewSimRegisters builds a port backed by plain memory.
func NewSimRegisters() *Registers {
	return &Registers{
		MODER:   &mmio.Reg{},
		OTYPER:  &mmio.Reg{},
		OSPEEDR: &mmio.Reg{},
		PUPDR:   &mmio.Reg{},
		IDR:     &mmio.Reg{},
		ODR:     &mmio.Reg{},
		BSRR:    &mmio.Reg{},
		AFRL:    &mmio.Reg{},
		AFRH:    &mmio.Reg{},
	}
}

// AHB clock enable masks, one per port. Ports G and H only exist on the
// large-memory parts.
const (
	EnableH = 1 << 16
	EnableA = 1 << 17
	EnableB = 1 << 18
	EnableC = 1 << 19
	EnableD = 1 << 20
	EnableE = 1 << 21
	EnableF = 1 << 22
	EnableG = 1 << 23
)

// MODER field values, two bits per pin.
const (
	modeInput  = 0x0
	modeOutput = 0x1
	modeAlt    = 0x2
	modeAnalog = 0x3
)

// Pull selects the internal resistor on an input.
type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

func (p Pull) bits() (uint32, bool) {
	switch p {
	case PullNone:
		return 0x0, true
	case PullUp:
		return 0x1, true
	case PullDown:
		return 0x2, true
	}
	return 0, false
}

// OutputType selects the driver stage of an output.
type OutputType uint8

const (
	PushPull OutputType = iota
	OpenDrain
)

// Speed selects the output slew rate.
type Speed uint8

const (
	SpeedLow Speed = iota
	SpeedMedium
	SpeedHigh
)

func (s Speed) bits() (uint32, bool) {
	switch s {
	case SpeedLow:
		return 0x0, true
	case SpeedMedium:
		return 0x1, true
	case SpeedHigh:
		return 0x3, true
	}
	return 0, false
}

// Port is one 16-pin GPIO bank.
type Port struct {
	regs *Registers
}

// New wraps a port register block and switches its bus clock on. A nil
// gate skips the enable, for callers that manage gating themselves.
func New(regs *Registers, gate *rcc.AHB, en uint32) *Port {
	if gate != nil {
		gate.Enable(en)
	}
	return &Port{regs: regs}
}

// Pin returns a handle for pin n of the port, 0 through 15.
func (p *Port) Pin(n uint8) (Pin, error) {
	if n > 15 {
		return Pin{}, &errcode.E{C: errcode.BadConfig, Op: "gpio.pin", Msg: "pin index outside 0..15"}
	}
	return Pin{regs: p.regs, n: n}, nil
}

// Pin is a single port line.
type Pin struct {
	regs *Registers
	n    uint8
}

func (p Pin) mode(m uint32) {
	p.regs.MODER.ReplaceBits(m, 0x3, p.n*2)
}

// ConfigureInput puts the pin in input mode with the given resistor.
func (p Pin) ConfigureInput(pull Pull) error {
	pb, ok := pull.bits()
	if !ok {
		return &errcode.E{C: errcode.BadConfig, Op: "gpio.input", Msg: "unknown pull selection"}
	}
	p.regs.PUPDR.ReplaceBits(pb, 0x3, p.n*2)
	p.mode(modeInput)
	return nil
}

// ConfigureOutput puts the pin in output mode.
func (p Pin) ConfigureOutput(typ OutputType, speed Speed) error {
	if err := p.driver(typ, speed, "gpio.output"); err != nil {
		return err
	}
	p.regs.PUPDR.ReplaceBits(0, 0x3, p.n*2)
	p.mode(modeOutput)
	return nil
}

// ConfigureAnalog disconnects the digital stages, for ADC and DAC pins.
func (p Pin) ConfigureAnalog() {
	p.regs.PUPDR.ReplaceBits(0, 0x3, p.n*2)
	p.mode(modeAnalog)
}

// ConfigureAltFunc routes the pin to alternate function af, 0 through
// 15, with the given driver stage. The peripheral behind each number is
// in the datasheet pin tables.
func (p Pin) ConfigureAltFunc(af uint8, typ OutputType, speed Speed) error {
	const op = "gpio.altfunc"
	if af > 15 {
		return &errcode.E{C: errcode.BadConfig, Op: op, Msg: "alternate function outside 0..15"}
	}
	if err := p.driver(typ, speed, op); err != nil {
		return err
	}
	afr := p.regs.AFRL
	pos := p.n * 4
	if p.n >= 8 {
		afr = p.regs.AFRH
		pos = (p.n - 8) * 4
	}
	afr.ReplaceBits(uint32(af), 0xF, pos)
	p.mode(modeAlt)
	return nil
}

func (p Pin) driver(typ OutputType, speed Speed, op string) error {
	sb, ok := speed.bits()
	if !ok {
		return &errcode.E{C: errcode.BadConfig, Op: op, Msg: "unknown speed selection"}
	}
	switch typ {
	case PushPull:
		p.regs.OTYPER.ClearBits(1 << p.n)
	case OpenDrain:
		p.regs.OTYPER.SetBits(1 << p.n)
	default:
		return &errcode.E{C: errcode.BadConfig, Op: op, Msg: "unknown output type"}
	}
	p.regs.OSPEEDR.ReplaceBits(sb, 0x3, p.n*2)
	return nil
}

// High drives the pin high.
func (p Pin) High() { p.regs.BSRR.Set(1 << p.n) }

// Low drives the pin low.
func (p Pin) Low() { p.regs.BSRR.Set(1 << (uint32(p.n) + 16)) }

// Set drives the pin to the given level.
func (p Pin) Set(high bool) {
	if high {
		p.High()
	} else {
		p.Low()
	}
}

// Toggle inverts the current output level.
func (p Pin) Toggle() {
	if p.regs.ODR.HasBits(1 << p.n) {
		p.Low()
	} else {
		p.High()
	}
}

// Get reads the input level.
func (p Pin) Get() bool { return p.regs.IDR.HasBits(1 << p.n) }
