// Package i2c drives the F3 I2C blocks as a polled bus master. Tx
// performs a write followed by a repeated-start read without releasing
// the bus, which is the contract the sensor drivers expect:
//
//	bus := i2c.New(regs, apb1, i2c.EnableI2C1)
//	err := bus.Configure(i2c.Config{Kernel: freq.MHz(8), Speed: i2c.Standard})
//	err = bus.Tx(0x38, []byte{0x71}, status[:1])
//
// The kernel clock is whatever the I2CxSW mux feeds the block, the
// fixed 8 MHz HSI by default or SYSCLK via rcc.SetI2CKernel. SCL timing
// is synthesised for an 8 MHz reference, so the kernel must be a whole
// multiple of 8 MHz.
package i2c

import (
	"tinygo.org/x/drivers"

	"stm32f3hal-go/errcode"
	"stm32f3hal-go/freq"
	"stm32f3hal-go/mmio"
)

// Registers is one I2C register block, reduced to polled master
// operation.
type Registers struct {
	CR1     mmio.Reg32
	CR2     mmio.Reg32
	TIMINGR mmio.Reg32
	ISR     mmio.Reg32
	ICR     mmio.Reg32
	RXDR    mmio.Reg32
	TXDR    mmio.Reg32
}

// NewSimRegisters builds a block backed by plain memory.
func NewSimRegisters() *Registers {
	return &Registers{
		CR1:     &mmio.Reg{},
		CR2:     &mmio.Reg{},
		TIMINGR: &mmio.Reg{},
		ISR:     &mmio.Reg{},
		ICR:     &mmio.Reg{},
		RXDR:    &mmio.Reg{},
		TXDR:    &mmio.Reg{},
	}
}

const (
	cr1PE = 1 << 0

	cr2RDWRN   = 1 << 10
	cr2START   = 1 << 13
	cr2AUTOEND = 1 << 25

	isrTXIS  = 1 << 1
	isrRXNE  = 1 << 2
	isrNACKF = 1 << 4
	isrSTOPF = 1 << 5
	isrTC    = 1 << 6
	isrBUSY  = 1 << 15

	icrNACKCF = 1 << 4
	icrSTOPCF = 1 << 5
)

// Peripheral clock enable masks, all on APB1.
const (
	EnableI2C1 = 1 << 21
	EnableI2C2 = 1 << 22
	EnableI2C3 = 1 << 30
)

// referenceClock is the post-prescaler clock all SCL timing rows assume.
const referenceClock = freq.Hertz(8_000_000)

// pollCycles bounds every status spin.
const pollCycles = 0x1_0000

// Bus is the APB1 clock gate.
type Bus interface {
	Enable(mask uint32)
	Reset(mask uint32)
}

// Speed selects the SCL rate.
type Speed uint8

const (
	Standard Speed = iota // 100 kHz
	Fast                  // 400 kHz
)

// SCL timing rows for the 8 MHz reference clock. The fast row is the
// reference manual's example; the standard row stretches low and high
// to meet the 4.7/4.0 microsecond floors without a second prescaler
// stage.
var timingRows = [...]struct {
	scldel, sdadel uint32
	sclh, scll     uint32
}{
	Standard: {scldel: 0x9, sdadel: 0x4, sclh: 0x1F, scll: 0x27},
	Fast:     {scldel: 0x3, sdadel: 0x1, sclh: 0x03, scll: 0x09},
}

// Config selects the kernel clock and SCL rate.
type Config struct {
	// Kernel is the clock feeding the block, a whole multiple of 8 MHz.
	Kernel freq.Hertz
	// Speed is the SCL rate. The zero value is standard mode.
	Speed Speed
}

// I2C is one block in master mode.
type I2C struct {
	regs *Registers
}

// New wraps an I2C register block. When a bus gate is given the
// peripheral clock is enabled and the block is pulsed through reset.
func New(regs *Registers, bus Bus, en uint32) *I2C {
	if bus != nil {
		bus.Enable(en)
		bus.Reset(en)
	}
	return &I2C{regs: regs}
}

// Configure programs the SCL timing and enables the block.
func (d *I2C) Configure(cfg Config) error {
	const op = "i2c.configure"
	if cfg.Kernel == 0 {
		return &errcode.E{C: errcode.MissingSource, Op: op, Msg: "kernel clock not given"}
	}
	if int(cfg.Speed) >= len(timingRows) {
		return &errcode.E{C: errcode.BadConfig, Op: op, Msg: "unknown speed selection"}
	}
	if cfg.Kernel.Hz()%referenceClock.Hz() != 0 {
		return &errcode.E{C: errcode.NonIntegerDivision, Op: op,
			Msg: "kernel clock is not a multiple of 8 MHz"}
	}
	ratio := cfg.Kernel.Hz() / referenceClock.Hz()
	if ratio < 1 || ratio > 16 {
		return &errcode.E{C: errcode.InvalidPrescaler, Op: op,
			Msg: "kernel clock outside 8..128 MHz"}
	}
	presc := ratio - 1
	row := timingRows[cfg.Speed]

	// Timing may only change while the block is disabled.
	d.regs.CR1.ClearBits(cr1PE)
	d.regs.TIMINGR.Set(presc<<28 | row.scldel<<20 | row.sdadel<<16 | row.sclh<<8 | row.scll)
	d.regs.CR1.SetBits(cr1PE)
	return nil
}

// Tx addresses the 7-bit target, writes w, then reads into r with a
// repeated start. Either slice may be empty. Transfers are capped at
// 255 bytes per direction, the hardware's per-transfer byte counter.
func (d *I2C) Tx(addr uint16, w, r []byte) error {
	const op = "i2c.tx"
	if addr > 0x7F {
		return &errcode.E{C: errcode.BadConfig, Op: op, Msg: "only 7-bit addressing is supported"}
	}
	if len(w) > 255 || len(r) > 255 {
		return &errcode.E{C: errcode.BadConfig, Op: op, Msg: "transfer longer than 255 bytes"}
	}
	if len(w) == 0 && len(r) == 0 {
		return nil
	}
	if err := d.waitIdle(op); err != nil {
		return err
	}

	sadd := uint32(addr) << 1
	if len(w) > 0 {
		end := uint32(cr2AUTOEND)
		if len(r) > 0 {
			end = 0 // hold the bus for the repeated start
		}
		d.regs.CR2.Set(sadd | uint32(len(w))<<16 | end | cr2START)
		for _, b := range w {
			if err := d.waitFlag(isrTXIS, op, "transmit stage never ready"); err != nil {
				return err
			}
			d.regs.TXDR.Set(uint32(b))
		}
		if len(r) > 0 {
			if err := d.waitFlag(isrTC, op, "write phase never completed"); err != nil {
				return err
			}
		}
	}
	if len(r) > 0 {
		d.regs.CR2.Set(sadd | cr2RDWRN | uint32(len(r))<<16 | cr2AUTOEND | cr2START)
		for i := range r {
			if err := d.waitFlag(isrRXNE, op, "no data from target"); err != nil {
				return err
			}
			r[i] = byte(d.regs.RXDR.Get())
		}
	}
	if err := d.waitFlag(isrSTOPF, op, "stop never issued"); err != nil {
		return err
	}
	d.regs.ICR.Set(icrSTOPCF | icrNACKCF)
	return nil
}

// waitIdle waits for a free bus before claiming it.
func (d *I2C) waitIdle(op string) error {
	for i := 0; i < pollCycles; i++ {
		if !d.regs.ISR.HasBits(isrBUSY) {
			return nil
		}
	}
	return &errcode.E{C: errcode.Busy, Op: op, Msg: "bus held by another master"}
}

// waitFlag spins for one ISR flag. A NACK from the target aborts the
// transfer; the hardware has already queued the stop condition, so only
// the flags need clearing.
func (d *I2C) waitFlag(flag uint32, op, msg string) error {
	for i := 0; i < pollCycles; i++ {
		isr := d.regs.ISR.Get()
		if isr&isrNACKF != 0 {
			d.regs.ICR.Set(icrNACKCF | icrSTOPCF)
			return &errcode.E{C: errcode.Nack, Op: op, Msg: "target did not acknowledge"}
		}
		if isr&flag != 0 {
			return nil
		}
	}
	return &errcode.E{C: errcode.Timeout, Op: op, Msg: msg}
}

var _ drivers.I2C = (*I2C)(nil)
