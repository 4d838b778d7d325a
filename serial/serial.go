// Package serial drives the USART blocks in polled mode, 8N1 unless the
// config says otherwise. The port satisfies io.Reader and io.Writer, so
// it plugs straight into fmtx and the rest of the standard stream
// plumbing:
//
//	port := serial.New(regs, bus, serial.EnableUSART1)
//	err := port.Configure(serial.Config{Clock: clocks.Pclk2(), Baud: 115200})
//	port.Write([]byte("ready\r\n"))
//
// Reads and writes spin on the status register with a bounded poll and
// fail with a timeout instead of hanging forever.
package serial

import (
	"io"

	"stm32f3hal-go/errcode"
	"stm32f3hal-go/freq"
	"stm32f3hal-go/mmio"
	"stm32f3hal-go/x/mathx"
)

// Registers is one USART register block, reduced to polled operation.
type Registers struct {
	CR1 mmio.Reg32
	CR2 mmio.Reg32
	BRR mmio.Reg32
	ISR mmio.Reg32
	ICR mmio.Reg32
	RDR mmio.Reg32
	TDR mmio.Reg32
}

// NewSimRegisters builds a port backed by plain memory.
func NewSimRegisters() *Registers {
	return &Registers{
		CR1: &mmio.Reg{},
		CR2: &mmio.Reg{},
		BRR: &mmio.Reg{},
		ISR: &mmio.Reg{},
		ICR: &mmio.Reg{},
		RDR: &mmio.Reg{},
		TDR: &mmio.Reg{},
	}
}

const (
	cr1UE  = 1 << 0
	cr1RE  = 1 << 2
	cr1TE  = 1 << 3
	cr1PS  = 1 << 9
	cr1PCE = 1 << 10
	cr1M0  = 1 << 12

	cr2StopPos = 12

	isrORE  = 1 << 3
	isrRXNE = 1 << 5
	isrTC   = 1 << 6
	isrTXE  = 1 << 7

	icrORECF = 1 << 3
)

// Peripheral clock enable masks. USART1 sits on APB2, the rest on APB1.
const (
	EnableUSART1 = 1 << 14

	EnableUSART2 = 1 << 17
	EnableUSART3 = 1 << 18
	EnableUART4  = 1 << 19
	EnableUART5  = 1 << 20
)

// pollCycles bounds every status spin. At 72 MHz this is far beyond one
// character time at any configured rate.
const pollCycles = 0x1_0000

// Bus is the clock gate the port hangs off, either of the APB gates.
type Bus interface {
	Enable(mask uint32)
	Reset(mask uint32)
}

// Parity selects the frame parity bit. With parity enabled the frame
// widens to nine bits so all eight data bits survive.
type Parity uint8

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

// StopBits selects the stop bit count.
type StopBits uint8

const (
	StopOne StopBits = iota
	StopTwo
)

// Config selects the line rate and frame format. The zero value of the
// format fields is 8N1.
type Config struct {
	// Clock is the bus clock feeding the block, Pclk2 for USART1 and
	// Pclk1 for the others.
	Clock freq.Hertz
	// Baud is the line rate in bits per second.
	Baud uint32

	Parity Parity
	Stop   StopBits
}

// Port is one USART in polled mode.
type Port struct {
	regs *Registers
}

// New wraps a USART register block. When a bus gate is given the
// peripheral clock is enabled and the block is pulsed through reset.
func New(regs *Registers, bus Bus, en uint32) *Port {
	if bus != nil {
		bus.Enable(en)
		bus.Reset(en)
	}
	return &Port{regs: regs}
}

// Configure programs the divider for the requested rate and the frame
// format, then enables the transmitter and receiver. The divider is
// rounded to the nearest step; rates the bus clock cannot express
// within the 16-bit field are rejected.
func (p *Port) Configure(cfg Config) error {
	const op = "serial.configure"
	if cfg.Clock == 0 {
		return &errcode.E{C: errcode.MissingSource, Op: op, Msg: "bus clock not given"}
	}
	if cfg.Baud == 0 {
		return &errcode.E{C: errcode.BadConfig, Op: op, Msg: "zero baud rate"}
	}
	var frame uint32
	switch cfg.Parity {
	case ParityNone:
	case ParityEven:
		frame = cr1PCE | cr1M0
	case ParityOdd:
		frame = cr1PCE | cr1PS | cr1M0
	default:
		return &errcode.E{C: errcode.BadConfig, Op: op, Msg: "unknown parity selection"}
	}
	var stop uint32
	switch cfg.Stop {
	case StopOne:
	case StopTwo:
		stop = 0b10
	default:
		return &errcode.E{C: errcode.BadConfig, Op: op, Msg: "unknown stop bit selection"}
	}
	div := mathx.RoundDiv(cfg.Clock.Hz(), cfg.Baud)
	if div < 16 || div > 0xFFFF {
		return &errcode.E{C: errcode.FrequencyOutOfRange, Op: op,
			Msg: "baud rate not reachable from the bus clock"}
	}

	// Format bits may only change while the block is disabled.
	p.regs.CR1.ClearBits(cr1UE)
	p.regs.BRR.Set(div)
	p.regs.CR2.ReplaceBits(stop, 0x3, cr2StopPos)
	p.regs.CR1.ClearBits(cr1PCE | cr1PS | cr1M0)
	p.regs.CR1.SetBits(frame | cr1TE | cr1RE | cr1UE)
	return nil
}

// WriteByte sends one byte, waiting for the transmit register to drain.
func (p *Port) WriteByte(b byte) error {
	for i := 0; i < pollCycles; i++ {
		if p.regs.ISR.HasBits(isrTXE) {
			p.regs.TDR.Set(uint32(b))
			return nil
		}
	}
	return &errcode.E{C: errcode.Timeout, Op: "serial.write", Msg: "transmit register never drained"}
}

// Flush waits until the last queued byte has left the shift register.
func (p *Port) Flush() error {
	for i := 0; i < pollCycles; i++ {
		if p.regs.ISR.HasBits(isrTC) {
			return nil
		}
	}
	return &errcode.E{C: errcode.Timeout, Op: "serial.flush", Msg: "transmission never completed"}
}

// ReadByte returns the next received byte. A receiver overrun is
// reported once and cleared; the byte that was sitting in the data
// register survives an overrun, so callers may keep reading.
func (p *Port) ReadByte() (byte, error) {
	const op = "serial.read"
	for i := 0; i < pollCycles; i++ {
		isr := p.regs.ISR.Get()
		if isr&isrORE != 0 {
			p.regs.ICR.Set(icrORECF)
			return 0, &errcode.E{C: errcode.Overrun, Op: op, Msg: "receiver overrun"}
		}
		if isr&isrRXNE != 0 {
			return byte(p.regs.RDR.Get()), nil
		}
	}
	return 0, &errcode.E{C: errcode.Timeout, Op: op, Msg: "no data"}
}

// Write sends the whole buffer, implementing io.Writer.
func (p *Port) Write(buf []byte) (int, error) {
	for i, b := range buf {
		if err := p.WriteByte(b); err != nil {
			return i, err
		}
	}
	return len(buf), nil
}

// Read fills buf with at least one byte, implementing io.Reader. After
// the first byte it keeps draining only as long as data is already
// waiting, so a caller with a large buffer is not held hostage by a
// slow sender.
func (p *Port) Read(buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	b, err := p.ReadByte()
	if err != nil {
		return 0, err
	}
	buf[0] = b
	n := 1
	for n < len(buf) && p.regs.ISR.HasBits(isrRXNE) {
		buf[n] = byte(p.regs.RDR.Get())
		n++
	}
	return n, nil
}

var (
	_ io.Reader = (*Port)(nil)
	_ io.Writer = (*Port)(nil)
)
