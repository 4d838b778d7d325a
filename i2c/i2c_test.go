package i2c

import (
	"bytes"
	"testing"

	"stm32f3hal-go/errcode"
	"stm32f3hal-go/freq"
	"stm32f3hal-go/mmio"
	"stm32f3hal-go/rcc"
)

// simTarget models one addressable target on the bus. CR2 writes drive
// a small transfer state machine; the ISR reflects it the way the
// hardware flags would.
type simTarget struct {
	vals map[string]uint32

	addr     uint16
	data     []byte // served to the master on reads
	received []byte
	cr2Log   []uint32

	busyHeld  bool
	nackAfter int // accepted write bytes before a nack, -1 for never

	nbytes  int
	done    int
	reading bool
	autoend bool
	active  bool
	nacked  bool
}

func newSimTarget(addr uint16) *simTarget {
	return &simTarget{vals: map[string]uint32{}, addr: addr, nackAfter: -1}
}

func (s *simTarget) read(name string) uint32 {
	switch name {
	case "ISR":
		var v uint32
		if s.busyHeld {
			v |= isrBUSY
		}
		if s.nacked {
			v |= isrNACKF
		}
		if s.active {
			switch {
			case s.done < s.nbytes && s.reading:
				v |= isrRXNE
			case s.done < s.nbytes:
				v |= isrTXIS
			case s.autoend:
				v |= isrSTOPF
			default:
				v |= isrTC
			}
		}
		return v
	case "RXDR":
		if s.active && s.reading && s.done < s.nbytes {
			b := byte(0xFF)
			if s.done < len(s.data) {
				b = s.data[s.done]
			}
			s.done++
			return uint32(b)
		}
		return 0
	}
	return s.vals[name]
}

func (s *simTarget) write(name string, v uint32) {
	s.vals[name] = v
	switch name {
	case "CR2":
		s.cr2Log = append(s.cr2Log, v)
		if v&cr2START == 0 {
			return
		}
		s.nbytes = int(v>>16) & 0xFF
		s.reading = v&cr2RDWRN != 0
		s.autoend = v&cr2AUTOEND != 0
		s.done = 0
		if uint16(v>>1)&0x7F != s.addr {
			s.nacked, s.active = true, false
			return
		}
		s.active = true
	case "TXDR":
		if s.active && !s.reading && s.done < s.nbytes {
			s.received = append(s.received, byte(v))
			s.done++
			if s.nackAfter >= 0 && s.done >= s.nackAfter {
				s.nacked, s.active = true, false
			}
		}
	case "ICR":
		if v&icrNACKCF != 0 {
			s.nacked = false
		}
		if v&icrSTOPCF != 0 && s.done >= s.nbytes {
			s.active = false
		}
	}
}

type targetReg struct {
	s    *simTarget
	name string
}

func (r targetReg) Get() uint32              { return r.s.read(r.name) }
func (r targetReg) Set(v uint32)             { r.s.write(r.name, v) }
func (r targetReg) SetBits(mask uint32)      { r.s.write(r.name, r.s.read(r.name)|mask) }
func (r targetReg) ClearBits(mask uint32)    { r.s.write(r.name, r.s.read(r.name)&^mask) }
func (r targetReg) HasBits(mask uint32) bool { return r.s.read(r.name)&mask != 0 }
func (r targetReg) ReplaceBits(value, mask uint32, pos uint8) {
	r.s.write(r.name, r.s.read(r.name)&^(mask<<pos)|value<<pos)
}

var _ mmio.Reg32 = targetReg{}

func (s *simTarget) registers() *Registers {
	return &Registers{
		CR1:     targetReg{s, "CR1"},
		CR2:     targetReg{s, "CR2"},
		TIMINGR: targetReg{s, "TIMINGR"},
		ISR:     targetReg{s, "ISR"},
		ICR:     targetReg{s, "ICR"},
		RXDR:    targetReg{s, "RXDR"},
		TXDR:    targetReg{s, "TXDR"},
	}
}

func TestNew_GateEnableAndResetPulse(t *testing.T) {
	bank := rcc.NewSimRegisters()
	r := rcc.Bind(bank, rcc.LimitsSTM32F303xC())
	New(NewSimRegisters(), r.APB1Bus(), EnableI2C1)
	if !r.APB1Bus().Enabled(EnableI2C1) {
		t.Fatal("i2c clock not enabled")
	}
	if bank.APB1RSTR.Get()&EnableI2C1 != 0 {
		t.Fatal("reset line left asserted")
	}
}

func TestConfigure_TimingSynthesis(t *testing.T) {
	cases := []struct {
		name   string
		kernel freq.Hertz
		speed  Speed
		want   uint32
	}{
		{"standard from hsi", freq.MHz(8), Standard, 0x00941F27},
		{"fast from hsi", freq.MHz(8), Fast, 0x00310309},
		{"standard from 72 MHz sysclk", freq.MHz(72), Standard, 0x80941F27},
		{"fast from 48 MHz sysclk", freq.MHz(48), Fast, 0x50310309},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSimTarget(0x38)
			d := New(s.registers(), nil, 0)
			if err := d.Configure(Config{Kernel: tc.kernel, Speed: tc.speed}); err != nil {
				t.Fatalf("Configure: %v", err)
			}
			if got := s.vals["TIMINGR"]; got != tc.want {
				t.Fatalf("TIMINGR = %#08x, want %#08x", got, tc.want)
			}
			if s.vals["CR1"]&cr1PE == 0 {
				t.Fatal("block left disabled")
			}
		})
	}
}

func TestConfigure_Rejections(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want errcode.Code
	}{
		{"missing kernel", Config{Speed: Fast}, errcode.MissingSource},
		{"kernel not a multiple of 8 MHz", Config{Kernel: freq.MHz(10)}, errcode.NonIntegerDivision},
		{"kernel beyond prescaler range", Config{Kernel: freq.MHz(136)}, errcode.InvalidPrescaler},
		{"unknown speed", Config{Kernel: freq.MHz(8), Speed: Speed(9)}, errcode.BadConfig},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := New(newSimTarget(0x38).registers(), nil, 0)
			if err := d.Configure(tc.cfg); errcode.Of(err) != tc.want {
				t.Fatalf("Configure = %v, want %s", err, tc.want)
			}
		})
	}
}

func TestTx_WriteOnly(t *testing.T) {
	s := newSimTarget(0x38)
	d := New(s.registers(), nil, 0)
	if err := d.Tx(0x38, []byte{0xAC, 0x33, 0x00}, nil); err != nil {
		t.Fatalf("Tx: %v", err)
	}
	if !bytes.Equal(s.received, []byte{0xAC, 0x33, 0x00}) {
		t.Fatalf("target received %#x", s.received)
	}
	if len(s.cr2Log) != 1 {
		t.Fatalf("%d transfers, want 1", len(s.cr2Log))
	}
	cr2 := s.cr2Log[0]
	if cr2&cr2AUTOEND == 0 {
		t.Fatal("write-only transfer without autoend")
	}
	if got := cr2 >> 16 & 0xFF; got != 3 {
		t.Fatalf("NBYTES = %d, want 3", got)
	}
	if s.vals["ICR"]&(icrSTOPCF|icrNACKCF) != icrSTOPCF|icrNACKCF {
		t.Fatal("flags not cleared after the transfer")
	}
}

func TestTx_WriteThenReadHoldsBus(t *testing.T) {
	s := newSimTarget(0x38)
	s.data = []byte{0x1C, 0x55, 0x60}
	d := New(s.registers(), nil, 0)

	got := make([]byte, 3)
	if err := d.Tx(0x38, []byte{0x71}, got); err != nil {
		t.Fatalf("Tx: %v", err)
	}
	if !bytes.Equal(got, []byte{0x1C, 0x55, 0x60}) {
		t.Fatalf("read %#x", got)
	}
	if !bytes.Equal(s.received, []byte{0x71}) {
		t.Fatalf("target received %#x", s.received)
	}
	if len(s.cr2Log) != 2 {
		t.Fatalf("%d transfers, want write then read", len(s.cr2Log))
	}
	if s.cr2Log[0]&cr2AUTOEND != 0 {
		t.Fatal("write phase released the bus before the repeated start")
	}
	if s.cr2Log[1]&cr2RDWRN == 0 || s.cr2Log[1]&cr2AUTOEND == 0 {
		t.Fatalf("read phase CR2 = %#x", s.cr2Log[1])
	}
}

func TestTx_ReadOnly(t *testing.T) {
	s := newSimTarget(0x48)
	s.data = []byte{0xBE, 0xEF}
	d := New(s.registers(), nil, 0)
	got := make([]byte, 2)
	if err := d.Tx(0x48, nil, got); err != nil {
		t.Fatalf("Tx: %v", err)
	}
	if !bytes.Equal(got, []byte{0xBE, 0xEF}) {
		t.Fatalf("read %#x", got)
	}
}

func TestTx_NackFromWrongAddress(t *testing.T) {
	s := newSimTarget(0x38)
	d := New(s.registers(), nil, 0)
	if err := d.Tx(0x39, []byte{0x00}, nil); errcode.Of(err) != errcode.Nack {
		t.Fatalf("Tx = %v, want nack", err)
	}
	if s.nacked {
		t.Fatal("nack flag left set")
	}
	// The bus is usable again afterwards.
	if err := d.Tx(0x38, []byte{0x01}, nil); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestTx_NackMidWrite(t *testing.T) {
	s := newSimTarget(0x38)
	s.nackAfter = 2
	d := New(s.registers(), nil, 0)
	if err := d.Tx(0x38, []byte{1, 2, 3, 4}, nil); errcode.Of(err) != errcode.Nack {
		t.Fatalf("Tx = %v, want nack", err)
	}
	if len(s.received) != 2 {
		t.Fatalf("target accepted %d bytes before the nack", len(s.received))
	}
}

func TestTx_BusHeldByAnotherMaster(t *testing.T) {
	s := newSimTarget(0x38)
	s.busyHeld = true
	d := New(s.registers(), nil, 0)
	if err := d.Tx(0x38, []byte{0x00}, nil); errcode.Of(err) != errcode.Busy {
		t.Fatalf("Tx = %v, want busy", err)
	}
	if len(s.cr2Log) != 0 {
		t.Fatal("transfer started on a busy bus")
	}
}

func TestTx_ParameterChecks(t *testing.T) {
	s := newSimTarget(0x38)
	d := New(s.registers(), nil, 0)
	if err := d.Tx(0x80, []byte{0}, nil); errcode.Of(err) != errcode.BadConfig {
		t.Fatalf("10-bit address = %v, want bad config", err)
	}
	if err := d.Tx(0x38, make([]byte, 256), nil); errcode.Of(err) != errcode.BadConfig {
		t.Fatalf("long write = %v, want bad config", err)
	}
	if err := d.Tx(0x38, nil, make([]byte, 256)); errcode.Of(err) != errcode.BadConfig {
		t.Fatalf("long read = %v, want bad config", err)
	}
	if err := d.Tx(0x38, nil, nil); err != nil {
		t.Fatalf("empty transfer = %v, want nil", err)
	}
	if len(s.cr2Log) != 0 {
		t.Fatal("rejected transfers reached the bus")
	}
}
