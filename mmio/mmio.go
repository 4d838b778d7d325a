// Package mmio abstracts 32-bit memory-mapped registers so the clock
// and peripheral drivers can run against real hardware or a simulated
// bank in tests. The method set mirrors the volatile register helpers
// TinyGo generates for device packages.
package mmio

// Reg32 is one 32-bit hardware register.
type Reg32 interface {
	Get() uint32
	Set(v uint32)
	SetBits(mask uint32)
	ClearBits(mask uint32)
	HasBits(mask uint32) bool
	// ReplaceBits writes value into the field of width mask at bit pos,
	// leaving the rest of the register untouched.
	ReplaceBits(value, mask uint32, pos uint8)
}

// Reg is a RAM-backed Reg32 for hosted builds and tests. Single-owner;
// not safe for concurrent use.
type Reg struct {
	v uint32
}

func (r *Reg) Get() uint32              { return r.v }
func (r *Reg) Set(v uint32)             { r.v = v }
func (r *Reg) SetBits(mask uint32)      { r.v |= mask }
func (r *Reg) ClearBits(mask uint32)    { r.v &^= mask }
func (r *Reg) HasBits(mask uint32) bool { return r.v&mask != 0 }
func (r *Reg) ReplaceBits(value, mask uint32, pos uint8) {
	r.v = r.v&^(mask<<pos) | value<<pos
}

var _ Reg32 = (*Reg)(nil)

// Field extracts the field of width mask at bit pos from v.
func Field(v, mask uint32, pos uint8) uint32 {
	return (v >> pos) & mask
}
