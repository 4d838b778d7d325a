//go:build tinygo

package mmio

import (
	"runtime/volatile"
	"unsafe"
)

// hwReg adapts a volatile register to Reg32. The pointer is fixed at
// construction; all accesses go through the volatile helpers so the
// compiler never elides or reorders them.
type hwReg struct {
	r *volatile.Register32
}

func (h hwReg) Get() uint32              { return h.r.Get() }
func (h hwReg) Set(v uint32)             { h.r.Set(v) }
func (h hwReg) SetBits(mask uint32)      { h.r.SetBits(mask) }
func (h hwReg) ClearBits(mask uint32)    { h.r.ClearBits(mask) }
func (h hwReg) HasBits(mask uint32) bool { return h.r.HasBits(mask) }
func (h hwReg) ReplaceBits(value, mask uint32, pos uint8) {
	h.r.ReplaceBits(value, mask, pos)
}

var _ Reg32 = hwReg{}

// At returns the register mapped at the given bus address.
func At(addr uintptr) Reg32 {
	return hwReg{(*volatile.Register32)(unsafe.Pointer(addr))}
}
