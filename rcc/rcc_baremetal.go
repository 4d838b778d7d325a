//go:build tinygo

package rcc

import "stm32f3hal-go/mmio"

const rccBase = 0x4002_1000

func hwRegisters() *Registers {
	return &Registers{
		CR:       mmio.At(rccBase + 0x00),
		CFGR:     mmio.At(rccBase + 0x04),
		CIR:      mmio.At(rccBase + 0x08),
		APB2RSTR: mmio.At(rccBase + 0x0C),
		APB1RSTR: mmio.At(rccBase + 0x10),
		AHBENR:   mmio.At(rccBase + 0x14),
		APB2ENR:  mmio.At(rccBase + 0x18),
		APB1ENR:  mmio.At(rccBase + 0x1C),
		BDCR:     mmio.At(rccBase + 0x20),
		CSR:      mmio.At(rccBase + 0x24),
		AHBRSTR:  mmio.At(rccBase + 0x28),
		CFGR2:    mmio.At(rccBase + 0x2C),
		CFGR3:    mmio.At(rccBase + 0x30),
	}
}

// Take claims the device clock control block, once. The limits table
// comes from the variant selected at build time; building without a
// variant tag fails here.
func Take() (*RCC, error) {
	return take(hwRegisters(), activeLimits())
}

// Variant names the device selected at build time.
func Variant() string { return variantName }
