//go:build tinygo

package gpio

import (
	"stm32f3hal-go/mmio"
	"stm32f3hal-go/rcc"
)

// Port register blocks sit on the AHB at 0x4800_0000, one 0x400 span
// per bank.
const (
	baseA = 0x4800_0000
	baseB = 0x4800_0400
	baseC = 0x4800_0800
	baseD = 0x4800_0C00
	baseE = 0x4800_1000
	baseF = 0x4800_1400
	baseG = 0x4800_1800
	baseH = 0x4800_1C00
)

func at(base uintptr) *Registers {
	return &Registers{
		MODER:   mmio.At(base + 0x00),
		OTYPER:  mmio.At(base + 0x04),
		OSPEEDR: mmio.At(base + 0x08),
		PUPDR:   mmio.At(base + 0x0C),
		IDR:     mmio.At(base + 0x10),
		ODR:     mmio.At(base + 0x14),
		BSRR:    mmio.At(base + 0x18),
		AFRL:    mmio.At(base + 0x20),
		AFRH:    mmio.At(base + 0x24),
	}
}

// PortA maps GPIOA and enables its clock.
func PortA(bus *rcc.AHB) *Port { return New(at(baseA), bus, EnableA) }

// PortB maps GPIOB and enables its clock.
func PortB(bus *rcc.AHB) *Port { return New(at(baseB), bus, EnableB) }

// PortC maps GPIOC and enables its clock.
func PortC(bus *rcc.AHB) *Port { return New(at(baseC), bus, EnableC) }

// PortD maps GPIOD and enables its clock.
func PortD(bus *rcc.AHB) *Port { return New(at(baseD), bus, EnableD) }

// PortE maps GPIOE and enables its clock.
func PortE(bus *rcc.AHB) *Port { return New(at(baseE), bus, EnableE) }

// PortF maps GPIOF and enables its clock.
func PortF(bus *rcc.AHB) *Port { return New(at(baseF), bus, EnableF) }

// PortG maps GPIOG and enables its clock. Large-memory parts only.
func PortG(bus *rcc.AHB) *Port { return New(at(baseG), bus, EnableG) }

// PortH maps GPIOH and enables its clock. Large-memory parts only.
func PortH(bus *rcc.AHB) *Port { return New(at(baseH), bus, EnableH) }
