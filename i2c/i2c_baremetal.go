//go:build tinygo

package i2c

import (
	"stm32f3hal-go/mmio"
	"stm32f3hal-go/rcc"
)

const (
	baseI2C1 = 0x4000_5400
	baseI2C2 = 0x4000_5800
	baseI2C3 = 0x4000_7800
)

func at(base uintptr) *Registers {
	return &Registers{
		CR1:     mmio.At(base + 0x00),
		CR2:     mmio.At(base + 0x04),
		TIMINGR: mmio.At(base + 0x10),
		ISR:     mmio.At(base + 0x18),
		ICR:     mmio.At(base + 0x1C),
		RXDR:    mmio.At(base + 0x24),
		TXDR:    mmio.At(base + 0x28),
	}
}

// I2C1 maps the first block.
func I2C1(bus *rcc.APB1) *I2C { return New(at(baseI2C1), bus, EnableI2C1) }

// I2C2 maps the second block.
func I2C2(bus *rcc.APB1) *I2C { return New(at(baseI2C2), bus, EnableI2C2) }

// I2C3 maps the third block, on parts that have it.
func I2C3(bus *rcc.APB1) *I2C { return New(at(baseI2C3), bus, EnableI2C3) }
