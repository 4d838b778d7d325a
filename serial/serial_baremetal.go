//go:build tinygo

package serial

import (
	"stm32f3hal-go/mmio"
	"stm32f3hal-go/rcc"
)

const (
	baseUSART1 = 0x4001_3800

	baseUSART2 = 0x4000_4400
	baseUSART3 = 0x4000_4800
	baseUART4  = 0x4000_4C00
	baseUART5  = 0x4000_5000
)

func at(base uintptr) *Registers {
	return &Registers{
		CR1: mmio.At(base + 0x00),
		CR2: mmio.At(base + 0x04),
		BRR: mmio.At(base + 0x0C),
		ISR: mmio.At(base + 0x1C),
		ICR: mmio.At(base + 0x20),
		RDR: mmio.At(base + 0x24),
		TDR: mmio.At(base + 0x28),
	}
}

// USART1 maps the APB2 block. Clock it from Pclk2.
func USART1(bus *rcc.APB2) *Port { return New(at(baseUSART1), bus, EnableUSART1) }

// USART2 maps the first APB1 block. Clock it from Pclk1.
func USART2(bus *rcc.APB1) *Port { return New(at(baseUSART2), bus, EnableUSART2) }

// USART3 maps the second APB1 block. Clock it from Pclk1.
func USART3(bus *rcc.APB1) *Port { return New(at(baseUSART3), bus, EnableUSART3) }

// UART4 maps the third APB1 block, on parts that have it. Clock it from
// Pclk1.
func UART4(bus *rcc.APB1) *Port { return New(at(baseUART4), bus, EnableUART4) }

// UART5 maps the fourth APB1 block, on parts that have it. Clock it
// from Pclk1.
func UART5(bus *rcc.APB1) *Port { return New(at(baseUART5), bus, EnableUART5) }
