//go:build tinygo

package pwm

import (
	"stm32f3hal-go/mmio"
	"stm32f3hal-go/rcc"
)

const (
	baseTIM2 = 0x4000_0000
	baseTIM3 = 0x4000_0400
	baseTIM4 = 0x4000_0800

	baseTIM1  = 0x4001_2C00
	baseTIM8  = 0x4001_3400
	baseTIM15 = 0x4001_4000
	baseTIM16 = 0x4001_4400
	baseTIM17 = 0x4001_4800
)

func at(base uintptr) *Registers {
	return &Registers{
		CR1:   mmio.At(base + 0x00),
		EGR:   mmio.At(base + 0x14),
		CCMR1: mmio.At(base + 0x18),
		CCMR2: mmio.At(base + 0x1C),
		CCER:  mmio.At(base + 0x20),
		PSC:   mmio.At(base + 0x28),
		ARR:   mmio.At(base + 0x2C),
		CCR1:  mmio.At(base + 0x34),
		CCR2:  mmio.At(base + 0x38),
		CCR3:  mmio.At(base + 0x3C),
		CCR4:  mmio.At(base + 0x40),
		BDTR:  mmio.At(base + 0x44),
	}
}

// TIM1 maps the advanced control timer, four channels behind the break
// gate. Clock it from Tclk2.
func TIM1(bus *rcc.APB2) *Timer {
	return New(at(baseTIM1), Shape{Channels: 4, Break: true}, bus, EnableTIM1)
}

// TIM2 maps the 32-bit general purpose timer. Clock it from Tclk1.
func TIM2(bus *rcc.APB1) *Timer {
	return New(at(baseTIM2), Shape{Channels: 4, Wide: true}, bus, EnableTIM2)
}

// TIM3 maps the four channel general purpose timer. Clock it from Tclk1.
func TIM3(bus *rcc.APB1) *Timer {
	return New(at(baseTIM3), Shape{Channels: 4}, bus, EnableTIM3)
}

// TIM4 maps the four channel general purpose timer. Clock it from Tclk1.
func TIM4(bus *rcc.APB1) *Timer {
	return New(at(baseTIM4), Shape{Channels: 4}, bus, EnableTIM4)
}

// TIM8 maps the second advanced control timer, on parts that have it.
// Clock it from Tclk2.
func TIM8(bus *rcc.APB2) *Timer {
	return New(at(baseTIM8), Shape{Channels: 4, Break: true}, bus, EnableTIM8)
}

// TIM15 maps the two channel small timer. Clock it from Tclk2.
func TIM15(bus *rcc.APB2) *Timer {
	return New(at(baseTIM15), Shape{Channels: 2, Break: true}, bus, EnableTIM15)
}

// TIM16 maps the single channel small timer. Clock it from Tclk2.
func TIM16(bus *rcc.APB2) *Timer {
	return New(at(baseTIM16), Shape{Channels: 1, Break: true}, bus, EnableTIM16)
}

// TIM17 maps the single channel small timer. Clock it from Tclk2.
func TIM17(bus *rcc.APB2) *Timer {
	return New(at(baseTIM17), Shape{Channels: 1, Break: true}, bus, EnableTIM17)
}
