package rcc

import "stm32f3hal-go/freq"

// Clocks is the frozen clock tree. Every accessor returns a value fixed
// at freeze time; nothing here reads hardware or recomputes. The struct
// is small and copyable, so drivers can hold their own copy.
type Clocks struct {
	src    Source
	sysclk freq.Hertz
	hclk   freq.Hertz
	pclk1  freq.Hertz
	pclk2  freq.Hertz
	tclk1  freq.Hertz
	tclk2  freq.Hertz
	pllclk freq.Hertz // zero when the PLL is off
	usbclk freq.Hertz // zero when no valid 48 MHz is available
}

// Source reports what drives SYSCLK.
func (c Clocks) Source() Source { return c.src }

// Sysclk is the system clock.
func (c Clocks) Sysclk() freq.Hertz { return c.sysclk }

// Hclk is the AHB clock.
func (c Clocks) Hclk() freq.Hertz { return c.hclk }

// Pclk1 is the APB1 peripheral clock.
func (c Clocks) Pclk1() freq.Hertz { return c.pclk1 }

// Pclk2 is the APB2 peripheral clock.
func (c Clocks) Pclk2() freq.Hertz { return c.pclk2 }

// Tclk1 is the kernel clock of APB1 timers: PCLK1, doubled when the
// APB1 prescaler is not 1.
func (c Clocks) Tclk1() freq.Hertz { return c.tclk1 }

// Tclk2 is the kernel clock of APB2 timers, with the same doubling
// rule.
func (c Clocks) Tclk2() freq.Hertz { return c.tclk2 }

// PllClk returns the PLL output and whether the PLL is running.
func (c Clocks) PllClk() (freq.Hertz, bool) { return c.pllclk, c.pllclk != 0 }

// UsbClk returns the USB kernel clock and whether it is a valid
// 48 MHz.
func (c Clocks) UsbClk() (freq.Hertz, bool) { return c.usbclk, c.usbclk != 0 }
