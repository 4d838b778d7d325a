package rcc

import "stm32f3hal-go/mmio"

// Bus clock gates. Peripheral drivers receive the gate for the bus they
// sit on and bring their own enable/reset bit masks; the distinct types
// keep an APB1 peripheral from being wired to the APB2 gate.

type gate struct {
	enr  mmio.Reg32
	rstr mmio.Reg32
}

func (g *gate) enable(mask uint32) { g.enr.SetBits(mask) }

func (g *gate) reset(mask uint32) {
	g.rstr.SetBits(mask)
	g.rstr.ClearBits(mask)
}

func (g *gate) enabled(mask uint32) bool { return g.enr.HasBits(mask) }

// AHB gates peripherals on the AHB bus (GPIO ports, DMA, ADC).
type AHB struct{ g gate }

func (b *AHB) Enable(mask uint32)       { b.g.enable(mask) }
func (b *AHB) Reset(mask uint32)        { b.g.reset(mask) }
func (b *AHB) Enabled(mask uint32) bool { return b.g.enabled(mask) }

// APB1 gates peripherals on the low-speed peripheral bus.
type APB1 struct{ g gate }

func (b *APB1) Enable(mask uint32)       { b.g.enable(mask) }
func (b *APB1) Reset(mask uint32)        { b.g.reset(mask) }
func (b *APB1) Enabled(mask uint32) bool { return b.g.enabled(mask) }

// APB2 gates peripherals on the high-speed peripheral bus.
type APB2 struct{ g gate }

func (b *APB2) Enable(mask uint32)       { b.g.enable(mask) }
func (b *APB2) Reset(mask uint32)        { b.g.reset(mask) }
func (b *APB2) Enabled(mask uint32) bool { return b.g.enabled(mask) }
