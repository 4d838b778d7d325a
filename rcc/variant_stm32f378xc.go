//go:build stm32f378xc

package rcc

// Selected device variant. Exactly one variant tag may be set; a second
// selection collides on these symbols.
const variantName = "stm32f378xc"

func activeLimits() Limits { return LimitsSTM32F378xC() }
