//go:build stm32f303xb

package rcc

// Selected device variant. Exactly one variant tag may be set; a second
// selection collides on these symbols.
const variantName = "stm32f303xb"

func activeLimits() Limits { return LimitsSTM32F303xB() }
