//go:build stm32f318x8

package rcc

// Selected device variant. Exactly one variant tag may be set; a second
// selection collides on these symbols.
const variantName = "stm32f318x8"

func activeLimits() Limits { return LimitsSTM32F318x8() }
