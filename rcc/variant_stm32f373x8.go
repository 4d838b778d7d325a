//go:build stm32f373x8

package rcc

// Selected device variant. Exactly one variant tag may be set; a second
// selection collides on these symbols.
const variantName = "stm32f373x8"

func activeLimits() Limits { return LimitsSTM32F373x8() }
