package rcc

// STM32F301 line and its access-line twin F318. No USB, classic HSI/2
// PLL input.

func LimitsSTM32F301x6() Limits { return f3Limits("stm32f301x6") }

func LimitsSTM32F301x8() Limits { return f3Limits("stm32f301x8") }

func LimitsSTM32F318x8() Limits { return f3Limits("stm32f318x8") }
