package rcc

// STM32F334 line. No USB, classic HSI/2 PLL input.

func LimitsSTM32F334x4() Limits { return f3Limits("stm32f334x4") }

func LimitsSTM32F334x6() Limits { return f3Limits("stm32f334x6") }

func LimitsSTM32F334x8() Limits { return f3Limits("stm32f334x8") }
