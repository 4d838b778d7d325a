package rcc

// STM32F373 line and its twin F378 (no USB).

func LimitsSTM32F373x8() Limits {
	l := f3Limits("stm32f373x8")
	l.HasUsb = true
	return l
}

func LimitsSTM32F373xB() Limits {
	l := f3Limits("stm32f373xb")
	l.HasUsb = true
	return l
}

func LimitsSTM32F373xC() Limits {
	l := f3Limits("stm32f373xc")
	l.HasUsb = true
	return l
}

func LimitsSTM32F378xC() Limits { return f3Limits("stm32f378xc") }
