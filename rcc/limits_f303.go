package rcc

// STM32F303 line plus its pin-compatible twins F328 (x8), F358 (xC) and
// F398 (xE). The twins lack USB; xD/xE densities and F398 add the HSI
// prediv PLL path.

func LimitsSTM32F303x6() Limits { return f3Limits("stm32f303x6") }

func LimitsSTM32F303x8() Limits { return f3Limits("stm32f303x8") }

func LimitsSTM32F303xB() Limits {
	l := f3Limits("stm32f303xb")
	l.HasUsb = true
	return l
}

func LimitsSTM32F303xC() Limits {
	l := f3Limits("stm32f303xc")
	l.HasUsb = true
	return l
}

func LimitsSTM32F303xD() Limits {
	l := f3Limits("stm32f303xd")
	l.HasUsb = true
	l.PllHsiPrediv = true
	return l
}

func LimitsSTM32F303xE() Limits {
	l := f3Limits("stm32f303xe")
	l.HasUsb = true
	l.PllHsiPrediv = true
	return l
}

func LimitsSTM32F328x8() Limits { return f3Limits("stm32f328x8") }

func LimitsSTM32F358xC() Limits { return f3Limits("stm32f358xc") }

func LimitsSTM32F398xE() Limits {
	l := f3Limits("stm32f398xe")
	l.PllHsiPrediv = true
	return l
}
