package rcc

// STM32F302 line. All densities carry USB; the xD/xE densities add the
// HSI prediv PLL path.

func LimitsSTM32F302x6() Limits {
	l := f3Limits("stm32f302x6")
	l.HasUsb = true
	return l
}

func LimitsSTM32F302x8() Limits {
	l := f3Limits("stm32f302x8")
	l.HasUsb = true
	return l
}

func LimitsSTM32F302xB() Limits {
	l := f3Limits("stm32f302xb")
	l.HasUsb = true
	return l
}

func LimitsSTM32F302xC() Limits {
	l := f3Limits("stm32f302xc")
	l.HasUsb = true
	return l
}

func LimitsSTM32F302xD() Limits {
	l := f3Limits("stm32f302xd")
	l.HasUsb = true
	l.PllHsiPrediv = true
	return l
}

func LimitsSTM32F302xE() Limits {
	l := f3Limits("stm32f302xe")
	l.HasUsb = true
	l.PllHsiPrediv = true
	return l
}
