package rcc

import "stm32f3hal-go/freq"

// hsiFreq is the factory-trimmed internal RC frequency. It is not
// configurable on this family.
const hsiFreq = freq.Hertz(8_000_000)

// Source selects what drives SYSCLK.
type Source uint8

const (
	SourceHSI Source = iota
	SourceHSE
	SourcePLL
)

func (s Source) String() string {
	switch s {
	case SourceHSI:
		return "hsi"
	case SourceHSE:
		return "hse"
	case SourcePLL:
		return "pll"
	default:
		return "invalid"
	}
}

// swBits returns the CFGR SW encoding for the source.
func (s Source) swBits() uint32 {
	switch s {
	case SourceHSE:
		return swHSE
	case SourcePLL:
		return swPLL
	default:
		return swHSI
	}
}

// PllSource selects the PLL input branch.
type PllSource uint8

const (
	PllSrcHSI PllSource = iota // through the fixed /2, or PREDIV where supported
	PllSrcHSE                  // through PREDIV
)

func (s PllSource) String() string {
	switch s {
	case PllSrcHSI:
		return "hsi"
	case PllSrcHSE:
		return "hse"
	default:
		return "invalid"
	}
}

// hseDecl records the external source declaration. The frequency is the
// caller's statement of what is physically wired; the hardware cannot
// measure it.
type hseDecl struct {
	freq   freq.Hertz
	bypass bool
}

// pllDecl records the PLL configuration request.
type pllDecl struct {
	src    PllSource
	prediv uint32
	mul    uint32
}
