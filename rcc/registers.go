package rcc

import "stm32f3hal-go/mmio"

// Registers is the reset and clock control register bank. Fields are
// interfaces so the sequencer can run against a simulated bank.
type Registers struct {
	CR       mmio.Reg32
	CFGR     mmio.Reg32
	CIR      mmio.Reg32
	APB2RSTR mmio.Reg32
	APB1RSTR mmio.Reg32
	AHBENR   mmio.Reg32
	APB2ENR  mmio.Reg32
	APB1ENR  mmio.Reg32
	BDCR     mmio.Reg32
	CSR      mmio.Reg32
	AHBRSTR  mmio.Reg32
	CFGR2    mmio.Reg32
	CFGR3    mmio.Reg32
}

// CR bits.
const (
	crHSION  = 1 << 0
	crHSIRDY = 1 << 1
	crHSEON  = 1 << 16
	crHSERDY = 1 << 17
	crHSEBYP = 1 << 18
	crPLLON  = 1 << 24
	crPLLRDY = 1 << 25
)

// CFGR fields.
const (
	cfgrSWMask = 0x3
	cfgrSWPos  = 0

	cfgrSWSMask = 0x3
	cfgrSWSPos  = 2

	cfgrHPREMask = 0xF
	cfgrHPREPos  = 4

	cfgrPPRE1Mask = 0x7
	cfgrPPRE1Pos  = 8

	cfgrPPRE2Mask = 0x7
	cfgrPPRE2Pos  = 11

	// Two-bit source field. Bit 15 is reserved-zero on parts without
	// the HSI prediv path, so the narrow encodings still land right.
	cfgrPLLSRCMask = 0x3
	cfgrPLLSRCPos  = 15

	cfgrPLLMULMask = 0xF
	cfgrPLLMULPos  = 18

	cfgrUSBPRE = 1 << 22
)

// SW / SWS encodings.
const (
	swHSI = 0x0
	swHSE = 0x1
	swPLL = 0x2
)

// PLLSRC encodings.
const (
	pllsrcHSIDiv2   = 0x0
	pllsrcHSIPrediv = 0x1
	pllsrcHSEPrediv = 0x2
)

// CFGR2 fields.
const (
	cfgr2PREDIVMask = 0xF
	cfgr2PREDIVPos  = 0
)

// CFGR3 fields (peripheral kernel clock selection).
const (
	cfgr3I2C1SW = 1 << 4
	cfgr3I2C2SW = 1 << 5
	cfgr3I2C3SW = 1 << 6
)

// NewSimRegisters builds a RAM-backed bank preloaded with the reset
// values the device powers up with: HSI on and ready, everything else
// cleared. Hosted tools and tests use this bank.
func NewSimRegisters() *Registers {
	r := &Registers{
		CR:       &mmio.Reg{},
		CFGR:     &mmio.Reg{},
		CIR:      &mmio.Reg{},
		APB2RSTR: &mmio.Reg{},
		APB1RSTR: &mmio.Reg{},
		AHBENR:   &mmio.Reg{},
		APB2ENR:  &mmio.Reg{},
		APB1ENR:  &mmio.Reg{},
		BDCR:     &mmio.Reg{},
		CSR:      &mmio.Reg{},
		AHBRSTR:  &mmio.Reg{},
		CFGR2:    &mmio.Reg{},
		CFGR3:    &mmio.Reg{},
	}
	r.CR.Set(crHSION | crHSIRDY | 0x80) // default HSITRIM midpoint
	return r
}
