// cmd/clkplan/main.go
//
// Host-side clock planner: builds a plan from flags, validates it
// against a part's limit table and prints the derived tree. Touches no
// hardware, so a bad configuration can be rejected at the desk instead
// of on the bench.
//
//	clkplan -variant stm32f303xc -hse 8000000 -pllmul 9 -apb1 2 -usb
package main

import (
	"flag"
	"os"
	"sort"
	"strings"

	"stm32f3hal-go/freq"
	"stm32f3hal-go/rcc"
	"stm32f3hal-go/x/fmtx"
)

var variants = map[string]func() rcc.Limits{
	"stm32f301x6": rcc.LimitsSTM32F301x6,
	"stm32f301x8": rcc.LimitsSTM32F301x8,
	"stm32f302x6": rcc.LimitsSTM32F302x6,
	"stm32f302x8": rcc.LimitsSTM32F302x8,
	"stm32f302xb": rcc.LimitsSTM32F302xB,
	"stm32f302xc": rcc.LimitsSTM32F302xC,
	"stm32f302xd": rcc.LimitsSTM32F302xD,
	"stm32f302xe": rcc.LimitsSTM32F302xE,
	"stm32f303x6": rcc.LimitsSTM32F303x6,
	"stm32f303x8": rcc.LimitsSTM32F303x8,
	"stm32f303xb": rcc.LimitsSTM32F303xB,
	"stm32f303xc": rcc.LimitsSTM32F303xC,
	"stm32f303xd": rcc.LimitsSTM32F303xD,
	"stm32f303xe": rcc.LimitsSTM32F303xE,
	"stm32f318x8": rcc.LimitsSTM32F318x8,
	"stm32f328x8": rcc.LimitsSTM32F328x8,
	"stm32f334x4": rcc.LimitsSTM32F334x4,
	"stm32f334x6": rcc.LimitsSTM32F334x6,
	"stm32f334x8": rcc.LimitsSTM32F334x8,
	"stm32f358xc": rcc.LimitsSTM32F358xC,
	"stm32f373x8": rcc.LimitsSTM32F373x8,
	"stm32f373xb": rcc.LimitsSTM32F373xB,
	"stm32f373xc": rcc.LimitsSTM32F373xC,
	"stm32f378xc": rcc.LimitsSTM32F378xC,
	"stm32f398xe": rcc.LimitsSTM32F398xE,
}

func main() {
	var (
		variant = flag.String("variant", "stm32f303xc", "target part name (-variant list to enumerate)")
		hse     = flag.Uint("hse", 0, "external oscillator frequency in Hz, 0 for none")
		bypass  = flag.Bool("bypass", false, "OSC_IN is driven externally rather than by a crystal")
		pllSrc  = flag.String("pll-src", "", "PLL input, hsi or hse (default: hse when one is declared)")
		prediv  = flag.Uint("prediv", 0, "PLL input predivider (default 1, or the fixed 2 for hsi)")
		pllmul  = flag.Uint("pllmul", 0, "PLL multiplier 2..16, 0 leaves the PLL off")
		sysclk  = flag.String("sysclk", "", "SYSCLK source, hsi/hse/pll (default: fastest configured)")
		ahb     = flag.Uint("ahb", 1, "AHB prescaler")
		apb1    = flag.Uint("apb1", 1, "APB1 prescaler")
		apb2    = flag.Uint("apb2", 1, "APB2 prescaler")
		usb     = flag.Bool("usb", false, "require a valid 48 MHz USB clock")
	)
	flag.Parse()

	if *variant == "list" {
		fmtx.Printf("%s\n", strings.Join(variantNames(), "\n"))
		return
	}
	newLimits, ok := variants[*variant]
	if !ok {
		fail("unknown variant %q, known parts:\n  %s", *variant, strings.Join(variantNames(), " "))
	}
	if *hse > 0xFFFF_FFFF {
		fail("-hse does not fit in 32 bits")
	}

	p := rcc.NewPlan(newLimits())
	if *hse > 0 {
		declare := p.UseHSE
		if *bypass {
			declare = p.UseHSEBypass
		}
		check(declare(freq.Hz(uint32(*hse))))
	}

	if *pllmul > 0 {
		src := rcc.PllSrcHSI
		switch *pllSrc {
		case "hsi":
		case "hse":
			src = rcc.PllSrcHSE
		case "":
			if *hse > 0 {
				src = rcc.PllSrcHSE
			}
		default:
			fail("unknown PLL source %q", *pllSrc)
		}
		div := *prediv
		if div == 0 {
			div = 1
			if src == rcc.PllSrcHSI {
				div = 2
			}
		}
		check(p.PLL(src, uint32(div), uint32(*pllmul)))
	} else if *pllSrc != "" || *prediv != 0 {
		fail("-pll-src and -prediv have no effect without -pllmul")
	}

	src := rcc.SourceHSI
	switch *sysclk {
	case "hsi":
	case "hse":
		src = rcc.SourceHSE
	case "pll":
		src = rcc.SourcePLL
	case "":
		switch {
		case *pllmul > 0:
			src = rcc.SourcePLL
		case *hse > 0:
			src = rcc.SourceHSE
		}
	default:
		fail("unknown SYSCLK source %q", *sysclk)
	}
	check(p.Sysclk(src))
	check(p.AHBDiv(uint32(*ahb)))
	check(p.APB1Div(uint32(*apb1)))
	check(p.APB2Div(uint32(*apb2)))
	if *usb {
		check(p.RequireUSB())
	}

	vp, err := p.Validate()
	if err != nil {
		fail("plan rejected: %v", err)
	}

	c := vp.Clocks
	fmtx.Printf("variant    %s\n", *variant)
	fmtx.Printf("sysclk     %v  (from %v)\n", c.Sysclk(), c.Source())
	fmtx.Printf("hclk       %v  (ahb /%d)\n", c.Hclk(), *ahb)
	fmtx.Printf("pclk1      %v  (apb1 /%d)\n", c.Pclk1(), *apb1)
	fmtx.Printf("pclk2      %v  (apb2 /%d)\n", c.Pclk2(), *apb2)
	fmtx.Printf("tim pclk1  %v\n", c.Tclk1())
	fmtx.Printf("tim pclk2  %v\n", c.Tclk2())
	if f, on := c.PllClk(); on {
		fmtx.Printf("pll        %v\n", f)
	}
	if f, on := c.UsbClk(); on {
		fmtx.Printf("usb        %v\n", f)
	} else {
		fmtx.Printf("usb        unavailable\n")
	}
	fmtx.Printf("flash      %d wait states\n", vp.WaitStates)
}

func variantNames() []string {
	ns := make([]string, 0, len(variants))
	for n := range variants {
		ns = append(ns, n)
	}
	sort.Strings(ns)
	return ns
}

func check(err error) {
	if err != nil {
		fail("%v", err)
	}
}

func fail(format string, a ...any) {
	fmtx.Fprintf(os.Stderr, "clkplan: "+format+"\n", a...)
	os.Exit(1)
}
