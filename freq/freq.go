// Package freq provides the 32-bit frequency arithmetic used by the
// clock tree. All derivations are integer-exact or fail loudly; nothing
// here rounds silently.
package freq

import (
	"time"

	"stm32f3hal-go/errcode"
)

// Hertz is a frequency in Hz. The clock tree never exceeds a few hundred
// MHz, so 32 bits are enough; all checked operations guard the full
// uint32 range anyway.
type Hertz uint32

// Constructors.
func Hz(n uint32) Hertz  { return Hertz(n) }
func KHz(n uint32) Hertz { return Hertz(n * 1000) }
func MHz(n uint32) Hertz { return Hertz(n * 1000 * 1000) }

// Hz returns the raw count.
func (f Hertz) Hz() uint32 { return uint32(f) }

// Mul multiplies by an integer factor, failing with overflow instead of
// wrapping.
func (f Hertz) Mul(n uint32) (Hertz, error) {
	if n == 0 || f == 0 {
		return 0, nil
	}
	p := uint64(f) * uint64(n)
	if p > 0xFFFFFFFF {
		return 0, &errcode.E{C: errcode.Overflow, Op: "freq.mul"}
	}
	return Hertz(p), nil
}

// DivExact divides by n and fails unless the division is exact. Clock
// nodes that must not lose precision (PLL input, USB) use this form.
func (f Hertz) DivExact(n uint32) (Hertz, error) {
	if n == 0 {
		return 0, &errcode.E{C: errcode.NonIntegerDivision, Op: "freq.div", Msg: "divide by zero"}
	}
	if uint32(f)%n != 0 {
		return 0, &errcode.E{C: errcode.NonIntegerDivision, Op: "freq.div"}
	}
	return f / Hertz(n), nil
}

// Div divides truncating. Bus prescalers are powers of two and SYSCLK
// values divide evenly in practice, but the truncation here is the
// documented hardware behaviour either way.
func (f Hertz) Div(n uint32) Hertz {
	if n == 0 {
		return 0
	}
	return f / Hertz(n)
}

// Period converts the frequency to its period. Zero frequency yields
// zero duration.
func (f Hertz) Period() time.Duration {
	if f == 0 {
		return 0
	}
	return time.Duration(uint64(time.Second) / uint64(f))
}

// String renders kHz/MHz with exact values kept in Hz.
func (f Hertz) String() string {
	n := uint32(f)
	switch {
	case n >= 1000*1000 && n%(1000*1000) == 0:
		return utoa(n/(1000*1000)) + " MHz"
	case n >= 1000 && n%1000 == 0:
		return utoa(n/1000) + " kHz"
	default:
		return utoa(n) + " Hz"
	}
}

func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
