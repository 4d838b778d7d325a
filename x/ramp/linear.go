// Package ramp steps an integer level between two values over a fixed
// duration. It is caller-driven: the tick callback owns the timing and
// may cancel, so the same ramp runs from a goroutine on hardware or
// from a test that never sleeps.
package ramp

import (
	"time"

	"stm32f3hal-go/x/mathx"
)

// Step applies a new level, a PWM channel duty for instance.
type Step func(level uint32)

// Tick waits out one step and reports whether to keep going.
type Tick func(d time.Duration) bool

// Linear moves from cur to target in the given number of steps spread
// evenly over the duration. Every level is clamped to limit. Zero steps
// or zero duration snaps straight to the target.
func Linear(cur, target, limit uint32, over time.Duration, steps uint32, tick Tick, set Step) {
	if steps == 0 || over <= 0 {
		set(mathx.Clamp(target, 0, limit))
		return
	}
	span := int64(target) - int64(cur)
	level := int64(cur)
	acc := int64(0)
	stepDur := over / time.Duration(steps)
	if stepDur <= 0 {
		stepDur = 1
	}

	for i := uint32(1); i < steps; i++ {
		if !tick(stepDur) {
			return
		}
		// Spread the span across the steps without drift: carry the
		// remainder instead of rounding each step.
		acc += span
		if inc := acc / int64(steps); inc != 0 {
			acc -= inc * int64(steps)
			level = mathx.Clamp(level+inc, 0, int64(limit))
			set(uint32(level))
		}
	}
	set(mathx.Clamp(target, 0, limit))
}
