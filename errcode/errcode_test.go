package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestOf(t *testing.T) {
	if got := Of(nil); got != OK {
		t.Fatalf("Of(nil) = %s", got)
	}
	if got := Of(Busy); got != Busy {
		t.Fatalf("Of(bare code) = %s", got)
	}
	if got := Of(&E{C: Nack, Op: "i2c.tx"}); got != Nack {
		t.Fatalf("Of(&E{}) = %s", got)
	}
	if got := Of(errors.New("plain")); got != Error {
		t.Fatalf("Of(plain) = %s", got)
	}
}

func TestOfWalksWrapChains(t *testing.T) {
	cause := &E{C: OscStartupTimeout, Op: "rcc.hse"}
	outer := fmt.Errorf("bringup: %w", cause)
	if got := Of(outer); got != OscStartupTimeout {
		t.Fatalf("Of through fmt wrapper = %s", got)
	}

	// An outer code shadows anything deeper.
	tagged := Wrap(Timeout, "serial.read", cause)
	if got := Of(tagged); got != Timeout {
		t.Fatalf("Of(Wrap) = %s, want the outer tag", got)
	}
	if !Is(tagged, Timeout) {
		t.Fatal("Is missed the outer tag")
	}
	if Is(tagged, OscStartupTimeout) {
		t.Fatal("Is reported the shadowed inner code")
	}
}

func TestErrorFormatting(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&E{C: BadConfig}, "bad_config"},
		{&E{C: BadConfig, Op: "pwm.configure"}, "pwm.configure: bad_config"},
		{&E{C: BadConfig, Op: "pwm.configure", Msg: "zero frequency or resolution"},
			"pwm.configure: bad_config: zero frequency or resolution"},
		{New(InvalidPrescaler, "rcc.plan.ahb", "divider 3 not in table"),
			"rcc.plan.ahb: invalid_prescaler: divider 3 not in table"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); got != tc.want {
			t.Fatalf("Error() = %q, want %q", got, tc.want)
		}
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("bus held low")
	err := Wrap(Busy, "i2c.tx", cause)
	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause lost")
	}
	if got := Of(err); got != Busy {
		t.Fatalf("Of = %s", got)
	}
}
