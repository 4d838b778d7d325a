package errcode

// Code is a stable error identifier for HAL failures.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK Code = "ok"

	// Clock plan validation (detected before any hardware write).
	FrequencyOutOfRange Code = "frequency_out_of_range"
	InvalidPrescaler    Code = "invalid_prescaler"
	InvalidMultiplier   Code = "invalid_multiplier"
	MissingSource       Code = "missing_source"
	UsbClockUnavailable Code = "usb_clock_unavailable"
	Consumed            Code = "consumed"
	Taken               Code = "taken"

	// Hardware sequencing (bounded waits on ready flags).
	OscStartupTimeout  Code = "osc_startup_timeout"
	PllLockTimeout     Code = "pll_lock_timeout"
	ClockSwitchTimeout Code = "clock_switch_timeout"

	// Frequency arithmetic.
	Overflow           Code = "overflow"
	NonIntegerDivision Code = "non_integer_division"

	// Peripheral drivers.
	Busy        Code = "busy"
	Nack        Code = "nack"
	Timeout     Code = "timeout"
	Overrun     Code = "overrun"
	BadConfig   Code = "bad_config"
	Unavailable Code = "unavailable"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// New builds a wrapped error with an operation and message.
func New(c Code, op, msg string) error {
	return &E{C: c, Op: op, Msg: msg}
}

// Wrap keeps the cause while tagging it with a code and operation.
func Wrap(c Code, op string, err error) error {
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, walking wrap chains by hand so no
// reflection lands in MCU binaries. Defaults to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	type coder interface{ Code() Code }
	type unwrapper interface{ Unwrap() error }
	for err != nil {
		if c, ok := err.(Code); ok {
			return c
		}
		if x, ok := err.(coder); ok {
			return x.Code()
		}
		u, ok := err.(unwrapper)
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return Error
}

// Is reports whether err carries the given code, directly or wrapped.
func Is(err error, c Code) bool { return Of(err) == c }
