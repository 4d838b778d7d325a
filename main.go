//go:build tinygo

// Bringup firmware for a Nucleo-style F3 board: 8 MHz bypass clock from
// the on-board debugger, PLL to 72 MHz, a clock report on USART2
// (PA2/PA3) and the user LED on PA5 breathing from TIM2 channel 1.
//
// Build with a variant tag, for instance:
//
//	tinygo build -tags stm32f303xe .
package main

import (
	"time"

	"stm32f3hal-go/flash"
	"stm32f3hal-go/freq"
	"stm32f3hal-go/gpio"
	"stm32f3hal-go/pwm"
	"stm32f3hal-go/rcc"
	"stm32f3hal-go/serial"
	"stm32f3hal-go/x/fmtx"
	"stm32f3hal-go/x/ramp"
)

const (
	consoleBaud = 115200

	breatheTop   = 1000
	breatheSteps = 50
	breatheOver  = time.Second
)

func main() {
	r, err := rcc.Take()
	if err != nil {
		halt("rcc", err)
	}
	p, err := r.Plan()
	if err != nil {
		halt("plan", err)
	}
	must(p.UseHSEBypass(freq.MHz(8)))
	must(p.PLL(rcc.PllSrcHSE, 1, 9))
	must(p.Sysclk(rcc.SourcePLL))
	must(p.APB1Div(2))
	clocks, err := p.Freeze(flash.Take())
	if err != nil {
		halt("freeze", err)
	}

	porta := gpio.PortA(r.AHBBus())
	tx, _ := porta.Pin(2)
	rx, _ := porta.Pin(3)
	must(tx.ConfigureAltFunc(7, gpio.PushPull, gpio.SpeedHigh))
	must(rx.ConfigureAltFunc(7, gpio.PushPull, gpio.SpeedHigh))
	led, _ := porta.Pin(5)
	must(led.ConfigureAltFunc(1, gpio.PushPull, gpio.SpeedLow))

	console := serial.USART2(r.APB1Bus())
	must(console.Configure(serial.Config{Clock: clocks.Pclk1(), Baud: consoleBaud}))

	fmtx.Fprintf(console, "%s up\r\n", rcc.Variant())
	fmtx.Fprintf(console, "sysclk %v  hclk %v\r\n", clocks.Sysclk(), clocks.Hclk())
	fmtx.Fprintf(console, "pclk1 %v  pclk2 %v\r\n", clocks.Pclk1(), clocks.Pclk2())
	fmtx.Fprintf(console, "tim1 %v  tim2 %v\r\n", clocks.Tclk1(), clocks.Tclk2())
	if f, on := clocks.UsbClk(); on {
		fmtx.Fprintf(console, "usb %v\r\n", f)
	}

	t := pwm.TIM2(r.APB1Bus())
	must(t.Configure(pwm.Config{Tick: clocks.Tclk1(), Frequency: freq.KHz(1), Resolution: breatheTop}))
	ch, err := t.Channel(1)
	if err != nil {
		halt("pwm", err)
	}
	ch.Enable()

	sleep := func(d time.Duration) bool { time.Sleep(d); return true }
	set := func(level uint32) { ch.SetDuty(level) }
	for {
		ramp.Linear(0, breatheTop, ch.MaxDuty(), breatheOver, breatheSteps, sleep, set)
		ramp.Linear(breatheTop, 0, ch.MaxDuty(), breatheOver, breatheSteps, sleep, set)
	}
}

func must(err error) {
	if err != nil {
		halt("config", err)
	}
}

func halt(where string, err error) {
	println(where, err.Error())
	for {
		time.Sleep(time.Second)
	}
}
