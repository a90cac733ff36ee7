//go:build tinygo || baremetal

// Command rxfw is the receiver firmware: it supervises the on-chip radio link
// every 20ms, lights the board LED while the link is up and prints the
// channel widths on the console.
package main

import (
	"machine"
	"time"

	"github.com/ystepanoff/rclink"
)

const cyclePeriod = 20 * time.Millisecond

func main() {
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	led.Low()

	receiver, _, err := rclink.NewReceiver(rclink.DefaultRadioConfig())
	if err != nil {
		println("Failed to initialise radio:", err.Error())
		return
	}

	receiver.RegisterLinkCallback(func(s rclink.LinkStatus) {
		led.Set(s == rclink.LinkUp)
	})

	println("Listening for command packets...")
	for {
		start := time.Now()
		out := receiver.UpdateCycle(start)
		println(out.String())

		if d := cyclePeriod - time.Since(start); d > 0 {
			time.Sleep(d)
		}
	}
}
