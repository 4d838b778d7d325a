//go:build tinygo

package flash

import "stm32f3hal-go/mmio"

const acrAddr = 0x4002_2000

// Take returns the access control register of the device flash
// interface. Safe to call more than once; the handle is stateless.
func Take() *ACR {
	return &ACR{reg: mmio.At(acrAddr)}
}
