// Completion: 100% - Instruction implementation complete
package main

import (
	"fmt"
	"os"
)

// PUSH/POP instructions for the loader prologue and epilogue. The
// loader preserves every callee-saved register it uses across the
// Win64 calls it makes.

// PushReg pushes a register value onto the stack
func (o *Out) PushReg(reg string) {
	regInfo, regOk := GetRegister(reg)
	if !regOk {
		return
	}

	if VerboseMode {
		fmt.Fprintf(os.Stderr, "push %s:", reg)
	}

	// PUSH uses compact encoding: 0x50 + reg
	// For extended registers (R8-R15), need REX prefix
	if regInfo.Encoding >= 8 {
		o.Write(0x41) // REX.B
		o.Write(0x50 + uint8(regInfo.Encoding&7))
	} else {
		o.Write(0x50 + uint8(regInfo.Encoding))
	}

	if VerboseMode {
		fmt.Fprintln(os.Stderr)
	}
}

// PopReg pops a value from the stack into a register
func (o *Out) PopReg(reg string) {
	regInfo, regOk := GetRegister(reg)
	if !regOk {
		return
	}

	if VerboseMode {
		fmt.Fprintf(os.Stderr, "pop %s:", reg)
	}

	// POP uses compact encoding: 0x58 + reg
	if regInfo.Encoding >= 8 {
		o.Write(0x41) // REX.B
		o.Write(0x58 + uint8(regInfo.Encoding&7))
	} else {
		o.Write(0x58 + uint8(regInfo.Encoding))
	}

	if VerboseMode {
		fmt.Fprintln(os.Stderr)
	}
}
