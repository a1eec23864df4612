// Completion: 100% - Module complete
package main

import (
	"fmt"
	"os"
)

// CALL instruction. The loader only ever calls through registers: the
// two function pointers handed to it (LoadLibraryA, GetProcAddress),
// the TLS callbacks and the module entry point are all absolute
// addresses computed at run time, never relative targets known at
// assembly time.

// CallRegister generates a CALL to address in register (indirect call)
func (o *Out) CallRegister(reg string) {
	regInfo, regOk := GetRegister(reg)
	if !regOk {
		return
	}

	if VerboseMode {
		fmt.Fprintf(os.Stderr, "call %s:", reg)
	}

	// CALL r/m64 (opcode 0xFF /2)
	rex := uint8(0x48)
	if regInfo.Encoding >= 8 {
		rex |= 0x01 // REX.B
	}
	o.Write(rex)

	o.Write(0xFF)

	// ModR/M: 11 010 reg (register direct, opcode extension /2)
	modrm := uint8(0xD0) | (regInfo.Encoding & 7)
	o.Write(modrm)

	if VerboseMode {
		fmt.Fprintln(os.Stderr)
	}
}
