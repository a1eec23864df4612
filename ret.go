// Completion: 100% - Instruction implementation complete
package main

import (
	"fmt"
	"os"
)

// Ret generates a near return instruction
func (o *Out) Ret() {
	if VerboseMode {
		fmt.Fprintf(os.Stderr, "ret:")
	}

	// RET (opcode 0xC3)
	o.Write(0xC3)

	if VerboseMode {
		fmt.Fprintln(os.Stderr)
	}
}
