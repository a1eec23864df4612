// Completion: 100% - Instruction implementation complete
package main

import (
	"fmt"
	"os"
)

// Conditional jump instructions for the loader's control flow:
//   - skipping absent data directories
//   - terminating the relocation block walk on a zero page address
//   - terminating thunk and TLS callback walks on null entries
//   - relocation-type dispatch

// Condition codes for jumps
type JumpCondition int

const (
	JumpEqual          JumpCondition = iota // JE/JZ - equal/zero
	JumpNotEqual                            // JNE/JNZ - not equal/not zero
	JumpGreater                             // JG/JNLE - greater (signed)
	JumpGreaterOrEqual                      // JGE/JNL - greater or equal (signed)
	JumpLess                                // JL/JNGE - less (signed)
	JumpLessOrEqual                         // JLE/JNG - less or equal (signed)
	JumpAbove                               // JA/JNBE - above (unsigned)
	JumpAboveOrEqual                        // JAE/JNB - above or equal (unsigned)
	JumpBelow                               // JB/JNAE - below (unsigned)
	JumpBelowOrEqual                        // JBE/JNA - below or equal (unsigned)
)

// JumpConditional generates a conditional jump instruction
// offset is the relative offset to jump to (signed, from the end of the instruction)
func (o *Out) JumpConditional(condition JumpCondition, offset int32) {
	var opcode uint8
	var name string

	switch condition {
	case JumpEqual:
		opcode = 0x84
		name = "je"
	case JumpNotEqual:
		opcode = 0x85
		name = "jne"
	case JumpGreater:
		opcode = 0x8F
		name = "jg"
	case JumpGreaterOrEqual:
		opcode = 0x8D
		name = "jge"
	case JumpLess:
		opcode = 0x8C
		name = "jl"
	case JumpLessOrEqual:
		opcode = 0x8E
		name = "jle"
	case JumpAbove:
		opcode = 0x87
		name = "ja"
	case JumpAboveOrEqual:
		opcode = 0x83
		name = "jae"
	case JumpBelow:
		opcode = 0x82
		name = "jb"
	case JumpBelowOrEqual:
		opcode = 0x86
		name = "jbe"
	default:
		return
	}

	if VerboseMode {
		fmt.Fprintf(os.Stderr, "%s %d:", name, offset)
	}

	// Use near jump (32-bit offset) with 0x0F prefix
	o.Write(0x0F)
	o.Write(opcode)

	// Write 32-bit offset (little-endian)
	o.Write(uint8(offset & 0xFF))
	o.Write(uint8((offset >> 8) & 0xFF))
	o.Write(uint8((offset >> 16) & 0xFF))
	o.Write(uint8((offset >> 24) & 0xFF))

	if VerboseMode {
		fmt.Fprintln(os.Stderr)
	}
}

// JumpUnconditional generates an unconditional jump
func (o *Out) JumpUnconditional(offset int32) {
	if VerboseMode {
		fmt.Fprintf(os.Stderr, "jmp %d:", offset)
	}

	// Use near jump (32-bit offset)
	o.Write(0xE9)

	// Write 32-bit offset (little-endian)
	o.Write(uint8(offset & 0xFF))
	o.Write(uint8((offset >> 8) & 0xFF))
	o.Write(uint8((offset >> 16) & 0xFF))
	o.Write(uint8((offset >> 24) & 0xFF))

	if VerboseMode {
		fmt.Fprintln(os.Stderr)
	}
}
