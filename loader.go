// Completion: 95% - DIR64 relocations, IAT, TLS callbacks and entry call working
package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// loader.go - synthesis of the in-target loader routine
//
// The loader executes inside the target process on a remote thread, so
// it is assembled here instruction by instruction instead of being
// compiled Go code: a Go function drags the runtime along and is not
// position independent, while the byte sequence built below derives
// every address it touches from the loader-data record its thread
// argument points at. It contains no absolute addresses of any kind,
// which is checked by tests and is the property that lets it run at
// whatever base the remote allocator happened to return.
//
// Protocol (all offsets relative to the record passed in rcx):
//   +0  image base of the mapped DLL
//   +8  address of kernel32!LoadLibraryA
//   +16 address of kernel32!GetProcAddress
//
// The routine performs, in order: base relocations, import resolution,
// TLS callbacks, entry-point invocation. Absent directories are
// skipped; there is no way to report failure back to the injector.

// LoaderData is the record handed to the in-target loader
type LoaderData struct {
	ImageBase      uint64
	LoadLibraryA   uint64
	GetProcAddress uint64
}

const loaderDataSize = 24

// Bytes encodes the record in the layout the loader expects
func (ld *LoaderData) Bytes() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, ld)
	return buf.Bytes()
}

// Relocation kinds (the high 4 bits of a relocation entry)
type relocKind uint16

const (
	relocAbsolute relocKind = 0  // padding entry, never applied
	relocHighLow  relocKind = 3  // 32-bit adjustment (PE32 images)
	relocDir64    relocKind = 10 // 64-bit adjustment (PE32+ images)
)

// Field offsets the loader dereferences, all relative to the NT header
// (signature 4 bytes + COFF header 20 bytes + optional header fields).
const (
	ntOffEntryPoint   = 0x28 // OptionalHeader.AddressOfEntryPoint
	ntOffImageBase    = 0x30 // OptionalHeader.ImageBase
	ntOffDirImportVA  = 0x90 // DataDirectory[1].VirtualAddress
	ntOffDirRelocVA   = 0xB0 // DataDirectory[5].VirtualAddress
	ntOffDirRelocSize = 0xB4 // DataDirectory[5].Size
	ntOffDirTLSVA     = 0xD0 // DataDirectory[9].VirtualAddress
	ntOffDirTLSSize   = 0xD4 // DataDirectory[9].Size

	importOffOriginalFirstThunk = 0
	importOffName               = 12
	importOffFirstThunk         = 16
	importDescriptorSize        = 20

	tlsOffAddressOfCallbacks = 24

	dllProcessAttach = 1
)

type jumpFixup struct {
	pos   int    // offset of the rel32 field inside the text
	label string // target label name
}

// loaderBuilder assembles the loader with named labels; every jump is
// emitted with a zero displacement and patched once all labels are
// known.
type loaderBuilder struct {
	text   bytes.Buffer
	out    *Out
	labels map[string]int
	fixups []jumpFixup
}

func newLoaderBuilder() *loaderBuilder {
	lb := &loaderBuilder{labels: make(map[string]int)}
	lb.out = NewOut(&BufferWrapper{&lb.text})
	return lb
}

func (lb *loaderBuilder) label(name string) {
	lb.labels[name] = lb.text.Len()
}

func (lb *loaderBuilder) jcc(cond JumpCondition, target string) {
	// 0F xx + rel32: displacement starts 2 bytes in
	lb.fixups = append(lb.fixups, jumpFixup{pos: lb.text.Len() + 2, label: target})
	lb.out.JumpConditional(cond, 0)
}

func (lb *loaderBuilder) jmp(target string) {
	// E9 + rel32: displacement starts 1 byte in
	lb.fixups = append(lb.fixups, jumpFixup{pos: lb.text.Len() + 1, label: target})
	lb.out.JumpUnconditional(0)
}

func (lb *loaderBuilder) finalize() ([]byte, error) {
	code := lb.text.Bytes()
	for _, f := range lb.fixups {
		target, ok := lb.labels[f.label]
		if !ok {
			return nil, fmt.Errorf("loader assembly references unknown label %q", f.label)
		}
		rel := int32(target - (f.pos + 4))
		binary.LittleEndian.PutUint32(code[f.pos:f.pos+4], uint32(rel))
	}
	return code, nil
}

// buildLoaderCode assembles the position-independent loader for the
// given relocation kind. Only relocDir64 is reachable: the injector
// refuses PE32 input at parse time, and injector and target must share
// word size.
func buildLoaderCode(kind relocKind) ([]byte, error) {
	lb, err := assembleLoader(kind)
	if err != nil {
		return nil, err
	}
	return lb.finalize()
}

// assembleLoader emits the loader instructions into a fresh builder,
// leaving the jump fixups unapplied for inspection.
func assembleLoader(kind relocKind) (*loaderBuilder, error) {
	if kind != relocDir64 {
		return nil, fmt.Errorf("unsupported relocation kind %d (only DIR64 images can be mapped)", kind)
	}

	lb := newLoaderBuilder()
	o := lb.out

	// Prologue: preserve callee-saved registers, reserve shadow space.
	// Eight pushes keep 16-byte stack alignment; sub 0x28 realigns for
	// the Win64 calls below and doubles as their 32-byte shadow area.
	o.PushReg("rbx")
	o.PushReg("rsi")
	o.PushReg("rdi")
	o.PushReg("rbp")
	o.PushReg("r12")
	o.PushReg("r13")
	o.PushReg("r14")
	o.PushReg("r15")
	o.SubImmFromReg("rsp", 0x28)

	// rcx = loader data record
	o.TestRegReg("rcx", "rcx")
	lb.jcc(JumpEqual, "done")
	o.MovRegToReg("rbx", "rcx")
	o.MovMemToReg("rsi", "rbx", 0)  // rsi = image base
	o.MovMemToReg("r12", "rbx", 8)  // r12 = LoadLibraryA
	o.MovMemToReg("r13", "rbx", 16) // r13 = GetProcAddress

	// r14 = NT header = base + e_lfanew
	o.MovU32MemToReg("rax", "rsi", peOffsetLocation)
	o.LeaBaseIndexToReg("r14", "rsi", "rax")

	// --- Base relocations ---
	// r15 = delta = mapped base - preferred base; nothing to do at zero.
	o.MovMemToReg("rax", "r14", ntOffImageBase)
	o.MovRegToReg("r15", "rsi")
	o.SubRegFromReg("r15", "rax")
	lb.jcc(JumpEqual, "imports")
	o.MovU32MemToReg("rax", "r14", ntOffDirRelocSize)
	o.TestRegReg("rax", "rax")
	lb.jcc(JumpEqual, "imports")
	o.MovU32MemToReg("rax", "r14", ntOffDirRelocVA)
	o.LeaBaseIndexToReg("rdi", "rsi", "rax") // rdi = relocation block

	lb.label("relocBlock")
	o.MovU32MemToReg("rax", "rdi", 0) // block VirtualAddress
	o.TestRegReg("rax", "rax")
	lb.jcc(JumpEqual, "imports") // zero page address terminates
	o.MovU32MemToReg("r10", "rdi", 4) // SizeOfBlock
	o.LeaBaseIndexToReg("rbp", "rsi", "rax")  // rbp = page base
	o.LeaMemToReg("rcx", "rdi", 8)            // rcx = first entry
	o.LeaBaseIndexToReg("rdx", "rdi", "r10")  // rdx = block end

	lb.label("relocEntry")
	o.CmpRegToReg("rcx", "rdx")
	lb.jcc(JumpAboveOrEqual, "relocNext")
	o.MovU16MemToReg("rax", "rcx", 0) // entry: type<<12 | offset
	o.MovRegToReg("r8", "rax")
	o.ShrImmReg("r8", 12)
	o.AndRegWithImm("rax", 0xFFF)
	o.CmpRegToImm("r8", int64(relocDir64))
	lb.jcc(JumpNotEqual, "relocSkip") // other kinds are padding here
	o.AddRegToMemIndex("r15", "rbp", "rax")
	lb.label("relocSkip")
	o.AddImmToReg("rcx", 2)
	lb.jmp("relocEntry")

	lb.label("relocNext")
	o.MovRegToReg("rdi", "rdx") // advance by SizeOfBlock
	lb.jmp("relocBlock")

	// --- Import resolution ---
	lb.label("imports")
	o.MovU32MemToReg("rax", "r14", ntOffDirImportVA)
	o.TestRegReg("rax", "rax")
	lb.jcc(JumpEqual, "tls")
	o.LeaBaseIndexToReg("rdi", "rsi", "rax") // rdi = import descriptor

	lb.label("importDesc")
	o.MovU32MemToReg("rax", "rdi", importOffName)
	o.TestRegReg("rax", "rax")
	lb.jcc(JumpEqual, "tls") // zero Name terminates the table
	o.LeaBaseIndexToReg("rcx", "rsi", "rax")
	o.CallRegister("r12") // LoadLibraryA(name)
	o.MovRegToReg("rbx", "rax")
	// Thunk iteration source: OriginalFirstThunk, or FirstThunk when
	// the hint table is absent. The value is read into a register
	// before the FirstThunk slot is overwritten, so the aliased case
	// cannot corrupt the walk.
	o.MovU32MemToReg("rax", "rdi", importOffOriginalFirstThunk)
	o.TestRegReg("rax", "rax")
	lb.jcc(JumpNotEqual, "importHaveThunk")
	o.MovU32MemToReg("rax", "rdi", importOffFirstThunk)
	lb.label("importHaveThunk")
	o.LeaBaseIndexToReg("rbp", "rsi", "rax") // rbp = thunk cursor
	o.MovU32MemToReg("rax", "rdi", importOffFirstThunk)
	o.LeaBaseIndexToReg("r15", "rsi", "rax") // r15 = IAT slot cursor

	lb.label("importThunk")
	o.MovMemToReg("rax", "rbp", 0)
	o.TestRegReg("rax", "rax")
	lb.jcc(JumpEqual, "importNext") // zero thunk terminates
	o.MovRegToReg("rdx", "rax")
	o.ShrImmReg("rdx", 63) // ordinal flag
	lb.jcc(JumpEqual, "importByName")
	o.MovzxRegReg("rdx", "ax") // ordinal in the low word
	lb.jmp("importResolve")
	lb.label("importByName")
	o.LeaBaseIndexToReg("rdx", "rsi", "rax")
	o.AddImmToReg("rdx", 2) // skip IMAGE_IMPORT_BY_NAME.Hint
	lb.label("importResolve")
	o.MovRegToReg("rcx", "rbx")
	o.CallRegister("r13") // GetProcAddress(module, name-or-ordinal)
	o.MovRegToMem("rax", "r15", 0)
	o.AddImmToReg("rbp", 8)
	o.AddImmToReg("r15", 8)
	lb.jmp("importThunk")

	lb.label("importNext")
	o.AddImmToReg("rdi", importDescriptorSize)
	lb.jmp("importDesc")

	// --- TLS callbacks ---
	lb.label("tls")
	o.MovU32MemToReg("rax", "r14", ntOffDirTLSSize)
	o.TestRegReg("rax", "rax")
	lb.jcc(JumpEqual, "entry")
	o.MovU32MemToReg("rax", "r14", ntOffDirTLSVA)
	o.LeaBaseIndexToReg("rdi", "rsi", "rax")
	o.MovMemToReg("rbp", "rdi", tlsOffAddressOfCallbacks)
	o.TestRegReg("rbp", "rbp")
	lb.jcc(JumpEqual, "entry")

	lb.label("tlsLoop")
	// Advance and dereference every iteration; the dereferenced null
	// ends the list, not the array pointer itself.
	o.MovMemToReg("rax", "rbp", 0)
	o.TestRegReg("rax", "rax")
	lb.jcc(JumpEqual, "entry")
	o.MovRegToReg("rcx", "rsi")
	o.MovImmToReg("rdx", "1") // DLL_PROCESS_ATTACH
	o.XorRegWithReg("r8", "r8")
	o.CallRegister("rax")
	o.AddImmToReg("rbp", 8)
	lb.jmp("tlsLoop")

	// --- Entry point ---
	lb.label("entry")
	o.MovU32MemToReg("rax", "r14", ntOffEntryPoint)
	o.TestRegReg("rax", "rax")
	lb.jcc(JumpEqual, "done")
	o.LeaBaseIndexToReg("rax", "rsi", "rax")
	o.MovRegToReg("rcx", "rsi")
	o.MovImmToReg("rdx", "1") // DLL_PROCESS_ATTACH
	o.XorRegWithReg("r8", "r8")
	o.CallRegister("rax") // DllMain(base, DLL_PROCESS_ATTACH, 0); return ignored

	lb.label("done")
	o.XorRegWithReg("rax", "rax")
	o.AddImmToReg("rsp", 0x28)
	o.PopReg("r15")
	o.PopReg("r14")
	o.PopReg("r13")
	o.PopReg("r12")
	o.PopReg("rbp")
	o.PopReg("rdi")
	o.PopReg("rsi")
	o.PopReg("rbx")
	o.Ret()

	return lb, nil
}

// BuildLoaderBlob assembles the loader code followed by the 16-aligned
// loader-data record, ready to be written into a single remote region.
// Returns the blob and the offset of the record within it (the remote
// thread argument).
func BuildLoaderBlob(data LoaderData, reserve uint32) ([]byte, int, error) {
	code, err := buildLoaderCode(relocDir64)
	if err != nil {
		return nil, 0, err
	}
	dataOff := (len(code) + 15) &^ 15
	blob := make([]byte, dataOff+loaderDataSize)
	copy(blob, code)
	copy(blob[dataOff:], data.Bytes())
	if uint32(len(blob)) > reserve {
		return nil, 0, fmt.Errorf("loader blob (%d bytes) exceeds reserved region (%d bytes)", len(blob), reserve)
	}
	return blob, dataOff, nil
}
