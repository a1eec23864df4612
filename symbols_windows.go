//go:build windows
// +build windows

// Completion: 100% - Module complete
package main

import (
	"golang.org/x/sys/windows"
)

// symbols_windows.go - the loader-data marshaller
//
// LoadLibraryA and GetProcAddress are resolved in the injector's own
// address space. The addresses are valid inside the target because
// kernel32 is mapped at the same base in every process on a given boot
// (a documented property of the Windows loader). Should that ever not
// hold, resolution fails here and nothing is written to the target.

// ResolveSystemSymbols returns the kernel32 addresses handed to the
// in-target loader
func ResolveSystemSymbols() (SystemSymbols, error) {
	kernel32, err := windows.GetModuleHandle(windows.StringToUTF16Ptr("kernel32.dll"))
	if err != nil {
		return SystemSymbols{}, injectErrorf(KindSystemSymbolMissing, "resolve symbols", err,
			"kernel32.dll not found in injector")
	}

	loadLibraryA, err := windows.GetProcAddress(kernel32, "LoadLibraryA")
	if err != nil || loadLibraryA == 0 {
		return SystemSymbols{}, injectErrorf(KindSystemSymbolMissing, "resolve symbols", err,
			"LoadLibraryA not resolved")
	}

	getProcAddress, err := windows.GetProcAddress(kernel32, "GetProcAddress")
	if err != nil || getProcAddress == 0 {
		return SystemSymbols{}, injectErrorf(KindSystemSymbolMissing, "resolve symbols", err,
			"GetProcAddress not resolved")
	}

	if VerboseMode {
		statusf("kernel32!LoadLibraryA at 0x%x, kernel32!GetProcAddress at 0x%x", loadLibraryA, getProcAddress)
	}

	return SystemSymbols{
		LoadLibraryA:   loadLibraryA,
		GetProcAddress: getProcAddress,
	}, nil
}
