//go:build windows
// +build windows

// Completion: 100% - LoadLibrary injection complete
package main

import (
	"path/filepath"
)

// loadlibrary_windows.go - the classic remote-thread sibling of manual
// mapping: write the DLL path into the target and run LoadLibraryA on
// it. The module is registered in the target's module list, which is
// exactly what manual mapping avoids; it is kept for targets where
// registration does not matter.

// InjectLoadLibrary loads dllPath in the target via a remote
// LoadLibraryA call. True means the remote thread was spawned.
func InjectLoadLibrary(proc ProcessInfo, dllPath string) bool {
	absPath, err := filepath.Abs(dllPath)
	if err != nil {
		warnf("cannot resolve %s: %v", dllPath, err)
		return false
	}

	sys, err := ResolveSystemSymbols()
	if err != nil {
		warnf("%v", err)
		return false
	}

	target, err := OpenTarget(proc.PID)
	if err != nil {
		warnf("%v", err)
		return false
	}
	defer target.Close()
	statusf("opened process [%d] %s", proc.PID, proc.Name)

	// LoadLibraryA takes an ANSI path, NUL-terminated
	pathBytes := append([]byte(absPath), 0)
	pathAddr, err := target.Alloc(0, uintptr(len(pathBytes)))
	if err != nil {
		warnf("cannot allocate path buffer: %v", err)
		return false
	}
	if err := target.WriteMemory(pathAddr, pathBytes); err != nil {
		warnf("cannot write path buffer: %v", err)
		target.Free(pathAddr, uintptr(len(pathBytes)))
		return false
	}
	if err := target.SpawnThread(sys.LoadLibraryA, pathAddr); err != nil {
		warnf("cannot create remote thread: %v", err)
		target.Free(pathAddr, uintptr(len(pathBytes)))
		return false
	}

	statusf("remote LoadLibraryA(%s) thread started", absPath)
	return true
}
